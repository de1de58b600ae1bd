// Package config loads canvasflow configuration with viper.
//
// Values come from, in increasing priority: a YAML config file, a .env file
// and the process environment. Environment keys are matched against nested
// config keys by trying every underscore/dot split, so SERVER_PORT and
// CAPABILITIES_FAL_KEY both land in their sections without explicit bindings.
//
//	var cfg config.AppConfig
//	err := config.LoadConfig("canvasflow", &cfg, config.WithConfigFile(path))
package config
