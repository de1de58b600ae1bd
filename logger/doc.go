// Package logger provides structured logging for canvasflow using zerolog.
//
// Loggers are created from Config and passed explicitly to components. Each
// component tags its logger with WithComponent, and run-scoped code adds the
// workflow, run and node identifiers through the Field constants:
//
//	log := logger.New(&cfg.Logging, "canvasflow").WithComponent("engine")
//	log.Info("node complete", logger.Fields(logger.FieldNodeID, id, logger.FieldDuration, ms))
package logger
