package bootstrap

import (
	"github.com/kbukum/canvasflow/config"
)

// Config is the constraint on application config types. Any struct that
// embeds config.ServiceConfig satisfies it through promoted methods,
// provided it overrides ApplyDefaults and Validate for its own sections.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
