package database

import (
	"context"
	"fmt"

	"github.com/kbukum/canvasflow/component"
	"github.com/kbukum/canvasflow/logger"
)

// Component manages a DB as a lifecycle component.
type Component struct {
	cfg    Config
	log    *logger.Logger
	db     *DB
	models []any
}

var _ component.Component = (*Component)(nil)

// NewComponent creates the component. The connection opens on Start.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log}
}

// WithAutoMigrate registers models migrated on Start when AutoMigrate is on.
func (c *Component) WithAutoMigrate(models ...any) *Component {
	c.models = append(c.models, models...)
	return c
}

// DB returns the connection, or nil before Start.
func (c *Component) DB() *DB { return c.db }

func (c *Component) Name() string { return "database" }

func (c *Component) Start(ctx context.Context) error {
	db, err := Open(ctx, c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("database start: %w", err)
	}
	c.db = db
	if c.cfg.AutoMigrate && len(c.models) > 0 {
		if err := db.AutoMigrate(c.models...); err != nil {
			return fmt.Errorf("database auto-migrate: %w", err)
		}
	}
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *Component) Health(ctx context.Context) component.Health {
	var ping func(context.Context) error
	if c.db != nil {
		ping = c.db.PingContext
	}
	return component.Probe(ctx, c.Name(), ping)
}

func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("%s pool=%d/%d", c.cfg.DSN, c.cfg.MaxOpenConns, c.cfg.MaxIdleConns)
	if c.cfg.AutoMigrate {
		details += " auto-migrate=on"
	}
	return component.Description{Name: "SQLite", Type: "database", Details: details}
}
