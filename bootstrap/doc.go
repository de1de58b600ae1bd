// Package bootstrap runs a canvasflow binary through its lifecycle:
// infrastructure components start in registration order, configure
// callbacks build the business layer on top of them, and everything stops
// in reverse order on a signal or when a task finishes.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(database.NewComponent(cfg.Store, app.Logger))
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*config.AppConfig]) error {
//	    return wireAPI(a)
//	})
//	err = app.Run(ctx)
package bootstrap
