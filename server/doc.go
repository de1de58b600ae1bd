// Package server hosts the canvasflow HTTP API on Gin behind an h2c
// handler, so HTTP/2 clients can hold many SSE streams on one connection.
//
// Middleware (server/middleware) wraps the whole handler: panic recovery,
// request ids, CORS, a body size limit and request logging. Probe
// endpoints live in server/endpoint and the API handlers in server/api.
//
//	srv := server.New(cfg.Server, log)
//	srv.ApplyDefaults("canvasflow", registry.HealthAll)
//	api.New(deps).Register(srv.GinEngine())
//	registry.Register(server.NewComponent(srv))
package server
