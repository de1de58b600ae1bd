// Package component manages the lifecycle of canvasflow's infrastructure:
// the workflow store, redis, kafka, artifact storage and the HTTP server
// each implement Component and are started in registration order and
// stopped in reverse.
package component
