// Package database opens GORM connections for the persistent workflow
// store. The sqlite driver is built in; the connection is retried with
// backoff on startup, pooled, logged through the canvasflow logger and
// exposed as a lifecycle component.
package database
