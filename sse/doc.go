// Package sse streams server-sent events to HTTP clients.
//
// A Hub owns the connected clients. Publishers address clients by a glob
// pattern over client ids, so a run's subscribers are registered as
// "run:<id>:<uuid>" and reached with "run:<id>:*".
package sse
