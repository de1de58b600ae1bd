// Package redis wraps go-redis with the service's logging, configuration
// and component lifecycle.
//
// TypedStore keeps JSON values under a key prefix with a TTL; the run
// manager uses it as its result cache. Locker implements a token lock
// (SET NX PX, compare-and-delete release) used to allow one active run
// per workflow across replicas.
//
//	cfg := redis.Config{Enabled: true, Addr: "localhost:6379"}
//	comp := redis.NewComponent(cfg, log)
package redis
