package component

import (
	"context"
	"fmt"
	"time"
)

// SlowProbe is the probe latency above which a dependency is reported
// degraded instead of healthy.
const SlowProbe = 500 * time.Millisecond

// Probe runs ping and turns its outcome into a Health report for name.
// A nil ping means the dependency was never started.
func Probe(ctx context.Context, name string, ping func(context.Context) error) Health {
	h := Health{Name: name, Status: StatusHealthy}
	if ping == nil {
		h.Status, h.Message = StatusUnhealthy, "not started"
		return h
	}
	start := time.Now()
	err := ping(ctx)
	elapsed := time.Since(start)
	switch {
	case err != nil:
		h.Status, h.Message = StatusUnhealthy, fmt.Sprintf("probe failed: %v", err)
	case elapsed > SlowProbe:
		h.Status, h.Message = StatusDegraded, fmt.Sprintf("slow probe: %s", elapsed.Round(time.Millisecond))
	}
	return h
}
