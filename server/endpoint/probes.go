// Package endpoint provides the probe and build info handlers mounted by
// the server on every deployment.
package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/canvasflow/component"
)

// HealthChecker returns the health of the registered components.
type HealthChecker func(ctx context.Context) []component.Health

func check(ctx context.Context, checker HealthChecker) []component.Health {
	if checker == nil {
		return []component.Health{}
	}
	return checker(ctx)
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// Health reports the aggregate status with per-component detail. It
// answers 503 only when a component is unhealthy; degraded stays 200.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		components := check(c.Request.Context(), checker)
		status := component.Overall(components)

		code := http.StatusOK
		if status == component.StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":     status,
			"service":    serviceName,
			"timestamp":  now(),
			"components": components,
		})
	}
}

// Readiness tells the load balancer whether to route traffic here.
func Readiness(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "ready", http.StatusOK
		if component.Overall(check(c.Request.Context(), checker)) == component.StatusUnhealthy {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"service":   serviceName,
			"timestamp": now(),
		})
	}
}

// Liveness only confirms the process can serve HTTP.
func Liveness(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "alive",
			"service":   serviceName,
			"timestamp": now(),
		})
	}
}
