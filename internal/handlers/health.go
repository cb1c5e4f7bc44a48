package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/threadfit/backend/internal/logger"
	"go.uber.org/zap"
)

// HealthCheck is a named dependency probe.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Health reports service liveness and the state of each dependency
// GET /health
func Health(checks ...HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		deps := make(gin.H, len(checks))
		for _, check := range checks {
			if err := check.Check(ctx); err != nil {
				logger.Log.Warn("Health check failed", zap.String("dependency", check.Name), zap.Error(err))
				deps[check.Name] = "unhealthy"
				status = http.StatusServiceUnavailable
				continue
			}
			deps[check.Name] = "ok"
		}

		state := "healthy"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{
			"status":       state,
			"service":      "threadfit-backend",
			"dependencies": deps,
			"timestamp":    time.Now().UTC(),
		})
	}
}
