package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const readyCheckTimeout = 3 * time.Second

// Health statuses.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// ReadinessCheck reports whether one dependency is usable.
type ReadinessCheck func(ctx context.Context) error

// HealthResponse is the body of the health endpoints.
type HealthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Version string            `json:"version"`
	Uptime  string            `json:"uptime,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

type health struct {
	service string
	version string
	started time.Time
	checks  map[string]ReadinessCheck
}

func (h *health) live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  StatusHealthy,
		Service: h.service,
		Version: h.version,
		Uptime:  time.Since(h.started).Truncate(time.Second).String(),
	})
}

// ready runs every check; any failure makes the service unready.
func (h *health) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyCheckTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:  StatusHealthy,
		Service: h.service,
		Version: h.version,
		Checks:  make(map[string]string, len(h.checks)),
	}
	code := http.StatusOK
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = StatusUnhealthy
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = StatusHealthy
	}
	c.JSON(code, resp)
}
