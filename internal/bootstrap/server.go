package bootstrap

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/api"
)

// NewServer builds the HTTP server over c.
func (c *Components) NewServer() *api.Server {
	svc := c.Config.Service

	opts := []api.HandlerOption{
		api.WithFiller(c.Filler),
		api.WithReportMetrics(c.Telemetry),
	}
	if r := c.recorder(); r != nil {
		opts = append(opts, api.WithRecorder(r))
	}
	if c.Collector != nil {
		opts = append(opts, api.WithNews(c.Collector))
	}
	if c.Rules != nil {
		opts = append(opts, api.WithRules(c.Rules, c.Keywords))
	}
	if c.History != nil {
		opts = append(opts, api.WithHistory(c.History))
	}
	handler := api.NewHandler(c.Classifier, c.Batch, c.Logger, opts...)

	cfg := &api.Config{
		Port:            svc.Port,
		Debug:           svc.Debug,
		ShutdownTimeout: svc.ShutdownTimeout,
		JWTSecret:       c.Config.Auth.JWTSecret,
		ServiceName:     svc.Name,
		ServiceVersion:  svc.Version,
		CORS: api.CORSConfig{
			Enabled:        true,
			AllowedOrigins: svc.CORSOrigins,
		},
	}

	return api.NewServer(cfg, c.Logger, func(router *gin.Engine) {
		api.SetupRoutes(router, handler, api.RouteOptions{
			ServiceName:    svc.Name,
			ServiceVersion: svc.Version,
			JWTSecret:      cfg.JWTSecret,
			Metrics:        c.Telemetry.Handler(),
			Checks:         c.readinessChecks(),
		})
	})
}

func (c *Components) readinessChecks() map[string]api.ReadinessCheck {
	checks := map[string]api.ReadinessCheck{}
	if c.DB != nil {
		checks["database"] = func(ctx context.Context) error {
			return c.DB.PingContext(ctx)
		}
	}
	if c.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return c.Redis.Ping(ctx).Err()
		}
	}
	return checks
}
