package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RouteOptions holds the non-handler pieces of the route table.
type RouteOptions struct {
	ServiceName    string
	ServiceVersion string
	JWTSecret      string
	Metrics        http.Handler
	Checks         map[string]ReadinessCheck
}

// SetupRoutes registers the health, metrics and /api/v1 routes.
func SetupRoutes(router *gin.Engine, h *Handler, opts RouteOptions) {
	hc := &health{
		service: opts.ServiceName,
		version: opts.ServiceVersion,
		started: time.Now(),
		checks:  opts.Checks,
	}
	router.GET("/health", hc.live)
	router.HEAD("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/health/live", hc.live)
	router.GET("/health/ready", hc.ready)

	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	v1 := router.Group("/api/v1")
	if opts.JWTSecret != "" {
		v1.Use(JWTMiddleware(opts.JWTSecret))
	}

	classify := v1.Group("/classify")
	classify.POST("", h.Classify)
	classify.POST("/batch", h.ClassifyBatch)
	classify.POST("/simulate", h.Simulate)

	v1.GET("/taxonomy", h.Taxonomy)
	v1.POST("/workbook/fill", h.FillWorkbook)
	v1.POST("/workbook/master", h.UpdateMaster)

	newsGroup := v1.Group("/news")
	newsGroup.POST("/collect", h.CollectNews)
	newsGroup.GET("/download/:job_id", h.DownloadNews)

	rules := v1.Group("/rules")
	rules.GET("", h.ListRules)
	rules.POST("", h.CreateRule)
	rules.DELETE("/:id", h.DeleteRule)

	history := v1.Group("/history")
	history.GET("", h.ListHistory)
	history.GET("/stats", h.HistoryStats)
}
