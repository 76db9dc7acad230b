package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the API on r
func RegisterRoutes(r gin.IRouter, h *Handlers) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	api := r.Group("/api")
	{
		api.POST("/run", h.Run)
		api.POST("/run/upload", h.Upload)

		api.GET("/runs", h.ListRuns)
		api.GET("/runs/stats", h.RunStats)
		api.GET("/runs/:id", h.GetRun)

		api.GET("/playground/defaults", h.Defaults)
		api.GET("/metrics", h.MetricsSnapshot)

		if h.snippets != nil {
			tests := api.Group("/projects/:projectId/issues/:issueId/tests")
			tests.GET("", h.ListSnippets)
			tests.POST("", h.CreateSnippet)
			tests.GET("/:testId", h.GetSnippet)
			tests.PUT("/:testId", h.UpdateSnippet)
			tests.DELETE("/:testId", h.DeleteSnippet)
			tests.POST("/:testId/run", h.RunSnippet)
		}
	}
}
