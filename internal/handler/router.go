package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tohfas/RAG-Access-Control/internal/middleware"
)

type RouterDeps struct {
	Query           *QueryHandler
	RateLimitWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/healthz", deps.Query.Health)

	queryGroup := api.Group("")
	if deps.RateLimitWindow > 0 {
		queryGroup.Use(middleware.RateLimit(deps.RateLimitWindow))
	}
	queryGroup.POST("/query", deps.Query.Query)
}
