package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/profileqa/internal/middleware"
)

type RouterDeps struct {
	QA              *QAHandler
	Admin           *AdminHandler
	AdminSecret     []byte
	RateLimitWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/", deps.QA.Root)
	api.GET("/health", deps.QA.Health)

	queryGroup := api.Group("/query")
	queryGroup.Use(middleware.RateLimit(deps.RateLimitWindow))
	queryGroup.POST("", deps.QA.Query)
	queryGroup.POST("/stream", deps.QA.Stream)

	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.AdminAuth(deps.AdminSecret))
	adminGroup.POST("/reindex", deps.Admin.Reindex)
	adminGroup.GET("/chunks", deps.Admin.Chunks)
}
