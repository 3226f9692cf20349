package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"courierhq.app/courier/internal/http/handler"
	"courierhq.app/courier/internal/service"
)

type RouterConfig struct {
	FrontendURL  string
	IsProduction bool
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authService := services.Auth()

	authHandler := handler.NewAuthHandler(authService, cfg.FrontendURL, cfg.IsProduction)
	SlackRouter(router.Group("/slack"), authHandler)

	v1 := router.Group("/api/v1")
	{
		messageHandler := handler.NewMessageHandler(services.Messages())
		WorkspaceRouter(v1.Group("/workspaces"), authHandler, messageHandler, authService)
	}
}
