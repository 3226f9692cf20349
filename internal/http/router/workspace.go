package router

import (
	"github.com/gin-gonic/gin"

	"courierhq.app/courier/internal/http/handler"
	"courierhq.app/courier/internal/http/middleware"
	"courierhq.app/courier/internal/service"
)

func WorkspaceRouter(
	rg *gin.RouterGroup,
	authHandler *handler.AuthHandler,
	messageHandler *handler.MessageHandler,
	authService service.AuthService,
) {
	rg.GET("", authHandler.Workspaces)
	rg.GET("/:teamId/status", authHandler.Status)

	connected := rg.Group("/:teamId", middleware.ResolveWorkspace(authService))
	{
		connected.POST("/logout", authHandler.Logout)
		connected.GET("/channels", messageHandler.Channels)

		connected.POST("/messages", messageHandler.Send)
		connected.GET("/messages", messageHandler.List)
		connected.PUT("/messages/:messageId", messageHandler.Update)
		connected.DELETE("/messages/:messageId", messageHandler.Cancel)
	}
}
