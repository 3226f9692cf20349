package router

import (
	"github.com/gin-gonic/gin"

	"courierhq.app/courier/internal/http/handler"
)

func SlackRouter(rg *gin.RouterGroup, h *handler.AuthHandler) {
	rg.GET("/install", h.Install)
	rg.GET("/oauth_redirect", h.OAuthRedirect)
}
