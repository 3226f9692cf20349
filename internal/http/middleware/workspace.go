package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"courierhq.app/courier/common/logger"
	"courierhq.app/courier/internal/model"
	"courierhq.app/courier/internal/service"
)

type contextKey string

const workspaceContextKey contextKey = "workspace"

// ResolveWorkspace loads the connected workspace named by the :teamId route
// parameter and attaches it to the request context. Requests for unknown or
// disconnected workspaces are rejected before reaching the handler.
func ResolveWorkspace(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		teamID := c.Param("teamId")
		if teamID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "team id is required"})
			return
		}

		ws, err := authService.Status(c.Request.Context(), teamID)
		if err != nil {
			if errors.Is(err, service.ErrWorkspaceNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "workspace not connected"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load workspace"})
			return
		}

		if !ws.IsActive {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "workspace not connected"})
			return
		}

		ctx := context.WithValue(c.Request.Context(), workspaceContextKey, ws)
		ctx = logger.WithLogFields(ctx, logger.LogFields{TeamID: logger.Ptr(ws.TeamID)})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func GetWorkspace(ctx context.Context) *model.Workspace {
	ws, _ := ctx.Value(workspaceContextKey).(*model.Workspace)
	return ws
}
