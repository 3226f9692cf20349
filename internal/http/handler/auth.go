package handler

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"courierhq.app/courier/internal/http/dto"
	"courierhq.app/courier/internal/http/middleware"
	"courierhq.app/courier/internal/service"
)

const stateCookieName = "courier_oauth_state"

type AuthHandler struct {
	authService  service.AuthService
	frontendURL  string
	isProduction bool
}

func NewAuthHandler(authService service.AuthService, frontendURL string, isProduction bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		frontendURL:  frontendURL,
		isProduction: isProduction,
	}
}

// Install redirects the browser to the Slack consent screen.
func (h *AuthHandler) Install(c *gin.Context) {
	state, err := generateState()
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to generate state", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to initiate install"})
		return
	}

	c.SetCookie(
		stateCookieName,
		state,
		600,
		"/",
		"",
		h.isProduction,
		true,
	)

	c.Redirect(http.StatusTemporaryRedirect, h.authService.InstallURL(state))
}

// OAuthRedirect completes the install: it validates state, exchanges the code
// and sends the browser back to the frontend.
func (h *AuthHandler) OAuthRedirect(c *gin.Context) {
	ctx := c.Request.Context()

	code := c.Query("code")
	state := c.Query("state")
	errorParam := c.Query("error")

	if errorParam != "" {
		slog.WarnContext(ctx, "oauth consent denied", "error", errorParam)
		c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"?slack_error="+errorParam)
		return
	}

	storedState, err := c.Cookie(stateCookieName)
	if err != nil || state != storedState {
		slog.WarnContext(ctx, "oauth state mismatch", "got", state)
		c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"?slack_error=invalid_state")
		return
	}

	h.clearStateCookie(c)

	if code == "" {
		c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"?slack_error=no_code")
		return
	}

	ws, err := h.authService.HandleCallback(ctx, code)
	if err != nil {
		slog.ErrorContext(ctx, "oauth callback failed", "error", err)
		c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"?slack_error=callback_failed")
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"?team_id="+ws.TeamID)
}

// Status reports whether the workspace named by :teamId is connected.
func (h *AuthHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()

	ws, err := h.authService.Status(ctx, c.Param("teamId"))
	if err != nil {
		if errors.Is(err, service.ErrWorkspaceNotFound) {
			c.JSON(http.StatusOK, gin.H{"connected": false})
			return
		}
		slog.ErrorContext(ctx, "failed to load workspace status", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load workspace status"})
		return
	}

	if !ws.IsActive {
		c.JSON(http.StatusOK, gin.H{"connected": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connected": true,
		"workspace": dto.ToWorkspaceResponse(ws),
	})
}

// Workspaces lists all connected workspaces.
func (h *AuthHandler) Workspaces(c *gin.Context) {
	ctx := c.Request.Context()

	workspaces, err := h.authService.ListActive(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list workspaces", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list workspaces"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"workspaces": dto.ToWorkspaceResponses(workspaces)})
}

// Logout disconnects the workspace resolved by the middleware.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	ws := middleware.GetWorkspace(ctx)

	if err := h.authService.Logout(ctx, ws); err != nil {
		slog.ErrorContext(ctx, "logout failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to disconnect workspace"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "workspace disconnected"})
}

func (h *AuthHandler) clearStateCookie(c *gin.Context) {
	c.SetCookie(
		stateCookieName,
		"",
		-1,
		"/",
		"",
		h.isProduction,
		true,
	)
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
