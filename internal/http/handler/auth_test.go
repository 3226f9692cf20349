package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"courierhq.app/courier/internal/http/handler"
	"courierhq.app/courier/internal/http/middleware"
	"courierhq.app/courier/internal/model"
	"courierhq.app/courier/internal/service"
)

var _ = Describe("AuthHandler", func() {
	const frontendURL = "https://courier.example.com"

	var (
		router  *gin.Engine
		authSvc *mockAuthService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		authSvc = &mockAuthService{}

		h := handler.NewAuthHandler(authSvc, frontendURL, false)
		router.GET("/slack/install", h.Install)
		router.GET("/slack/oauth_redirect", h.OAuthRedirect)
		router.GET("/workspaces", h.Workspaces)
		router.GET("/workspaces/:teamId/status", h.Status)
		router.POST("/workspaces/:teamId/logout", middleware.ResolveWorkspace(authSvc), h.Logout)
	})

	Describe("Install", func() {
		It("redirects to the consent screen and sets a state cookie", func() {
			var gotState string
			authSvc.installURLFn = func(state string) string {
				gotState = state
				return "https://slack.com/oauth/v2/authorize?state=" + state
			}

			req := httptest.NewRequest(http.MethodGet, "/slack/install", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusTemporaryRedirect))
			Expect(w.Header().Get("Location")).To(ContainSubstring("slack.com/oauth/v2/authorize"))
			Expect(gotState).NotTo(BeEmpty())

			cookies := w.Result().Cookies()
			Expect(cookies).NotTo(BeEmpty())
			Expect(cookies[0].Name).To(Equal("courier_oauth_state"))
			Expect(cookies[0].Value).To(Equal(gotState))
		})
	})

	Describe("OAuthRedirect", func() {
		It("rejects callbacks whose state does not match the cookie", func() {
			req := httptest.NewRequest(http.MethodGet, "/slack/oauth_redirect?code=abc&state=forged", nil)
			req.AddCookie(&http.Cookie{Name: "courier_oauth_state", Value: "expected"})
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusTemporaryRedirect))
			Expect(w.Header().Get("Location")).To(ContainSubstring("slack_error=invalid_state"))
		})

		It("redirects back to the frontend with the team id on success", func() {
			authSvc.handleCallbackFn = func(_ context.Context, code string) (*model.Workspace, error) {
				Expect(code).To(Equal("abc"))
				return &model.Workspace{TeamID: "T123", IsActive: true}, nil
			}

			req := httptest.NewRequest(http.MethodGet, "/slack/oauth_redirect?code=abc&state=good", nil)
			req.AddCookie(&http.Cookie{Name: "courier_oauth_state", Value: "good"})
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusTemporaryRedirect))
			Expect(w.Header().Get("Location")).To(Equal(frontendURL + "?team_id=T123"))
		})

		It("redirects with an error when the exchange fails", func() {
			authSvc.handleCallbackFn = func(_ context.Context, _ string) (*model.Workspace, error) {
				return nil, service.ErrOAuthExchange
			}

			req := httptest.NewRequest(http.MethodGet, "/slack/oauth_redirect?code=abc&state=good", nil)
			req.AddCookie(&http.Cookie{Name: "courier_oauth_state", Value: "good"})
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Header().Get("Location")).To(ContainSubstring("slack_error=callback_failed"))
		})
	})

	Describe("Status", func() {
		It("reports connected workspaces", func() {
			authSvc.statusFn = func(_ context.Context, teamID string) (*model.Workspace, error) {
				return &model.Workspace{TeamID: teamID, TeamName: "Acme", IsActive: true}, nil
			}

			req := httptest.NewRequest(http.MethodGet, "/workspaces/T123/status", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["connected"]).To(BeTrue())
		})

		It("reports unknown teams as not connected", func() {
			authSvc.statusFn = func(_ context.Context, _ string) (*model.Workspace, error) {
				return nil, service.ErrWorkspaceNotFound
			}

			req := httptest.NewRequest(http.MethodGet, "/workspaces/T999/status", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["connected"]).To(BeFalse())
		})

		It("reports disconnected workspaces as not connected", func() {
			authSvc.statusFn = func(_ context.Context, teamID string) (*model.Workspace, error) {
				return &model.Workspace{TeamID: teamID, IsActive: false}, nil
			}

			req := httptest.NewRequest(http.MethodGet, "/workspaces/T123/status", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["connected"]).To(BeFalse())
		})
	})

	Describe("Logout", func() {
		It("disconnects the resolved workspace", func() {
			var loggedOut *model.Workspace
			authSvc.logoutFn = func(_ context.Context, ws *model.Workspace) error {
				loggedOut = ws
				return nil
			}

			req := httptest.NewRequest(http.MethodPost, "/workspaces/T123/logout", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(loggedOut).NotTo(BeNil())
			Expect(loggedOut.TeamID).To(Equal("T123"))
		})

		It("returns 500 when logout fails", func() {
			authSvc.logoutFn = func(_ context.Context, _ *model.Workspace) error {
				return errors.New("boom")
			}

			req := httptest.NewRequest(http.MethodPost, "/workspaces/T123/logout", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})
	})
})
