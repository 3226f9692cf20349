package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"courierhq.app/courier/internal/http/handler"
	"courierhq.app/courier/internal/http/middleware"
	"courierhq.app/courier/internal/model"
	"courierhq.app/courier/internal/service"
	"courierhq.app/courier/internal/slack"
)

var _ = Describe("MessageHandler", func() {
	var (
		router  *gin.Engine
		msgSvc  *mockMessageService
		authSvc *mockAuthService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		msgSvc = &mockMessageService{}
		authSvc = &mockAuthService{}

		h := handler.NewMessageHandler(msgSvc)
		group := router.Group("/workspaces/:teamId", middleware.ResolveWorkspace(authSvc))
		group.POST("/messages", h.Send)
		group.GET("/messages", h.List)
		group.PUT("/messages/:messageId", h.Update)
		group.DELETE("/messages/:messageId", h.Cancel)
		group.GET("/channels", h.Channels)
	})

	postJSON := func(path string, payload any) *httptest.ResponseRecorder {
		body, err := json.Marshal(payload)
		Expect(err).NotTo(HaveOccurred())
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	Describe("Send", func() {
		It("returns 200 with the message timestamp for immediate sends", func() {
			msgSvc.sendOrScheduleFn = func(_ context.Context, ws *model.Workspace, req service.SendRequest) (*service.SendResult, error) {
				Expect(ws.TeamID).To(Equal("T123"))
				Expect(req.Channel).To(Equal("C1"))
				Expect(req.ScheduledTime).To(BeNil())
				return &service.SendResult{SlackMessageTS: "1757851200.000100"}, nil
			}

			w := postJSON("/workspaces/T123/messages", map[string]string{
				"channel": "C1",
				"message": "hello",
			})

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["scheduled"]).To(BeFalse())
			Expect(resp["slack_message_ts"]).To(Equal("1757851200.000100"))
		})

		It("returns 201 with the stored message for scheduled sends", func() {
			msgSvc.sendOrScheduleFn = func(_ context.Context, _ *model.Workspace, req service.SendRequest) (*service.SendResult, error) {
				Expect(req.ScheduledTime).NotTo(BeNil())
				return &service.SendResult{
					Scheduled: true,
					Message: &model.ScheduledMessage{
						ID:            7,
						Channel:       req.Channel,
						Message:       req.Message,
						ScheduledTime: *req.ScheduledTime,
						Status:        model.MessageStatusPending,
					},
				}, nil
			}

			w := postJSON("/workspaces/T123/messages", map[string]string{
				"channel":        "C1",
				"message":        "hello",
				"scheduled_time": time.Now().Add(time.Hour).Format(time.RFC3339),
			})

			Expect(w.Code).To(Equal(http.StatusCreated))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["scheduled"]).To(BeTrue())
		})

		It("returns 400 when required fields are missing", func() {
			w := postJSON("/workspaces/T123/messages", map[string]string{"channel": "C1"})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 on unparseable scheduled_time", func() {
			w := postJSON("/workspaces/T123/messages", map[string]string{
				"channel":        "C1",
				"message":        "hello",
				"scheduled_time": "tomorrow at noon",
			})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 when the scheduled time is in the past", func() {
			msgSvc.sendOrScheduleFn = func(_ context.Context, _ *model.Workspace, _ service.SendRequest) (*service.SendResult, error) {
				return nil, service.ErrScheduledTimePast
			}

			w := postJSON("/workspaces/T123/messages", map[string]string{
				"channel":        "C1",
				"message":        "hello",
				"scheduled_time": "2020-01-01T00:00:00Z",
			})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 404 when the workspace is not connected", func() {
			authSvc.statusFn = func(_ context.Context, _ string) (*model.Workspace, error) {
				return nil, service.ErrWorkspaceNotFound
			}

			w := postJSON("/workspaces/T999/messages", map[string]string{
				"channel": "C1",
				"message": "hello",
			})
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 401 when workspace credentials are no longer valid", func() {
			msgSvc.sendOrScheduleFn = func(_ context.Context, _ *model.Workspace, _ service.SendRequest) (*service.SendResult, error) {
				return nil, service.ErrTokenRefresh
			}

			w := postJSON("/workspaces/T123/messages", map[string]string{
				"channel": "C1",
				"message": "hello",
			})
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("List", func() {
		It("returns the pending messages", func() {
			msgSvc.listPendingFn = func(_ context.Context, _ *model.Workspace) ([]model.ScheduledMessage, error) {
				return []model.ScheduledMessage{{ID: 1}, {ID: 2}}, nil
			}

			req := httptest.NewRequest(http.MethodGet, "/workspaces/T123/messages", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp struct {
				Messages []map[string]any `json:"messages"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Messages).To(HaveLen(2))
		})
	})

	Describe("Update", func() {
		It("returns 404 for messages that are not editable", func() {
			msgSvc.updatePendingFn = func(_ context.Context, _ *model.Workspace, _ int64, _ service.UpdateRequest) (*model.ScheduledMessage, error) {
				return nil, service.ErrMessageNotFound
			}

			body, _ := json.Marshal(map[string]string{"message": "edited"})
			req := httptest.NewRequest(http.MethodPut, "/workspaces/T123/messages/7", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 400 for a non-numeric message id", func() {
			body, _ := json.Marshal(map[string]string{"message": "edited"})
			req := httptest.NewRequest(http.MethodPut, "/workspaces/T123/messages/abc", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns the updated message", func() {
			msgSvc.updatePendingFn = func(_ context.Context, _ *model.Workspace, messageID int64, req service.UpdateRequest) (*model.ScheduledMessage, error) {
				Expect(messageID).To(Equal(int64(7)))
				Expect(req.Message).To(Equal("edited"))
				return &model.ScheduledMessage{ID: 7, Message: "edited", Status: model.MessageStatusPending}, nil
			}

			body, _ := json.Marshal(map[string]string{"message": "edited"})
			req := httptest.NewRequest(http.MethodPut, "/workspaces/T123/messages/7", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
		})
	})

	Describe("Cancel", func() {
		It("returns the cancelled message", func() {
			msgSvc.cancelFn = func(_ context.Context, _ *model.Workspace, messageID int64) (*model.ScheduledMessage, error) {
				Expect(messageID).To(Equal(int64(7)))
				return &model.ScheduledMessage{ID: 7, Status: model.MessageStatusCancelled}, nil
			}

			req := httptest.NewRequest(http.MethodDelete, "/workspaces/T123/messages/7", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp struct {
				Message map[string]any `json:"message"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Message["status"]).To(Equal("cancelled"))
		})
	})

	Describe("Channels", func() {
		It("returns 500 when listing fails", func() {
			msgSvc.listChannelsFn = func(_ context.Context, _ *model.Workspace) ([]slack.Channel, error) {
				return nil, errors.New("boom")
			}

			req := httptest.NewRequest(http.MethodGet, "/workspaces/T123/channels", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})
	})
})
