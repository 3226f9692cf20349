package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"courierhq.app/courier/internal/http/dto"
	"courierhq.app/courier/internal/http/middleware"
	"courierhq.app/courier/internal/service"
)

type MessageHandler struct {
	messageService service.MessageService
}

func NewMessageHandler(messageService service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// Send posts a message immediately or, when scheduled_time is present,
// persists it for the dispatcher to deliver later.
func (h *MessageHandler) Send(c *gin.Context) {
	ctx := c.Request.Context()
	ws := middleware.GetWorkspace(ctx)

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel and message are required"})
		return
	}

	scheduledTime, err := dto.ParseScheduledTime(req.ScheduledTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.messageService.SendOrSchedule(ctx, ws, service.SendRequest{
		Channel:       req.Channel,
		Message:       req.Message,
		ScheduledTime: scheduledTime,
	})
	if err != nil {
		h.renderMessageError(c, err, "failed to send message")
		return
	}

	if result.Scheduled {
		c.JSON(http.StatusCreated, gin.H{
			"scheduled": true,
			"message":   dto.ToScheduledMessageResponse(result.Message),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"scheduled":        false,
		"slack_message_ts": result.SlackMessageTS,
	})
}

// List returns the caller's pending scheduled messages.
func (h *MessageHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	ws := middleware.GetWorkspace(ctx)

	messages, err := h.messageService.ListPending(ctx, ws)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list scheduled messages", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list scheduled messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": dto.ToScheduledMessageResponses(messages)})
}

// Update edits a pending scheduled message.
func (h *MessageHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	ws := middleware.GetWorkspace(ctx)

	messageID, err := parseMessageID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	var req dto.UpdateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message content is required"})
		return
	}

	scheduledTime, err := dto.ParseScheduledTime(req.ScheduledTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messageService.UpdatePending(ctx, ws, messageID, service.UpdateRequest{
		Message:       req.Message,
		ScheduledTime: scheduledTime,
		Channel:       req.Channel,
	})
	if err != nil {
		h.renderMessageError(c, err, "failed to update scheduled message")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": dto.ToScheduledMessageResponse(msg)})
}

// Cancel cancels a pending scheduled message. Messages already in a terminal
// status come back unchanged.
func (h *MessageHandler) Cancel(c *gin.Context) {
	ctx := c.Request.Context()
	ws := middleware.GetWorkspace(ctx)

	messageID, err := parseMessageID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	msg, err := h.messageService.Cancel(ctx, ws, messageID)
	if err != nil {
		h.renderMessageError(c, err, "failed to cancel scheduled message")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": dto.ToScheduledMessageResponse(msg)})
}

// Channels lists the channels visible to the workspace's bot.
func (h *MessageHandler) Channels(c *gin.Context) {
	ctx := c.Request.Context()
	ws := middleware.GetWorkspace(ctx)

	channels, err := h.messageService.ListChannels(ctx, ws)
	if err != nil {
		h.renderMessageError(c, err, "failed to list channels")
		return
	}

	c.JSON(http.StatusOK, gin.H{"channels": dto.ToChannelResponses(channels)})
}

func (h *MessageHandler) renderMessageError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrChannelAndMessageRequired),
		errors.Is(err, service.ErrMessageContentRequired),
		errors.Is(err, service.ErrScheduledTimePast):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrMessageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNoAccessToken),
		errors.Is(err, service.ErrTokenRefresh):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "workspace credentials are no longer valid"})
	default:
		slog.ErrorContext(c.Request.Context(), fallback, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func parseMessageID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("messageId"), 10, 64)
}
