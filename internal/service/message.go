package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"courierhq.app/courier/common/id"
	"courierhq.app/courier/internal/cache"
	"courierhq.app/courier/internal/model"
	"courierhq.app/courier/internal/slack"
	"courierhq.app/courier/internal/store"
)

var (
	ErrChannelAndMessageRequired = errors.New("channel and message are required")
	ErrMessageContentRequired    = errors.New("message content is required")
	ErrScheduledTimePast         = errors.New("scheduled time must be in the future")
	ErrMessageNotFound           = errors.New("scheduled message not found or already sent/cancelled")
)

// MessagePoster posts a message and returns the provider-assigned timestamp.
type MessagePoster interface {
	PostMessage(ctx context.Context, token, channelID, text string) (string, error)
}

// ChannelDirectory resolves channel metadata from the provider.
type ChannelDirectory interface {
	ChannelInfo(ctx context.Context, token, channelID string) (slack.Channel, error)
	ListChannels(ctx context.Context, token string) ([]slack.Channel, error)
}

type SendRequest struct {
	Channel       string
	Message       string
	ScheduledTime *time.Time
}

type UpdateRequest struct {
	Message       string
	ScheduledTime *time.Time
	Channel       *string
}

type SendResult struct {
	Scheduled      bool
	SlackMessageTS string
	Message        *model.ScheduledMessage
}

type MessageService interface {
	// SendOrSchedule delivers immediately when no time is given, otherwise
	// validates the time and persists a pending scheduled message.
	SendOrSchedule(ctx context.Context, ws *model.Workspace, req SendRequest) (*SendResult, error)
	ListPending(ctx context.Context, ws *model.Workspace) ([]model.ScheduledMessage, error)
	UpdatePending(ctx context.Context, ws *model.Workspace, messageID int64, req UpdateRequest) (*model.ScheduledMessage, error)
	// Cancel transitions a pending message to cancelled. Cancelling a message
	// that already reached a terminal status is a no-op, not an error.
	Cancel(ctx context.Context, ws *model.Workspace, messageID int64) (*model.ScheduledMessage, error)
	ListChannels(ctx context.Context, ws *model.Workspace) ([]slack.Channel, error)
}

type messageService struct {
	messages  store.ScheduledMessageStore
	tokens    TokenService
	poster    MessagePoster
	directory ChannelDirectory
	names     *cache.ChannelNames
	nowFn     func() time.Time
}

type MessageOption func(*messageService)

func WithMessageClock(nowFn func() time.Time) MessageOption {
	return func(s *messageService) { s.nowFn = nowFn }
}

func NewMessageService(
	messages store.ScheduledMessageStore,
	tokens TokenService,
	poster MessagePoster,
	directory ChannelDirectory,
	names *cache.ChannelNames,
	opts ...MessageOption,
) MessageService {
	s := &messageService{
		messages:  messages,
		tokens:    tokens,
		poster:    poster,
		directory: directory,
		names:     names,
		nowFn:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *messageService) SendOrSchedule(ctx context.Context, ws *model.Workspace, req SendRequest) (*SendResult, error) {
	if req.Channel == "" || req.Message == "" {
		return nil, ErrChannelAndMessageRequired
	}

	if req.ScheduledTime != nil {
		return s.schedule(ctx, ws, req)
	}

	token, err := s.tokens.ValidAccessToken(ctx, ws)
	if err != nil {
		return nil, err
	}

	ts, err := s.poster.PostMessage(ctx, token, req.Channel, req.Message)
	if err != nil {
		return nil, fmt.Errorf("sending message: %w", err)
	}

	slog.InfoContext(ctx, "message sent",
		"team_id", ws.TeamID,
		"channel", req.Channel,
		"slack_message_ts", ts,
	)

	return &SendResult{SlackMessageTS: ts}, nil
}

func (s *messageService) schedule(ctx context.Context, ws *model.Workspace, req SendRequest) (*SendResult, error) {
	// Rejected before any record is created.
	if !req.ScheduledTime.After(s.nowFn()) {
		return nil, ErrScheduledTimePast
	}

	token, err := s.tokens.ValidAccessToken(ctx, ws)
	if err != nil {
		return nil, err
	}

	msg := &model.ScheduledMessage{
		ID:            id.New(),
		UserID:        ws.UserID,
		TeamID:        ws.TeamID,
		Channel:       req.Channel,
		ChannelName:   s.resolveChannelName(ctx, token, ws.TeamID, req.Channel),
		Message:       req.Message,
		ScheduledTime: *req.ScheduledTime,
		Status:        model.MessageStatusPending,
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("creating scheduled message: %w", err)
	}

	slog.InfoContext(ctx, "message scheduled",
		"message_id", msg.ID,
		"team_id", ws.TeamID,
		"channel", msg.Channel,
		"scheduled_time", msg.ScheduledTime,
	)

	return &SendResult{Scheduled: true, Message: msg}, nil
}

func (s *messageService) ListPending(ctx context.Context, ws *model.Workspace) ([]model.ScheduledMessage, error) {
	return s.messages.ListPendingByOwner(ctx, ws.UserID, ws.TeamID)
}

func (s *messageService) UpdatePending(ctx context.Context, ws *model.Workspace, messageID int64, req UpdateRequest) (*model.ScheduledMessage, error) {
	if req.Message == "" {
		return nil, ErrMessageContentRequired
	}

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("getting scheduled message: %w", err)
	}

	if !s.owns(ws, msg) || msg.Status != model.MessageStatusPending {
		return nil, ErrMessageNotFound
	}

	msg.Message = req.Message

	if req.ScheduledTime != nil {
		if !req.ScheduledTime.After(s.nowFn()) {
			return nil, ErrScheduledTimePast
		}
		msg.ScheduledTime = *req.ScheduledTime
	}

	if req.Channel != nil && *req.Channel != msg.Channel {
		token, err := s.tokens.ValidAccessToken(ctx, ws)
		if err != nil {
			return nil, err
		}
		msg.Channel = *req.Channel
		msg.ChannelName = s.resolveChannelName(ctx, token, ws.TeamID, *req.Channel)
	}

	if err := s.messages.UpdatePending(ctx, msg); err != nil {
		// The dispatcher may have transitioned the row between our read and
		// this write; the conditional update loses cleanly.
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("updating scheduled message: %w", err)
	}

	slog.InfoContext(ctx, "scheduled message updated",
		"message_id", msg.ID,
		"team_id", ws.TeamID,
	)

	return msg, nil
}

func (s *messageService) Cancel(ctx context.Context, ws *model.Workspace, messageID int64) (*model.ScheduledMessage, error) {
	cancelled, err := s.messages.CancelPending(ctx, messageID, ws.UserID, ws.TeamID)
	if err == nil {
		slog.InfoContext(ctx, "scheduled message cancelled",
			"message_id", messageID,
			"team_id", ws.TeamID,
		)
		return cancelled, nil
	}

	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("cancelling scheduled message: %w", err)
	}

	// The conditional update matched nothing: either the message doesn't
	// belong here, or it already reached a terminal status. The latter is a
	// no-op by contract.
	msg, getErr := s.messages.GetByID(ctx, messageID)
	if getErr != nil {
		if errors.Is(getErr, store.ErrNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("getting scheduled message: %w", getErr)
	}

	if !s.owns(ws, msg) {
		return nil, ErrMessageNotFound
	}

	return msg, nil
}

func (s *messageService) ListChannels(ctx context.Context, ws *model.Workspace) ([]slack.Channel, error) {
	token, err := s.tokens.ValidAccessToken(ctx, ws)
	if err != nil {
		return nil, err
	}

	channels, err := s.directory.ListChannels(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("listing channels: %w", err)
	}
	return channels, nil
}

func (s *messageService) owns(ws *model.Workspace, msg *model.ScheduledMessage) bool {
	return msg.UserID == ws.UserID && msg.TeamID == ws.TeamID
}

// resolveChannelName returns a display name like "# general" or "🔒 private"
// for persisting alongside the message. Best-effort: lookup failures fall back
// to the raw channel id rather than blocking the schedule.
func (s *messageService) resolveChannelName(ctx context.Context, token, teamID, channelID string) string {
	if name, ok := s.names.Get(ctx, teamID, channelID); ok {
		return name
	}

	info, err := s.directory.ChannelInfo(ctx, token, channelID)
	if err != nil {
		slog.WarnContext(ctx, "could not resolve channel name, using id",
			"channel", channelID,
			"error", err,
		)
		return channelID
	}

	name := "# " + info.Name
	if info.IsPrivate {
		name = "🔒 " + info.Name
	}

	s.names.Set(ctx, teamID, channelID, name)
	return name
}
