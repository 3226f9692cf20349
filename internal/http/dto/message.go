package dto

import (
	"fmt"
	"strconv"
	"time"

	"courierhq.app/courier/internal/model"
	"courierhq.app/courier/internal/slack"
)

type SendMessageRequest struct {
	Channel       string  `json:"channel" binding:"required"`
	Message       string  `json:"message" binding:"required"`
	ScheduledTime *string `json:"scheduled_time,omitempty"`
}

type UpdateMessageRequest struct {
	Message       string  `json:"message" binding:"required"`
	ScheduledTime *string `json:"scheduled_time,omitempty"`
	Channel       *string `json:"channel,omitempty"`
}

// ParseScheduledTime accepts RFC 3339 timestamps. A nil input stays nil,
// meaning "send now" for sends and "keep the current time" for updates.
func ParseScheduledTime(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, fmt.Errorf("scheduled_time must be RFC 3339: %w", err)
	}
	return &t, nil
}

type ScheduledMessageResponse struct {
	ID             string     `json:"id"`
	Channel        string     `json:"channel"`
	ChannelName    string     `json:"channel_name"`
	Message        string     `json:"message"`
	ScheduledTime  time.Time  `json:"scheduled_time"`
	Status         string     `json:"status"`
	SlackMessageTS *string    `json:"slack_message_ts,omitempty"`
	FailureReason  *string    `json:"failure_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func ToScheduledMessageResponse(m *model.ScheduledMessage) *ScheduledMessageResponse {
	return &ScheduledMessageResponse{
		ID:             strconv.FormatInt(m.ID, 10),
		Channel:        m.Channel,
		ChannelName:    m.ChannelName,
		Message:        m.Message,
		ScheduledTime:  m.ScheduledTime,
		Status:         string(m.Status),
		SlackMessageTS: m.SlackMessageTS,
		FailureReason:  m.FailureReason,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func ToScheduledMessageResponses(msgs []model.ScheduledMessage) []ScheduledMessageResponse {
	out := make([]ScheduledMessageResponse, 0, len(msgs))
	for i := range msgs {
		out = append(out, *ToScheduledMessageResponse(&msgs[i]))
	}
	return out
}

type ChannelResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsPrivate bool   `json:"is_private"`
}

func ToChannelResponses(channels []slack.Channel) []ChannelResponse {
	out := make([]ChannelResponse, 0, len(channels))
	for _, ch := range channels {
		out = append(out, ChannelResponse{
			ID:        ch.ID,
			Name:      ch.Name,
			IsPrivate: ch.IsPrivate,
		})
	}
	return out
}
