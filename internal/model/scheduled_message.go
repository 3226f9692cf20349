package model

import "time"

type MessageStatus string

const (
	MessageStatusPending   MessageStatus = "pending"
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusFailed    MessageStatus = "failed"
	MessageStatusCancelled MessageStatus = "cancelled"
)

// Terminal reports whether the status can never change again. The dispatcher
// only scans pending messages, so every non-pending status is terminal.
func (s MessageStatus) Terminal() bool {
	return s != MessageStatusPending
}

// ScheduledMessage is a queued send request. It belongs to the (UserID, TeamID)
// pair rather than to a workspace row, so it survives logout/reconnect cycles.
type ScheduledMessage struct {
	ID             int64         `json:"id"`
	UserID         string        `json:"user_id"`
	TeamID         string        `json:"team_id"`
	Channel        string        `json:"channel"`
	ChannelName    string        `json:"channel_name"`
	Message        string        `json:"message"`
	ScheduledTime  time.Time     `json:"scheduled_time"`
	Status         MessageStatus `json:"status"`
	SlackMessageTS *string       `json:"slack_message_ts,omitempty"`
	FailureReason  *string       `json:"failure_reason,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
