package store

import (
	"context"
	"errors"
	"time"

	"courierhq.app/courier/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist, or when a
// conditional update matched no row (e.g. the row already left pending).
var ErrNotFound = errors.New("not found")

// WorkspaceStore defines the contract for workspace credential data access
type WorkspaceStore interface {
	GetByID(ctx context.Context, id int64) (*model.Workspace, error)
	GetByTeamID(ctx context.Context, teamID string) (*model.Workspace, error)
	// Upsert creates the workspace or, if the team is already connected,
	// replaces its credential bundle. Used by the OAuth exchange.
	Upsert(ctx context.Context, ws *model.Workspace) error
	// UpdateTokens persists a rotated credential pair. Used by the token
	// lifecycle manager only.
	UpdateTokens(ctx context.Context, id int64, accessToken string, refreshToken *string, expiresAt *time.Time, refreshedAt time.Time) error
	// Deactivate soft-deletes: tokens cleared, is_active unset. The row stays
	// so historical scheduled messages remain attributable.
	Deactivate(ctx context.Context, id int64) error
	ListActive(ctx context.Context) ([]model.Workspace, error)
}

// ScheduledMessageStore defines the contract for scheduled message data access
type ScheduledMessageStore interface {
	Create(ctx context.Context, msg *model.ScheduledMessage) error
	GetByID(ctx context.Context, id int64) (*model.ScheduledMessage, error)
	// ListDuePending returns pending messages with scheduled_time <= now,
	// ascending by scheduled_time.
	ListDuePending(ctx context.Context, now time.Time, limit int32) ([]model.ScheduledMessage, error)
	ListPendingByOwner(ctx context.Context, userID, teamID string) ([]model.ScheduledMessage, error)
	// UpdatePending edits content/time/channel while the message is still
	// pending; returns ErrNotFound once the message has left pending.
	UpdatePending(ctx context.Context, msg *model.ScheduledMessage) error
	MarkSent(ctx context.Context, id int64, slackMessageTS string) error
	MarkFailed(ctx context.Context, id int64, reason string) error
	// CancelPending transitions pending -> cancelled. Returns ErrNotFound when
	// the row is no longer pending, which is how the cancellation race against
	// the dispatcher is decided.
	CancelPending(ctx context.Context, id int64, userID, teamID string) (*model.ScheduledMessage, error)
}
