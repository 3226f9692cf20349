package store

import (
	"context"
	"errors"
	"time"

	"courierhq.app/courier/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const messageColumns = `id, user_id, team_id, channel, channel_name, message,
	scheduled_time, status, slack_message_ts, failure_reason, created_at, updated_at`

type scheduledMessageStore struct {
	pool *pgxpool.Pool
}

func (s *scheduledMessageStore) Create(ctx context.Context, msg *model.ScheduledMessage) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO scheduled_messages (
			id, user_id, team_id, channel, channel_name, message, scheduled_time, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+messageColumns,
		msg.ID, msg.UserID, msg.TeamID, msg.Channel, msg.ChannelName,
		msg.Message, msg.ScheduledTime, msg.Status)

	saved, err := scanMessage(row)
	if err != nil {
		return err
	}
	*msg = *saved
	return nil
}

func (s *scheduledMessageStore) GetByID(ctx context.Context, id int64) (*model.ScheduledMessage, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+messageColumns+` FROM scheduled_messages WHERE id = $1`, id)
	return scanMessage(row)
}

func (s *scheduledMessageStore) ListDuePending(ctx context.Context, now time.Time, limit int32) ([]model.ScheduledMessage, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM scheduled_messages
		WHERE status = 'pending' AND scheduled_time <= $1
		ORDER BY scheduled_time ASC
		LIMIT $2`,
		now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMessages(rows)
}

func (s *scheduledMessageStore) ListPendingByOwner(ctx context.Context, userID, teamID string) ([]model.ScheduledMessage, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM scheduled_messages
		WHERE user_id = $1 AND team_id = $2 AND status = 'pending'
		ORDER BY scheduled_time ASC`,
		userID, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMessages(rows)
}

func (s *scheduledMessageStore) UpdatePending(ctx context.Context, msg *model.ScheduledMessage) error {
	row := s.pool.QueryRow(ctx, `
		UPDATE scheduled_messages
		SET message = $2, scheduled_time = $3, channel = $4, channel_name = $5,
		    updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+messageColumns,
		msg.ID, msg.Message, msg.ScheduledTime, msg.Channel, msg.ChannelName)

	saved, err := scanMessage(row)
	if err != nil {
		return err
	}
	*msg = *saved
	return nil
}

func (s *scheduledMessageStore) MarkSent(ctx context.Context, id int64, slackMessageTS string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE scheduled_messages
		SET status = 'sent', slack_message_ts = $2, updated_at = now()
		WHERE id = $1 AND status = 'pending'`,
		id, slackMessageTS)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *scheduledMessageStore) MarkFailed(ctx context.Context, id int64, reason string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE scheduled_messages
		SET status = 'failed', failure_reason = $2, updated_at = now()
		WHERE id = $1 AND status = 'pending'`,
		id, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *scheduledMessageStore) CancelPending(ctx context.Context, id int64, userID, teamID string) (*model.ScheduledMessage, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE scheduled_messages
		SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND user_id = $2 AND team_id = $3 AND status = 'pending'
		RETURNING `+messageColumns,
		id, userID, teamID)
	return scanMessage(row)
}

func scanMessage(row pgx.Row) (*model.ScheduledMessage, error) {
	var msg model.ScheduledMessage
	err := row.Scan(
		&msg.ID, &msg.UserID, &msg.TeamID, &msg.Channel, &msg.ChannelName,
		&msg.Message, &msg.ScheduledTime, &msg.Status, &msg.SlackMessageTS,
		&msg.FailureReason, &msg.CreatedAt, &msg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &msg, nil
}

func collectMessages(rows pgx.Rows) ([]model.ScheduledMessage, error) {
	var messages []model.ScheduledMessage
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}
	return messages, rows.Err()
}
