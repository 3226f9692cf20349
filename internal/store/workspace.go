package store

import (
	"context"
	"errors"
	"time"

	"courierhq.app/courier/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const workspaceColumns = `id, team_id, team_name, access_token, refresh_token, expires_at,
	scope, user_id, bot_user_id, app_id, enterprise_id,
	user_access_token, user_refresh_token, user_expires_at,
	last_refreshed, is_active, created_at, updated_at`

type workspaceStore struct {
	pool *pgxpool.Pool
}

func (s *workspaceStore) GetByID(ctx context.Context, id int64) (*model.Workspace, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces WHERE id = $1`, id)
	return scanWorkspace(row)
}

func (s *workspaceStore) GetByTeamID(ctx context.Context, teamID string) (*model.Workspace, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces WHERE team_id = $1`, teamID)
	return scanWorkspace(row)
}

func (s *workspaceStore) Upsert(ctx context.Context, ws *model.Workspace) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO workspaces (
			id, team_id, team_name, access_token, refresh_token, expires_at,
			scope, user_id, bot_user_id, app_id, enterprise_id,
			user_access_token, user_refresh_token, user_expires_at,
			last_refreshed, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, TRUE)
		ON CONFLICT (team_id) DO UPDATE SET
			team_name          = EXCLUDED.team_name,
			access_token       = EXCLUDED.access_token,
			refresh_token      = EXCLUDED.refresh_token,
			expires_at         = EXCLUDED.expires_at,
			scope              = EXCLUDED.scope,
			user_id            = EXCLUDED.user_id,
			bot_user_id        = EXCLUDED.bot_user_id,
			app_id             = EXCLUDED.app_id,
			enterprise_id      = EXCLUDED.enterprise_id,
			user_access_token  = EXCLUDED.user_access_token,
			user_refresh_token = EXCLUDED.user_refresh_token,
			user_expires_at    = EXCLUDED.user_expires_at,
			last_refreshed     = EXCLUDED.last_refreshed,
			is_active          = TRUE,
			updated_at         = now()
		RETURNING `+workspaceColumns,
		ws.ID, ws.TeamID, ws.TeamName, ws.AccessToken, ws.RefreshToken, ws.ExpiresAt,
		ws.Scope, ws.UserID, ws.BotUserID, ws.AppID, ws.EnterpriseID,
		ws.UserAccessToken, ws.UserRefreshToken, ws.UserExpiresAt,
		ws.LastRefreshed)

	saved, err := scanWorkspace(row)
	if err != nil {
		return err
	}
	*ws = *saved
	return nil
}

func (s *workspaceStore) UpdateTokens(ctx context.Context, id int64, accessToken string, refreshToken *string, expiresAt *time.Time, refreshedAt time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE workspaces
		SET access_token = $2, refresh_token = $3, expires_at = $4,
		    last_refreshed = $5, updated_at = now()
		WHERE id = $1`,
		id, accessToken, refreshToken, expiresAt, refreshedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *workspaceStore) Deactivate(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE workspaces
		SET access_token = '', refresh_token = NULL,
		    user_access_token = NULL, user_refresh_token = NULL,
		    is_active = FALSE, updated_at = now()
		WHERE id = $1`,
		id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *workspaceStore) ListActive(ctx context.Context) ([]model.Workspace, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces WHERE is_active ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workspaces []model.Workspace
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, err
		}
		workspaces = append(workspaces, *ws)
	}
	return workspaces, rows.Err()
}

func scanWorkspace(row pgx.Row) (*model.Workspace, error) {
	var ws model.Workspace
	err := row.Scan(
		&ws.ID, &ws.TeamID, &ws.TeamName, &ws.AccessToken, &ws.RefreshToken, &ws.ExpiresAt,
		&ws.Scope, &ws.UserID, &ws.BotUserID, &ws.AppID, &ws.EnterpriseID,
		&ws.UserAccessToken, &ws.UserRefreshToken, &ws.UserExpiresAt,
		&ws.LastRefreshed, &ws.IsActive, &ws.CreatedAt, &ws.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ws, nil
}
