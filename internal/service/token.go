package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"courierhq.app/courier/internal/crypto"
	"courierhq.app/courier/internal/metrics"
	"courierhq.app/courier/internal/model"
	"courierhq.app/courier/internal/slack"
	"courierhq.app/courier/internal/store"
)

// TokenRefreshWindow is how close to expiry a token may get before the
// lifecycle manager refreshes it proactively.
const TokenRefreshWindow = 5 * time.Minute

var (
	ErrNoAccessToken = errors.New("workspace has no access token")
	ErrTokenRefresh  = errors.New("token refresh failed")
)

// TokenRefresher performs the provider's refresh-token grant.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*slack.Credential, error)
}

// TokenService guarantees a currently-usable plaintext access token for a
// workspace, refreshing and persisting rotated credentials as needed.
type TokenService interface {
	ValidAccessToken(ctx context.Context, ws *model.Workspace) (string, error)
}

type tokenService struct {
	workspaces store.WorkspaceStore
	refresher  TokenRefresher
	cipher     *crypto.Cipher
	nowFn      func() time.Time
}

type TokenOption func(*tokenService)

// WithTokenClock overrides the clock, so tests can simulate expiry
// deterministically instead of sleeping.
func WithTokenClock(nowFn func() time.Time) TokenOption {
	return func(s *tokenService) { s.nowFn = nowFn }
}

func NewTokenService(workspaces store.WorkspaceStore, refresher TokenRefresher, cipher *crypto.Cipher, opts ...TokenOption) TokenService {
	s := &tokenService{
		workspaces: workspaces,
		refresher:  refresher,
		cipher:     cipher,
		nowFn:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidAccessToken returns a plaintext access token that is valid right now.
//
// Without a refresh token or an expiry on record there is nothing to compare
// against, so the stored token is returned as-is. Otherwise the stored token
// is used while it is still comfortably outside the refresh window — the fast
// path makes no network call. Inside the window the refresh grant runs and the
// rotated pair is persisted before the new token is returned.
func (s *tokenService) ValidAccessToken(ctx context.Context, ws *model.Workspace) (string, error) {
	if ws.AccessToken == "" {
		return "", ErrNoAccessToken
	}

	if ws.RefreshToken == nil || *ws.RefreshToken == "" {
		return s.cipher.Decrypt(ws.AccessToken)
	}

	if ws.ExpiresAt == nil {
		return s.cipher.Decrypt(ws.AccessToken)
	}

	if ws.ExpiresAt.After(s.nowFn().Add(TokenRefreshWindow)) {
		return s.cipher.Decrypt(ws.AccessToken)
	}

	return s.refresh(ctx, ws)
}

func (s *tokenService) refresh(ctx context.Context, ws *model.Workspace) (string, error) {
	refreshToken, err := s.cipher.Decrypt(*ws.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("decrypting refresh token: %w", err)
	}

	slog.InfoContext(ctx, "access token near expiry, refreshing",
		"team_id", ws.TeamID,
		"team_name", ws.TeamName,
	)

	cred, err := s.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		// Stored credentials stay untouched on a rejected grant.
		metrics.TokenRefreshes.WithLabelValues("failure").Inc()
		return "", fmt.Errorf("%w: %v", ErrTokenRefresh, err)
	}

	now := s.nowFn()

	encAccess, err := s.cipher.Encrypt(cred.AccessToken)
	if err != nil {
		return "", fmt.Errorf("encrypting access token: %w", err)
	}
	encRefresh, err := s.cipher.Encrypt(cred.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("encrypting refresh token: %w", err)
	}

	expiresAt := now.Add(time.Duration(cred.ExpiresIn) * time.Second)

	if err := s.workspaces.UpdateTokens(ctx, ws.ID, encAccess, &encRefresh, &expiresAt, now); err != nil {
		return "", fmt.Errorf("persisting rotated tokens: %w", err)
	}

	// Keep the in-memory record consistent with what was just persisted, so a
	// caller holding the same record doesn't refresh again this request.
	ws.AccessToken = encAccess
	ws.RefreshToken = &encRefresh
	ws.ExpiresAt = &expiresAt
	ws.LastRefreshed = now

	metrics.TokenRefreshes.WithLabelValues("success").Inc()
	slog.InfoContext(ctx, "access token refreshed",
		"team_id", ws.TeamID,
		"team_name", ws.TeamName,
		"expires_at", expiresAt,
	)

	return cred.AccessToken, nil
}
