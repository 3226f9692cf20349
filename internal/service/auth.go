package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"courierhq.app/courier/common/id"
	"courierhq.app/courier/core/config"
	"courierhq.app/courier/internal/crypto"
	"courierhq.app/courier/internal/model"
	"courierhq.app/courier/internal/slack"
	"courierhq.app/courier/internal/store"
)

var (
	ErrOAuthExchange     = errors.New("oauth exchange failed")
	ErrWorkspaceNotFound = errors.New("workspace not found")
)

// installScopes are the bot scopes requested when a workspace installs the app.
var installScopes = []string{
	"channels:read",
	"chat:write",
	"chat:write.public",
	"chat:write.customize",
	"channels:history",
	"groups:read",
	"im:read",
	"mpim:read",
	"users:read",
	"team:read",
}

// OAuthExchanger swaps authorization codes for credential bundles and revokes
// tokens on logout.
type OAuthExchanger interface {
	ExchangeCode(ctx context.Context, code string) (*slack.Credential, error)
	RevokeToken(ctx context.Context, token string) error
}

type AuthService interface {
	InstallURL(state string) string
	// HandleCallback completes the OAuth exchange and upserts the workspace
	// credential record with encrypted tokens.
	HandleCallback(ctx context.Context, code string) (*model.Workspace, error)
	// Logout revokes the token best-effort, then soft-deletes the workspace.
	Logout(ctx context.Context, ws *model.Workspace) error
	Status(ctx context.Context, teamID string) (*model.Workspace, error)
	ListActive(ctx context.Context) ([]model.Workspace, error)
}

type authService struct {
	workspaces store.WorkspaceStore
	exchanger  OAuthExchanger
	tokens     TokenService
	cipher     *crypto.Cipher
	slackCfg   config.SlackConfig
	nowFn      func() time.Time
}

type AuthOption func(*authService)

func WithAuthClock(nowFn func() time.Time) AuthOption {
	return func(s *authService) { s.nowFn = nowFn }
}

func NewAuthService(
	workspaces store.WorkspaceStore,
	exchanger OAuthExchanger,
	tokens TokenService,
	cipher *crypto.Cipher,
	slackCfg config.SlackConfig,
	opts ...AuthOption,
) AuthService {
	s := &authService{
		workspaces: workspaces,
		exchanger:  exchanger,
		tokens:     tokens,
		cipher:     cipher,
		slackCfg:   slackCfg,
		nowFn:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *authService) InstallURL(state string) string {
	v := url.Values{}
	v.Set("client_id", s.slackCfg.ClientID)
	v.Set("scope", strings.Join(installScopes, ","))
	v.Set("redirect_uri", s.slackCfg.RedirectURI)
	v.Set("state", state)
	v.Set("user_scope", "")
	v.Set("granular_bot_scope", "1")
	return "https://slack.com/oauth/v2/authorize?" + v.Encode()
}

func (s *authService) HandleCallback(ctx context.Context, code string) (*model.Workspace, error) {
	cred, err := s.exchanger.ExchangeCode(ctx, code)
	if err != nil {
		slog.ErrorContext(ctx, "oauth code exchange failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrOAuthExchange, err)
	}

	if cred.TeamID == "" || cred.UserID == "" {
		return nil, fmt.Errorf("%w: response missing team or user id", ErrOAuthExchange)
	}

	now := s.nowFn()

	encAccess, err := s.cipher.Encrypt(cred.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("encrypting access token: %w", err)
	}

	ws := &model.Workspace{
		ID:            id.New(),
		TeamID:        cred.TeamID,
		TeamName:      cred.TeamName,
		AccessToken:   encAccess,
		Scope:         cred.Scope,
		UserID:        cred.UserID,
		BotUserID:     optional(cred.BotUserID),
		AppID:         optional(cred.AppID),
		EnterpriseID:  optional(cred.EnterpriseID),
		LastRefreshed: now,
		IsActive:      true,
	}

	if cred.RefreshToken != "" {
		enc, err := s.cipher.Encrypt(cred.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("encrypting refresh token: %w", err)
		}
		ws.RefreshToken = &enc
	}
	if cred.ExpiresIn > 0 {
		expiresAt := now.Add(time.Duration(cred.ExpiresIn) * time.Second)
		ws.ExpiresAt = &expiresAt
	}

	if cred.UserAccessToken != "" {
		enc, err := s.cipher.Encrypt(cred.UserAccessToken)
		if err != nil {
			return nil, fmt.Errorf("encrypting user access token: %w", err)
		}
		ws.UserAccessToken = &enc
	}
	if cred.UserRefreshToken != "" {
		enc, err := s.cipher.Encrypt(cred.UserRefreshToken)
		if err != nil {
			return nil, fmt.Errorf("encrypting user refresh token: %w", err)
		}
		ws.UserRefreshToken = &enc
	}
	if cred.UserExpiresIn > 0 {
		userExpiresAt := now.Add(time.Duration(cred.UserExpiresIn) * time.Second)
		ws.UserExpiresAt = &userExpiresAt
	}

	if err := s.workspaces.Upsert(ctx, ws); err != nil {
		return nil, fmt.Errorf("upserting workspace: %w", err)
	}

	slog.InfoContext(ctx, "workspace connected",
		"team_id", ws.TeamID,
		"team_name", ws.TeamName,
		"user_id", ws.UserID,
	)

	return ws, nil
}

func (s *authService) Logout(ctx context.Context, ws *model.Workspace) error {
	// Revocation is best-effort; the soft delete must happen regardless.
	if token, err := s.tokens.ValidAccessToken(ctx, ws); err != nil {
		slog.WarnContext(ctx, "could not obtain token for revocation", "team_id", ws.TeamID, "error", err)
	} else if err := s.exchanger.RevokeToken(ctx, token); err != nil {
		slog.WarnContext(ctx, "token revocation failed", "team_id", ws.TeamID, "error", err)
	}

	if err := s.workspaces.Deactivate(ctx, ws.ID); err != nil {
		return fmt.Errorf("deactivating workspace: %w", err)
	}

	slog.InfoContext(ctx, "workspace disconnected",
		"team_id", ws.TeamID,
		"team_name", ws.TeamName,
		"user_id", ws.UserID,
	)

	return nil
}

func (s *authService) Status(ctx context.Context, teamID string) (*model.Workspace, error) {
	ws, err := s.workspaces.GetByTeamID(ctx, teamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("getting workspace: %w", err)
	}
	return ws, nil
}

func (s *authService) ListActive(ctx context.Context) ([]model.Workspace, error) {
	return s.workspaces.ListActive(ctx)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
