package slack

import (
	"context"
	"fmt"
	"net/http"
	"time"

	slackapi "github.com/slack-go/slack"
)

// Config carries the app credentials used for OAuth grants.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Client wraps the Slack Web API. API objects holding a token are constructed
// per operation from the token passed in, never kept across calls — a cached
// client would go stale the moment the lifecycle manager rotates the token.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

type Channel struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsPrivate bool   `json:"is_private"`
}

// Credential is the bundle produced by an OAuth exchange or refresh grant.
type Credential struct {
	AccessToken      string
	RefreshToken     string
	ExpiresIn        int
	TeamID           string
	TeamName         string
	Scope            string
	BotUserID        string
	AppID            string
	EnterpriseID     string
	UserID           string
	UserAccessToken  string
	UserRefreshToken string
	UserExpiresIn    int
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) api(token string) *slackapi.Client {
	return slackapi.New(token, slackapi.OptionHTTPClient(c.httpClient))
}

// PostMessage posts text to a channel and returns the provider-assigned
// message timestamp. Application-level "not ok" responses surface as errors.
func (c *Client) PostMessage(ctx context.Context, token, channelID, text string) (string, error) {
	_, ts, err := c.api(token).PostMessageContext(ctx, channelID,
		slackapi.MsgOptionText(text, false))
	if err != nil {
		return "", fmt.Errorf("posting message: %w", err)
	}
	return ts, nil
}

func (c *Client) ChannelInfo(ctx context.Context, token, channelID string) (Channel, error) {
	ch, err := c.api(token).GetConversationInfoContext(ctx, &slackapi.GetConversationInfoInput{
		ChannelID: channelID,
	})
	if err != nil {
		return Channel{}, fmt.Errorf("fetching channel info: %w", err)
	}
	return Channel{ID: ch.ID, Name: ch.Name, IsPrivate: ch.IsPrivate}, nil
}

func (c *Client) ListChannels(ctx context.Context, token string) ([]Channel, error) {
	chans, _, err := c.api(token).GetConversationsContext(ctx, &slackapi.GetConversationsParameters{
		Types:           []string{"public_channel", "private_channel"},
		ExcludeArchived: true,
		Limit:           100,
	})
	if err != nil {
		return nil, fmt.Errorf("listing channels: %w", err)
	}

	channels := make([]Channel, len(chans))
	for i, ch := range chans {
		channels[i] = Channel{ID: ch.ID, Name: ch.Name, IsPrivate: ch.IsPrivate}
	}
	return channels, nil
}

// ExchangeCode swaps an OAuth authorization code for a credential bundle.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*Credential, error) {
	resp, err := slackapi.GetOAuthV2ResponseContext(ctx, c.httpClient,
		c.cfg.ClientID, c.cfg.ClientSecret, code, c.cfg.RedirectURI)
	if err != nil {
		return nil, fmt.Errorf("exchanging code: %w", err)
	}
	return credentialFromOAuthResponse(resp), nil
}

// Refresh performs the refresh-token grant. Slack rotates the refresh token on
// every refresh, so the returned bundle carries a new one.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Credential, error) {
	resp, err := slackapi.RefreshOAuthV2TokenContext(ctx, c.httpClient,
		c.cfg.ClientID, c.cfg.ClientSecret, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}
	return credentialFromOAuthResponse(resp), nil
}

func (c *Client) RevokeToken(ctx context.Context, token string) error {
	if _, err := c.api(token).SendAuthRevokeContext(ctx, ""); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	return nil
}

func credentialFromOAuthResponse(resp *slackapi.OAuthV2Response) *Credential {
	return &Credential{
		AccessToken:      resp.AccessToken,
		RefreshToken:     resp.RefreshToken,
		ExpiresIn:        resp.ExpiresIn,
		TeamID:           resp.Team.ID,
		TeamName:         resp.Team.Name,
		Scope:            resp.Scope,
		BotUserID:        resp.BotUserID,
		AppID:            resp.AppID,
		EnterpriseID:     resp.Enterprise.ID,
		UserID:           resp.AuthedUser.ID,
		UserAccessToken:  resp.AuthedUser.AccessToken,
		UserRefreshToken: resp.AuthedUser.RefreshToken,
		UserExpiresIn:    resp.AuthedUser.ExpiresIn,
	}
}
