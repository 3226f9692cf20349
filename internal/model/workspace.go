package model

import "time"

// Workspace is a connected Slack tenant (team) together with its credential set.
// Token fields hold ciphertext; they are decrypted only at the point of use and
// never serialized in API responses.
type Workspace struct {
	ID               int64      `json:"id"`
	TeamID           string     `json:"team_id"`
	TeamName         string     `json:"team_name"`
	AccessToken      string     `json:"-"`
	RefreshToken     *string    `json:"-"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	Scope            string     `json:"scope"`
	UserID           string     `json:"user_id"`
	BotUserID        *string    `json:"bot_user_id,omitempty"`
	AppID            *string    `json:"app_id,omitempty"`
	EnterpriseID     *string    `json:"enterprise_id,omitempty"`
	UserAccessToken  *string    `json:"-"`
	UserRefreshToken *string    `json:"-"`
	UserExpiresAt    *time.Time `json:"-"`
	LastRefreshed    time.Time  `json:"last_refreshed"`
	IsActive         bool       `json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Deliverable reports whether this workspace can be used to post messages.
// A soft-deleted workspace keeps its row (so past messages stay attributable)
// but has its tokens cleared and is_active unset.
func (w *Workspace) Deliverable() bool {
	return w.IsActive && w.AccessToken != ""
}
