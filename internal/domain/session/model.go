package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/Anvoria/sessionly/internal/database"
)

// Session is one login of an account from one origin.
// Inactive rows never carry a refresh token.
type Session struct {
	database.BaseModel

	AccountID    uuid.UUID `gorm:"column:account_id;type:uuid;not null;index;index:idx_sessions_account_token,priority:1;index:idx_sessions_account_refresh,priority:1"`
	SessionToken string    `gorm:"column:session_token;not null;index:idx_sessions_account_token,priority:2"`
	Origin       string    `gorm:"column:origin;not null"`
	Active       bool      `gorm:"column:active;not null"`

	RefreshTokenHash      *string    `gorm:"column:refresh_token_hash;index:idx_sessions_account_refresh,priority:2"`
	RefreshTokenExpiresAt *time.Time `gorm:"column:refresh_token_expires_at"`

	LastActivity time.Time `gorm:"column:last_activity;not null"`
}

func (Session) TableName() string {
	return "sessions"
}

// SessionResponse is the public view of a session. Refresh material is never exposed.
type SessionResponse struct {
	SessionID    string    `json:"session_id"`
	Origin       string    `json:"origin"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	Current      bool      `json:"current"`
}

// ToResponse converts the session to its public view.
// current marks the session the caller is authenticated with.
func (s *Session) ToResponse(current string) SessionResponse {
	return SessionResponse{
		SessionID:    s.SessionToken,
		Origin:       s.Origin,
		CreatedAt:    s.CreatedAt,
		LastActivity: s.LastActivity,
		Current:      s.SessionToken == current,
	}
}
