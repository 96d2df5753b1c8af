package audit

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/Anvoria/sessionly/internal/database"
)

// Action names a session lifecycle event
type Action string

const (
	ActionLogin       Action = "login"
	ActionLoginFailed Action = "login_failed"
	ActionRevoke      Action = "revoke"
	ActionRotate      Action = "rotate"
	ActionLogout      Action = "logout"
)

// Event is one persisted entry of the session audit trail
type Event struct {
	database.BaseModel

	AccountID    *uuid.UUID        `gorm:"column:account_id;type:uuid;index"`
	SessionToken *string           `gorm:"column:session_token"`
	Action       Action            `gorm:"column:action;not null;index"`
	Origin       string            `gorm:"column:origin;not null"`
	Metadata     datatypes.JSONMap `gorm:"column:metadata;type:jsonb"`
}

func (Event) TableName() string {
	return "session_events"
}
