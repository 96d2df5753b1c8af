package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const recordTimeout = 3 * time.Second

// Entry is the input for a single audit record
type Entry struct {
	AccountID    uuid.UUID
	SessionToken string
	Action       Action
	Origin       string
	Metadata     map[string]any
}

// Recorder persists audit entries. Failures are logged and never returned,
// so an audit outage cannot fail a login or a logout.
type Recorder struct {
	repo Repository
}

// NewRecorder creates a Recorder. A nil repository yields a Recorder that only logs at debug level.
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

// Record writes the entry. It detaches from the caller's cancellation so an aborted
// request still leaves its trail.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if r == nil || r.repo == nil {
		slog.Debug("audit event", "action", e.Action, "account_id", e.AccountID)
		return
	}

	event := &Event{
		Action:   e.Action,
		Origin:   e.Origin,
		Metadata: datatypes.JSONMap{},
	}
	for k, v := range e.Metadata {
		event.Metadata[k] = v
	}
	if e.AccountID != uuid.Nil {
		id := e.AccountID
		event.AccountID = &id
	}
	if e.SessionToken != "" {
		tok := e.SessionToken
		event.SessionToken = &tok
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := r.repo.Create(ctx, event); err != nil {
		slog.Warn("Failed to record audit event", "error", err, "action", e.Action)
	}
}
