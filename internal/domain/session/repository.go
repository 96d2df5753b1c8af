package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository interface for the session ledger.
// Every method runs inside the transaction when called on the Repository passed to Transaction.
type Repository interface {
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	LockAccount(ctx context.Context, accountID uuid.UUID) error
	LockActiveByAccount(ctx context.Context, accountID uuid.UUID) ([]Session, error)
	Create(ctx context.Context, sess *Session) error
	DeactivateByIDs(ctx context.Context, ids []uuid.UUID) error

	FindActiveByToken(ctx context.Context, accountID uuid.UUID, sessionToken string) (*Session, error)
	FindActiveByRefreshHash(ctx context.Context, accountID uuid.UUID, hash string) (*Session, error)
	FindActiveByAccount(ctx context.Context, accountID uuid.UUID) ([]Session, error)
	SwapRefreshHash(ctx context.Context, id uuid.UUID, oldHash, newHash string, expiresAt, now time.Time) (bool, error)
	Deactivate(ctx context.Context, accountID uuid.UUID, sessionToken string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new session repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

// deactivation is the single update that ends a session.
// It clears the refresh fields together with the flag so no inactive row keeps a usable token.
func deactivation() map[string]any {
	return map[string]any{
		"active":                   false,
		"refresh_token_hash":       nil,
		"refresh_token_expires_at": nil,
	}
}

func (r *repository) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&repository{tx})
	})
}

// LockAccount takes a row lock on the account so logins for it serialize
// even when it has no active sessions yet.
func (r *repository) LockAccount(ctx context.Context, accountID uuid.UUID) error {
	var row struct{ ID uuid.UUID }
	res := r.db.WithContext(ctx).
		Table("users").
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", accountID).
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) LockActiveByAccount(ctx context.Context, accountID uuid.UUID) ([]Session, error) {
	var sessions []Session
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_id = ? AND active = ?", accountID, true).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *repository) Create(ctx context.Context, sess *Session) error {
	return r.db.WithContext(ctx).Create(sess).Error
}

func (r *repository) DeactivateByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&Session{}).
		Where("id IN ? AND active = ?", ids, true).
		Updates(deactivation()).Error
}

func (r *repository) FindActiveByToken(ctx context.Context, accountID uuid.UUID, sessionToken string) (*Session, error) {
	var sess Session
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND session_token = ? AND active = ?", accountID, sessionToken, true).
		Take(&sess).Error
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (r *repository) FindActiveByRefreshHash(ctx context.Context, accountID uuid.UUID, hash string) (*Session, error) {
	var sess Session
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_id = ? AND refresh_token_hash = ? AND active = ?", accountID, hash, true).
		Take(&sess).Error
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (r *repository) FindActiveByAccount(ctx context.Context, accountID uuid.UUID) ([]Session, error) {
	var sessions []Session
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND active = ?", accountID, true).
		Order("created_at ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// SwapRefreshHash replaces the refresh token only if oldHash is still current.
// It reports false when another rotation or a logout got there first.
func (r *repository) SwapRefreshHash(ctx context.Context, id uuid.UUID, oldHash, newHash string, expiresAt, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Session{}).
		Where("id = ? AND refresh_token_hash = ? AND active = ?", id, oldHash, true).
		Updates(map[string]any{
			"refresh_token_hash":       newHash,
			"refresh_token_expires_at": expiresAt,
			"last_activity":            now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) Deactivate(ctx context.Context, accountID uuid.UUID, sessionToken string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Session{}).
		Where("account_id = ? AND session_token = ? AND active = ?", accountID, sessionToken, true).
		Updates(deactivation())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
