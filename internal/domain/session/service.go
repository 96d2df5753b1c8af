package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Anvoria/sessionly/internal/database"
)

var (
	// ErrInvalidRefreshToken is returned when no active session holds the presented refresh token
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrExpiredRefreshToken is returned when the refresh token matched but its expiry has passed
	ErrExpiredRefreshToken = errors.New("refresh token expired")
	// ErrSessionRevoked is returned when the session is unknown or no longer active
	ErrSessionRevoked = errors.New("session revoked")
	// ErrMalformedSession is returned when the account or session identifier is missing or unparsable
	ErrMalformedSession = errors.New("malformed session")
)

// DefaultRefreshTTL is the refresh token lifetime when none is configured
const DefaultRefreshTTL = 7 * 24 * time.Hour

// Opened is the result of a login-time reconciliation
type Opened struct {
	Session      *Session
	RefreshToken string
	// Revoked holds the session tokens deactivated because they came from another origin
	Revoked []string
}

// Rotated is the result of a successful refresh
type Rotated struct {
	Session      *Session
	RefreshToken string
	ExpiresAt    time.Time
}

// Service interface for the session ledger
type Service interface {
	Open(ctx context.Context, accountID uuid.UUID, origin string) (*Opened, error)
	Rotate(ctx context.Context, accountID uuid.UUID, refreshToken string) (*Rotated, error)
	Lookup(ctx context.Context, accountID uuid.UUID, sessionToken string) (*Session, error)
	Deactivate(ctx context.Context, accountID uuid.UUID, sessionToken string) (bool, error)
	DeactivateAll(ctx context.Context, accountID uuid.UUID) ([]string, error)
	ListActive(ctx context.Context, accountID uuid.UUID) ([]Session, error)
}

type service struct {
	repo       Repository
	refreshTTL time.Duration
	now        func() time.Time
}

// NewService creates a session Service. A non-positive refreshTTL falls back to DefaultRefreshTTL.
func NewService(repo Repository, refreshTTL time.Duration) Service {
	return NewServiceWithClock(repo, refreshTTL, nil)
}

// NewServiceWithClock is NewService with an injectable clock
func NewServiceWithClock(repo Repository, refreshTTL time.Duration, now func() time.Time) Service {
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{repo: repo, refreshTTL: refreshTTL, now: now}
}

// Open deactivates the account's active sessions from other origins and creates a new
// session for origin, all in one transaction. Sessions from the same origin are kept.
func (s *service) Open(ctx context.Context, accountID uuid.UUID, origin string) (*Opened, error) {
	if accountID == uuid.Nil {
		return nil, ErrMalformedSession
	}
	origin = NormalizeOrigin(origin)

	refreshToken, err := NewRefreshToken()
	if err != nil {
		return nil, err
	}

	var opened *Opened
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.LockAccount(ctx, accountID); err != nil {
			return err
		}

		active, err := tx.LockActiveByAccount(ctx, accountID)
		if err != nil {
			return err
		}

		var staleIDs []uuid.UUID
		var revoked []string
		for _, sess := range active {
			if sess.Origin != origin {
				staleIDs = append(staleIDs, sess.ID)
				revoked = append(revoked, sess.SessionToken)
			}
		}
		if err := tx.DeactivateByIDs(ctx, staleIDs); err != nil {
			return err
		}

		now := s.now()
		hash := hashRefreshToken(refreshToken)
		expiresAt := now.Add(s.refreshTTL)
		sess := &Session{
			AccountID:             accountID,
			SessionToken:          newSessionToken(),
			Origin:                origin,
			Active:                true,
			RefreshTokenHash:      &hash,
			RefreshTokenExpiresAt: &expiresAt,
			LastActivity:          now,
		}
		sess.CreatedAt = now
		sess.UpdatedAt = now
		if err := tx.Create(ctx, sess); err != nil {
			return err
		}

		opened = &Opened{Session: sess, RefreshToken: refreshToken, Revoked: revoked}
		return nil
	})
	if err != nil {
		return nil, database.Classify(err)
	}

	return opened, nil
}

// Rotate exchanges a valid refresh token for a new one. The presented token is single-use.
// A token is refreshable only while now is strictly before its expiry.
func (s *service) Rotate(ctx context.Context, accountID uuid.UUID, refreshToken string) (*Rotated, error) {
	if accountID == uuid.Nil || refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}

	oldHash := hashRefreshToken(refreshToken)
	newToken, err := NewRefreshToken()
	if err != nil {
		return nil, err
	}
	newHash := hashRefreshToken(newToken)

	var rotated *Rotated
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		sess, err := tx.FindActiveByRefreshHash(ctx, accountID, oldHash)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidRefreshToken
			}
			return err
		}

		now := s.now()
		if sess.RefreshTokenExpiresAt == nil {
			return ErrInvalidRefreshToken
		}
		if !now.Before(*sess.RefreshTokenExpiresAt) {
			return ErrExpiredRefreshToken
		}

		expiresAt := now.Add(s.refreshTTL)
		ok, err := tx.SwapRefreshHash(ctx, sess.ID, oldHash, newHash, expiresAt, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidRefreshToken
		}

		sess.RefreshTokenHash = &newHash
		sess.RefreshTokenExpiresAt = &expiresAt
		sess.LastActivity = now
		rotated = &Rotated{Session: sess, RefreshToken: newToken, ExpiresAt: expiresAt}
		return nil
	})
	if err != nil {
		return nil, database.Classify(err)
	}

	return rotated, nil
}

// Lookup returns the active session for the pair or ErrSessionRevoked
func (s *service) Lookup(ctx context.Context, accountID uuid.UUID, sessionToken string) (*Session, error) {
	if accountID == uuid.Nil || sessionToken == "" {
		return nil, ErrMalformedSession
	}

	sess, err := s.repo.FindActiveByToken(ctx, accountID, sessionToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionRevoked
		}
		return nil, database.Classify(err)
	}
	return sess, nil
}

// Deactivate ends one session owned by the account. Unknown or already inactive
// sessions are not an error; the boolean reports whether a row changed.
func (s *service) Deactivate(ctx context.Context, accountID uuid.UUID, sessionToken string) (bool, error) {
	if accountID == uuid.Nil || sessionToken == "" {
		return false, nil
	}

	changed, err := s.repo.Deactivate(ctx, accountID, sessionToken)
	if err != nil {
		return false, database.Classify(err)
	}
	return changed, nil
}

// DeactivateAll ends every active session of the account and returns their session tokens
func (s *service) DeactivateAll(ctx context.Context, accountID uuid.UUID) ([]string, error) {
	if accountID == uuid.Nil {
		return nil, nil
	}

	var tokens []string
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		// same lock order as Open: account row first, then its sessions
		if err := tx.LockAccount(ctx, accountID); err != nil {
			return err
		}

		active, err := tx.LockActiveByAccount(ctx, accountID)
		if err != nil {
			return err
		}

		ids := make([]uuid.UUID, 0, len(active))
		for _, sess := range active {
			ids = append(ids, sess.ID)
			tokens = append(tokens, sess.SessionToken)
		}
		return tx.DeactivateByIDs(ctx, ids)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, database.Classify(err)
	}
	return tokens, nil
}

func (s *service) ListActive(ctx context.Context, accountID uuid.UUID) ([]Session, error) {
	sessions, err := s.repo.FindActiveByAccount(ctx, accountID)
	if err != nil {
		return nil, database.Classify(err)
	}
	return sessions, nil
}
