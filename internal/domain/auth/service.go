package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Anvoria/sessionly/internal/domain/audit"
	"github.com/Anvoria/sessionly/internal/domain/session"
	"github.com/Anvoria/sessionly/internal/domain/user"
	"github.com/Anvoria/sessionly/internal/metrics"
)

// AuthService is the session policy engine consumed by the HTTP layer
type AuthService interface {
	Register(ctx context.Context, req user.RegisterRequest) (*user.UserResponse, error)
	Login(ctx context.Context, username, password, remoteAddr string) (*LoginResponse, error)
	Refresh(ctx context.Context, accountID, refreshToken string) (*TokenPair, error)
	ValidateSession(ctx context.Context, accountID, sessionToken string) error
	LogoutAll(ctx context.Context, accountID string) ([]string, error)
	LogoutSession(ctx context.Context, accountID, sessionToken string) error
	ListSessions(ctx context.Context, accountID string) ([]session.Session, error)
	SessionInfo(identity *Identity, remoteAddr string) *SessionInfo
}

// RevocationCache is a fast negative cache in front of the session ledger
type RevocationCache interface {
	RevokeSessions(ctx context.Context, accountID string, sessionTokens ...string)
	IsSessionRevoked(ctx context.Context, accountID, sessionToken string) bool
}

// Service handles authentication and session policy.
// Revocations, Audit and Metrics are optional.
type Service struct {
	Users       user.Service
	Sessions    session.Service
	Tokens      *TokenIssuer
	Revocations RevocationCache
	Audit       *audit.Recorder
	Metrics     *metrics.Metrics
}

// NewService creates a new auth service
func NewService(users user.Service, sessions session.Service, tokens *TokenIssuer, revocations RevocationCache, recorder *audit.Recorder, m *metrics.Metrics) *Service {
	return &Service{
		Users:       users,
		Sessions:    sessions,
		Tokens:      tokens,
		Revocations: revocations,
		Audit:       recorder,
		Metrics:     m,
	}
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// burnPasswordCheck runs one argon2id verification against a fixed hash so an
// unknown username costs the same as a wrong password.
func burnPasswordCheck(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = user.HashPassword("sessionly-unknown-account")
	})
	user.VerifyPassword(password, dummyHash)
}

// Register creates a regular User account
func (s *Service) Register(ctx context.Context, req user.RegisterRequest) (*user.UserResponse, error) {
	req.Role = user.RoleUser
	u, err := s.Users.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	slog.Info("account registered", "account_id", u.ID.String())
	return u.ToResponse(), nil
}

// Login verifies credentials, ends the account's sessions from other origins and opens a new one
func (s *Service) Login(ctx context.Context, username, password, remoteAddr string) (*LoginResponse, error) {
	origin := session.NormalizeOrigin(remoteAddr)

	if username == "" {
		burnPasswordCheck(password)
		s.loginFailed(ctx, uuid.Nil, origin, "empty_username")
		return nil, ErrInvalidCredentials
	}

	u, err := s.Users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			burnPasswordCheck(password)
			s.loginFailed(ctx, uuid.Nil, origin, "unknown_account")
			return nil, ErrInvalidCredentials
		}
		s.Metrics.Login("error")
		return nil, err
	}

	if !s.Users.VerifyPassword(u, password) {
		s.loginFailed(ctx, u.ID, origin, "wrong_password")
		return nil, ErrInvalidCredentials
	}

	opened, err := s.Sessions.Open(ctx, u.ID, origin)
	if err != nil {
		s.Metrics.Login("error")
		return nil, err
	}
	sess := opened.Session

	access, accessExp, err := s.Tokens.IssueAccessToken(u, sess)
	if err != nil {
		s.Metrics.Login("error")
		return nil, err
	}

	accountID := u.ID.String()
	if len(opened.Revoked) > 0 {
		if s.Revocations != nil {
			s.Revocations.RevokeSessions(ctx, accountID, opened.Revoked...)
		}
		s.Metrics.Revoked("origin_change", len(opened.Revoked))
		slog.Info("session revoked",
			"account_id", accountID,
			"reason", "origin_change",
			"origin", origin,
			"count", len(opened.Revoked),
		)
		for _, tok := range opened.Revoked {
			s.Audit.Record(ctx, audit.Entry{
				AccountID:    u.ID,
				SessionToken: tok,
				Action:       audit.ActionRevoke,
				Origin:       origin,
				Metadata:     map[string]any{"reason": "origin_change", "replaced_by": sess.SessionToken},
			})
		}
	}

	s.Metrics.Login("success")
	slog.Info("session login", "account_id", accountID, "session_id", sess.SessionToken, "origin", origin)
	s.Audit.Record(ctx, audit.Entry{
		AccountID:    u.ID,
		SessionToken: sess.SessionToken,
		Action:       audit.ActionLogin,
		Origin:       origin,
		Metadata:     map[string]any{"revoked": len(opened.Revoked)},
	})

	return &LoginResponse{
		AccessToken:           access,
		AccessTokenExpiresAt:  accessExp,
		RefreshToken:          opened.RefreshToken,
		RefreshTokenExpiresAt: *sess.RefreshTokenExpiresAt,
		SessionID:             sess.SessionToken,
		User:                  u.ToResponse(),
		Revoked:               opened.Revoked,
	}, nil
}

func (s *Service) loginFailed(ctx context.Context, accountID uuid.UUID, origin, reason string) {
	s.Metrics.Login("invalid_credentials")
	slog.Info("session login failed", "origin", origin, "reason", reason)
	s.Audit.Record(ctx, audit.Entry{
		AccountID: accountID,
		Action:    audit.ActionLoginFailed,
		Origin:    origin,
		Metadata:  map[string]any{"reason": reason},
	})
}

// Refresh rotates the refresh token of an active session and issues a new access token for it
func (s *Service) Refresh(ctx context.Context, accountID, refreshToken string) (*TokenPair, error) {
	id, err := uuid.Parse(accountID)
	if err != nil || refreshToken == "" {
		s.Metrics.Refresh("invalid")
		return nil, session.ErrInvalidRefreshToken
	}

	u, err := s.Users.FindByID(ctx, id.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.Metrics.Refresh("invalid")
			return nil, session.ErrInvalidRefreshToken
		}
		s.Metrics.Refresh("error")
		return nil, err
	}

	rotated, err := s.Sessions.Rotate(ctx, id, refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrExpiredRefreshToken):
			s.Metrics.Refresh("expired")
		case errors.Is(err, session.ErrInvalidRefreshToken):
			s.Metrics.Refresh("invalid")
		default:
			s.Metrics.Refresh("error")
		}
		slog.Info("session refresh rejected", "account_id", accountID, "error", err)
		return nil, err
	}

	access, accessExp, err := s.Tokens.IssueAccessToken(u, rotated.Session)
	if err != nil {
		s.Metrics.Refresh("error")
		return nil, err
	}

	s.Metrics.Refresh("success")
	slog.Info("session rotated", "account_id", accountID, "session_id", rotated.Session.SessionToken)
	s.Audit.Record(ctx, audit.Entry{
		AccountID:    id,
		SessionToken: rotated.Session.SessionToken,
		Action:       audit.ActionRotate,
		Origin:       rotated.Session.Origin,
	})

	return &TokenPair{
		AccessToken:           access,
		AccessTokenExpiresAt:  accessExp,
		RefreshToken:          rotated.RefreshToken,
		RefreshTokenExpiresAt: rotated.ExpiresAt,
		SessionID:             rotated.Session.SessionToken,
	}, nil
}

// ValidateSession reports whether the session named by already verified claims is still live.
// It never touches last_activity.
func (s *Service) ValidateSession(ctx context.Context, accountID, sessionToken string) error {
	id, err := uuid.Parse(accountID)
	if err != nil || id == uuid.Nil || sessionToken == "" {
		s.deny(uuid.Nil, sessionToken, "malformed_session")
		return session.ErrMalformedSession
	}

	if s.Revocations != nil && s.Revocations.IsSessionRevoked(ctx, accountID, sessionToken) {
		s.deny(id, sessionToken, "session_revoked")
		return session.ErrSessionRevoked
	}

	if _, err := s.Sessions.Lookup(ctx, id, sessionToken); err != nil {
		if errors.Is(err, session.ErrSessionRevoked) {
			s.deny(id, sessionToken, "session_revoked")
		}
		return err
	}
	return nil
}

// deny counts and logs a rejected request. Denials are not written to the audit ledger.
func (s *Service) deny(accountID uuid.UUID, sessionToken, reason string) {
	s.Metrics.Denied(reason)
	slog.Debug("session denied", "account_id", accountID.String(), "session_id", sessionToken, "reason", reason)
}

// LogoutAll ends every active session of the account. Calling it again is a no-op.
func (s *Service) LogoutAll(ctx context.Context, accountID string) ([]string, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return nil, session.ErrMalformedSession
	}

	tokens, err := s.Sessions.DeactivateAll(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(tokens) > 0 && s.Revocations != nil {
		s.Revocations.RevokeSessions(ctx, accountID, tokens...)
	}
	s.Metrics.Logout("all")
	s.Metrics.Revoked("logout_all", len(tokens))
	slog.Info("logout", "account_id", accountID, "scope", "all", "count", len(tokens))
	s.Audit.Record(ctx, audit.Entry{
		AccountID: id,
		Action:    audit.ActionLogout,
		Metadata:  map[string]any{"scope": "all", "sessions": len(tokens)},
	})

	return tokens, nil
}

// LogoutSession ends one session owned by the account. Unknown targets are not an error.
func (s *Service) LogoutSession(ctx context.Context, accountID, sessionToken string) error {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return session.ErrMalformedSession
	}

	changed, err := s.Sessions.Deactivate(ctx, id, sessionToken)
	if err != nil {
		return err
	}

	s.Metrics.Logout("one")
	if !changed {
		return nil
	}

	if s.Revocations != nil {
		s.Revocations.RevokeSessions(ctx, accountID, sessionToken)
	}
	s.Metrics.Revoked("logout", 1)
	slog.Info("logout", "account_id", accountID, "scope", "one", "session_id", sessionToken)
	s.Audit.Record(ctx, audit.Entry{
		AccountID:    id,
		SessionToken: sessionToken,
		Action:       audit.ActionLogout,
		Metadata:     map[string]any{"scope": "one"},
	})
	return nil
}

// ListSessions returns the account's active sessions
func (s *Service) ListSessions(ctx context.Context, accountID string) ([]session.Session, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return nil, session.ErrMalformedSession
	}
	return s.Sessions.ListActive(ctx, id)
}

// SessionInfo describes the caller's session together with the origin the server observes
func (s *Service) SessionInfo(identity *Identity, remoteAddr string) *SessionInfo {
	if identity == nil {
		return nil
	}
	return &SessionInfo{
		Username:  identity.Username,
		AccountID: identity.AccountID,
		SessionID: identity.SessionID,
		Role:      identity.Role,
		Origin:    session.NormalizeOrigin(remoteAddr),
	}
}
