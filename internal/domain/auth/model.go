package auth

import (
	"time"

	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/Anvoria/sessionly/internal/domain/user"
)

// Private claim names carried by access tokens
const (
	ClaimAccountID = "uid"
	ClaimRole      = "role"
	ClaimSessionID = "sid"
)

// AccessTokenClaims wraps a verified access token
type AccessTokenClaims struct {
	Token jwt.Token
}

// Subject returns the username the token was issued to
func (c *AccessTokenClaims) Subject() string {
	sub, _ := c.Token.Subject()
	return sub
}

func (c *AccessTokenClaims) Issuer() string {
	iss, _ := c.Token.Issuer()
	return iss
}

func (c *AccessTokenClaims) Audience() []string {
	aud, _ := c.Token.Audience()
	return aud
}

func (c *AccessTokenClaims) IssuedAt() time.Time {
	iat, _ := c.Token.IssuedAt()
	return iat
}

func (c *AccessTokenClaims) Expiration() time.Time {
	exp, _ := c.Token.Expiration()
	return exp
}

// AccountID returns the uid claim or "" when absent
func (c *AccessTokenClaims) AccountID() string {
	return c.stringClaim(ClaimAccountID)
}

// Role returns the role claim or "" when absent
func (c *AccessTokenClaims) Role() string {
	return c.stringClaim(ClaimRole)
}

// SessionID returns the sid claim or "" when absent
func (c *AccessTokenClaims) SessionID() string {
	return c.stringClaim(ClaimSessionID)
}

func (c *AccessTokenClaims) stringClaim(name string) string {
	var v string
	if err := c.Token.Get(name, &v); err != nil {
		return ""
	}
	return v
}

// Identity is the authenticated caller of a request that passed the session gate
type Identity struct {
	AccountID string
	Username  string
	SessionID string
	Role      string
}

// LoginResponse represents the response from a successful login
type LoginResponse struct {
	AccessToken           string             `json:"access_token"`
	AccessTokenExpiresAt  time.Time          `json:"access_token_expires_at"`
	RefreshToken          string             `json:"refresh_token"`
	RefreshTokenExpiresAt time.Time          `json:"refresh_token_expires_at"`
	SessionID             string             `json:"session_id"`
	User                  *user.UserResponse `json:"user"`
	// Revoked lists the other-origin sessions this login ended
	Revoked []string `json:"-"`
}

// TokenPair represents the response from a successful refresh
type TokenPair struct {
	AccessToken           string    `json:"access_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshToken          string    `json:"refresh_token"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	SessionID             string    `json:"session_id"`
}

// SessionInfo describes the caller's current session
type SessionInfo struct {
	Username  string `json:"username"`
	AccountID string `json:"account_id"`
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	Origin    string `json:"origin"`
}
