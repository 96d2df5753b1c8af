package auth

import (
	"crypto"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/Anvoria/sessionly/internal/domain/session"
	"github.com/Anvoria/sessionly/internal/domain/user"
)

// MinSigningKeyLength is the minimum HS512 key size in bytes
const MinSigningKeyLength = 64

// DefaultAccessTokenTTL is the access token lifetime when none is configured
const DefaultAccessTokenTTL = time.Minute

// TokenIssuer mints and verifies HS512 access tokens
type TokenIssuer struct {
	key      jwk.Key
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewTokenIssuer creates a TokenIssuer over a symmetric secret of at least 64 bytes
func NewTokenIssuer(secret []byte, issuer, audience string, ttl time.Duration) (*TokenIssuer, error) {
	return NewTokenIssuerWithClock(secret, issuer, audience, ttl, nil)
}

// NewTokenIssuerWithClock is NewTokenIssuer with an injectable clock
func NewTokenIssuerWithClock(secret []byte, issuer, audience string, ttl time.Duration, now func() time.Time) (*TokenIssuer, error) {
	if issuer == "" {
		return nil, ErrIssuerRequired
	}
	if audience == "" {
		return nil, ErrAudienceRequired
	}
	if ttl <= 0 {
		ttl = DefaultAccessTokenTTL
	}
	if now == nil {
		now = time.Now
	}

	key, err := signingKey(secret)
	if err != nil {
		return nil, err
	}

	return &TokenIssuer{
		key:      key,
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		now:      now,
	}, nil
}

// KeyIDFor returns the kid a TokenIssuer built over secret puts in token headers
func KeyIDFor(secret []byte) (string, error) {
	key, err := signingKey(secret)
	if err != nil {
		return "", err
	}
	kid, _ := key.KeyID()
	return kid, nil
}

func signingKey(secret []byte) (jwk.Key, error) {
	if len(secret) < MinSigningKeyLength {
		return nil, ErrSigningKeyTooShort
	}

	key, err := jwk.Import(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to import signing key: %w", err)
	}

	thumb, err := key.Thumbprint(crypto.SHA256)
	if err != nil {
		return nil, fmt.Errorf("failed to compute key thumbprint: %w", err)
	}
	if err := key.Set(jwk.KeyIDKey, base64.RawURLEncoding.EncodeToString(thumb[:8])); err != nil {
		return nil, fmt.Errorf("failed to set key ID: %w", err)
	}
	if err := key.Set(jwk.AlgorithmKey, jwa.HS512()); err != nil {
		return nil, fmt.Errorf("failed to set algorithm: %w", err)
	}
	return key, nil
}

// KeyID returns the kid placed in every token header
func (t *TokenIssuer) KeyID() string {
	kid, _ := t.key.KeyID()
	return kid
}

// IssueAccessToken mints an access token bound to the account and its session
func (t *TokenIssuer) IssueAccessToken(u *user.User, sess *session.Session) (string, time.Time, error) {
	now := t.now().UTC().Truncate(time.Second)
	exp := now.Add(t.ttl)

	token, err := jwt.NewBuilder().
		Issuer(t.issuer).
		Audience([]string{t.audience}).
		Subject(u.Username).
		IssuedAt(now).
		Expiration(exp).
		Claim(ClaimAccountID, u.ID.String()).
		Claim(ClaimRole, u.Role).
		Claim(ClaimSessionID, sess.SessionToken).
		Build()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to build access token: %w", err)
	}

	signed, err := t.signToken(token)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (t *TokenIssuer) signToken(token jwt.Token) (string, error) {
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS512(), t.key))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return string(signed), nil
}

// Verify checks signature, issuer, audience and expiry with zero clock skew
func (t *TokenIssuer) Verify(tokenString string) (*AccessTokenClaims, error) {
	token, err := jwt.Parse([]byte(tokenString),
		jwt.WithKey(jwa.HS512(), t.key),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(0),
		jwt.WithClock(jwt.ClockFunc(t.now)),
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
	)
	if err != nil {
		return nil, err
	}
	return &AccessTokenClaims{Token: token}, nil
}
