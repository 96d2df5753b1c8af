package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jws"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anvoria/sessionly/internal/domain/session"
	"github.com/Anvoria/sessionly/internal/domain/user"
)

var testSecret = []byte(strings.Repeat("k", MinSigningKeyLength))

func testAccount() *user.User {
	u := &user.User{Username: "alice", Role: user.RoleUser}
	u.ID = uuid.New()
	return u
}

func TestNewTokenIssuer_KeyLength(t *testing.T) {
	_, err := NewTokenIssuer(testSecret[:MinSigningKeyLength-1], "iss", "aud", time.Minute)
	assert.ErrorIs(t, err, ErrSigningKeyTooShort)

	issuer, err := NewTokenIssuer(testSecret, "iss", "aud", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultAccessTokenTTL, issuer.ttl)
	assert.NotEmpty(t, issuer.KeyID())
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, "https://auth.test", "clients", time.Minute)
	require.NoError(t, err)

	u := testAccount()
	sess := &session.Session{SessionToken: uuid.NewString()}

	token, exp, err := issuer.IssueAccessToken(u, sess)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 2*time.Second)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject())
	assert.Equal(t, u.ID.String(), claims.AccountID())
	assert.Equal(t, user.RoleUser, claims.Role())
	assert.Equal(t, sess.SessionToken, claims.SessionID())
	assert.Equal(t, "https://auth.test", claims.Issuer())
	assert.Equal(t, []string{"clients"}, claims.Audience())
	assert.True(t, claims.Expiration().Equal(exp))

	msg, err := jws.Parse([]byte(token))
	require.NoError(t, err)
	headers := msg.Signatures()[0].ProtectedHeaders()
	alg, ok := headers.Algorithm()
	require.True(t, ok)
	assert.Equal(t, jwa.HS512(), alg)
	kid, ok := headers.KeyID()
	require.True(t, ok)
	assert.Equal(t, issuer.KeyID(), kid)
}

func TestTokenIssuer_Verify_Rejects(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, "https://auth.test", "clients", time.Minute)
	require.NoError(t, err)
	token, _, err := issuer.IssueAccessToken(testAccount(), &session.Session{SessionToken: "sid"})
	require.NoError(t, err)

	otherKey, err := NewTokenIssuer([]byte(strings.Repeat("z", 64)), "https://auth.test", "clients", time.Minute)
	require.NoError(t, err)
	otherIssuer, err := NewTokenIssuer(testSecret, "https://evil.test", "clients", time.Minute)
	require.NoError(t, err)
	otherAudience, err := NewTokenIssuer(testSecret, "https://auth.test", "someone-else", time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name     string
		verifier *TokenIssuer
		token    string
	}{
		{name: "different key", verifier: otherKey, token: token},
		{name: "different issuer", verifier: otherIssuer, token: token},
		{name: "different audience", verifier: otherAudience, token: token},
		{name: "tampered payload", verifier: issuer, token: tamper(token)},
		{name: "garbage", verifier: issuer, token: "not.a.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.verifier.Verify(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestTokenIssuer_Verify_RejectsOtherAlgorithm(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, "iss", "aud", time.Minute)
	require.NoError(t, err)

	tok, err := jwt.NewBuilder().Subject("alice").Issuer("iss").Audience([]string{"aud"}).
		Expiration(time.Now().Add(time.Minute)).Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), testSecret))
	require.NoError(t, err)

	_, err = issuer.Verify(string(signed))
	assert.Error(t, err)
}

func TestTokenIssuer_ExpiryWithoutSkew(t *testing.T) {
	issuedAt := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	now := issuedAt
	clock := func() time.Time { return now }

	issuer, err := NewTokenIssuerWithClock(testSecret, "iss", "aud", time.Minute, clock)
	require.NoError(t, err)

	token, exp, err := issuer.IssueAccessToken(testAccount(), &session.Session{SessionToken: "sid"})
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(time.Minute), exp)

	now = exp.Add(-time.Second)
	_, err = issuer.Verify(token)
	assert.NoError(t, err)

	now = exp.Add(time.Second)
	_, err = issuer.Verify(token)
	assert.Error(t, err, "expired tokens get no grace period")
}

func TestNewTokenIssuer_RequiresIssuerAndAudience(t *testing.T) {
	_, err := NewTokenIssuer(testSecret, "", "aud", time.Minute)
	assert.ErrorIs(t, err, ErrIssuerRequired)

	_, err = NewTokenIssuer(testSecret, "iss", "", time.Minute)
	assert.ErrorIs(t, err, ErrAudienceRequired)
}

func TestKeyIDFor(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, "iss", "aud", time.Minute)
	require.NoError(t, err)

	kid, err := KeyIDFor(testSecret)
	require.NoError(t, err)
	assert.Equal(t, issuer.KeyID(), kid)

	_, err = KeyIDFor(testSecret[:10])
	assert.ErrorIs(t, err, ErrSigningKeyTooShort)
}

func TestTokenIssuer_Verify_RequiresIssuerAndAudienceClaims(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, "iss", "aud", time.Minute)
	require.NoError(t, err)
	exp := time.Now().Add(time.Minute)

	tests := []struct {
		name    string
		build   *jwt.Builder
		wantErr bool
	}{
		{
			name:    "no iss and no aud",
			build:   jwt.NewBuilder().Subject("svc").Expiration(exp),
			wantErr: true,
		},
		{
			name:    "no aud",
			build:   jwt.NewBuilder().Issuer("iss").Subject("svc").Expiration(exp),
			wantErr: true,
		},
		{
			name:    "no iss",
			build:   jwt.NewBuilder().Audience([]string{"aud"}).Subject("svc").Expiration(exp),
			wantErr: true,
		},
		{
			name: "both present",
			build: jwt.NewBuilder().Issuer("iss").Audience([]string{"aud"}).Subject("svc").
				Claim(ClaimSessionID, "sid-9").Expiration(exp),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := tt.build.Build()
			require.NoError(t, err)
			signed, err := issuer.signToken(tok)
			require.NoError(t, err)

			claims, err := issuer.Verify(signed)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "sid-9", claims.SessionID())
			assert.Empty(t, claims.AccountID(), "missing claims read as empty")
		})
	}
}

// tamper flips one character of the payload segment
func tamper(token string) string {
	parts := strings.Split(token, ".")
	p := []byte(parts[1])
	if p[0] == 'A' {
		p[0] = 'B'
	} else {
		p[0] = 'A'
	}
	parts[1] = string(p)
	return strings.Join(parts, ".")
}
