package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Anvoria/sessionly/internal/utils"
)

const (
	// ClaimsKey is the key under which verified access token claims are stored in the Fiber context
	ClaimsKey = "token_claims"
	// IdentityKey is the key used to store the identity in Fiber context
	IdentityKey = "identity"
)

// TokenVerifier verifies a raw access token
type TokenVerifier interface {
	Verify(tokenString string) (*AccessTokenClaims, error)
}

// SessionValidator decides whether the session named by verified claims is live
type SessionValidator interface {
	ValidateSession(ctx context.Context, accountID, sessionToken string) error
}

// VerifyMiddleware authenticates the Bearer token cryptographically and stores its claims
// under ClaimsKey. It does not consult the session ledger.
func VerifyMiddleware(tokens TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return utils.ErrorResponse(c, ErrAPIMissingAuthorization)
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return utils.ErrorResponse(c, ErrAPIInvalidAuthorization)
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			return utils.ErrorResponse(c, ErrAPIInvalidAuthorization)
		}

		claims, err := tokens.Verify(token)
		if err != nil {
			return utils.ErrorResponse(c, ErrAPIInvalidToken)
		}

		c.Locals(ClaimsKey, claims)
		return c.Next()
	}
}

// SessionMiddleware is the request gate. It trusts only claims placed by VerifyMiddleware
// and rejects requests whose session is missing, malformed or no longer active.
func SessionMiddleware(validator SessionValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := GetClaims(c)
		if claims == nil {
			return utils.ErrorResponse(c, utils.ErrUnauthorized)
		}

		accountID := claims.AccountID()
		sessionID := claims.SessionID()

		if err := validator.ValidateSession(c.UserContext(), accountID, sessionID); err != nil {
			return utils.ErrorResponse(c, ErrorFor(err))
		}

		c.Locals(IdentityKey, &Identity{
			AccountID: accountID,
			Username:  claims.Subject(),
			SessionID: sessionID,
			Role:      claims.Role(),
		})
		return c.Next()
	}
}

// RequireRole allows the request only when the gated identity holds role
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := GetIdentity(c)
		if identity == nil {
			return utils.ErrorResponse(c, utils.ErrUnauthorized)
		}
		if identity.Role != role {
			return utils.ErrorResponse(c, utils.ErrForbidden)
		}
		return c.Next()
	}
}

// GetIdentity returns the identity stored by SessionMiddleware or nil
func GetIdentity(c *fiber.Ctx) *Identity {
	identity, ok := c.Locals(IdentityKey).(*Identity)
	if !ok {
		return nil
	}
	return identity
}

// GetClaims returns the verified claims stored by VerifyMiddleware or nil
func GetClaims(c *fiber.Ctx) *AccessTokenClaims {
	claims, ok := c.Locals(ClaimsKey).(*AccessTokenClaims)
	if !ok || claims == nil {
		return nil
	}
	return claims
}
