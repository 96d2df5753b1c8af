package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Anvoria/sessionly/internal/database"
	"github.com/Anvoria/sessionly/internal/domain/session"
	"github.com/Anvoria/sessionly/internal/domain/user"
	"github.com/Anvoria/sessionly/internal/utils"
)

var (
	// ErrInvalidCredentials is returned for an unknown username or a wrong password alike
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSigningKeyTooShort is returned when the HS512 key is shorter than 64 bytes
	ErrSigningKeyTooShort = errors.New("signing key must be at least 64 bytes")
	// ErrIssuerRequired is returned when a TokenIssuer is built without an iss value
	ErrIssuerRequired = errors.New("token issuer is required")
	// ErrAudienceRequired is returned when a TokenIssuer is built without an aud value
	ErrAudienceRequired = errors.New("token audience is required")
)

// API errors returned by the auth endpoints and middleware
var (
	ErrAPIInvalidCredentials   = utils.NewAPIError("INVALID_CREDENTIALS", "Invalid username or password", fiber.StatusUnauthorized)
	ErrAPIUsernameTaken        = utils.NewAPIError("USERNAME_TAKEN", "Username is already taken", fiber.StatusConflict)
	ErrAPIInvalidRefreshToken  = utils.NewAPIError("INVALID_REFRESH_TOKEN", "Refresh token is invalid", fiber.StatusUnauthorized)
	ErrAPIExpiredRefreshToken  = utils.NewAPIError("REFRESH_TOKEN_EXPIRED", "Refresh token has expired, please login again", fiber.StatusUnauthorized)
	ErrAPISessionRevoked       = utils.NewAPIError("SESSION_REVOKED", "Session is no longer active, please login again", fiber.StatusUnauthorized)
	ErrAPIMalformedSession     = utils.NewAPIError("MALFORMED_SESSION", "Session claims are missing or malformed, please login again", fiber.StatusUnauthorized)
	ErrAPIMissingAuthorization = utils.NewAPIError("MISSING_AUTHORIZATION_HEADER", "Authorization header is required", fiber.StatusUnauthorized)
	ErrAPIInvalidAuthorization = utils.NewAPIError("INVALID_AUTHORIZATION_HEADER", "Authorization header must be a Bearer token", fiber.StatusUnauthorized)
	ErrAPIInvalidToken         = utils.NewAPIError("INVALID_TOKEN", "Access token is invalid or expired", fiber.StatusUnauthorized)
)

// ErrorFor maps a service error to the API error sent to the client.
// Unknown errors become a 500 without leaking their message.
func ErrorFor(err error) *utils.APIError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, database.ErrStoreUnavailable):
		return utils.ErrServiceUnavailable
	case errors.Is(err, ErrInvalidCredentials):
		return ErrAPIInvalidCredentials
	case errors.Is(err, user.ErrUsernameExists):
		return ErrAPIUsernameTaken
	case errors.Is(err, user.ErrUsernameRequired), errors.Is(err, user.ErrPasswordRequired):
		return utils.ErrValidation
	case errors.Is(err, session.ErrInvalidRefreshToken):
		return ErrAPIInvalidRefreshToken
	case errors.Is(err, session.ErrExpiredRefreshToken):
		return ErrAPIExpiredRefreshToken
	case errors.Is(err, session.ErrSessionRevoked):
		return ErrAPISessionRevoked
	case errors.Is(err, session.ErrMalformedSession):
		return ErrAPIMalformedSession
	default:
		return utils.ErrInternalServer
	}
}
