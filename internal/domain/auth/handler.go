package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Anvoria/sessionly/internal/domain/session"
	"github.com/Anvoria/sessionly/internal/domain/user"
	"github.com/Anvoria/sessionly/internal/utils"
)

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=256"`
}

// RefreshRequest is the body of POST /auth/refresh
type RefreshRequest struct {
	AccountID    string `json:"account_id" validate:"required,uuid"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type Handler struct {
	authService AuthService
}

// NewHandler creates a new Handler
func NewHandler(s AuthService) *Handler {
	return &Handler{authService: s}
}

func (h *Handler) Register(c *fiber.Ctx) error {
	var req user.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, utils.ErrBadRequest)
	}
	if apiErr := utils.Validate(req); apiErr != nil {
		return utils.ErrorResponse(c, apiErr)
	}

	res, err := h.authService.Register(c.UserContext(), req)
	if err != nil {
		return utils.ErrorResponse(c, ErrorFor(err))
	}

	return utils.SuccessResponse(c, fiber.Map{
		"user": res,
	}, "User registered successfully", fiber.StatusCreated)
}

// Login authenticates the caller. The origin is the client address as Fiber resolves it.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, utils.ErrBadRequest)
	}
	if apiErr := utils.Validate(req); apiErr != nil {
		return utils.ErrorResponse(c, apiErr)
	}

	res, err := h.authService.Login(c.UserContext(), req.Username, req.Password, c.IP())
	if err != nil {
		return utils.ErrorResponse(c, ErrorFor(err))
	}

	return utils.SuccessResponse(c, res, "Login successful")
}

func (h *Handler) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, utils.ErrBadRequest)
	}
	if apiErr := utils.Validate(req); apiErr != nil {
		return utils.ErrorResponse(c, apiErr)
	}

	res, err := h.authService.Refresh(c.UserContext(), req.AccountID, req.RefreshToken)
	if err != nil {
		return utils.ErrorResponse(c, ErrorFor(err))
	}

	return utils.SuccessResponse(c, res, "Token refreshed")
}

// Logout ends every session of the caller's account
func (h *Handler) Logout(c *fiber.Ctx) error {
	identity := GetIdentity(c)
	if identity == nil {
		return utils.ErrorResponse(c, utils.ErrUnauthorized)
	}

	ended, err := h.authService.LogoutAll(c.UserContext(), identity.AccountID)
	if err != nil {
		return utils.ErrorResponse(c, ErrorFor(err))
	}

	return utils.SuccessResponse(c, fiber.Map{
		"sessions_ended": len(ended),
	}, "Logged out from all sessions")
}

// LogoutSession ends the session named in the path if it belongs to the caller
func (h *Handler) LogoutSession(c *fiber.Ctx) error {
	identity := GetIdentity(c)
	if identity == nil {
		return utils.ErrorResponse(c, utils.ErrUnauthorized)
	}

	if err := h.authService.LogoutSession(c.UserContext(), identity.AccountID, c.Params("sid")); err != nil {
		return utils.ErrorResponse(c, ErrorFor(err))
	}

	return utils.SuccessResponse(c, nil, "Session ended")
}

func (h *Handler) SessionInfo(c *fiber.Ctx) error {
	identity := GetIdentity(c)
	if identity == nil {
		return utils.ErrorResponse(c, utils.ErrUnauthorized)
	}

	return utils.SuccessResponse(c, h.authService.SessionInfo(identity, c.IP()), "Session information retrieved successfully")
}

func (h *Handler) ListSessions(c *fiber.Ctx) error {
	identity := GetIdentity(c)
	if identity == nil {
		return utils.ErrorResponse(c, utils.ErrUnauthorized)
	}

	sessions, err := h.authService.ListSessions(c.UserContext(), identity.AccountID)
	if err != nil {
		return utils.ErrorResponse(c, ErrorFor(err))
	}

	out := make([]session.SessionResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, sessions[i].ToResponse(identity.SessionID))
	}

	return utils.SuccessResponse(c, fiber.Map{
		"sessions": out,
	}, "Active sessions retrieved successfully")
}

// Authenticated acknowledges any caller holding a live session
func (h *Handler) Authenticated(c *fiber.Ctx) error {
	identity := GetIdentity(c)
	if identity == nil {
		return utils.ErrorResponse(c, utils.ErrUnauthorized)
	}
	return utils.SuccessResponse(c, fiber.Map{
		"username": identity.Username,
	}, "Authenticated")
}

// AdminOnly acknowledges a caller that passed RequireRole(user.RoleAdmin)
func (h *Handler) AdminOnly(c *fiber.Ctx) error {
	identity := GetIdentity(c)
	if identity == nil {
		return utils.ErrorResponse(c, utils.ErrUnauthorized)
	}
	return utils.SuccessResponse(c, fiber.Map{
		"username": identity.Username,
		"role":     identity.Role,
	}, "Admin access granted")
}
