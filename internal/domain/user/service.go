package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUsernameExists is returned when trying to register with a username that already exists
	ErrUsernameExists = errors.New("username already exists")
	// ErrUsernameRequired is returned when trying to register with an empty username
	ErrUsernameRequired = errors.New("username is required")
	// ErrPasswordRequired is returned when trying to register with an empty password
	ErrPasswordRequired = errors.New("password is required")
	// ErrInvalidRole is returned when registering with a role other than User or Admin
	ErrInvalidRole = errors.New("invalid role")
)

// RegisterRequest represents the input for account registration.
// An empty Role registers a regular User.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=256"`
	Role     string `json:"-"`
}

// Service interface for account operations
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	VerifyPassword(u *User, password string) bool
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
}

// service struct for user operations
type service struct {
	repo Repository
}

// NewService creates a new user service
func NewService(repo Repository) Service {
	return &service{repo}
}

// Register hashes the password and creates the account
func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if strings.TrimSpace(req.Username) == "" {
		return nil, ErrUsernameRequired
	}
	if req.Password == "" {
		return nil, ErrPasswordRequired
	}

	role := req.Role
	switch role {
	case "":
		role = RoleUser
	case RoleUser, RoleAdmin:
	default:
		return nil, ErrInvalidRole
	}

	hashedPassword, err := HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		Username: req.Username,
		Password: hashedPassword,
		Role:     role,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// VerifyPassword verifies if the provided password matches the user's hashed password
func (s *service) VerifyPassword(u *User, password string) bool {
	return VerifyPassword(password, u.Password)
}

func (s *service) FindByUsername(ctx context.Context, username string) (*User, error) {
	return s.repo.FindByUsername(ctx, username)
}

func (s *service) FindByID(ctx context.Context, id string) (*User, error) {
	return s.repo.FindByID(ctx, id)
}
