package user

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Anvoria/sessionly/internal/database"
)

// Repository interface for account persistence
type Repository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
}

// repository struct for user operations
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new user repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

// Create inserts a new account. A taken username yields ErrUsernameExists.
func (r *repository) Create(ctx context.Context, user *User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrUsernameExists
	}
	return database.Classify(err)
}

// FindByID gets an account by ID
func (r *repository) FindByID(ctx context.Context, id string) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, database.Classify(err)
	}
	return &user, nil
}

// FindByUsername gets an account by its exact, case-sensitive username
func (r *repository) FindByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, database.Classify(err)
	}
	return &user, nil
}
