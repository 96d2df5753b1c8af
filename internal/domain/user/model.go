package user

import "github.com/Anvoria/sessionly/internal/database"

// Roles an account can hold
const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)

type User struct {
	database.BaseModel
	Username string `gorm:"column:username;uniqueIndex:idx_users_username;not null"`
	Password string `gorm:"column:password;not null"`
	Role     string `gorm:"column:role;not null;default:User"`
}

func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the account holds the Admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserResponse is the public projection of an account
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// ToResponse converts the account to its public projection
func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:       u.ID.String(),
		Username: u.Username,
		Role:     u.Role,
	}
}
