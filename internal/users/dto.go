package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/kitarena/kitarena-backend/pkg/db/models"
	"github.com/kitarena/kitarena-backend/pkg/enums"
)

// Actor identifies the caller performing an operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// ListFilters narrows admin user listings.
type ListFilters struct {
	Role   *enums.UserRole
	Active *bool
}

// RegisterInput carries a new account request.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Language  enums.Language
}

// UpdateProfileInput carries the mutable profile fields.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Language  *enums.Language
}

// UserDTO is the outward representation of an account. It never carries
// the password hash.
type UserDTO struct {
	ID          uuid.UUID      `json:"id"`
	Email       string         `json:"email"`
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	Role        enums.UserRole `json:"role"`
	Language    enums.Language `json:"language"`
	IsActive    bool           `json:"is_active"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// FromModel converts a persisted user into its DTO.
func FromModel(user *models.User) *UserDTO {
	if user == nil {
		return nil
	}
	return &UserDTO{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Role:        user.Role,
		Language:    user.Language,
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}

// AuthResult bundles the credentials returned by Login and RefreshSession.
type AuthResult struct {
	User         *UserDTO  `json:"user"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// UserList is a cursor page of accounts.
type UserList struct {
	Users      []models.User
	NextCursor string
	HasMore    bool
}
