package transport

import (
	"time"

	"github.com/google/uuid"
)

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	Tier      int       `json:"tier"`
	TierName  string    `json:"tier_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// TierGroup is one tier bucket of the user directory.
type TierGroup struct {
	Tier     int            `json:"tier"`
	TierName string         `json:"tier_name"`
	Users    []UserResponse `json:"users"`
}

type GroupedUsersResponse struct {
	Groups []TierGroup `json:"groups"`
}

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,min=10,max=15"`
	Tier     int    `json:"tier" validate:"required,min=1,max=4"`
}
