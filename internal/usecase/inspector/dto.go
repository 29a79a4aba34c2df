package inspector

import (
	"time"

	domainInspector "yardcheck/internal/domain/inspector"
)

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest creates an inspector account, admin only
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=inspector admin"`
}

// ChangePasswordRequest updates the caller's own password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

// UpdateRequest edits an inspector account, admin only
type UpdateRequest struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Role     *string `json:"role" validate:"omitempty,oneof=inspector admin"`
	IsActive *bool   `json:"isActive"`
}

// InspectorResponse is the public account shape
type InspectorResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Role               string    `json:"role"`
	IsActive           bool      `json:"isActive"`
	MustChangePassword bool      `json:"mustChangePassword"`
	CreatedAt          time.Time `json:"createdAt"`
}

// AuthResponse is returned on successful login
type AuthResponse struct {
	Inspector *InspectorResponse `json:"inspector"`
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
}

// ToInspectorResponse converts a domain inspector to its API shape
func ToInspectorResponse(i *domainInspector.Inspector) *InspectorResponse {
	return &InspectorResponse{
		ID:                 i.ID.String(),
		Name:               i.Name,
		Email:              i.Email,
		Role:               string(i.Role),
		IsActive:           i.IsActive,
		MustChangePassword: i.MustChangePassword,
		CreatedAt:          i.CreatedAt,
	}
}
