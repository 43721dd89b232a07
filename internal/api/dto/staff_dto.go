package dto

import (
	"time"

	"github.com/spec-kit/booking-service/internal/domain"
)

// StaffLoginRequest payload for staff login.
type StaffLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CreateStaffRequest payload for admin staff creation.
type CreateStaffRequest struct {
	Name     string           `json:"name" validate:"required"`
	Email    string           `json:"email" validate:"required,email"`
	Phone    string           `json:"phone"`
	Password string           `json:"password" validate:"required,min=8"`
	Role     domain.StaffRole `json:"role" validate:"required,oneof=AGENT SALES ADMIN"`
}

// UpdateStaffRequest carries optional field updates.
type UpdateStaffRequest struct {
	Name   *string           `json:"name"`
	Phone  *string           `json:"phone"`
	Role   *domain.StaffRole `json:"role" validate:"omitempty,oneof=AGENT SALES ADMIN"`
	Active *bool             `json:"active"`
}

// StaffResponse is the staff account view.
type StaffResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	Phone     string           `json:"phone,omitempty"`
	Role      domain.StaffRole `json:"role"`
	Active    bool             `json:"active"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
