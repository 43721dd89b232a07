package domain

import "time"

// StaffRole enumerates internal operator roles.
type StaffRole string

const (
	// StaffRoleAgent is the dispatcher: assigns appointments and cancels them.
	StaffRoleAgent StaffRole = "AGENT"
	// StaffRoleSales fulfils assigned appointments and must accept before
	// work begins.
	StaffRoleSales StaffRole = "SALES"
	StaffRoleAdmin StaffRole = "ADMIN"
)

// StaffMember models a dispatcher, sales staff, or administrator.
type StaffMember struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         StaffRole
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsDispatcher reports whether the member may run dispatch operations.
func (s *StaffMember) IsDispatcher() bool {
	return s != nil && (s.Role == StaffRoleAgent || s.Role == StaffRoleAdmin)
}
