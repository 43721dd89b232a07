package domain

import (
	"strings"
	"time"
)

// UserStatus represents lifecycle states for a customer account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the account record for customers who book appointments.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	PasswordHash string
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Customer is the normalized read model for booking customers. Name fields
// are resolved once at the data-access boundary; call sites never merge
// profile variants themselves.
type Customer struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// FullName joins the name parts, skipping empty ones.
func (c Customer) FullName() string {
	parts := make([]string, 0, 2)
	if c.FirstName != "" {
		parts = append(parts, c.FirstName)
	}
	if c.LastName != "" {
		parts = append(parts, c.LastName)
	}
	return strings.Join(parts, " ")
}
