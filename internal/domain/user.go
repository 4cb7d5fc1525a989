package domain

import (
	"errors"
)

// Actor is the resolved identity attributed to a stock movement.
type Actor struct {
	Username string
	Role     Role
}

// Role represents a user's access level
type Role string

const (
	// RoleAdmin has full access, including reconciliation
	RoleAdmin Role = "admin"

	// RoleManager can manage products, purchases and manual movements
	RoleManager Role = "manager"

	// RoleStaff can sell, count stock and view reports
	RoleStaff Role = "staff"
)

// Valid roles
var validRoles = map[Role]bool{
	RoleAdmin:   true,
	RoleManager: true,
	RoleStaff:   true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// CanSell checks if the role can check out sales
func (r Role) CanSell() bool {
	return r.IsValid()
}

// CanCount checks if the role can record stock counts
func (r Role) CanCount() bool {
	return r.IsValid()
}

// CanManageStock checks if the role can edit products and record manual movements
func (r Role) CanManageStock() bool {
	return r == RoleAdmin || r == RoleManager
}

// CanReconcile checks if the role can correct product quantities
func (r Role) CanReconcile() bool {
	return r == RoleAdmin
}

// Satisfies checks if the role grants at least the access of min.
func (r Role) Satisfies(min Role) bool {
	switch min {
	case RoleAdmin:
		return r == RoleAdmin
	case RoleManager:
		return r.CanManageStock()
	case RoleStaff:
		return r.IsValid()
	}
	return false
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")
)
