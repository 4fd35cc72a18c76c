package domain

import "errors"

// Principal is the authenticated caller of a mutating operation.
type Principal struct {
	ID   string
	Role Role
}

// Role represents a caller's access level
type Role string

const (
	// RoleController can post journal entries and run billing
	RoleController Role = "controller"

	// RoleClerk can approve and schedule payables and projects items
	RoleClerk Role = "clerk"

	// RoleViewer can only read registers, schedules and the ledger
	RoleViewer Role = "viewer"
)

var roleRank = map[Role]int{
	RoleViewer:     1,
	RoleClerk:      2,
	RoleController: 3,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

// Allows reports whether r is at least min.
func (r Role) Allows(min Role) bool {
	return r.IsValid() && roleRank[r] >= roleRank[min]
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")
)
