package models

import "time"

// UserRole is an admin role. Roles are ordered: SUPERADMIN > ADMIN > EDITOR.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleEditor     UserRole = "EDITOR"
)

var roleRank = map[UserRole]int{
	RoleEditor:     1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r grants at least the privileges of min.
func (r UserRole) AtLeast(min UserRole) bool {
	return roleRank[r] >= roleRank[min] && roleRank[r] > 0
}

// User is an admin dashboard account.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
