package domain

import (
	"context"
	"time"
)

// User represents a branch operator allowed to build baskets and place orders
type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"usuario"`
	PasswordHash string    `json:"-" db:"contrasena"` // Hidden in JSON
	FullName     string    `json:"nombre" db:"nombre"`
	BranchCode   string    `json:"sucursal_codigo" db:"sucursal_codigo"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// UserRepository defines operations for user data access
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// HasBranch reports whether the user is bound to a branch and may run comparisons
func (u *User) HasBranch() bool {
	return u != nil && u.BranchCode != ""
}
