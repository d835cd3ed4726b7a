package domain

import (
	"time"
)

const (
	RoleOperator = "OPERATOR"
	RoleAdmin    = "ADMIN"
)

// AuthClaims represents validated JWT claims
type AuthClaims struct {
	UserID     string
	Username   string
	BranchCode string
	Role       string
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// AuthService defines authentication helpers for branch user sessions
type AuthService interface {
	GenerateAccessToken(user *User) (string, error)
	ValidateToken(token string) (*AuthClaims, error)
}
