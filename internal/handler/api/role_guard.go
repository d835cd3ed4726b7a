package api

import (
	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/logger"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/xresponse"
	"github.com/gin-gonic/gin"
)

// Context keys set by authMiddleware
const (
	ctxUserID     = "user_id"
	ctxBranchCode = "branch_code"
	ctxUserRole   = "user_role"
)

// RoleGuard provides helper functions for role-based access control in handlers
type RoleGuard struct{}

// NewRoleGuard creates a new role guard instance
func NewRoleGuard() *RoleGuard {
	return &RoleGuard{}
}

// GetCurrentUser extracts the session of the authenticated branch user
func (rg *RoleGuard) GetCurrentUser(c *gin.Context) (userID, branchCode, role string, exists bool) {
	userID = c.GetString(ctxUserID)
	if userID == "" {
		return "", "", "", false
	}
	return userID, c.GetString(ctxBranchCode), c.GetString(ctxUserRole), true
}

// RequireBranch rejects sessions that are not bound to a branch. Comparisons
// and orders are always placed on behalf of one branch.
func (rg *RoleGuard) RequireBranch() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, branchCode, _, exists := rg.GetCurrentUser(c)
		if !exists {
			logger.Warn("Access denied - user not authenticated",
				logger.String("ip", c.ClientIP()),
			)
			xresponse.Unauthorized(c, "Authentication required")
			c.Abort()
			return
		}

		if branchCode == "" {
			logger.Warn("Access denied - user without branch",
				logger.String("user_id", userID),
				logger.String("ip", c.ClientIP()),
			)
			xresponse.Forbidden(c, "User is not assigned to a branch")
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireRole checks if user has required role
func (rg *RoleGuard) RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, _, role, exists := rg.GetCurrentUser(c)
		if !exists {
			xresponse.Unauthorized(c, "Authentication required")
			c.Abort()
			return
		}

		// Admins pass every role check.
		if role != requiredRole && role != domain.RoleAdmin {
			logger.Warn("Access denied - insufficient role",
				logger.String("user_role", role),
				logger.String("required_role", requiredRole),
				logger.String("ip", c.ClientIP()),
			)
			xresponse.Forbidden(c, "Insufficient permissions")
			c.Abort()
			return
		}

		c.Next()
	}
}
