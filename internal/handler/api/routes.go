package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
	authpkg "github.com/ComprasSanchez/pedidos-sucursales/pkg/auth"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/logger"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/xresponse"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all API routes
func SetupRoutes(
	router *gin.Engine,
	authHandler *AuthHandler,
	basketHandler *BasketHandler,
	comparisonHandler *ComparisonHandler,
	orderHandler *OrderHandler,
	authService domain.AuthService,
) {
	router.Use(recoveryMiddleware(), corsMiddleware())

	v1 := router.Group("/api/v1")
	{
		configureAuthRoutes(v1, authHandler)
		configureBasketRoutes(v1, basketHandler, authService)
		configureComparisonRoutes(v1, comparisonHandler, authService)
		configureOrderRoutes(v1, orderHandler, authService)
	}

	logger.Info("API routes configured successfully")
}

func configureAuthRoutes(group *gin.RouterGroup, authHandler *AuthHandler) {
	routes := group.Group("/auth")
	{
		routes.POST("/login", authHandler.Login)
	}
}

func configureBasketRoutes(group *gin.RouterGroup, basketHandler *BasketHandler, authService domain.AuthService) {
	roleGuard := NewRoleGuard()

	catalog := group.Group("/catalog")
	catalog.Use(authMiddleware(authService))
	{
		catalog.GET("/:barcode", basketHandler.FindProduct)
	}

	basket := group.Group("/basket")
	basket.Use(authMiddleware(authService), roleGuard.RequireBranch())
	{
		basket.GET("", basketHandler.GetBasket)
		basket.POST("", basketHandler.AddProduct)
		basket.DELETE("", basketHandler.ClearBasket)
		basket.DELETE("/:barcode", basketHandler.RemoveProduct)
	}
}

func configureComparisonRoutes(group *gin.RouterGroup, comparisonHandler *ComparisonHandler, authService domain.AuthService) {
	roleGuard := NewRoleGuard()

	routes := group.Group("/comparisons")
	routes.Use(authMiddleware(authService), roleGuard.RequireBranch())
	{
		routes.POST("", comparisonHandler.CreateComparison)
		routes.POST("/:id/dispatch", roleGuard.RequireRole(domain.RoleOperator), comparisonHandler.Dispatch)
	}
}

func configureOrderRoutes(group *gin.RouterGroup, orderHandler *OrderHandler, authService domain.AuthService) {
	roleGuard := NewRoleGuard()

	routes := group.Group("/orders")
	routes.Use(authMiddleware(authService), roleGuard.RequireBranch())
	{
		routes.GET("", orderHandler.ListOrders)
	}
}

// authMiddleware validates JWT token and sets the branch session context
func authMiddleware(authService domain.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authService == nil {
			xresponse.InternalServerError(c, "Auth service not available")
			c.Abort()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			xresponse.Unauthorized(c, "Authorization header with Bearer token required")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			xresponse.Unauthorized(c, "Token is empty")
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			switch {
			case errors.Is(err, authpkg.ErrExpiredToken):
				xresponse.Unauthorized(c, "Token expired")
			case errors.Is(err, authpkg.ErrInvalidToken):
				xresponse.Unauthorized(c, "Invalid token")
			default:
				xresponse.InternalServerError(c, "Failed to validate token")
			}
			c.Abort()
			return
		}

		userID := strings.TrimSpace(claims.UserID)
		if userID == "" {
			xresponse.Unauthorized(c, "Invalid token payload")
			c.Abort()
			return
		}

		role := strings.ToUpper(strings.TrimSpace(claims.Role))
		branchCode := strings.TrimSpace(claims.BranchCode)

		c.Set(ctxUserID, userID)
		c.Set(ctxUserRole, role)
		c.Set(ctxBranchCode, branchCode)

		logger.Debug("User authenticated via middleware",
			logger.String("user_id", userID),
			logger.String("role", role),
			logger.Branch(branchCode),
			logger.String("token_ttl", time.Until(claims.ExpiresAt).String()),
		)

		c.Next()
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Trace-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			logger.String("error", fmt.Sprintf("%v", recovered)),
			logger.String("path", c.Request.URL.Path),
			logger.String("method", c.Request.Method),
		)

		xresponse.InternalServerError(c, "Internal server error")
		c.Abort()
	})
}
