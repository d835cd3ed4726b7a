package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
	authpkg "github.com/ComprasSanchez/pedidos-sucursales/pkg/auth"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/logger"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/xresponse"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	userRepo    domain.UserRepository
	authService domain.AuthService
}

func NewAuthHandler(userRepo domain.UserRepository, authService domain.AuthService) *AuthHandler {
	return &AuthHandler{userRepo: userRepo, authService: authService}
}

type loginRequest struct {
	Username string `json:"usuario" binding:"required"`
	Password string `json:"contrasena" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xresponse.BadRequest(c, "Invalid payload: "+err.Error())
		return
	}

	username := strings.TrimSpace(req.Username)
	user, err := h.userRepo.GetByUsername(c.Request.Context(), username)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			logger.Error("Failed to load user", logger.String("usuario", username), logger.ErrorField(err))
			xresponse.ServiceUnavailable(c, "User store unavailable")
			return
		}
		xresponse.InvalidCredentials(c, "Usuario o contraseña incorrectos")
		return
	}

	if !user.IsActive {
		xresponse.InvalidCredentials(c, "Usuario o contraseña incorrectos")
		return
	}

	if err := authpkg.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		logger.Debug("Login rejected", logger.String("usuario", username))
		xresponse.InvalidCredentials(c, "Usuario o contraseña incorrectos")
		return
	}

	if !user.HasBranch() {
		xresponse.Forbidden(c, "El usuario no tiene sucursal asignada")
		return
	}

	token, err := h.authService.GenerateAccessToken(user)
	if err != nil {
		logger.Error("Failed to generate token", logger.ErrorField(err))
		xresponse.InternalServerError(c, "No se pudo generar el token")
		return
	}

	logger.Info("User logged in",
		logger.String("user_id", user.ID),
		logger.Branch(user.BranchCode),
	)

	c.JSON(http.StatusOK, gin.H{
		"message":  "Login correcto",
		"token":    token,
		"sucursal": user.BranchCode,
		"nombre":   user.FullName,
	})
}
