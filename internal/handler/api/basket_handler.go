package api

import (
	"errors"
	"strings"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/logger"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/xresponse"
	"github.com/gin-gonic/gin"
)

// BasketHandler serves the catalog lookup and the per-user basket
type BasketHandler struct {
	basketUC  domain.BasketUsecase
	roleGuard *RoleGuard
}

func NewBasketHandler(basketUC domain.BasketUsecase) *BasketHandler {
	return &BasketHandler{basketUC: basketUC, roleGuard: NewRoleGuard()}
}

type addProductRequest struct {
	Barcode  string `json:"codigo_barras" binding:"required"`
	Quantity int    `json:"cantidad" binding:"required"`
}

// FindProduct resolves a barcode against the product catalog
func (h *BasketHandler) FindProduct(c *gin.Context) {
	product, err := h.basketUC.FindProduct(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	xresponse.Success(c, "Producto encontrado", product)
}

// GetBasket returns the lines of the caller's basket
func (h *BasketHandler) GetBasket(c *gin.Context) {
	userID, _, _, _ := h.roleGuard.GetCurrentUser(c)

	lines, err := h.basketUC.Lines(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	xresponse.Success(c, "Canasta obtenida", gin.H{"lines": nonNilLines(lines)})
}

// AddProduct adds a product to the basket, adding to the quantity of an
// existing line
func (h *BasketHandler) AddProduct(c *gin.Context) {
	var req addProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xresponse.ValidationError(c, err.Error())
		return
	}

	userID, branchCode, _, _ := h.roleGuard.GetCurrentUser(c)
	lines, err := h.basketUC.AddProduct(c.Request.Context(), userID, req.Barcode, req.Quantity)
	if err != nil {
		h.handleError(c, err)
		return
	}

	logger.Debug("Product added to basket",
		logger.String("user_id", userID),
		logger.Branch(branchCode),
		logger.String("codigo_barras", strings.TrimSpace(req.Barcode)),
		logger.Int("cantidad", req.Quantity),
	)

	xresponse.Created(c, "Producto agregado", gin.H{"lines": lines})
}

// RemoveProduct drops one line from the basket
func (h *BasketHandler) RemoveProduct(c *gin.Context) {
	userID, _, _, _ := h.roleGuard.GetCurrentUser(c)

	if err := h.basketUC.RemoveProduct(c.Request.Context(), userID, c.Param("barcode")); err != nil {
		h.handleError(c, err)
		return
	}

	xresponse.Success(c, "Producto eliminado", nil)
}

// ClearBasket empties the basket
func (h *BasketHandler) ClearBasket(c *gin.Context) {
	userID, _, _, _ := h.roleGuard.GetCurrentUser(c)

	if err := h.basketUC.Clear(c.Request.Context(), userID); err != nil {
		h.handleError(c, err)
		return
	}

	xresponse.Success(c, "Canasta vaciada", nil)
}

func (h *BasketHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidLine):
		xresponse.InvalidProduct(c, err.Error())
	case errors.Is(err, domain.ErrProductNotFound):
		xresponse.NotFound(c, "Producto no encontrado")
	case errors.Is(err, domain.ErrBasketUnavailable):
		logger.Error("Basket store unavailable", logger.ErrorField(err))
		xresponse.ServiceUnavailable(c, "Canasta no disponible")
	default:
		logger.Error("Basket operation failed", logger.ErrorField(err))
		xresponse.InternalServerError(c, "Error interno")
	}
}

func nonNilLines(lines []domain.BasketLine) []domain.BasketLine {
	if lines == nil {
		return []domain.BasketLine{}
	}
	return lines
}
