package api

import (
	"strconv"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/logger"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/xresponse"
	"github.com/gin-gonic/gin"
)

// OrderHandler exposes the dispatched order history of the caller's branch
type OrderHandler struct {
	dispatchUC domain.DispatchUsecase
	roleGuard  *RoleGuard
}

func NewOrderHandler(dispatchUC domain.DispatchUsecase) *OrderHandler {
	return &OrderHandler{dispatchUC: dispatchUC, roleGuard: NewRoleGuard()}
}

// ListOrders returns the supplier orders of the branch, newest first
func (h *OrderHandler) ListOrders(c *gin.Context) {
	// Get pagination parameters
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}

	_, branchCode, _, _ := h.roleGuard.GetCurrentUser(c)

	records, err := h.dispatchUC.History(c.Request.Context(), branchCode, limit, (page-1)*limit)
	if err != nil {
		logger.Error("Failed to get order history",
			logger.Branch(branchCode),
			logger.ErrorField(err),
		)
		xresponse.InternalServerError(c, "No se pudo obtener el historial de pedidos")
		return
	}

	xresponse.Success(c, "Pedidos obtenidos", gin.H{
		"page":   page,
		"limit":  limit,
		"orders": records,
	})
}
