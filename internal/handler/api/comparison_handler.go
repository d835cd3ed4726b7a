package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/logger"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/observability"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/xresponse"
	"github.com/gin-gonic/gin"
)

// ComparisonHandler compares the caller's basket across suppliers and
// dispatches the confirmed table
type ComparisonHandler struct {
	basketUC     domain.BasketUsecase
	comparisonUC domain.ComparisonUsecase
	dispatchUC   domain.DispatchUsecase
	store        domain.ComparisonStore
	roleGuard    *RoleGuard
}

func NewComparisonHandler(
	basketUC domain.BasketUsecase,
	comparisonUC domain.ComparisonUsecase,
	dispatchUC domain.DispatchUsecase,
	store domain.ComparisonStore,
) *ComparisonHandler {
	return &ComparisonHandler{
		basketUC:     basketUC,
		comparisonUC: comparisonUC,
		dispatchUC:   dispatchUC,
		store:        store,
		roleGuard:    NewRoleGuard(),
	}
}

type dispatchRequest struct {
	// Selections maps a barcode to the supplier chosen by the operator. An
	// empty supplier drops the line from the order.
	Selections map[string]string `json:"selections"`
}

// CreateComparison quotes every basket line with every supplier
func (h *ComparisonHandler) CreateComparison(c *gin.Context) {
	ctx := c.Request.Context()
	userID, branchCode, _, _ := h.roleGuard.GetCurrentUser(c)

	lines, err := h.basketUC.Lines(ctx, userID)
	if err != nil {
		logger.Error("Failed to read basket", logger.String("user_id", userID), logger.ErrorField(err))
		xresponse.ServiceUnavailable(c, "Canasta no disponible")
		return
	}
	if len(lines) == 0 {
		xresponse.BadRequestWithCode(c, xresponse.ErrCodeEmptyBasket, "La canasta esta vacia")
		return
	}

	table, err := h.comparisonUC.Compare(ctx, lines, branchCode)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCredentialStore):
			logger.Error("Comparison aborted", logger.Branch(branchCode), logger.ErrorField(err))
			xresponse.ServiceUnavailable(c, "Credenciales de proveedores no disponibles")
		case errors.Is(err, domain.ErrEmptyBasket):
			xresponse.BadRequestWithCode(c, xresponse.ErrCodeEmptyBasket, "La canasta esta vacia")
		case errors.Is(err, domain.ErrInvalidLine):
			xresponse.InvalidProduct(c, err.Error())
		default:
			logger.Error("Comparison failed", logger.Branch(branchCode), logger.ErrorField(err))
			xresponse.InternalServerError(c, "No se pudo comparar la canasta")
		}
		return
	}

	if err := h.store.Save(ctx, table); err != nil {
		observability.RecordSystemError(c, "comparison_store", "comparison_handler", err)
		xresponse.ServiceUnavailable(c, "No se pudo guardar la comparacion")
		return
	}

	xresponse.Created(c, "Comparacion generada", table)
}

// Dispatch applies the operator overrides and places the supplier orders
func (h *ComparisonHandler) Dispatch(c *gin.Context) {
	ctx := c.Request.Context()
	userID, branchCode, _, _ := h.roleGuard.GetCurrentUser(c)

	var req dispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		xresponse.BadRequest(c, "Invalid payload: "+err.Error())
		return
	}

	table, err := h.store.Get(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrTableNotFound) {
			xresponse.Error(c, http.StatusNotFound, xresponse.ErrCodeTableNotFound, "Comparacion no encontrada o vencida")
			return
		}
		observability.RecordSystemError(c, "comparison_store", "comparison_handler", err)
		xresponse.ServiceUnavailable(c, "Comparaciones no disponibles")
		return
	}

	for barcode, supplier := range req.Selections {
		if supplier != "" && !domain.IsValidSupplierCode(supplier) {
			xresponse.BadRequest(c, "Proveedor desconocido: "+supplier)
			return
		}
		if !table.Override(barcode, supplier) {
			xresponse.InvalidProduct(c, "El producto "+barcode+" no forma parte de la comparacion")
			return
		}
	}

	report, err := h.dispatchUC.ConfirmAndDispatch(ctx, table, branchCode)
	switch {
	case err == nil:
		if clearErr := h.basketUC.Clear(ctx, userID); clearErr != nil {
			logger.Warn("Failed to clear basket after dispatch",
				logger.String("user_id", userID),
				logger.ErrorField(clearErr),
			)
		}
		xresponse.Success(c, "Pedidos enviados", report)
	case errors.Is(err, domain.ErrTableNotFound):
		xresponse.Error(c, http.StatusNotFound, xresponse.ErrCodeTableNotFound, "Comparacion no encontrada o vencida")
	case errors.Is(err, domain.ErrAlreadyDispatched):
		xresponse.Error(c, http.StatusConflict, xresponse.ErrCodeAlreadyDispatched, "La comparacion ya fue enviada")
	case errors.Is(err, domain.ErrNoEligibleSupplier):
		xresponse.ErrorWithDetails(c, http.StatusBadRequest, xresponse.ErrCodeNoEligibleSupplier, "Ningun producto tiene proveedor seleccionado", report)
	case errors.Is(err, domain.ErrNothingPlaced):
		xresponse.ErrorWithDetails(c, http.StatusUnprocessableEntity, xresponse.ErrCodeNothingPlaced, "Ningun pedido fue enviado; la comparacion puede confirmarse nuevamente", report)
	case errors.Is(err, domain.ErrPartialDispatch):
		xresponse.MultiStatus(c, "Algunos pedidos fallaron", report)
	case report != nil:
		xresponse.ErrorWithDetails(c, http.StatusBadGateway, xresponse.ErrCodeDispatchFailed, "Ningun pedido pudo enviarse", report)
	default:
		logger.Error("Dispatch failed",
			logger.String("table_id", table.ID),
			logger.Branch(branchCode),
			logger.ErrorField(err),
		)
		xresponse.ServiceUnavailable(c, "No se pudo confirmar la comparacion")
	}
}
