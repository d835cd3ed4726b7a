package quantio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/adapter/jsonx"
	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/utils"
)

// ParseStockResponse reports whether internalID has positive stock in a
// CONSULTAR_STOCK answer. A product absent from the list is out of stock.
func ParseStockResponse(body []byte, internalID string) (bool, error) {
	var resp stockResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return false, fmt.Errorf("decode quantio stock response: %w", err)
	}
	if resp.Response == nil || resp.Response.Content == nil || resp.Response.Content.Products == nil {
		return false, errors.New("quantio response missing response.content.productos")
	}

	for _, product := range resp.Response.Content.Products {
		if string(product.ID) != internalID {
			continue
		}
		stock, ok := product.Stock.Int()
		return ok && stock > 0, nil
	}

	return false, nil
}

// ParseOrderResponse maps a GENERAR_PEDIDO answer. An explicit error or a
// non-OK status is a remote fault.
func ParseOrderResponse(body []byte) (domain.OrderResult, error) {
	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.OrderResult{}, fmt.Errorf("decode quantio order response: %w", err)
	}
	if resp.Response == nil {
		return domain.OrderResult{}, errors.New("quantio order response missing response")
	}

	r := resp.Response
	var content orderResponseContent
	if len(r.Content) > 0 && !bytes.Equal(r.Content, []byte("null")) {
		if err := json.Unmarshal(r.Content, &content); err != nil {
			return domain.OrderResult{}, fmt.Errorf("decode quantio order content: %w", err)
		}
	}

	message := firstNonEmpty(r.Message, content.Message)
	if r.Error != "" || !isOKStatus(string(r.Status)) {
		supplierErr := domain.NewSupplierError(domain.KindRemoteFault, domain.SupplierQuantio, opOrder,
			fmt.Errorf("quantio rejected order: %s", firstNonEmpty(string(r.Error), message, string(r.Status))))
		supplierErr.Detail = utils.Truncate(string(body), 512)
		return domain.OrderResult{}, supplierErr
	}

	return domain.OrderResult{
		Status:       domain.OrderStatusOK,
		OrderNumber:  firstNonEmpty(string(content.Order), string(content.Number)),
		Confirmation: firstNonEmpty(message, utils.Truncate(string(r.Content), 1024)),
	}, nil
}

func isOKStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "", "ok", "success", "exito", "éxito":
		return true
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// --- Quantio DTOs ---

type envelope struct {
	Request requestBody `json:"request"`
}

type requestBody struct {
	Type    string      `json:"type"`
	Content interface{} `json:"content"`
}

type stockContent struct {
	Branch   string `json:"sucursal"`
	Products string `json:"productos"`
}

type orderContent struct {
	Branch    string      `json:"sucursal"`
	Reference string      `json:"referencia,omitempty"`
	Notes     string      `json:"observaciones,omitempty"`
	Products  []orderItem `json:"productos"`
}

type orderItem struct {
	ID       string `json:"id"`
	Quantity int    `json:"cantidad"`
}

type stockResponse struct {
	Response *struct {
		Content *struct {
			Products []stockProduct `json:"productos"`
		} `json:"content"`
	} `json:"response"`
}

type stockProduct struct {
	ID    jsonx.String `json:"id"`
	Stock jsonx.String `json:"stock"`
}

type orderResponse struct {
	Response *struct {
		Status  jsonx.String    `json:"status"`
		Message string          `json:"mensaje"`
		Error   jsonx.String    `json:"error"`
		Content json.RawMessage `json:"content"`
	} `json:"response"`
}

type orderResponseContent struct {
	Order   jsonx.String `json:"pedido"`
	Number  jsonx.String `json:"nro_pedido"`
	Message string       `json:"mensaje"`
}
