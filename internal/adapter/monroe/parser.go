package monroe

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/adapter/jsonx"
	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/utils"
)

// stockActive is the Stock.estado value meaning the product can be ordered
const stockActive = 1

// ParseLoginResponse extracts the bearer token, sent as token or access_token
func ParseLoginResponse(body []byte) (string, error) {
	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode monroe login response: %w", err)
	}
	token := strings.TrimSpace(resp.Token)
	if token == "" {
		token = strings.TrimSpace(resp.AccessToken)
	}
	if token == "" {
		return "", errors.New("monroe login returned an empty token")
	}
	return token, nil
}

// ParseStockResponse maps a consultarStock answer for a single product. Only
// an active stock state counts as available; the offers are returned
// unfiltered.
func ParseStockResponse(body []byte) (domain.Quote, error) {
	var resp stockResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Quote{}, fmt.Errorf("decode monroe stock response: %w", err)
	}
	if len(resp.Products) == 0 {
		return domain.Quote{}, errors.New("monroe response has no arrayProductos")
	}

	product := resp.Products[0]
	state, ok := product.Stock.State.Int()
	if !ok || state != stockActive {
		return domain.UnavailableQuote(domain.SupplierMonroe), nil
	}

	quote := domain.Quote{
		InStock:   true,
		ListPrice: product.Price.List.Decimal(),
		Offers:    make([]domain.OfferTier, 0, len(product.Offers)),
	}

	for _, offer := range product.Offers {
		percent, ok := utils.ParseDecimal(offer.Discount.Percent.String())
		if !ok {
			continue
		}
		minUnits, _ := offer.Condition.MinUnits.Int()
		maxUnits, _ := offer.Condition.MaxUnits.Int()
		quote.Offers = append(quote.Offers, tier(percent, minUnits, maxUnits))
	}

	return quote, nil
}

func tier(percent decimal.Decimal, minUnits, maxUnits int) domain.OfferTier {
	t := domain.OfferTier{
		Label:           domain.OfferLabel(percent, minUnits),
		MinUnits:        minUnits,
		MaxUnits:        maxUnits,
		DiscountPercent: percent,
	}
	if t.MinUnits < 1 {
		t.MinUnits = 1
	}
	if t.MaxUnits < 0 {
		t.MaxUnits = 0
	}
	return t
}

// ParseOrderResponse maps a crearPedido answer. Reported errors, or an answer
// without an order number, are remote faults.
func ParseOrderResponse(body []byte) (domain.OrderResult, error) {
	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.OrderResult{}, unexpected(opOrder, fmt.Errorf("decode monroe order response: %w", err), body)
	}

	number := firstNonEmpty(resp.Number.String(), resp.ID.String())
	reason := firstNonEmpty(resp.Error.String(), joinErrors(resp.Errors))
	if reason == "" && number == "" {
		reason = firstNonEmpty(resp.Message.String(), "order number missing")
	}
	if reason != "" {
		supplierErr := domain.NewSupplierError(domain.KindRemoteFault, domain.SupplierMonroe, opOrder,
			fmt.Errorf("monroe rejected order: %s", reason))
		supplierErr.Detail = utils.Truncate(string(body), 512)
		return domain.OrderResult{}, supplierErr
	}

	return domain.OrderResult{
		Status:       domain.OrderStatusOK,
		OrderNumber:  number,
		Confirmation: firstNonEmpty(resp.Message.String(), resp.State.String()),
	}, nil
}

func joinErrors(raw []json.RawMessage) string {
	parts := make([]string, 0, len(raw))
	for _, item := range raw {
		var text string
		if err := json.Unmarshal(item, &text); err == nil {
			parts = append(parts, text)
			continue
		}
		var obj struct {
			Message string `json:"mensaje"`
		}
		if err := json.Unmarshal(item, &obj); err == nil && obj.Message != "" {
			parts = append(parts, obj.Message)
			continue
		}
		parts = append(parts, string(item))
	}
	return strings.Join(parts, "; ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// --- Monroe DTOs ---

type loginResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
}

type productCodes struct {
	Barcode string `json:"CodigoBarras"`
	Name    string `json:"Nombre"`
}

type productEntry struct {
	Order int          `json:"orden"`
	Units string       `json:"unidades"`
	Codes productCodes `json:"arrayCodigos"`
}

type stockRequest struct {
	ClientReference string         `json:"referencia_cliente"`
	Products        []productEntry `json:"arrayProductos"`
}

type orderRequest struct {
	ClientReference string         `json:"referencia_cliente"`
	Notes           string         `json:"observaciones,omitempty"`
	Products        []productEntry `json:"arrayProductos"`
}

type stockResponse struct {
	Products []stockProduct `json:"arrayProductos"`
}

type stockProduct struct {
	Stock struct {
		State jsonx.String `json:"estado"`
	} `json:"Stock"`
	Price struct {
		List jsonx.String `json:"lista"`
	} `json:"Precio"`
	Offers []stockOffer `json:"arrayOfertas"`
}

type stockOffer struct {
	Discount struct {
		Percent jsonx.String `json:"porcentaje"`
	} `json:"Descuento"`
	Condition struct {
		MinUnits jsonx.String `json:"minimo_unids"`
		MaxUnits jsonx.String `json:"maximo_unids"`
	} `json:"Condicion_Compra"`
}

type orderResponse struct {
	State   jsonx.String      `json:"estado"`
	Number  jsonx.String      `json:"numero_pedido"`
	ID      jsonx.String      `json:"id_pedido"`
	Message jsonx.String      `json:"mensaje"`
	Error   jsonx.String      `json:"error"`
	Errors  []json.RawMessage `json:"errores"`
}
