package suizo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ComprasSanchez/pedidos-sucursales/config"
	"github.com/ComprasSanchez/pedidos-sucursales/internal/adapter/soap"
	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/httpclient"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/utils"
)

// Adapter implements the Suizo web service. Credentials travel in the
// request body; the endpoint takes no HTTP authentication.
type Adapter struct {
	cfg         config.SuizoConfig
	client      *httpclient.Client
	credentials domain.CredentialStore
}

// NewAdapter creates a new Suizo adapter instance
func NewAdapter(cfg config.SuizoConfig, client *httpclient.Client, credentials domain.CredentialStore) *Adapter {
	if cfg.StockType == "" {
		cfg.StockType = "2"
	}
	if client == nil {
		client = httpclient.New(cfg.EndpointConfig, nil)
	}
	return &Adapter{cfg: cfg, client: client, credentials: credentials}
}

// Code returns the supplier code
func (a *Adapter) Code() string {
	return domain.SupplierSuizo
}

// Timeout returns the per-operation timeout
func (a *Adapter) Timeout() time.Duration {
	return a.client.Timeout()
}

// FetchQuote runs the Stock operation for one barcode
func (a *Adapter) FetchQuote(ctx context.Context, req domain.QuoteRequest) (domain.Quote, error) {
	creds, err := a.credentials.GetCredentials(ctx, req.BranchID, domain.SupplierSuizo)
	if err != nil {
		return domain.Quote{}, domain.CredentialError(domain.SupplierSuizo, "quote", err)
	}

	body, err := a.call(ctx, opStock, stockEnvelope(creds, a.cfg.StockType, req.ProductCode))
	if err != nil {
		return domain.Quote{}, err
	}
	quote, err := ParseStockResponse(body, req.ProductCode)
	if err != nil {
		return domain.Quote{}, unexpected(opStock, err, body)
	}
	return quote, nil
}

// PlaceOrder sends every Suizo-selected line in one Pedido call
func (a *Adapter) PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	creds, err := a.credentials.GetCredentials(ctx, req.BranchID, domain.SupplierSuizo)
	if err != nil {
		return domain.OrderResult{}, domain.CredentialError(domain.SupplierSuizo, opOrder, err)
	}

	body, err := a.call(ctx, opOrder, orderEnvelope(creds, req))
	if err != nil {
		return domain.OrderResult{}, err
	}

	result, err := ParseOrderResponse(body)
	if err != nil {
		var supplierErr *domain.SupplierError
		if errors.As(err, &supplierErr) {
			return domain.OrderResult{}, err
		}
		return domain.OrderResult{}, unexpected(opOrder, err, body)
	}
	return result, nil
}

func (a *Adapter) call(ctx context.Context, op string, envelope []byte) ([]byte, error) {
	return soap.Do(ctx, a.client, soap.Call{
		Supplier: domain.SupplierSuizo,
		Op:       op,
		URL:      strings.TrimSpace(a.cfg.BaseURL),
		Action:   actionPrefix + op,
		Body:     envelope,
	})
}

func unexpected(op string, err error, body []byte) error {
	supplierErr := domain.NewSupplierError(domain.KindUnexpectedResponse, domain.SupplierSuizo, op, err)
	supplierErr.Detail = utils.Truncate(string(body), 512)
	return supplierErr
}
