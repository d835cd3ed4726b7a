package quantio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ComprasSanchez/pedidos-sucursales/config"
	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/httpclient"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/logger"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/utils"
)

const (
	requestTypeStock = "CONSULTAR_STOCK"
	requestTypeOrder = "GENERAR_PEDIDO"

	opQuote = "quote"
	opOrder = "create_order"

	reasonNoInternalIDs = "no quantio internal ids resolved"
)

// Adapter talks to the Quantio REST service. Quantio identifies products by
// its internal catalog id, so every call first resolves the barcode.
type Adapter struct {
	cfg         config.QuantioConfig
	client      *httpclient.Client
	credentials domain.CredentialStore
	catalog     domain.CatalogLookup
}

// NewAdapter creates a new Quantio adapter instance
func NewAdapter(cfg config.QuantioConfig, client *httpclient.Client, credentials domain.CredentialStore, catalog domain.CatalogLookup) *Adapter {
	if client == nil {
		client = httpclient.New(cfg.EndpointConfig, nil)
	}
	if cfg.Branch == "" {
		cfg.Branch = "1"
	}
	return &Adapter{
		cfg:         cfg,
		client:      client,
		credentials: credentials,
		catalog:     catalog,
	}
}

// Code returns the supplier code
func (a *Adapter) Code() string {
	return domain.SupplierQuantio
}

// Timeout bounds one quote or order call
func (a *Adapter) Timeout() time.Duration {
	return a.client.Timeout()
}

// FetchQuote checks stock for one barcode. Quantio does not report prices.
func (a *Adapter) FetchQuote(ctx context.Context, req domain.QuoteRequest) (domain.Quote, error) {
	creds, err := a.credentials.GetCredentials(ctx, req.BranchID, domain.SupplierQuantio)
	if err != nil {
		return domain.Quote{}, domain.CredentialError(domain.SupplierQuantio, opQuote, err)
	}

	internalID, err := a.catalog.ResolveInternalID(ctx, req.ProductCode)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			logger.FromContext(ctx).Debug("Quantio product not in catalog",
				logger.String("codigo_barras", req.ProductCode))
			return domain.UnavailableQuote(domain.SupplierQuantio), nil
		}
		return domain.Quote{}, domain.NewSupplierError(domain.KindUnknown, domain.SupplierQuantio, opQuote, err)
	}

	payload := envelope{Request: requestBody{
		Type: requestTypeStock,
		Content: stockContent{
			Branch:   a.cfg.Branch,
			Products: internalID,
		},
	}}

	body, err := a.doPost(ctx, opQuote, creds, payload)
	if err != nil {
		return domain.Quote{}, err
	}

	inStock, err := ParseStockResponse(body, internalID)
	if err != nil {
		return domain.Quote{}, unexpected(opQuote, err, body)
	}

	return domain.Quote{
		InStock:   inStock,
		Offers:    []domain.OfferTier{},
		OpaqueRef: internalID,
	}, nil
}

// PlaceOrder sends every line with a known internal id in one request
func (a *Adapter) PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	creds, err := a.credentials.GetCredentials(ctx, req.BranchID, domain.SupplierQuantio)
	if err != nil {
		return domain.OrderResult{}, domain.CredentialError(domain.SupplierQuantio, opOrder, err)
	}

	items := make([]orderItem, 0, len(req.Lines))
	var unresolved []string
	for _, line := range req.Lines {
		internalID := line.OpaqueRef
		if internalID == "" {
			internalID, err = a.catalog.ResolveInternalID(ctx, line.ProductCode)
			if err != nil {
				logger.FromContext(ctx).Warn("Quantio order line without internal id",
					logger.String("codigo_barras", line.ProductCode),
					logger.ErrorField(err))
				unresolved = append(unresolved, line.ProductCode)
				continue
			}
		}
		items = append(items, orderItem{ID: internalID, Quantity: line.Quantity})
	}

	if len(items) == 0 {
		skipped := domain.SkippedOrder(domain.SupplierQuantio, reasonNoInternalIDs)
		skipped.Unplaced = unresolved
		return skipped, nil
	}

	payload := envelope{Request: requestBody{
		Type: requestTypeOrder,
		Content: orderContent{
			Branch:    a.cfg.Branch,
			Reference: req.Options.Reference,
			Notes:     req.Options.Notes,
			Products:  items,
		},
	}}

	body, err := a.doPost(ctx, opOrder, creds, payload)
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
	result.Lines = len(items)
	result.Unplaced = unresolved

	return result, nil
}

func (a *Adapter) doPost(ctx context.Context, op string, creds *domain.Credentials, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, domain.NewSupplierError(domain.KindUnknown, domain.SupplierQuantio, op, fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(a.cfg.BaseURL, "/"), bytes.NewReader(raw))
	if err != nil {
		return nil, domain.NewSupplierError(domain.KindNetworkFailure, domain.SupplierQuantio, op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(creds.Username, creds.Password)

	logger.FromContext(ctx).Debug("Quantio request", logger.String("operation", op), logger.String("payload", string(raw)))

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, domain.NewSupplierError(domain.KindNetworkFailure, domain.SupplierQuantio, op, err)
	}
	body, err := httpclient.ReadBody(resp)
	if err != nil {
		return nil, domain.NewSupplierError(domain.KindNetworkFailure, domain.SupplierQuantio, op, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		supplierErr := domain.NewSupplierError(domain.KindNetworkFailure, domain.SupplierQuantio, op,
			fmt.Errorf("quantio returned status %d", resp.StatusCode))
		supplierErr.Detail = utils.Truncate(string(body), 512)
		return nil, supplierErr
	}

	return body, nil
}

func unexpected(op string, err error, body []byte) error {
	supplierErr := domain.NewSupplierError(domain.KindUnexpectedResponse, domain.SupplierQuantio, op, err)
	supplierErr.Detail = utils.Truncate(string(body), 512)
	return supplierErr
}
