package monroe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ComprasSanchez/pedidos-sucursales/config"
	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/httpclient"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/logger"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/metrics"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/utils"
)

const (
	loginEndpoint = "/Auth/login"
	stockEndpoint = "/ade/1.0.0/consultarStock"
	orderEndpoint = "/ade/1.0.0/crearPedido"

	opLogin = "login"
	opQuote = "quote"
	opOrder = "create_order"
)

// Adapter implements the Monroe Americana REST integration. Every call needs
// a bearer token obtained from the login endpoint; tokens are cached per
// customer account in the injected TokenCache.
type Adapter struct {
	cfg         config.MonroeConfig
	client      *httpclient.Client
	credentials domain.CredentialStore
	tokens      domain.TokenCache
	now         func() time.Time
}

// NewAdapter creates a new Monroe adapter instance
func NewAdapter(cfg config.MonroeConfig, client *httpclient.Client, credentials domain.CredentialStore, tokens domain.TokenCache) *Adapter {
	if client == nil {
		client = httpclient.New(cfg.EndpointConfig, nil)
	}
	if tokens == nil {
		tokens = NewMemoryTokenCache()
	}
	if cfg.TokenDuration <= 0 {
		cfg.TokenDuration = 300 * time.Second
	}
	return &Adapter{
		cfg:         cfg,
		client:      client,
		credentials: credentials,
		tokens:      tokens,
		now:         time.Now,
	}
}

// Code returns the supplier code
func (a *Adapter) Code() string {
	return domain.SupplierMonroe
}

// Timeout bounds one quote or order call, login included
func (a *Adapter) Timeout() time.Duration {
	return a.client.Timeout()
}

// FetchQuote checks stock, list price and offers for one barcode
func (a *Adapter) FetchQuote(ctx context.Context, req domain.QuoteRequest) (domain.Quote, error) {
	creds, err := a.credentials.GetCredentials(ctx, req.BranchID, domain.SupplierMonroe)
	if err != nil {
		return domain.Quote{}, domain.CredentialError(domain.SupplierMonroe, opQuote, err)
	}

	token, err := a.token(ctx, creds, req.BranchID)
	if err != nil {
		return domain.Quote{}, err
	}

	payload := stockRequest{
		ClientReference: utils.GenerateOrderReference(req.BranchID),
		Products: []productEntry{{
			Order: 1,
			Units: strconv.Itoa(req.Quantity),
			Codes: productCodes{Barcode: req.ProductCode},
		}},
	}

	body, err := a.doPost(ctx, opQuote, stockEndpoint, token, payload)
	if err != nil {
		return domain.Quote{}, err
	}

	quote, err := ParseStockResponse(body)
	if err != nil {
		return domain.Quote{}, unexpected(opQuote, err, body)
	}
	return quote, nil
}

// PlaceOrder creates one order with every Monroe-selected line. A rejected
// order leaves the cached token in place.
func (a *Adapter) PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	creds, err := a.credentials.GetCredentials(ctx, req.BranchID, domain.SupplierMonroe)
	if err != nil {
		return domain.OrderResult{}, domain.CredentialError(domain.SupplierMonroe, opOrder, err)
	}

	token, err := a.token(ctx, creds, req.BranchID)
	if err != nil {
		return domain.OrderResult{}, err
	}

	reference := req.Options.Reference
	if reference == "" {
		reference = utils.GenerateOrderReference(req.BranchID)
	}

	payload := orderRequest{
		ClientReference: reference,
		Notes:           req.Options.Notes,
		Products:        make([]productEntry, 0, len(req.Lines)),
	}
	for i, line := range req.Lines {
		payload.Products = append(payload.Products, productEntry{
			Order: i + 1,
			Units: strconv.Itoa(line.Quantity),
			Codes: productCodes{Barcode: line.ProductCode, Name: line.Description},
		})
	}

	body, err := a.doPost(ctx, opOrder, orderEndpoint, token, payload)
	if err != nil {
		return domain.OrderResult{}, err
	}

	return ParseOrderResponse(body)
}

func accountKey(creds *domain.Credentials, branchID string) string {
	if key := strings.TrimSpace(creds.AccountCode); key != "" {
		return key
	}
	return "branch:" + branchID
}

// token returns a cached token or logs in. No lock is held across the login
// round trip; overlapping logins for one account both write and the last
// write wins.
func (a *Adapter) token(ctx context.Context, creds *domain.Credentials, branchID string) (string, error) {
	key := accountKey(creds, branchID)
	log := logger.FromContext(ctx).With(logger.Supplier(domain.SupplierMonroe), logger.String("account", key))

	entry, err := a.tokens.Get(ctx, key)
	if err != nil {
		log.Warn("Monroe token cache read failed", logger.ErrorField(err))
	}
	if err == nil && !entry.IsStale(a.now()) {
		metrics.RecordTokenCache(domain.SupplierMonroe, true)
		return entry.Token, nil
	}
	metrics.RecordTokenCache(domain.SupplierMonroe, false)

	token, err := a.login(ctx, creds)
	if err != nil {
		return "", err
	}

	fresh := domain.TokenCacheEntry{
		AccountKey: key,
		Token:      token,
		ExpiresAt:  a.now().Add(a.cfg.TokenTTL()),
	}
	if err := a.tokens.Set(ctx, fresh); err != nil {
		log.Warn("Monroe token cache write failed", logger.ErrorField(err))
	}
	log.Debug("Monroe token refreshed", logger.Any("expires_at", fresh.ExpiresAt))

	return token, nil
}

func (a *Adapter) login(ctx context.Context, creds *domain.Credentials) (string, error) {
	params := url.Values{}
	params.Set("software_key", creds.SoftwareKey)
	params.Set("token_duration", strconv.Itoa(int(a.cfg.TokenDuration/time.Second)))
	params.Set("ecommerce_customer_key", creds.CustomerKey)
	params.Set("ecommerce_customer_reference", creds.AccountCode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint(loginEndpoint)+"?"+params.Encode(), nil)
	if err != nil {
		return "", domain.NewSupplierError(domain.KindNetworkFailure, domain.SupplierMonroe, opLogin, err)
	}

	body, err := a.send(req, opLogin)
	if err != nil {
		return "", err
	}

	token, err := ParseLoginResponse(body)
	if err != nil {
		return "", unexpected(opLogin, err, body)
	}
	return token, nil
}

func (a *Adapter) doPost(ctx context.Context, op, path, token string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, domain.NewSupplierError(domain.KindUnknown, domain.SupplierMonroe, op, fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint(path), bytes.NewReader(raw))
	if err != nil {
		return nil, domain.NewSupplierError(domain.KindNetworkFailure, domain.SupplierMonroe, op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	logger.FromContext(ctx).Debug("Monroe request", logger.String("operation", op), logger.String("payload", string(raw)))

	return a.send(req, op)
}

func (a *Adapter) send(req *http.Request, op string) ([]byte, error) {
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, domain.NewSupplierError(domain.KindNetworkFailure, domain.SupplierMonroe, op, err)
	}
	body, err := httpclient.ReadBody(resp)
	if err != nil {
		return nil, domain.NewSupplierError(domain.KindNetworkFailure, domain.SupplierMonroe, op, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		supplierErr := domain.NewSupplierError(domain.KindNetworkFailure, domain.SupplierMonroe, op,
			fmt.Errorf("monroe returned status %d", resp.StatusCode))
		supplierErr.Detail = utils.Truncate(string(body), 512)
		return nil, supplierErr
	}

	return body, nil
}

func (a *Adapter) endpoint(path string) string {
	return strings.TrimRight(a.cfg.BaseURL, "/") + path
}

func unexpected(op string, err error, body []byte) error {
	supplierErr := domain.NewSupplierError(domain.KindUnexpectedResponse, domain.SupplierMonroe, op, err)
	supplierErr.Detail = utils.Truncate(string(body), 512)
	return supplierErr
}
