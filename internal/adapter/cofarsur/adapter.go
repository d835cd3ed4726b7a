package cofarsur

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

// Adapter implements the Cofarsur SOAP integration. A quote takes two calls:
// existence first, then price only when the product is available.
type Adapter struct {
	cfg         config.CofarsurConfig
	client      *httpclient.Client
	credentials domain.CredentialStore
}

// NewAdapter creates a new Cofarsur adapter instance
func NewAdapter(cfg config.CofarsurConfig, client *httpclient.Client, credentials domain.CredentialStore) *Adapter {
	if client == nil {
		client = httpclient.New(cfg.EndpointConfig, nil)
	}
	return &Adapter{cfg: cfg, client: client, credentials: credentials}
}

// Code returns the supplier code
func (a *Adapter) Code() string {
	return domain.SupplierCofarsur
}

// Timeout bounds one quote (both calls) or one order
func (a *Adapter) Timeout() time.Duration {
	return a.client.Timeout()
}

// FetchQuote checks existence and, when positive, the price of one barcode
func (a *Adapter) FetchQuote(ctx context.Context, req domain.QuoteRequest) (domain.Quote, error) {
	creds, err := a.credentials.GetCredentials(ctx, req.BranchID, domain.SupplierCofarsur)
	if err != nil {
		return domain.Quote{}, domain.CredentialError(domain.SupplierCofarsur, "quote", err)
	}

	body, err := a.call(ctx, opExistence, creds, queryEnvelope(opExistence, creds, req.ProductCode))
	if err != nil {
		return domain.Quote{}, err
	}
	available, err := ParseExistence(body)
	if err != nil {
		return domain.Quote{}, unexpected(opExistence, err, body)
	}
	if !available {
		return domain.UnavailableQuote(domain.SupplierCofarsur), nil
	}

	body, err = a.call(ctx, opPrice, creds, queryEnvelope(opPrice, creds, req.ProductCode))
	if err != nil {
		return domain.Quote{}, err
	}
	quote, err := ParsePrice(body)
	if err != nil {
		return domain.Quote{}, unexpected(opPrice, err, body)
	}
	return quote, nil
}

// PlaceOrder sends one AltaPedido with every Cofarsur-selected line
func (a *Adapter) PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	creds, err := a.credentials.GetCredentials(ctx, req.BranchID, domain.SupplierCofarsur)
	if err != nil {
		return domain.OrderResult{}, domain.CredentialError(domain.SupplierCofarsur, opOrder, err)
	}

	body, err := a.call(ctx, opOrder, creds, orderEnvelope(creds, req))
	if err != nil {
		return domain.OrderResult{}, err
	}

	result, err := ParseOrder(body)
	if err != nil {
		var supplierErr *domain.SupplierError
		if errors.As(err, &supplierErr) {
			return domain.OrderResult{}, err
		}
		return domain.OrderResult{}, unexpected(opOrder, err, body)
	}
	return result, nil
}

func (a *Adapter) call(ctx context.Context, op string, creds *domain.Credentials, envelope []byte) ([]byte, error) {
	return soap.Do(ctx, a.client, soap.Call{
		Supplier: domain.SupplierCofarsur,
		Op:       op,
		URL:      strings.TrimRight(a.cfg.BaseURL, "/"),
		Action:   actionPrefix + op,
		Body:     envelope,
		Auth:     &soap.BasicAuth{Username: creds.Username, Password: creds.Password},
	})
}

func unexpected(op string, err error, body []byte) error {
	supplierErr := domain.NewSupplierError(domain.KindUnexpectedResponse, domain.SupplierCofarsur, op, err)
	supplierErr.Detail = utils.Truncate(string(body), 512)
	return supplierErr
}
