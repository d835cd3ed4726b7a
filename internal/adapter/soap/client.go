package soap

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/httpclient"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/logger"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/utils"
)

// BasicAuth is optional HTTP Basic authentication for a call
type BasicAuth struct {
	Username string
	Password string
}

// Call describes one SOAP request
type Call struct {
	Supplier string
	Op       string
	URL      string
	Action   string
	Body     []byte
	Auth     *BasicAuth
}

// Do posts the envelope and returns the raw response. Failures are
// classified: transport and non-fault HTTP errors as network failures, and
// SOAP faults as remote faults carrying the faultstring.
func Do(ctx context.Context, client *httpclient.Client, call Call) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, call.URL, bytes.NewReader(call.Body))
	if err != nil {
		return nil, domain.NewSupplierError(domain.KindNetworkFailure, call.Supplier, call.Op, err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", call.Action)
	if call.Auth != nil {
		req.SetBasicAuth(call.Auth.Username, call.Auth.Password)
	}

	logger.FromContext(ctx).Debug("SOAP request",
		logger.Supplier(call.Supplier),
		logger.String("operation", call.Op),
		logger.String("action", call.Action),
	)

	resp, err := client.Do(req)
	if err != nil {
		return nil, domain.NewSupplierError(domain.KindNetworkFailure, call.Supplier, call.Op, err)
	}
	body, err := httpclient.ReadBody(resp)
	if err != nil {
		return nil, domain.NewSupplierError(domain.KindNetworkFailure, call.Supplier, call.Op, err)
	}

	logger.FromContext(ctx).Debug("SOAP response",
		logger.Supplier(call.Supplier),
		logger.String("operation", call.Op),
		logger.Int("status", resp.StatusCode),
		logger.String("body", utils.Truncate(string(body), 512)),
	)

	// Faults usually arrive with HTTP 500, so look for one before the status.
	if fault := CheckFault(body); fault != nil {
		supplierErr := domain.NewSupplierError(domain.KindRemoteFault, call.Supplier, call.Op, fault)
		supplierErr.Detail = fault.String
		return nil, supplierErr
	}

	if resp.StatusCode >= http.StatusBadRequest {
		supplierErr := domain.NewSupplierError(domain.KindNetworkFailure, call.Supplier, call.Op,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
		supplierErr.Detail = utils.Truncate(string(body), 512)
		return nil, supplierErr
	}

	return body, nil
}
