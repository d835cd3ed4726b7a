package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies supplier and orchestration failures
type ErrorKind string

const (
	KindCredentialMissing      ErrorKind = "credential_missing"
	KindNetworkFailure         ErrorKind = "network_failure"
	KindUnexpectedResponse     ErrorKind = "unexpected_response"
	KindRemoteFault            ErrorKind = "remote_fault"
	KindNoEligibleSupplier     ErrorKind = "no_eligible_supplier"
	KindPartialDispatchFailure ErrorKind = "partial_dispatch_failure"
	KindUnknown                ErrorKind = "unknown"
)

var (
	ErrCredentialMissing  = errors.New("supplier credentials not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrTableNotFound      = errors.New("comparison table not found")
	ErrAlreadyDispatched  = errors.New("comparison table already dispatched")
	ErrUserNotFound       = errors.New("user not found")
	ErrCredentialStore    = errors.New("credential store unavailable")
	ErrBasketUnavailable  = errors.New("basket store unavailable")
	ErrNoEligibleSupplier = errors.New("no eligible supplier")
	ErrPartialDispatch    = errors.New("some supplier orders failed")
	ErrNothingPlaced      = errors.New("no supplier order was placed")
	ErrInvalidLine        = errors.New("invalid basket line")
	ErrEmptyBasket        = errors.New("basket is empty")
)

// SupplierError is the internal result error of one supplier call. It keeps
// the failure kind for logging and metrics; it never crosses the adapter
// boundary on the query path.
type SupplierError struct {
	Kind     ErrorKind
	Supplier string
	Op       string
	Detail   string
	Err      error
}

func (e *SupplierError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Supplier, e.Op, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SupplierError) Unwrap() error {
	return e.Err
}

// NewSupplierError builds a classified supplier error
func NewSupplierError(kind ErrorKind, supplier, op string, err error) *SupplierError {
	return &SupplierError{Kind: kind, Supplier: supplier, Op: op, Err: err}
}

// CredentialError classifies a credential lookup failure
func CredentialError(supplier, op string, err error) *SupplierError {
	if errors.Is(err, ErrCredentialMissing) {
		return NewSupplierError(KindCredentialMissing, supplier, op, err)
	}
	return NewSupplierError(KindUnknown, supplier, op, fmt.Errorf("%w: %v", ErrCredentialStore, err))
}

// KindOf extracts the failure kind of err
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var supplierErr *SupplierError
	if errors.As(err, &supplierErr) {
		return supplierErr.Kind
	}
	switch {
	case errors.Is(err, ErrCredentialMissing):
		return KindCredentialMissing
	case errors.Is(err, ErrNoEligibleSupplier):
		return KindNoEligibleSupplier
	case errors.Is(err, ErrPartialDispatch):
		return KindPartialDispatchFailure
	}
	return KindUnknown
}
