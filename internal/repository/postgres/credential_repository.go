package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/logger"
)

// credentialRow mirrors one row of credenciales_droguerias. Every supplier
// owns its own columns; any of them may be NULL.
type credentialRow struct {
	BranchCode string `db:"sucursal_codigo"`

	QuantioUser     sql.NullString `db:"quantio_usuario"`
	QuantioPassword sql.NullString `db:"quantio_clave"`

	MonroeSoftwareKey sql.NullString `db:"monroe_software_key"`
	MonroeCustomerKey sql.NullString `db:"monroe_ecommerce_key"`
	MonroeAccount     sql.NullString `db:"monroe_cuenta"`

	CofarsurUser     sql.NullString `db:"cofarsur_usuario"`
	CofarsurPassword sql.NullString `db:"cofarsur_clave"`
	CofarsurToken    sql.NullString `db:"cofarsur_token"`

	SuizoUser     sql.NullString `db:"suizo_usuario"`
	SuizoPassword sql.NullString `db:"suizo_clave"`
	SuizoCustomer sql.NullString `db:"suizo_cliente"`
}

func value(s sql.NullString) string {
	if !s.Valid {
		return ""
	}
	return strings.TrimSpace(s.String)
}

// forSupplier projects the row onto the secrets of one supplier. It fails
// with ErrCredentialMissing when a required column is blank.
func (row credentialRow) forSupplier(supplier string) (*domain.Credentials, error) {
	var creds domain.Credentials
	var required []string

	switch supplier {
	case domain.SupplierQuantio:
		creds.Username = value(row.QuantioUser)
		creds.Password = value(row.QuantioPassword)
		required = []string{creds.Username, creds.Password}
	case domain.SupplierMonroe:
		creds.SoftwareKey = value(row.MonroeSoftwareKey)
		creds.CustomerKey = value(row.MonroeCustomerKey)
		creds.AccountCode = value(row.MonroeAccount)
		required = []string{creds.SoftwareKey, creds.CustomerKey}
	case domain.SupplierCofarsur:
		creds.Username = value(row.CofarsurUser)
		creds.Password = value(row.CofarsurPassword)
		creds.Token = value(row.CofarsurToken)
		required = []string{creds.Username, creds.Password}
	case domain.SupplierSuizo:
		creds.Username = value(row.SuizoUser)
		creds.Password = value(row.SuizoPassword)
		creds.AccountCode = value(row.SuizoCustomer)
		required = []string{creds.Username, creds.Password, creds.AccountCode}
	default:
		return nil, fmt.Errorf("%w: supplier %s has no credential columns", domain.ErrCredentialMissing, supplier)
	}

	for _, field := range required {
		if field == "" {
			return nil, fmt.Errorf("%w: %s credentials incomplete for branch %s", domain.ErrCredentialMissing, supplier, row.BranchCode)
		}
	}
	return &creds, nil
}

type credentialRepository struct {
	db *sqlx.DB
}

// NewCredentialRepository creates the credential store backed by
// credenciales_droguerias
func NewCredentialRepository(db *sqlx.DB) domain.CredentialStore {
	return &credentialRepository{db: db}
}

// GetCredentials returns the secrets of supplier for branchID
func (r *credentialRepository) GetCredentials(ctx context.Context, branchID, supplier string) (*domain.Credentials, error) {
	query := `
		SELECT sucursal_codigo,
			quantio_usuario, quantio_clave,
			monroe_software_key, monroe_ecommerce_key, monroe_cuenta,
			cofarsur_usuario, cofarsur_clave, cofarsur_token,
			suizo_usuario, suizo_clave, suizo_cliente
		FROM credenciales_droguerias
		WHERE sucursal_codigo = $1
	`

	var row credentialRow
	err := r.db.GetContext(ctx, &row, query, branchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: branch %s", domain.ErrCredentialMissing, branchID)
		}
		logger.Error("Failed to get supplier credentials",
			logger.Branch(branchID),
			logger.Supplier(supplier),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("failed to get credentials: %w", err)
	}

	return row.forSupplier(domain.NormalizeSupplierCode(supplier))
}

// Ping checks that the credential database is reachable
func (r *credentialRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCredentialStore, err)
	}
	return nil
}
