// internal/repository/postgres/customer_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"fieldworks-service/internal/domain/customer"
	xerrors "fieldworks-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const customerColumns = `
	id, tenant_id, full_name, email, phone, address, tags,
	external_contact_id, created_at, updated_at
`

type CustomerRepository struct {
	db *pgxpool.Pool
}

func NewCustomerRepository(db *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) scanOne(row pgx.Row) (*customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(
		&c.ID, &c.TenantID, &c.FullName, &c.Email, &c.Phone, &c.Address, &c.Tags,
		&c.ExternalContactID, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan customer: %w", err)
	}
	return &c, nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, tenantID, id int64) (*customer.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE tenant_id = $1 AND id = $2`
	return r.scanOne(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *CustomerRepository) FindByExternalID(ctx context.Context, tenantID int64, externalID string) (*customer.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE tenant_id = $1 AND external_contact_id = $2`
	return r.scanOne(r.db.QueryRow(ctx, query, tenantID, externalID))
}

// FindByEmail matches on the normalized (lowercased, trimmed) address.
func (r *CustomerRepository) FindByEmail(ctx context.Context, tenantID int64, email string) (*customer.Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE tenant_id = $1 AND lower(trim(email)) = $2
		ORDER BY id
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, tenantID, email))
}

func (r *CustomerRepository) FindByPhone(ctx context.Context, tenantID int64, phone string) (*customer.Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE tenant_id = $1 AND phone = $2
		ORDER BY id
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, tenantID, phone))
}

func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	query := `
		INSERT INTO customers (
			tenant_id, full_name, email, phone, address, tags, external_contact_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		c.TenantID, c.FullName, c.Email, c.Phone, c.Address, c.Tags, c.ExternalContactID,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

func (r *CustomerRepository) Update(ctx context.Context, c *customer.Customer) error {
	query := `
		UPDATE customers SET
			full_name = $3, email = $4, phone = $5, address = $6, tags = $7,
			updated_at = now()
		WHERE tenant_id = $1 AND id = $2
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		c.TenantID, c.ID, c.FullName, c.Email, c.Phone, c.Address, c.Tags,
	).Scan(&c.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return xerrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	return nil
}

// SetExternalContactID binds the customer to its CRM contact. The WHERE
// clause makes the bind set-once at the database level; an attempt to
// overwrite a different id reports a conflict.
func (r *CustomerRepository) SetExternalContactID(ctx context.Context, tenantID, id int64, externalID string) error {
	query := `
		UPDATE customers
		SET external_contact_id = $3, updated_at = now()
		WHERE tenant_id = $1 AND id = $2
		  AND (external_contact_id IS NULL OR external_contact_id = $3)
	`

	tag, err := r.db.Exec(ctx, query, tenantID, id, externalID)
	if err != nil {
		return fmt.Errorf("failed to set external contact id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("customer %d already bound to another CRM contact: %w", id, xerrors.ErrConflict)
	}
	return nil
}
