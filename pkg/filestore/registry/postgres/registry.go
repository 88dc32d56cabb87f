package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/datadives/project-roodha/pkg/filestore"
)

const defaultPageSize = 100

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Registry implements filestore.Registry using PostgreSQL.
//
// Two tables, mirroring the keyed layout of the registry design:
//
//	tenant(tenant_id PK, status, created_at)
//	users(tenant_id, user_id, status, created_at,
//	      PRIMARY KEY (tenant_id, user_id),
//	      FOREIGN KEY (tenant_id) REFERENCES tenant)
type Registry struct {
	db DBTX
}

// New creates a new PostgreSQL registry
func New(db DBTX) *Registry {
	return &Registry{db: db}
}

// NewWithPool creates a new PostgreSQL registry with a connection pool
func NewWithPool(pool *pgxpool.Pool) *Registry {
	return &Registry{db: pool}
}

// Migrate creates the registry tables if they are absent.
func (r *Registry) Migrate(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS tenant (
			tenant_id  TEXT PRIMARY KEY,
			status     TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS users (
			tenant_id  TEXT NOT NULL REFERENCES tenant(tenant_id),
			user_id    TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (tenant_id, user_id)
		);`

	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate registry schema: %w", err)
	}
	return nil
}

// mapError translates Postgres errors into registry sentinels
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return filestore.ErrDuplicateKey
		case "23503": // foreign_key_violation
			return filestore.ErrTenantNotFound
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return filestore.ErrTenantNotFound
	}
	return err
}

func (r *Registry) CreateTenant(ctx context.Context, tenantID string) (*filestore.Tenant, error) {
	query := `
		INSERT INTO tenant (tenant_id, status)
		VALUES ($1, $2)
		RETURNING tenant_id, status, created_at`

	var tenant filestore.Tenant
	err := r.db.QueryRow(ctx, query, tenantID, string(filestore.TenantStatusActive)).Scan(
		&tenant.ID, &tenant.Status, &tenant.CreatedAt)
	if err != nil {
		return nil, &filestore.RegistryError{TenantID: tenantID, Op: "create_tenant", Err: mapError(err)}
	}

	return &tenant, nil
}

func (r *Registry) GetTenant(ctx context.Context, tenantID string) (*filestore.Tenant, error) {
	query := `SELECT tenant_id, status, created_at FROM tenant WHERE tenant_id = $1`

	var tenant filestore.Tenant
	err := r.db.QueryRow(ctx, query, tenantID).Scan(&tenant.ID, &tenant.Status, &tenant.CreatedAt)
	if err != nil {
		return nil, &filestore.RegistryError{TenantID: tenantID, Op: "get_tenant", Err: mapError(err)}
	}

	return &tenant, nil
}

func (r *Registry) CreateUser(ctx context.Context, tenantID, userID string) (*filestore.User, error) {
	// Check the tenant explicitly so absence surfaces as ErrTenantNotFound
	// even before the FK fires; the registry owns referential integrity.
	if _, err := r.GetTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO users (tenant_id, user_id, status)
		VALUES ($1, $2, $3)
		RETURNING tenant_id, user_id, status, created_at`

	var user filestore.User
	err := r.db.QueryRow(ctx, query, tenantID, userID, string(filestore.UserStatusActive)).Scan(
		&user.TenantID, &user.ID, &user.Status, &user.CreatedAt)
	if err != nil {
		return nil, &filestore.RegistryError{TenantID: tenantID, UserID: userID, Op: "create_user", Err: mapError(err)}
	}

	return &user, nil
}

func (r *Registry) ListUsers(ctx context.Context, req filestore.ListUsersRequest) (*filestore.UserPage, error) {
	if _, err := r.GetTenant(ctx, req.TenantID); err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	// Fetch one extra row to learn whether another page exists.
	query := `
		SELECT tenant_id, user_id, status, created_at
		FROM users
		WHERE tenant_id = $1 AND user_id > $2
		ORDER BY user_id ASC
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, req.TenantID, req.Cursor, limit+1)
	if err != nil {
		return nil, &filestore.RegistryError{TenantID: req.TenantID, Op: "list_users", Err: mapError(err)}
	}
	defer rows.Close()

	page := &filestore.UserPage{}
	for rows.Next() {
		var user filestore.User
		if err := rows.Scan(&user.TenantID, &user.ID, &user.Status, &user.CreatedAt); err != nil {
			return nil, &filestore.RegistryError{TenantID: req.TenantID, Op: "list_users", Err: err}
		}
		page.Users = append(page.Users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, &filestore.RegistryError{TenantID: req.TenantID, Op: "list_users", Err: err}
	}

	if len(page.Users) > limit {
		page.Users = page.Users[:limit]
		page.NextCursor = page.Users[limit-1].ID
	}

	return page, nil
}

var _ filestore.Registry = (*Registry)(nil)
