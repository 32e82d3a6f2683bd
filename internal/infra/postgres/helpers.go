package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/emprestai/emprestai-go/internal/domain"
)

// scannable abstracts pgx.Row and pgx.Rows for shared scan helpers.
type scannable interface {
	Scan(dest ...any) error
}

// snapshotRead is the transaction mode for list queries: the row count and
// the page itself read the same snapshot, so meta.total cannot contradict
// the returned rows.
var snapshotRead = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

// uniqueViolation is the PostgreSQL error code for unique-constraint
// violations.
const uniqueViolation = "23505"

// constraintFields maps unique-constraint names to the API field they guard.
var constraintFields = map[string]string{
	"tenants_email_key":              "email",
	"users_email_key":                "email",
	"clients_tenant_id_document_key": "document",
	"refresh_tokens_token_hash_key":  "refreshToken",
}

// mapWriteErr converts driver errors on writes into domain errors. Unique
// violations become *domain.ErrConstraint keyed by the violated field; the
// constraint name is matched structurally, never the message text.
func mapWriteErr(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		field, ok := constraintFields[pgErr.ConstraintName]
		if !ok {
			field = strings.TrimSuffix(pgErr.ConstraintName, "_key")
		}
		return &domain.ErrConstraint{Field: field}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// mapReadErr converts pgx.ErrNoRows into *domain.ErrNotFound.
func mapReadErr(err error, resource, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.ErrNotFound{Resource: resource, ID: id}
	}
	return fmt.Errorf("query %s: %w", resource, err)
}

// expectOne returns not-found when a write touched zero rows.
func expectOne(ct pgconn.CommandTag, resource, id string) error {
	if ct.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: resource, ID: id}
	}
	return nil
}

// sqlBuilder accumulates positional arguments while rendering SQL fragments.
type sqlBuilder struct {
	args []any
}

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// render translates a typed filter expression into a SQL condition. Field
// names come from fixed column maps in the service layer, never from user
// input.
func (b *sqlBuilder) render(f domain.Filter) string {
	switch v := f.(type) {
	case domain.Equals:
		return fmt.Sprintf("%s = %s", v.Field, b.arg(v.Value))
	case domain.Contains:
		return fmt.Sprintf("%s ILIKE %s", v.Field, b.arg("%"+v.Value+"%"))
	case domain.And:
		return b.renderGroup([]domain.Filter(v), " AND ")
	case domain.Or:
		return b.renderGroup([]domain.Filter(v), " OR ")
	default:
		return "TRUE"
	}
}

func (b *sqlBuilder) renderGroup(filters []domain.Filter, sep string) string {
	if len(filters) == 0 {
		return "TRUE"
	}
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		parts = append(parts, b.render(f))
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// whereFor renders a WHERE clause scoping by tenant and applying the
// optional filter. An empty tenantID (super admin queries) skips the tenant
// condition. tenantCol carries the table alias when the query joins.
func (b *sqlBuilder) whereFor(tenantCol, tenantID string, f domain.Filter) string {
	conds := make([]string, 0, 2)
	if tenantID != "" {
		conds = append(conds, fmt.Sprintf("%s = %s", tenantCol, b.arg(tenantID)))
	}
	if f != nil {
		conds = append(conds, b.render(f))
	}
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}
