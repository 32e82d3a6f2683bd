package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/emprestai/emprestai-go/internal/domain"
)

func TestSQLBuilder_RenderEquals(t *testing.T) {
	b := &sqlBuilder{}

	got := b.render(domain.Equals{Field: "status", Value: "active"})

	if got != "status = $1" {
		t.Errorf("expected 'status = $1', got %q", got)
	}
	if len(b.args) != 1 || b.args[0] != "active" {
		t.Errorf("unexpected args %v", b.args)
	}
}

func TestSQLBuilder_RenderContains(t *testing.T) {
	b := &sqlBuilder{}

	got := b.render(domain.Contains{Field: "first_name", Value: "mar"})

	if got != "first_name ILIKE $1" {
		t.Errorf("expected ILIKE clause, got %q", got)
	}
	if b.args[0] != "%mar%" {
		t.Errorf("expected wrapped pattern, got %v", b.args[0])
	}
}

func TestSQLBuilder_RenderSearchAcross(t *testing.T) {
	b := &sqlBuilder{}
	f := domain.SearchAcross("mar", []string{"first_name", "last_name"},
		domain.Equals{Field: "status", Value: "active"},
		domain.Equals{Field: "plan", Value: ""}, // empty values drop out
	)

	got := b.render(f)

	want := "((first_name ILIKE $1 OR last_name ILIKE $2) AND status = $3)"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if len(b.args) != 3 {
		t.Errorf("expected 3 args, got %v", b.args)
	}
}

func TestSQLBuilder_WhereForScopesTenant(t *testing.T) {
	b := &sqlBuilder{}

	got := b.whereFor("l.tenant_id", "tenant-1", domain.Equals{Field: "l.status", Value: "active"})

	want := " WHERE l.tenant_id = $1 AND l.status = $2"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSQLBuilder_WhereForEmptyTenantSkipsScope(t *testing.T) {
	b := &sqlBuilder{}

	if got := b.whereFor("tenant_id", "", nil); got != "" {
		t.Errorf("expected empty clause, got %q", got)
	}

	got := b.whereFor("tenant_id", "", domain.Equals{Field: "plan", Value: "pro"})
	if got != " WHERE plan = $1" {
		t.Errorf("expected plan-only clause, got %q", got)
	}
}

func TestSQLBuilder_ArgPositionsAccumulate(t *testing.T) {
	b := &sqlBuilder{}
	b.whereFor("tenant_id", "tenant-1", nil)

	if got := b.arg(20); got != "$2" {
		t.Errorf("expected $2 for limit arg, got %q", got)
	}
	if got := b.arg(0); got != "$3" {
		t.Errorf("expected $3 for offset arg, got %q", got)
	}
}

func TestMapWriteErr_UniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: uniqueViolation, ConstraintName: "clients_tenant_id_document_key"}

	err := mapWriteErr(pgErr, "insert client")

	var constraint *domain.ErrConstraint
	if !errors.As(err, &constraint) {
		t.Fatalf("expected constraint error, got %v", err)
	}
	if constraint.Field != "document" {
		t.Errorf("expected field 'document', got %q", constraint.Field)
	}
}

func TestMapWriteErr_UnknownConstraintFallsBackToName(t *testing.T) {
	pgErr := &pgconn.PgError{Code: uniqueViolation, ConstraintName: "accounts_name_key"}

	err := mapWriteErr(pgErr, "insert account")

	var constraint *domain.ErrConstraint
	if !errors.As(err, &constraint) {
		t.Fatalf("expected constraint error, got %v", err)
	}
	if constraint.Field != "accounts_name" {
		t.Errorf("expected field 'accounts_name', got %q", constraint.Field)
	}
}

func TestMapWriteErr_OtherErrorsWrapped(t *testing.T) {
	err := mapWriteErr(errors.New("connection reset"), "insert client")

	var constraint *domain.ErrConstraint
	if errors.As(err, &constraint) {
		t.Fatal("expected plain wrapped error, got constraint")
	}
}

func TestMapReadErr_NoRowsIsNotFound(t *testing.T) {
	err := mapReadErr(pgx.ErrNoRows, "loan", "loan-1")

	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if notFound.Resource != "loan" || notFound.ID != "loan-1" {
		t.Errorf("unexpected not found payload: %+v", notFound)
	}
}
