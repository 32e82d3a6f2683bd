package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/emprestai/emprestai-go/internal/domain"
)

const tenantColumns = `id, business_name, email, phone, document, plan, status, trial_start_at, trial_end_at, created_at, updated_at`

func scanTenant(row scannable) (domain.Tenant, error) {
	var t domain.Tenant
	err := row.Scan(&t.ID, &t.BusinessName, &t.Email, &t.Phone, &t.Document,
		&t.Plan, &t.Status, &t.TrialStartAt, &t.TrialEndAt, &t.CreatedAt,
		&t.UpdatedAt)
	return t, err
}

// ProvisionTenant runs the onboarding transaction: tenant row with its trial
// window, optional address, the first admin user, and the trial_started
// audit event. Email pre-checks happen in the service before any write.
func (s *Store) ProvisionTenant(ctx context.Context, t *domain.Tenant, admin *domain.User, addr *domain.AddressInput) (*domain.Tenant, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	err = tx.QueryRow(ctx, `
		INSERT INTO tenants (business_name, email, phone, document, plan, status, trial_start_at, trial_end_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		t.BusinessName, t.Email, t.Phone, t.Document, t.Plan, t.Status,
		t.TrialStartAt, t.TrialEndAt).Scan(&t.ID)
	if err != nil {
		return nil, mapWriteErr(err, "insert tenant")
	}

	if addr != nil {
		if err := insertAddress(ctx, tx, ownerTenant, t.ID, *addr); err != nil {
			return nil, err
		}
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO users (tenant_id, first_name, last_name, email, phone, role, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		t.ID, admin.FirstName, admin.LastName, admin.Email, admin.Phone,
		domain.RoleAdmin, admin.PasswordHash).Scan(&admin.ID)
	if err != nil {
		return nil, mapWriteErr(err, "insert admin user")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO subscription_events (tenant_id, event_type, detail)
		VALUES ($1, $2, $3)`,
		t.ID, domain.EventTrialStarted,
		fmt.Sprintf("trial until %s", t.TrialEndAt.Format("2006-01-02")))
	if err != nil {
		return nil, fmt.Errorf("insert subscription event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.logger.Info("tenant provisioned",
		zap.String("tenant_id", t.ID),
		zap.String("business_name", t.BusinessName))

	return s.GetTenant(ctx, t.ID)
}

func (s *Store) ListTenants(ctx context.Context, f domain.Filter, p domain.Page) ([]domain.Tenant, int, error) {
	b := &sqlBuilder{}
	where := b.whereFor("", "", f)

	tx, err := s.pool.BeginTx(ctx, snapshotRead)
	if err != nil {
		return nil, 0, fmt.Errorf("begin list tenants: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var total int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM tenants`+where, b.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tenants: %w", err)
	}

	query := `SELECT ` + tenantColumns + ` FROM tenants` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT %s OFFSET %s`, b.arg(p.Size), b.arg(p.Offset()))
	rows, err := tx.Query(ctx, query, b.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	tenants := []domain.Tenant{}
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return tenants, total, tx.Commit(ctx)
}

func (s *Store) GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+tenantColumns+`
		FROM tenants
		WHERE id = $1`,
		tenantID)
	t, err := scanTenant(row)
	if err != nil {
		return nil, mapReadErr(err, "tenant", tenantID)
	}

	addr, err := getAddress(ctx, s.pool, ownerTenant, t.ID)
	if err != nil {
		return nil, err
	}
	t.Address = addr
	return &t, nil
}

// GetTenantByEmail returns nil without error when no tenant matches.
func (s *Store) GetTenantByEmail(ctx context.Context, email string) (*domain.Tenant, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+tenantColumns+`
		FROM tenants
		WHERE lower(email) = lower($1)`,
		email)
	t, err := scanTenant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query tenant by email: %w", err)
	}
	return &t, nil
}

// UpdateTenant patches the tenant and appends the audit events recorded by
// the service for plan or status changes, in one transaction.
func (s *Store) UpdateTenant(ctx context.Context, tenantID string, upd domain.TenantUpdate, events []domain.SubscriptionEvent) (*domain.Tenant, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	b := &sqlBuilder{}
	sets := []string{"updated_at = now()"}
	if upd.BusinessName != nil {
		sets = append(sets, "business_name = "+b.arg(*upd.BusinessName))
	}
	if upd.Phone != nil {
		sets = append(sets, "phone = "+b.arg(*upd.Phone))
	}
	if upd.Plan != nil {
		sets = append(sets, "plan = "+b.arg(*upd.Plan))
	}
	if upd.Status != nil {
		sets = append(sets, "status = "+b.arg(*upd.Status))
	}

	query := fmt.Sprintf(`UPDATE tenants SET %s WHERE id = %s`,
		strings.Join(sets, ", "), b.arg(tenantID))
	ct, err := tx.Exec(ctx, query, b.args...)
	if err != nil {
		return nil, mapWriteErr(err, "update tenant")
	}
	if err := expectOne(ct, "tenant", tenantID); err != nil {
		return nil, err
	}

	for _, ev := range events {
		_, err = tx.Exec(ctx, `
			INSERT INTO subscription_events (tenant_id, event_type, detail)
			VALUES ($1, $2, $3)`,
			tenantID, ev.Type, ev.Detail)
		if err != nil {
			return nil, fmt.Errorf("insert subscription event: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetTenant(ctx, tenantID)
}

func (s *Store) DeleteTenant(ctx context.Context, tenantID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := deleteOwnerAddresses(ctx, tx, ownerTenant, tenantID); err != nil {
		return err
	}
	ct, err := tx.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, tenantID)
	if err != nil {
		return fmt.Errorf("delete tenant: %w", err)
	}
	if err := expectOne(ct, "tenant", tenantID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) ListSubscriptionEvents(ctx context.Context, tenantID string) ([]domain.SubscriptionEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, event_type, detail, created_at
		FROM subscription_events
		WHERE tenant_id = $1
		ORDER BY created_at DESC`,
		tenantID)
	if err != nil {
		return nil, fmt.Errorf("list subscription events: %w", err)
	}
	defer rows.Close()

	events := []domain.SubscriptionEvent{}
	for rows.Next() {
		var ev domain.SubscriptionEvent
		if err := rows.Scan(&ev.ID, &ev.TenantID, &ev.Type, &ev.Detail, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscription event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
