package postgres

import (
	"context"
	"fmt"

	"github.com/emprestai/emprestai-go/internal/domain"
)

func (s *Store) CountLoans(ctx context.Context, tenantID, status string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM loans WHERE tenant_id = $1 AND status = $2`,
		tenantID, status).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count loans: %w", err)
	}
	return n, nil
}

// OutstandingPrincipal sums what is still owed across open installments.
func (s *Store) OutstandingPrincipal(ctx context.Context, tenantID string) (float64, error) {
	var total float64
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(i.total_due - i.paid_amount), 0)
		FROM loan_installments i
		JOIN loans l ON l.id = i.loan_id
		WHERE l.tenant_id = $1 AND i.status <> $2`,
		tenantID, domain.InstallmentPaid).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum outstanding: %w", err)
	}
	return total, nil
}

// TotalReceived sums loan payment credits recorded in the ledger.
func (s *Store) TotalReceived(ctx context.Context, tenantID string) (float64, error) {
	var total float64
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM account_transactions
		WHERE tenant_id = $1 AND direction = $2 AND loan_id IS NOT NULL`,
		tenantID, domain.DirectionCredit).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum received: %w", err)
	}
	return total, nil
}

func (s *Store) TotalAccountBalance(ctx context.Context, tenantID string) (float64, error) {
	var total float64
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(current_balance), 0)
		FROM accounts
		WHERE tenant_id = $1`,
		tenantID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum balances: %w", err)
	}
	return total, nil
}

func (s *Store) CountClients(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM clients WHERE tenant_id = $1`,
		tenantID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count clients: %w", err)
	}
	return n, nil
}

// Evolution returns disbursed vs received totals per month for the last
// `months` months, including months with no activity.
func (s *Store) Evolution(ctx context.Context, tenantID string, months int) ([]domain.EvolutionPoint, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT to_char(m.month, 'YYYY-MM'),
		       COALESCE(SUM(t.amount) FILTER (WHERE t.direction = 'debit'), 0),
		       COALESCE(SUM(t.amount) FILTER (WHERE t.direction = 'credit'), 0)
		FROM generate_series(
			date_trunc('month', now()) - ($2::int - 1) * interval '1 month',
			date_trunc('month', now()),
			interval '1 month') AS m(month)
		LEFT JOIN account_transactions t
		    ON date_trunc('month', t.created_at) = m.month
		   AND t.tenant_id = $1
		   AND t.loan_id IS NOT NULL
		GROUP BY m.month
		ORDER BY m.month`,
		tenantID, months)
	if err != nil {
		return nil, fmt.Errorf("query evolution: %w", err)
	}
	defer rows.Close()

	points := []domain.EvolutionPoint{}
	for rows.Next() {
		var p domain.EvolutionPoint
		if err := rows.Scan(&p.Month, &p.Disbursed, &p.Received); err != nil {
			return nil, fmt.Errorf("scan evolution point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
