package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/emprestai/emprestai-go/internal/domain"
)

const accountColumns = `id, tenant_id, name, bank_name, branch, account_number, current_balance, created_at, updated_at`

func scanAccount(row scannable) (domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.ID, &a.TenantID, &a.Name, &a.BankName, &a.Branch,
		&a.AccountNumber, &a.CurrentBalance, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (s *Store) CreateAccount(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO accounts (tenant_id, name, bank_name, branch, account_number, current_balance)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+accountColumns,
		a.TenantID, a.Name, a.BankName, a.Branch, a.AccountNumber, a.CurrentBalance)
	created, err := scanAccount(row)
	if err != nil {
		return nil, mapWriteErr(err, "insert account")
	}
	return &created, nil
}

func (s *Store) ListAccounts(ctx context.Context, tenantID string) ([]domain.Account, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE tenant_id = $1
		ORDER BY name`,
		tenantID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *Store) GetAccount(ctx context.Context, tenantID, accountID string) (*domain.Account, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1 AND tenant_id = $2`,
		accountID, tenantID)
	a, err := scanAccount(row)
	if err != nil {
		return nil, mapReadErr(err, "account", accountID)
	}
	return &a, nil
}

// Deposit credits the account and appends the ledger entry in one
// transaction.
func (s *Store) Deposit(ctx context.Context, tenantID, accountID string, amount float64, description string) (*domain.Account, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	row := tx.QueryRow(ctx, `
		UPDATE accounts
		SET current_balance = current_balance + $1, updated_at = now()
		WHERE id = $2 AND tenant_id = $3
		RETURNING `+accountColumns,
		amount, accountID, tenantID)
	a, err := scanAccount(row)
	if err != nil {
		return nil, mapReadErr(err, "account", accountID)
	}

	if err := insertMovement(ctx, tx, tenantID, accountID, domain.DirectionCredit, amount, description); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &a, nil
}

// Withdraw debits the account with the same conditional decrement used by
// loan disbursement, so the balance never goes negative.
func (s *Store) Withdraw(ctx context.Context, tenantID, accountID string, amount float64, description string) (*domain.Account, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	row := tx.QueryRow(ctx, `
		UPDATE accounts
		SET current_balance = current_balance - $1, updated_at = now()
		WHERE id = $2 AND tenant_id = $3 AND current_balance >= $1
		RETURNING `+accountColumns,
		amount, accountID, tenantID)
	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		var available float64
		err = tx.QueryRow(ctx, `
			SELECT current_balance FROM accounts WHERE id = $1 AND tenant_id = $2`,
			accountID, tenantID).Scan(&available)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.ErrNotFound{Resource: "account", ID: accountID}
		}
		if err != nil {
			return nil, fmt.Errorf("check account: %w", err)
		}
		return nil, &domain.ErrInsufficientFunds{Available: available, Required: amount}
	}
	if err != nil {
		return nil, fmt.Errorf("debit account: %w", err)
	}

	if err := insertMovement(ctx, tx, tenantID, accountID, domain.DirectionDebit, amount, description); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &a, nil
}

func insertMovement(ctx context.Context, q queryer, tenantID, accountID, direction string, amount float64, description string) error {
	_, err := q.Exec(ctx, `
		INSERT INTO account_transactions (tenant_id, account_id, direction, amount, description)
		VALUES ($1, $2, $3, $4, $5)`,
		tenantID, accountID, direction, amount, description)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

const transactionColumns = `id, tenant_id, account_id, direction, amount, description, loan_id, created_at`

func (s *Store) ListTransactions(ctx context.Context, tenantID string, f domain.Filter, p domain.Page) ([]domain.AccountTransaction, int, error) {
	b := &sqlBuilder{}
	where := b.whereFor("tenant_id", tenantID, f)

	tx, err := s.pool.BeginTx(ctx, snapshotRead)
	if err != nil {
		return nil, 0, fmt.Errorf("begin list transactions: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var total int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM account_transactions`+where, b.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	query := `SELECT ` + transactionColumns + ` FROM account_transactions` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT %s OFFSET %s`, b.arg(p.Size), b.arg(p.Offset()))
	rows, err := tx.Query(ctx, query, b.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txs := []domain.AccountTransaction{}
	for rows.Next() {
		var t domain.AccountTransaction
		if err := rows.Scan(&t.ID, &t.TenantID, &t.AccountID, &t.Direction,
			&t.Amount, &t.Description, &t.LoanID, &t.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return txs, total, tx.Commit(ctx)
}
