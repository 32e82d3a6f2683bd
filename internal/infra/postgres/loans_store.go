package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/emprestai/emprestai-go/internal/domain"
)

// paymentEpsilon absorbs float accumulation noise when deciding whether an
// installment is fully paid.
const paymentEpsilon = 0.005

const loanColumns = `id, tenant_id, client_id, account_id, principal_amount, interest_rate, total_amount, due_date, status, notes, created_at, updated_at`

func scanLoan(row scannable) (domain.Loan, error) {
	var l domain.Loan
	err := row.Scan(&l.ID, &l.TenantID, &l.ClientID, &l.AccountID,
		&l.PrincipalAmount, &l.InterestRate, &l.TotalAmount, &l.DueDate,
		&l.Status, &l.Notes, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

const installmentColumns = `id, loan_id, sequence, due_date, principal_due, interest_due, total_due, paid_amount, status, paid_at`

func scanInstallment(row scannable) (domain.Installment, error) {
	var i domain.Installment
	err := row.Scan(&i.ID, &i.LoanID, &i.Sequence, &i.DueDate,
		&i.PrincipalDue, &i.InterestDue, &i.TotalDue, &i.PaidAmount,
		&i.Status, &i.PaidAt)
	return i, err
}

func (s *Store) ListLoans(ctx context.Context, tenantID string, f domain.Filter, p domain.Page) ([]domain.Loan, int, error) {
	b := &sqlBuilder{}
	where := b.whereFor("l.tenant_id", tenantID, f)
	join := ` FROM loans l JOIN clients c ON c.id = l.client_id`

	tx, err := s.pool.BeginTx(ctx, snapshotRead)
	if err != nil {
		return nil, 0, fmt.Errorf("begin list loans: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var total int
	if err := tx.QueryRow(ctx, `SELECT count(*)`+join+where, b.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count loans: %w", err)
	}

	query := `
		SELECT l.id, l.tenant_id, l.client_id, l.account_id, l.principal_amount,
		       l.interest_rate, l.total_amount, l.due_date, l.status, l.notes,
		       l.created_at, l.updated_at,
		       c.first_name, c.last_name, c.document` + join + where +
		fmt.Sprintf(` ORDER BY l.created_at DESC LIMIT %s OFFSET %s`, b.arg(p.Size), b.arg(p.Offset()))
	rows, err := tx.Query(ctx, query, b.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	loans := []domain.Loan{}
	for rows.Next() {
		var l domain.Loan
		var c domain.Client
		if err := rows.Scan(&l.ID, &l.TenantID, &l.ClientID, &l.AccountID,
			&l.PrincipalAmount, &l.InterestRate, &l.TotalAmount, &l.DueDate,
			&l.Status, &l.Notes, &l.CreatedAt, &l.UpdatedAt,
			&c.FirstName, &c.LastName, &c.Document); err != nil {
			return nil, 0, fmt.Errorf("scan loan: %w", err)
		}
		c.ID = l.ClientID
		c.TenantID = l.TenantID
		l.Client = &c
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return loans, total, tx.Commit(ctx)
}

func (s *Store) GetLoan(ctx context.Context, tenantID, loanID string) (*domain.Loan, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+loanColumns+`
		FROM loans
		WHERE id = $1 AND tenant_id = $2`,
		loanID, tenantID)
	l, err := scanLoan(row)
	if err != nil {
		return nil, mapReadErr(err, "loan", loanID)
	}

	client, err := s.GetClient(ctx, tenantID, l.ClientID)
	if err != nil {
		return nil, err
	}
	l.Client = client

	account, err := s.GetAccount(ctx, tenantID, l.AccountID)
	if err != nil {
		return nil, err
	}
	l.Account = account

	installments, err := s.listLoanInstallments(ctx, s.pool, l.ID)
	if err != nil {
		return nil, err
	}
	l.Installments = installments
	return &l, nil
}

func (s *Store) listLoanInstallments(ctx context.Context, q queryer, loanID string) ([]domain.Installment, error) {
	rows, err := q.Query(ctx, `
		SELECT `+installmentColumns+`
		FROM loan_installments
		WHERE loan_id = $1
		ORDER BY sequence`,
		loanID)
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}
	defer rows.Close()

	installments := []domain.Installment{}
	for rows.Next() {
		i, err := scanInstallment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan installment: %w", err)
		}
		installments = append(installments, i)
	}
	return installments, rows.Err()
}

func (s *Store) ListInstallments(ctx context.Context, tenantID, loanID string) ([]domain.Installment, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM loans WHERE id = $1 AND tenant_id = $2)`,
		loanID, tenantID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check loan: %w", err)
	}
	if !exists {
		return nil, &domain.ErrNotFound{Resource: "loan", ID: loanID}
	}
	return s.listLoanInstallments(ctx, s.pool, loanID)
}

// IssueLoan runs the disbursement transaction: validates the client, debits
// the source account with a conditional decrement, inserts the loan and its
// schedule, and appends the debit ledger entry naming the borrower. Any
// failure rolls back every write.
func (s *Store) IssueLoan(ctx context.Context, loan *domain.Loan, installments []domain.Installment) (*domain.Loan, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var firstName, lastName string
	err = tx.QueryRow(ctx, `
		SELECT first_name, last_name FROM clients WHERE id = $1 AND tenant_id = $2`,
		loan.ClientID, loan.TenantID).Scan(&firstName, &lastName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "client", ID: loan.ClientID}
	}
	if err != nil {
		return nil, fmt.Errorf("check client: %w", err)
	}
	description := fmt.Sprintf("loan disbursement to %s %s (%d installments)",
		firstName, lastName, len(installments))

	// The balance guard and the debit are one statement, so two concurrent
	// disbursements cannot both pass the check and overdraw the account.
	var balance float64
	err = tx.QueryRow(ctx, `
		UPDATE accounts
		SET current_balance = current_balance - $1, updated_at = now()
		WHERE id = $2 AND tenant_id = $3 AND current_balance >= $1
		RETURNING current_balance`,
		loan.PrincipalAmount, loan.AccountID, loan.TenantID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		var available float64
		err = tx.QueryRow(ctx, `
			SELECT current_balance FROM accounts WHERE id = $1 AND tenant_id = $2`,
			loan.AccountID, loan.TenantID).Scan(&available)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.ErrNotFound{Resource: "account", ID: loan.AccountID}
		}
		if err != nil {
			return nil, fmt.Errorf("check account: %w", err)
		}
		return nil, &domain.ErrInsufficientFunds{Available: available, Required: loan.PrincipalAmount}
	}
	if err != nil {
		return nil, fmt.Errorf("debit account: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO loans (tenant_id, client_id, account_id, principal_amount, interest_rate, total_amount, due_date, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		loan.TenantID, loan.ClientID, loan.AccountID, loan.PrincipalAmount,
		loan.InterestRate, loan.TotalAmount, loan.DueDate, loan.Status,
		loan.Notes).Scan(&loan.ID)
	if err != nil {
		return nil, mapWriteErr(err, "insert loan")
	}

	for _, in := range installments {
		_, err = tx.Exec(ctx, `
			INSERT INTO loan_installments (loan_id, sequence, due_date, principal_due, interest_due, total_due, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			loan.ID, in.Sequence, in.DueDate, in.PrincipalDue, in.InterestDue,
			in.TotalDue, domain.InstallmentPending)
		if err != nil {
			return nil, mapWriteErr(err, "insert installment")
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO account_transactions (tenant_id, account_id, direction, amount, description, loan_id)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		loan.TenantID, loan.AccountID, domain.DirectionDebit,
		loan.PrincipalAmount, description, loan.ID)
	if err != nil {
		return nil, fmt.Errorf("insert ledger entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.logger.Info("loan issued",
		zap.String("loan_id", loan.ID),
		zap.String("tenant_id", loan.TenantID),
		zap.Float64("principal", loan.PrincipalAmount),
		zap.Float64("balance_after", balance))

	return s.GetLoan(ctx, loan.TenantID, loan.ID)
}

func (s *Store) UpdateLoan(ctx context.Context, tenantID, loanID string, upd domain.LoanUpdate) (*domain.Loan, error) {
	b := &sqlBuilder{}
	sets := []string{"updated_at = now()"}
	if upd.Status != nil {
		sets = append(sets, "status = "+b.arg(*upd.Status))
	}
	if upd.DueDate != nil {
		sets = append(sets, "due_date = "+b.arg(*upd.DueDate)+"::date")
	}
	if upd.Notes != nil {
		sets = append(sets, "notes = "+b.arg(*upd.Notes))
	}

	query := fmt.Sprintf(`UPDATE loans SET %s WHERE id = %s AND tenant_id = %s`,
		strings.Join(sets, ", "), b.arg(loanID), b.arg(tenantID))
	ct, err := s.pool.Exec(ctx, query, b.args...)
	if err != nil {
		return nil, mapWriteErr(err, "update loan")
	}
	if err := expectOne(ct, "loan", loanID); err != nil {
		return nil, err
	}
	return s.GetLoan(ctx, tenantID, loanID)
}

// DeleteLoan removes a payment-free loan. The disbursement ledger entry is
// never deleted; instead a compensating credit restores the principal to the
// account, keeping the ledger append-only.
func (s *Store) DeleteLoan(ctx context.Context, tenantID, loanID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	row := tx.QueryRow(ctx, `
		SELECT `+loanColumns+`
		FROM loans
		WHERE id = $1 AND tenant_id = $2
		FOR UPDATE`,
		loanID, tenantID)
	loan, err := scanLoan(row)
	if err != nil {
		return mapReadErr(err, "loan", loanID)
	}

	var hasPayments bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM account_transactions WHERE loan_id = $1 AND direction = $2)
		    OR EXISTS (SELECT 1 FROM loan_installments WHERE loan_id = $1 AND paid_amount > 0)`,
		loanID, domain.DirectionCredit).Scan(&hasPayments)
	if err != nil {
		return fmt.Errorf("check loan payments: %w", err)
	}
	if hasPayments {
		return &domain.ErrConflict{Message: "loan has recorded payments"}
	}

	_, err = tx.Exec(ctx, `
		UPDATE accounts
		SET current_balance = current_balance + $1, updated_at = now()
		WHERE id = $2`,
		loan.PrincipalAmount, loan.AccountID)
	if err != nil {
		return fmt.Errorf("credit account: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO account_transactions (tenant_id, account_id, direction, amount, description, loan_id)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		tenantID, loan.AccountID, domain.DirectionCredit,
		loan.PrincipalAmount, "loan reversal", loanID)
	if err != nil {
		return fmt.Errorf("insert reversal entry: %w", err)
	}

	ct, err := tx.Exec(ctx, `
		DELETE FROM loans WHERE id = $1 AND tenant_id = $2`,
		loanID, tenantID)
	if err != nil {
		return fmt.Errorf("delete loan: %w", err)
	}
	if err := expectOne(ct, "loan", loanID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// RecordPayment applies a payment to the loan's open installments in
// sequence order, credits the account, appends the credit ledger entry and
// marks the loan paid when the last installment settles.
func (s *Store) RecordPayment(ctx context.Context, tenantID, loanID string, amount float64, description string) (*domain.Loan, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	row := tx.QueryRow(ctx, `
		SELECT `+loanColumns+`
		FROM loans
		WHERE id = $1 AND tenant_id = $2
		FOR UPDATE`,
		loanID, tenantID)
	loan, err := scanLoan(row)
	if err != nil {
		return nil, mapReadErr(err, "loan", loanID)
	}

	installments, err := s.listLoanInstallments(ctx, tx, loanID)
	if err != nil {
		return nil, err
	}

	var outstanding float64
	for _, in := range installments {
		outstanding += in.TotalDue - in.PaidAmount
	}
	if amount > outstanding+paymentEpsilon {
		return nil, &domain.ErrValidation{Field: "amount", Message: "exceeds outstanding balance"}
	}

	remaining := amount
	now := time.Now()
	allPaid := true
	for _, in := range installments {
		open := in.TotalDue - in.PaidAmount
		if open <= paymentEpsilon {
			continue
		}
		if remaining <= 0 {
			allPaid = false
			break
		}

		pay := remaining
		if pay > open {
			pay = open
		}
		paidAmount := in.PaidAmount + pay
		status := domain.InstallmentPartial
		var paidAt *time.Time
		if paidAmount+paymentEpsilon >= in.TotalDue {
			status = domain.InstallmentPaid
			paidAt = &now
		} else {
			allPaid = false
		}

		_, err = tx.Exec(ctx, `
			UPDATE loan_installments
			SET paid_amount = $1, status = $2, paid_at = $3
			WHERE id = $4`,
			paidAmount, status, paidAt, in.ID)
		if err != nil {
			return nil, fmt.Errorf("update installment: %w", err)
		}
		remaining -= pay
	}

	_, err = tx.Exec(ctx, `
		UPDATE accounts
		SET current_balance = current_balance + $1, updated_at = now()
		WHERE id = $2 AND tenant_id = $3`,
		amount, loan.AccountID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("credit account: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO account_transactions (tenant_id, account_id, direction, amount, description, loan_id)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		tenantID, loan.AccountID, domain.DirectionCredit, amount, description, loanID)
	if err != nil {
		return nil, fmt.Errorf("insert ledger entry: %w", err)
	}

	if allPaid {
		_, err = tx.Exec(ctx, `
			UPDATE loans SET status = $1, updated_at = now() WHERE id = $2`,
			domain.LoanPaid, loanID)
		if err != nil {
			return nil, fmt.Errorf("mark loan paid: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.logger.Info("payment recorded",
		zap.String("loan_id", loanID),
		zap.String("tenant_id", tenantID),
		zap.Float64("amount", amount))

	return s.GetLoan(ctx, tenantID, loanID)
}
