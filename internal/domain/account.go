package domain

import "time"

// Ledger entry directions.
const (
	DirectionDebit  = "debit"
	DirectionCredit = "credit"
)

// Account holds a tenant's working capital. CurrentBalance is adjusted by
// deposits, withdrawals, loan disbursements and payments; it never goes
// negative (guarded by a conditional decrement in the store).
type Account struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenantId"`
	Name           string    `json:"name"`
	BankName       string    `json:"bankName,omitempty"`
	Branch         string    `json:"branch,omitempty"`
	AccountNumber  string    `json:"accountNumber,omitempty"`
	CurrentBalance float64   `json:"currentBalance"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// AccountInput carries the fields accepted on account create.
type AccountInput struct {
	Name           string  `json:"name"`
	BankName       string  `json:"bankName,omitempty"`
	Branch         string  `json:"branch,omitempty"`
	AccountNumber  string  `json:"accountNumber,omitempty"`
	InitialBalance float64 `json:"initialBalance,omitempty"`
}

// AccountTransaction is an immutable ledger entry recorded for every
// balance-affecting event. Append-only: never updated or deleted.
type AccountTransaction struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenantId"`
	AccountID   string    `json:"accountId"`
	Direction   string    `json:"direction"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	LoanID      *string   `json:"loanId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MovementRequest carries the amount for a deposit or withdrawal.
type MovementRequest struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
}

// TransactionListQuery holds the ledger list endpoint's filter and
// pagination inputs.
type TransactionListQuery struct {
	AccountID string
	Direction string
	LoanID    string
	Page      int
	PageSize  int
}
