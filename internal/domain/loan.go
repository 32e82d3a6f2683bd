package domain

import "time"

// Loan statuses.
const (
	LoanActive       = "active"
	LoanDueSoon      = "due_soon"
	LoanOverdue      = "overdue"
	LoanPaid         = "paid"
	LoanDefaulted    = "defaulted"
	LoanRenegotiated = "renegotiated"
	LoanWrittenOff   = "written_off"
)

// Installment statuses.
const (
	InstallmentPending = "pending"
	InstallmentPartial = "partial"
	InstallmentPaid    = "paid"
)

// Loan is a flat-interest loan disbursed from an account to a client.
// Total amount owed = PrincipalAmount * (1 + InterestRate/100).
type Loan struct {
	ID              string        `json:"id"`
	TenantID        string        `json:"tenantId"`
	ClientID        string        `json:"clientId"`
	AccountID       string        `json:"accountId"`
	PrincipalAmount float64       `json:"principalAmount"`
	InterestRate    float64       `json:"interestRate"`
	TotalAmount     float64       `json:"totalAmount"`
	DueDate         time.Time     `json:"dueDate"`
	Status          string        `json:"status"`
	Notes           string        `json:"notes,omitempty"`
	Client          *Client       `json:"client,omitempty"`
	Account         *Account      `json:"account,omitempty"`
	Installments    []Installment `json:"installments,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// Installment is one scheduled partial payment of a loan, ordered by
// Sequence (1..N). Interest and principal are split flat-equal across
// installments, not amortized.
type Installment struct {
	ID           string     `json:"id"`
	LoanID       string     `json:"loanId"`
	Sequence     int        `json:"sequence"`
	DueDate      time.Time  `json:"dueDate"`
	PrincipalDue float64    `json:"principalDue"`
	InterestDue  float64    `json:"interestDue"`
	TotalDue     float64    `json:"totalDue"`
	PaidAmount   float64    `json:"paidAmount"`
	Status       string     `json:"status"`
	PaidAt       *time.Time `json:"paidAt,omitempty"`
}

// LoanRequest carries the fields accepted on loan issuance.
// Installments defaults to 1 when omitted.
type LoanRequest struct {
	ClientID        string  `json:"clientId"`
	AccountID       string  `json:"accountId"`
	PrincipalAmount float64 `json:"principalAmount"`
	InterestRate    float64 `json:"interestRate"`
	DueDate         string  `json:"dueDate"`
	Installments    int     `json:"installments,omitempty"`
	Notes           string  `json:"notes,omitempty"`
}

// LoanUpdate carries the fields accepted on partial loan update.
// Nil pointers leave the column untouched.
type LoanUpdate struct {
	Status  *string `json:"status,omitempty"`
	DueDate *string `json:"dueDate,omitempty"`
	Notes   *string `json:"notes,omitempty"`
}

// LoanListQuery holds the loan list endpoint's filter and pagination inputs.
type LoanListQuery struct {
	Status   string
	ClientID string
	Search   string
	Page     int
	PageSize int
}

// PaymentRequest records a payment against a loan's earliest open
// installment.
type PaymentRequest struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
}
