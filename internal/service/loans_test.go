package service_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/emprestai/emprestai-go/internal/domain"
	"github.com/emprestai/emprestai-go/internal/infra/observability"
	"github.com/emprestai/emprestai-go/internal/service"
)

// --- Mocks ---

type mockLoanStore struct {
	loan *domain.Loan
	err  error

	issuedLoan         *domain.Loan
	issuedInstallments []domain.Installment

	paidLoanID string
	paidAmount float64
}

func (m *mockLoanStore) ListLoans(_ context.Context, _ string, _ domain.Filter, _ domain.Page) ([]domain.Loan, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	return []domain.Loan{}, 0, nil
}

func (m *mockLoanStore) GetLoan(_ context.Context, _, _ string) (*domain.Loan, error) {
	return m.loan, m.err
}

func (m *mockLoanStore) IssueLoan(_ context.Context, loan *domain.Loan, installments []domain.Installment) (*domain.Loan, error) {
	m.issuedLoan = loan
	m.issuedInstallments = installments
	if m.err != nil {
		return nil, m.err
	}
	loan.ID = "loan-1"
	return loan, nil
}

func (m *mockLoanStore) UpdateLoan(_ context.Context, _, _ string, _ domain.LoanUpdate) (*domain.Loan, error) {
	return m.loan, m.err
}

func (m *mockLoanStore) DeleteLoan(_ context.Context, _, _ string) error {
	return m.err
}

func (m *mockLoanStore) ListInstallments(_ context.Context, _, _ string) ([]domain.Installment, error) {
	return nil, m.err
}

func (m *mockLoanStore) RecordPayment(_ context.Context, _, loanID string, amount float64, _ string) (*domain.Loan, error) {
	m.paidLoanID = loanID
	m.paidAmount = amount
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Loan{ID: loanID, Status: domain.LoanActive}, nil
}

var tenantAuth = domain.AuthContext{UserID: "user-1", TenantID: "tenant-1", Role: domain.RoleAdmin}

func newLoanService(store *mockLoanStore) *service.LoanService {
	return service.NewLoanService(store, observability.NewMetrics(), zap.NewNop())
}

// --- Tests ---

func TestLoanIssue_Success(t *testing.T) {
	store := &mockLoanStore{}
	svc := newLoanService(store)

	loan, err := svc.Issue(context.Background(), tenantAuth, &domain.LoanRequest{
		ClientID:        "client-1",
		AccountID:       "account-1",
		PrincipalAmount: 1000,
		InterestRate:    10,
		Installments:    2,
		DueDate:         "2026-09-15",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if loan.ID != "loan-1" {
		t.Errorf("expected loan id 'loan-1', got %q", loan.ID)
	}
	if math.Abs(store.issuedLoan.TotalAmount-1100) > 1e-9 {
		t.Errorf("expected total 1100, got %f", store.issuedLoan.TotalAmount)
	}
	if store.issuedLoan.Status != domain.LoanActive {
		t.Errorf("expected status active, got %s", store.issuedLoan.Status)
	}
	if len(store.issuedInstallments) != 2 {
		t.Fatalf("expected 2 installments, got %d", len(store.issuedInstallments))
	}
	if math.Abs(store.issuedInstallments[0].TotalDue-550) > 1e-9 {
		t.Errorf("expected installment total 550, got %f", store.issuedInstallments[0].TotalDue)
	}
}

func TestLoanIssue_DefaultsToSingleInstallment(t *testing.T) {
	store := &mockLoanStore{}
	svc := newLoanService(store)

	_, err := svc.Issue(context.Background(), tenantAuth, &domain.LoanRequest{
		ClientID:        "client-1",
		AccountID:       "account-1",
		PrincipalAmount: 500,
		DueDate:         "2026-09-15",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(store.issuedInstallments) != 1 {
		t.Errorf("expected 1 installment, got %d", len(store.issuedInstallments))
	}
}

func TestLoanIssue_ValidationFailuresNeverReachStore(t *testing.T) {
	cases := []struct {
		name string
		req  domain.LoanRequest
	}{
		{"missing client", domain.LoanRequest{AccountID: "a", PrincipalAmount: 100, DueDate: "2026-09-15"}},
		{"missing account", domain.LoanRequest{ClientID: "c", PrincipalAmount: 100, DueDate: "2026-09-15"}},
		{"zero principal", domain.LoanRequest{ClientID: "c", AccountID: "a", DueDate: "2026-09-15"}},
		{"negative rate", domain.LoanRequest{ClientID: "c", AccountID: "a", PrincipalAmount: 100, InterestRate: -1, DueDate: "2026-09-15"}},
		{"too many installments", domain.LoanRequest{ClientID: "c", AccountID: "a", PrincipalAmount: 100, Installments: 121, DueDate: "2026-09-15"}},
		{"bad due date", domain.LoanRequest{ClientID: "c", AccountID: "a", PrincipalAmount: 100, DueDate: "15/09/2026"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &mockLoanStore{}
			svc := newLoanService(store)

			_, err := svc.Issue(context.Background(), tenantAuth, &tc.req)

			var validation *domain.ErrValidation
			if !errors.As(err, &validation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if store.issuedLoan != nil {
				t.Error("store was called despite invalid request")
			}
		})
	}
}

func TestLoanIssue_RequiresTenantContext(t *testing.T) {
	svc := newLoanService(&mockLoanStore{})

	_, err := svc.Issue(context.Background(), domain.AuthContext{UserID: "u", Role: domain.RoleSuperAdmin}, &domain.LoanRequest{
		ClientID:        "client-1",
		AccountID:       "account-1",
		PrincipalAmount: 100,
		DueDate:         "2026-09-15",
	})

	var forbidden *domain.ErrForbidden
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestLoanIssue_InsufficientFundsPassesThrough(t *testing.T) {
	store := &mockLoanStore{err: &domain.ErrInsufficientFunds{Available: 50, Required: 100}}
	svc := newLoanService(store)

	_, err := svc.Issue(context.Background(), tenantAuth, &domain.LoanRequest{
		ClientID:        "client-1",
		AccountID:       "account-1",
		PrincipalAmount: 100,
		DueDate:         "2026-09-15",
	})

	var insufficient *domain.ErrInsufficientFunds
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected insufficient funds error, got %v", err)
	}
}

func TestLoanPay_Success(t *testing.T) {
	store := &mockLoanStore{}
	svc := newLoanService(store)

	_, err := svc.Pay(context.Background(), tenantAuth, "loan-1", &domain.PaymentRequest{Amount: 550})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if store.paidLoanID != "loan-1" || store.paidAmount != 550 {
		t.Errorf("expected payment of 550 on loan-1, got %f on %q", store.paidAmount, store.paidLoanID)
	}
}

func TestLoanPay_RejectsNonPositiveAmount(t *testing.T) {
	store := &mockLoanStore{}
	svc := newLoanService(store)

	_, err := svc.Pay(context.Background(), tenantAuth, "loan-1", &domain.PaymentRequest{Amount: 0})

	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if store.paidLoanID != "" {
		t.Error("store was called despite invalid amount")
	}
}

func TestLoanUpdate_RejectsUnknownStatus(t *testing.T) {
	svc := newLoanService(&mockLoanStore{})

	bogus := "liquidated"
	_, err := svc.Update(context.Background(), tenantAuth, "loan-1", domain.LoanUpdate{Status: &bogus})

	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoanUpdate_RejectsEmptyBody(t *testing.T) {
	svc := newLoanService(&mockLoanStore{})

	_, err := svc.Update(context.Background(), tenantAuth, "loan-1", domain.LoanUpdate{})

	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
