package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/emprestai/emprestai-go/internal/domain"
	"github.com/emprestai/emprestai-go/internal/infra/observability"
	"github.com/emprestai/emprestai-go/internal/port"
)

var loanTracer = otel.Tracer("service/loans")

// maxInstallments bounds a schedule; beyond this the request is almost
// certainly a typo.
const maxInstallments = 120

// LoanService orchestrates loan issuance, payments and lifecycle updates.
type LoanService struct {
	store   port.LoanStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewLoanService creates a new loan service.
func NewLoanService(store port.LoanStore, metrics *observability.Metrics, logger *zap.Logger) *LoanService {
	return &LoanService{store: store, metrics: metrics, logger: logger}
}

var loanSearchColumns = []string{"c.first_name", "c.last_name", "c.document", "l.notes"}

func (s *LoanService) List(ctx context.Context, auth domain.AuthContext, q domain.LoanListQuery) ([]domain.Loan, domain.Meta, error) {
	ctx, span := loanTracer.Start(ctx, "LoanService.List")
	defer span.End()

	if auth.TenantID == "" {
		return nil, domain.Meta{}, &domain.ErrForbidden{Action: "list loans without tenant context"}
	}

	filter := domain.SearchAcross(q.Search, loanSearchColumns,
		domain.Equals{Field: "l.status", Value: q.Status},
		domain.Equals{Field: "l.client_id", Value: q.ClientID},
	)
	page := domain.Page{Number: q.Page, Size: q.PageSize}

	loans, total, err := s.store.ListLoans(ctx, auth.TenantID, filter, page)
	if err != nil {
		return nil, domain.Meta{}, fmt.Errorf("list loans: %w", err)
	}
	return loans, domain.MetaFor(page, total), nil
}

func (s *LoanService) Get(ctx context.Context, auth domain.AuthContext, loanID string) (*domain.Loan, error) {
	ctx, span := loanTracer.Start(ctx, "LoanService.Get")
	defer span.End()
	span.SetAttributes(attribute.String("loan.id", loanID))

	if auth.TenantID == "" {
		return nil, &domain.ErrForbidden{Action: "read loan without tenant context"}
	}
	return s.store.GetLoan(ctx, auth.TenantID, loanID)
}

// Issue validates the request, computes the total and the installment
// schedule, and hands the store one atomic disbursement: loan + schedule +
// conditional balance debit + ledger entry.
func (s *LoanService) Issue(ctx context.Context, auth domain.AuthContext, req *domain.LoanRequest) (*domain.Loan, error) {
	ctx, span := loanTracer.Start(ctx, "LoanService.Issue")
	defer span.End()
	span.SetAttributes(
		attribute.String("client.id", req.ClientID),
		attribute.Float64("principal", req.PrincipalAmount),
	)

	if auth.TenantID == "" {
		return nil, &domain.ErrForbidden{Action: "issue loan without tenant context"}
	}
	if req.ClientID == "" {
		return nil, &domain.ErrValidation{Field: "clientId", Message: "required"}
	}
	if req.AccountID == "" {
		return nil, &domain.ErrValidation{Field: "accountId", Message: "required"}
	}
	if req.PrincipalAmount <= 0 {
		return nil, &domain.ErrValidation{Field: "principalAmount", Message: "must be positive"}
	}
	if req.InterestRate < 0 {
		return nil, &domain.ErrValidation{Field: "interestRate", Message: "must not be negative"}
	}

	installments := req.Installments
	if installments == 0 {
		installments = 1
	}
	if installments < 1 || installments > maxInstallments {
		return nil, &domain.ErrValidation{Field: "installments", Message: fmt.Sprintf("must be between 1 and %d", maxInstallments)}
	}

	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		return nil, &domain.ErrValidation{Field: "dueDate", Message: "expected YYYY-MM-DD"}
	}

	loan := &domain.Loan{
		TenantID:        auth.TenantID,
		ClientID:        req.ClientID,
		AccountID:       req.AccountID,
		PrincipalAmount: req.PrincipalAmount,
		InterestRate:    req.InterestRate,
		TotalAmount:     req.PrincipalAmount * (1 + req.InterestRate/100),
		DueDate:         dueDate,
		Status:          domain.LoanActive,
		Notes:           req.Notes,
	}
	schedule := BuildSchedule(req.PrincipalAmount, req.InterestRate, dueDate, installments)

	created, err := s.store.IssueLoan(ctx, loan, schedule)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLoanIssued(req.PrincipalAmount)
	s.logger.Info("loan issued",
		zap.String("loan_id", created.ID),
		zap.String("tenant_id", auth.TenantID),
		zap.Float64("principal", req.PrincipalAmount),
		zap.Int("installments", installments))
	return created, nil
}

func (s *LoanService) Update(ctx context.Context, auth domain.AuthContext, loanID string, upd domain.LoanUpdate) (*domain.Loan, error) {
	ctx, span := loanTracer.Start(ctx, "LoanService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("loan.id", loanID))

	if auth.TenantID == "" {
		return nil, &domain.ErrForbidden{Action: "update loan without tenant context"}
	}
	if upd.Status == nil && upd.DueDate == nil && upd.Notes == nil {
		return nil, &domain.ErrValidation{Field: "body", Message: "no fields to update"}
	}
	if upd.Status != nil && !validLoanStatus(*upd.Status) {
		return nil, &domain.ErrValidation{Field: "status", Message: "unknown status"}
	}
	if upd.DueDate != nil {
		if _, err := time.Parse("2006-01-02", *upd.DueDate); err != nil {
			return nil, &domain.ErrValidation{Field: "dueDate", Message: "expected YYYY-MM-DD"}
		}
	}
	return s.store.UpdateLoan(ctx, auth.TenantID, loanID, upd)
}

func (s *LoanService) Delete(ctx context.Context, auth domain.AuthContext, loanID string) error {
	ctx, span := loanTracer.Start(ctx, "LoanService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("loan.id", loanID))

	if auth.TenantID == "" {
		return &domain.ErrForbidden{Action: "delete loan without tenant context"}
	}
	if err := s.store.DeleteLoan(ctx, auth.TenantID, loanID); err != nil {
		return err
	}
	s.logger.Info("loan deleted", zap.String("loan_id", loanID))
	return nil
}

func (s *LoanService) Installments(ctx context.Context, auth domain.AuthContext, loanID string) ([]domain.Installment, error) {
	ctx, span := loanTracer.Start(ctx, "LoanService.Installments")
	defer span.End()

	if auth.TenantID == "" {
		return nil, &domain.ErrForbidden{Action: "list installments without tenant context"}
	}
	return s.store.ListInstallments(ctx, auth.TenantID, loanID)
}

// Pay records a payment against the loan's earliest open installments.
func (s *LoanService) Pay(ctx context.Context, auth domain.AuthContext, loanID string, req *domain.PaymentRequest) (*domain.Loan, error) {
	ctx, span := loanTracer.Start(ctx, "LoanService.Pay")
	defer span.End()
	span.SetAttributes(
		attribute.String("loan.id", loanID),
		attribute.Float64("amount", req.Amount),
	)

	if auth.TenantID == "" {
		return nil, &domain.ErrForbidden{Action: "record payment without tenant context"}
	}
	if req.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}

	description := req.Description
	if description == "" {
		description = "loan payment"
	}

	loan, err := s.store.RecordPayment(ctx, auth.TenantID, loanID, req.Amount, description)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordPayment(req.Amount)
	s.logger.Info("payment recorded",
		zap.String("loan_id", loanID),
		zap.Float64("amount", req.Amount),
		zap.String("status", loan.Status))
	return loan, nil
}

func validLoanStatus(status string) bool {
	switch status {
	case domain.LoanActive, domain.LoanDueSoon, domain.LoanOverdue,
		domain.LoanPaid, domain.LoanDefaulted, domain.LoanRenegotiated,
		domain.LoanWrittenOff:
		return true
	}
	return false
}
