package service

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/emprestai/emprestai-go/internal/domain"
	"github.com/emprestai/emprestai-go/internal/port"
)

var accountTracer = otel.Tracer("service/accounts")

// AccountService manages working-capital accounts and the ledger.
type AccountService struct {
	store  port.AccountStore
	logger *zap.Logger
}

// NewAccountService creates a new account service.
func NewAccountService(store port.AccountStore, logger *zap.Logger) *AccountService {
	return &AccountService{store: store, logger: logger}
}

func (s *AccountService) Create(ctx context.Context, auth domain.AuthContext, in *domain.AccountInput) (*domain.Account, error) {
	ctx, span := accountTracer.Start(ctx, "AccountService.Create")
	defer span.End()

	if auth.TenantID == "" {
		return nil, &domain.ErrForbidden{Action: "create account without tenant context"}
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if in.InitialBalance < 0 {
		return nil, &domain.ErrValidation{Field: "initialBalance", Message: "must not be negative"}
	}

	account, err := s.store.CreateAccount(ctx, &domain.Account{
		TenantID:       auth.TenantID,
		Name:           strings.TrimSpace(in.Name),
		BankName:       in.BankName,
		Branch:         in.Branch,
		AccountNumber:  in.AccountNumber,
		CurrentBalance: in.InitialBalance,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("account created",
		zap.String("account_id", account.ID),
		zap.String("tenant_id", auth.TenantID))
	return account, nil
}

func (s *AccountService) List(ctx context.Context, auth domain.AuthContext) ([]domain.Account, error) {
	ctx, span := accountTracer.Start(ctx, "AccountService.List")
	defer span.End()

	if auth.TenantID == "" {
		return nil, &domain.ErrForbidden{Action: "list accounts without tenant context"}
	}
	return s.store.ListAccounts(ctx, auth.TenantID)
}

func (s *AccountService) Get(ctx context.Context, auth domain.AuthContext, accountID string) (*domain.Account, error) {
	ctx, span := accountTracer.Start(ctx, "AccountService.Get")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	if auth.TenantID == "" {
		return nil, &domain.ErrForbidden{Action: "read account without tenant context"}
	}
	return s.store.GetAccount(ctx, auth.TenantID, accountID)
}

func (s *AccountService) Deposit(ctx context.Context, auth domain.AuthContext, accountID string, req *domain.MovementRequest) (*domain.Account, error) {
	ctx, span := accountTracer.Start(ctx, "AccountService.Deposit")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	if auth.TenantID == "" {
		return nil, &domain.ErrForbidden{Action: "deposit without tenant context"}
	}
	if req.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}

	description := req.Description
	if description == "" {
		description = "deposit"
	}

	account, err := s.store.Deposit(ctx, auth.TenantID, accountID, req.Amount, description)
	if err != nil {
		return nil, err
	}

	s.logger.Info("deposit recorded",
		zap.String("account_id", accountID),
		zap.Float64("amount", req.Amount))
	return account, nil
}

func (s *AccountService) Withdraw(ctx context.Context, auth domain.AuthContext, accountID string, req *domain.MovementRequest) (*domain.Account, error) {
	ctx, span := accountTracer.Start(ctx, "AccountService.Withdraw")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	if auth.TenantID == "" {
		return nil, &domain.ErrForbidden{Action: "withdraw without tenant context"}
	}
	if req.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}

	description := req.Description
	if description == "" {
		description = "withdrawal"
	}

	account, err := s.store.Withdraw(ctx, auth.TenantID, accountID, req.Amount, description)
	if err != nil {
		return nil, err
	}

	s.logger.Info("withdrawal recorded",
		zap.String("account_id", accountID),
		zap.Float64("amount", req.Amount))
	return account, nil
}

func (s *AccountService) Transactions(ctx context.Context, auth domain.AuthContext, q domain.TransactionListQuery) ([]domain.AccountTransaction, domain.Meta, error) {
	ctx, span := accountTracer.Start(ctx, "AccountService.Transactions")
	defer span.End()

	if auth.TenantID == "" {
		return nil, domain.Meta{}, &domain.ErrForbidden{Action: "list transactions without tenant context"}
	}

	filter := domain.SearchAcross("", nil,
		domain.Equals{Field: "account_id", Value: q.AccountID},
		domain.Equals{Field: "direction", Value: q.Direction},
		domain.Equals{Field: "loan_id", Value: q.LoanID},
	)
	page := domain.Page{Number: q.Page, Size: q.PageSize}

	txs, total, err := s.store.ListTransactions(ctx, auth.TenantID, filter, page)
	if err != nil {
		return nil, domain.Meta{}, fmt.Errorf("list transactions: %w", err)
	}
	return txs, domain.MetaFor(page, total), nil
}
