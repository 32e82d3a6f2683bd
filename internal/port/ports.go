// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/emprestai/emprestai-go/internal/domain"
)

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// CepFetcher resolves Brazilian postal codes to street addresses.
type CepFetcher interface {
	Lookup(ctx context.Context, cep string) (*domain.CepResult, error)
}

// ClientStore defines the data operations for the client registry.
type ClientStore interface {
	ListClients(ctx context.Context, tenantID string, f domain.Filter, p domain.Page) ([]domain.Client, int, error)
	GetClient(ctx context.Context, tenantID, clientID string) (*domain.Client, error)
	CreateClient(ctx context.Context, c *domain.Client, addrs []domain.AddressInput) (*domain.Client, error)
	UpdateClient(ctx context.Context, c *domain.Client, diff domain.AddressDiff) (*domain.Client, error)
	DeleteClient(ctx context.Context, tenantID, clientID string) error
}

// LoanStore defines the data operations for loans, installments and
// payments. IssueLoan and RecordPayment run multi-statement transactions;
// any failure inside rolls back every write.
type LoanStore interface {
	ListLoans(ctx context.Context, tenantID string, f domain.Filter, p domain.Page) ([]domain.Loan, int, error)
	GetLoan(ctx context.Context, tenantID, loanID string) (*domain.Loan, error)
	IssueLoan(ctx context.Context, loan *domain.Loan, installments []domain.Installment) (*domain.Loan, error)
	UpdateLoan(ctx context.Context, tenantID, loanID string, upd domain.LoanUpdate) (*domain.Loan, error)
	DeleteLoan(ctx context.Context, tenantID, loanID string) error
	ListInstallments(ctx context.Context, tenantID, loanID string) ([]domain.Installment, error)
	RecordPayment(ctx context.Context, tenantID, loanID string, amount float64, description string) (*domain.Loan, error)
}

// AccountStore defines the data operations for accounts and the ledger.
type AccountStore interface {
	CreateAccount(ctx context.Context, a *domain.Account) (*domain.Account, error)
	ListAccounts(ctx context.Context, tenantID string) ([]domain.Account, error)
	GetAccount(ctx context.Context, tenantID, accountID string) (*domain.Account, error)
	Deposit(ctx context.Context, tenantID, accountID string, amount float64, description string) (*domain.Account, error)
	Withdraw(ctx context.Context, tenantID, accountID string, amount float64, description string) (*domain.Account, error)
	ListTransactions(ctx context.Context, tenantID string, f domain.Filter, p domain.Page) ([]domain.AccountTransaction, int, error)
}

// UserStore defines the data operations for operator accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User, addr *domain.AddressInput) (*domain.User, error)
	ListUsers(ctx context.Context, tenantID string, f domain.Filter, p domain.Page) ([]domain.User, int, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, u *domain.User, addr *domain.AddressInput) (*domain.User, error)
	DeleteUser(ctx context.Context, tenantID, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// TenantStore defines the data operations for the super-admin console.
// ProvisionTenant runs the onboarding transaction.
type TenantStore interface {
	ProvisionTenant(ctx context.Context, t *domain.Tenant, admin *domain.User, addr *domain.AddressInput) (*domain.Tenant, error)
	ListTenants(ctx context.Context, f domain.Filter, p domain.Page) ([]domain.Tenant, int, error)
	GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error)
	GetTenantByEmail(ctx context.Context, email string) (*domain.Tenant, error)
	UpdateTenant(ctx context.Context, tenantID string, upd domain.TenantUpdate, events []domain.SubscriptionEvent) (*domain.Tenant, error)
	DeleteTenant(ctx context.Context, tenantID string) error
	ListSubscriptionEvents(ctx context.Context, tenantID string) ([]domain.SubscriptionEvent, error)
}

// AuthStore defines the data operations for token management.
type AuthStore interface {
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// ReportStore defines the read-only aggregate queries behind the dashboard.
type ReportStore interface {
	CountLoans(ctx context.Context, tenantID, status string) (int, error)
	OutstandingPrincipal(ctx context.Context, tenantID string) (float64, error)
	TotalReceived(ctx context.Context, tenantID string) (float64, error)
	TotalAccountBalance(ctx context.Context, tenantID string) (float64, error)
	CountClients(ctx context.Context, tenantID string) (int, error)
	Evolution(ctx context.Context, tenantID string, months int) ([]domain.EvolutionPoint, error)
}
