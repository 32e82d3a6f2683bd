package postgres_test

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emprestai/emprestai-go/internal/domain"
	"github.com/emprestai/emprestai-go/internal/infra/postgres"
	"github.com/emprestai/emprestai-go/internal/service"
)

func setupStore(t *testing.T) *postgres.Store {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("requires DATABASE_URL")
	}

	ctx := context.Background()
	store, err := postgres.New(ctx, dsn, 4, zap.NewNop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(store.Close)

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

// provisionTenant creates an isolated tenant for one test; every row the test
// writes hangs off its id, so runs never collide.
func provisionTenant(t *testing.T, store *postgres.Store) *domain.Tenant {
	t.Helper()

	now := time.Now()
	tenant, err := store.ProvisionTenant(context.Background(),
		&domain.Tenant{
			BusinessName: "Test Lender " + uuid.NewString()[:8],
			Email:        uuid.NewString() + "@test.local",
			Plan:         domain.PlanFree,
			Status:       domain.TenantActive,
			TrialStartAt: now,
			TrialEndAt:   now.AddDate(0, 0, domain.TrialDays),
		},
		&domain.User{
			FirstName:    "Owner",
			LastName:     "Admin",
			Email:        uuid.NewString() + "@test.local",
			PasswordHash: "x",
		},
		nil)
	if err != nil {
		t.Fatalf("provision tenant: %v", err)
	}
	return tenant
}

func createClient(t *testing.T, store *postgres.Store, tenantID, first, last string) *domain.Client {
	t.Helper()

	c, err := store.CreateClient(context.Background(), &domain.Client{
		TenantID:     tenantID,
		FirstName:    first,
		LastName:     last,
		Document:     fmt.Sprintf("%011d", time.Now().UnixNano()%100000000000),
		DocumentType: "cpf",
	}, nil)
	if err != nil {
		t.Fatalf("create client %s %s: %v", first, last, err)
	}
	return c
}

func createFundedAccount(t *testing.T, store *postgres.Store, tenantID string, balance float64) *domain.Account {
	t.Helper()

	a, err := store.CreateAccount(context.Background(), &domain.Account{
		TenantID:       tenantID,
		Name:           "Operations",
		CurrentBalance: balance,
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return a
}

func issueLoan(t *testing.T, store *postgres.Store, tenantID, clientID, accountID string, principal, rate float64, installments int) *domain.Loan {
	t.Helper()

	dueDate := time.Now().AddDate(0, 1, 0).Truncate(24 * time.Hour)
	loan, err := store.IssueLoan(context.Background(), &domain.Loan{
		TenantID:        tenantID,
		ClientID:        clientID,
		AccountID:       accountID,
		PrincipalAmount: principal,
		InterestRate:    rate,
		TotalAmount:     principal * (1 + rate/100),
		DueDate:         dueDate,
		Status:          domain.LoanActive,
	}, service.BuildSchedule(principal, rate, dueDate, installments))
	if err != nil {
		t.Fatalf("issue loan: %v", err)
	}
	return loan
}

func TestListClients_NewestFirstWithConsistentTotal(t *testing.T) {
	store := setupStore(t)
	tenant := provisionTenant(t, store)
	ctx := context.Background()

	createClient(t, store, tenant.ID, "Ana", "Souza")
	createClient(t, store, tenant.ID, "Bruno", "Lima")
	newest := createClient(t, store, tenant.ID, "Carla", "Dias")

	page1, total, err := store.ListClients(ctx, tenant.ID, nil, domain.Page{Number: 1, Size: 2})
	if err != nil {
		t.Fatalf("list page 1: %v", err)
	}
	if total != 3 {
		t.Errorf("expected total 3, got %d", total)
	}
	if len(page1) != 2 {
		t.Fatalf("expected 2 clients on page 1, got %d", len(page1))
	}
	if page1[0].ID != newest.ID {
		t.Errorf("expected newest client %q first, got %q (%s %s)",
			newest.ID, page1[0].ID, page1[0].FirstName, page1[0].LastName)
	}

	page2, total2, err := store.ListClients(ctx, tenant.ID, nil, domain.Page{Number: 2, Size: 2})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if total2 != total {
		t.Errorf("total changed between pages: %d then %d", total, total2)
	}
	if len(page1)+len(page2) != total {
		t.Errorf("pages hold %d clients, total says %d", len(page1)+len(page2), total)
	}
}

func TestIssueLoan_LedgerEntryNamesBorrower(t *testing.T) {
	store := setupStore(t)
	tenant := provisionTenant(t, store)
	ctx := context.Background()

	client := createClient(t, store, tenant.ID, "Maria", "Oliveira")
	account := createFundedAccount(t, store, tenant.ID, 5000)
	loan := issueLoan(t, store, tenant.ID, client.ID, account.ID, 1000, 10, 3)

	txs, _, err := store.ListTransactions(ctx, tenant.ID, nil, domain.Page{Number: 1, Size: 10})
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}

	var entry *domain.AccountTransaction
	for i := range txs {
		if txs[i].LoanID != nil && *txs[i].LoanID == loan.ID && txs[i].Direction == domain.DirectionDebit {
			entry = &txs[i]
			break
		}
	}
	if entry == nil {
		t.Fatal("no disbursement ledger entry for the loan")
	}
	if !strings.Contains(entry.Description, "Maria Oliveira") {
		t.Errorf("ledger description %q does not name the borrower", entry.Description)
	}
	if !strings.Contains(entry.Description, "3 installments") {
		t.Errorf("ledger description %q does not carry the installment count", entry.Description)
	}
}

func TestRecordPayment_ExactTotalSettlesLoan(t *testing.T) {
	store := setupStore(t)
	tenant := provisionTenant(t, store)
	ctx := context.Background()

	client := createClient(t, store, tenant.ID, "Pedro", "Santos")
	account := createFundedAccount(t, store, tenant.ID, 5000)

	// Three installments of 1100 do not divide evenly in cents; the stored
	// schedule must still settle against a payment of exactly the total.
	loan := issueLoan(t, store, tenant.ID, client.ID, account.ID, 1000, 10, 3)

	var sum float64
	for _, in := range loan.Installments {
		sum += in.TotalDue
	}
	if math.Abs(sum-1100) > 1e-9 {
		t.Fatalf("stored schedule sums to %f, want 1100", sum)
	}

	paid, err := store.RecordPayment(ctx, tenant.ID, loan.ID, 1100, "settlement")
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if paid.Status != domain.LoanPaid {
		t.Errorf("expected loan status %q, got %q", domain.LoanPaid, paid.Status)
	}

	installments, err := store.ListInstallments(ctx, tenant.ID, loan.ID)
	if err != nil {
		t.Fatalf("list installments: %v", err)
	}
	for _, in := range installments {
		if in.Status != domain.InstallmentPaid {
			t.Errorf("installment %d status %q, want %q", in.Sequence, in.Status, domain.InstallmentPaid)
		}
	}
}
