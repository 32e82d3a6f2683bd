package service_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/emprestai/emprestai-go/internal/domain"
	"github.com/emprestai/emprestai-go/internal/service"
)

// --- Mocks ---

type mockClientStore struct {
	client *domain.Client
	err    error

	createdClient *domain.Client
	createdAddrs  []domain.AddressInput
	updatedDiff   domain.AddressDiff
}

func (m *mockClientStore) ListClients(_ context.Context, _ string, _ domain.Filter, _ domain.Page) ([]domain.Client, int, error) {
	return []domain.Client{}, 0, m.err
}

func (m *mockClientStore) GetClient(_ context.Context, _, clientID string) (*domain.Client, error) {
	if m.client == nil {
		return nil, &domain.ErrNotFound{Resource: "client", ID: clientID}
	}
	return m.client, m.err
}

func (m *mockClientStore) CreateClient(_ context.Context, c *domain.Client, addrs []domain.AddressInput) (*domain.Client, error) {
	m.createdClient = c
	m.createdAddrs = addrs
	if m.err != nil {
		return nil, m.err
	}
	c.ID = "client-1"
	return c, nil
}

func (m *mockClientStore) UpdateClient(_ context.Context, c *domain.Client, diff domain.AddressDiff) (*domain.Client, error) {
	m.updatedDiff = diff
	return c, m.err
}

func (m *mockClientStore) DeleteClient(_ context.Context, _, _ string) error {
	return m.err
}

// --- Tests ---

func TestClientCreate_NormalizesDocumentAndAddresses(t *testing.T) {
	store := &mockClientStore{}
	svc := service.NewClientService(store, zap.NewNop())

	created, err := svc.Create(context.Background(), tenantAuth, &domain.ClientInput{
		FirstName: "João",
		LastName:  "Pereira",
		Document:  "123.456.789-09",
		Addresses: []domain.AddressInput{
			{Street: "Rua do Sol", City: "Recife", State: "pe", PostalCode: "1020-000"},
		},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if created.Document != "12345678909" {
		t.Errorf("expected digits-only document, got %q", created.Document)
	}
	if created.DocumentType != "cpf" {
		t.Errorf("expected default document type cpf, got %q", created.DocumentType)
	}
	if len(store.createdAddrs) != 1 {
		t.Fatalf("expected 1 address, got %d", len(store.createdAddrs))
	}
	addr := store.createdAddrs[0]
	if addr.PostalCode != "01020000" {
		t.Errorf("expected zero-padded postal code, got %q", addr.PostalCode)
	}
	if addr.State != "PE" {
		t.Errorf("expected upper-cased state, got %q", addr.State)
	}
	if addr.Label != domain.AddressPrimary {
		t.Errorf("expected default label, got %q", addr.Label)
	}
}

func TestClientCreate_ValidationFailures(t *testing.T) {
	cases := []struct {
		name  string
		in    domain.ClientInput
		field string
	}{
		{"missing first name", domain.ClientInput{LastName: "P", Document: "123"}, "firstName"},
		{"missing last name", domain.ClientInput{FirstName: "J", Document: "123"}, "lastName"},
		{"missing document", domain.ClientInput{FirstName: "J", LastName: "P"}, "document"},
		{"non-numeric document", domain.ClientInput{FirstName: "J", LastName: "P", Document: "abc"}, "document"},
		{"bad birth date", domain.ClientInput{FirstName: "J", LastName: "P", Document: "123", BirthDate: "31/01/1990"}, "birthDate"},
		{"address without street", domain.ClientInput{FirstName: "J", LastName: "P", Document: "123",
			Addresses: []domain.AddressInput{{City: "Recife"}}}, "addresses"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &mockClientStore{}
			svc := service.NewClientService(store, zap.NewNop())

			_, err := svc.Create(context.Background(), tenantAuth, &tc.in)

			var validation *domain.ErrValidation
			if !errors.As(err, &validation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if validation.Field != tc.field {
				t.Errorf("expected field %q, got %q", tc.field, validation.Field)
			}
			if store.createdClient != nil {
				t.Error("store was called despite invalid input")
			}
		})
	}
}

func TestClientUpdate_DiffsAddressesAgainstStored(t *testing.T) {
	store := &mockClientStore{client: &domain.Client{
		ID:       "client-1",
		TenantID: "tenant-1",
		Addresses: []domain.Address{
			{ID: "addr-1", Street: "Rua A", City: "Recife"},
			{ID: "addr-2", Street: "Rua B", City: "Olinda"},
		},
	}}
	svc := service.NewClientService(store, zap.NewNop())

	_, err := svc.Update(context.Background(), tenantAuth, "client-1", &domain.ClientInput{
		FirstName: "João",
		LastName:  "Pereira",
		Document:  "12345678909",
		Addresses: []domain.AddressInput{
			{ID: "addr-1", Street: "Rua A", City: "Recife"},
			{Street: "Rua Nova", City: "Paulista"},
		},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	diff := store.updatedDiff
	if len(diff.Update) != 1 || diff.Update[0].ID != "addr-1" {
		t.Errorf("expected addr-1 updated, got %+v", diff.Update)
	}
	if len(diff.Insert) != 1 || diff.Insert[0].Street != "Rua Nova" {
		t.Errorf("expected Rua Nova inserted, got %+v", diff.Insert)
	}
	if len(diff.Delete) != 1 || diff.Delete[0] != "addr-2" {
		t.Errorf("expected addr-2 deleted, got %+v", diff.Delete)
	}
}

func TestClientOps_RequireTenantContext(t *testing.T) {
	svc := service.NewClientService(&mockClientStore{}, zap.NewNop())
	noTenant := domain.AuthContext{UserID: "root", Role: domain.RoleSuperAdmin}

	var forbidden *domain.ErrForbidden
	if _, _, err := svc.List(context.Background(), noTenant, domain.ClientListQuery{}); !errors.As(err, &forbidden) {
		t.Errorf("List: expected forbidden, got %v", err)
	}
	if _, err := svc.Get(context.Background(), noTenant, "client-1"); !errors.As(err, &forbidden) {
		t.Errorf("Get: expected forbidden, got %v", err)
	}
	if err := svc.Delete(context.Background(), noTenant, "client-1"); !errors.As(err, &forbidden) {
		t.Errorf("Delete: expected forbidden, got %v", err)
	}
}
