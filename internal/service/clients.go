package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/emprestai/emprestai-go/internal/domain"
	"github.com/emprestai/emprestai-go/internal/port"
)

var clientTracer = otel.Tracer("service/clients")

// ClientService manages the borrower registry.
type ClientService struct {
	store  port.ClientStore
	logger *zap.Logger
}

// NewClientService creates a new client service.
func NewClientService(store port.ClientStore, logger *zap.Logger) *ClientService {
	return &ClientService{store: store, logger: logger}
}

// clientSearchColumns are the columns the free-text search matches against.
var clientSearchColumns = []string{"c.first_name", "c.last_name", "c.email", "c.phone", "c.document"}

func (s *ClientService) List(ctx context.Context, auth domain.AuthContext, q domain.ClientListQuery) ([]domain.Client, domain.Meta, error) {
	ctx, span := clientTracer.Start(ctx, "ClientService.List")
	defer span.End()

	if auth.TenantID == "" {
		return nil, domain.Meta{}, &domain.ErrForbidden{Action: "list clients without tenant context"}
	}

	filter := domain.SearchAcross(q.Search, clientSearchColumns,
		domain.Equals{Field: "c.first_name", Value: q.Name},
		domain.Equals{Field: "a.city", Value: q.City},
		domain.Equals{Field: "a.district", Value: q.District},
	)
	page := domain.Page{Number: q.Page, Size: q.PageSize}

	clients, total, err := s.store.ListClients(ctx, auth.TenantID, filter, page)
	if err != nil {
		return nil, domain.Meta{}, fmt.Errorf("list clients: %w", err)
	}
	return clients, domain.MetaFor(page, total), nil
}

func (s *ClientService) Get(ctx context.Context, auth domain.AuthContext, clientID string) (*domain.Client, error) {
	ctx, span := clientTracer.Start(ctx, "ClientService.Get")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", clientID))

	if auth.TenantID == "" {
		return nil, &domain.ErrForbidden{Action: "read client without tenant context"}
	}
	return s.store.GetClient(ctx, auth.TenantID, clientID)
}

func (s *ClientService) Create(ctx context.Context, auth domain.AuthContext, in *domain.ClientInput) (*domain.Client, error) {
	ctx, span := clientTracer.Start(ctx, "ClientService.Create")
	defer span.End()

	if auth.TenantID == "" {
		return nil, &domain.ErrForbidden{Action: "create client without tenant context"}
	}

	c, addrs, err := s.buildClient(auth.TenantID, in)
	if err != nil {
		return nil, err
	}

	created, err := s.store.CreateClient(ctx, c, addrs)
	if err != nil {
		return nil, err
	}

	s.logger.Info("client created",
		zap.String("client_id", created.ID),
		zap.String("tenant_id", auth.TenantID))
	return created, nil
}

func (s *ClientService) Update(ctx context.Context, auth domain.AuthContext, clientID string, in *domain.ClientInput) (*domain.Client, error) {
	ctx, span := clientTracer.Start(ctx, "ClientService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", clientID))

	if auth.TenantID == "" {
		return nil, &domain.ErrForbidden{Action: "update client without tenant context"}
	}

	existing, err := s.store.GetClient(ctx, auth.TenantID, clientID)
	if err != nil {
		return nil, err
	}

	c, addrs, err := s.buildClient(auth.TenantID, in)
	if err != nil {
		return nil, err
	}
	c.ID = clientID

	diff := DiffAddresses(existing.Addresses, addrs)
	updated, err := s.store.UpdateClient(ctx, c, diff)
	if err != nil {
		return nil, err
	}

	s.logger.Info("client updated",
		zap.String("client_id", clientID),
		zap.Int("addresses_updated", len(diff.Update)),
		zap.Int("addresses_inserted", len(diff.Insert)),
		zap.Int("addresses_deleted", len(diff.Delete)))
	return updated, nil
}

func (s *ClientService) Delete(ctx context.Context, auth domain.AuthContext, clientID string) error {
	ctx, span := clientTracer.Start(ctx, "ClientService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", clientID))

	if auth.TenantID == "" {
		return &domain.ErrForbidden{Action: "delete client without tenant context"}
	}
	if err := s.store.DeleteClient(ctx, auth.TenantID, clientID); err != nil {
		return err
	}
	s.logger.Info("client deleted", zap.String("client_id", clientID))
	return nil
}

// buildClient validates input and applies the storage invariants: document
// digits-only, normalized addresses.
func (s *ClientService) buildClient(tenantID string, in *domain.ClientInput) (*domain.Client, []domain.AddressInput, error) {
	if strings.TrimSpace(in.FirstName) == "" {
		return nil, nil, &domain.ErrValidation{Field: "firstName", Message: "required"}
	}
	if strings.TrimSpace(in.LastName) == "" {
		return nil, nil, &domain.ErrValidation{Field: "lastName", Message: "required"}
	}

	document := digitsOnly(in.Document)
	if document == "" {
		return nil, nil, &domain.ErrValidation{Field: "document", Message: "required"}
	}
	documentType := in.DocumentType
	if documentType == "" {
		documentType = "cpf"
	}

	c := &domain.Client{
		TenantID:     tenantID,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        strings.TrimSpace(in.Email),
		Phone:        in.Phone,
		Document:     document,
		DocumentType: documentType,
		Notes:        in.Notes,
	}

	if in.BirthDate != "" {
		bd, err := time.Parse("2006-01-02", in.BirthDate)
		if err != nil {
			return nil, nil, &domain.ErrValidation{Field: "birthDate", Message: "expected YYYY-MM-DD"}
		}
		c.BirthDate = &bd
	}

	for _, a := range in.Addresses {
		if strings.TrimSpace(a.Street) == "" || strings.TrimSpace(a.City) == "" {
			return nil, nil, &domain.ErrValidation{Field: "addresses", Message: "street and city are required"}
		}
	}
	return c, normalizeAddresses(in.Addresses), nil
}
