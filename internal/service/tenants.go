package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/emprestai/emprestai-go/internal/domain"
	"github.com/emprestai/emprestai-go/internal/port"
)

var tenantTracer = otel.Tracer("service/tenants")

// TenantService implements the super-admin subscription console.
type TenantService struct {
	store  port.TenantStore
	users  port.UserStore
	logger *zap.Logger
}

// NewTenantService creates a new tenant service.
func NewTenantService(store port.TenantStore, users port.UserStore, logger *zap.Logger) *TenantService {
	return &TenantService{store: store, users: users, logger: logger}
}

// Provision onboards a tenant with a 15-day trial and its first admin user.
// Both emails are pre-checked before any row is written; the store then runs
// the creation in one transaction.
func (s *TenantService) Provision(ctx context.Context, auth domain.AuthContext, req *domain.ProvisionTenantRequest) (*domain.Tenant, error) {
	ctx, span := tenantTracer.Start(ctx, "TenantService.Provision")
	defer span.End()

	if !auth.IsSuperAdmin() {
		return nil, &domain.ErrForbidden{Action: "manage tenants"}
	}
	if strings.TrimSpace(req.BusinessName) == "" {
		return nil, &domain.ErrValidation{Field: "businessName", Message: "required"}
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "required"}
	}
	if strings.TrimSpace(req.AdminEmail) == "" {
		return nil, &domain.ErrValidation{Field: "adminEmail", Message: "required"}
	}
	if len(req.AdminPassword) < minPasswordLength {
		return nil, &domain.ErrValidation{Field: "adminPassword", Message: fmt.Sprintf("must have at least %d characters", minPasswordLength)}
	}

	existingTenant, err := s.store.GetTenantByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check tenant email: %w", err)
	}
	if existingTenant != nil {
		return nil, &domain.ErrValidation{Field: "email", Message: "already in use"}
	}
	existingUser, err := s.users.GetUserByEmail(ctx, req.AdminEmail)
	if err != nil {
		return nil, fmt.Errorf("check admin email: %w", err)
	}
	if existingUser != nil {
		return nil, &domain.ErrValidation{Field: "adminEmail", Message: "already in use"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.AdminPassword), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	tenant := &domain.Tenant{
		BusinessName: strings.TrimSpace(req.BusinessName),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        req.Phone,
		Document:     digitsOnly(req.Document),
		Plan:         domain.PlanFree,
		Status:       domain.TenantActive,
		TrialStartAt: now,
		TrialEndAt:   now.AddDate(0, 0, domain.TrialDays),
	}

	firstName, lastName := splitName(req.AdminName)
	admin := &domain.User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        strings.ToLower(strings.TrimSpace(req.AdminEmail)),
		Phone:        req.AdminPhone,
		Role:         domain.RoleAdmin,
		PasswordHash: string(hash),
	}

	var addr *domain.AddressInput
	if req.Address != nil {
		normalized := normalizeAddress(*req.Address)
		addr = &normalized
	}

	created, err := s.store.ProvisionTenant(ctx, tenant, admin, addr)
	if err != nil {
		return nil, err
	}

	s.logger.Info("tenant provisioned",
		zap.String("tenant_id", created.ID),
		zap.String("business_name", created.BusinessName),
		zap.Time("trial_end_at", created.TrialEndAt))
	return created, nil
}

func (s *TenantService) List(ctx context.Context, auth domain.AuthContext, q domain.TenantListQuery) ([]domain.Tenant, domain.Meta, error) {
	ctx, span := tenantTracer.Start(ctx, "TenantService.List")
	defer span.End()

	if !auth.IsSuperAdmin() {
		return nil, domain.Meta{}, &domain.ErrForbidden{Action: "manage tenants"}
	}

	filter := domain.SearchAcross(q.Search, []string{"business_name", "email", "document"},
		domain.Equals{Field: "plan", Value: q.Plan},
		domain.Equals{Field: "status", Value: q.Status},
	)
	page := domain.Page{Number: q.Page, Size: q.PageSize}

	tenants, total, err := s.store.ListTenants(ctx, filter, page)
	if err != nil {
		return nil, domain.Meta{}, fmt.Errorf("list tenants: %w", err)
	}
	return tenants, domain.MetaFor(page, total), nil
}

func (s *TenantService) Get(ctx context.Context, auth domain.AuthContext, tenantID string) (*domain.Tenant, error) {
	ctx, span := tenantTracer.Start(ctx, "TenantService.Get")
	defer span.End()
	span.SetAttributes(attribute.String("tenant.id", tenantID))

	if !auth.IsSuperAdmin() {
		return nil, &domain.ErrForbidden{Action: "manage tenants"}
	}
	return s.store.GetTenant(ctx, tenantID)
}

// Patch applies a partial tenant update. Plan and status changes append
// subscription audit events in the same transaction.
func (s *TenantService) Patch(ctx context.Context, auth domain.AuthContext, tenantID string, upd domain.TenantUpdate) (*domain.Tenant, error) {
	ctx, span := tenantTracer.Start(ctx, "TenantService.Patch")
	defer span.End()
	span.SetAttributes(attribute.String("tenant.id", tenantID))

	if !auth.IsSuperAdmin() {
		return nil, &domain.ErrForbidden{Action: "manage tenants"}
	}
	if upd.BusinessName == nil && upd.Phone == nil && upd.Plan == nil && upd.Status == nil {
		return nil, &domain.ErrValidation{Field: "body", Message: "no fields to update"}
	}
	if upd.Plan != nil && *upd.Plan != domain.PlanFree && *upd.Plan != domain.PlanPro {
		return nil, &domain.ErrValidation{Field: "plan", Message: "unknown plan"}
	}
	if upd.Status != nil && !validTenantStatus(*upd.Status) {
		return nil, &domain.ErrValidation{Field: "status", Message: "unknown status"}
	}

	existing, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var events []domain.SubscriptionEvent
	if upd.Plan != nil && *upd.Plan != existing.Plan {
		events = append(events, domain.SubscriptionEvent{
			Type:   domain.EventPlanChanged,
			Detail: fmt.Sprintf("%s -> %s", existing.Plan, *upd.Plan),
		})
	}
	if upd.Status != nil && *upd.Status != existing.Status {
		events = append(events, domain.SubscriptionEvent{
			Type:   domain.EventStatusChanged,
			Detail: fmt.Sprintf("%s -> %s", existing.Status, *upd.Status),
		})
	}

	updated, err := s.store.UpdateTenant(ctx, tenantID, upd, events)
	if err != nil {
		return nil, err
	}

	s.logger.Info("tenant updated",
		zap.String("tenant_id", tenantID),
		zap.Int("events", len(events)))
	return updated, nil
}

func (s *TenantService) Delete(ctx context.Context, auth domain.AuthContext, tenantID string) error {
	ctx, span := tenantTracer.Start(ctx, "TenantService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("tenant.id", tenantID))

	if !auth.IsSuperAdmin() {
		return &domain.ErrForbidden{Action: "manage tenants"}
	}
	if err := s.store.DeleteTenant(ctx, tenantID); err != nil {
		return err
	}
	s.logger.Info("tenant deleted", zap.String("tenant_id", tenantID))
	return nil
}

func (s *TenantService) Events(ctx context.Context, auth domain.AuthContext, tenantID string) ([]domain.SubscriptionEvent, error) {
	ctx, span := tenantTracer.Start(ctx, "TenantService.Events")
	defer span.End()

	if !auth.IsSuperAdmin() {
		return nil, &domain.ErrForbidden{Action: "manage tenants"}
	}
	if _, err := s.store.GetTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	return s.store.ListSubscriptionEvents(ctx, tenantID)
}

func validTenantStatus(status string) bool {
	switch status {
	case domain.TenantActive, domain.TenantPastDue, domain.TenantSuspended, domain.TenantCanceled:
		return true
	}
	return false
}

// splitName breaks a full name into first and last parts.
func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
