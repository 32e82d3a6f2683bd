package service

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/emprestai/emprestai-go/internal/domain"
	"github.com/emprestai/emprestai-go/internal/port"
)

var userTracer = otel.Tracer("service/users")

// UserService manages operator accounts inside a tenant.
type UserService struct {
	store  port.UserStore
	logger *zap.Logger
}

// NewUserService creates a new user service.
func NewUserService(store port.UserStore, logger *zap.Logger) *UserService {
	return &UserService{store: store, logger: logger}
}

func (s *UserService) Create(ctx context.Context, auth domain.AuthContext, in *domain.UserInput) (*domain.User, error) {
	ctx, span := userTracer.Start(ctx, "UserService.Create")
	defer span.End()

	if auth.TenantID == "" {
		return nil, &domain.ErrForbidden{Action: "create user without tenant context"}
	}
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "first and last name are required"}
	}
	if strings.TrimSpace(in.Email) == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "required"}
	}
	if len(in.Password) < minPasswordLength {
		return nil, &domain.ErrValidation{Field: "password", Message: fmt.Sprintf("must have at least %d characters", minPasswordLength)}
	}

	role := in.Role
	if role == "" {
		role = domain.RoleOperator
	}
	if !validTenantRole(role) {
		return nil, &domain.ErrValidation{Field: "role", Message: "unknown role"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	tenantID := auth.TenantID
	user := &domain.User{
		TenantID:     &tenantID,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:        in.Phone,
		Role:         role,
		PasswordHash: string(hash),
	}

	var addr *domain.AddressInput
	if in.Address != nil {
		normalized := normalizeAddress(*in.Address)
		addr = &normalized
	}

	created, err := s.store.CreateUser(ctx, user, addr)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created",
		zap.String("user_id", created.ID),
		zap.String("tenant_id", auth.TenantID),
		zap.String("role", role))
	return created, nil
}

func (s *UserService) List(ctx context.Context, auth domain.AuthContext, q domain.UserListQuery) ([]domain.User, domain.Meta, error) {
	ctx, span := userTracer.Start(ctx, "UserService.List")
	defer span.End()

	if auth.TenantID == "" {
		return nil, domain.Meta{}, &domain.ErrForbidden{Action: "list users without tenant context"}
	}

	filter := domain.SearchAcross(q.Search, []string{"first_name", "last_name", "email"},
		domain.Equals{Field: "role", Value: q.Role},
	)
	page := domain.Page{Number: q.Page, Size: q.PageSize}

	users, total, err := s.store.ListUsers(ctx, auth.TenantID, filter, page)
	if err != nil {
		return nil, domain.Meta{}, fmt.Errorf("list users: %w", err)
	}
	return users, domain.MetaFor(page, total), nil
}

// Profile returns the authenticated user's own record.
func (s *UserService) Profile(ctx context.Context, auth domain.AuthContext) (*domain.User, error) {
	ctx, span := userTracer.Start(ctx, "UserService.Profile")
	defer span.End()

	return s.store.GetUser(ctx, auth.UserID)
}

// Update edits a user. Admins can edit any user of their tenant; everyone
// can edit their own profile (targetID == auth.UserID).
func (s *UserService) Update(ctx context.Context, auth domain.AuthContext, targetID string, in *domain.UserInput) (*domain.User, error) {
	ctx, span := userTracer.Start(ctx, "UserService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", targetID))

	existing, err := s.store.GetUser(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !s.canManage(auth, existing) {
		return nil, &domain.ErrForbidden{Action: "update another tenant's user"}
	}

	if in.FirstName != "" {
		existing.FirstName = strings.TrimSpace(in.FirstName)
	}
	if in.LastName != "" {
		existing.LastName = strings.TrimSpace(in.LastName)
	}
	if in.Email != "" {
		existing.Email = strings.ToLower(strings.TrimSpace(in.Email))
	}
	if in.Phone != "" {
		existing.Phone = in.Phone
	}
	if in.Role != "" && auth.Role == domain.RoleAdmin {
		if !validTenantRole(in.Role) {
			return nil, &domain.ErrValidation{Field: "role", Message: "unknown role"}
		}
		existing.Role = in.Role
	}

	var addr *domain.AddressInput
	if in.Address != nil {
		normalized := normalizeAddress(*in.Address)
		addr = &normalized
	}

	updated, err := s.store.UpdateUser(ctx, existing, addr)
	if err != nil {
		return nil, err
	}

	if in.Password != "" {
		if len(in.Password) < minPasswordLength {
			return nil, &domain.ErrValidation{Field: "password", Message: fmt.Sprintf("must have at least %d characters", minPasswordLength)}
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		if err := s.store.UpdatePassword(ctx, targetID, string(hash)); err != nil {
			return nil, err
		}
	}

	s.logger.Info("user updated", zap.String("user_id", targetID))
	return updated, nil
}

func (s *UserService) Delete(ctx context.Context, auth domain.AuthContext, targetID string) error {
	ctx, span := userTracer.Start(ctx, "UserService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", targetID))

	if auth.TenantID == "" {
		return &domain.ErrForbidden{Action: "delete user without tenant context"}
	}
	if targetID == auth.UserID {
		return &domain.ErrConflict{Message: "cannot delete own user"}
	}
	if err := s.store.DeleteUser(ctx, auth.TenantID, targetID); err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.String("user_id", targetID))
	return nil
}

// canManage reports whether the caller may edit the target user: themselves,
// or any user of their tenant when they are an admin.
func (s *UserService) canManage(auth domain.AuthContext, target *domain.User) bool {
	if target.ID == auth.UserID {
		return true
	}
	if auth.Role != domain.RoleAdmin {
		return false
	}
	return target.TenantID != nil && *target.TenantID == auth.TenantID
}

func validTenantRole(role string) bool {
	switch role {
	case domain.RoleAdmin, domain.RoleOperator, domain.RoleViewer:
		return true
	}
	return false
}
