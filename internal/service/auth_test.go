package service_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/emprestai/emprestai-go/internal/domain"
	"github.com/emprestai/emprestai-go/internal/service"
)

// --- Mocks ---

type mockAuthStore struct {
	user         *domain.User
	refreshToken *domain.RefreshToken

	storedHash   string
	revokedHash  string
	revokedAllOf string
	passwordHash string
}

func (m *mockAuthStore) GetUserByEmail(_ context.Context, _ string) (*domain.User, error) {
	return m.user, nil
}

func (m *mockAuthStore) GetUser(_ context.Context, userID string) (*domain.User, error) {
	if m.user == nil {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	return m.user, nil
}

func (m *mockAuthStore) StoreRefreshToken(_ context.Context, _ string, tokenHash string, _ time.Time) error {
	m.storedHash = tokenHash
	return nil
}

func (m *mockAuthStore) GetRefreshToken(_ context.Context, tokenHash string) (*domain.RefreshToken, error) {
	if m.refreshToken == nil || m.refreshToken.TokenHash != tokenHash {
		return nil, &domain.ErrNotFound{Resource: "refresh token", ID: tokenHash}
	}
	return m.refreshToken, nil
}

func (m *mockAuthStore) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	m.revokedHash = tokenHash
	return nil
}

func (m *mockAuthStore) RevokeAllRefreshTokens(_ context.Context, userID string) error {
	m.revokedAllOf = userID
	return nil
}

func (m *mockAuthStore) UpdatePassword(_ context.Context, _, passwordHash string) error {
	m.passwordHash = passwordHash
	return nil
}

func hashOf(password string) string {
	h, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(h)
}

func testUser(tenantID string) *domain.User {
	u := &domain.User{
		ID:           "user-1",
		Email:        "maria@agiota.com.br",
		Role:         domain.RoleAdmin,
		PasswordHash: hashOf("correct-horse"),
	}
	if tenantID != "" {
		u.TenantID = &tenantID
	}
	return u
}

func newAuthService(store *mockAuthStore, tenants *mockTenantStore) *service.AuthService {
	return service.NewAuthService(store, tenants, "test-secret", 15*time.Minute, 24*time.Hour, zap.NewNop())
}

// --- Tests ---

func TestLogin_Success(t *testing.T) {
	store := &mockAuthStore{user: testUser("tenant-1")}
	tenants := &mockTenantStore{tenant: &domain.Tenant{ID: "tenant-1", Status: domain.TenantActive}}
	svc := newAuthService(store, tenants)

	resp, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "maria@agiota.com.br",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}
	if resp.ExpiresIn != int((15 * time.Minute).Seconds()) {
		t.Errorf("expected expiresIn 900, got %d", resp.ExpiresIn)
	}
	if store.storedHash == "" {
		t.Error("expected refresh token hash to be stored")
	}
	if store.storedHash == resp.RefreshToken {
		t.Error("refresh token must be stored hashed, not raw")
	}

	claims, err := svc.ValidateAccessToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("expected issued token to validate, got %v", err)
	}
	if claims.Sub != "user-1" || claims.TenantID != "tenant-1" || claims.Role != domain.RoleAdmin {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	store := &mockAuthStore{user: testUser("tenant-1")}
	tenants := &mockTenantStore{tenant: &domain.Tenant{ID: "tenant-1", Status: domain.TenantActive}}
	svc := newAuthService(store, tenants)

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "maria@agiota.com.br",
		Password: "wrong",
	})

	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := newAuthService(&mockAuthStore{}, &mockTenantStore{})

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "nobody@agiota.com.br",
		Password: "whatever",
	})

	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestLogin_SuspendedTenantBlocked(t *testing.T) {
	store := &mockAuthStore{user: testUser("tenant-1")}
	tenants := &mockTenantStore{tenant: &domain.Tenant{ID: "tenant-1", Status: domain.TenantSuspended}}
	svc := newAuthService(store, tenants)

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "maria@agiota.com.br",
		Password: "correct-horse",
	})

	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if unauthorized.Message != "subscription inactive" {
		t.Errorf("unexpected message %q", unauthorized.Message)
	}
}

func TestLogin_SuperAdminHasNoTenantCheck(t *testing.T) {
	user := testUser("")
	user.Role = domain.RoleSuperAdmin
	svc := newAuthService(&mockAuthStore{user: user}, &mockTenantStore{})

	resp, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "maria@agiota.com.br",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	claims, err := svc.ValidateAccessToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("expected token to validate, got %v", err)
	}
	if claims.TenantID != "" {
		t.Errorf("expected empty tenant claim, got %q", claims.TenantID)
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	store := &mockAuthStore{user: testUser("tenant-1")}
	tenants := &mockTenantStore{tenant: &domain.Tenant{ID: "tenant-1", Status: domain.TenantActive}}
	svc := newAuthService(store, tenants)

	login, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "maria@agiota.com.br",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	store.refreshToken = &domain.RefreshToken{
		UserID:    "user-1",
		TokenHash: store.storedHash,
		ExpiresAt: time.Now().Add(time.Hour),
	}

	resp, err := svc.Refresh(context.Background(), &domain.RefreshRequest{RefreshToken: login.RefreshToken})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if store.revokedHash != store.refreshToken.TokenHash {
		t.Error("expected presented token to be revoked")
	}
	if resp.RefreshToken == login.RefreshToken {
		t.Error("expected a new refresh token, got the old one back")
	}
}

func TestRefresh_ExpiredTokenRejectedAndRevoked(t *testing.T) {
	store := &mockAuthStore{user: testUser("tenant-1")}
	svc := newAuthService(store, &mockTenantStore{})

	raw := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	sum := sha256.Sum256([]byte(raw))
	hash := hex.EncodeToString(sum[:])
	store.refreshToken = &domain.RefreshToken{
		UserID:    "user-1",
		TokenHash: hash,
		ExpiresAt: time.Now().Add(-time.Minute),
	}

	_, err := svc.Refresh(context.Background(), &domain.RefreshRequest{RefreshToken: raw})

	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if store.revokedHash != hash {
		t.Error("expected expired token to be revoked")
	}
}

func TestRefresh_UnknownTokenRejected(t *testing.T) {
	svc := newAuthService(&mockAuthStore{}, &mockTenantStore{})

	_, err := svc.Refresh(context.Background(), &domain.RefreshRequest{RefreshToken: "bogus"})

	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestValidateAccessToken_RejectsGarbage(t *testing.T) {
	svc := newAuthService(&mockAuthStore{}, &mockTenantStore{})

	_, err := svc.ValidateAccessToken("not.a.jwt")

	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestValidateAccessToken_RejectsOtherSecret(t *testing.T) {
	store := &mockAuthStore{user: testUser("tenant-1")}
	tenants := &mockTenantStore{tenant: &domain.Tenant{ID: "tenant-1", Status: domain.TenantActive}}
	issuer := newAuthService(store, tenants)

	resp, err := issuer.Login(context.Background(), &domain.LoginRequest{
		Email:    "maria@agiota.com.br",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	verifier := service.NewAuthService(&mockAuthStore{}, &mockTenantStore{}, "another-secret", 15*time.Minute, 24*time.Hour, zap.NewNop())
	if _, err := verifier.ValidateAccessToken(resp.AccessToken); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
}

func TestChangePassword_Success(t *testing.T) {
	store := &mockAuthStore{user: testUser("tenant-1")}
	svc := newAuthService(store, &mockTenantStore{})

	err := svc.ChangePassword(context.Background(), domain.AuthContext{UserID: "user-1"}, &domain.ChangePasswordRequest{
		CurrentPassword: "correct-horse",
		NewPassword:     "battery-staple",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if store.passwordHash == "" || store.passwordHash == "battery-staple" {
		t.Error("expected new password to be stored hashed")
	}
	if store.revokedAllOf != "user-1" {
		t.Error("expected all refresh tokens to be revoked")
	}
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	store := &mockAuthStore{user: testUser("tenant-1")}
	svc := newAuthService(store, &mockTenantStore{})

	err := svc.ChangePassword(context.Background(), domain.AuthContext{UserID: "user-1"}, &domain.ChangePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "battery-staple",
	})

	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestChangePassword_TooShort(t *testing.T) {
	store := &mockAuthStore{user: testUser("tenant-1")}
	svc := newAuthService(store, &mockTenantStore{})

	err := svc.ChangePassword(context.Background(), domain.AuthContext{UserID: "user-1"}, &domain.ChangePasswordRequest{
		CurrentPassword: "correct-horse",
		NewPassword:     "short",
	})

	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
