package domain

import "time"

// LoginRequest authenticates a user by email and password.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the signed token pair.
type LoginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
	User         *User  `json:"user"`
}

// RefreshRequest rotates a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ChangePasswordRequest changes the authenticated user's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// RefreshToken is a stored refresh token. Only the sha256 hash is persisted.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// AuthContext is the request-scoped identity resolved from the access token.
// It is passed by value into every operation entry point, never carried as
// ambient state. TenantID is empty for the super admin.
type AuthContext struct {
	UserID   string
	TenantID string
	Role     string
}

// IsSuperAdmin reports whether the caller is the tenant-less super admin.
func (a AuthContext) IsSuperAdmin() bool {
	return a.Role == RoleSuperAdmin
}
