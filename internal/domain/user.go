package domain

import "time"

// User roles. Super admins are tenant-less and manage tenant subscriptions.
const (
	RoleAdmin      = "admin"
	RoleOperator   = "operator"
	RoleViewer     = "viewer"
	RoleSuperAdmin = "super_admin"
)

// User is an operator account. TenantID is nil for the super admin.
type User struct {
	ID           string    `json:"id"`
	TenantID     *string   `json:"tenantId,omitempty"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	Address      *Address  `json:"address,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserInput carries the fields accepted on user create/update. Password is
// optional on update; Address, when present, replaces the user's one-to-one
// address.
type UserInput struct {
	FirstName string        `json:"firstName"`
	LastName  string        `json:"lastName"`
	Email     string        `json:"email"`
	Phone     string        `json:"phone,omitempty"`
	Role      string        `json:"role,omitempty"`
	Password  string        `json:"password,omitempty"`
	Address   *AddressInput `json:"address,omitempty"`
}

// UserListQuery holds the user list filters.
type UserListQuery struct {
	Search   string
	Role     string
	Page     int
	PageSize int
}
