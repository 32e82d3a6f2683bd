package domain

import "time"

// Tenant plans and statuses.
const (
	PlanFree = "free"
	PlanPro  = "pro"

	TenantActive    = "active"
	TenantPastDue   = "past_due"
	TenantSuspended = "suspended"
	TenantCanceled  = "canceled"
)

// TrialDays is the fixed trial window granted on tenant creation.
const TrialDays = 15

// Tenant is an isolated customer organization. It owns its own clients,
// accounts, loans and users.
type Tenant struct {
	ID           string    `json:"id"`
	BusinessName string    `json:"businessName"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Document     string    `json:"document,omitempty"`
	Plan         string    `json:"plan"`
	Status       string    `json:"status"`
	TrialStartAt time.Time `json:"trialStartAt"`
	TrialEndAt   time.Time `json:"trialEndAt"`
	Address      *Address  `json:"address,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// SubscriptionEvent is an append-only audit row recorded on every tenant
// subscription state change.
type SubscriptionEvent struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	Type      string    `json:"type"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Subscription event types.
const (
	EventTrialStarted  = "trial_started"
	EventPlanChanged   = "plan_changed"
	EventStatusChanged = "status_changed"
)

// ProvisionTenantRequest onboards a new tenant together with its first
// admin user, in one transaction.
type ProvisionTenantRequest struct {
	BusinessName  string        `json:"businessName"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone,omitempty"`
	Document      string        `json:"document,omitempty"`
	Address       *AddressInput `json:"address,omitempty"`
	AdminName     string        `json:"adminName"`
	AdminEmail    string        `json:"adminEmail"`
	AdminPhone    string        `json:"adminPhone,omitempty"`
	AdminPassword string        `json:"adminPassword"`
}

// TenantUpdate carries the fields accepted on tenant patch. Plan and status
// changes append a SubscriptionEvent.
type TenantUpdate struct {
	BusinessName *string `json:"businessName,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Plan         *string `json:"plan,omitempty"`
	Status       *string `json:"status,omitempty"`
}

// TenantListQuery holds the admin tenant list filters.
type TenantListQuery struct {
	Search   string
	Plan     string
	Status   string
	Page     int
	PageSize int
}
