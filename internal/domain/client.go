package domain

import "time"

// Address labels. Every client can hold several addresses; users and tenants
// hold at most one.
const (
	AddressPrimary  = "primary"
	AddressBusiness = "business"
	AddressBilling  = "billing"
	AddressShipping = "shipping"
)

// Address is a postal address owned by a client, a user or a tenant.
// PostalCode is stored as 8 digits, zero-padded; State is upper-cased.
type Address struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	Street     string    `json:"street"`
	Number     string    `json:"number,omitempty"`
	Complement string    `json:"complement,omitempty"`
	District   string    `json:"district,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postalCode"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// AddressInput is a submitted address. A non-empty ID targets an existing
// row; an empty ID requests an insert.
type AddressInput struct {
	ID         string `json:"id,omitempty"`
	Label      string `json:"label"`
	Street     string `json:"street"`
	Number     string `json:"number,omitempty"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
}

// AddressDiff is the three-way reconciliation plan for an entity's address
// set: rows to update in place, rows to insert, and ids to delete.
type AddressDiff struct {
	Update []AddressInput
	Insert []AddressInput
	Delete []string
}

// Client is a borrower registered under a tenant.
// Document is stored digits-only.
type Client struct {
	ID           string     `json:"id"`
	TenantID     string     `json:"tenantId"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Email        string     `json:"email,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	BirthDate    *time.Time `json:"birthDate,omitempty"`
	Document     string     `json:"document"`
	DocumentType string     `json:"documentType"`
	Notes        string     `json:"notes,omitempty"`
	Addresses    []Address  `json:"addresses"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// ClientInput carries the fields accepted on client create/update.
// On update, Addresses replaces the whole address set (diffed by id).
type ClientInput struct {
	FirstName    string         `json:"firstName"`
	LastName     string         `json:"lastName"`
	Email        string         `json:"email,omitempty"`
	Phone        string         `json:"phone,omitempty"`
	BirthDate    string         `json:"birthDate,omitempty"`
	Document     string         `json:"document"`
	DocumentType string         `json:"documentType"`
	Notes        string         `json:"notes,omitempty"`
	Addresses    []AddressInput `json:"addresses,omitempty"`
}

// ClientListQuery holds the list endpoint's filter and pagination inputs.
type ClientListQuery struct {
	Search   string
	Name     string
	City     string
	District string
	Page     int
	PageSize int
}
