package postgres

import (
	"context"
	"fmt"

	"github.com/emprestai/emprestai-go/internal/domain"
)

// Address owner discriminators. One table serves clients (one-to-many),
// users and tenants (one-to-one each).
const (
	ownerClient = "client"
	ownerUser   = "user"
	ownerTenant = "tenant"
)

const addressColumns = `id, label, street, number, complement, district, city, state, postal_code, created_at, updated_at`

func scanAddress(row scannable) (domain.Address, error) {
	var a domain.Address
	err := row.Scan(&a.ID, &a.Label, &a.Street, &a.Number, &a.Complement,
		&a.District, &a.City, &a.State, &a.PostalCode, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func insertAddress(ctx context.Context, q queryer, ownerType, ownerID string, in domain.AddressInput) error {
	_, err := q.Exec(ctx, `
		INSERT INTO addresses (owner_type, owner_id, label, street, number, complement, district, city, state, postal_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		ownerType, ownerID, in.Label, in.Street, in.Number, in.Complement,
		in.District, in.City, in.State, in.PostalCode)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}

func updateAddress(ctx context.Context, q queryer, ownerType, ownerID string, in domain.AddressInput) error {
	ct, err := q.Exec(ctx, `
		UPDATE addresses
		SET label = $1, street = $2, number = $3, complement = $4, district = $5,
		    city = $6, state = $7, postal_code = $8, updated_at = now()
		WHERE id = $9 AND owner_type = $10 AND owner_id = $11`,
		in.Label, in.Street, in.Number, in.Complement, in.District,
		in.City, in.State, in.PostalCode, in.ID, ownerType, ownerID)
	if err != nil {
		return fmt.Errorf("update address: %w", err)
	}
	return expectOne(ct, "address", in.ID)
}

func deleteAddresses(ctx context.Context, q queryer, ownerType, ownerID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := q.Exec(ctx, `
		DELETE FROM addresses
		WHERE owner_type = $1 AND owner_id = $2 AND id = ANY($3)`,
		ownerType, ownerID, ids)
	if err != nil {
		return fmt.Errorf("delete addresses: %w", err)
	}
	return nil
}

// applyAddressDiff executes a three-way address reconciliation inside the
// caller's transaction.
func applyAddressDiff(ctx context.Context, q queryer, ownerType, ownerID string, diff domain.AddressDiff) error {
	for _, in := range diff.Update {
		if err := updateAddress(ctx, q, ownerType, ownerID, in); err != nil {
			return err
		}
	}
	for _, in := range diff.Insert {
		if err := insertAddress(ctx, q, ownerType, ownerID, in); err != nil {
			return err
		}
	}
	return deleteAddresses(ctx, q, ownerType, ownerID, diff.Delete)
}

func listAddresses(ctx context.Context, q queryer, ownerType, ownerID string) ([]domain.Address, error) {
	rows, err := q.Query(ctx, `
		SELECT `+addressColumns+`
		FROM addresses
		WHERE owner_type = $1 AND owner_id = $2
		ORDER BY created_at`,
		ownerType, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	addrs := []domain.Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addrs = append(addrs, a)
	}
	return addrs, rows.Err()
}

// getAddress returns the single address of a user or tenant, or nil when
// none exists.
func getAddress(ctx context.Context, q queryer, ownerType, ownerID string) (*domain.Address, error) {
	addrs, err := listAddresses(ctx, q, ownerType, ownerID)
	if err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, nil
	}
	return &addrs[0], nil
}

// replaceAddress upserts the one-to-one address of a user or tenant.
func replaceAddress(ctx context.Context, q queryer, ownerType, ownerID string, in *domain.AddressInput) error {
	if in == nil {
		return nil
	}
	_, err := q.Exec(ctx, `
		DELETE FROM addresses WHERE owner_type = $1 AND owner_id = $2`,
		ownerType, ownerID)
	if err != nil {
		return fmt.Errorf("replace address: %w", err)
	}
	return insertAddress(ctx, q, ownerType, ownerID, *in)
}
