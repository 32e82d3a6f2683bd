package postgres

import (
	"context"
	"fmt"

	"github.com/emprestai/emprestai-go/internal/domain"
)

const clientColumns = `id, tenant_id, first_name, last_name, email, phone, birth_date, document, document_type, notes, created_at, updated_at`

func scanClient(row scannable) (domain.Client, error) {
	var c domain.Client
	err := row.Scan(&c.ID, &c.TenantID, &c.FirstName, &c.LastName, &c.Email,
		&c.Phone, &c.BirthDate, &c.Document, &c.DocumentType, &c.Notes,
		&c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// clientColumnsQ is clientColumns with the list-query alias. The list joins
// addresses so search and city/district filters can reach address columns.
const clientColumnsQ = `c.id, c.tenant_id, c.first_name, c.last_name, c.email, c.phone, c.birth_date, c.document, c.document_type, c.notes, c.created_at, c.updated_at`

const clientJoin = ` FROM clients c LEFT JOIN addresses a ON a.owner_type = 'client' AND a.owner_id = c.id`

func (s *Store) ListClients(ctx context.Context, tenantID string, f domain.Filter, p domain.Page) ([]domain.Client, int, error) {
	b := &sqlBuilder{}
	where := b.whereFor("c.tenant_id", tenantID, f)

	tx, err := s.pool.BeginTx(ctx, snapshotRead)
	if err != nil {
		return nil, 0, fmt.Errorf("begin list clients: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var total int
	if err := tx.QueryRow(ctx, `SELECT count(DISTINCT c.id)`+clientJoin+where, b.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}

	query := `SELECT DISTINCT ` + clientColumnsQ + clientJoin + where +
		fmt.Sprintf(` ORDER BY c.created_at DESC LIMIT %s OFFSET %s`, b.arg(p.Size), b.arg(p.Offset()))
	rows, err := tx.Query(ctx, query, b.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	clients := []domain.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := attachClientAddresses(ctx, tx, clients); err != nil {
		return nil, 0, err
	}
	return clients, total, tx.Commit(ctx)
}

// attachClientAddresses loads the address sets for a page of clients in one
// query against the same snapshot that produced the page.
func attachClientAddresses(ctx context.Context, q queryer, clients []domain.Client) error {
	if len(clients) == 0 {
		return nil
	}
	ids := make([]string, len(clients))
	byID := make(map[string]*domain.Client, len(clients))
	for i := range clients {
		ids[i] = clients[i].ID
		clients[i].Addresses = []domain.Address{}
		byID[clients[i].ID] = &clients[i]
	}

	rows, err := q.Query(ctx, `
		SELECT owner_id, `+addressColumns+`
		FROM addresses
		WHERE owner_type = $1 AND owner_id = ANY($2)
		ORDER BY created_at`,
		ownerClient, ids)
	if err != nil {
		return fmt.Errorf("list client addresses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ownerID string
		var a domain.Address
		if err := rows.Scan(&ownerID, &a.ID, &a.Label, &a.Street, &a.Number,
			&a.Complement, &a.District, &a.City, &a.State, &a.PostalCode,
			&a.CreatedAt, &a.UpdatedAt); err != nil {
			return fmt.Errorf("scan client address: %w", err)
		}
		if c, ok := byID[ownerID]; ok {
			c.Addresses = append(c.Addresses, a)
		}
	}
	return rows.Err()
}

func (s *Store) GetClient(ctx context.Context, tenantID, clientID string) (*domain.Client, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+clientColumns+`
		FROM clients
		WHERE id = $1 AND tenant_id = $2`,
		clientID, tenantID)
	c, err := scanClient(row)
	if err != nil {
		return nil, mapReadErr(err, "client", clientID)
	}

	addrs, err := listAddresses(ctx, s.pool, ownerClient, c.ID)
	if err != nil {
		return nil, err
	}
	c.Addresses = addrs
	return &c, nil
}

func (s *Store) CreateClient(ctx context.Context, c *domain.Client, addrs []domain.AddressInput) (*domain.Client, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	err = tx.QueryRow(ctx, `
		INSERT INTO clients (tenant_id, first_name, last_name, email, phone, birth_date, document, document_type, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		c.TenantID, c.FirstName, c.LastName, c.Email, c.Phone, c.BirthDate,
		c.Document, c.DocumentType, c.Notes).Scan(&c.ID)
	if err != nil {
		return nil, mapWriteErr(err, "insert client")
	}

	for _, in := range addrs {
		if err := insertAddress(ctx, tx, ownerClient, c.ID, in); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetClient(ctx, c.TenantID, c.ID)
}

func (s *Store) UpdateClient(ctx context.Context, c *domain.Client, diff domain.AddressDiff) (*domain.Client, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	ct, err := tx.Exec(ctx, `
		UPDATE clients
		SET first_name = $1, last_name = $2, email = $3, phone = $4,
		    birth_date = $5, document = $6, document_type = $7, notes = $8,
		    updated_at = now()
		WHERE id = $9 AND tenant_id = $10`,
		c.FirstName, c.LastName, c.Email, c.Phone, c.BirthDate,
		c.Document, c.DocumentType, c.Notes, c.ID, c.TenantID)
	if err != nil {
		return nil, mapWriteErr(err, "update client")
	}
	if err := expectOne(ct, "client", c.ID); err != nil {
		return nil, err
	}

	if err := applyAddressDiff(ctx, tx, ownerClient, c.ID, diff); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetClient(ctx, c.TenantID, c.ID)
}

func (s *Store) DeleteClient(ctx context.Context, tenantID, clientID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var loans int
	err = tx.QueryRow(ctx, `
		SELECT count(*) FROM loans WHERE client_id = $1 AND tenant_id = $2`,
		clientID, tenantID).Scan(&loans)
	if err != nil {
		return fmt.Errorf("count client loans: %w", err)
	}
	if loans > 0 {
		return &domain.ErrConflict{Message: "client has associated loans"}
	}

	if err := deleteOwnerAddresses(ctx, tx, ownerClient, clientID); err != nil {
		return err
	}

	ct, err := tx.Exec(ctx, `
		DELETE FROM clients WHERE id = $1 AND tenant_id = $2`,
		clientID, tenantID)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if err := expectOne(ct, "client", clientID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func deleteOwnerAddresses(ctx context.Context, q queryer, ownerType, ownerID string) error {
	_, err := q.Exec(ctx, `
		DELETE FROM addresses WHERE owner_type = $1 AND owner_id = $2`,
		ownerType, ownerID)
	if err != nil {
		return fmt.Errorf("delete owner addresses: %w", err)
	}
	return nil
}
