package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/emprestai/emprestai-go/internal/domain"
)

const userColumns = `id, tenant_id, first_name, last_name, email, phone, role, password_hash, created_at, updated_at`

func scanUser(row scannable) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.TenantID, &u.FirstName, &u.LastName, &u.Email,
		&u.Phone, &u.Role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *Store) CreateUser(ctx context.Context, u *domain.User, addr *domain.AddressInput) (*domain.User, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	err = tx.QueryRow(ctx, `
		INSERT INTO users (tenant_id, first_name, last_name, email, phone, role, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		u.TenantID, u.FirstName, u.LastName, u.Email, u.Phone, u.Role,
		u.PasswordHash).Scan(&u.ID)
	if err != nil {
		return nil, mapWriteErr(err, "insert user")
	}

	if addr != nil {
		if err := insertAddress(ctx, tx, ownerUser, u.ID, *addr); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetUser(ctx, u.ID)
}

func (s *Store) ListUsers(ctx context.Context, tenantID string, f domain.Filter, p domain.Page) ([]domain.User, int, error) {
	b := &sqlBuilder{}
	where := b.whereFor("tenant_id", tenantID, f)

	tx, err := s.pool.BeginTx(ctx, snapshotRead)
	if err != nil {
		return nil, 0, fmt.Errorf("begin list users: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var total int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM users`+where, b.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users` + where +
		fmt.Sprintf(` ORDER BY first_name, last_name LIMIT %s OFFSET %s`, b.arg(p.Size), b.arg(p.Offset()))
	rows, err := tx.Query(ctx, query, b.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, tx.Commit(ctx)
}

func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1`,
		userID)
	u, err := scanUser(row)
	if err != nil {
		return nil, mapReadErr(err, "user", userID)
	}

	addr, err := getAddress(ctx, s.pool, ownerUser, u.ID)
	if err != nil {
		return nil, err
	}
	u.Address = addr
	return &u, nil
}

// GetUserByEmail returns nil without error when no user matches, so callers
// can distinguish absence from failure without leaking a not-found error
// into login flows.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE lower(email) = lower($1)`,
		email)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user by email: %w", err)
	}
	return &u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *domain.User, addr *domain.AddressInput) (*domain.User, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	ct, err := tx.Exec(ctx, `
		UPDATE users
		SET first_name = $1, last_name = $2, email = $3, phone = $4, role = $5,
		    updated_at = now()
		WHERE id = $6`,
		u.FirstName, u.LastName, u.Email, u.Phone, u.Role, u.ID)
	if err != nil {
		return nil, mapWriteErr(err, "update user")
	}
	if err := expectOne(ct, "user", u.ID); err != nil {
		return nil, err
	}

	if err := replaceAddress(ctx, tx, ownerUser, u.ID, addr); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetUser(ctx, u.ID)
}

func (s *Store) DeleteUser(ctx context.Context, tenantID, userID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := deleteOwnerAddresses(ctx, tx, ownerUser, userID); err != nil {
		return err
	}
	ct, err := tx.Exec(ctx, `
		DELETE FROM users WHERE id = $1 AND tenant_id = $2`,
		userID, tenantID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := expectOne(ct, "user", userID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	ct, err := s.pool.Exec(ctx, `
		UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`,
		passwordHash, userID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return expectOne(ct, "user", userID)
}
