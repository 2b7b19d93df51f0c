package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/glowbook/glowbook/internal/platform/database"
	"github.com/glowbook/glowbook/internal/role"
	"github.com/glowbook/glowbook/internal/scope"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const defaultListLimit = 50

// Store handles user database operations.
type Store struct {
	db database.Querier
}

func NewStore(db database.Querier) *Store {
	return &Store{db: db}
}

const userColumns = "id, COALESCE(tenant_id::TEXT, ''), email, COALESCE(display_name, ''), status, roles, created_at, updated_at"

func scanUser(row pgx.Row) (*User, error) {
	var (
		u     User
		names []string
	)
	if err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.DisplayName, &u.Status, &names, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	roles, err := role.ParseAll(names)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", u.ID, err)
	}
	u.Roles = roles
	return &u, nil
}

// Create inserts u with the given bcrypt hash.
func (s *Store) Create(ctx context.Context, u *User, passwordHash string) (*User, error) {
	var tenantID *string
	if u.TenantID != "" {
		tenantID = &u.TenantID
	}
	created, err := scanUser(s.db.QueryRow(ctx,
		`INSERT INTO users (tenant_id, email, password_hash, display_name, roles)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+userColumns,
		tenantID, u.Email, passwordHash, u.DisplayName, role.Strings(u.Roles),
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return nil, ErrEmailTaken
			case "23503":
				return nil, ErrUnknownTenant
			}
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return created, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrUserNotFound
	}
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// List returns users matching an effective filter, ordered by email.
func (s *Store) List(ctx context.Context, f scope.UserFilter) ([]User, error) {
	sql, args := buildListQuery(f)
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func buildListQuery(f scope.UserFilter) (string, []any) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE true`
	var args []any
	add := func(clause string, v any) {
		args = append(args, v)
		sql += fmt.Sprintf(" AND "+clause, len(args))
	}
	if f.TenantID != "" {
		add("tenant_id = $%d", f.TenantID)
	}
	if f.ID != "" {
		add("id = $%d", f.ID)
	}
	if f.Role != "" {
		add("$%d = ANY(roles)", f.Role)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit)
	sql += fmt.Sprintf(" ORDER BY lower(email) LIMIT $%d", len(args))
	return sql, args
}
