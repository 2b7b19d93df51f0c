package salon

import (
	"context"
	"errors"
	"fmt"

	"github.com/glowbook/glowbook/internal/platform/database"
	"github.com/glowbook/glowbook/internal/scope"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const defaultListLimit = 50

// Store handles salon database operations.
type Store struct {
	db database.Querier
}

func NewStore(db database.Querier) *Store {
	return &Store{db: db}
}

const salonColumns = "id, tenant_id, name, address, phone, active, created_at, updated_at"

func scanSalon(row pgx.Row) (*Salon, error) {
	var s Salon
	if err := row.Scan(&s.ID, &s.TenantID, &s.Name, &s.Address, &s.Phone, &s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a salon for s.TenantID.
func (st *Store) Create(ctx context.Context, s *Salon) (*Salon, error) {
	created, err := scanSalon(st.db.QueryRow(ctx,
		`INSERT INTO salons (tenant_id, name, address, phone, active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+salonColumns,
		s.TenantID, s.Name, s.Address, s.Phone, s.Active,
	))
	if err != nil {
		return nil, fmt.Errorf("creating salon: %w", err)
	}
	return created, nil
}

// GetByID fetches a salon regardless of tenant. Callers apply scope.
func (st *Store) GetByID(ctx context.Context, id string) (*Salon, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSalonNotFound
	}
	s, err := scanSalon(st.db.QueryRow(ctx,
		`SELECT `+salonColumns+` FROM salons WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSalonNotFound
		}
		return nil, fmt.Errorf("getting salon: %w", err)
	}
	return s, nil
}

// List returns salons matching an effective filter, ordered by name.
func (st *Store) List(ctx context.Context, f scope.SalonFilter) ([]Salon, error) {
	sql, args := buildListQuery(f)
	rows, err := st.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing salons: %w", err)
	}
	defer rows.Close()

	salons := []Salon{}
	for rows.Next() {
		s, err := scanSalon(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning salon: %w", err)
		}
		salons = append(salons, *s)
	}
	return salons, rows.Err()
}

func buildListQuery(f scope.SalonFilter) (string, []any) {
	sql := `SELECT ` + salonColumns + ` FROM salons WHERE true`
	var args []any
	if f.TenantID != "" {
		args = append(args, f.TenantID)
		sql += fmt.Sprintf(" AND tenant_id = $%d", len(args))
	}
	if f.ActiveOnly {
		sql += " AND active"
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit)
	sql += fmt.Sprintf(" ORDER BY name, id LIMIT $%d", len(args))
	return sql, args
}

// Update writes the mutable fields of s. The tenant never changes.
func (st *Store) Update(ctx context.Context, s *Salon) (*Salon, error) {
	updated, err := scanSalon(st.db.QueryRow(ctx,
		`UPDATE salons SET name = $2, address = $3, phone = $4, active = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING `+salonColumns,
		s.ID, s.Name, s.Address, s.Phone, s.Active,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSalonNotFound
		}
		return nil, fmt.Errorf("updating salon: %w", err)
	}
	return updated, nil
}
