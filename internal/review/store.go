package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/glowbook/glowbook/internal/platform/database"
	"github.com/glowbook/glowbook/internal/scope"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const defaultListLimit = 50

type Store struct {
	db database.Querier
}

func NewStore(db database.Querier) *Store {
	return &Store{db: db}
}

const reviewColumns = "id, tenant_id, salon_id, appointment_id, customer_id, rating, comment, created_at"

func scanReview(row pgx.Row) (*Review, error) {
	var r Review
	if err := row.Scan(&r.ID, &r.TenantID, &r.SalonID, &r.AppointmentID, &r.CustomerID, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) Create(ctx context.Context, r *Review) (*Review, error) {
	created, err := scanReview(s.db.QueryRow(ctx,
		`INSERT INTO reviews (tenant_id, salon_id, appointment_id, customer_id, rating, comment)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+reviewColumns,
		r.TenantID, r.SalonID, r.AppointmentID, r.CustomerID, r.Rating, r.Comment,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return nil, ErrAlreadyReviewed
			case "23514":
				return nil, ErrInvalidRating
			}
		}
		return nil, fmt.Errorf("creating review: %w", err)
	}
	return created, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*Review, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrReviewNotFound
	}
	r, err := scanReview(s.db.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("getting review: %w", err)
	}
	return r, nil
}

// List returns reviews matching an effective filter, newest first.
func (s *Store) List(ctx context.Context, f scope.ReviewFilter) ([]Review, error) {
	sql := `SELECT ` + reviewColumns + ` FROM reviews WHERE true`
	var args []any
	add := func(clause string, v any) {
		args = append(args, v)
		sql += fmt.Sprintf(" AND "+clause, len(args))
	}
	if f.TenantID != "" {
		add("tenant_id = $%d", f.TenantID)
	}
	if f.SalonID != "" {
		add("salon_id = $%d", f.SalonID)
	}
	if f.CustomerID != "" {
		add("customer_id = $%d", f.CustomerID)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit)
	sql += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d", len(args))

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	defer rows.Close()

	out := []Review{}
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning review: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrReviewNotFound
	}
	return nil
}
