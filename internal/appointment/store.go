package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glowbook/glowbook/internal/platform/database"
	"github.com/glowbook/glowbook/internal/scope"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Store handles appointment database operations. Writes that claim a slot
// run in a transaction holding an advisory lock on the staff member, so
// concurrent bookings for one person are serialized.
type Store struct {
	pool *database.Pool
}

func NewStore(pool *database.Pool) *Store {
	return &Store{pool: pool}
}

const appointmentColumns = `id, tenant_id, salon_id, customer_id, staff_id, service, notes,
	starts_at, ends_at, status, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.TenantID, &a.SalonID, &a.CustomerID, &a.StaffID, &a.Service, &a.Notes,
		&a.StartsAt, &a.EndsAt, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func staffLockKey(staffID string) string {
	return "appointment-staff:" + staffID
}

// checkSlot fails with ErrSlotTaken when staffID has an open appointment
// overlapping [startsAt, endsAt). excludeID, when set, is ignored.
func checkSlot(ctx context.Context, q database.Querier, staffID string, startsAt, endsAt time.Time, excludeID *string) error {
	var taken bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE staff_id = $1
			  AND status IN ('booked', 'confirmed')
			  AND starts_at < $3 AND ends_at > $2
			  AND ($4::UUID IS NULL OR id <> $4::UUID)
		)`,
		staffID, startsAt, endsAt, excludeID,
	).Scan(&taken)
	if err != nil {
		return fmt.Errorf("checking staff availability: %w", err)
	}
	if taken {
		return ErrSlotTaken
	}
	return nil
}

func (s *Store) Book(ctx context.Context, a *Appointment) (*Appointment, error) {
	var created *Appointment
	err := database.WithTx(ctx, s.pool, func(ctx context.Context, q database.Querier) error {
		if err := database.LockKey(ctx, q, staffLockKey(a.StaffID)); err != nil {
			return err
		}
		if err := checkSlot(ctx, q, a.StaffID, a.StartsAt, a.EndsAt, nil); err != nil {
			return err
		}
		var err error
		created, err = scanAppointment(q.QueryRow(ctx,
			`INSERT INTO appointments (tenant_id, salon_id, customer_id, staff_id, service, notes, starts_at, ends_at, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 RETURNING `+appointmentColumns,
			a.TenantID, a.SalonID, a.CustomerID, a.StaffID, a.Service, a.Notes, a.StartsAt, a.EndsAt, StatusBooked,
		))
		return err
	})
	if err != nil {
		return nil, mapWriteError("booking appointment", err)
	}
	return created, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*Appointment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrAppointmentNotFound
	}
	a, err := scanAppointment(s.pool.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("getting appointment: %w", err)
	}
	return a, nil
}

// List returns appointments matching an effective filter, earliest first.
func (s *Store) List(ctx context.Context, f scope.AppointmentFilter) ([]Appointment, error) {
	sql, args := buildListQuery(f)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing appointments: %w", err)
	}
	defer rows.Close()

	out := []Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning appointment: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func buildListQuery(f scope.AppointmentFilter) (string, []any) {
	sql := `SELECT ` + appointmentColumns + ` FROM appointments WHERE true`
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
	if f.StaffID != "" {
		add("staff_id = $%d", f.StaffID)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if !f.From.IsZero() {
		add("starts_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("starts_at < $%d", f.To)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	args = append(args, limit)
	sql += fmt.Sprintf(" ORDER BY starts_at, id LIMIT $%d", len(args))
	return sql, args
}

func (s *Store) Reschedule(ctx context.Context, id string, startsAt, endsAt time.Time) (*Appointment, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var updated *Appointment
	err = database.WithTx(ctx, s.pool, func(ctx context.Context, q database.Querier) error {
		if err := database.LockKey(ctx, q, staffLockKey(current.StaffID)); err != nil {
			return err
		}
		if err := checkSlot(ctx, q, current.StaffID, startsAt, endsAt, &id); err != nil {
			return err
		}
		var err error
		updated, err = scanAppointment(q.QueryRow(ctx,
			`UPDATE appointments SET starts_at = $2, ends_at = $3, updated_at = now()
			 WHERE id = $1 AND status IN ('booked', 'confirmed')
			 RETURNING `+appointmentColumns,
			id, startsAt, endsAt,
		))
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInvalidTransition
		}
		return err
	})
	if err != nil {
		return nil, mapWriteError("rescheduling appointment", err)
	}
	return updated, nil
}

func (s *Store) SetStatus(ctx context.Context, id, from, to string) (*Appointment, error) {
	a, err := scanAppointment(s.pool.QueryRow(ctx,
		`UPDATE appointments SET status = $3, updated_at = now()
		 WHERE id = $1 AND status = $2
		 RETURNING `+appointmentColumns,
		id, from, to,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("updating appointment status: %w", err)
	}
	return a, nil
}

func mapWriteError(op string, err error) error {
	if errors.Is(err, ErrSlotTaken) || errors.Is(err, ErrInvalidTransition) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23514":
			return ErrInvalidTime
		case "23503":
			return ErrInvalidCustomer
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
