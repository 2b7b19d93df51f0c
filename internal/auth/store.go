package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/glowbook/glowbook/internal/role"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("glowbook-timing-pad"), bcrypt.DefaultCost)

// Store loads credentials and principals from Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Authenticate looks the user up by email and compares the bcrypt hash.
// Unknown email and wrong password produce the same error.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*Principal, error) {
	var userID, hash, status string
	err := s.pool.QueryRow(ctx,
		"SELECT id, password_hash, status FROM users WHERE lower(email) = lower($1)",
		email,
	).Scan(&userID, &hash, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Equalize timing with the wrong-password path.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("querying credentials: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if status != "active" {
		return nil, ErrUserDisabled
	}

	return s.GetPrincipal(ctx, userID)
}

// GetPrincipal fetches a user's principal including current roles.
func (s *Store) GetPrincipal(ctx context.Context, userID string) (*Principal, error) {
	var (
		tenantID    *string
		email       string
		displayName string
		status      string
		roleNames   []string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT tenant_id::TEXT, email, COALESCE(display_name, ''), status, roles
		 FROM users WHERE id = $1`,
		userID,
	).Scan(&tenantID, &email, &displayName, &status, &roleNames)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}
	if status != "active" {
		return nil, ErrUserDisabled
	}

	roles, err := role.ParseAll(roleNames)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", userID, err)
	}

	p := &Principal{
		UserID:      userID,
		Email:       email,
		DisplayName: displayName,
		Roles:       roles,
		TokenType:   "access",
	}
	if tenantID != nil {
		p.TenantID = *tenantID
	}
	return p, nil
}
