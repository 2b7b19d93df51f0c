package auth_test

import (
	"testing"
	"time"

	"github.com/glowbook/glowbook/internal/auth"
	"github.com/glowbook/glowbook/internal/role"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSigningKey = "test-signing-key-must-be-32-chars!!"

func TestTokenService_CreateAndValidate(t *testing.T) {
	svc := auth.NewTokenService(testSigningKey, "glowbook", 24, 168)

	p := &auth.Principal{
		UserID:      "user-123",
		TenantID:    "tenant-456",
		Email:       "mia@rosesalon.com",
		DisplayName: "Mia",
		Roles:       []role.Role{role.Staff},
	}

	token, err := svc.CreateAccessToken(p)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	got, err := svc.ValidateToken(token)
	require.NoError(t, err)

	assert.Equal(t, p.UserID, got.UserID)
	assert.Equal(t, p.TenantID, got.TenantID)
	assert.Equal(t, p.Email, got.Email)
	assert.Equal(t, p.Roles, got.Roles)
	assert.Equal(t, "access", got.TokenType)
}

func TestTokenService_PlatformLevelPrincipal(t *testing.T) {
	svc := auth.NewTokenService(testSigningKey, "glowbook", 24, 168)

	token, err := svc.CreateAccessToken(&auth.Principal{UserID: "cust-1", Roles: []role.Role{role.Customer}})
	require.NoError(t, err)

	got, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Empty(t, got.TenantID)
	assert.True(t, got.PlatformLevel())
}

func TestTokenService_CreateRefreshToken(t *testing.T) {
	svc := auth.NewTokenService(testSigningKey, "glowbook", 24, 168)

	refreshToken, err := svc.CreateRefreshToken(&auth.Principal{
		UserID:   "user-123",
		TenantID: "tenant-456",
		Roles:    []role.Role{role.Owner},
	})
	require.NoError(t, err)

	got, err := svc.ValidateToken(refreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", got.UserID)
	assert.Equal(t, "refresh", got.TokenType)
}

func TestTokenService_ExpiredToken(t *testing.T) {
	svc := auth.NewTokenService(testSigningKey, "glowbook", 0, 0) // expires immediately

	token, err := svc.CreateAccessToken(&auth.Principal{UserID: "user-123", Roles: []role.Role{role.Staff}})
	require.NoError(t, err)

	time.Sleep(time.Second)
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestTokenService_InvalidSignature(t *testing.T) {
	svc1 := auth.NewTokenService("signing-key-one-must-be-32-chars!!", "glowbook", 24, 168)
	svc2 := auth.NewTokenService("signing-key-two-must-be-32-chars!!", "glowbook", 24, 168)

	token, err := svc1.CreateAccessToken(&auth.Principal{UserID: "user-123", Roles: []role.Role{role.Staff}})
	require.NoError(t, err)

	_, err = svc2.ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}

func TestTokenService_WrongIssuer(t *testing.T) {
	svc1 := auth.NewTokenService(testSigningKey, "glowbook", 24, 168)
	svc2 := auth.NewTokenService(testSigningKey, "other-service", 24, 168)

	token, err := svc1.CreateAccessToken(&auth.Principal{UserID: "user-123", Roles: []role.Role{role.Staff}})
	require.NoError(t, err)

	_, err = svc2.ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}

func TestTokenService_MalformedToken(t *testing.T) {
	svc := auth.NewTokenService(testSigningKey, "glowbook", 24, 168)

	_, err := svc.ValidateToken("not.a.jwt")
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}

func TestTokenService_RejectsEmptyRoles(t *testing.T) {
	svc := auth.NewTokenService(testSigningKey, "glowbook", 24, 168)

	token, err := svc.CreateAccessToken(&auth.Principal{UserID: "user-123"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}

func TestTokenService_RejectsUnknownRole(t *testing.T) {
	svc := auth.NewTokenService(testSigningKey, "glowbook", 24, 168)

	// Hand-built token carrying a role outside the closed set.
	claims := jwt.MapClaims{
		"iss":   "glowbook",
		"sub":   "user-123",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"uid":   "user-123",
		"roles": []string{"SUPERUSER"},
		"type":  "access",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSigningKey))
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}
