package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/glowbook/glowbook/internal/role"
	"github.com/golang-jwt/jwt/v5"
)

type glowbookClaims struct {
	jwt.RegisteredClaims
	UserID      string   `json:"uid"`
	TenantID    string   `json:"tid,omitempty"`
	Email       string   `json:"email,omitempty"`
	DisplayName string   `json:"name,omitempty"`
	Roles       []string `json:"roles"`
	TokenType   string   `json:"type"`
}

// TokenService handles JWT creation and validation.
type TokenService struct {
	signingKey         []byte
	issuer             string
	expiryHours        int
	refreshExpiryHours int
}

func NewTokenService(signingKey, issuer string, expiryHours, refreshExpiryHours int) *TokenService {
	return &TokenService{
		signingKey:         []byte(signingKey),
		issuer:             issuer,
		expiryHours:        expiryHours,
		refreshExpiryHours: refreshExpiryHours,
	}
}

func (s *TokenService) CreateAccessToken(p *Principal) (string, error) {
	return s.createToken(p, "access", s.expiryHours)
}

func (s *TokenService) CreateRefreshToken(p *Principal) (string, error) {
	return s.createToken(p, "refresh", s.refreshExpiryHours)
}

func (s *TokenService) createToken(p *Principal, tokenType string, expiryHours int) (string, error) {
	now := time.Now()

	claims := glowbookClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expiryHours) * time.Hour)),
		},
		UserID:      p.UserID,
		TenantID:    p.TenantID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		Roles:       role.Strings(p.Roles),
		TokenType:   tokenType,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.signingKey)
}

// ValidateToken verifies the signature, issuer and expiry, then parses the
// role claims. A token whose role list is empty or names a role outside the
// closed set is rejected.
func (s *TokenService) ValidateToken(tokenString string) (*Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &glowbookClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*glowbookClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrTokenInvalid)
	}
	if len(claims.Roles) == 0 {
		return nil, fmt.Errorf("%w: no roles", ErrTokenInvalid)
	}
	roles, err := role.ParseAll(claims.Roles)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	return &Principal{
		UserID:      claims.UserID,
		TenantID:    claims.TenantID,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		Roles:       roles,
		TokenType:   claims.TokenType,
	}, nil
}
