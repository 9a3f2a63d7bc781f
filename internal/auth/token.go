package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"jobboard/internal/database"
)

// TokenService 负责签发与校验会话令牌。
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// SessionClaims carries the session fields every handler used to read from
// the server-side session: who is logged in and which profile they act as.
type SessionClaims struct {
	AccountID   uint          `json:"account_id"`
	Email       string        `json:"email"`
	Role        database.Role `json:"role"`
	DisplayName string        `json:"display_name"`
	ProfileID   uint          `json:"profile_id"`
	jwt.RegisteredClaims
}

// NewTokenService builds an HS256 token service.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a session token for the principal.
func (s *TokenService) Issue(p *Principal) (string, *SessionClaims, error) {
	now := s.now()
	claims := &SessionClaims{
		AccountID:   p.AccountID,
		Email:       p.Email,
		Role:        p.Role,
		DisplayName: p.DisplayName,
		ProfileID:   p.ProfileID(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(p.AccountID), 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies signature and expiry and returns the claims.
func (s *TokenService) Parse(tokenString string) (*SessionClaims, error) {
	if tokenString == "" {
		return nil, errors.New("token string is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.ID == "" {
		return nil, errors.New("token missing id")
	}

	return claims, nil
}

// TTL exposes the session lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}
