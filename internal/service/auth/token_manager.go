package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"mini-commerce/internal/domain"
)

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type tokenMeta struct {
	UserID    string
	Role      domain.Role
	ExpiresAt time.Time
}

type tokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newTokenManager(secret string, ttl time.Duration, now func() time.Time) *tokenManager {
	return &tokenManager{secret: []byte(secret), ttl: ttl, now: now}
}

func (m *tokenManager) Issue(userID string, role domain.Role) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (m *tokenManager) Validate(raw string) (tokenMeta, error) {
	var c claims
	token, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return tokenMeta{}, fmt.Errorf("%w: token expired", domain.ErrInvalidToken)
		}
		return tokenMeta{}, domain.ErrInvalidToken
	}
	if c.Subject == "" {
		return tokenMeta{}, domain.ErrInvalidToken
	}
	meta := tokenMeta{UserID: c.Subject, Role: domain.Role(c.Role)}
	if c.ExpiresAt != nil {
		meta.ExpiresAt = c.ExpiresAt.Time
	}
	return meta, nil
}
