// Package session resolves the caller identity carried by a bearer token.
// Token issuance exists for development tooling; production tokens come
// from the identity provider and are only verified here.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleSuperAdmin      Role = "super_admin"
	RoleRestaurantOwner Role = "restaurant_owner"
	RoleKitchenManager  Role = "kitchen_manager"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleRestaurantOwner, RoleKitchenManager:
		return true
	}
	return false
}

var ErrInvalidToken = errors.New("invalid session token")

// Session is the identity of one request. Handlers pass it explicitly to
// authorization checks.
type Session struct {
	UserID       string `json:"user_id"`
	Role         Role   `json:"role"`
	Approved     bool   `json:"approved"`
	RestaurantID string `json:"restaurant_id,omitempty"`
}

type Claims struct {
	Role         Role   `json:"role"`
	Approved     bool   `json:"approved"`
	RestaurantID string `json:"restaurant_id,omitempty"`
	jwt.RegisteredClaims
}

type Provider struct {
	secret []byte
}

func NewProvider(secret string) *Provider {
	return &Provider{secret: []byte(secret)}
}

func (p *Provider) Issue(s Session, ttl time.Duration) (string, error) {
	if s.UserID == "" {
		return "", fmt.Errorf("user id cannot be empty")
	}
	if !s.Role.Valid() {
		return "", fmt.Errorf("unknown role %q", s.Role)
	}
	now := time.Now()
	claims := &Claims{
		Role:         s.Role,
		Approved:     s.Approved,
		RestaurantID: s.RestaurantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

func (p *Provider) Verify(token string) (Session, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return Session{}, fmt.Errorf("%w: missing subject or role", ErrInvalidToken)
	}
	return Session{
		UserID:       claims.Subject,
		Role:         claims.Role,
		Approved:     claims.Approved,
		RestaurantID: claims.RestaurantID,
	}, nil
}

type contextKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok
}
