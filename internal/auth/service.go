// Package auth issues and verifies session tokens for the API server and
// persists the client-side session across reloads.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/storycreative/ledger/internal/user"
)

var (
	// ErrInvalidCredentials covers unknown emails and wrong passwords alike,
	// so login failures do not leak which one it was.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken covers malformed, expired, and logged-out tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// UserSource looks accounts up by email for login. The bootstrap account is
// checked before this and never stored in it.
type UserSource interface {
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
}

// Claims is the JWT payload: the registered subject carries the user id,
// the ID (jti) keys the server-side session entry.
type Claims struct {
	jwt.RegisteredClaims

	Name string    `json:"name"`
	Role user.Role `json:"role"`
}

type Service struct {
	secret    []byte
	ttl       time.Duration
	bootstrap user.User
	users     UserSource
	sessions  *cache.Cache
}

// NewService builds the auth service. bootstrap is the hardcoded
// SUPER_ADMIN account that exists outside the registry; it cannot be
// enumerated or deleted.
func NewService(secret string, ttl time.Duration, bootstrap user.User, users UserSource) *Service {
	return &Service{
		secret:    []byte(secret),
		ttl:       ttl,
		bootstrap: bootstrap,
		users:     users,
		sessions:  cache.New(ttl, 2*ttl),
	}
}

// Login checks the credentials against the bootstrap account first, then
// the registry. Passwords are compared in plaintext, matching the system
// this one replaces; see DESIGN.md.
func (s *Service) Login(ctx context.Context, email, password string) (user.User, string, error) {
	var u user.User

	switch {
	case email == s.bootstrap.Email && password == s.bootstrap.Password:
		u = s.bootstrap
	default:
		found, err := s.users.GetUserByEmail(ctx, email)
		if err != nil || found.Password != password {
			return user.User{}, "", ErrInvalidCredentials
		}

		u = found
	}

	u.Password = ""

	token, err := s.issue(u)
	if err != nil {
		return user.User{}, "", err
	}

	return u, token, nil
}

func (s *Service) issue(u user.User) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Name: u.Name,
		Role: u.Role,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	s.sessions.Set(claims.ID, u, cache.DefaultExpiration)

	return token, nil
}

// Verify parses the token and checks that its session is still live.
func (s *Service) Verify(token string) (user.User, error) {
	claims, err := s.parse(token)
	if err != nil {
		return user.User{}, ErrInvalidToken
	}

	cached, ok := s.sessions.Get(claims.ID)
	if !ok {
		return user.User{}, ErrInvalidToken
	}

	u, ok := cached.(user.User)
	if !ok {
		return user.User{}, ErrInvalidToken
	}

	return u, nil
}

// Logout drops the server-side session; the token is dead afterwards even
// if its expiry has not passed.
func (s *Service) Logout(token string) {
	if claims, err := s.parse(token); err == nil {
		s.sessions.Delete(claims.ID)
	}
}

func (s *Service) parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}

		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
