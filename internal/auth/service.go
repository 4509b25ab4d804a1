// Package auth issues and verifies bearer tokens and resolves the caller
// behind a request.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"librarygql/internal/apperr"
	"librarygql/internal/entity"
	"librarygql/internal/store"
)

const bearerScheme = "bearer"

type Service struct {
	secret string
	ttl    time.Duration
	users  store.UserRepository
}

func NewService(secret string, ttl time.Duration, users store.UserRepository) *Service {
	return &Service{
		secret: secret,
		ttl:    ttl,
		users:  users,
	}
}

func (s *Service) IssueToken(u entity.User) (string, error) {
	return GenerateToken(s.secret, u.Username, u.ID, s.ttl)
}

func (s *Service) VerifyToken(raw string) (*Claims, error) {
	claims, err := ParseToken(s.secret, raw)
	if err != nil {
		return nil, apperr.InvalidToken(err)
	}
	return claims, nil
}

// ResolveCurrentUser maps an Authorization header value to the caller.
// A missing or non-bearer header is anonymous (nil, nil). A bearer token that
// fails verification is an AuthenticationError. A valid token whose user no
// longer exists is anonymous.
func (s *Service) ResolveCurrentUser(ctx context.Context, header string) (*entity.User, error) {
	scheme, raw, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return nil, nil
	}
	claims, err := s.VerifyToken(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve current user: %w", err)
	}
	return &u, nil
}

// Login checks the password against the stored hash and returns a token.
// An unknown user and a wrong password fail the same way.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return "", apperr.WrongCredentials()
	}
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if !VerifyPassword(u.PasswordHash, password) {
		return "", apperr.WrongCredentials()
	}
	return s.IssueToken(u)
}
