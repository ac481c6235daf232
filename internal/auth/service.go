// Package auth registers users, checks passwords and issues the tokens that
// link predictions to a user's history.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/curesense/curesense/internal/store"
)

var (
	ErrMissingCredentials = errors.New("username and password required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrPasswordTooLong    = fmt.Errorf("password longer than %d bytes", MaxPasswordBytes)
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// Service ties the user store to password hashing and token issuance.
type Service struct {
	users  store.UserStore
	tokens *TokenIssuer
	cost   int
}

func NewService(users store.UserStore, tokens *TokenIssuer) *Service {
	return &Service{users: users, tokens: tokens, cost: bcrypt.DefaultCost}
}

// Register creates a user. Returns store.ErrUserExists for a taken name.
func (s *Service) Register(ctx context.Context, username, password string) (*store.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	if len(password) > MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.users.CreateUser(ctx, username, string(hash))
}

// Login verifies the password and returns a fresh token.
func (s *Service) Login(ctx context.Context, username, password string) (string, *store.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", nil, ErrMissingCredentials
	}
	u, err := s.users.UserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(u.ID, u.Username)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// Authenticate resolves a token to its user. A valid token whose user no
// longer exists yields store.ErrNotFound.
func (s *Service) Authenticate(ctx context.Context, token string) (*store.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	id, _, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	return s.users.UserByID(ctx, id)
}
