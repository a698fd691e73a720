package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/cohort-tools/apiserver/internal/auth"
	"github.com/cohort-tools/apiserver/internal/store"
	"github.com/cohort-tools/apiserver/types"
)

const minPasswordLength = 6

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validation and authentication failures surfaced by signup/login. The
// handler layer maps these to status codes and user-facing messages.
var (
	ErrAllFieldsRequired   = errors.New("all fields are required")
	ErrInvalidEmail        = errors.New("invalid email format")
	ErrPasswordTooShort    = errors.New("password too short")
	ErrUserExists          = errors.New("user already exists")
	ErrCredentialsRequired = errors.New("email and password are required")
	ErrInvalidCredentials  = errors.New("invalid email or password")
)

// AuthService orchestrates signup and login. Every step is fail-fast: the
// first failing validation short-circuits the rest, and the single user
// insert is the only write.
type AuthService struct {
	users  UserRepository
	issuer *auth.TokenIssuer
	events *EventPublisher
}

func NewAuthService(users UserRepository, issuer *auth.TokenIssuer, events *EventPublisher) *AuthService {
	return &AuthService{users: users, issuer: issuer, events: events}
}

// NormalizeEmail lowercases and trims an email address. All lookups and
// writes go through this, which is what makes the uniqueness invariant
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup validates the input, hashes the password, persists the user and
// issues a token for it.
func (s *AuthService) Signup(ctx context.Context, email, password, name string) (types.User, string, error) {
	email = NormalizeEmail(email)
	name = strings.TrimSpace(name)

	if email == "" || password == "" || name == "" {
		return types.User{}, "", ErrAllFieldsRequired
	}
	if !emailRegex.MatchString(email) {
		return types.User{}, "", ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return types.User{}, "", ErrPasswordTooShort
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return types.User{}, "", ErrUserExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, "", err
	}

	digest, err := auth.HashPassword(password)
	if err != nil {
		return types.User{}, "", err
	}

	user, err := s.users.Create(ctx, types.User{
		Email:        email,
		Name:         name,
		PasswordHash: digest,
	})
	if err != nil {
		// Two concurrent signups can both pass the pre-check; the unique
		// index decides the race and the loser gets the same answer as a
		// sequential duplicate.
		if errors.Is(err, store.ErrDuplicateEmail) {
			return types.User{}, "", ErrUserExists
		}
		return types.User{}, "", err
	}

	token, err := s.issuer.Issue(user)
	if err != nil {
		return types.User{}, "", err
	}

	s.events.Publish("user.signup", user.ID.Hex())
	return user, token, nil
}

// Login verifies credentials and issues a token. An unknown email and a
// wrong password both yield ErrInvalidCredentials so callers cannot probe
// which of the two was wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (types.User, string, error) {
	email = NormalizeEmail(email)

	if email == "" || password == "" {
		return types.User{}, "", ErrCredentialsRequired
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, "", ErrInvalidCredentials
		}
		return types.User{}, "", err
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return types.User{}, "", ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(user)
	if err != nil {
		return types.User{}, "", err
	}

	return user, token, nil
}
