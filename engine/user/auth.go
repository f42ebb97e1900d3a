package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword produces the stored form of a plaintext password.
func HashPassword(plain string) (string, error) {
	if plain == "" {
		return "", errors.New("password cannot be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Authenticator validates email/password pairs against stored users.
type Authenticator struct {
	repo Repository
}

func NewAuthenticator(repo Repository) *Authenticator {
	return &Authenticator{repo: repo}
}

// Validate returns the user when the password matches. Unknown emails and
// wrong passwords both yield ErrInvalidCredentials.
func (a *Authenticator) Validate(ctx context.Context, email, password string) (*User, error) {
	u, err := a.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("comparing password: %w", err)
	}
	return u, nil
}
