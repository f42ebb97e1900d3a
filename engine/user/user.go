package user

import (
	"context"
	"errors"
	"time"

	"github.com/intrence/catalog/engine/core"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User is an account able to authenticate against the catalog.
// PasswordHash is a bcrypt hash and never leaves the process in JSON.
type User struct {
	ID           core.ID   `json:"uuid"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Username     string    `json:"username"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id core.ID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}
