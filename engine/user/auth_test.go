package user_test

import (
	"context"
	"errors"
	"testing"

	"github.com/intrence/catalog/engine/core"
	"github.com/intrence/catalog/engine/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	byEmail map[string]*user.User
	err     error
}

func (m *memRepo) Create(_ context.Context, u *user.User) error {
	m.byEmail[u.Email] = u
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id core.ID) (*user.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (m *memRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, user.ErrNotFound
}

func TestAuthenticator_Validate(t *testing.T) {
	hash, err := user.HashPassword("correct horse")
	require.NoError(t, err)
	stored := &user.User{ID: core.NewID(), Email: "ana@example.com", PasswordHash: hash}
	repo := &memRepo{byEmail: map[string]*user.User{stored.Email: stored}}
	auth := user.NewAuthenticator(repo)

	t.Run("Should return the user for a matching password", func(t *testing.T) {
		u, err := auth.Validate(t.Context(), " ana@example.com ", "correct horse")
		require.NoError(t, err)
		assert.Equal(t, stored.ID, u.ID)
	})

	t.Run("Should reject a wrong password", func(t *testing.T) {
		_, err := auth.Validate(t.Context(), "ana@example.com", "battery staple")
		assert.ErrorIs(t, err, user.ErrInvalidCredentials)
	})

	t.Run("Should not reveal unknown emails", func(t *testing.T) {
		_, err := auth.Validate(t.Context(), "nobody@example.com", "x")
		assert.ErrorIs(t, err, user.ErrInvalidCredentials)
	})

	t.Run("Should propagate repository failures", func(t *testing.T) {
		failing := user.NewAuthenticator(&memRepo{err: errors.New("pool exhausted")})
		_, err := failing.Validate(t.Context(), "ana@example.com", "x")
		require.Error(t, err)
		assert.NotErrorIs(t, err, user.ErrInvalidCredentials)
	})
}

func TestHashPassword(t *testing.T) {
	t.Run("Should reject empty passwords", func(t *testing.T) {
		_, err := user.HashPassword("")
		assert.Error(t, err)
	})

	t.Run("Should salt hashes", func(t *testing.T) {
		a, err := user.HashPassword("pw")
		require.NoError(t, err)
		b, err := user.HashPassword("pw")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}
