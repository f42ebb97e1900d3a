package postgres_test

import (
	"testing"
	"time"

	"github.com/intrence/catalog/engine/core"
	"github.com/intrence/catalog/engine/infra/postgres"
	"github.com/intrence/catalog/engine/user"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userRowColumns = []string{
	"uuid", "email", "password_hash", "username", "first_name", "last_name", "created_at", "updated_at",
}

func newMockUserRepo(t *testing.T) (*postgres.UserRepo, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	codecs, err := postgres.NewCatalogRegistry()
	require.NoError(t, err)
	return postgres.NewUserRepo(&mockHandle{db: mock}, codecs, postgres.Timeouts{}), mock
}

func TestUserRepo(t *testing.T) {
	ts := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
	id := core.MustParseID("0b5f7a0e-52c4-4f53-9b1c-3a2d9f1e7c11")

	t.Run("Should insert users with a lower-cased email", func(t *testing.T) {
		repo, mock := newMockUserRepo(t)
		u := &user.User{ID: id, Email: "Ann@Example.com", PasswordHash: "$2a$10$hash", Username: "ann", CreatedAt: ts, UpdatedAt: ts}
		mock.ExpectExec(`INSERT INTO users \(uuid,email,password_hash,username,first_name,last_name,created_at,updated_at\)`).
			WithArgs(id.String(), "ann@example.com", "$2a$10$hash", "ann", "", "", ts, ts).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.Create(t.Context(), u))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should surface a taken email as ConflictError", func(t *testing.T) {
		repo, mock := newMockUserRepo(t)
		mock.ExpectExec("INSERT INTO users").
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})

		err := repo.Create(t.Context(), &user.User{ID: id, Email: "ann@example.com", CreatedAt: ts, UpdatedAt: ts})
		var conflict *postgres.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "user", conflict.Entity)
	})

	t.Run("Should load a user by email", func(t *testing.T) {
		repo, mock := newMockUserRepo(t)
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
			WithArgs("ann@example.com").
			WillReturnRows(mock.NewRows(userRowColumns).
				AddRow(id.String(), "ann@example.com", "$2a$10$hash", "ann", "Ann", "Lee", ts, ts))

		u, err := repo.GetByEmail(t.Context(), "ANN@example.com")
		require.NoError(t, err)
		assert.Equal(t, id, u.ID)
		assert.Equal(t, "Lee", u.LastName)
		assert.True(t, ts.Equal(u.CreatedAt))
	})

	t.Run("Should return ErrNotFound for unknown identifiers", func(t *testing.T) {
		repo, mock := newMockUserRepo(t)
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE uuid = \$1::uuid`).
			WithArgs(id.String()).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetByID(t.Context(), id)
		assert.ErrorIs(t, err, user.ErrNotFound)
	})

	t.Run("Should validate credentials through the repository", func(t *testing.T) {
		repo, mock := newMockUserRepo(t)
		hash, err := user.HashPassword("correct horse")
		require.NoError(t, err)
		for range 2 {
			mock.ExpectQuery("SELECT (.+) FROM users").
				WillReturnRows(mock.NewRows(userRowColumns).
					AddRow(id.String(), "ann@example.com", hash, "ann", "Ann", "Lee", ts, ts))
		}
		auth := user.NewAuthenticator(repo)

		u, err := auth.Validate(t.Context(), "ann@example.com", "correct horse")
		require.NoError(t, err)
		assert.Equal(t, id, u.ID)

		_, err = auth.Validate(t.Context(), "ann@example.com", "wrong")
		assert.ErrorIs(t, err, user.ErrInvalidCredentials)
	})
}
