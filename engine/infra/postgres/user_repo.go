package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/intrence/catalog/engine/core"
	"github.com/intrence/catalog/engine/infra/codec"
	"github.com/intrence/catalog/engine/user"
	"github.com/jackc/pgx/v5"
)

const userTable = "users"

var userSelectColumns = []string{
	"uuid::text AS uuid", "email", "password_hash", "username",
	"first_name", "last_name", "created_at", "updated_at",
}

type userRecord struct {
	UUID         string    `db:"uuid"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Username     string    `db:"username"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// UserRepo persists login accounts.
type UserRepo struct {
	run    runner
	codecs *codec.Registry
}

var _ user.Repository = (*UserRepo)(nil)

func NewUserRepo(src Handle, codecs *codec.Registry, timeouts Timeouts) *UserRepo {
	return &UserRepo{run: newRunner(src, timeouts), codecs: codecs}
}

func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	if u == nil {
		return errors.New("user is required")
	}
	cols := []string{"uuid", "email", "password_hash", "username", "first_name", "last_name", "created_at", "updated_at"}
	fields := []any{u.ID, strings.ToLower(u.Email), u.PasswordHash, u.Username, u.FirstName, u.LastName, u.CreatedAt, u.UpdatedAt}
	vals := make([]any, len(fields))
	for i, f := range fields {
		v, err := r.codecs.Encode(f)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", cols[i], err)
		}
		vals[i] = squirrel.Expr(v.Placeholder(), v.Arg())
	}
	query, args, err := squirrel.Insert(userTable).
		Columns(cols...).
		Values(vals...).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert: %w", err)
	}
	err = r.run.run(ctx, func(ctx context.Context, db DB) error {
		_, err := db.Exec(ctx, query, args...)
		return err
	})
	if err != nil {
		if constraint, ok := isUniqueViolation(err); ok {
			return &ConflictError{Entity: "user", ID: u.ID, Constraint: constraint, Err: err}
		}
		return fmt.Errorf("inserting user %s: %w", u.ID, err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id core.ID) (*user.User, error) {
	v, err := r.codecs.Encode(id)
	if err != nil {
		return nil, err
	}
	return r.getBy(ctx, squirrel.Expr("uuid = "+v.Placeholder(), v.Arg()))
}

// GetByEmail matches case-insensitively; emails are stored lower-cased.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getBy(ctx, squirrel.Eq{"email": strings.ToLower(email)})
}

func (r *UserRepo) getBy(ctx context.Context, where squirrel.Sqlizer) (*user.User, error) {
	query, args, err := squirrel.Select(userSelectColumns...).
		From(userTable).
		Where(where).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}
	var rec userRecord
	err = r.run.run(ctx, func(ctx context.Context, db DB) error {
		return pgxscan.Get(ctx, db, &rec, query, args...)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	id, err := codec.Decode[core.ID](r.codecs, rec.UUID)
	if err != nil {
		return nil, err
	}
	return &user.User{
		ID:           id,
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		Username:     rec.Username,
		FirstName:    rec.FirstName,
		LastName:     rec.LastName,
		CreatedAt:    codec.NormalizeTime(rec.CreatedAt),
		UpdatedAt:    codec.NormalizeTime(rec.UpdatedAt),
	}, nil
}
