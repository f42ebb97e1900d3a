package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/intrence/catalog/engine/core"
	"github.com/intrence/catalog/engine/product"
	"github.com/intrence/catalog/pkg/logger"
	"github.com/jackc/pgx/v5"
)

const productTable = "products"

// ProductRepo persists products through one tier source.
type ProductRepo struct {
	run    runner
	mapper *ProductMapper
}

var _ product.Repository = (*ProductRepo)(nil)

func NewProductRepo(src Handle, mapper *ProductMapper, timeouts Timeouts) *ProductRepo {
	return &ProductRepo{run: newRunner(src, timeouts), mapper: mapper}
}

func (r *ProductRepo) whereID(id core.ID) (squirrel.Sqlizer, error) {
	v, err := r.mapper.codecs.Encode(id)
	if err != nil {
		return nil, err
	}
	return squirrel.Expr("uuid = "+v.Placeholder(), v.Arg()), nil
}

func (r *ProductRepo) Exists(ctx context.Context, id core.ID) (bool, error) {
	where, err := r.whereID(id)
	if err != nil {
		return false, err
	}
	query, args, err := squirrel.Select("1").
		Prefix("SELECT EXISTS (").
		From(productTable).
		Where(where).
		Suffix(")").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("building exists query: %w", err)
	}
	var exists bool
	err = r.run.run(ctx, func(ctx context.Context, db DB) error {
		return db.QueryRow(ctx, query, args...).Scan(&exists)
	})
	if err != nil {
		return false, fmt.Errorf("checking product %s: %w", id, err)
	}
	return exists, nil
}

func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	binds, err := r.mapper.ToRow(p)
	if err != nil {
		return err
	}
	cols := make([]string, len(binds))
	vals := make([]any, len(binds))
	for i, b := range binds {
		cols[i] = b.Column
		vals[i] = squirrel.Expr(b.Value.Placeholder(), b.Value.Arg())
	}
	query, args, err := squirrel.Insert(productTable).
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
			return &ConflictError{Entity: "product", ID: p.ID(), Constraint: constraint, Err: err}
		}
		return fmt.Errorf("inserting product %s: %w", p.ID(), err)
	}
	return nil
}

func (r *ProductRepo) Read(ctx context.Context, id core.ID) (*product.Product, error) {
	where, err := r.whereID(id)
	if err != nil {
		return nil, err
	}
	query, args, err := squirrel.Select(productSelectColumns).
		From(productTable).
		Where(where).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}
	var out *product.Product
	err = r.run.run(ctx, func(ctx context.Context, db DB) error {
		rows, err := db.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return err
			}
			return product.ErrNotFound
		}
		if out, err = r.mapper.FromRow(rows); err != nil {
			return err
		}
		return rows.Err()
	})
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("reading product %s: %w", id, err)
	}
	return out, nil
}

func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	binds, err := r.mapper.ToRow(p)
	if err != nil {
		return err
	}
	where, err := r.whereID(p.ID())
	if err != nil {
		return err
	}
	ub := squirrel.Update(productTable).PlaceholderFormat(squirrel.Dollar)
	for _, b := range binds[1:] {
		ub = ub.Set(b.Column, squirrel.Expr(b.Value.Placeholder(), b.Value.Arg()))
	}
	query, args, err := ub.Where(where).ToSql()
	if err != nil {
		return fmt.Errorf("building update: %w", err)
	}
	var affected int64
	err = r.run.run(ctx, func(ctx context.Context, db DB) error {
		tag, err := db.Exec(ctx, query, args...)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("updating product %s: %w", p.ID(), err)
	}
	if affected == 0 {
		return product.ErrNotFound
	}
	return nil
}

func (r *ProductRepo) Delete(ctx context.Context, id core.ID) error {
	where, err := r.whereID(id)
	if err != nil {
		return err
	}
	query, args, err := squirrel.Delete(productTable).
		Where(where).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("building delete: %w", err)
	}
	var affected int64
	err = r.run.run(ctx, func(ctx context.Context, db DB) error {
		tag, err := db.Exec(ctx, query, args...)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("deleting product %s: %w", id, err)
	}
	if affected == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Upsert checks existence, then updates or inserts. The two steps are not
// atomic; a concurrent insert of the same id surfaces as *ConflictError.
// Run it inside WithTransaction to hold both steps on one connection.
func (r *ProductRepo) Upsert(ctx context.Context, p *product.Product) error {
	exists, err := r.Exists(ctx, p.ID())
	if err != nil {
		return err
	}
	log := logger.FromContext(ctx).With("product_id", p.ID())
	if exists {
		log.Debug("Updating existing product")
		return r.Update(ctx, p)
	}
	log.Debug("Inserting new product")
	return r.Create(ctx, p)
}

// Source returns only the source column of a product.
func (r *ProductRepo) Source(ctx context.Context, id core.ID) (string, error) {
	where, err := r.whereID(id)
	if err != nil {
		return "", err
	}
	query, args, err := squirrel.Select("source").
		From(productTable).
		Where(where).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("building select: %w", err)
	}
	var source string
	err = r.run.run(ctx, func(ctx context.Context, db DB) error {
		return db.QueryRow(ctx, query, args...).Scan(&source)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", product.ErrNotFound
		}
		return "", fmt.Errorf("reading source of product %s: %w", id, err)
	}
	return source, nil
}

// WithTransaction provides a tx-scoped repository to the callback. The
// transaction commits when fn returns nil and rolls back otherwise.
func (r *ProductRepo) WithTransaction(ctx context.Context, fn func(product.Repository) error) error {
	return r.run.transaction(ctx, func(tx pgx.Tx) error {
		return fn(&ProductRepo{run: r.run.withTx(tx), mapper: r.mapper})
	})
}
