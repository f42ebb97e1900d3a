package product

import (
	"context"

	"github.com/intrence/catalog/engine/core"
)

// Repository persists products. Implementations return ErrNotFound for
// missing identifiers.
type Repository interface {
	Exists(ctx context.Context, id core.ID) (bool, error)
	Create(ctx context.Context, p *Product) error
	Read(ctx context.Context, id core.ID) (*Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id core.ID) error
	// Upsert inserts when the identifier is absent and updates otherwise.
	Upsert(ctx context.Context, p *Product) error
	Source(ctx context.Context, id core.ID) (string, error)
}
