package repo

import (
	"context"
	"fmt"

	"github.com/intrence/catalog/engine/infra/codec"
	"github.com/intrence/catalog/engine/infra/postgres"
	"github.com/intrence/catalog/engine/user"
)

// Provider exposes repositories backed by the transaction tier of one
// descriptor. It returns domain ports rather than driver types.
type Provider struct {
	manager *postgres.Manager
	desc    *postgres.Descriptor
	codecs  *codec.Registry
}

// NewProvider builds the codec registry up front so a missing rule fails at
// startup rather than on the first request.
func NewProvider(manager *postgres.Manager, desc *postgres.Descriptor) (*Provider, error) {
	codecs, err := postgres.NewCatalogRegistry()
	if err != nil {
		return nil, fmt.Errorf("building codec registry: %w", err)
	}
	return &Provider{manager: manager, desc: desc, codecs: codecs}, nil
}

// NewProductRepo returns the product repository.
func (p *Provider) NewProductRepo(ctx context.Context) (*postgres.ProductRepo, error) {
	src, err := p.manager.Pool(ctx, p.desc, postgres.TierTransaction)
	if err != nil {
		return nil, err
	}
	return postgres.NewProductRepo(src, postgres.NewProductMapper(p.codecs), p.desc.Timeouts()), nil
}

// NewUserRepo returns the user repository.
func (p *Provider) NewUserRepo(ctx context.Context) (user.Repository, error) {
	src, err := p.manager.Pool(ctx, p.desc, postgres.TierTransaction)
	if err != nil {
		return nil, err
	}
	return postgres.NewUserRepo(src, p.codecs, p.desc.Timeouts()), nil
}

// NewAuthenticator wires credential validation to the user repository.
func (p *Provider) NewAuthenticator(ctx context.Context) (*user.Authenticator, error) {
	users, err := p.NewUserRepo(ctx)
	if err != nil {
		return nil, err
	}
	return user.NewAuthenticator(users), nil
}
