package product

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/intrence/catalog/engine/core"
)

var (
	ErrNotFound     = errors.New("product not found")
	ErrInvalid      = errors.New("invalid product")
	ErrAlreadyBuilt = errors.New("product builder already finalized")
)

// Product is a catalog item. It is immutable once built; use Builder or
// Product.ToBuilder to derive a changed copy.
type Product struct {
	id               core.ID
	name             string
	description      string
	designer         string
	sex              *Sex
	availableSizes   SizeSet
	clothingCategory *ClothingCategory
	originalPrice    Price
	currentPrice     Price
	onSale           bool
	saleDiscount     int
	source           string
	externalLink     string
	imageLinks       []string
	createdAt        time.Time
	updatedAt        time.Time
}

func (p *Product) ID() core.ID          { return p.id }
func (p *Product) Name() string         { return p.name }
func (p *Product) Description() string  { return p.description }
func (p *Product) Designer() string     { return p.designer }
func (p *Product) OriginalPrice() Price { return p.originalPrice }
func (p *Product) CurrentPrice() Price  { return p.currentPrice }
func (p *Product) OnSale() bool         { return p.onSale }
func (p *Product) SaleDiscount() int    { return p.saleDiscount }
func (p *Product) Source() string       { return p.source }
func (p *Product) ExternalLink() string { return p.externalLink }
func (p *Product) CreatedAt() time.Time { return p.createdAt }
func (p *Product) UpdatedAt() time.Time { return p.updatedAt }

// Sex reports the audience; ok is false when it was never set.
func (p *Product) Sex() (Sex, bool) {
	if p.sex == nil {
		return "", false
	}
	return *p.sex, true
}

func (p *Product) ClothingCategory() (ClothingCategory, bool) {
	if p.clothingCategory == nil {
		return "", false
	}
	return *p.clothingCategory, true
}

func (p *Product) AvailableSizes() SizeSet { return p.availableSizes.clone() }

func (p *Product) ImageLinks() []string { return slices.Clone(p.imageLinks) }

// Equal compares sizes as a set, image links in order and timestamps by instant.
func (p *Product) Equal(o *Product) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.id == o.id &&
		p.name == o.name &&
		p.description == o.description &&
		p.designer == o.designer &&
		equalPtr(p.sex, o.sex) &&
		p.availableSizes.Equal(o.availableSizes) &&
		equalPtr(p.clothingCategory, o.clothingCategory) &&
		p.originalPrice.Equal(o.originalPrice) &&
		p.currentPrice.Equal(o.currentPrice) &&
		p.onSale == o.onSale &&
		p.saleDiscount == o.saleDiscount &&
		p.source == o.source &&
		p.externalLink == o.externalLink &&
		slices.Equal(p.imageLinks, o.imageLinks) &&
		p.createdAt.Equal(o.createdAt) &&
		p.updatedAt.Equal(o.updatedAt)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

type productJSON struct {
	ID               core.ID           `json:"uuid"`
	Name             string            `json:"name"`
	Description      string            `json:"description"`
	Designer         string            `json:"designer"`
	Sex              *Sex              `json:"sex,omitempty"`
	AvailableSizes   []Size            `json:"availableSizes"`
	ClothingCategory *ClothingCategory `json:"clothingCategory,omitempty"`
	OriginalPrice    Price             `json:"originalPrice"`
	CurrentPrice     Price             `json:"currentPrice"`
	OnSale           bool              `json:"isOnSale"`
	SaleDiscount     int               `json:"saleDiscount"`
	Source           string            `json:"source"`
	ExternalLink     string            `json:"externalLink"`
	ImageLinks       []string          `json:"imageLinks"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// MarshalJSON renders the document shape consumed by the search index.
func (p *Product) MarshalJSON() ([]byte, error) {
	return json.Marshal(productJSON{
		ID:               p.id,
		Name:             p.name,
		Description:      p.description,
		Designer:         p.designer,
		Sex:              p.sex,
		AvailableSizes:   p.availableSizes.Sorted(),
		ClothingCategory: p.clothingCategory,
		OriginalPrice:    p.originalPrice,
		CurrentPrice:     p.currentPrice,
		OnSale:           p.onSale,
		SaleDiscount:     p.saleDiscount,
		Source:           p.source,
		ExternalLink:     p.externalLink,
		ImageLinks:       p.imageLinks,
		CreatedAt:        p.createdAt,
		UpdatedAt:        p.updatedAt,
	})
}

// Builder assigns product fields incrementally. Build finalizes it; any
// further use of the builder fails.
type Builder struct {
	p     Product
	built bool
}

func NewBuilder(id core.ID) *Builder {
	return &Builder{p: Product{id: id, availableSizes: SizeSet{}}}
}

// ToBuilder starts a new builder from a copy of p.
func (p *Product) ToBuilder() *Builder {
	cp := *p
	cp.availableSizes = p.availableSizes.clone()
	cp.imageLinks = slices.Clone(p.imageLinks)
	return &Builder{p: cp}
}

func (b *Builder) Name(v string) *Builder         { b.p.name = v; return b }
func (b *Builder) Description(v string) *Builder  { b.p.description = v; return b }
func (b *Builder) Designer(v string) *Builder     { b.p.designer = v; return b }
func (b *Builder) OriginalPrice(v Price) *Builder { b.p.originalPrice = v; return b }
func (b *Builder) CurrentPrice(v Price) *Builder  { b.p.currentPrice = v; return b }
func (b *Builder) OnSale(v bool) *Builder         { b.p.onSale = v; return b }
func (b *Builder) SaleDiscount(v int) *Builder    { b.p.saleDiscount = v; return b }
func (b *Builder) Source(v string) *Builder       { b.p.source = v; return b }
func (b *Builder) ExternalLink(v string) *Builder { b.p.externalLink = v; return b }
func (b *Builder) CreatedAt(v time.Time) *Builder { b.p.createdAt = v; return b }
func (b *Builder) UpdatedAt(v time.Time) *Builder { b.p.updatedAt = v; return b }

func (b *Builder) Sex(v Sex) *Builder {
	b.p.sex = &v
	return b
}

// OptionalSex accepts an absent value, as read back from a NULL column.
func (b *Builder) OptionalSex(v *Sex) *Builder {
	if v == nil {
		b.p.sex = nil
		return b
	}
	return b.Sex(*v)
}

func (b *Builder) ClothingCategory(v ClothingCategory) *Builder {
	b.p.clothingCategory = &v
	return b
}

func (b *Builder) OptionalClothingCategory(v *ClothingCategory) *Builder {
	if v == nil {
		b.p.clothingCategory = nil
		return b
	}
	return b.ClothingCategory(*v)
}

func (b *Builder) AvailableSizes(v SizeSet) *Builder {
	b.p.availableSizes = v.clone()
	return b
}

func (b *Builder) ImageLinks(v []string) *Builder {
	b.p.imageLinks = slices.Clone(v)
	return b
}

func (b *Builder) Build() (*Product, error) {
	if b.built {
		return nil, ErrAlreadyBuilt
	}
	if b.p.id.IsZero() {
		return nil, fmt.Errorf("%w: missing id", ErrInvalid)
	}
	if b.p.name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalid)
	}
	if b.p.saleDiscount < 0 || b.p.saleDiscount > 100 {
		return nil, fmt.Errorf("%w: sale discount %d out of range", ErrInvalid, b.p.saleDiscount)
	}
	b.built = true
	p := b.p
	if p.imageLinks == nil {
		p.imageLinks = []string{}
	}
	return &p, nil
}
