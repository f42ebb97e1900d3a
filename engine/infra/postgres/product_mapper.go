package postgres

import (
	"fmt"
	"strings"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/intrence/catalog/engine/core"
	"github.com/intrence/catalog/engine/infra/codec"
	"github.com/intrence/catalog/engine/product"
	"github.com/jackc/pgx/v5"
)

// productColumns is the bind order of ToRow and the column order of every
// products statement.
var productColumns = []string{
	"uuid",
	"name",
	"description",
	"designer",
	"sex",
	"available_sizes",
	"clothing_category",
	"original_price",
	"current_price",
	"is_on_sale",
	"sale_discount",
	"source",
	"external_link",
	"image_links",
	"created_at",
	"updated_at",
}

// productSelectColumns reads enum and JSON columns as text so the codec
// registry, not the driver, rebuilds the domain values.
var productSelectColumns = strings.Join([]string{
	"uuid::text AS uuid",
	"name",
	"description",
	"designer",
	"sex::text AS sex",
	"available_sizes::text[] AS available_sizes",
	"clothing_category::text AS clothing_category",
	"original_price::text AS original_price",
	"current_price::text AS current_price",
	"is_on_sale",
	"sale_discount",
	"source",
	"external_link",
	"image_links",
	"created_at",
	"updated_at",
}, ", ")

// Bind is one encoded column of a row.
type Bind struct {
	Column string
	Value  codec.Value
}

type productRecord struct {
	UUID             string    `db:"uuid"`
	Name             string    `db:"name"`
	Description      string    `db:"description"`
	Designer         string    `db:"designer"`
	Sex              *string   `db:"sex"`
	AvailableSizes   []string  `db:"available_sizes"`
	ClothingCategory *string   `db:"clothing_category"`
	OriginalPrice    string    `db:"original_price"`
	CurrentPrice     string    `db:"current_price"`
	IsOnSale         bool      `db:"is_on_sale"`
	SaleDiscount     int       `db:"sale_discount"`
	Source           string    `db:"source"`
	ExternalLink     string    `db:"external_link"`
	ImageLinks       []string  `db:"image_links"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// ProductMapper converts products to bind lists and rows back to products.
type ProductMapper struct {
	codecs *codec.Registry
}

func NewProductMapper(codecs *codec.Registry) *ProductMapper {
	return &ProductMapper{codecs: codecs}
}

// ToRow encodes every persisted column once, in productColumns order.
func (m *ProductMapper) ToRow(p *product.Product) ([]Bind, error) {
	sex, category := optionalSex(p), optionalCategory(p)
	values := []any{
		p.ID(),
		p.Name(),
		p.Description(),
		p.Designer(),
		sex,
		p.AvailableSizes(),
		category,
		p.OriginalPrice(),
		p.CurrentPrice(),
		p.OnSale(),
		p.SaleDiscount(),
		p.Source(),
		p.ExternalLink(),
		p.ImageLinks(),
		p.CreatedAt(),
		p.UpdatedAt(),
	}
	binds := make([]Bind, len(values))
	for i, v := range values {
		enc, err := m.codecs.Encode(v)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", productColumns[i], err)
		}
		binds[i] = Bind{Column: productColumns[i], Value: enc}
	}
	return binds, nil
}

// FromRow scans the current row of rows. The caller advances rows.
func (m *ProductMapper) FromRow(rows pgx.Rows) (*product.Product, error) {
	var rec productRecord
	if err := pgxscan.ScanRow(&rec, rows); err != nil {
		return nil, fmt.Errorf("scanning product: %w", err)
	}
	return m.fromRecord(&rec)
}

func (m *ProductMapper) fromRecord(rec *productRecord) (*product.Product, error) {
	id, err := codec.Decode[core.ID](m.codecs, rec.UUID)
	if err != nil {
		return nil, err
	}
	sex, err := codec.Decode[*product.Sex](m.codecs, rec.Sex)
	if err != nil {
		return nil, err
	}
	category, err := codec.Decode[*product.ClothingCategory](m.codecs, rec.ClothingCategory)
	if err != nil {
		return nil, err
	}
	sizes, err := codec.Decode[product.SizeSet](m.codecs, rec.AvailableSizes)
	if err != nil {
		return nil, err
	}
	original, err := codec.Decode[product.Price](m.codecs, rec.OriginalPrice)
	if err != nil {
		return nil, err
	}
	current, err := codec.Decode[product.Price](m.codecs, rec.CurrentPrice)
	if err != nil {
		return nil, err
	}
	links, err := codec.Decode[[]string](m.codecs, rec.ImageLinks)
	if err != nil {
		return nil, err
	}
	createdAt, err := codec.Decode[time.Time](m.codecs, rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := codec.Decode[time.Time](m.codecs, rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return product.NewBuilder(id).
		Name(rec.Name).
		Description(rec.Description).
		Designer(rec.Designer).
		OptionalSex(sex).
		AvailableSizes(sizes).
		OptionalClothingCategory(category).
		OriginalPrice(original).
		CurrentPrice(current).
		OnSale(rec.IsOnSale).
		SaleDiscount(rec.SaleDiscount).
		Source(rec.Source).
		ExternalLink(rec.ExternalLink).
		ImageLinks(links).
		CreatedAt(createdAt).
		UpdatedAt(updatedAt).
		Build()
}

func optionalSex(p *product.Product) *product.Sex {
	if s, ok := p.Sex(); ok {
		return &s
	}
	return nil
}

func optionalCategory(p *product.Product) *product.ClothingCategory {
	if c, ok := p.ClothingCategory(); ok {
		return &c
	}
	return nil
}
