package postgres

import (
	"reflect"
	"time"

	"github.com/intrence/catalog/engine/core"
	"github.com/intrence/catalog/engine/infra/codec"
	"github.com/intrence/catalog/engine/product"
)

// Server-side types the catalog casts to.
const (
	wireUUID         = "uuid"
	wireSexEnum      = "sex_enum"
	wireSizeEnum     = "clothing_size_enum"
	wireCategoryEnum = "clothing_category_enum"
	wireJSONB        = "jsonb"
)

// catalogTypes is every domain type the product and user mappers bind or
// scan.
var catalogTypes = []reflect.Type{
	reflect.TypeFor[core.ID](),
	reflect.TypeFor[string](),
	reflect.TypeFor[bool](),
	reflect.TypeFor[int](),
	reflect.TypeFor[time.Time](),
	reflect.TypeFor[[]string](),
	reflect.TypeFor[product.Sex](),
	reflect.TypeFor[*product.Sex](),
	reflect.TypeFor[product.Size](),
	reflect.TypeFor[product.SizeSet](),
	reflect.TypeFor[product.ClothingCategory](),
	reflect.TypeFor[*product.ClothingCategory](),
	reflect.TypeFor[product.Price](),
}

// NewCatalogRegistry builds the codec registry for catalog entities and
// verifies it covers every mapped type.
func NewCatalogRegistry() (*codec.Registry, error) {
	r := codec.NewRegistry()
	codec.RegisterText(r, wireUUID, core.ID.String, core.ParseID)
	codec.RegisterEnum(r, wireSexEnum, product.ParseSex)
	codec.RegisterOptional[product.Sex](r)
	codec.RegisterEnum(r, wireSizeEnum, product.ParseSize)
	codec.RegisterArray(r,
		product.SizeSet.Sorted,
		func(sizes []product.Size) product.SizeSet { return product.NewSizeSet(sizes...) },
	)
	codec.RegisterEnum(r, wireCategoryEnum, product.ParseClothingCategory)
	codec.RegisterOptional[product.ClothingCategory](r)
	codec.RegisterJSON[product.Price](r, wireJSONB)
	if err := r.Verify(catalogTypes...); err != nil {
		return nil, err
	}
	return r, nil
}
