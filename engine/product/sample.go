package product

import (
	"time"

	"github.com/intrence/catalog/engine/core"
	"github.com/shopspring/decimal"
)

// SampleID identifies the Sample product.
var SampleID = core.MustParseID("81ae3b00-81b4-4cbd-9662-1e5db30a1f7d")

// Sample returns a fully populated product for smoke tests and demos.
func Sample() *Product {
	ts := time.Date(2018, time.April, 3, 4, 31, 9, 128_000_000, time.UTC)
	p, err := NewBuilder(SampleID).
		Name("Navy Coat").
		Description("Coat Description").
		Designer("Dior").
		Sex(SexMen).
		AvailableSizes(NewSizeSet(SizeSmall, SizeMedium, SizeLarge)).
		ClothingCategory(CategoryCoats).
		OriginalPrice(NewPrice(decimal.NewFromInt(100), "USD", "$100.00")).
		CurrentPrice(NewPrice(decimal.NewFromInt(80), "USD", "$80.00")).
		OnSale(true).
		SaleDiscount(20).
		Source("farfetch").
		ExternalLink("farfetch.com/navy-coat").
		ImageLinks([]string{"navy-coat.jpg", "navy-coat-2.jpg"}).
		CreatedAt(ts).
		UpdatedAt(ts).
		Build()
	if err != nil {
		panic(err)
	}
	return p
}
