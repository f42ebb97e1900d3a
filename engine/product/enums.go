package product

import (
	"fmt"
	"slices"
	"strings"
)

// Sex is the target audience of a product. The string value is its canonical
// form, shared by storage and the search index.
type Sex string

const (
	SexMen    Sex = "MEN"
	SexWomen  Sex = "WOMEN"
	SexUnisex Sex = "UNISEX"
)

var sexes = []Sex{SexMen, SexWomen, SexUnisex}

func ParseSex(s string) (Sex, error) {
	for _, v := range sexes {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown sex %q", s)
}

func (s Sex) String() string { return string(s) }

type Size string

const (
	SizeXXSmall Size = "XX_SMALL"
	SizeXSmall  Size = "X_SMALL"
	SizeSmall   Size = "SMALL"
	SizeMedium  Size = "MEDIUM"
	SizeLarge   Size = "LARGE"
	SizeXLarge  Size = "X_LARGE"
	SizeXXLarge Size = "XX_LARGE"
	SizeOneSize Size = "ONE_SIZE"
)

// sizes is ordered smallest first; SizeSet.Sorted follows it.
var sizes = []Size{SizeXXSmall, SizeXSmall, SizeSmall, SizeMedium, SizeLarge, SizeXLarge, SizeXXLarge, SizeOneSize}

func ParseSize(s string) (Size, error) {
	for _, v := range sizes {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown size %q", s)
}

func (s Size) String() string { return string(s) }

func (s Size) rank() int {
	return slices.Index(sizes, s)
}

type ClothingCategory string

const (
	CategoryCoats       ClothingCategory = "COATS"
	CategoryJackets     ClothingCategory = "JACKETS"
	CategoryDresses     ClothingCategory = "DRESSES"
	CategoryTops        ClothingCategory = "TOPS"
	CategoryShirts      ClothingCategory = "SHIRTS"
	CategoryKnitwear    ClothingCategory = "KNITWEAR"
	CategoryTrousers    ClothingCategory = "TROUSERS"
	CategoryJeans       ClothingCategory = "JEANS"
	CategorySkirts      ClothingCategory = "SKIRTS"
	CategoryShoes       ClothingCategory = "SHOES"
	CategoryBags        ClothingCategory = "BAGS"
	CategoryAccessories ClothingCategory = "ACCESSORIES"
)

var categories = []ClothingCategory{
	CategoryCoats, CategoryJackets, CategoryDresses, CategoryTops, CategoryShirts, CategoryKnitwear,
	CategoryTrousers, CategoryJeans, CategorySkirts, CategoryShoes, CategoryBags, CategoryAccessories,
}

func ParseClothingCategory(s string) (ClothingCategory, error) {
	for _, v := range categories {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown clothing category %q", s)
}

func (c ClothingCategory) String() string { return string(c) }

// SizeSet is an unordered set of sizes.
type SizeSet map[Size]struct{}

func NewSizeSet(members ...Size) SizeSet {
	s := make(SizeSet, len(members))
	for _, m := range members {
		s[m] = struct{}{}
	}
	return s
}

func (s SizeSet) Has(size Size) bool {
	_, ok := s[size]
	return ok
}

func (s SizeSet) Len() int { return len(s) }

// Sorted returns the members smallest first.
func (s SizeSet) Sorted() []Size {
	out := make([]Size, 0, len(s))
	for m := range s {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b Size) int { return a.rank() - b.rank() })
	return out
}

func (s SizeSet) Equal(other SizeSet) bool {
	if len(s) != len(other) {
		return false
	}
	for m := range s {
		if !other.Has(m) {
			return false
		}
	}
	return true
}

func (s SizeSet) clone() SizeSet {
	out := make(SizeSet, len(s))
	for m := range s {
		out[m] = struct{}{}
	}
	return out
}

func (s SizeSet) String() string {
	parts := make([]string, 0, len(s))
	for _, m := range s.Sorted() {
		parts = append(parts, string(m))
	}
	return "{" + strings.Join(parts, ",") + "}"
}
