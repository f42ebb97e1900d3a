package product

import (
	"github.com/shopspring/decimal"
)

// Price is stored as a JSON document next to the product row.
type Price struct {
	Amount          decimal.Decimal `json:"amount"`
	CurrencyCode    string          `json:"currencyCode"`
	FormattedAmount string          `json:"formattedAmount"`
}

func NewPrice(amount decimal.Decimal, currency, formatted string) Price {
	return Price{Amount: amount, CurrencyCode: currency, FormattedAmount: formatted}
}

// Equal compares amounts numerically, so 80 and 80.00 are the same price.
func (p Price) Equal(other Price) bool {
	return p.Amount.Equal(other.Amount) &&
		p.CurrencyCode == other.CurrencyCode &&
		p.FormattedAmount == other.FormattedAmount
}
