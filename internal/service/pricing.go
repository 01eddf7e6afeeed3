package service

import (
	"stockpos/internal/model"

	"github.com/shopspring/decimal"
)

// PriceFor returns the unit price for qty units of p and the tier it came
// from. The wholesale threshold is inclusive. A product without a positive
// threshold or wholesale price always sells at retail.
func PriceFor(p *model.Product, qty int) (decimal.Decimal, model.PriceTier) {
	if p.WholesaleThreshold > 0 && p.WholesalePrice.IsPositive() && qty >= p.WholesaleThreshold {
		return p.WholesalePrice, model.TierWholesale
	}
	return p.RetailPrice, model.TierRetail
}

// LineTotal is unit price × quantity.
func LineTotal(unit decimal.Decimal, qty int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(qty)))
}
