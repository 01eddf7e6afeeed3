package service

import (
	"fmt"
	"time"

	"stockpos/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DiscountSpec is the requested discount on a sale.
type DiscountSpec struct {
	Type  model.DiscountType
	Value decimal.Decimal
}

// Totals are the derived money amounts stored on a sale.
type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	TotalAmount    decimal.Decimal
}

// Validate rejects unknown types, negative values, percentages over 100 and
// values finer than cents.
func (d DiscountSpec) Validate() error {
	switch d.Type {
	case model.DiscountNone, "":
		return nil
	}
	if !WholeCents(d.Value) {
		return fmt.Errorf("%w: discount value has more than 2 decimal places", ErrValidation)
	}
	switch d.Type {
	case model.DiscountPercentage:
		if d.Value.IsNegative() || d.Value.GreaterThan(hundred) {
			return fmt.Errorf("%w: percentage discount must be between 0 and 100", ErrValidation)
		}
	case model.DiscountFixed:
		if d.Value.IsNegative() {
			return fmt.Errorf("%w: fixed discount must not be negative", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown discount type %q", ErrValidation, d.Type)
	}
	return nil
}

// WholeCents reports whether v fits a decimal(12,2) column without rounding.
func WholeCents(v decimal.Decimal) bool {
	return v.Equal(v.Round(2))
}

// DiscountAmount never exceeds the subtotal. Percentage discounts are rounded
// half away from zero to whole currency units.
func DiscountAmount(subtotal decimal.Decimal, d DiscountSpec) decimal.Decimal {
	var amount decimal.Decimal
	switch d.Type {
	case model.DiscountPercentage:
		amount = subtotal.Mul(d.Value).Div(hundred).Round(0)
	case model.DiscountFixed:
		amount = d.Value
	default:
		return decimal.Zero
	}
	return decimal.Min(amount, subtotal)
}

// ComputeTotals derives discount and total from the subtotal. Tax is an
// independent additive term.
func ComputeTotals(subtotal decimal.Decimal, d DiscountSpec, tax decimal.Decimal) Totals {
	discount := DiscountAmount(subtotal, d)
	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxAmount:      tax,
		TotalAmount:    subtotal.Sub(discount).Add(tax),
	}
}

// Savings reports the discount as an amount and as a share of the subtotal.
// An empty subtotal reports 0%.
func Savings(subtotal, discount decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if !subtotal.IsPositive() {
		return discount, decimal.Zero
	}
	return discount, discount.Div(subtotal).Mul(hundred).Round(2)
}

const invoiceSeqModulo = 1_000_000

// FormatInvoiceNumber renders INV-YYYY-NNNNNN. The sequence wraps every
// million; the unique index on invoice_number rejects an actual collision.
func FormatInvoiceNumber(at time.Time, seq int64) string {
	if seq < 0 {
		seq = -seq
	}
	return fmt.Sprintf("INV-%04d-%06d", at.Year(), seq%invoiceSeqModulo)
}
