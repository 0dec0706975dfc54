package services

import (
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/cafe-pos/models"
)

var hundred = decimal.NewFromInt(100)

// DiscountInput is a requested discount. An empty Type means no explicit
// discount was given.
type DiscountInput struct {
	Type  models.DiscountType `json:"type"`
	Value float64             `json:"value"`
}

func (d *DiscountInput) explicit() bool {
	return d != nil && (d.Type != models.DiscountNone || d.Value != 0)
}

func (d *DiscountInput) validate() error {
	if d == nil {
		return nil
	}
	if d.Value < 0 {
		return validation("discount value must not be negative")
	}
	switch d.Type {
	case models.DiscountPercentage, models.DiscountFixed:
		return nil
	case models.DiscountNone:
		if d.Value > 0 {
			return validation("discount type is required when a discount value is given")
		}
		return nil
	}
	return validation("unknown discount type %q", d.Type)
}

// Totals are the money figures of one order, rounded to cents.
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Final    decimal.Decimal
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// discountAmount resolves a discount against subtotal: percentages are
// clamped to [0,100] and fixed amounts to [0,subtotal].
func discountAmount(subtotal decimal.Decimal, typ models.DiscountType, value float64) decimal.Decimal {
	v := decimal.NewFromFloat(value)
	if v.IsNegative() || subtotal.Sign() <= 0 {
		return decimal.Zero
	}
	var amount decimal.Decimal
	switch typ {
	case models.DiscountPercentage:
		if v.GreaterThan(hundred) {
			v = hundred
		}
		amount = subtotal.Mul(v).Div(hundred)
	case models.DiscountFixed:
		amount = v
	default:
		return decimal.Zero
	}
	if amount.GreaterThan(subtotal) {
		amount = subtotal
	}
	return amount.Round(2)
}

// computeTotals prices subtotal with a discount and a tax rate in percent.
// Tax applies to the discounted amount.
func computeTotals(subtotal decimal.Decimal, typ models.DiscountType, value, taxRate float64) Totals {
	subtotal = subtotal.Round(2)
	discount := discountAmount(subtotal, typ, value)
	taxable := subtotal.Sub(discount)
	tax := decimal.Zero
	if taxRate > 0 {
		tax = taxable.Mul(decimal.NewFromFloat(taxRate)).Div(hundred).Round(2)
	}
	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Final:    taxable.Add(tax),
	}
}

// settle checks amount paid against the amount due and returns the change.
// Cash must cover the bill. Other methods either charge exactly (paid == 0)
// or must cover it, and never give change.
func settle(method models.PaymentMethod, due, paid decimal.Decimal) (charged, change decimal.Decimal, err error) {
	if paid.IsNegative() {
		return decimal.Zero, decimal.Zero, validation("amount paid must not be negative")
	}
	if method == models.PaymentCash {
		if paid.LessThan(due) {
			return decimal.Zero, decimal.Zero, validation("insufficient payment: due %s, paid %s",
				due.StringFixed(2), paid.StringFixed(2))
		}
		return paid, paid.Sub(due), nil
	}
	if paid.IsZero() {
		return due, decimal.Zero, nil
	}
	if paid.LessThan(due) {
		return decimal.Zero, decimal.Zero, validation("insufficient payment: due %s, paid %s",
			due.StringFixed(2), paid.StringFixed(2))
	}
	return paid, decimal.Zero, nil
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
