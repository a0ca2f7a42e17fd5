// Package finance computes quote and invoice totals. All arithmetic is plain
// float64 with no rounding; rounding to currency precision happens only at the
// boundary (persisted totals, PDF, email) via Round2.
package finance

import "github.com/shopspring/decimal"

// Totals is the result of ComputeTotals.
type Totals struct {
	Subtotal       float64
	DiscountAmount float64
	Net            float64
	TaxAmount      float64
	Gross          float64
}

// LineTotal returns the stored total for one line. Callers mutating an item
// must recompute its total with this; ComputeTotals itself trusts the stored
// figures.
func LineTotal(quantity, unitPrice float64) float64 {
	return quantity * unitPrice
}

// ComputeTotals computes subtotal, discount, net, tax and gross amounts for an
// ordered list of line totals. Percentages are clamped to non-negative and the
// discount is additionally capped at 100. An empty list yields all-zero
// totals, which is valid for a draft.
func ComputeTotals(lineTotals []float64, discountPercent, taxPercent float64) Totals {
	if discountPercent < 0 {
		discountPercent = 0
	}
	if discountPercent > 100 {
		discountPercent = 100
	}
	if taxPercent < 0 {
		taxPercent = 0
	}

	var t Totals
	for _, lt := range lineTotals {
		t.Subtotal += lt
	}
	t.DiscountAmount = t.Subtotal * discountPercent / 100
	t.Net = t.Subtotal - t.DiscountAmount
	t.TaxAmount = t.Net * taxPercent / 100
	t.Gross = t.Net + t.TaxAmount
	return t
}

// Round2 rounds a monetary amount to 2 decimal places (half away from zero).
// Presentation and persistence use this; intermediate math never does.
func Round2(f float64) float64 {
	r, _ := decimal.NewFromFloat(f).Round(2).Float64()
	return r
}

// Rounded returns a copy of t with every amount rounded to 2 decimals.
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal:       Round2(t.Subtotal),
		DiscountAmount: Round2(t.DiscountAmount),
		Net:            Round2(t.Net),
		TaxAmount:      Round2(t.TaxAmount),
		Gross:          Round2(t.Gross),
	}
}
