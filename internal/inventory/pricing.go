package inventory

import "strings"

// Pricing rules for shop checkout. All amounts are integer cents; promo
// and tax percentages round half-up at the cent.
const (
	ShippingFlatCents     = 999
	FreeShippingThreshold = 5000 // compared against the pre-discount subtotal
	TaxRatePct            = 8
)

// Known promo codes map to fixed discount percentages. Unknown codes are
// silently ignored.
var promoCodes = map[string]int{
	"VITAMEND10": 10,
	"HEALTH20":   20,
}

func PromoDiscountPct(code string) int {
	return promoCodes[strings.ToUpper(strings.TrimSpace(code))]
}

// pctOfCents applies a whole-number percentage, rounding half up at the
// cent level.
func pctOfCents(amount, pct int) int {
	return (amount*pct + 50) / 100
}

// Totals is the computed money breakdown frozen into an order.
type Totals struct {
	SubtotalCents int
	DiscountCents int
	ShippingCents int
	TaxCents      int
	TotalCents    int
}

// ComputeTotals derives the full breakdown from cart line items.
// Free-shipping eligibility is decided on the pre-discount subtotal; tax
// applies to subtotal minus discount.
func ComputeTotals(items []CartItem, promoCode string) Totals {
	var t Totals
	for _, it := range items {
		t.SubtotalCents += it.UnitPriceCents * it.Quantity
	}
	t.DiscountCents = pctOfCents(t.SubtotalCents, PromoDiscountPct(promoCode))
	if t.SubtotalCents < FreeShippingThreshold {
		t.ShippingCents = ShippingFlatCents
	}
	t.TaxCents = pctOfCents(t.SubtotalCents-t.DiscountCents, TaxRatePct)
	t.TotalCents = t.SubtotalCents - t.DiscountCents + t.ShippingCents + t.TaxCents
	return t
}
