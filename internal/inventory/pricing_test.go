package inventory

import "testing"

func TestComputeTotals_promoWithFreeShipping(t *testing.T) {
	// stock=5 at 10.00 each: subtotal 50.00, VITAMEND10 gives 5.00 off,
	// free shipping kicks in on the pre-discount subtotal, tax is 8% of
	// 45.00 = 3.60.
	items := []CartItem{{ProductID: "p1", Quantity: 5, UnitPriceCents: 1000}}
	got := ComputeTotals(items, "VITAMEND10")

	want := Totals{
		SubtotalCents: 5000,
		DiscountCents: 500,
		ShippingCents: 0,
		TaxCents:      360,
		TotalCents:    4860,
	}
	if got != want {
		t.Errorf("ComputeTotals = %+v, want %+v", got, want)
	}
}

func TestComputeTotals_unknownPromoIgnored(t *testing.T) {
	items := []CartItem{{ProductID: "p1", Quantity: 1, UnitPriceCents: 1000}}
	got := ComputeTotals(items, "NOSUCHCODE")
	if got.DiscountCents != 0 {
		t.Errorf("unknown promo should give 0 discount, got %d", got.DiscountCents)
	}
	if got.ShippingCents != ShippingFlatCents {
		t.Errorf("subtotal below threshold should pay flat shipping, got %d", got.ShippingCents)
	}
}

func TestComputeTotals_freeShippingUsesPreDiscountSubtotal(t *testing.T) {
	// subtotal exactly at the threshold qualifies; the 20% discount
	// dropping it below must not matter.
	items := []CartItem{{ProductID: "p1", Quantity: 2, UnitPriceCents: 2500}}
	got := ComputeTotals(items, "HEALTH20")
	if got.ShippingCents != 0 {
		t.Errorf("shipping = %d, want 0 (eligibility decided pre-discount)", got.ShippingCents)
	}
	if got.DiscountCents != 1000 {
		t.Errorf("discount = %d, want 1000", got.DiscountCents)
	}
}

func TestComputeTotals_totalIdentity(t *testing.T) {
	carts := [][]CartItem{
		{{ProductID: "a", Quantity: 3, UnitPriceCents: 333}},
		{{ProductID: "a", Quantity: 1, UnitPriceCents: 1999}, {ProductID: "b", Quantity: 2, UnitPriceCents: 1250}},
		{{ProductID: "a", Quantity: 7, UnitPriceCents: 101}},
	}
	for _, promo := range []string{"", "VITAMEND10", "HEALTH20"} {
		for _, items := range carts {
			tt := ComputeTotals(items, promo)
			if got := tt.SubtotalCents - tt.DiscountCents + tt.ShippingCents + tt.TaxCents; got != tt.TotalCents {
				t.Errorf("promo=%q items=%v: total %d != recomputed %d", promo, items, tt.TotalCents, got)
			}
		}
	}
}

func TestPctOfCents_roundsHalfUp(t *testing.T) {
	tests := []struct {
		amount, pct, want int
	}{
		{3330, 10, 333},  // 333.0
		{3334, 10, 333},  // 333.4 down
		{3335, 10, 334},  // 333.5 up
		{3336, 10, 334},  // 333.6 up
		{4500, 8, 360},   // exact
		{101, 8, 8},      // 8.08 down
		{0, 10, 0},
		{1000, 0, 0},
	}
	for _, tt := range tests {
		if got := pctOfCents(tt.amount, tt.pct); got != tt.want {
			t.Errorf("pctOfCents(%d, %d) = %d, want %d", tt.amount, tt.pct, got, tt.want)
		}
	}
}

func TestPromoDiscountPct_caseInsensitive(t *testing.T) {
	if got := PromoDiscountPct("vitamend10"); got != 10 {
		t.Errorf("got %d, want 10", got)
	}
	if got := PromoDiscountPct(" health20 "); got != 20 {
		t.Errorf("got %d, want 20", got)
	}
	if got := PromoDiscountPct("EXPIRED50"); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}
