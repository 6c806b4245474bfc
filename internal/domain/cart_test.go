package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCart_RecomputeTotals(t *testing.T) {
	tests := []struct {
		name         string
		items        []CartItem
		discountRate decimal.Decimal
		subtotal     string
		tax          string
		discount     string
		total        string
	}{
		{
			name:     "empty cart",
			items:    nil,
			subtotal: "0",
			tax:      "0",
			discount: "0",
			total:    "0",
		},
		{
			name: "two units of a hundred dollar item",
			items: []CartItem{
				{Price: dec("100.00"), Quantity: 2},
			},
			subtotal: "200",
			tax:      "20",
			discount: "0",
			total:    "220",
		},
		{
			name: "ten percent promo on the same cart",
			items: []CartItem{
				{Price: dec("100.00"), Quantity: 2},
			},
			discountRate: dec("0.10"),
			subtotal:     "200",
			tax:          "20",
			discount:     "20",
			total:        "200",
		},
		{
			name: "sub-cent amounts round per derived total",
			items: []CartItem{
				{Price: dec("19.99"), Quantity: 3},
				{Price: dec("0.33"), Quantity: 1},
			},
			discountRate: dec("0.20"),
			subtotal:     "60.30",
			tax:          "6.03",
			discount:     "12.06",
			total:        "54.27",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := &Cart{Items: tt.items, DiscountRate: tt.discountRate}
			cart.RecomputeTotals()

			checks := []struct {
				field string
				got   decimal.Decimal
				want  string
			}{
				{"subtotal", cart.Subtotal, tt.subtotal},
				{"tax", cart.Tax, tt.tax},
				{"discount", cart.Discount, tt.discount},
				{"total", cart.Total, tt.total},
			}
			for _, c := range checks {
				if !c.got.Equal(dec(c.want)) {
					t.Errorf("%s = %s, want %s", c.field, c.got, c.want)
				}
			}

			// total == subtotal + tax - discount must hold exactly
			want := cart.Subtotal.Add(cart.Tax).Sub(cart.Discount)
			if !cart.Total.Equal(want) {
				t.Errorf("totals invariant broken: total %s != %s", cart.Total, want)
			}
		})
	}
}

func TestCart_ItemCount(t *testing.T) {
	cart := &Cart{Items: []CartItem{
		{Quantity: 2},
		{Quantity: 3},
	}}
	if got := cart.ItemCount(); got != 5 {
		t.Errorf("ItemCount() = %d, want 5", got)
	}
}

func TestCart_FindItem(t *testing.T) {
	itemID := uuid.New()
	cart := &Cart{Items: []CartItem{
		{ID: uuid.New()},
		{ID: itemID},
	}}

	if got := cart.FindItem(itemID); got != 1 {
		t.Errorf("FindItem() = %d, want 1", got)
	}
	if got := cart.FindItem(uuid.New()); got != -1 {
		t.Errorf("FindItem(unknown) = %d, want -1", got)
	}
}

func TestCartItem_Matches(t *testing.T) {
	productID := uuid.New()
	item := &CartItem{ProductID: productID, VariantID: "blue"}

	if !item.Matches(productID, "blue") {
		t.Error("same product and variant should match")
	}
	if item.Matches(productID, "red") {
		t.Error("different variant should not match")
	}
	if item.Matches(uuid.New(), "blue") {
		t.Error("different product should not match")
	}
}

func TestPromoRate(t *testing.T) {
	tests := []struct {
		code      string
		canonical string
		rate      string
		ok        bool
	}{
		{"SAVE10", "SAVE10", "0.10", true},
		{"save20", "SAVE20", "0.20", true},
		{"  freeship ", "FREESHIP", "0", true},
		{"BOGUS", "BOGUS", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			canonical, rate, ok := PromoRate(tt.code)
			if ok != tt.ok {
				t.Fatalf("PromoRate(%q) ok = %v, want %v", tt.code, ok, tt.ok)
			}
			if canonical != tt.canonical {
				t.Errorf("canonical = %q, want %q", canonical, tt.canonical)
			}
			if ok && !rate.Equal(dec(tt.rate)) {
				t.Errorf("rate = %s, want %s", rate, tt.rate)
			}
		})
	}
}
