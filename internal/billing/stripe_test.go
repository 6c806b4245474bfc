package billing

import "testing"

func TestStripeProvider_IsTestMode(t *testing.T) {
	test, err := NewStripeProvider(StripeConfig{APIKey: "sk_test_abc", WebhookSecret: "whsec_123"})
	if err != nil {
		t.Fatal(err)
	}
	if !test.IsTestMode() {
		t.Error("provider with sk_test_ key should report test mode")
	}

	live, err := NewStripeProvider(StripeConfig{APIKey: "sk_live_abc", WebhookSecret: "whsec_123"})
	if err != nil {
		t.Fatal(err)
	}
	if live.IsTestMode() {
		t.Error("provider with sk_live_ key should not report test mode")
	}
}

func TestBuildSessionParams(t *testing.T) {
	params := buildSessionParams(CreateCheckoutSessionParams{
		OrderID:       "ord_123",
		Currency:      "usd",
		CustomerEmail: "a@b.co",
		SuccessURL:    "https://shop.example.com/checkout/success",
		CancelURL:     "https://shop.example.com/checkout/cancel",
		LineItems: []LineItem{
			{Name: "Headphones", UnitAmountCents: 9999, Quantity: 2},
			{Name: "Standard Shipping", UnitAmountCents: 599, Quantity: 1},
		},
	})

	if got := params.Metadata["orderId"]; got != "ord_123" {
		t.Errorf("session metadata orderId = %q, want %q", got, "ord_123")
	}

	// Failed payments arrive as payment_intent events carrying only the
	// intent's own metadata, so the order id must be set there too.
	if params.PaymentIntentData == nil {
		t.Fatal("payment intent data should be set")
	}
	if got := params.PaymentIntentData.Metadata["orderId"]; got != "ord_123" {
		t.Errorf("payment intent metadata orderId = %q, want %q", got, "ord_123")
	}

	if len(params.LineItems) != 2 {
		t.Fatalf("line items = %d, want 2", len(params.LineItems))
	}
	if got := *params.LineItems[0].PriceData.UnitAmount; got != 9999 {
		t.Errorf("unit amount = %d, want 9999", got)
	}
	if got := *params.LineItems[0].Quantity; got != 2 {
		t.Errorf("quantity = %d, want 2", got)
	}
	if got := *params.CustomerEmail; got != "a@b.co" {
		t.Errorf("customer email = %q, want %q", got, "a@b.co")
	}
}
