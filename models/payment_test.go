package models

import (
	"math"
	"testing"
)

func TestCanTransition(t *testing.T) {
	if !CanTransition(PaymentStatusPending, PaymentStatusCompleted) {
		t.Fatal("expected pending -> completed to be allowed")
	}
	if !CanTransition(PaymentStatusPending, PaymentStatusFailed) {
		t.Fatal("expected pending -> failed to be allowed")
	}
	if !CanTransition(PaymentStatusPending, PaymentStatusPending) {
		t.Fatal("expected pending -> pending (echo merge) to be allowed")
	}
	if !CanTransition(PaymentStatusCompleted, PaymentStatusRefunded) {
		t.Fatal("expected completed -> refunded to be allowed")
	}
	if CanTransition(PaymentStatusCompleted, PaymentStatusFailed) {
		t.Fatal("completed must reject a late failed notification")
	}
	if CanTransition(PaymentStatusCompleted, PaymentStatusCancelled) {
		t.Fatal("completed must reject a late cancelled notification")
	}
	if CanTransition(PaymentStatusRefunded, PaymentStatusCompleted) {
		t.Fatal("refunded is terminal")
	}
	if CanTransition(PaymentStatusFailed, PaymentStatusCompleted) {
		t.Fatal("failed is terminal")
	}
}

func TestResolveNotificationStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"success", PaymentStatusCompleted, true},
		{"SUCCESS", PaymentStatusCompleted, true},
		{" failed ", PaymentStatusFailed, true},
		{"Pending", PaymentStatusPending, true},
		{"cancelled", PaymentStatusCancelled, true},
		{"chargeback", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := ResolveNotificationStatus(c.raw)
		if got != c.want || ok != c.ok {
			t.Fatalf("ResolveNotificationStatus(%q) = (%q, %v), want (%q, %v)", c.raw, got, ok, c.want, c.ok)
		}
	}
}

func defaultRates() map[string]float64 {
	return map[string]float64{
		PaymentTypeSound:  15,
		PaymentTypeTicket: 10,
	}
}

func TestBuildFanOutPlanDiscountedCart(t *testing.T) {
	// Cart of 3 items with a 10% overall discount: children must sum to 90%
	// of the cart total within rounding.
	meta := &PaymentMetadata{
		CartItems: []CartItem{
			{ID: 1, Type: PaymentTypeSound, Quantity: 1, Price: 1500},
			{ID: 2, Type: PaymentTypeSound, Quantity: 2, Price: 750},
			{ID: 3, Type: PaymentTypeTicket, Quantity: 1, Price: 1000},
		},
		Subtotal: 4000,
		Discount: 400,
	}

	lines := meta.BuildFanOutPlan(defaultRates())
	if len(lines) != 3 {
		t.Fatalf("expected 3 fan-out lines, got %d", len(lines))
	}

	var sum float64
	for _, line := range lines {
		sum += line.Amount
		if math.Abs(line.CommissionAmount+line.SellerAmount-line.Amount) > 0.01 {
			t.Fatalf("line %d split does not sum to amount: %+v", line.Item.ID, line)
		}
	}
	if math.Abs(sum-3600) > 0.01 {
		t.Fatalf("children must sum to the discounted cart total, got %v", sum)
	}
}

func TestBuildFanOutPlanScenario(t *testing.T) {
	// Buyer cart = track A (1x1000) + event B (2x500), subtotal 2000,
	// discount 200.
	meta := &PaymentMetadata{
		CartItems: []CartItem{
			{ID: 10, Type: PaymentTypeSound, Quantity: 1, Price: 1000},
			{ID: 20, Type: PaymentTypeTicket, Quantity: 2, Price: 500},
		},
		Subtotal: 2000,
		Discount: 200,
	}

	lines := meta.BuildFanOutPlan(defaultRates())
	if len(lines) != 2 {
		t.Fatalf("expected 2 fan-out lines, got %d", len(lines))
	}

	track := lines[0]
	if track.Amount != 900 || track.CommissionAmount != 135 || track.SellerAmount != 765 {
		t.Fatalf("unexpected track split: %+v", track)
	}
	if track.CommissionRate != 15 {
		t.Fatalf("unexpected track rate: %v", track.CommissionRate)
	}

	event := lines[1]
	if event.Amount != 900 || event.CommissionAmount != 90 || event.SellerAmount != 810 {
		t.Fatalf("unexpected event split: %+v", event)
	}
	if event.CommissionRate != 10 {
		t.Fatalf("unexpected event rate: %v", event.CommissionRate)
	}
}

func TestBuildFanOutPlanNoDiscount(t *testing.T) {
	meta := &PaymentMetadata{
		CartItems: []CartItem{
			{ID: 1, Type: PaymentTypeSound, Quantity: 3, Price: 100},
		},
	}
	lines := meta.BuildFanOutPlan(defaultRates())
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0].Amount != 300 {
		t.Fatalf("expected line amount 300, got %v", lines[0].Amount)
	}
}
