package models

import (
	"math"
	"testing"
)

func TestCalculateCommission(t *testing.T) {
	split := CalculateCommission(1000, 15)
	if split.CommissionAmount != 150 {
		t.Fatalf("expected commission 150, got %v", split.CommissionAmount)
	}
	if split.SellerAmount != 850 {
		t.Fatalf("expected seller amount 850, got %v", split.SellerAmount)
	}

	split = CalculateCommission(999.99, 10)
	if split.CommissionAmount != 100 {
		t.Fatalf("expected commission 100, got %v", split.CommissionAmount)
	}
	if split.SellerAmount != 899.99 {
		t.Fatalf("expected seller amount 899.99, got %v", split.SellerAmount)
	}
}

func TestCalculateCommissionSumsToAmount(t *testing.T) {
	amounts := []float64{0, 1, 33.33, 100, 999.99, 1000, 123456.78}
	rates := []float64{0, 0.5, 10, 15, 33.33, 50, 99.99, 100}
	for _, a := range amounts {
		for _, r := range rates {
			split := CalculateCommission(a, r)
			sum := split.CommissionAmount + split.SellerAmount
			if math.Abs(sum-a) > 0.01 {
				t.Fatalf("split of %v at %v%% sums to %v", a, r, sum)
			}
			if split.SellerAmount < 0 {
				t.Fatalf("negative seller amount for %v at %v%%", a, r)
			}
		}
	}
}

func TestApplyDiscountRatio(t *testing.T) {
	// 10% cart discount applied proportionally to a 1000 line.
	got := ApplyDiscountRatio(1000, 200, 2000)
	if got != 900 {
		t.Fatalf("expected 900, got %v", got)
	}
	// No discount passes through.
	if got := ApplyDiscountRatio(500, 0, 2000); got != 500 {
		t.Fatalf("expected 500, got %v", got)
	}
}
