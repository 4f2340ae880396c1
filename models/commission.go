package models

import (
	"github.com/shopspring/decimal"
)

type CommissionSplit struct {
	Rate             float64 `json:"commission_rate"`
	CommissionAmount float64 `json:"commission_amount"`
	SellerAmount     float64 `json:"seller_amount"`
}

// CalculateCommission splits a gross amount between the platform and the
// seller. Rounding is half-up to 2 places; commission_amount + seller_amount
// always equals amount within 0.01 for any rate in [0, 100].
func CalculateCommission(amount float64, rate float64) CommissionSplit {
	a := decimal.NewFromFloat(amount)
	r := decimal.NewFromFloat(rate)

	commission := a.Mul(r).Div(decimal.NewFromInt(100)).Round(2)
	seller := a.Sub(commission).Round(2)
	if seller.IsNegative() {
		seller = decimal.Zero
	}

	return CommissionSplit{
		Rate:             rate,
		CommissionAmount: commission.InexactFloat64(),
		SellerAmount:     seller.InexactFloat64(),
	}
}

// ApplyDiscountRatio scales a line total by the cart-level discount ratio
// (discount / subtotal), so the children of a discounted cart sum back to
// the cart's discounted total.
func ApplyDiscountRatio(lineTotal float64, discount float64, subtotal float64) float64 {
	if discount <= 0 || subtotal <= 0 {
		return lineTotal
	}
	lt := decimal.NewFromFloat(lineTotal)
	ratio := decimal.NewFromFloat(discount).Div(decimal.NewFromFloat(subtotal))
	return lt.Sub(lt.Mul(ratio)).Round(2).InexactFloat64()
}
