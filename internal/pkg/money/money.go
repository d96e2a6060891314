// Package money provides decimal helpers for cash and cost-basis math.
package money

import (
	"math"

	"github.com/shopspring/decimal"
)

var Zero = decimal.Zero

// FromFloat guards against NaN/Inf sneaking into ledger math.
func FromFloat(val float64) decimal.Decimal {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(val)
}

func ToFloat(val decimal.Decimal) float64 {
	f, _ := val.Float64()
	return f
}

// Round normalizes amounts to cents before they are persisted.
func Round(val decimal.Decimal) decimal.Decimal {
	return val.Round(2)
}

func GTE(a, b decimal.Decimal) bool { return a.Cmp(b) >= 0 }
func LTE(a, b decimal.Decimal) bool { return a.Cmp(b) <= 0 }

// WeightedAverage computes the quantity-weighted average of two price
// levels; it is the cost-basis rule applied on every BUY into an
// existing position.
func WeightedAverage(oldQty int64, oldPrice decimal.Decimal, addQty int64, addPrice decimal.Decimal) decimal.Decimal {
	totalQty := oldQty + addQty
	if totalQty <= 0 {
		return decimal.Zero
	}
	oldNotional := oldPrice.Mul(decimal.NewFromInt(oldQty))
	addNotional := addPrice.Mul(decimal.NewFromInt(addQty))
	return oldNotional.Add(addNotional).Div(decimal.NewFromInt(totalQty))
}
