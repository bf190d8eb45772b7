package report

import "github.com/shopspring/decimal"

// Round2 rounds v half away from zero to two decimals.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
