// Package interest holds the accrual arithmetic for savings wallets.
package interest

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultDayCount = 365
	DefaultScale    = 2
)

var hundred = decimal.NewFromInt(100)

// ElapsedDays returns the whole days between last and now, never negative.
func ElapsedDays(last, now time.Time) int64 {
	if !now.After(last) {
		return 0
	}
	return int64(now.Sub(last) / (24 * time.Hour))
}

// Calculate returns balance × rate/100/dayCount × days, rounded half away
// from zero to scale decimal places. The division is done once at the end
// so the result does not depend on intermediate rounding.
func Calculate(balance, annualRatePercent decimal.Decimal, days int64, dayCount int, scale int32) decimal.Decimal {
	if days <= 0 || !balance.IsPositive() || !annualRatePercent.IsPositive() {
		return decimal.Zero
	}
	if dayCount <= 0 {
		dayCount = DefaultDayCount
	}
	numerator := balance.Mul(annualRatePercent).Mul(decimal.NewFromInt(days))
	denominator := hundred.Mul(decimal.NewFromInt(int64(dayCount)))
	return numerator.DivRound(denominator, scale)
}
