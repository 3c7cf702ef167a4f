package interest

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestElapsedDays(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		now  time.Time
		want int64
	}{
		{"same instant", base, 0},
		{"in the past", base.Add(-48 * time.Hour), 0},
		{"23 hours", base.Add(23 * time.Hour), 0},
		{"exactly one day", base.Add(24 * time.Hour), 1},
		{"ten and a half days", base.Add(10*24*time.Hour + 12*time.Hour), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ElapsedDays(base, tt.now))
		})
	}
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name    string
		balance string
		rate    string
		days    int64
		want    string
	}{
		{"reference scenario", "10000", "3.65", 10, "10.00"},
		{"one day", "10000", "3.65", 1, "1.00"},
		{"rounds to cents", "1000", "1", 1, "0.03"},
		{"zero days", "10000", "3.65", 0, "0"},
		{"zero rate", "10000", "0", 10, "0"},
		{"zero balance", "0", "5", 10, "0"},
		{"fractional balance", "2500.50", "4.2", 30, "8.63"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(decimal.RequireFromString(tt.balance), decimal.RequireFromString(tt.rate), tt.days, DefaultDayCount, DefaultScale)
			assert.Truef(t, decimal.RequireFromString(tt.want).Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestCalculate_DayCountConvention(t *testing.T) {
	got := Calculate(decimal.NewFromInt(36000), decimal.NewFromInt(1), 1, 360, 2)
	assert.True(t, decimal.NewFromInt(1).Equal(got))
}
