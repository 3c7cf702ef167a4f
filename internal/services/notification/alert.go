// Package notification dispatches policy alerts raised after a wallet
// operation commits.
package notification

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type AlertType string

const (
	AlertLargeWithdrawal AlertType = "large_withdrawal"
	AlertLowBalance      AlertType = "low_balance"
)

type Alert struct {
	Type      AlertType       `json:"type"`
	OwnerID   string          `json:"owner_id"`
	WalletID  string          `json:"wallet_id"`
	EntryID   string          `json:"entry_id,omitempty"`
	Currency  string          `json:"currency"`
	Amount    decimal.Decimal `json:"amount"`
	Threshold decimal.Decimal `json:"threshold"`
	Available decimal.Decimal `json:"available"`
	At        time.Time       `json:"at"`
}

// Dispatcher delivers alerts. Implementations must not block for long;
// callers bound each call with a context deadline.
type Dispatcher interface {
	Dispatch(ctx context.Context, alert Alert) error
}
