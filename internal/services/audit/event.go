// Package audit delivers one structured event per committed wallet change
// to an external sink.
package audit

import (
	"context"
	"time"

	"walletledger/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Balances is the wallet state right after the audited change.
type Balances struct {
	Balance   decimal.Decimal `json:"balance"`
	Locked    decimal.Decimal `json:"locked"`
	Reserved  decimal.Decimal `json:"reserved"`
	Available decimal.Decimal `json:"available"`
}

type Event struct {
	ID            string          `json:"id"`
	OwnerID       string          `json:"owner_id"`
	WalletID      string          `json:"wallet_id"`
	EntryID       string          `json:"entry_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	OperationType string          `json:"operation_type"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	BalancesAfter Balances        `json:"balances_after"`
	Reason        string          `json:"reason,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Sink receives audit events after commit.
type Sink interface {
	Record(ctx context.Context, event Event) error
}

// EntryEvent describes a committed ledger entry. w must be the wallet
// state after the entry was applied.
func EntryEvent(w *models.Wallet, e *models.LedgerEntry) Event {
	return Event{
		ID:            uuid.NewString(),
		OwnerID:       w.OwnerID,
		WalletID:      w.ID,
		EntryID:       e.ID,
		CorrelationID: e.CorrelationID,
		OperationType: string(e.OperationType),
		Amount:        e.Amount,
		Currency:      e.Currency,
		BalancesAfter: balancesOf(w),
		Reason:        e.Description,
		Timestamp:     e.CreatedAt,
	}
}

// WalletEvent describes a change with no ledger entry, such as a status or
// limit update.
func WalletEvent(w *models.Wallet, operation, reason string, at time.Time) Event {
	return Event{
		ID:            uuid.NewString(),
		OwnerID:       w.OwnerID,
		WalletID:      w.ID,
		OperationType: operation,
		Amount:        decimal.Zero,
		Currency:      w.Currency,
		BalancesAfter: balancesOf(w),
		Reason:        reason,
		Timestamp:     at,
	}
}

func balancesOf(w *models.Wallet) Balances {
	return Balances{
		Balance:   w.Balance,
		Locked:    w.LockedBalance,
		Reserved:  w.ReservedBalance,
		Available: w.AvailableBalance(),
	}
}
