package models

import (
	"time"

	apperrors "walletledger/internal/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OperationType string

const (
	OpDeposit     OperationType = "deposit"
	OpWithdrawal  OperationType = "withdrawal"
	OpLock        OperationType = "lock"
	OpUnlock      OperationType = "unlock"
	OpReserve     OperationType = "reserve"
	OpUnreserve   OperationType = "unreserve"
	OpTransferOut OperationType = "transfer-out"
	OpTransferIn  OperationType = "transfer-in"
	OpInterest    OperationType = "interest"
	OpReversal    OperationType = "reversal"
)

func (o OperationType) Valid() bool {
	switch o {
	case OpDeposit, OpWithdrawal, OpLock, OpUnlock, OpReserve, OpUnreserve,
		OpTransferOut, OpTransferIn, OpInterest, OpReversal:
		return true
	}
	return false
}

// Reversible reports whether an entry of this type may be corrected by a
// reversal entry.
func (o OperationType) Reversible() bool {
	return o == OpDeposit || o == OpWithdrawal || o == OpInterest
}

// Partition names the wallet field an entry's snapshot refers to.
type Partition string

const (
	PartitionBalance  Partition = "balance"
	PartitionLocked   Partition = "locked"
	PartitionReserved Partition = "reserved"
)

type EntryStatus string

const (
	EntryCompleted EntryStatus = "completed"
	EntryFailed    EntryStatus = "failed"
	EntryReversed  EntryStatus = "reversed"
)

// LedgerEntry records one balance-affecting event. Rows are append-only.
type LedgerEntry struct {
	ID            string        `gorm:"type:varchar(36);primaryKey" json:"id"`
	WalletID      string        `gorm:"type:varchar(36);not null;index:idx_ledger_wallet_created,priority:1" json:"wallet_id"`
	OwnerID       string        `gorm:"type:varchar(64);not null;index" json:"owner_id"`
	OperationType OperationType `gorm:"type:varchar(16);not null;index" json:"operation_type"`
	Partition     Partition     `gorm:"type:varchar(16);not null" json:"partition"`

	Amount        decimal.Decimal `gorm:"type:numeric(24,8);not null" json:"amount"`
	Currency      string          `gorm:"type:varchar(3);not null" json:"currency"`
	BalanceBefore decimal.Decimal `gorm:"type:numeric(24,8);not null" json:"balance_before"`
	BalanceAfter  decimal.Decimal `gorm:"type:numeric(24,8);not null" json:"balance_after"`

	CounterpartWalletID string `gorm:"type:varchar(36);default:''" json:"counterpart_wallet_id,omitempty"`
	CounterpartOwnerID  string `gorm:"type:varchar(64);default:''" json:"counterpart_owner_id,omitempty"`
	CorrelationID       string `gorm:"type:varchar(36);not null;index" json:"correlation_id"`
	ReversalOf          string `gorm:"type:varchar(36);default:'';index" json:"reversal_of,omitempty"`

	Status      EntryStatus `gorm:"type:varchar(16);not null;default:'completed'" json:"status"`
	Description string      `gorm:"type:varchar(255);default:''" json:"description,omitempty"`
	Metadata    Metadata    `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time   `gorm:"not null;index:idx_ledger_wallet_created,priority:2" json:"created_at"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

func (e *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CorrelationID == "" {
		e.CorrelationID = e.ID
	}
	return nil
}

func (e *LedgerEntry) BeforeUpdate(tx *gorm.DB) error {
	return apperrors.ErrLedgerImmutable
}

func (e *LedgerEntry) BeforeDelete(tx *gorm.DB) error {
	return apperrors.ErrLedgerImmutable
}

// Delta is the signed change the entry applied to its partition.
func (e *LedgerEntry) Delta() decimal.Decimal {
	return e.BalanceAfter.Sub(e.BalanceBefore)
}

// NewEntry builds a completed entry for w. Before and after are snapshots
// of the partition the operation touched.
func NewEntry(w *Wallet, op OperationType, partition Partition, amount, before, after decimal.Decimal, at time.Time) *LedgerEntry {
	id := uuid.NewString()
	return &LedgerEntry{
		ID:            id,
		WalletID:      w.ID,
		OwnerID:       w.OwnerID,
		OperationType: op,
		Partition:     partition,
		Amount:        amount,
		Currency:      w.Currency,
		BalanceBefore: before,
		BalanceAfter:  after,
		CorrelationID: id,
		Status:        EntryCompleted,
		CreatedAt:     at,
	}
}
