package repositories

import (
	"context"
	"time"

	"walletledger/internal/models"
)

// EntryFilter narrows ledger queries. Zero values leave a field
// unconstrained; a zero Limit returns every match.
type EntryFilter struct {
	WalletID      string
	OwnerID       string
	OperationType models.OperationType
	From          time.Time
	To            time.Time
	Limit         int
	Offset        int
}

// WalletRepository persists wallets and their ledger. Methods suffixed
// ForUpdate take a row lock and are only meaningful inside
// ExecuteInTransaction.
type WalletRepository interface {
	Create(ctx context.Context, wallet *models.Wallet) error
	GetByID(ctx context.Context, id string) (*models.Wallet, error)
	GetByIDForUpdate(ctx context.Context, id string) (*models.Wallet, error)
	GetDefaultForUpdate(ctx context.Context, ownerID, currency string) (*models.Wallet, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Wallet, error)
	ListInterestEligibleIDs(ctx context.Context) ([]string, error)
	Update(ctx context.Context, wallet *models.Wallet) error

	CreateEntry(ctx context.Context, entry *models.LedgerEntry) error
	GetEntry(ctx context.Context, id string) (*models.LedgerEntry, error)
	FindReversal(ctx context.Context, entryID string) (*models.LedgerEntry, error)
	ListEntries(ctx context.Context, filter EntryFilter) ([]*models.LedgerEntry, int64, error)

	// ExecuteInTransaction runs fn against a repository bound to one
	// database transaction. Any error returned by fn rolls it back.
	ExecuteInTransaction(ctx context.Context, fn func(WalletRepository) error) error
}
