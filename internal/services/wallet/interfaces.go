package wallet

import (
	"context"

	"walletledger/internal/models"
	"walletledger/internal/repositories"
)

// Service defines the main wallet service interface
type Service interface {
	// Wallet management
	CreateWallet(ctx context.Context, req CreateWalletRequest) (*models.Wallet, error)
	GetOrCreateDefaultWallet(ctx context.Context, ownerID, currency string) (*models.Wallet, error)
	GetWallet(ctx context.Context, walletID string) (*models.Wallet, error)
	ListWallets(ctx context.Context, ownerID string) ([]*models.Wallet, error)

	// Balance operations
	Deposit(ctx context.Context, req DepositRequest) (*models.Wallet, *models.LedgerEntry, error)
	Withdraw(ctx context.Context, req WithdrawRequest) (*models.Wallet, *models.LedgerEntry, error)
	Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
	Lock(ctx context.Context, req PartitionRequest) (*models.Wallet, error)
	Unlock(ctx context.Context, req PartitionRequest) (*models.Wallet, error)
	Reserve(ctx context.Context, req PartitionRequest) (*models.Wallet, error)
	Unreserve(ctx context.Context, req PartitionRequest) (*models.Wallet, error)
	GetBalanceSummary(ctx context.Context, walletID string) (*models.BalanceSummary, error)

	// Lifecycle
	Suspend(ctx context.Context, walletID, reason string) (*models.Wallet, error)
	Freeze(ctx context.Context, walletID, reason string) (*models.Wallet, error)
	Deactivate(ctx context.Context, walletID, reason string) (*models.Wallet, error)
	Activate(ctx context.Context, walletID string) (*models.Wallet, error)
	Close(ctx context.Context, walletID string) (*models.Wallet, error)
	SetLimits(ctx context.Context, walletID string, req LimitsRequest) (*models.Wallet, error)

	// Ledger
	ListEntries(ctx context.Context, filter repositories.EntryFilter) ([]*models.LedgerEntry, int64, error)
	GetEntry(ctx context.Context, entryID string) (*models.LedgerEntry, error)
	ReverseEntry(ctx context.Context, entryID, reason string) (*models.Wallet, *models.LedgerEntry, error)

	// Interest
	ApplyInterest(ctx context.Context, walletID string) (*models.Wallet, *models.LedgerEntry, error)
	InterestEligibleWalletIDs(ctx context.Context) ([]string, error)
}
