package handlers

import (
	"context"

	"walletledger/internal/models"
	"walletledger/internal/repositories"
	"walletledger/internal/services/wallet"

	"github.com/stretchr/testify/mock"
)

type MockWalletService struct {
	mock.Mock
}

var _ wallet.Service = (*MockWalletService)(nil)

func walletResult(args mock.Arguments) (*models.Wallet, error) {
	w, _ := args.Get(0).(*models.Wallet)
	return w, args.Error(1)
}

func walletEntryResult(args mock.Arguments) (*models.Wallet, *models.LedgerEntry, error) {
	w, _ := args.Get(0).(*models.Wallet)
	e, _ := args.Get(1).(*models.LedgerEntry)
	return w, e, args.Error(2)
}

func (m *MockWalletService) CreateWallet(ctx context.Context, req wallet.CreateWalletRequest) (*models.Wallet, error) {
	return walletResult(m.Called(ctx, req))
}

func (m *MockWalletService) GetOrCreateDefaultWallet(ctx context.Context, ownerID, currency string) (*models.Wallet, error) {
	return walletResult(m.Called(ctx, ownerID, currency))
}

func (m *MockWalletService) GetWallet(ctx context.Context, walletID string) (*models.Wallet, error) {
	return walletResult(m.Called(ctx, walletID))
}

func (m *MockWalletService) ListWallets(ctx context.Context, ownerID string) ([]*models.Wallet, error) {
	args := m.Called(ctx, ownerID)
	ws, _ := args.Get(0).([]*models.Wallet)
	return ws, args.Error(1)
}

func (m *MockWalletService) Deposit(ctx context.Context, req wallet.DepositRequest) (*models.Wallet, *models.LedgerEntry, error) {
	return walletEntryResult(m.Called(ctx, req))
}

func (m *MockWalletService) Withdraw(ctx context.Context, req wallet.WithdrawRequest) (*models.Wallet, *models.LedgerEntry, error) {
	return walletEntryResult(m.Called(ctx, req))
}

func (m *MockWalletService) Transfer(ctx context.Context, req wallet.TransferRequest) (*wallet.TransferResult, error) {
	args := m.Called(ctx, req)
	r, _ := args.Get(0).(*wallet.TransferResult)
	return r, args.Error(1)
}

func (m *MockWalletService) Lock(ctx context.Context, req wallet.PartitionRequest) (*models.Wallet, error) {
	return walletResult(m.Called(ctx, req))
}

func (m *MockWalletService) Unlock(ctx context.Context, req wallet.PartitionRequest) (*models.Wallet, error) {
	return walletResult(m.Called(ctx, req))
}

func (m *MockWalletService) Reserve(ctx context.Context, req wallet.PartitionRequest) (*models.Wallet, error) {
	return walletResult(m.Called(ctx, req))
}

func (m *MockWalletService) Unreserve(ctx context.Context, req wallet.PartitionRequest) (*models.Wallet, error) {
	return walletResult(m.Called(ctx, req))
}

func (m *MockWalletService) GetBalanceSummary(ctx context.Context, walletID string) (*models.BalanceSummary, error) {
	args := m.Called(ctx, walletID)
	s, _ := args.Get(0).(*models.BalanceSummary)
	return s, args.Error(1)
}

func (m *MockWalletService) Suspend(ctx context.Context, walletID, reason string) (*models.Wallet, error) {
	return walletResult(m.Called(ctx, walletID, reason))
}

func (m *MockWalletService) Freeze(ctx context.Context, walletID, reason string) (*models.Wallet, error) {
	return walletResult(m.Called(ctx, walletID, reason))
}

func (m *MockWalletService) Deactivate(ctx context.Context, walletID, reason string) (*models.Wallet, error) {
	return walletResult(m.Called(ctx, walletID, reason))
}

func (m *MockWalletService) Activate(ctx context.Context, walletID string) (*models.Wallet, error) {
	return walletResult(m.Called(ctx, walletID))
}

func (m *MockWalletService) Close(ctx context.Context, walletID string) (*models.Wallet, error) {
	return walletResult(m.Called(ctx, walletID))
}

func (m *MockWalletService) SetLimits(ctx context.Context, walletID string, req wallet.LimitsRequest) (*models.Wallet, error) {
	return walletResult(m.Called(ctx, walletID, req))
}

func (m *MockWalletService) ListEntries(ctx context.Context, filter repositories.EntryFilter) ([]*models.LedgerEntry, int64, error) {
	args := m.Called(ctx, filter)
	es, _ := args.Get(0).([]*models.LedgerEntry)
	return es, args.Get(1).(int64), args.Error(2)
}

func (m *MockWalletService) GetEntry(ctx context.Context, entryID string) (*models.LedgerEntry, error) {
	args := m.Called(ctx, entryID)
	e, _ := args.Get(0).(*models.LedgerEntry)
	return e, args.Error(1)
}

func (m *MockWalletService) ReverseEntry(ctx context.Context, entryID, reason string) (*models.Wallet, *models.LedgerEntry, error) {
	return walletEntryResult(m.Called(ctx, entryID, reason))
}

func (m *MockWalletService) ApplyInterest(ctx context.Context, walletID string) (*models.Wallet, *models.LedgerEntry, error) {
	return walletEntryResult(m.Called(ctx, walletID))
}

func (m *MockWalletService) InterestEligibleWalletIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}
