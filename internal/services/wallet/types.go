package wallet

import (
	"time"

	"walletledger/internal/models"

	"github.com/shopspring/decimal"
)

// Config holds the engine policy. It is fixed at construction.
type Config struct {
	DefaultCurrency     string
	SupportedCurrencies []string
	// Location decides which calendar date and month a withdrawal falls on.
	Location *time.Location

	DefaultMinimumBalance         decimal.Decimal
	DefaultDailyWithdrawalLimit   decimal.NullDecimal
	DefaultMonthlyWithdrawalLimit decimal.NullDecimal

	MinDepositAmount    decimal.Decimal
	MaxDepositAmount    decimal.NullDecimal
	MinWithdrawalAmount decimal.Decimal

	// Zero disables the corresponding alert.
	LargeWithdrawalThreshold decimal.Decimal
	LowBalanceThreshold      decimal.Decimal

	InterestDayCount int
	InterestScale    int32

	PostCommitTimeout time.Duration
}

type CreateWalletRequest struct {
	OwnerID                   string
	Currency                  string
	Kind                      models.WalletKind
	IsDefault                 bool
	MinimumBalance            decimal.NullDecimal
	DailyWithdrawalLimit      decimal.NullDecimal
	MonthlyWithdrawalLimit    decimal.NullDecimal
	InterestRateAnnualPercent decimal.Decimal
	Metadata                  models.Metadata
}

type DepositRequest struct {
	OwnerID     string
	Currency    string
	Amount      decimal.Decimal
	Description string
	Metadata    models.Metadata
}

type WithdrawRequest struct {
	WalletID    string
	Amount      decimal.Decimal
	Description string
	Metadata    models.Metadata
}

// TransferRequest represents a wallet transfer request
type TransferRequest struct {
	FromWalletID string
	ToWalletID   string
	Amount       decimal.Decimal
	Description  string
	Metadata     models.Metadata
}

// PartitionRequest moves funds into or out of the locked or reserved pool.
type PartitionRequest struct {
	WalletID string
	Amount   decimal.Decimal
	Reason   string
}

// LimitsRequest replaces both withdrawal quotas. A null value removes the
// limit.
type LimitsRequest struct {
	DailyWithdrawalLimit   decimal.NullDecimal
	MonthlyWithdrawalLimit decimal.NullDecimal
}

type TransferResult struct {
	From     *models.Wallet
	To       *models.Wallet
	OutEntry *models.LedgerEntry
	InEntry  *models.LedgerEntry
}

// MetricsCollector defines the interface for collecting wallet metrics
type MetricsCollector interface {
	RecordOperationDuration(operation string, duration time.Duration)
	RecordOperationResult(operation, result string)

	RecordError(operation, errType string)
	RecordVolume(operation, currency string, amount float64)

	// RecordSinkFailure counts audit or alert deliveries that failed.
	RecordSinkFailure(sink string)
}
