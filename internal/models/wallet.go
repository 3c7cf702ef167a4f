package models

import (
	"strings"
	"time"

	apperrors "walletledger/internal/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type WalletKind string

const (
	KindTrading    WalletKind = "trading"
	KindSavings    WalletKind = "savings"
	KindEscrow     WalletKind = "escrow"
	KindRewards    WalletKind = "rewards"
	KindCommission WalletKind = "commission"
)

func (k WalletKind) Valid() bool {
	switch k {
	case KindTrading, KindSavings, KindEscrow, KindRewards, KindCommission:
		return true
	}
	return false
}

type WalletStatus string

const (
	StatusActive    WalletStatus = "active"
	StatusInactive  WalletStatus = "inactive"
	StatusSuspended WalletStatus = "suspended"
	StatusFrozen    WalletStatus = "frozen"
	StatusClosed    WalletStatus = "closed"
)

// Layouts of the lazily reset quota keys.
const (
	ResetDateLayout   = "2006-01-02"
	ResetPeriodLayout = "2006-01"
)

// Decimal places of the numeric columns. Amounts are numeric(24,8) and
// interest rates numeric(9,4).
const (
	AmountScale = 8
	RateScale   = 4
)

// FitsScale reports whether d can be stored with at most places decimal
// places without rounding.
func FitsScale(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

// Wallet is the balance record of one owner in one currency. Balance is
// the total owned; locked and reserved funds are earmarks carved out of it.
type Wallet struct {
	ID       string       `gorm:"type:varchar(36);primaryKey" json:"id"`
	OwnerID  string       `gorm:"type:varchar(64);not null;index:idx_wallets_owner_currency" json:"owner_id"`
	Currency string       `gorm:"type:varchar(3);not null;index:idx_wallets_owner_currency" json:"currency"`
	Kind     WalletKind   `gorm:"type:varchar(16);not null" json:"kind"`
	Status   WalletStatus `gorm:"type:varchar(16);not null;default:'active';index" json:"status"`

	StatusReason string `gorm:"type:varchar(255);default:''" json:"status_reason,omitempty"`
	IsDefault    bool   `gorm:"not null;default:false" json:"is_default"`

	Balance         decimal.Decimal `gorm:"type:numeric(24,8);not null;default:0;check:chk_wallets_balance,balance >= 0" json:"balance"`
	LockedBalance   decimal.Decimal `gorm:"type:numeric(24,8);not null;default:0;check:chk_wallets_locked,locked_balance >= 0" json:"locked_balance"`
	ReservedBalance decimal.Decimal `gorm:"type:numeric(24,8);not null;default:0;check:chk_wallets_reserved,reserved_balance >= 0" json:"reserved_balance"`
	MinimumBalance  decimal.Decimal `gorm:"type:numeric(24,8);not null;default:0" json:"minimum_balance"`

	DailyWithdrawalLimit    decimal.NullDecimal `gorm:"type:numeric(24,8)" json:"daily_withdrawal_limit"`
	DailyWithdrawnAmount    decimal.Decimal     `gorm:"type:numeric(24,8);not null;default:0" json:"daily_withdrawn_amount"`
	LastWithdrawalResetDate string              `gorm:"type:varchar(10);default:''" json:"last_withdrawal_reset_date,omitempty"`

	MonthlyWithdrawalLimit decimal.NullDecimal `gorm:"type:numeric(24,8)" json:"monthly_withdrawal_limit"`
	MonthlyWithdrawnAmount decimal.Decimal     `gorm:"type:numeric(24,8);not null;default:0" json:"monthly_withdrawn_amount"`
	LastMonthlyResetPeriod string              `gorm:"type:varchar(7);default:''" json:"last_monthly_reset_period,omitempty"`

	InterestRateAnnualPercent decimal.Decimal `gorm:"type:numeric(9,4);not null;default:0" json:"interest_rate_annual_percent"`
	LastInterestCalculationAt *time.Time      `json:"last_interest_calculation_at,omitempty"`

	LifetimeDeposits    decimal.Decimal `gorm:"type:numeric(24,8);not null;default:0" json:"lifetime_deposits"`
	LifetimeWithdrawals decimal.Decimal `gorm:"type:numeric(24,8);not null;default:0" json:"lifetime_withdrawals"`

	Metadata  Metadata  `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Wallet) TableName() string {
	return "wallets"
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

// NewWallet returns an empty active wallet.
func NewWallet(ownerID, currency string, kind WalletKind) *Wallet {
	return &Wallet{
		ID:       uuid.NewString(),
		OwnerID:  ownerID,
		Currency: NormalizeCurrency(currency),
		Kind:     kind,
		Status:   StatusActive,
	}
}

// NormalizeCurrency upper-cases and trims an ISO 4217 code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// BalanceSummary is the read model returned by balance queries.
type BalanceSummary struct {
	WalletID  string          `json:"wallet_id"`
	Currency  string          `json:"currency"`
	Total     decimal.Decimal `json:"total"`
	Available decimal.Decimal `json:"available"`
	Locked    decimal.Decimal `json:"locked"`
	Reserved  decimal.Decimal `json:"reserved"`
	Status    WalletStatus    `json:"status"`
}

func (w *Wallet) AvailableBalance() decimal.Decimal {
	return w.Balance.Sub(w.LockedBalance).Sub(w.ReservedBalance)
}

// TotalBalance is the balance itself; earmarks are already part of it.
func (w *Wallet) TotalBalance() decimal.Decimal {
	return w.Balance
}

func (w *Wallet) Summary() BalanceSummary {
	return BalanceSummary{
		WalletID:  w.ID,
		Currency:  w.Currency,
		Total:     w.TotalBalance(),
		Available: w.AvailableBalance(),
		Locked:    w.LockedBalance,
		Reserved:  w.ReservedBalance,
		Status:    w.Status,
	}
}

func (w *Wallet) IsTransactable() bool {
	return w.Status == StatusActive
}

// HasFunds reports whether any partition is non-zero.
func (w *Wallet) HasFunds() bool {
	return !w.Balance.IsZero() || !w.LockedBalance.IsZero() || !w.ReservedBalance.IsZero()
}

// DailyWithdrawalRemaining returns the quota left on at's calendar date.
// The bool is false when no daily limit is configured.
func (w *Wallet) DailyWithdrawalRemaining(at time.Time) (decimal.Decimal, bool) {
	if !w.DailyWithdrawalLimit.Valid {
		return decimal.Zero, false
	}
	spent := w.DailyWithdrawnAmount
	if w.LastWithdrawalResetDate != at.Format(ResetDateLayout) {
		spent = decimal.Zero
	}
	return nonNegative(w.DailyWithdrawalLimit.Decimal.Sub(spent)), true
}

// MonthlyWithdrawalRemaining is the monthly counterpart of
// DailyWithdrawalRemaining.
func (w *Wallet) MonthlyWithdrawalRemaining(at time.Time) (decimal.Decimal, bool) {
	if !w.MonthlyWithdrawalLimit.Valid {
		return decimal.Zero, false
	}
	spent := w.MonthlyWithdrawnAmount
	if w.LastMonthlyResetPeriod != at.Format(ResetPeriodLayout) {
		spent = decimal.Zero
	}
	return nonNegative(w.MonthlyWithdrawalLimit.Decimal.Sub(spent)), true
}

// ResetWithdrawalCounters zeroes the daily and monthly counters when at
// falls on a new date or month. It reports whether anything changed.
func (w *Wallet) ResetWithdrawalCounters(at time.Time) bool {
	changed := false
	if day := at.Format(ResetDateLayout); w.LastWithdrawalResetDate != day {
		w.DailyWithdrawnAmount = decimal.Zero
		w.LastWithdrawalResetDate = day
		changed = true
	}
	if period := at.Format(ResetPeriodLayout); w.LastMonthlyResetPeriod != period {
		w.MonthlyWithdrawnAmount = decimal.Zero
		w.LastMonthlyResetPeriod = period
		changed = true
	}
	return changed
}

func (w *Wallet) CheckDeposit(amount decimal.Decimal) error {
	if !w.IsTransactable() {
		return w.errNotTransactable()
	}
	if !amount.IsPositive() {
		return apperrors.ErrInvalidAmount
	}
	return nil
}

func (w *Wallet) CheckWithdraw(amount decimal.Decimal, at time.Time) error {
	if err := w.checkEarmark(amount); err != nil {
		return err
	}
	if w.Balance.Sub(amount).LessThan(w.MinimumBalance) {
		return apperrors.ErrInsufficientFunds.WithMessage(
			"withdrawal of %s would leave balance below minimum %s", amount, w.MinimumBalance)
	}
	if remaining, limited := w.DailyWithdrawalRemaining(at); limited && remaining.LessThan(amount) {
		return apperrors.ErrLimitExceeded.WithMessage(
			"daily withdrawal limit exceeded: %s remaining, %s requested", remaining, amount)
	}
	if remaining, limited := w.MonthlyWithdrawalRemaining(at); limited && remaining.LessThan(amount) {
		return apperrors.ErrLimitExceeded.WithMessage(
			"monthly withdrawal limit exceeded: %s remaining, %s requested", remaining, amount)
	}
	return nil
}

func (w *Wallet) CheckLock(amount decimal.Decimal) error {
	return w.checkEarmark(amount)
}

func (w *Wallet) CheckReserve(amount decimal.Decimal) error {
	return w.checkEarmark(amount)
}

func (w *Wallet) CanDeposit(amount decimal.Decimal) bool {
	return w.CheckDeposit(amount) == nil
}

func (w *Wallet) CanWithdraw(amount decimal.Decimal, at time.Time) bool {
	return w.CheckWithdraw(amount, at) == nil
}

func (w *Wallet) CanLock(amount decimal.Decimal) bool {
	return w.CheckLock(amount) == nil
}

func (w *Wallet) CanReserve(amount decimal.Decimal) bool {
	return w.CheckReserve(amount) == nil
}

func (w *Wallet) Deposit(amount decimal.Decimal) error {
	if err := w.CheckDeposit(amount); err != nil {
		return err
	}
	w.Balance = w.Balance.Add(amount)
	w.LifetimeDeposits = w.LifetimeDeposits.Add(amount)
	return nil
}

// Withdraw debits the balance. Quota counters are reset for at's date
// before being charged.
func (w *Wallet) Withdraw(amount decimal.Decimal, at time.Time) error {
	if err := w.CheckWithdraw(amount, at); err != nil {
		return err
	}
	w.ResetWithdrawalCounters(at)
	w.Balance = w.Balance.Sub(amount)
	w.LifetimeWithdrawals = w.LifetimeWithdrawals.Add(amount)
	w.DailyWithdrawnAmount = w.DailyWithdrawnAmount.Add(amount)
	w.MonthlyWithdrawnAmount = w.MonthlyWithdrawnAmount.Add(amount)
	return nil
}

func (w *Wallet) Lock(amount decimal.Decimal) error {
	if err := w.CheckLock(amount); err != nil {
		return err
	}
	w.LockedBalance = w.LockedBalance.Add(amount)
	return nil
}

// Unlock releases min(amount, locked) and returns what was released.
func (w *Wallet) Unlock(amount decimal.Decimal) (decimal.Decimal, error) {
	if err := w.checkRelease(amount); err != nil {
		return decimal.Zero, err
	}
	released := decimal.Min(amount, w.LockedBalance)
	w.LockedBalance = w.LockedBalance.Sub(released)
	return released, nil
}

func (w *Wallet) Reserve(amount decimal.Decimal) error {
	if err := w.CheckReserve(amount); err != nil {
		return err
	}
	w.ReservedBalance = w.ReservedBalance.Add(amount)
	return nil
}

// Unreserve releases min(amount, reserved) and returns what was released.
func (w *Wallet) Unreserve(amount decimal.Decimal) (decimal.Decimal, error) {
	if err := w.checkRelease(amount); err != nil {
		return decimal.Zero, err
	}
	released := decimal.Min(amount, w.ReservedBalance)
	w.ReservedBalance = w.ReservedBalance.Sub(released)
	return released, nil
}

// AccrueInterest credits earned interest and stamps the accrual time.
// A zero amount only advances the stamp.
func (w *Wallet) AccrueInterest(amount decimal.Decimal, at time.Time) error {
	if !w.IsTransactable() {
		return w.errNotTransactable()
	}
	if amount.IsNegative() {
		return apperrors.ErrInvalidAmount
	}
	w.Balance = w.Balance.Add(amount)
	w.LifetimeDeposits = w.LifetimeDeposits.Add(amount)
	stamp := at
	w.LastInterestCalculationAt = &stamp
	return nil
}

// RevertCredit takes back funds credited by an earlier entry. Lifetime
// counters are left alone.
func (w *Wallet) RevertCredit(amount decimal.Decimal) error {
	if w.Status == StatusClosed {
		return w.errNotTransactable()
	}
	if !amount.IsPositive() {
		return apperrors.ErrInvalidAmount
	}
	if w.AvailableBalance().LessThan(amount) {
		return apperrors.ErrInsufficientFunds.WithMessage(
			"available %s is below reversal amount %s", w.AvailableBalance(), amount)
	}
	if w.Balance.Sub(amount).LessThan(w.MinimumBalance) {
		return apperrors.ErrInsufficientFunds.WithMessage(
			"reversal of %s would leave balance below minimum %s", amount, w.MinimumBalance)
	}
	w.Balance = w.Balance.Sub(amount)
	return nil
}

// RevertDebit returns funds removed by an earlier entry.
func (w *Wallet) RevertDebit(amount decimal.Decimal) error {
	if w.Status == StatusClosed {
		return w.errNotTransactable()
	}
	if !amount.IsPositive() {
		return apperrors.ErrInvalidAmount
	}
	w.Balance = w.Balance.Add(amount)
	return nil
}

func (w *Wallet) Suspend(reason string) error {
	return w.leaveActive(StatusSuspended, reason)
}

func (w *Wallet) Freeze(reason string) error {
	return w.leaveActive(StatusFrozen, reason)
}

func (w *Wallet) Deactivate(reason string) error {
	return w.leaveActive(StatusInactive, reason)
}

// Activate returns any non-closed wallet to active.
func (w *Wallet) Activate() error {
	if w.Status == StatusClosed {
		return apperrors.ErrInvalidStatusTransition.WithMessage("wallet %s is closed", w.ID)
	}
	w.Status = StatusActive
	w.StatusReason = ""
	return nil
}

// Close is terminal and only allowed from active with every partition at zero.
func (w *Wallet) Close() error {
	if w.Status != StatusActive {
		return apperrors.ErrInvalidStatusTransition.WithMessage(
			"cannot close wallet %s from status %s", w.ID, w.Status)
	}
	if w.HasFunds() {
		return apperrors.ErrNonZeroBalance.WithMessage(
			"wallet %s holds balance %s, locked %s, reserved %s",
			w.ID, w.Balance, w.LockedBalance, w.ReservedBalance)
	}
	w.Status = StatusClosed
	w.IsDefault = false
	return nil
}

func (w *Wallet) leaveActive(to WalletStatus, reason string) error {
	if w.Status != StatusActive {
		return apperrors.ErrInvalidStatusTransition.WithMessage(
			"cannot move wallet %s from %s to %s", w.ID, w.Status, to)
	}
	w.Status = to
	w.StatusReason = reason
	return nil
}

func (w *Wallet) checkEarmark(amount decimal.Decimal) error {
	if !w.IsTransactable() {
		return w.errNotTransactable()
	}
	if !amount.IsPositive() {
		return apperrors.ErrInvalidAmount
	}
	if available := w.AvailableBalance(); available.LessThan(amount) {
		return apperrors.ErrInsufficientFunds.WithMessage(
			"available balance %s is below requested %s", available, amount)
	}
	return nil
}

func (w *Wallet) checkRelease(amount decimal.Decimal) error {
	if w.Status == StatusClosed {
		return w.errNotTransactable()
	}
	if !amount.IsPositive() {
		return apperrors.ErrInvalidAmount
	}
	return nil
}

func (w *Wallet) errNotTransactable() error {
	return apperrors.ErrWalletNotTransactable.WithMessage("wallet %s is %s", w.ID, w.Status)
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
