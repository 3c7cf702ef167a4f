package models

import (
	"errors"
	"testing"
	"time"

	apperrors "walletledger/internal/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "want %s, got %s", want, got)
}

var day1 = time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)

func activeWallet(balance string) *Wallet {
	w := NewWallet("owner-1", "usd", KindTrading)
	w.Balance = d(balance)
	return w
}

func TestWallet_AvailableExcludesEarmarks(t *testing.T) {
	w := activeWallet("1000")
	w.LockedBalance = d("250")
	w.ReservedBalance = d("100")

	assertDecimal(t, "650", w.AvailableBalance())
	assertDecimal(t, "1000", w.TotalBalance())

	s := w.Summary()
	assert.Equal(t, "USD", s.Currency)
	assertDecimal(t, "1000", s.Total)
	assertDecimal(t, "650", s.Available)
	assertDecimal(t, "250", s.Locked)
	assertDecimal(t, "100", s.Reserved)
}

func TestWallet_LockWithdrawScenario(t *testing.T) {
	w := activeWallet("0")
	require.NoError(t, w.Deposit(d("1000")))
	require.NoError(t, w.Lock(d("400")))
	assertDecimal(t, "600", w.AvailableBalance())
	assertDecimal(t, "1000", w.Balance)

	err := w.Withdraw(d("700"), day1)
	assert.True(t, errors.Is(err, apperrors.ErrInsufficientFunds))
	assertDecimal(t, "1000", w.Balance)

	released, err := w.Unlock(d("400"))
	require.NoError(t, err)
	assertDecimal(t, "400", released)

	require.NoError(t, w.Withdraw(d("700"), day1))
	assertDecimal(t, "300", w.Balance)
	assertDecimal(t, "300", w.AvailableBalance())
	assertDecimal(t, "1000", w.LifetimeDeposits)
	assertDecimal(t, "700", w.LifetimeWithdrawals)
}

func TestWallet_UnlockClamps(t *testing.T) {
	w := activeWallet("100")
	w.LockedBalance = d("50")
	w.ReservedBalance = d("20")

	released, err := w.Unlock(d("1000"))
	require.NoError(t, err)
	assertDecimal(t, "50", released)
	assertDecimal(t, "0", w.LockedBalance)

	released, err = w.Unreserve(d("5"))
	require.NoError(t, err)
	assertDecimal(t, "5", released)
	assertDecimal(t, "15", w.ReservedBalance)
}

func TestWallet_UnlockOnFrozenWallet(t *testing.T) {
	w := activeWallet("100")
	w.LockedBalance = d("40")
	require.NoError(t, w.Freeze("review"))

	released, err := w.Unlock(d("40"))
	require.NoError(t, err)
	assertDecimal(t, "40", released)

	w.Status = StatusClosed
	_, err = w.Unlock(d("1"))
	assert.True(t, errors.Is(err, apperrors.ErrWalletNotTransactable))
}

func TestWallet_DailyLimitResetsOnNewDate(t *testing.T) {
	w := activeWallet("1000")
	w.DailyWithdrawalLimit = decimal.NewNullDecimal(d("100"))

	require.NoError(t, w.Withdraw(d("100"), day1))
	assert.Equal(t, "2024-03-14", w.LastWithdrawalResetDate)

	err := w.Withdraw(d("1"), day1.Add(13*time.Hour))
	assert.True(t, errors.Is(err, apperrors.ErrLimitExceeded))

	day2 := day1.Add(24 * time.Hour)
	remaining, limited := w.DailyWithdrawalRemaining(day2)
	assert.True(t, limited)
	assertDecimal(t, "100", remaining)

	require.NoError(t, w.Withdraw(d("1"), day2))
	assert.Equal(t, "2024-03-15", w.LastWithdrawalResetDate)
	assertDecimal(t, "1", w.DailyWithdrawnAmount)
	assertDecimal(t, "899", w.Balance)
}

func TestWallet_MonthlyLimit(t *testing.T) {
	w := activeWallet("1000")
	w.MonthlyWithdrawalLimit = decimal.NewNullDecimal(d("150"))

	require.NoError(t, w.Withdraw(d("100"), day1))
	err := w.Withdraw(d("60"), day1.Add(48*time.Hour))
	assert.True(t, errors.Is(err, apperrors.ErrLimitExceeded))

	nextMonth := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, w.Withdraw(d("60"), nextMonth))
	assertDecimal(t, "60", w.MonthlyWithdrawnAmount)
}

func TestWallet_NoLimitIsUnbounded(t *testing.T) {
	w := activeWallet("10")
	_, limited := w.DailyWithdrawalRemaining(day1)
	assert.False(t, limited)
	assert.True(t, w.CanWithdraw(d("10"), day1))
}

func TestWallet_CheckWithdraw(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(w *Wallet)
		amount  string
		wantErr *apperrors.DomainError
	}{
		{"ok", func(w *Wallet) {}, "50", nil},
		{"zero amount", func(w *Wallet) {}, "0", apperrors.ErrInvalidOperation},
		{"negative amount", func(w *Wallet) {}, "-5", apperrors.ErrInvalidOperation},
		{"frozen", func(w *Wallet) { w.Status = StatusFrozen }, "5", apperrors.ErrWalletNotTransactable},
		{"suspended", func(w *Wallet) { w.Status = StatusSuspended }, "5", apperrors.ErrWalletNotTransactable},
		{"over available", func(w *Wallet) { w.ReservedBalance = d("60") }, "50", apperrors.ErrInsufficientFunds},
		{"below minimum", func(w *Wallet) { w.MinimumBalance = d("60") }, "50", apperrors.ErrInsufficientFunds},
		{"over daily limit", func(w *Wallet) { w.DailyWithdrawalLimit = decimal.NewNullDecimal(d("40")) }, "50", apperrors.ErrLimitExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := activeWallet("100")
			tt.setup(w)
			before := *w

			err := w.Withdraw(d(tt.amount), day1)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Equal(t, before, *w, "failed withdraw must not mutate")
		})
	}
}

func TestWallet_DepositRules(t *testing.T) {
	w := activeWallet("0")
	assert.True(t, errors.Is(w.Deposit(d("0")), apperrors.ErrInvalidOperation))
	assert.False(t, w.CanDeposit(d("-1")))

	w.Status = StatusSuspended
	assert.True(t, errors.Is(w.Deposit(d("5")), apperrors.ErrWalletNotTransactable))
	assertDecimal(t, "0", w.Balance)
}

func TestWallet_LockAndReserveNeedAvailable(t *testing.T) {
	w := activeWallet("100")
	require.NoError(t, w.Reserve(d("70")))
	assert.False(t, w.CanLock(d("31")))
	assert.True(t, w.CanLock(d("30")))
	assert.True(t, errors.Is(w.Lock(d("31")), apperrors.ErrInsufficientFunds))
	assert.True(t, errors.Is(w.Reserve(d("0")), apperrors.ErrInvalidOperation))
}

func TestWallet_StatusMachine(t *testing.T) {
	tests := []struct {
		name    string
		from    WalletStatus
		apply   func(w *Wallet) error
		want    WalletStatus
		wantErr *apperrors.DomainError
	}{
		{"suspend active", StatusActive, func(w *Wallet) error { return w.Suspend("kyc") }, StatusSuspended, nil},
		{"freeze active", StatusActive, func(w *Wallet) error { return w.Freeze("fraud") }, StatusFrozen, nil},
		{"deactivate active", StatusActive, func(w *Wallet) error { return w.Deactivate("dormant") }, StatusInactive, nil},
		{"freeze suspended", StatusSuspended, func(w *Wallet) error { return w.Freeze("fraud") }, StatusSuspended, apperrors.ErrInvalidStatusTransition},
		{"activate frozen", StatusFrozen, func(w *Wallet) error { return w.Activate() }, StatusActive, nil},
		{"activate inactive", StatusInactive, func(w *Wallet) error { return w.Activate() }, StatusActive, nil},
		{"activate closed", StatusClosed, func(w *Wallet) error { return w.Activate() }, StatusClosed, apperrors.ErrInvalidStatusTransition},
		{"close active empty", StatusActive, func(w *Wallet) error { return w.Close() }, StatusClosed, nil},
		{"close frozen", StatusFrozen, func(w *Wallet) error { return w.Close() }, StatusFrozen, apperrors.ErrInvalidStatusTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := activeWallet("0")
			w.Status = tt.from
			err := tt.apply(w)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, w.Status)
		})
	}
}

func TestWallet_CloseRequiresZeroPartitions(t *testing.T) {
	for _, setup := range []func(w *Wallet){
		func(w *Wallet) { w.Balance = d("0.01") },
		func(w *Wallet) { w.LockedBalance = d("1") },
		func(w *Wallet) { w.ReservedBalance = d("1") },
	} {
		w := activeWallet("0")
		w.IsDefault = true
		setup(w)
		err := w.Close()
		assert.True(t, errors.Is(err, apperrors.ErrNonZeroBalance))
		assert.Equal(t, StatusActive, w.Status)
		assert.True(t, w.IsDefault)
	}
}

func TestWallet_AccrueInterest(t *testing.T) {
	w := NewWallet("owner-1", "EUR", KindSavings)
	w.Balance = d("10000")

	require.NoError(t, w.AccrueInterest(d("10.00"), day1))
	assertDecimal(t, "10010", w.Balance)
	assertDecimal(t, "10", w.LifetimeDeposits)
	require.NotNil(t, w.LastInterestCalculationAt)
	assert.True(t, w.LastInterestCalculationAt.Equal(day1))

	w.Status = StatusFrozen
	assert.True(t, errors.Is(w.AccrueInterest(d("1"), day1), apperrors.ErrWalletNotTransactable))
}

func TestWallet_Reverts(t *testing.T) {
	w := activeWallet("100")
	w.LockedBalance = d("80")

	err := w.RevertCredit(d("50"))
	assert.True(t, errors.Is(err, apperrors.ErrInsufficientFunds))

	require.NoError(t, w.RevertCredit(d("20")))
	assertDecimal(t, "80", w.Balance)

	require.NoError(t, w.RevertDebit(d("5")))
	assertDecimal(t, "85", w.Balance)
	assertDecimal(t, "0", w.LifetimeDeposits)
}

func TestNormalizeCurrency(t *testing.T) {
	assert.Equal(t, "USD", NormalizeCurrency(" usd "))
	assert.True(t, KindSavings.Valid())
	assert.False(t, WalletKind("checking").Valid())
}

func TestFitsScale(t *testing.T) {
	tests := []struct {
		value  string
		places int32
		want   bool
	}{
		{"10", AmountScale, true},
		{"0.00000001", AmountScale, true},
		{"0.000000001", AmountScale, false},
		{"1.100000000000", AmountScale, true},
		{"4.5", RateScale, true},
		{"4.12345", RateScale, false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, FitsScale(decimal.RequireFromString(tt.value), tt.places))
		})
	}
}
