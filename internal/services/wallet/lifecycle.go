package wallet

import (
	"context"
	"fmt"

	apperrors "walletledger/internal/errors"
	"walletledger/internal/models"
	"walletledger/internal/services/audit"

	"github.com/shopspring/decimal"
)

func (s *service) Suspend(ctx context.Context, walletID, reason string) (*models.Wallet, error) {
	return s.transition(ctx, OpSuspend, walletID, reason, func(w *models.Wallet) error {
		return w.Suspend(reason)
	})
}

func (s *service) Freeze(ctx context.Context, walletID, reason string) (*models.Wallet, error) {
	return s.transition(ctx, OpFreeze, walletID, reason, func(w *models.Wallet) error {
		return w.Freeze(reason)
	})
}

func (s *service) Deactivate(ctx context.Context, walletID, reason string) (*models.Wallet, error) {
	return s.transition(ctx, OpDeactivate, walletID, reason, func(w *models.Wallet) error {
		return w.Deactivate(reason)
	})
}

func (s *service) Activate(ctx context.Context, walletID string) (*models.Wallet, error) {
	return s.transition(ctx, OpActivate, walletID, "", func(w *models.Wallet) error {
		return w.Activate()
	})
}

func (s *service) Close(ctx context.Context, walletID string) (*models.Wallet, error) {
	return s.transition(ctx, OpClose, walletID, "", func(w *models.Wallet) error {
		return w.Close()
	})
}

// SetLimits replaces both withdrawal quotas. Amounts already withdrawn in
// the current day and month keep counting against the new limits.
func (s *service) SetLimits(ctx context.Context, walletID string, req LimitsRequest) (*models.Wallet, error) {
	if err := checkLimits(req.DailyWithdrawalLimit, req.MonthlyWithdrawalLimit); err != nil {
		return nil, err
	}
	reason := fmt.Sprintf("daily=%s monthly=%s", limitString(req.DailyWithdrawalLimit), limitString(req.MonthlyWithdrawalLimit))
	return s.transition(ctx, OpSetLimits, walletID, reason, func(w *models.Wallet) error {
		if w.Status == models.StatusClosed {
			return apperrors.ErrWalletNotTransactable.WithMessage("wallet %s is closed", w.ID)
		}
		w.DailyWithdrawalLimit = req.DailyWithdrawalLimit
		w.MonthlyWithdrawalLimit = req.MonthlyWithdrawalLimit
		return nil
	})
}

// transition applies a ledger-free change to one wallet and audits it.
func (s *service) transition(ctx context.Context, op, walletID, reason string, apply func(w *models.Wallet) error) (*models.Wallet, error) {
	var wallet *models.Wallet
	err := s.execute(ctx, op, func(ctx context.Context, sc *scope) error {
		locked, err := sc.lock(ctx, walletID)
		if err != nil {
			return err
		}
		w := locked[0]
		if err := apply(w); err != nil {
			return err
		}
		sc.touch(w)
		sc.emit(audit.WalletEvent(w, op, reason, sc.at))
		wallet = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

func limitString(l decimal.NullDecimal) string {
	if !l.Valid {
		return "none"
	}
	return l.Decimal.String()
}
