package wallet

import (
	"context"

	apperrors "walletledger/internal/errors"
	"walletledger/internal/models"
	"walletledger/internal/services/interest"

	"github.com/shopspring/decimal"
)

// ApplyInterest credits the interest earned since the last accrual. It
// returns a nil entry when nothing was credited.
func (s *service) ApplyInterest(ctx context.Context, walletID string) (*models.Wallet, *models.LedgerEntry, error) {
	var (
		wallet *models.Wallet
		entry  *models.LedgerEntry
	)
	err := s.execute(ctx, OpApplyInterest, func(ctx context.Context, sc *scope) error {
		locked, err := sc.lock(ctx, walletID)
		if err != nil {
			return err
		}
		w := locked[0]
		wallet = w

		if w.Kind != models.KindSavings || !w.InterestRateAnnualPercent.IsPositive() {
			return ErrInterestNotSupported.WithMessage("wallet %s does not accrue interest", w.ID)
		}
		if !w.IsTransactable() {
			return apperrors.ErrWalletNotTransactable.WithMessage("wallet %s is %s", w.ID, w.Status)
		}

		// First accrual only starts the clock.
		if w.LastInterestCalculationAt == nil {
			sc.touch(w)
			return w.AccrueInterest(decimal.Zero, sc.at)
		}

		days := interest.ElapsedDays(*w.LastInterestCalculationAt, sc.at)
		if days <= 0 {
			return nil
		}

		amount := interest.Calculate(w.Balance, w.InterestRateAnnualPercent, days,
			s.config.InterestDayCount, s.config.InterestScale)
		before := w.Balance
		if err := w.AccrueInterest(amount, sc.at); err != nil {
			return err
		}
		sc.touch(w)
		if amount.IsZero() {
			return nil
		}

		entry = models.NewEntry(w, models.OpInterest, models.PartitionBalance, amount, before, w.Balance, sc.at)
		entry.Metadata = models.Metadata{
			"elapsed_days":        days,
			"annual_rate_percent": w.InterestRateAnnualPercent.String(),
		}
		sc.record(w, entry)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return wallet, entry, nil
}

func (s *service) InterestEligibleWalletIDs(ctx context.Context) ([]string, error) {
	ids, err := s.repo.ListInterestEligibleIDs(ctx)
	if err != nil {
		return nil, normalizeError(err)
	}
	return ids, nil
}
