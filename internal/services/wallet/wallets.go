package wallet

import (
	"context"
	"errors"

	apperrors "walletledger/internal/errors"
	"walletledger/internal/models"
	"walletledger/internal/services/audit"

	"github.com/shopspring/decimal"
)

func (s *service) CreateWallet(ctx context.Context, req CreateWalletRequest) (*models.Wallet, error) {
	currency := models.NormalizeCurrency(req.Currency)
	if req.OwnerID == "" {
		return nil, ErrMissingOwner
	}
	if err := s.validateCurrency(currency); err != nil {
		return nil, err
	}
	if req.Kind == "" {
		req.Kind = models.KindTrading
	}
	if !req.Kind.Valid() {
		return nil, apperrors.ErrInvalidOperation.WithMessage("unknown wallet kind %q", req.Kind)
	}
	if req.InterestRateAnnualPercent.IsNegative() {
		return nil, apperrors.ErrInvalidOperation.WithMessage("interest rate must not be negative")
	}
	if !models.FitsScale(req.InterestRateAnnualPercent, models.RateScale) {
		return nil, apperrors.ErrInvalidOperation.WithMessage(
			"interest rate %s has more than %d decimal places", req.InterestRateAnnualPercent, models.RateScale)
	}
	if !req.InterestRateAnnualPercent.IsZero() && req.Kind != models.KindSavings {
		return nil, ErrInterestNotSupported.WithMessage("only savings wallets accrue interest")
	}
	if err := checkLimits(req.DailyWithdrawalLimit, req.MonthlyWithdrawalLimit); err != nil {
		return nil, err
	}
	if req.MinimumBalance.Valid && req.MinimumBalance.Decimal.IsNegative() {
		return nil, apperrors.ErrInvalidOperation.WithMessage("minimum balance must not be negative")
	}
	if req.MinimumBalance.Valid && !models.FitsScale(req.MinimumBalance.Decimal, models.AmountScale) {
		return nil, ErrAmountScale.WithMessage(
			"minimum balance %s has more than %d decimal places", req.MinimumBalance.Decimal, models.AmountScale)
	}
	if err := req.Metadata.Validate(); err != nil {
		return nil, apperrors.ErrInvalidOperation.WithMessage("%v", err)
	}

	var wallet *models.Wallet
	err := s.execute(ctx, OpCreateWallet, func(ctx context.Context, sc *scope) error {
		if req.IsDefault {
			_, err := sc.repo.GetDefaultForUpdate(ctx, req.OwnerID, currency)
			if err == nil {
				return ErrDefaultWalletExists.WithMessage(
					"owner %s already has a default %s wallet", req.OwnerID, currency)
			}
			if !errors.Is(err, apperrors.ErrWalletNotFound) {
				return err
			}
		}

		w := s.newWallet(req.OwnerID, currency, req.Kind, sc)
		w.IsDefault = req.IsDefault
		if req.MinimumBalance.Valid {
			w.MinimumBalance = req.MinimumBalance.Decimal
		}
		if req.DailyWithdrawalLimit.Valid {
			w.DailyWithdrawalLimit = req.DailyWithdrawalLimit
		}
		if req.MonthlyWithdrawalLimit.Valid {
			w.MonthlyWithdrawalLimit = req.MonthlyWithdrawalLimit
		}
		w.InterestRateAnnualPercent = req.InterestRateAnnualPercent
		w.Metadata = req.Metadata.Clone()

		if err := sc.repo.Create(ctx, w); err != nil {
			return err
		}
		sc.adopt(w)
		sc.emit(audit.WalletEvent(w, OpCreateWallet, "", sc.at))
		wallet = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

// newWallet applies the configured policy defaults to an empty wallet.
func (s *service) newWallet(ownerID, currency string, kind models.WalletKind, sc *scope) *models.Wallet {
	w := models.NewWallet(ownerID, currency, kind)
	w.MinimumBalance = s.config.DefaultMinimumBalance
	w.DailyWithdrawalLimit = s.config.DefaultDailyWithdrawalLimit
	w.MonthlyWithdrawalLimit = s.config.DefaultMonthlyWithdrawalLimit
	w.CreatedAt = sc.at
	w.UpdatedAt = sc.at
	if kind == models.KindSavings {
		stamp := sc.at
		w.LastInterestCalculationAt = &stamp
	}
	return w
}

// defaultWallet locks the owner's default wallet for currency, creating a
// trading wallet when there is none yet.
func (s *service) defaultWallet(ctx context.Context, sc *scope, ownerID, currency string) (*models.Wallet, error) {
	w, err := sc.repo.GetDefaultForUpdate(ctx, ownerID, currency)
	if err == nil {
		if held, ok := sc.wallets[w.ID]; ok {
			return held, nil
		}
		sc.wallets[w.ID] = w
		return w, nil
	}
	if !errors.Is(err, apperrors.ErrWalletNotFound) {
		return nil, err
	}

	w = s.newWallet(ownerID, currency, models.KindTrading, sc)
	w.IsDefault = true
	if err := sc.repo.Create(ctx, w); err != nil {
		return nil, err
	}
	sc.adopt(w)
	sc.emit(audit.WalletEvent(w, OpCreateWallet, "implicit default", sc.at))
	return w, nil
}

func (s *service) GetOrCreateDefaultWallet(ctx context.Context, ownerID, currency string) (*models.Wallet, error) {
	currency = models.NormalizeCurrency(currency)
	if currency == "" {
		currency = s.config.DefaultCurrency
	}
	if ownerID == "" {
		return nil, ErrMissingOwner
	}
	if err := s.validateCurrency(currency); err != nil {
		return nil, err
	}

	var wallet *models.Wallet
	err := s.execute(ctx, OpCreateWallet, func(ctx context.Context, sc *scope) error {
		w, err := s.defaultWallet(ctx, sc, ownerID, currency)
		wallet = w
		return err
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

func (s *service) GetWallet(ctx context.Context, walletID string) (*models.Wallet, error) {
	w, err := s.repo.GetByID(ctx, walletID)
	if err != nil {
		return nil, normalizeError(err)
	}
	return w, nil
}

func (s *service) ListWallets(ctx context.Context, ownerID string) ([]*models.Wallet, error) {
	if ownerID == "" {
		return nil, ErrMissingOwner
	}
	wallets, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, normalizeError(err)
	}
	return wallets, nil
}

func checkLimits(limits ...decimal.NullDecimal) error {
	for _, l := range limits {
		if !l.Valid {
			continue
		}
		if l.Decimal.IsNegative() {
			return ErrNegativeLimit
		}
		if !models.FitsScale(l.Decimal, models.AmountScale) {
			return ErrAmountScale.WithMessage("limit %s has more than %d decimal places", l.Decimal, models.AmountScale)
		}
	}
	return nil
}
