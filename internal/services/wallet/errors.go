package wallet

import apperrors "walletledger/internal/errors"

// Service errors
var (
	ErrUnsupportedCurrency  = apperrors.ErrInvalidOperation.WithMessage("unsupported currency")
	ErrSelfTransfer         = apperrors.ErrInvalidOperation.WithMessage("cannot transfer to the same wallet")
	ErrDefaultWalletExists  = apperrors.ErrInvalidOperation.WithMessage("owner already has a default wallet in this currency")
	ErrInterestNotSupported = apperrors.ErrInvalidOperation.WithMessage("wallet does not accrue interest")
	ErrNotReversible        = apperrors.ErrInvalidOperation.WithMessage("ledger entry cannot be reversed")
	ErrMissingOwner         = apperrors.ErrInvalidOperation.WithMessage("owner id is required")
	ErrNegativeLimit        = apperrors.ErrInvalidOperation.WithMessage("limits must not be negative")
	ErrAmountScale          = apperrors.ErrInvalidOperation.WithMessage("amount has too many decimal places")
)
