package errors

var (
	ErrWalletNotFound = &DomainError{
		Code:    CodeWalletNotFound,
		Message: "wallet not found",
	}
	ErrEntryNotFound = &DomainError{
		Code:    CodeEntryNotFound,
		Message: "ledger entry not found",
	}
	ErrWalletNotTransactable = &DomainError{
		Code:    CodeWalletNotTransactable,
		Message: "wallet is not transactable",
	}
	ErrInsufficientFunds = &DomainError{
		Code:    CodeInsufficientFunds,
		Message: "insufficient funds",
	}
	ErrLimitExceeded = &DomainError{
		Code:    CodeLimitExceeded,
		Message: "withdrawal limit exceeded",
	}
	ErrCurrencyMismatch = &DomainError{
		Code:    CodeCurrencyMismatch,
		Message: "wallet currencies do not match",
	}
	ErrNonZeroBalance = &DomainError{
		Code:    CodeNonZeroBalance,
		Message: "wallet still holds funds",
	}
	ErrInvalidOperation = &DomainError{
		Code:    CodeInvalidOperation,
		Message: "invalid operation",
	}
	ErrInvalidAmount = &DomainError{
		Code:    CodeInvalidOperation,
		Message: "amount must be greater than zero",
	}
	ErrInvalidStatusTransition = &DomainError{
		Code:    CodeInvalidStatusTransition,
		Message: "invalid wallet status transition",
	}
	ErrAlreadyReversed = &DomainError{
		Code:    CodeAlreadyReversed,
		Message: "ledger entry already reversed",
	}
	ErrConcurrencyConflict = &DomainError{
		Code:    CodeConcurrencyConflict,
		Message: "concurrent update conflict, retry the operation",
	}
	ErrPersistenceFailure = &DomainError{
		Code:    CodePersistenceFailure,
		Message: "persistence failure",
	}
	ErrLedgerImmutable = &DomainError{
		Code:    CodeInvalidOperation,
		Message: "ledger entries are append-only",
	}
)
