// Package errors defines the domain error taxonomy shared by the engine,
// the repositories and the HTTP layer.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes
const (
	CodeWalletNotFound          = "WALLET_NOT_FOUND"
	CodeEntryNotFound           = "ENTRY_NOT_FOUND"
	CodeWalletNotTransactable   = "WALLET_NOT_TRANSACTABLE"
	CodeInsufficientFunds       = "INSUFFICIENT_FUNDS"
	CodeLimitExceeded           = "LIMIT_EXCEEDED"
	CodeCurrencyMismatch        = "CURRENCY_MISMATCH"
	CodeNonZeroBalance          = "NON_ZERO_BALANCE"
	CodeInvalidOperation        = "INVALID_OPERATION"
	CodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"
	CodeAlreadyReversed         = "ALREADY_REVERSED"
	CodeConcurrencyConflict     = "CONCURRENCY_CONFLICT"
	CodePersistenceFailure      = "PERSISTENCE_FAILURE"
)

// DomainError is a coded failure. Two DomainErrors match under errors.Is
// when their codes are equal, so a detailed copy still matches its sentinel.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Retryable reports whether the whole operation may be safely retried.
func (e *DomainError) Retryable() bool {
	return e.Code == CodeConcurrencyConflict
}

// WithMessage returns a copy carrying a more specific message.
func (e *DomainError) WithMessage(format string, args ...interface{}) *DomainError {
	return &DomainError{Code: e.Code, Message: fmt.Sprintf(format, args...), Err: e.Err}
}

// Wrap returns a copy of e with err as its cause.
func (e *DomainError) Wrap(err error) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, Err: err}
}

// New creates a DomainError.
func New(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// As extracts the first DomainError in err's chain.
func As(err error) (*DomainError, bool) {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// CodeOf returns the code of the first DomainError in err's chain, or "".
func CodeOf(err error) string {
	if de, ok := As(err); ok {
		return de.Code
	}
	return ""
}

// IsRetryable reports whether err carries a retryable DomainError.
func IsRetryable(err error) bool {
	de, ok := As(err)
	return ok && de.Retryable()
}
