package repositories

import (
	"errors"
	"fmt"

	apperrors "walletledger/internal/errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes that signal contention rather than a broken store.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgUniqueViolation      = "23505"
)

// classify maps a store error onto the domain taxonomy. Domain errors pass
// through untouched.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}

	wrapped := fmt.Errorf("%s: %w", op, err)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return apperrors.ErrConcurrencyConflict.Wrap(wrapped)
		case pgUniqueViolation:
			if pgErr.ConstraintName == DefaultWalletIndex {
				return apperrors.ErrConcurrencyConflict.Wrap(wrapped)
			}
		}
	}
	return apperrors.ErrPersistenceFailure.Wrap(wrapped)
}
