package wallet

import (
	"context"

	apperrors "walletledger/internal/errors"
	"walletledger/internal/models"
	"walletledger/internal/repositories"
)

const maxEntryPageSize = 500

func (s *service) ListEntries(ctx context.Context, filter repositories.EntryFilter) ([]*models.LedgerEntry, int64, error) {
	if filter.WalletID == "" && filter.OwnerID == "" {
		return nil, 0, apperrors.ErrInvalidOperation.WithMessage("wallet id or owner id is required")
	}
	if filter.OperationType != "" && !filter.OperationType.Valid() {
		return nil, 0, apperrors.ErrInvalidOperation.WithMessage("unknown operation type %q", filter.OperationType)
	}
	if filter.Limit <= 0 || filter.Limit > maxEntryPageSize {
		filter.Limit = maxEntryPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	entries, total, err := s.repo.ListEntries(ctx, filter)
	if err != nil {
		return nil, 0, normalizeError(err)
	}
	return entries, total, nil
}

func (s *service) GetEntry(ctx context.Context, entryID string) (*models.LedgerEntry, error) {
	e, err := s.repo.GetEntry(ctx, entryID)
	if err != nil {
		return nil, normalizeError(err)
	}
	return e, nil
}

// ReverseEntry books a compensating entry for a deposit, withdrawal or
// interest credit. The original entry is never modified; an entry can be
// reversed at most once.
func (s *service) ReverseEntry(ctx context.Context, entryID, reason string) (*models.Wallet, *models.LedgerEntry, error) {
	var (
		wallet   *models.Wallet
		reversal *models.LedgerEntry
	)
	err := s.execute(ctx, OpReverseEntry, func(ctx context.Context, sc *scope) error {
		original, err := sc.repo.GetEntry(ctx, entryID)
		if err != nil {
			return err
		}
		if !original.OperationType.Reversible() || original.Status != models.EntryCompleted {
			return ErrNotReversible.WithMessage(
				"%s entry %s cannot be reversed", original.OperationType, original.ID)
		}

		// The wallet lock serializes competing reversals of the same entry.
		locked, err := sc.lock(ctx, original.WalletID)
		if err != nil {
			return err
		}
		w := locked[0]

		existing, err := sc.repo.FindReversal(ctx, original.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperrors.ErrAlreadyReversed.WithMessage(
				"entry %s was reversed by %s", original.ID, existing.ID)
		}

		before := w.Balance
		switch original.OperationType {
		case models.OpWithdrawal:
			err = w.RevertDebit(original.Amount)
		default:
			err = w.RevertCredit(original.Amount)
		}
		if err != nil {
			return err
		}

		e := models.NewEntry(w, models.OpReversal, models.PartitionBalance, original.Amount, before, w.Balance, sc.at)
		e.ReversalOf = original.ID
		e.CorrelationID = original.CorrelationID
		e.Description = reason
		e.Metadata = models.Metadata{"reversed_operation": string(original.OperationType)}
		sc.record(w, e)

		wallet, reversal = w, e
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return wallet, reversal, nil
}
