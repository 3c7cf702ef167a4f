package wallet

import (
	"context"
	"time"

	apperrors "walletledger/internal/errors"
	"walletledger/internal/models"
	"walletledger/internal/repositories"
	"walletledger/internal/services/audit"
	"walletledger/internal/services/notification"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Dependencies are the collaborators of the engine. Only Repo is required.
type Dependencies struct {
	Repo    repositories.WalletRepository
	Audit   audit.Sink
	Alerts  notification.Dispatcher
	Metrics MetricsCollector
	Logger  *logrus.Logger
	Clock   func() time.Time
}

type service struct {
	repo    repositories.WalletRepository
	audit   audit.Sink
	alerts  notification.Dispatcher
	config  Config
	metrics MetricsCollector
	log     *logrus.Logger
	clock   func() time.Time
}

// NewService creates a new wallet service
func NewService(deps Dependencies, config Config) Service {
	if deps.Repo == nil {
		panic("repo is required")
	}

	if config.DefaultCurrency == "" {
		config.DefaultCurrency = DefaultCurrency
	}
	config.DefaultCurrency = models.NormalizeCurrency(config.DefaultCurrency)
	for i, c := range config.SupportedCurrencies {
		config.SupportedCurrencies[i] = models.NormalizeCurrency(c)
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.InterestDayCount <= 0 {
		config.InterestDayCount = DefaultInterestDayCount
	}
	if config.InterestScale <= 0 {
		config.InterestScale = DefaultInterestScale
	}
	if config.InterestScale > models.AmountScale {
		config.InterestScale = models.AmountScale
	}
	if config.PostCommitTimeout <= 0 {
		config.PostCommitTimeout = DefaultPostCommitTimeout
	}

	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	if deps.Audit == nil {
		deps.Audit = audit.NewLogSink(deps.Logger)
	}
	if deps.Alerts == nil {
		deps.Alerts = notification.NewLogDispatcher(deps.Logger)
	}
	// Metrics is optional, create no-op collector if nil
	if deps.Metrics == nil {
		deps.Metrics = &NoopMetricsCollector{}
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	return &service{
		repo:    deps.Repo,
		audit:   deps.Audit,
		alerts:  deps.Alerts,
		config:  config,
		metrics: deps.Metrics,
		log:     deps.Logger,
		clock:   deps.Clock,
	}
}

func (s *service) now() time.Time {
	return s.clock().In(s.config.Location)
}

// execute runs fn inside one atomic scope and performs the post-commit
// side effects when it commits.
func (s *service) execute(ctx context.Context, op string, fn func(ctx context.Context, sc *scope) error) error {
	start := time.Now()
	var committed *scope

	err := s.repo.ExecuteInTransaction(ctx, func(tx repositories.WalletRepository) error {
		sc := newScope(tx, s.now())
		if err := fn(ctx, sc); err != nil {
			return err
		}
		if err := sc.flush(ctx); err != nil {
			return err
		}
		committed = sc
		return nil
	})
	s.metrics.RecordOperationDuration(op, time.Since(start))

	if err != nil {
		err = normalizeError(err)
		s.metrics.RecordOperationResult(op, "failure")
		s.metrics.RecordError(op, apperrors.CodeOf(err))
		s.logFailure(op, err)
		return err
	}

	s.metrics.RecordOperationResult(op, "success")
	s.afterCommit(ctx, committed)
	return nil
}

func normalizeError(err error) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	return apperrors.ErrPersistenceFailure.Wrap(err)
}

func (s *service) logFailure(op string, err error) {
	entry := s.log.WithFields(logrus.Fields{
		"operation": op,
		"code":      apperrors.CodeOf(err),
		"error":     err.Error(),
	})
	switch apperrors.CodeOf(err) {
	case apperrors.CodePersistenceFailure:
		entry.Error("wallet operation failed")
	case apperrors.CodeConcurrencyConflict:
		entry.Warn("wallet operation conflicted")
	default:
		entry.Debug("wallet operation rejected")
	}
}

func (s *service) validateCurrency(currency string) error {
	if len(currency) != 3 {
		return ErrUnsupportedCurrency.WithMessage("invalid currency code %q", currency)
	}
	if len(s.config.SupportedCurrencies) == 0 {
		return nil
	}
	for _, c := range s.config.SupportedCurrencies {
		if c == currency {
			return nil
		}
	}
	return ErrUnsupportedCurrency.WithMessage("currency %s is not supported", currency)
}

// checkAmount rejects amounts the ledger cannot store exactly.
func checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.ErrInvalidAmount
	}
	if !models.FitsScale(amount, models.AmountScale) {
		return ErrAmountScale.WithMessage("amount %s has more than %d decimal places", amount, models.AmountScale)
	}
	return nil
}

func (s *service) validateDepositAmount(amount decimal.Decimal) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if amount.LessThan(s.config.MinDepositAmount) {
		return apperrors.ErrInvalidOperation.WithMessage(
			"deposit of %s is below the minimum of %s", amount, s.config.MinDepositAmount)
	}
	if max := s.config.MaxDepositAmount; max.Valid && amount.GreaterThan(max.Decimal) {
		return apperrors.ErrLimitExceeded.WithMessage(
			"deposit of %s exceeds the maximum of %s", amount, max.Decimal)
	}
	return nil
}

func (s *service) Deposit(ctx context.Context, req DepositRequest) (*models.Wallet, *models.LedgerEntry, error) {
	currency := models.NormalizeCurrency(req.Currency)
	if req.OwnerID == "" {
		return nil, nil, ErrMissingOwner
	}
	if err := s.validateCurrency(currency); err != nil {
		return nil, nil, err
	}
	if err := s.validateDepositAmount(req.Amount); err != nil {
		return nil, nil, err
	}
	if err := req.Metadata.Validate(); err != nil {
		return nil, nil, apperrors.ErrInvalidOperation.WithMessage("%v", err)
	}

	var (
		wallet *models.Wallet
		entry  *models.LedgerEntry
	)
	err := s.execute(ctx, OpDeposit, func(ctx context.Context, sc *scope) error {
		w, err := s.defaultWallet(ctx, sc, req.OwnerID, currency)
		if err != nil {
			return err
		}

		before := w.Balance
		if err := w.Deposit(req.Amount); err != nil {
			return err
		}

		entry = models.NewEntry(w, models.OpDeposit, models.PartitionBalance, req.Amount, before, w.Balance, sc.at)
		entry.Description = req.Description
		entry.Metadata = req.Metadata.Clone()
		sc.record(w, entry)
		wallet = w
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return wallet, entry, nil
}

func (s *service) Withdraw(ctx context.Context, req WithdrawRequest) (*models.Wallet, *models.LedgerEntry, error) {
	if err := checkAmount(req.Amount); err != nil {
		return nil, nil, err
	}
	if req.Amount.LessThan(s.config.MinWithdrawalAmount) {
		return nil, nil, apperrors.ErrInvalidOperation.WithMessage(
			"withdrawal of %s is below the minimum of %s", req.Amount, s.config.MinWithdrawalAmount)
	}
	if err := req.Metadata.Validate(); err != nil {
		return nil, nil, apperrors.ErrInvalidOperation.WithMessage("%v", err)
	}

	var (
		wallet *models.Wallet
		entry  *models.LedgerEntry
	)
	err := s.execute(ctx, OpWithdraw, func(ctx context.Context, sc *scope) error {
		locked, err := sc.lock(ctx, req.WalletID)
		if err != nil {
			return err
		}
		w := locked[0]

		before := w.Balance
		if err := w.Withdraw(req.Amount, sc.at); err != nil {
			return err
		}

		entry = models.NewEntry(w, models.OpWithdrawal, models.PartitionBalance, req.Amount, before, w.Balance, sc.at)
		entry.Description = req.Description
		entry.Metadata = req.Metadata.Clone()
		sc.record(w, entry)
		s.raiseAlerts(sc, w, entry, true)
		wallet = w
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return wallet, entry, nil
}

func (s *service) Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	if err := checkAmount(req.Amount); err != nil {
		return nil, err
	}
	if req.FromWalletID == req.ToWalletID {
		return nil, ErrSelfTransfer
	}
	if err := req.Metadata.Validate(); err != nil {
		return nil, apperrors.ErrInvalidOperation.WithMessage("%v", err)
	}

	var result TransferResult
	err := s.execute(ctx, OpTransfer, func(ctx context.Context, sc *scope) error {
		locked, err := sc.lock(ctx, req.FromWalletID, req.ToWalletID)
		if err != nil {
			return err
		}
		from, to := locked[0], locked[1]

		if from.Currency != to.Currency {
			return apperrors.ErrCurrencyMismatch.WithMessage(
				"cannot transfer %s to a %s wallet", from.Currency, to.Currency)
		}
		if err := from.CheckWithdraw(req.Amount, sc.at); err != nil {
			return err
		}
		if err := to.CheckDeposit(req.Amount); err != nil {
			return err
		}

		fromBefore, toBefore := from.Balance, to.Balance
		if err := from.Withdraw(req.Amount, sc.at); err != nil {
			return err
		}
		if err := to.Deposit(req.Amount); err != nil {
			return err
		}

		correlationID := uuid.NewString()
		out := models.NewEntry(from, models.OpTransferOut, models.PartitionBalance, req.Amount, fromBefore, from.Balance, sc.at)
		in := models.NewEntry(to, models.OpTransferIn, models.PartitionBalance, req.Amount, toBefore, to.Balance, sc.at)
		for _, pair := range [][2]*models.LedgerEntry{{out, in}, {in, out}} {
			e, other := pair[0], pair[1]
			e.CorrelationID = correlationID
			e.CounterpartWalletID = other.WalletID
			e.CounterpartOwnerID = other.OwnerID
			e.Description = req.Description
			e.Metadata = req.Metadata.Clone()
		}

		sc.record(from, out)
		sc.record(to, in)
		s.raiseAlerts(sc, from, out, true)

		result = TransferResult{From: from, To: to, OutEntry: out, InEntry: in}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// partitionMove describes one of the four earmark operations.
type partitionMove struct {
	name      string
	op        models.OperationType
	partition models.Partition
	value     func(w *models.Wallet) decimal.Decimal
	apply     func(w *models.Wallet, amount decimal.Decimal) (decimal.Decimal, error)
	earmarks  bool
}

var (
	lockMove = partitionMove{
		name: OpLock, op: models.OpLock, partition: models.PartitionLocked, earmarks: true,
		value: func(w *models.Wallet) decimal.Decimal { return w.LockedBalance },
		apply: func(w *models.Wallet, amount decimal.Decimal) (decimal.Decimal, error) {
			return amount, w.Lock(amount)
		},
	}
	unlockMove = partitionMove{
		name: OpUnlock, op: models.OpUnlock, partition: models.PartitionLocked,
		value: func(w *models.Wallet) decimal.Decimal { return w.LockedBalance },
		apply: func(w *models.Wallet, amount decimal.Decimal) (decimal.Decimal, error) {
			return w.Unlock(amount)
		},
	}
	reserveMove = partitionMove{
		name: OpReserve, op: models.OpReserve, partition: models.PartitionReserved, earmarks: true,
		value: func(w *models.Wallet) decimal.Decimal { return w.ReservedBalance },
		apply: func(w *models.Wallet, amount decimal.Decimal) (decimal.Decimal, error) {
			return amount, w.Reserve(amount)
		},
	}
	unreserveMove = partitionMove{
		name: OpUnreserve, op: models.OpUnreserve, partition: models.PartitionReserved,
		value: func(w *models.Wallet) decimal.Decimal { return w.ReservedBalance },
		apply: func(w *models.Wallet, amount decimal.Decimal) (decimal.Decimal, error) {
			return w.Unreserve(amount)
		},
	}
)

func (s *service) Lock(ctx context.Context, req PartitionRequest) (*models.Wallet, error) {
	return s.movePartition(ctx, lockMove, req)
}

func (s *service) Unlock(ctx context.Context, req PartitionRequest) (*models.Wallet, error) {
	return s.movePartition(ctx, unlockMove, req)
}

func (s *service) Reserve(ctx context.Context, req PartitionRequest) (*models.Wallet, error) {
	return s.movePartition(ctx, reserveMove, req)
}

func (s *service) Unreserve(ctx context.Context, req PartitionRequest) (*models.Wallet, error) {
	return s.movePartition(ctx, unreserveMove, req)
}

func (s *service) movePartition(ctx context.Context, move partitionMove, req PartitionRequest) (*models.Wallet, error) {
	if err := checkAmount(req.Amount); err != nil {
		return nil, err
	}

	var wallet *models.Wallet
	err := s.execute(ctx, move.name, func(ctx context.Context, sc *scope) error {
		locked, err := sc.lock(ctx, req.WalletID)
		if err != nil {
			return err
		}
		w := locked[0]
		wallet = w

		before := move.value(w)
		moved, err := move.apply(w, req.Amount)
		if err != nil {
			return err
		}
		// Releasing from an empty partition changes nothing.
		if moved.IsZero() {
			return nil
		}

		entry := models.NewEntry(w, move.op, move.partition, moved, before, move.value(w), sc.at)
		entry.Description = req.Reason
		if !moved.Equal(req.Amount) {
			entry.Metadata = models.Metadata{"requested_amount": req.Amount.String()}
		}
		sc.record(w, entry)
		if move.earmarks {
			s.raiseAlerts(sc, w, entry, false)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

// GetBalanceSummary reads the committed row, so it always reflects the
// last operation that touched the wallet.
func (s *service) GetBalanceSummary(ctx context.Context, walletID string) (*models.BalanceSummary, error) {
	w, err := s.repo.GetByID(ctx, walletID)
	if err != nil {
		return nil, normalizeError(err)
	}
	summary := w.Summary()
	return &summary, nil
}

// raiseAlerts queues the policy alerts for a committed debit or earmark.
func (s *service) raiseAlerts(sc *scope, w *models.Wallet, e *models.LedgerEntry, withdrawal bool) {
	if threshold := s.config.LargeWithdrawalThreshold; withdrawal && threshold.IsPositive() && e.Amount.GreaterThan(threshold) {
		sc.raise(newAlert(notification.AlertLargeWithdrawal, w, e, threshold, sc.at))
	}
	if threshold := s.config.LowBalanceThreshold; threshold.IsPositive() && w.AvailableBalance().LessThan(threshold) {
		sc.raise(newAlert(notification.AlertLowBalance, w, e, threshold, sc.at))
	}
}

func newAlert(t notification.AlertType, w *models.Wallet, e *models.LedgerEntry, threshold decimal.Decimal, at time.Time) notification.Alert {
	return notification.Alert{
		Type:      t,
		OwnerID:   w.OwnerID,
		WalletID:  w.ID,
		EntryID:   e.ID,
		Currency:  w.Currency,
		Amount:    e.Amount,
		Threshold: threshold,
		Available: w.AvailableBalance(),
		At:        at,
	}
}

// afterCommit runs the side effects of a committed scope. It is detached
// from the caller's cancellation and bounded by PostCommitTimeout; nothing
// here can fail the operation.
func (s *service) afterCommit(ctx context.Context, sc *scope) {
	postCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.PostCommitTimeout)
	defer cancel()

	for _, ev := range sc.events {
		s.recordAudit(postCtx, ev)
	}
	for _, e := range sc.entries {
		s.metrics.RecordVolume(string(e.OperationType), e.Currency, e.Amount.InexactFloat64())
		s.recordAudit(postCtx, audit.EntryEvent(sc.wallets[e.WalletID], e))
	}
	for _, a := range sc.alerts {
		if err := s.alerts.Dispatch(postCtx, a); err != nil {
			s.metrics.RecordSinkFailure("alerts")
			s.log.WithFields(logrus.Fields{
				"alert":     a.Type,
				"wallet_id": a.WalletID,
				"error":     err.Error(),
			}).Error("alert dispatch failed")
		}
	}
}

func (s *service) recordAudit(ctx context.Context, ev audit.Event) {
	if err := s.audit.Record(ctx, ev); err != nil {
		s.metrics.RecordSinkFailure("audit")
		s.log.WithFields(logrus.Fields{
			"owner_id":       ev.OwnerID,
			"wallet_id":      ev.WalletID,
			"entry_id":       ev.EntryID,
			"operation_type": ev.OperationType,
			"error":          err.Error(),
		}).Error("audit event delivery failed")
	}
}
