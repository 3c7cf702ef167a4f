// Package scheduler runs the recurring wallet jobs: interest accrual and
// the daily statement export.
package scheduler

import (
	"context"
	"time"

	apperrors "walletledger/internal/errors"
	"walletledger/internal/models"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

const (
	JobInterestAccrual = "interest_accrual"
	JobStatementExport = "statement_export"
)

// Accruer is the part of the wallet service the accrual job needs.
type Accruer interface {
	InterestEligibleWalletIDs(ctx context.Context) ([]string, error)
	ApplyInterest(ctx context.Context, walletID string) (*models.Wallet, *models.LedgerEntry, error)
}

// Exporter writes the ledger statement of one calendar day.
type Exporter interface {
	ExportDay(ctx context.Context, day time.Time) (string, error)
}

// JobRecorder counts job runs. metrics.Collector satisfies it.
type JobRecorder interface {
	RecordJobRun(job, result string)
}

type noopRecorder struct{}

func (noopRecorder) RecordJobRun(string, string) {}

type Scheduler struct {
	sched    gocron.Scheduler
	log      *logrus.Logger
	recorder JobRecorder
	location *time.Location
	timeout  time.Duration
}

// New creates a stopped scheduler. Jobs are evaluated in loc; each run is
// bounded by timeout.
func New(log *logrus.Logger, recorder JobRecorder, loc *time.Location, timeout time.Duration) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	sched, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, err
	}
	return &Scheduler{sched: sched, log: log, recorder: recorder, location: loc, timeout: timeout}, nil
}

// AddInterestAccrual runs RunInterestAccrual every interval.
func (s *Scheduler) AddInterestAccrual(a Accruer, interval time.Duration) error {
	return s.add(JobInterestAccrual, interval, func(ctx context.Context) error {
		res, err := RunInterestAccrual(ctx, a, s.log)
		if err != nil {
			return err
		}
		s.log.WithFields(logrus.Fields{
			"wallets":  res.Wallets,
			"credited": res.Credited,
			"failed":   res.Failed,
		}).Info("interest accrual finished")
		return nil
	})
}

// AddStatementExport exports the previous calendar day every interval.
func (s *Scheduler) AddStatementExport(e Exporter, interval time.Duration) error {
	return s.add(JobStatementExport, interval, func(ctx context.Context) error {
		day := time.Now().In(s.location).AddDate(0, 0, -1)
		key, err := e.ExportDay(ctx, day)
		if err != nil {
			return err
		}
		s.log.WithField("key", key).Info("statement exported")
		return nil
	})
}

func (s *Scheduler) add(name string, interval time.Duration, run func(ctx context.Context) error) error {
	_, err := s.sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx := context.Background()
			if s.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, s.timeout)
				defer cancel()
			}
			if err := run(ctx); err != nil {
				s.recorder.RecordJobRun(name, "failure")
				s.log.WithError(err).WithField("job", name).Error("scheduled job failed")
				return
			}
			s.recorder.RecordJobRun(name, "success")
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	return err
}

func (s *Scheduler) Start() {
	s.sched.Start()
}

// Shutdown stops the scheduler and waits for running jobs.
func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}

// AccrualResult summarizes one accrual pass.
type AccrualResult struct {
	Wallets  int
	Credited int
	Failed   int
}

// RunInterestAccrual applies interest to every eligible wallet. A failing
// wallet is logged and skipped; a conflict is retried once.
func RunInterestAccrual(ctx context.Context, a Accruer, log *logrus.Logger) (AccrualResult, error) {
	ids, err := a.InterestEligibleWalletIDs(ctx)
	if err != nil {
		return AccrualResult{}, err
	}

	res := AccrualResult{Wallets: len(ids)}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		_, entry, err := a.ApplyInterest(ctx, id)
		if err != nil && apperrors.IsRetryable(err) {
			_, entry, err = a.ApplyInterest(ctx, id)
		}
		if err != nil {
			res.Failed++
			log.WithFields(logrus.Fields{
				"wallet_id": id,
				"code":      apperrors.CodeOf(err),
				"error":     err.Error(),
			}).Warn("interest accrual skipped wallet")
			continue
		}
		if entry != nil {
			res.Credited++
		}
	}
	return res, nil
}
