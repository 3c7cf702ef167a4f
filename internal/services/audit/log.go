package audit

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogSink writes audit events to the process log. It is the fallback when
// no Kafka brokers are configured.
type LogSink struct {
	log *logrus.Logger
}

func NewLogSink(log *logrus.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Record(ctx context.Context, event Event) error {
	s.log.WithFields(logrus.Fields{
		"audit_id":       event.ID,
		"owner_id":       event.OwnerID,
		"wallet_id":      event.WalletID,
		"entry_id":       event.EntryID,
		"operation_type": event.OperationType,
		"amount":         event.Amount.String(),
		"currency":       event.Currency,
		"balance":        event.BalancesAfter.Balance.String(),
		"available":      event.BalancesAfter.Available.String(),
		"reason":         event.Reason,
	}).Info("audit")
	return nil
}
