package notification

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogDispatcher logs alerts instead of publishing them.
type LogDispatcher struct {
	log *logrus.Logger
}

func NewLogDispatcher(log *logrus.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, alert Alert) error {
	d.log.WithFields(logrus.Fields{
		"alert":     alert.Type,
		"owner_id":  alert.OwnerID,
		"wallet_id": alert.WalletID,
		"amount":    alert.Amount.String(),
		"available": alert.Available.String(),
		"threshold": alert.Threshold.String(),
	}).Warn("wallet alert")
	return nil
}
