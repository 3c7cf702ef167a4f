// Package export writes daily ledger statements to object storage.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path"
	"time"

	"walletledger/internal/models"
	"walletledger/internal/repositories"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

const pageSize = 1000

var header = []string{
	"entry_id", "created_at", "wallet_id", "owner_id", "operation_type", "partition",
	"amount", "currency", "balance_before", "balance_after", "correlation_id",
	"counterpart_wallet_id", "reversal_of", "status", "description",
}

// EntrySource pages through the ledger. The wallet repository satisfies it.
type EntrySource interface {
	ListEntries(ctx context.Context, filter repositories.EntryFilter) ([]*models.LedgerEntry, int64, error)
}

// Uploader is the subset of the S3 client the exporter uses.
type Uploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type StatementExporter struct {
	source   EntrySource
	uploader Uploader
	bucket   string
	prefix   string
	location *time.Location
	log      *logrus.Logger
}

func NewStatementExporter(source EntrySource, uploader Uploader, bucket, prefix string, loc *time.Location, log *logrus.Logger) *StatementExporter {
	if loc == nil {
		loc = time.UTC
	}
	return &StatementExporter{
		source:   source,
		uploader: uploader,
		bucket:   bucket,
		prefix:   prefix,
		location: loc,
		log:      log,
	}
}

// Key returns the object key of day's statement.
func (e *StatementExporter) Key(day time.Time) string {
	return path.Join(e.prefix, day.In(e.location).Format("2006-01-02")+".csv")
}

// ExportDay uploads every entry created on day's calendar date, oldest
// first, and returns the object key.
func (e *StatementExporter) ExportDay(ctx context.Context, day time.Time) (string, error) {
	y, m, d := day.In(e.location).Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, e.location)
	to := from.AddDate(0, 0, 1)

	entries, err := e.collect(ctx, from, to)
	if err != nil {
		return "", err
	}

	body, err := encode(entries)
	if err != nil {
		return "", err
	}

	key := e.Key(from)
	_, err = e.uploader.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", fmt.Errorf("upload statement %s: %w", key, err)
	}

	e.log.WithFields(logrus.Fields{
		"bucket":  e.bucket,
		"key":     key,
		"entries": len(entries),
	}).Info("ledger statement uploaded")
	return key, nil
}

func (e *StatementExporter) collect(ctx context.Context, from, to time.Time) ([]*models.LedgerEntry, error) {
	var all []*models.LedgerEntry
	for offset := 0; ; offset += pageSize {
		page, total, err := e.source.ListEntries(ctx, repositories.EntryFilter{
			From:   from,
			To:     to,
			Limit:  pageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, fmt.Errorf("list entries: %w", err)
		}
		all = append(all, page...)
		if len(page) < pageSize || int64(len(all)) >= total {
			break
		}
	}

	// Pages come newest first.
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return all, nil
}

func encode(entries []*models.LedgerEntry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, en := range entries {
		row := []string{
			en.ID,
			en.CreatedAt.UTC().Format(time.RFC3339Nano),
			en.WalletID,
			en.OwnerID,
			string(en.OperationType),
			string(en.Partition),
			en.Amount.String(),
			en.Currency,
			en.BalanceBefore.String(),
			en.BalanceAfter.String(),
			en.CorrelationID,
			en.CounterpartWalletID,
			en.ReversalOf,
			string(en.Status),
			en.Description,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
