package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"testing"
	"time"

	"walletledger/internal/logger"
	"walletledger/internal/models"
	"walletledger/internal/repositories"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) ListEntries(ctx context.Context, f repositories.EntryFilter) ([]*models.LedgerEntry, int64, error) {
	args := m.Called(ctx, f)
	entries, _ := args.Get(0).([]*models.LedgerEntry)
	return entries, args.Get(1).(int64), args.Error(2)
}

type fakeUploader struct {
	bucket, key string
	body        []byte
	err         error
}

func (u *fakeUploader) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if u.err != nil {
		return nil, u.err
	}
	u.bucket = aws.ToString(in.Bucket)
	u.key = aws.ToString(in.Key)
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	u.body = body
	return &s3.PutObjectOutput{}, nil
}

func entryAt(id string, at time.Time, amount string) *models.LedgerEntry {
	return &models.LedgerEntry{
		ID:            id,
		WalletID:      "w1",
		OwnerID:       "alice",
		OperationType: models.OpDeposit,
		Partition:     models.PartitionBalance,
		Amount:        decimal.RequireFromString(amount),
		Currency:      "USD",
		BalanceBefore: decimal.Zero,
		BalanceAfter:  decimal.RequireFromString(amount),
		CorrelationID: id,
		Status:        models.EntryCompleted,
		CreatedAt:     at,
	}
}

func TestStatementExporter_ExportDay(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2024, 3, 14, 15, 30, 0, 0, time.UTC)
	from := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)

	src := new(MockSource)
	src.On("ListEntries", ctx, repositories.EntryFilter{From: from, To: from.AddDate(0, 0, 1), Limit: pageSize}).
		Return([]*models.LedgerEntry{
			entryAt("e2", from.Add(2*time.Hour), "5"),
			entryAt("e1", from.Add(time.Hour), "10.25"),
		}, int64(2), nil)

	up := &fakeUploader{}
	exp := NewStatementExporter(src, up, "ledger-bucket", "statements", time.UTC, logger.Discard())

	key, err := exp.ExportDay(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, "statements/2024-03-14.csv", key)
	assert.Equal(t, "ledger-bucket", up.bucket)
	assert.Equal(t, key, up.key)

	rows, err := csv.NewReader(bytes.NewReader(up.body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, "e1", rows[1][0])
	assert.Equal(t, "10.25", rows[1][6])
	assert.Equal(t, "e2", rows[2][0])
	src.AssertExpectations(t)
}

func TestStatementExporter_Pages(t *testing.T) {
	ctx := context.Background()
	from := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	full := make([]*models.LedgerEntry, pageSize)
	for i := range full {
		full[i] = entryAt("e", from, "1")
	}

	src := new(MockSource)
	src.On("ListEntries", ctx, mock.MatchedBy(func(f repositories.EntryFilter) bool { return f.Offset == 0 })).
		Return(full, int64(pageSize+1), nil)
	src.On("ListEntries", ctx, mock.MatchedBy(func(f repositories.EntryFilter) bool { return f.Offset == pageSize })).
		Return([]*models.LedgerEntry{entryAt("last", from, "1")}, int64(pageSize+1), nil)

	up := &fakeUploader{}
	exp := NewStatementExporter(src, up, "b", "", time.UTC, logger.Discard())
	key, err := exp.ExportDay(ctx, from)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-14.csv", key)

	rows, err := csv.NewReader(bytes.NewReader(up.body)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, pageSize+2)
	assert.Equal(t, "last", rows[1][0])
	src.AssertNumberOfCalls(t, "ListEntries", 2)
}

func TestStatementExporter_Errors(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)

	t.Run("list failure", func(t *testing.T) {
		src := new(MockSource)
		src.On("ListEntries", ctx, mock.Anything).Return(nil, int64(0), errors.New("db down"))
		exp := NewStatementExporter(src, &fakeUploader{}, "b", "s", time.UTC, logger.Discard())

		_, err := exp.ExportDay(ctx, day)
		assert.ErrorContains(t, err, "db down")
	})

	t.Run("upload failure", func(t *testing.T) {
		src := new(MockSource)
		src.On("ListEntries", ctx, mock.Anything).Return([]*models.LedgerEntry{}, int64(0), nil)
		exp := NewStatementExporter(src, &fakeUploader{err: errors.New("access denied")}, "b", "s", time.UTC, logger.Discard())

		_, err := exp.ExportDay(ctx, day)
		assert.ErrorContains(t, err, "access denied")
	})
}

func TestStatementExporter_KeyUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	exp := NewStatementExporter(nil, nil, "b", "statements", tokyo, logger.Discard())

	// 20:00 UTC on the 14th is already the 15th in Tokyo.
	assert.Equal(t, "statements/2024-03-15.csv", exp.Key(time.Date(2024, 3, 14, 20, 0, 0, 0, time.UTC)))
}
