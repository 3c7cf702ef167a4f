package wallet

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	apperrors "walletledger/internal/errors"
	"walletledger/internal/models"
	"walletledger/internal/repositories"
	"walletledger/internal/services/audit"
	"walletledger/internal/services/notification"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo is an in-memory WalletRepository. Transactions are serialized
// by txMu and rolled back from a snapshot when fn fails.
type memRepo struct {
	txMu sync.Mutex

	mu      sync.Mutex
	wallets map[string]*models.Wallet
	entries []*models.LedgerEntry
	lockLog []string

	// failEntry, when set, is consulted before every CreateEntry.
	failEntry func(e *models.LedgerEntry) error
}

func newMemRepo() *memRepo {
	return &memRepo{wallets: make(map[string]*models.Wallet)}
}

func copyWallet(w *models.Wallet) *models.Wallet {
	cp := *w
	cp.Metadata = w.Metadata.Clone()
	return &cp
}

func copyEntry(e *models.LedgerEntry) *models.LedgerEntry {
	cp := *e
	cp.Metadata = e.Metadata.Clone()
	return &cp
}

func (r *memRepo) Create(ctx context.Context, w *models.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.wallets[w.ID]; ok {
		return apperrors.ErrPersistenceFailure.WithMessage("duplicate wallet id %s", w.ID)
	}
	if w.IsDefault {
		for _, other := range r.wallets {
			if other.IsDefault && other.OwnerID == w.OwnerID && other.Currency == w.Currency {
				return apperrors.ErrConcurrencyConflict.WithMessage("default wallet already exists")
			}
		}
	}
	r.wallets[w.ID] = copyWallet(w)
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, id string) (*models.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.wallets[id]
	if !ok {
		return nil, apperrors.ErrWalletNotFound.WithMessage("wallet %s not found", id)
	}
	return copyWallet(w), nil
}

func (r *memRepo) GetByIDForUpdate(ctx context.Context, id string) (*models.Wallet, error) {
	r.mu.Lock()
	r.lockLog = append(r.lockLog, id)
	r.mu.Unlock()
	return r.GetByID(ctx, id)
}

func (r *memRepo) GetDefaultForUpdate(ctx context.Context, ownerID, currency string) (*models.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, w := range r.wallets {
		if w.IsDefault && w.OwnerID == ownerID && w.Currency == currency {
			r.lockLog = append(r.lockLog, w.ID)
			return copyWallet(w), nil
		}
	}
	return nil, apperrors.ErrWalletNotFound.WithMessage("no default wallet")
}

func (r *memRepo) ListByOwner(ctx context.Context, ownerID string) ([]*models.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Wallet
	for _, w := range r.wallets {
		if w.OwnerID == ownerID {
			out = append(out, copyWallet(w))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRepo) ListInterestEligibleIDs(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []string
	for _, w := range r.wallets {
		if w.Kind == models.KindSavings && w.Status == models.StatusActive && w.InterestRateAnnualPercent.IsPositive() {
			ids = append(ids, w.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *memRepo) Update(ctx context.Context, w *models.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.wallets[w.ID]; !ok {
		return apperrors.ErrWalletNotFound.WithMessage("wallet %s not found", w.ID)
	}
	r.wallets[w.ID] = copyWallet(w)
	return nil
}

func (r *memRepo) CreateEntry(ctx context.Context, e *models.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failEntry != nil {
		if err := r.failEntry(e); err != nil {
			return err
		}
	}
	r.entries = append(r.entries, copyEntry(e))
	return nil
}

func (r *memRepo) GetEntry(ctx context.Context, id string) (*models.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.ID == id {
			return copyEntry(e), nil
		}
	}
	return nil, apperrors.ErrEntryNotFound.WithMessage("ledger entry %s not found", id)
}

func (r *memRepo) FindReversal(ctx context.Context, entryID string) (*models.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.ReversalOf == entryID {
			return copyEntry(e), nil
		}
	}
	return nil, nil
}

func (r *memRepo) ListEntries(ctx context.Context, f repositories.EntryFilter) ([]*models.LedgerEntry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.LedgerEntry
	for _, e := range r.entries {
		switch {
		case f.WalletID != "" && e.WalletID != f.WalletID:
		case f.OwnerID != "" && e.OwnerID != f.OwnerID:
		case f.OperationType != "" && e.OperationType != f.OperationType:
		case !f.From.IsZero() && e.CreatedAt.Before(f.From):
		case !f.To.IsZero() && !e.CreatedAt.Before(f.To):
		default:
			out = append(out, copyEntry(e))
		}
	}
	// Insertion order breaks ties between entries of the same instant.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	total := int64(len(out))
	if f.Limit > 0 {
		if f.Offset >= len(out) {
			return nil, total, nil
		}
		end := f.Offset + f.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[f.Offset:end]
	}
	return out, total, nil
}

func (r *memRepo) ExecuteInTransaction(ctx context.Context, fn func(repositories.WalletRepository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.Lock()
	snapshot := make(map[string]*models.Wallet, len(r.wallets))
	for id, w := range r.wallets {
		snapshot[id] = copyWallet(w)
	}
	entryCount := len(r.entries)
	r.mu.Unlock()

	if err := fn(memTx{r}); err != nil {
		r.mu.Lock()
		r.wallets = snapshot
		r.entries = r.entries[:entryCount]
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *memRepo) resetLockLog() {
	r.mu.Lock()
	r.lockLog = nil
	r.mu.Unlock()
}

func (r *memRepo) locks() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lockLog...)
}

func (r *memRepo) entriesFor(walletID string) []*models.LedgerEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.LedgerEntry
	for _, e := range r.entries {
		if e.WalletID == walletID {
			out = append(out, copyEntry(e))
		}
	}
	return out
}

func (r *memRepo) entryCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// memTx is the view handed to a transaction body; it must not start
// another transaction on txMu.
type memTx struct {
	*memRepo
}

func (t memTx) ExecuteInTransaction(ctx context.Context, fn func(repositories.WalletRepository) error) error {
	return fn(t)
}

type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

func (s *recordingSink) Record(ctx context.Context, ev audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) operations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ops []string
	for _, ev := range s.events {
		ops = append(ops, ev.OperationType)
	}
	return ops
}

type recordingDispatcher struct {
	mu     sync.Mutex
	alerts []notification.Alert
	err    error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, a notification.Alert) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.alerts = append(d.alerts, a)
	return nil
}

func (d *recordingDispatcher) types() []notification.AlertType {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []notification.AlertType
	for _, a := range d.alerts {
		out = append(out, a.Type)
	}
	return out
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	svc     Service
	repo    *memRepo
	sink    *recordingSink
	alerts  *recordingDispatcher
	metrics *countingMetrics
	clock   *testClock
}

var testStart = time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{
		repo:    newMemRepo(),
		sink:    &recordingSink{},
		alerts:  &recordingDispatcher{},
		metrics: newCountingMetrics(),
		clock:   &testClock{now: testStart},
	}
	h.svc = NewService(Dependencies{
		Repo:    h.repo,
		Audit:   h.sink,
		Alerts:  h.alerts,
		Metrics: h.metrics,
		Clock:   h.clock.Now,
	}, cfg)
	return h
}

// fund deposits amount into the owner's default USD wallet.
func (h *harness) fund(t *testing.T, ownerID, amount string) *models.Wallet {
	t.Helper()
	w, _, err := h.svc.Deposit(context.Background(), DepositRequest{
		OwnerID:  ownerID,
		Currency: "USD",
		Amount:   dec(amount),
	})
	require.NoError(t, err)
	return w
}

func (h *harness) wallet(t *testing.T, id string) *models.Wallet {
	t.Helper()
	w, err := h.svc.GetWallet(context.Background(), id)
	require.NoError(t, err)
	return w
}

type countingMetrics struct {
	NoopMetricsCollector
	mu           sync.Mutex
	sinkFailures map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{sinkFailures: make(map[string]int)}
}

func (m *countingMetrics) RecordSinkFailure(sink string) {
	m.mu.Lock()
	m.sinkFailures[sink]++
	m.mu.Unlock()
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func assertCode(t *testing.T, code string, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apperrors.CodeOf(err), "error: %v", err)
}
