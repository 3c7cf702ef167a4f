package wallet

import (
	"context"
	"sort"
	"time"

	"walletledger/internal/models"
	"walletledger/internal/repositories"
	"walletledger/internal/services/audit"
	"walletledger/internal/services/notification"
)

// scope is the unit of work of one logical operation. It only lives inside
// WalletRepository.ExecuteInTransaction.
type scope struct {
	repo    repositories.WalletRepository
	at      time.Time
	wallets map[string]*models.Wallet
	dirty   map[string]bool
	entries []*models.LedgerEntry
	events  []audit.Event
	alerts  []notification.Alert
}

func newScope(repo repositories.WalletRepository, at time.Time) *scope {
	return &scope{
		repo:    repo,
		at:      at,
		wallets: make(map[string]*models.Wallet),
		dirty:   make(map[string]bool),
	}
}

// lock row-locks the given wallets in ascending id order and returns them
// in the order requested.
func (sc *scope) lock(ctx context.Context, ids ...string) ([]*models.Wallet, error) {
	ordered := make([]string, len(ids))
	copy(ordered, ids)
	sort.Strings(ordered)

	for _, id := range ordered {
		if _, ok := sc.wallets[id]; ok {
			continue
		}
		w, err := sc.repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		sc.wallets[id] = w
	}

	out := make([]*models.Wallet, len(ids))
	for i, id := range ids {
		out[i] = sc.wallets[id]
	}
	return out, nil
}

// adopt registers a wallet the scope created itself.
func (sc *scope) adopt(w *models.Wallet) {
	sc.wallets[w.ID] = w
}

func (sc *scope) touch(w *models.Wallet) {
	sc.wallets[w.ID] = w
	sc.dirty[w.ID] = true
}

func (sc *scope) record(w *models.Wallet, e *models.LedgerEntry) {
	sc.touch(w)
	sc.entries = append(sc.entries, e)
}

func (sc *scope) emit(ev audit.Event) {
	sc.events = append(sc.events, ev)
}

func (sc *scope) raise(a notification.Alert) {
	sc.alerts = append(sc.alerts, a)
}

// flush writes dirty wallets, in lock order, and then the ledger entries.
func (sc *scope) flush(ctx context.Context) error {
	for _, id := range sc.dirtyIDs() {
		w := sc.wallets[id]
		w.UpdatedAt = sc.at
		if err := sc.repo.Update(ctx, w); err != nil {
			return err
		}
	}
	for _, e := range sc.entries {
		if err := sc.repo.CreateEntry(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (sc *scope) dirtyIDs() []string {
	ids := make([]string, 0, len(sc.dirty))
	for id := range sc.dirty {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
