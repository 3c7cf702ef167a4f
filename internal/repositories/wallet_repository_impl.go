package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "walletledger/internal/errors"
	"walletledger/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type walletRepository struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewWalletRepository returns a gorm-backed WalletRepository. lockTimeout
// bounds row lock waits inside transactions; zero leaves the server default.
func NewWalletRepository(db *gorm.DB, lockTimeout time.Duration) WalletRepository {
	return &walletRepository{db: db, lockTimeout: lockTimeout}
}

func (r *walletRepository) Create(ctx context.Context, wallet *models.Wallet) error {
	if err := r.db.WithContext(ctx).Create(wallet).Error; err != nil {
		return classify("create wallet", err)
	}
	return nil
}

func (r *walletRepository) GetByID(ctx context.Context, id string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).First(&wallet, "id = ?", id).Error; err != nil {
		return nil, walletLookupError(id, err)
	}
	return &wallet, nil
}

func (r *walletRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&wallet, "id = ?", id).Error
	if err != nil {
		return nil, walletLookupError(id, err)
	}
	return &wallet, nil
}

func (r *walletRepository) GetDefaultForUpdate(ctx context.Context, ownerID, currency string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("owner_id = ? AND currency = ? AND is_default = ?", ownerID, currency, true).
		First(&wallet).Error
	if err != nil {
		return nil, walletLookupError(ownerID+"/"+currency, err)
	}
	return &wallet, nil
}

func (r *walletRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Wallet, error) {
	var wallets []*models.Wallet
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("currency ASC, created_at ASC").
		Find(&wallets).Error
	if err != nil {
		return nil, classify("list wallets", err)
	}
	return wallets, nil
}

func (r *walletRepository) ListInterestEligibleIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("kind = ? AND status = ? AND interest_rate_annual_percent > 0", models.KindSavings, models.StatusActive).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, classify("list interest wallets", err)
	}
	return ids, nil
}

func (r *walletRepository) Update(ctx context.Context, wallet *models.Wallet) error {
	if err := r.db.WithContext(ctx).Save(wallet).Error; err != nil {
		return classify("update wallet", err)
	}
	return nil
}

func (r *walletRepository) CreateEntry(ctx context.Context, entry *models.LedgerEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return classify("create ledger entry", err)
	}
	return nil
}

func (r *walletRepository) GetEntry(ctx context.Context, id string) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEntryNotFound.WithMessage("ledger entry %s not found", id)
		}
		return nil, classify("get ledger entry", err)
	}
	return &entry, nil
}

// FindReversal returns the entry reversing entryID, or nil when none exists.
func (r *walletRepository) FindReversal(ctx context.Context, entryID string) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.db.WithContext(ctx).Where("reversal_of = ?", entryID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("find reversal", err)
	}
	return &entry, nil
}

func (r *walletRepository) ListEntries(ctx context.Context, filter EntryFilter) ([]*models.LedgerEntry, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Scopes(entryScope(filter)).
		Count(&total).Error; err != nil {
		return nil, 0, classify("count ledger entries", err)
	}

	query := r.db.WithContext(ctx).
		Scopes(entryScope(filter)).
		Order("created_at DESC, id DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var entries []*models.LedgerEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, 0, classify("list ledger entries", err)
	}
	return entries, total, nil
}

func (r *walletRepository) ExecuteInTransaction(ctx context.Context, fn func(WalletRepository) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := setLockTimeout(tx, r.lockTimeout); err != nil {
			return err
		}
		return fn(&walletRepository{db: tx})
	})
	if err != nil {
		return classify("transaction", err)
	}
	return nil
}

// setLockTimeout bounds row lock waits for the rest of tx. Zero is a no-op.
func setLockTimeout(tx *gorm.DB, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	return tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = %d", d.Milliseconds())).Error
}

func entryScope(filter EntryFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.WalletID != "" {
			db = db.Where("wallet_id = ?", filter.WalletID)
		}
		if filter.OwnerID != "" {
			db = db.Where("owner_id = ?", filter.OwnerID)
		}
		if filter.OperationType != "" {
			db = db.Where("operation_type = ?", filter.OperationType)
		}
		if !filter.From.IsZero() {
			db = db.Where("created_at >= ?", filter.From)
		}
		if !filter.To.IsZero() {
			db = db.Where("created_at < ?", filter.To)
		}
		return db
	}
}

func walletLookupError(key string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrWalletNotFound.WithMessage("wallet %s not found", key)
	}
	return classify("get wallet", err)
}
