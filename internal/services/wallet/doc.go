/*
Package wallet implements the balance engine: deposits, withdrawals,
transfers, lock/unlock and reserve/unreserve against ledger-backed wallets.

Every mutating call runs in exactly one atomic scope. The scope locks the
wallet rows it needs (ascending id order, so two transfers over the same
pair cannot deadlock), mutates the in-memory aggregates, then writes the
wallet rows and the new ledger entries before committing. A failure at any
point rolls the whole scope back.

Usage:

	svc := wallet.NewService(wallet.Dependencies{
	    Repo:    repositories.NewWalletRepository(db, 5*time.Second),
	    Audit:   audit.NewKafkaSink(writer),
	    Alerts:  publisher,
	    Metrics: collector,
	    Logger:  log,
	}, wallet.Config{DefaultCurrency: "USD"})

	w, entry, err := svc.Deposit(ctx, wallet.DepositRequest{
	    OwnerID:  "owner-1",
	    Currency: "USD",
	    Amount:   decimal.NewFromInt(1000),
	})

Deposit is the only operation that creates a wallet implicitly: it reuses
the owner's default wallet for the currency, creating a trading wallet when
none exists.

After commit the engine emits one audit event per ledger entry and
dispatches large-withdrawal and low-balance alerts. Failures there are logged and counted but never undo
the committed change.

Errors are *errors.DomainError values from internal/errors; compare them
with errors.Is. CONCURRENCY_CONFLICT is the only retryable code.
*/
package wallet
