package wallet

import "time"

// Operation names used for metrics, logs and audit events.
const (
	OpCreateWallet  = "create_wallet"
	OpDeposit       = "deposit"
	OpWithdraw      = "withdraw"
	OpTransfer      = "transfer"
	OpLock          = "lock"
	OpUnlock        = "unlock"
	OpReserve       = "reserve"
	OpUnreserve     = "unreserve"
	OpSuspend       = "suspend"
	OpFreeze        = "freeze"
	OpDeactivate    = "deactivate"
	OpActivate      = "activate"
	OpClose         = "close"
	OpSetLimits     = "set_limits"
	OpReverseEntry  = "reverse_entry"
	OpApplyInterest = "apply_interest"
)

// Default configuration values
const (
	DefaultCurrency          = "USD"
	DefaultInterestDayCount  = 365
	DefaultInterestScale     = 2
	DefaultPostCommitTimeout = 3 * time.Second
)
