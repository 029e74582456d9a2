package audithook

// Action constants for audit events.
const (
	// Balance actions
	ActionBalanceCredited    = "balance.credited"
	ActionBalanceDebited     = "balance.debited"
	ActionBalanceTransferred = "balance.transferred"
	ActionBalanceSet         = "balance.set"
	ActionBalanceReset       = "balance.reset"
	ActionBalanceResetAll    = "balance.reset_all"

	// Failure actions
	ActionOperationRejected = "operation.rejected"
	ActionStorageFailed     = "storage.failed"
)

// Resource constants for audit events.
const (
	ResourceAccount = "account"
	ResourceLedger  = "ledger"
)

// Category constants for audit events.
const (
	CategoryBalance = "balance"
	CategoryAdmin   = "admin"
	CategoryStorage = "storage"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
