package coffer

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// Rejections. These are expected outcomes: nothing was written.
	ErrInvalidAmount      = errors.New("coffer: amount must be positive")
	ErrInvalidAccount     = errors.New("coffer: invalid account identifier")
	ErrInvalidAccountPair = errors.New("coffer: sender and receiver are the same account")
	ErrInsufficientFunds  = errors.New("coffer: insufficient funds")
	ErrBalanceOverflow    = errors.New("coffer: balance would overflow")

	// Store errors
	ErrNotFound      = errors.New("coffer: not found")
	ErrStoreNotReady = errors.New("coffer: store not ready")
	ErrStoreClosed   = errors.New("coffer: store is closed")
	ErrStorage       = errors.New("coffer: storage failure")
)

// StorageError reports a failed read or write against the balance store or
// the transaction log.
type StorageError struct {
	// Op is the engine operation that failed, e.g. "add" or "transfer".
	Op      string
	Account string
	// Committed is true when the balance write succeeded and only the
	// following log append failed. The balance change stands.
	Committed bool
	Err       error
}

func (e *StorageError) Error() string {
	where := e.Op
	if e.Account != "" {
		where += " " + e.Account
	}
	if e.Committed {
		return fmt.Sprintf("coffer: %s: committed but not logged: %v", where, e.Err)
	}
	return fmt.Sprintf("coffer: %s: %v", where, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *StorageError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrStorage) match any StorageError.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("coffer: validation failed for %s: %s", e.Field, e.Message)
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "coffer: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("coffer: %d errors occurred", len(e.Errors))
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// ErrOrNil returns e when it holds errors, otherwise nil.
func (e MultiError) ErrOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRejection returns true if the operation was refused by validation and
// left every balance untouched.
func IsRejection(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidAccount) ||
		errors.Is(err, ErrInvalidAccountPair) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrBalanceOverflow)
}

// IsStorageError returns true if err came from the store or the log.
func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorage)
}

// IsCommitted returns true if err reports a balance change that was
// written but whose log entry was not.
func IsCommitted(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Committed
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	if IsCommitted(err) {
		return false
	}
	return errors.Is(err, ErrStoreNotReady) || (IsStorageError(err) && !errors.Is(err, ErrStoreClosed))
}
