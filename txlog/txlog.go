// Package txlog is the append-only, human-readable transaction log.
//
// Every balance-affecting operation appends one or more lines of the form
//
//	[Mon, 02 Jan 2006 15:04:05 GMT] ADD: alice received 100. Reason: bonus
//
// The log is an audit trail. It is never read back to reconstruct a balance
// and entries are never edited or removed.
package txlog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/coffer/types"
)

// TimeLayout is the timestamp format written between the brackets.
const TimeLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// DefaultReason is used when an operation is recorded without a reason.
const DefaultReason = "No reason provided"

var (
	// ErrMalformedEntry is returned by ParseEntry for lines not in log format.
	ErrMalformedEntry = errors.New("txlog: malformed entry")
	// ErrClosed is returned by operations on a closed log.
	ErrClosed = errors.New("txlog: log is closed")
)

// Log is an append-only sequence of entries.
type Log interface {
	// Append timestamps message and writes it durably as one entry.
	Append(ctx context.Context, message string) (Entry, error)
	// ReadAll returns every entry in append order, oldest first.
	ReadAll(ctx context.Context) ([]Entry, error)
	Close() error
}

// Entry is one line of the log.
type Entry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// NewEntry builds an entry stamped at t. Line breaks in message are folded
// to spaces so that one entry always occupies one line.
func NewEntry(t time.Time, message string) Entry {
	return Entry{Time: t.UTC().Truncate(time.Second), Message: singleLine(message)}
}

// String renders the entry as it appears on disk, without a trailing newline.
func (e Entry) String() string {
	if e.Time.IsZero() {
		return e.Message
	}
	return "[" + e.Time.UTC().Format(TimeLayout) + "] " + e.Message
}

// ParseEntry parses one rendered line.
func ParseEntry(line string) (Entry, error) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, "[") {
		return Entry{}, fmt.Errorf("%w: %q", ErrMalformedEntry, line)
	}
	end := strings.Index(line, "] ")
	if end < 0 {
		return Entry{}, fmt.Errorf("%w: %q", ErrMalformedEntry, line)
	}
	t, err := time.Parse(TimeLayout, line[1:end])
	if err != nil {
		return Entry{}, fmt.Errorf("%w: timestamp: %w", ErrMalformedEntry, err)
	}
	return Entry{Time: t.UTC(), Message: line[end+2:]}, nil
}

// ──────────────────────────────────────────────────
// Messages
// ──────────────────────────────────────────────────

// CreditMessage records coins added to an account.
func CreditMessage(account string, amount types.Coins, reason string) string {
	return fmt.Sprintf("ADD: %s received %s. Reason: %s", account, amount, reasonOrDefault(reason))
}

// DebitMessage records coins taken from an account.
func DebitMessage(account string, amount types.Coins, reason string) string {
	return fmt.Sprintf("TAKE: %s lost %s. Reason: %s", account, amount, reasonOrDefault(reason))
}

// TransferMessage is the summary line written after both transfer legs.
func TransferMessage(sender, receiver string, amount types.Coins, reason string) string {
	return fmt.Sprintf("TRANSFER: %s sent %s to %s. Reason: %s", sender, amount, receiver, reasonOrDefault(reason))
}

// SetMessage records an administrative overwrite of a balance.
func SetMessage(account string, amount types.Coins) string {
	return fmt.Sprintf("SET: %s's balance was set to %s.", account, amount)
}

// ResetMessage records a single balance reset to zero.
func ResetMessage(account, reason string) string {
	return fmt.Sprintf("RESET: %s's balance was reset. Reason: %s", account, reasonOrDefault(reason))
}

// ResetAllMessage records clearing every balance.
func ResetAllMessage() string {
	return "RESET: All user balances have been reset."
}

// TransferOutReason is the reason recorded on the sender's TAKE line.
func TransferOutReason(receiver string) string { return "Transfer to " + receiver }

// TransferInReason is the reason recorded on the receiver's ADD line.
func TransferInReason(sender string) string { return "Transfer from " + sender }

func reasonOrDefault(reason string) string {
	reason = strings.TrimSpace(singleLine(reason))
	if reason == "" {
		return DefaultReason
	}
	return reason
}

func singleLine(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}
