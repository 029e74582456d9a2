// Package types provides common types used across Coffer.
package types

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrOverflow is returned when coin arithmetic leaves the int64 range.
var ErrOverflow = errors.New("types: coin amount overflow")

// Coins is a count of whole coins. Balances never go below zero, but the
// type itself is signed so deltas can be expressed.
type Coins int64

// Add returns c+other, or ErrOverflow when the result does not fit.
func (c Coins) Add(other Coins) (Coins, error) {
	if other > 0 && c > math.MaxInt64-other {
		return 0, ErrOverflow
	}
	if other < 0 && c < math.MinInt64-other {
		return 0, ErrOverflow
	}
	return c + other, nil
}

// Sub returns c-other, or ErrOverflow when the result does not fit.
func (c Coins) Sub(other Coins) (Coins, error) {
	if other == math.MinInt64 {
		return 0, ErrOverflow
	}
	return c.Add(-other)
}

// Comparison methods

// IsZero returns true if the amount is zero.
func (c Coins) IsZero() bool { return c == 0 }

// IsPositive returns true if the amount is greater than zero.
func (c Coins) IsPositive() bool { return c > 0 }

// IsNegative returns true if the amount is less than zero.
func (c Coins) IsNegative() bool { return c < 0 }

// Int64 returns the raw count.
func (c Coins) Int64() int64 { return int64(c) }

// String returns the bare decimal count, e.g. "1234". This is the form used
// in transaction log messages.
func (c Coins) String() string {
	return strconv.FormatInt(int64(c), 10)
}

// Format returns a grouped, unit-suffixed string for display:
// "1,234 coins", "1 coin", "-50 coins".
func (c Coins) Format() string {
	unit := "coins"
	if c == 1 || c == -1 {
		unit = "coin"
	}
	return groupThousands(int64(c)) + " " + unit
}

// ParseCoins parses a decimal count. Thousands separators ("1,000") and a
// trailing unit ("coins") are accepted so that values copied from Format
// round trip.
func ParseCoins(s string) (Coins, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "coins")
	s = strings.TrimSuffix(s, "coin")
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, fmt.Errorf("types: parse coins: empty amount")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("types: parse coins %q: %w", s, err)
	}
	return Coins(n), nil
}

// Sum adds all values, failing on overflow.
func Sum(values ...Coins) (Coins, error) {
	var total Coins
	for _, v := range values {
		next, err := total.Add(v)
		if err != nil {
			return 0, err
		}
		total = next
	}
	return total, nil
}

func groupThousands(n int64) string {
	digits := strconv.FormatInt(n, 10)
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	if len(digits) <= 3 {
		return sign + digits
	}

	var b strings.Builder
	b.WriteString(sign)
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > len(sign) {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
