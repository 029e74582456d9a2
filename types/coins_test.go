package types

import (
	"errors"
	"math"
	"testing"
)

func TestCoinsArithmetic(t *testing.T) {
	tests := []struct {
		name    string
		op      func() (Coins, error)
		want    Coins
		wantErr error
	}{
		{"Add", func() (Coins, error) { return Coins(100).Add(200) }, 300, nil},
		{"Add negative", func() (Coins, error) { return Coins(100).Add(-40) }, 60, nil},
		{"Sub", func() (Coins, error) { return Coins(500).Sub(200) }, 300, nil},
		{"Sub below zero", func() (Coins, error) { return Coins(5).Sub(10) }, -5, nil},
		{"Add overflow", func() (Coins, error) { return Coins(math.MaxInt64).Add(1) }, 0, ErrOverflow},
		{"Add underflow", func() (Coins, error) { return Coins(math.MinInt64).Add(-1) }, 0, ErrOverflow},
		{"Sub min", func() (Coins, error) { return Coins(0).Sub(math.MinInt64) }, 0, ErrOverflow},
		{"Add max exact", func() (Coins, error) { return Coins(math.MaxInt64 - 1).Add(1) }, math.MaxInt64, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error: got %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCoinsFormatting(t *testing.T) {
	tests := []struct {
		coins  Coins
		str    string
		format string
	}{
		{0, "0", "0 coins"},
		{1, "1", "1 coin"},
		{-1, "-1", "-1 coin"},
		{999, "999", "999 coins"},
		{1000, "1000", "1,000 coins"},
		{123456, "123456", "123,456 coins"},
		{1234567, "1234567", "1,234,567 coins"},
		{-1234, "-1234", "-1,234 coins"},
	}

	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			if got := tt.coins.String(); got != tt.str {
				t.Errorf("String: got %q, want %q", got, tt.str)
			}
			if got := tt.coins.Format(); got != tt.format {
				t.Errorf("Format: got %q, want %q", got, tt.format)
			}
		})
	}
}

func TestParseCoins(t *testing.T) {
	tests := []struct {
		in      string
		want    Coins
		wantErr bool
	}{
		{"100", 100, false},
		{" 42 ", 42, false},
		{"1,234 coins", 1234, false},
		{"1 coin", 1, false},
		{"-5", -5, false},
		{"", 0, true},
		{"coins", 0, true},
		{"ten", 0, true},
		{"99999999999999999999", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCoins(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error: got %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCoinsPredicates(t *testing.T) {
	if !Coins(0).IsZero() || Coins(1).IsZero() {
		t.Error("IsZero mismatch")
	}
	if !Coins(1).IsPositive() || Coins(0).IsPositive() {
		t.Error("IsPositive mismatch")
	}
	if !Coins(-1).IsNegative() || Coins(0).IsNegative() {
		t.Error("IsNegative mismatch")
	}
}

func TestSum(t *testing.T) {
	total, err := Sum(10, 20, 30)
	if err != nil {
		t.Fatal(err)
	}
	if total != 60 {
		t.Errorf("got %d, want 60", total)
	}

	if _, err := Sum(math.MaxInt64, 1); !errors.Is(err, ErrOverflow) {
		t.Errorf("expected overflow, got %v", err)
	}

	empty, err := Sum()
	if err != nil || empty != 0 {
		t.Errorf("empty sum: got %d, %v", empty, err)
	}
}

func TestEntityTouchAt(t *testing.T) {
	var e Entity
	now := NewEntity().CreatedAt
	e.TouchAt(now)
	if !e.CreatedAt.Equal(now) || !e.UpdatedAt.Equal(now) {
		t.Errorf("expected both timestamps set to %v, got %+v", now, e)
	}

	later := now.Add(1)
	e.TouchAt(later)
	if !e.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt changed: %v", e.CreatedAt)
	}
	if !e.UpdatedAt.Equal(later) {
		t.Errorf("UpdatedAt: got %v, want %v", e.UpdatedAt, later)
	}
}
