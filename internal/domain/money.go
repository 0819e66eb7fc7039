package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrCurrencyMismatch = errors.New("currency mismatch")
)

// Money is an integer minor-unit amount. No float amount is ever stored.
type Money struct {
	Cents    int64  `json:"cents"`
	Currency string `json:"currency"`
}

func minorDigits(currency string) int32 {
	switch currency {
	case "jpy", "krw", "vnd":
		return 0
	default:
		return 2
	}
}

// FromDecimal converts a major-unit decimal into Money. It rejects
// non-positive values and values with more precision than the currency's
// minor unit.
func FromDecimal(v decimal.Decimal, currency string) (Money, error) {
	cur := strings.ToLower(strings.TrimSpace(currency))
	if cur == "" {
		cur = "usd"
	}
	if v.Sign() <= 0 {
		return Money{}, ErrInvalidAmount
	}
	minor := v.Shift(minorDigits(cur))
	if !minor.IsInteger() {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: minor.IntPart(), Currency: cur}, nil
}

func FromCents(cents int64, currency string) Money {
	cur := strings.ToLower(strings.TrimSpace(currency))
	if cur == "" {
		cur = "usd"
	}
	return Money{Cents: cents, Currency: cur}
}

func (m Money) Add(o Money) (Money, error) {
	if m.Currency != o.Currency {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{Cents: m.Cents + o.Cents, Currency: m.Currency}, nil
}

// Percent returns rate% of m, rounded half-up to the minor unit.
func (m Money) Percent(rate int64) Money {
	return Money{Cents: (m.Cents*rate + 50) / 100, Currency: m.Currency}
}

func (m Money) Mul(n int64) Money {
	return Money{Cents: m.Cents * n, Currency: m.Currency}
}

func (m Money) IsZero() bool { return m.Cents == 0 }

// Decimal returns the major-unit value, for wire output only.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -minorDigits(m.Currency))
}
