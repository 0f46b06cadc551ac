// Package scalemath converts between raw on-chain integer amounts and exact
// base-10 decimal values, and fixes the division and rounding policy shared
// by every calculation in this module. Binary floating point is never used.
package scalemath

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// DivisionScale is the number of fractional digits kept by Div and Sqrt.
// Quotients are truncated at this scale, never rounded up, so a computed
// quotient can never exceed the exact mathematical value.
const DivisionScale int32 = 20

var (
	// ErrInvalidInput is returned when a value cannot be interpreted as a real number.
	ErrInvalidInput = errors.New("input is not a valid decimal number")
	// ErrInvalidDecimals is returned when a decimals parameter is negative.
	ErrInvalidDecimals = errors.New("decimals must be a non-negative integer")
	// ErrNilAmount is returned when a nil pointer is passed as an amount.
	ErrNilAmount = errors.New("nil pointer passed as amount")
	// ErrInvalidAmount is returned when a raw amount is negative.
	ErrInvalidAmount = errors.New("amount must be non-negative")
)

// Parse interprets s as an exact decimal number.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidInput, s)
	}
	return d, nil
}

// RemoveDecimals converts a raw integer amount in a token's smallest unit
// into its decimal value: amount / 10^decimals. The conversion is an exact
// exponent shift; no precision is lost.
func RemoveDecimals(amount *big.Int, decimals int32) (decimal.Decimal, error) {
	if amount == nil {
		return decimal.Decimal{}, ErrNilAmount
	}
	if amount.Sign() < 0 {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	if decimals < 0 {
		return decimal.Decimal{}, ErrInvalidDecimals
	}
	return decimal.NewFromBigInt(amount, -decimals), nil
}

// ApplyDecimals converts a decimal value back into a raw integer amount:
// round(amount * 10^decimals). Ties round away from zero; this is the single
// place a scaling operation rounds, and the policy is uniform across the
// module.
func ApplyDecimals(amount decimal.Decimal, decimals int32) (*big.Int, error) {
	if decimals < 0 {
		return nil, ErrInvalidDecimals
	}
	return amount.Shift(decimals).Round(0).BigInt(), nil
}

// PowerOfTen returns 10^n as an exact decimal. n may be negative.
func PowerOfTen(n int32) decimal.Decimal {
	return decimal.New(1, n)
}

// Div divides a by b, truncating the quotient at DivisionScale fractional
// digits. The divisor must be non-zero; callers guard that before calling.
func Div(a, b decimal.Decimal) decimal.Decimal {
	q, _ := a.QuoRem(b, DivisionScale)
	return q
}

// Sqrt returns the square root of value, floored at DivisionScale fractional
// digits. Perfect squares come out exact. A negative value fails with
// ErrInvalidInput since the result would not be a real number.
func Sqrt(value decimal.Decimal) (decimal.Decimal, error) {
	if value.Sign() < 0 {
		return decimal.Decimal{}, fmt.Errorf("%w: square root of negative value %s", ErrInvalidInput, value)
	}

	// Shift so the integer square root carries DivisionScale fractional
	// digits of the final result. BigInt() truncates any digits beyond the
	// shifted scale, which keeps the floor policy.
	scaled := value.Shift(2 * DivisionScale)
	root := new(big.Int).Sqrt(scaled.BigInt())
	return decimal.NewFromBigInt(root, -DivisionScale), nil
}
