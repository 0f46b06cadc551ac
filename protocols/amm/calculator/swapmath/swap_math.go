// Package swapmath prices trades against a constant-product pair: the
// invariant reserveIn * reserveOut is preserved across a trade net of the
// fee taken from the input side.
package swapmath

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/dexquote/dexquote-client-go/protocols/amm/calculator/scalemath"
	"github.com/dexquote/dexquote-client-go/protocols/amm/calculator/valuemath"
)

var (
	// DefaultFee is the canonical 0.3% pool fee as a fraction.
	DefaultFee = decimal.New(3, -3)

	one     = decimal.New(1, 0)
	hundred = decimal.New(1, 2)

	// ErrInvalidFee is returned when a fee fraction is outside [0, 1).
	ErrInvalidFee = errors.New("fee must be in the range [0, 1)")
	// ErrInsufficientLiquidity is returned when an amountOut is requested that is
	// greater than or equal to the available reserve.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity for swap")
	// ErrEmptyReserves is returned when a price is requested from a pair with a
	// non-positive reserve.
	ErrEmptyReserves = errors.New("pair has no reserves")
	// ErrInvalidSlippage is returned when a slippage tolerance exceeds 100%.
	ErrInvalidSlippage = errors.New("slippage must not exceed 10000 basis points")
)

// FeeFromBps converts a fee in basis points to a fraction, i.e. 30 -> 0.003.
func FeeFromBps(bps uint16) decimal.Decimal {
	return decimal.New(int64(bps), -4)
}

// AmountOut calculates the raw output amount for a swap of amountIn.
//
//	out = reserveOut * inWithFee / (reserveIn + inWithFee), inWithFee = in*(1-fee)
//
// A zero amountIn returns zero before any fee or reserve handling. A pair
// with a non-positive reserve also returns zero: nothing can come out of an
// empty pool, and quoting is not the place to fail a degenerate snapshot.
// The raw result is capped strictly below the raw output reserve; the final
// nearest rounding could otherwise hit the reserve exactly when the input
// dwarfs the pool.
func AmountOut(amountIn *big.Int, decimalsIn, decimalsOut int32, reserveIn, reserveOut, fee decimal.Decimal) (*big.Int, error) {
	if decimalsOut < 0 {
		return nil, scalemath.ErrInvalidDecimals
	}

	in, err := scalemath.RemoveDecimals(amountIn, decimalsIn)
	if err != nil {
		return nil, err
	}
	if in.IsZero() {
		return new(big.Int), nil
	}

	if fee.Sign() < 0 || fee.GreaterThanOrEqual(one) {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidFee, fee)
	}
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return new(big.Int), nil
	}

	inWithFee := in.Mul(one.Sub(fee))
	out := scalemath.Div(reserveOut.Mul(inWithFee), reserveIn.Add(inWithFee))

	raw, err := scalemath.ApplyDecimals(out, decimalsOut)
	if err != nil {
		return nil, err
	}

	// The truncated quotient sits strictly below reserveOut, but when the
	// gap is under half a raw unit the ties-away rounding above can land on
	// the reserve itself. Cap the raw result so no quote ever drains the
	// pool.
	rawReserveOut := reserveOut.Shift(decimalsOut).RoundFloor(0).BigInt()
	if rawReserveOut.Sign() > 0 && raw.Cmp(rawReserveOut) >= 0 {
		raw = new(big.Int).Sub(rawReserveOut, big.NewInt(1))
	}
	return raw, nil
}

// AmountIn calculates the raw input amount required to receive amountOut.
// The result is rounded up at the smallest unit so the quoted input is
// sufficient at quote precision.
func AmountIn(amountOut *big.Int, decimalsIn, decimalsOut int32, reserveIn, reserveOut, fee decimal.Decimal) (*big.Int, error) {
	if decimalsIn < 0 {
		return nil, scalemath.ErrInvalidDecimals
	}

	out, err := scalemath.RemoveDecimals(amountOut, decimalsOut)
	if err != nil {
		return nil, err
	}
	if out.IsZero() {
		return new(big.Int), nil
	}

	if fee.Sign() < 0 || fee.GreaterThanOrEqual(one) {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidFee, fee)
	}
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 || out.GreaterThanOrEqual(reserveOut) {
		return nil, fmt.Errorf("%w: requested amountOut (%s) is >= reserveOut (%s)", ErrInsufficientLiquidity, out, reserveOut)
	}

	required := scalemath.Div(reserveIn.Mul(out), reserveOut.Sub(out).Mul(one.Sub(fee)))

	return required.Shift(decimalsIn).RoundCeil(0).BigInt(), nil
}

// PriceImpact returns the percentage deviation between the quoted value a
// trade returns and the value it puts in: -(1 - valueOut/valueIn) * 100.
// A trade returning strictly less value than it spent yields a negative
// impact whose magnitude grows with the slippage cost; downstream display
// logic depends on this sign convention.
//
// If any input is zero the impact cannot be computed meaningfully and zero
// is returned; impact is advisory display data, not a precondition.
// (Decimal values cannot hold NaN, so not-a-number inputs are already
// rejected at the parse boundary.)
func PriceImpact(amountIn, amountOut, priceIn, priceOut decimal.Decimal) decimal.Decimal {
	if amountIn.IsZero() || amountOut.IsZero() || priceIn.IsZero() || priceOut.IsZero() {
		return decimal.Zero
	}

	valueIn := valuemath.ValueOf(amountIn, priceIn)
	valueOut := valuemath.ValueOf(amountOut, priceOut)

	return one.Sub(scalemath.Div(valueOut, valueIn)).Mul(hundred).Neg()
}

// SpotPrice returns the marginal pre-fee price of one unit of the input
// token, denominated in the output token.
func SpotPrice(reserveIn, reserveOut decimal.Decimal) (decimal.Decimal, error) {
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return decimal.Decimal{}, ErrEmptyReserves
	}
	return scalemath.Div(reserveOut, reserveIn), nil
}

// MinimumReceived applies a slippage tolerance in basis points to a quoted
// raw output, flooring the result: the floor guarantees the protection never
// overstates what the trade may return.
func MinimumReceived(amountOut *big.Int, slippageBps uint16) (*big.Int, error) {
	if amountOut == nil {
		return nil, scalemath.ErrNilAmount
	}
	if amountOut.Sign() < 0 {
		return nil, scalemath.ErrInvalidAmount
	}
	if slippageBps > 10000 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSlippage, slippageBps)
	}

	factor := one.Sub(decimal.New(int64(slippageBps), -4))
	return decimal.NewFromBigInt(amountOut, 0).Mul(factor).RoundFloor(0).BigInt(), nil
}
