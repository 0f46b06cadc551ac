// Package liquiditymath prices liquidity-pool positions: the LP tokens
// minted for a two-sided deposit, the pool share such a mint represents, and
// the token balances an LP balance redeems.
package liquiditymath

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/dexquote/dexquote-client-go/protocols/amm/calculator/scalemath"
)

// MinimumLiquidity is the anti-dust floor subtracted from the very first LP
// mint of a pool, mirroring the underlying protocol. A first deposit whose
// geometric mean falls below it mints a negative position; no clamp is
// applied here, rejecting such deposits is a caller-level policy.
var MinimumLiquidity = scalemath.PowerOfTen(3)

var one = decimal.New(1, 0)

// ErrDivisionByZero is returned when a pool snapshot carries a zero
// denominator outside the guarded first-deposit branch: exactly one reserve
// is zero, supply exists over empty reserves, or a redemption is priced
// against a zero total supply. Failing is the documented policy for these
// states; a fabricated zero would look like a plausible result.
var ErrDivisionByZero = errors.New("division by zero in pool snapshot")

// PairDecimals derives the displayed decimal precision of an LP token from
// its two underlying tokens: the floored average of their decimal counts.
func PairDecimals(d0, d1 uint8) uint8 {
	// Sum in int so decimal counts past 127 cannot wrap the uint8 add.
	return uint8((int(d0) + int(d1)) / 2)
}

// AddPosition returns the LP tokens minted for depositing the two raw token
// amounts into a pool with the given reserves and total supply. All three
// snapshot values are in the descaled decimal domain; the raw desired
// amounts are descaled here with their token decimals.
//
// The deposit is first trimmed to the pool's reserve ratio (excess of either
// token beyond the ratio is not creditable). The first deposit into an empty
// pool mints sqrt(amount0 * amount1) - MinimumLiquidity; every later deposit
// mints min(amount0*supply/reserve0, amount1*supply/reserve1), so a
// lopsided deposit never mints more than its weaker side justifies. The
// result is rounded to whole LP units, exactly once, at the end.
func AddPosition(
	amount0, amount1 *big.Int,
	decimals0, decimals1 int32,
	reserve0, reserve1, totalSupply decimal.Decimal,
) (decimal.Decimal, error) {
	desired0, err := scalemath.RemoveDecimals(amount0, decimals0)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("token0 amount: %w", err)
	}
	desired1, err := scalemath.RemoveDecimals(amount1, decimals1)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("token1 amount: %w", err)
	}

	amount0Used, amount1Used, err := capToReserveRatio(desired0, desired1, reserve0, reserve1)
	if err != nil {
		return decimal.Decimal{}, err
	}

	var lp decimal.Decimal
	if totalSupply.IsZero() {
		root, err := scalemath.Sqrt(amount0Used.Mul(amount1Used))
		if err != nil {
			return decimal.Decimal{}, err
		}
		lp = root.Sub(MinimumLiquidity)
	} else {
		if reserve0.IsZero() || reserve1.IsZero() {
			return decimal.Decimal{}, fmt.Errorf("%w: total supply %s over empty reserves", ErrDivisionByZero, totalSupply)
		}
		mint0 := scalemath.Div(amount0Used.Mul(totalSupply), reserve0)
		mint1 := scalemath.Div(amount1Used.Mul(totalSupply), reserve1)
		lp = decimal.Min(mint0, mint1)
	}

	return lp.Round(0), nil
}

// AddPercentage returns the share of the pool, as a fraction in [0, 1], that
// the position minted by an identical AddPosition call represents. The first
// depositor owns the whole pool.
func AddPercentage(
	amount0, amount1 *big.Int,
	decimals0, decimals1 int32,
	reserve0, reserve1, totalSupply decimal.Decimal,
) (decimal.Decimal, error) {
	if totalSupply.IsZero() {
		return one, nil
	}

	lp, err := AddPosition(amount0, amount1, decimals0, decimals1, reserve0, reserve1, totalSupply)
	if err != nil {
		return decimal.Decimal{}, err
	}

	supplyAfter := lp.Add(totalSupply)
	if supplyAfter.IsZero() {
		return decimal.Decimal{}, fmt.Errorf("%w: minted position cancels the total supply", ErrDivisionByZero)
	}
	return scalemath.Div(lp, supplyAfter), nil
}

// TokenBalances returns the token amounts an LP balance redeems from the
// pool: each reserve times the holder's supply share, floored to whole units
// so that independently redeemed shares can never sum above a reserve. The
// inputs share one domain (all descaled, or all raw) and the balances come
// back in the same domain.
func TokenBalances(reserve0, reserve1, totalSupply, lpBalance decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	if totalSupply.IsZero() {
		return decimal.Decimal{}, decimal.Decimal{}, fmt.Errorf("%w: pool has no outstanding supply", ErrDivisionByZero)
	}

	share := scalemath.Div(lpBalance, totalSupply)
	return reserve0.Mul(share).RoundFloor(0), reserve1.Mul(share).RoundFloor(0), nil
}

// capToReserveRatio trims a two-sided deposit to the pool's current price
// ratio, the way the pair contract refunds the excess side. An empty pool
// accepts the desired amounts as-is; a half-empty pool has no usable ratio
// and fails.
func capToReserveRatio(desired0, desired1, reserve0, reserve1 decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	if reserve0.IsZero() && reserve1.IsZero() {
		return desired0, desired1, nil
	}
	if reserve0.IsZero() || reserve1.IsZero() {
		return decimal.Decimal{}, decimal.Decimal{}, fmt.Errorf("%w: reserves are %s/%s", ErrDivisionByZero, reserve0, reserve1)
	}

	amount1Optimal := scalemath.Div(desired0.Mul(reserve1), reserve0)
	if desired1.GreaterThanOrEqual(amount1Optimal) {
		return desired0, amount1Optimal, nil
	}

	amount0Optimal := scalemath.Div(desired1.Mul(reserve0), reserve1)
	return amount0Optimal, desired1, nil
}
