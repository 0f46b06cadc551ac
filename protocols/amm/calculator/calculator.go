// Package calculator binds a pair snapshot to the leaf math packages and
// exposes direction-aware quoting for swaps, deposits, and redemptions.
// A Calculator is immutable once constructed; any number of goroutines may
// share one.
package calculator

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	amm "github.com/dexquote/dexquote-client-go/protocols/amm"
	"github.com/dexquote/dexquote-client-go/protocols/amm/calculator/liquiditymath"
	"github.com/dexquote/dexquote-client-go/protocols/amm/calculator/scalemath"
	"github.com/dexquote/dexquote-client-go/protocols/amm/calculator/swapmath"
	"github.com/dexquote/dexquote-client-go/protocols/amm/calculator/valuemath"
	tokenregistry "github.com/dexquote/dexquote-client-go/protocols/tokenregistry"
)

var (
	// ErrTokenMismatch is returned when the given tokens do not match the pair's tokens.
	ErrTokenMismatch = errors.New("token mismatch")
	// ErrNilReserves is returned when a pair snapshot is missing a reserve or supply value.
	ErrNilReserves = errors.New("pair snapshot has nil reserves")
)

// SwapQuote is the full pre-trade picture for one swap.
type SwapQuote struct {
	AmountIn        *big.Int
	AmountOut       *big.Int
	MinimumReceived *big.Int
	// ExecutionPrice is the realized output per input unit, fee included.
	ExecutionPrice decimal.Decimal
	// PriceImpact is the percentage of quoted value lost (negative) or
	// gained against the supplied oracle prices; zero when it cannot be
	// computed.
	PriceImpact decimal.Decimal
}

// DepositQuote describes the LP position minted for a two-sided deposit.
type DepositQuote struct {
	// LPTokens is the whole-unit LP mint in the pair's decimal domain. It
	// is negative for a first deposit below the pool's dust floor.
	LPTokens decimal.Decimal
	// ShareOfPool is the fraction of the post-mint supply the position
	// represents, in [0, 1].
	ShareOfPool decimal.Decimal
}

// RedeemQuote describes the raw token balances an LP balance redeems.
type RedeemQuote struct {
	Amount0 *big.Int
	Amount1 *big.Int
}

// Calculator quotes against one immutable pair snapshot. Reserves are
// descaled once at construction with their token decimals, and the total
// supply with the pair's derived decimals, so every quote runs in one
// consistent decimal domain.
type Calculator struct {
	pair   amm.Pair
	token0 tokenregistry.Token
	token1 tokenregistry.Token

	reserve0    decimal.Decimal
	reserve1    decimal.Decimal
	totalSupply decimal.Decimal
	fee         decimal.Decimal
}

// NewCalculator validates that the two tokens are the pair's tokens, in
// order, and builds a calculator over the snapshot.
func NewCalculator(pair amm.Pair, token0, token1 tokenregistry.Token) (*Calculator, error) {
	if pair.Token0 != token0.ID || pair.Token1 != token1.ID {
		return nil, fmt.Errorf("%w: pair %d trades %d/%d, got %d/%d",
			ErrTokenMismatch, pair.ID, pair.Token0, pair.Token1, token0.ID, token1.ID)
	}
	if pair.Reserve0 == nil || pair.Reserve1 == nil || pair.TotalSupply == nil {
		return nil, fmt.Errorf("%w: pair %d", ErrNilReserves, pair.ID)
	}

	reserve0, err := scalemath.RemoveDecimals(pair.Reserve0, int32(token0.Decimals))
	if err != nil {
		return nil, fmt.Errorf("reserve0: %w", err)
	}
	reserve1, err := scalemath.RemoveDecimals(pair.Reserve1, int32(token1.Decimals))
	if err != nil {
		return nil, fmt.Errorf("reserve1: %w", err)
	}

	pairDecimals := liquiditymath.PairDecimals(token0.Decimals, token1.Decimals)
	totalSupply, err := scalemath.RemoveDecimals(pair.TotalSupply, int32(pairDecimals))
	if err != nil {
		return nil, fmt.Errorf("total supply: %w", err)
	}

	return &Calculator{
		pair:        pair.Clone(),
		token0:      token0,
		token1:      token1,
		reserve0:    reserve0,
		reserve1:    reserve1,
		totalSupply: totalSupply,
		fee:         swapmath.FeeFromBps(pair.FeeBps),
	}, nil
}

// Pair returns a copy of the bound pair snapshot.
func (c *Calculator) Pair() amm.Pair {
	return c.pair.Clone()
}

// PairDecimals returns the decimal precision of the pair's LP token.
func (c *Calculator) PairDecimals() uint8 {
	return liquiditymath.PairDecimals(c.token0.Decimals, c.token1.Decimals)
}

// orient resolves a swap direction from the input token ID.
func (c *Calculator) orient(tokenIn uint64) (reserveIn, reserveOut decimal.Decimal, decimalsIn, decimalsOut int32, err error) {
	switch tokenIn {
	case c.token0.ID:
		return c.reserve0, c.reserve1, int32(c.token0.Decimals), int32(c.token1.Decimals), nil
	case c.token1.ID:
		return c.reserve1, c.reserve0, int32(c.token1.Decimals), int32(c.token0.Decimals), nil
	default:
		return decimal.Decimal{}, decimal.Decimal{}, 0, 0,
			fmt.Errorf("%w: pair %d does not trade token %d", ErrTokenMismatch, c.pair.ID, tokenIn)
	}
}

// AmountOut quotes the raw output for swapping amountIn of tokenIn.
func (c *Calculator) AmountOut(amountIn *big.Int, tokenIn uint64) (*big.Int, error) {
	reserveIn, reserveOut, decimalsIn, decimalsOut, err := c.orient(tokenIn)
	if err != nil {
		return nil, err
	}
	return swapmath.AmountOut(amountIn, decimalsIn, decimalsOut, reserveIn, reserveOut, c.fee)
}

// AmountIn quotes the raw input of the counter token needed to receive
// amountOut of tokenOut.
func (c *Calculator) AmountIn(amountOut *big.Int, tokenOut uint64) (*big.Int, error) {
	// The input side is the opposite of the requested output side.
	var tokenIn uint64
	switch tokenOut {
	case c.token0.ID:
		tokenIn = c.token1.ID
	case c.token1.ID:
		tokenIn = c.token0.ID
	default:
		return nil, fmt.Errorf("%w: pair %d does not trade token %d", ErrTokenMismatch, c.pair.ID, tokenOut)
	}

	reserveIn, reserveOut, decimalsIn, decimalsOut, err := c.orient(tokenIn)
	if err != nil {
		return nil, err
	}
	return swapmath.AmountIn(amountOut, decimalsIn, decimalsOut, reserveIn, reserveOut, c.fee)
}

// SpotPrice returns the marginal pre-fee price of one unit of tokenIn,
// denominated in the counter token.
func (c *Calculator) SpotPrice(tokenIn uint64) (decimal.Decimal, error) {
	reserveIn, reserveOut, _, _, err := c.orient(tokenIn)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return swapmath.SpotPrice(reserveIn, reserveOut)
}

// SimulateSwap quotes a swap end to end: output, slippage-protected minimum,
// execution price, and oracle-valued price impact.
func (c *Calculator) SimulateSwap(
	amountIn *big.Int,
	tokenIn uint64,
	priceIn, priceOut decimal.Decimal,
	slippageBps uint16,
) (*SwapQuote, error) {
	reserveIn, reserveOut, decimalsIn, decimalsOut, err := c.orient(tokenIn)
	if err != nil {
		return nil, err
	}

	amountOut, err := swapmath.AmountOut(amountIn, decimalsIn, decimalsOut, reserveIn, reserveOut, c.fee)
	if err != nil {
		return nil, err
	}

	minReceived, err := swapmath.MinimumReceived(amountOut, slippageBps)
	if err != nil {
		return nil, err
	}

	in, err := scalemath.RemoveDecimals(amountIn, decimalsIn)
	if err != nil {
		return nil, err
	}
	out, err := scalemath.RemoveDecimals(amountOut, decimalsOut)
	if err != nil {
		return nil, err
	}

	var executionPrice decimal.Decimal
	if !in.IsZero() {
		executionPrice = scalemath.Div(out, in)
	}

	return &SwapQuote{
		AmountIn:        new(big.Int).Set(amountIn),
		AmountOut:       amountOut,
		MinimumReceived: minReceived,
		ExecutionPrice:  executionPrice,
		PriceImpact:     swapmath.PriceImpact(in, out, priceIn, priceOut),
	}, nil
}

// QuoteDeposit returns the LP mint and pool share for depositing the two raw
// token amounts, after trimming the deposit to the pool's reserve ratio.
func (c *Calculator) QuoteDeposit(amount0, amount1 *big.Int) (*DepositQuote, error) {
	lp, err := liquiditymath.AddPosition(
		amount0, amount1,
		int32(c.token0.Decimals), int32(c.token1.Decimals),
		c.reserve0, c.reserve1, c.totalSupply,
	)
	if err != nil {
		return nil, err
	}

	share, err := liquiditymath.AddPercentage(
		amount0, amount1,
		int32(c.token0.Decimals), int32(c.token1.Decimals),
		c.reserve0, c.reserve1, c.totalSupply,
	)
	if err != nil {
		return nil, err
	}

	return &DepositQuote{LPTokens: lp, ShareOfPool: share}, nil
}

// QuoteRedeem returns the raw token balances redeemable for an LP balance.
// The supply share is scale-free, so the computation runs in the raw domain
// and the floored balances are exact to the smallest unit of each token.
func (c *Calculator) QuoteRedeem(lpBalance *big.Int) (*RedeemQuote, error) {
	if lpBalance == nil {
		return nil, scalemath.ErrNilAmount
	}
	if lpBalance.Sign() < 0 {
		return nil, scalemath.ErrInvalidAmount
	}

	balance0, balance1, err := liquiditymath.TokenBalances(
		decimal.NewFromBigInt(c.pair.Reserve0, 0),
		decimal.NewFromBigInt(c.pair.Reserve1, 0),
		decimal.NewFromBigInt(c.pair.TotalSupply, 0),
		decimal.NewFromBigInt(lpBalance, 0),
	)
	if err != nil {
		return nil, err
	}

	return &RedeemQuote{Amount0: balance0.BigInt(), Amount1: balance1.BigInt()}, nil
}

// ValueOf expresses a raw amount of one of the pair's tokens in the quote
// currency of the supplied price.
func (c *Calculator) ValueOf(amount *big.Int, tokenID uint64, price decimal.Decimal) (decimal.Decimal, error) {
	switch tokenID {
	case c.token0.ID:
		return valuemath.ValueOfRaw(amount, int32(c.token0.Decimals), price)
	case c.token1.ID:
		return valuemath.ValueOfRaw(amount, int32(c.token1.Decimals), price)
	default:
		return decimal.Decimal{}, fmt.Errorf("%w: pair %d does not trade token %d", ErrTokenMismatch, c.pair.ID, tokenID)
	}
}
