package liquiditymath

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexquote/dexquote-client-go/protocols/amm/calculator/scalemath"
)

func TestPairDecimals(t *testing.T) {
	// Floored average over the full practical decimals range.
	for d0 := uint8(0); d0 <= 18; d0++ {
		for d1 := uint8(0); d1 <= 18; d1++ {
			expected := (d0 + d1) / 2
			assert.Equal(t, expected, PairDecimals(d0, d1), "PairDecimals(%d, %d)", d0, d1)
		}
	}

	assert.Equal(t, uint8(12), PairDecimals(6, 18), "ties between 6 and 18 decimals")
	assert.Equal(t, uint8(11), PairDecimals(6, 17), "odd sum rounds down")

	// Sums past 255 must not wrap the byte arithmetic.
	assert.Equal(t, uint8(200), PairDecimals(200, 200))
	assert.Equal(t, uint8(255), PairDecimals(255, 255))
}

func TestAddPosition(t *testing.T) {
	testCases := []struct {
		name        string
		amount0     *big.Int
		amount1     *big.Int
		decimals0   int32
		decimals1   int32
		reserve0    string
		reserve1    string
		totalSupply string
		expected    string
		expectedErr error
	}{
		{
			// First deposit below the dust floor mints a negative position:
			// sqrt(2 * 8) - 1000 = -996. Preserved, not clamped.
			name:        "First Deposit Below Dust Floor",
			amount0:     big.NewInt(2_000_000),
			amount1:     big.NewInt(8_000_000),
			decimals0:   6,
			decimals1:   6,
			reserve0:    "0",
			reserve1:    "0",
			totalSupply: "0",
			expected:    "-996",
		},
		{
			name:        "First Deposit Above Dust Floor",
			amount0:     big.NewInt(2_000_000),
			amount1:     big.NewInt(8_000_000),
			decimals0:   0,
			decimals1:   0,
			reserve0:    "0",
			reserve1:    "0",
			totalSupply: "0",
			expected:    "3999000", // sqrt(16e12) - 1000
		},
		{
			name:        "Proportional Deposit",
			amount0:     big.NewInt(10),
			amount1:     big.NewInt(20),
			decimals0:   0,
			decimals1:   0,
			reserve0:    "100",
			reserve1:    "200",
			totalSupply: "50",
			expected:    "5", // min(10*50/100, 20*50/200)
		},
		{
			name:        "Excess Token1 Is Capped",
			amount0:     big.NewInt(10),
			amount1:     big.NewInt(30),
			decimals0:   0,
			decimals1:   0,
			reserve0:    "100",
			reserve1:    "200",
			totalSupply: "50",
			expected:    "5", // token1 capped at the optimal 20
		},
		{
			name:        "Excess Token0 Is Capped",
			amount0:     big.NewInt(20),
			amount1:     big.NewInt(20),
			decimals0:   0,
			decimals1:   0,
			reserve0:    "100",
			reserve1:    "200",
			totalSupply: "50",
			expected:    "5", // token0 capped at the optimal 10
		},
		{
			name:        "Mixed Decimals",
			amount0:     big.NewInt(10_000_000), // 10 at 6 decimals
			amount1:     big.NewInt(20),
			decimals0:   6,
			decimals1:   0,
			reserve0:    "100",
			reserve1:    "200",
			totalSupply: "50",
			expected:    "5",
		},
		{
			name:        "Fractional Mint Rounds To Whole Units",
			amount0:     big.NewInt(1),
			amount1:     big.NewInt(3),
			decimals0:   0,
			decimals1:   0,
			reserve0:    "3",
			reserve1:    "7",
			totalSupply: "10",
			expected:    "3", // min mint is 3.333..., rounded once at the end
		},
		{
			name:        "Zero Deposit Into Live Pool",
			amount0:     big.NewInt(0),
			amount1:     big.NewInt(0),
			decimals0:   0,
			decimals1:   0,
			reserve0:    "100",
			reserve1:    "200",
			totalSupply: "50",
			expected:    "0",
		},
		{
			name:        "Invalid: One Reserve Zero",
			amount0:     big.NewInt(10),
			amount1:     big.NewInt(20),
			decimals0:   0,
			decimals1:   0,
			reserve0:    "100",
			reserve1:    "0",
			totalSupply: "50",
			expectedErr: ErrDivisionByZero,
		},
		{
			name:        "Invalid: Supply Over Empty Reserves",
			amount0:     big.NewInt(10),
			amount1:     big.NewInt(20),
			decimals0:   0,
			decimals1:   0,
			reserve0:    "0",
			reserve1:    "0",
			totalSupply: "50",
			expectedErr: ErrDivisionByZero,
		},
		{
			name:        "Invalid: Nil Amount",
			amount0:     nil,
			amount1:     big.NewInt(20),
			decimals0:   0,
			decimals1:   0,
			reserve0:    "100",
			reserve1:    "200",
			totalSupply: "50",
			expectedErr: scalemath.ErrNilAmount,
		},
		{
			name:        "Invalid: Negative Decimals",
			amount0:     big.NewInt(10),
			amount1:     big.NewInt(20),
			decimals0:   0,
			decimals1:   -6,
			reserve0:    "100",
			reserve1:    "200",
			totalSupply: "50",
			expectedErr: scalemath.ErrInvalidDecimals,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lp, err := AddPosition(
				tc.amount0, tc.amount1,
				tc.decimals0, tc.decimals1,
				decimal.RequireFromString(tc.reserve0),
				decimal.RequireFromString(tc.reserve1),
				decimal.RequireFromString(tc.totalSupply),
			)

			if tc.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.expectedErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expected, lp.String())
			}
		})
	}
}

func TestAddPercentage(t *testing.T) {
	t.Run("first depositor owns the whole pool", func(t *testing.T) {
		share, err := AddPercentage(
			big.NewInt(2_000_000), big.NewInt(8_000_000), 6, 6,
			decimal.Zero, decimal.Zero, decimal.Zero,
		)
		require.NoError(t, err)
		assert.Equal(t, "1", share.String())
	})

	t.Run("later deposit owns lp / (lp + supply)", func(t *testing.T) {
		share, err := AddPercentage(
			big.NewInt(10), big.NewInt(20), 0, 0,
			decimal.RequireFromString("100"),
			decimal.RequireFromString("200"),
			decimal.RequireFromString("50"),
		)
		require.NoError(t, err)
		// lp = 5, so 5/55, truncated at the shared division scale.
		assert.Equal(t, "0.09090909090909090909", share.String())
	})

	t.Run("propagates snapshot errors", func(t *testing.T) {
		_, err := AddPercentage(
			big.NewInt(10), big.NewInt(20), 0, 0,
			decimal.RequireFromString("100"),
			decimal.Zero,
			decimal.RequireFromString("50"),
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDivisionByZero)
	})
}

func TestTokenBalances(t *testing.T) {
	reserve0 := decimal.RequireFromString("100")
	reserve1 := decimal.RequireFromString("200")

	t.Run("full supply redeems the whole pool", func(t *testing.T) {
		supply := decimal.RequireFromString("3")

		balance0, balance1, err := TokenBalances(reserve0, reserve1, supply, supply)
		require.NoError(t, err)
		assert.Equal(t, "100", balance0.String())
		assert.Equal(t, "200", balance1.String())
	})

	t.Run("balances are floored", func(t *testing.T) {
		supply := decimal.RequireFromString("3")
		lp := decimal.RequireFromString("1")

		balance0, balance1, err := TokenBalances(reserve0, reserve1, supply, lp)
		require.NoError(t, err)
		assert.Equal(t, "33", balance0.String(), "33.33... floors down")
		assert.Equal(t, "66", balance1.String(), "66.66... floors down")
	})

	t.Run("zero total supply fails", func(t *testing.T) {
		_, _, err := TokenBalances(reserve0, reserve1, decimal.Zero, decimal.RequireFromString("1"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDivisionByZero)
	})
}

// TestTokenBalancesNeverOverRedeem checks that when every holder redeems its
// floored balance independently, the redeemed totals never exceed the
// reserves, whatever the split of the supply.
func TestTokenBalancesNeverOverRedeem(t *testing.T) {
	reserve0 := decimal.RequireFromString("1000001")
	reserve1 := decimal.RequireFromString("333333")
	supply := decimal.RequireFromString("7")

	splits := [][]int64{
		{1, 1, 1, 1, 1, 1, 1},
		{3, 3, 1},
		{6, 1},
		{2, 2, 2, 1},
	}

	for _, split := range splits {
		total0 := decimal.Zero
		total1 := decimal.Zero
		for _, lp := range split {
			balance0, balance1, err := TokenBalances(reserve0, reserve1, supply, decimal.NewFromInt(lp))
			require.NoError(t, err)
			total0 = total0.Add(balance0)
			total1 = total1.Add(balance1)
		}

		assert.True(t, total0.LessThanOrEqual(reserve0),
			"split %v redeemed %s of reserve0 %s", split, total0, reserve0)
		assert.True(t, total1.LessThanOrEqual(reserve1),
			"split %v redeemed %s of reserve1 %s", split, total1, reserve1)
	}
}
