package tokenregistry

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestToken(id uint64, symbol string, decimals uint8) Token {
	return Token{
		ID:       id,
		Address:  common.BigToAddress(common.Big1),
		Name:     symbol + " Token",
		Symbol:   symbol,
		Decimals: decimals,
	}
}

func TestDiffer(t *testing.T) {
	weth := newTestToken(1, "WETH", 18)
	usdc := newTestToken(2, "USDC", 6)
	dai := newTestToken(3, "DAI", 18)

	t.Run("identifies additions", func(t *testing.T) {
		old := Registry{1: weth}
		new := Registry{1: weth, 2: usdc}

		diff := Differ(old, new)

		require.Len(t, diff.Additions, 1)
		assert.Equal(t, usdc.ID, diff.Additions[0].ID)
		assert.Empty(t, diff.Updates)
		assert.Empty(t, diff.Deletions)
	})

	t.Run("identifies deletions", func(t *testing.T) {
		old := Registry{1: weth, 2: usdc}
		new := Registry{1: weth}

		diff := Differ(old, new)

		assert.Empty(t, diff.Additions)
		assert.Empty(t, diff.Updates)
		require.Len(t, diff.Deletions, 1)
		assert.Equal(t, usdc.ID, diff.Deletions[0])
	})

	t.Run("identifies metadata corrections", func(t *testing.T) {
		usdcFixed := usdc
		usdcFixed.Decimals = 8

		diff := Differ(Registry{2: usdc}, Registry{2: usdcFixed})

		require.Len(t, diff.Updates, 1)
		assert.Equal(t, uint8(8), diff.Updates[0].Decimals)
	})

	t.Run("identifies symbol renames", func(t *testing.T) {
		daiRenamed := dai
		daiRenamed.Symbol = "SDAI"

		diff := Differ(Registry{3: dai}, Registry{3: daiRenamed})

		require.Len(t, diff.Updates, 1)
		assert.Equal(t, "SDAI", diff.Updates[0].Symbol)
	})

	t.Run("handles a mix of changes", func(t *testing.T) {
		wethUpdated := weth
		wethUpdated.Name = "Wrapped Ether"
		wbtc := newTestToken(4, "WBTC", 8)

		old := Registry{1: weth, 2: usdc, 3: dai}
		new := Registry{1: wethUpdated, 2: usdc, 4: wbtc}

		diff := Differ(old, new)

		require.Len(t, diff.Additions, 1)
		assert.Equal(t, wbtc.ID, diff.Additions[0].ID)
		require.Len(t, diff.Updates, 1)
		assert.Equal(t, weth.ID, diff.Updates[0].ID)
		require.Len(t, diff.Deletions, 1)
		assert.Equal(t, dai.ID, diff.Deletions[0])
	})

	t.Run("unchanged registries produce an empty diff", func(t *testing.T) {
		old := Registry{1: weth, 2: usdc}
		new := Registry{1: weth, 2: usdc}

		assert.True(t, Differ(old, new).IsEmpty())
	})

	t.Run("handles empty registries", func(t *testing.T) {
		assert.True(t, Differ(Registry{}, Registry{}).IsEmpty())
	})
}
