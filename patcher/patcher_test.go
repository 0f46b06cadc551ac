package patcher

import (
	"math/big"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexquote/dexquote-client-go/differ"
	"github.com/dexquote/dexquote-client-go/engine"
	amm "github.com/dexquote/dexquote-client-go/protocols/amm"
	tokenregistry "github.com/dexquote/dexquote-client-go/protocols/tokenregistry"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func newTestPatcher(t *testing.T) *StatePatcher {
	t.Helper()
	patcher, err := NewStatePatcher(&Config{
		Registry: prometheus.NewRegistry(),
		Logger:   nopLogger{},
	})
	require.NoError(t, err)
	return patcher
}

func newTestDiffer(t *testing.T) *differ.StateDiffer {
	t.Helper()
	d, err := differ.NewStateDiffer(&differ.Config{
		Registry: prometheus.NewRegistry(),
		Logger:   nopLogger{},
	})
	require.NoError(t, err)
	return d
}

func makeState(ts time.Time) *engine.State {
	return &engine.State{
		Timestamp: ts,
		Tokens: tokenregistry.Registry{
			1: {ID: 1, Symbol: "TKA", Decimals: 6},
			2: {ID: 2, Symbol: "TKB", Decimals: 6},
		},
		Pairs: amm.Registry{
			1: {
				ID: 1, Token0: 1, Token1: 2,
				Reserve0:    big.NewInt(1000),
				Reserve1:    big.NewInt(2000),
				TotalSupply: big.NewInt(100),
				FeeBps:      30,
			},
		},
		Prices: map[uint64]decimal.Decimal{
			1: decimal.RequireFromString("1.0001"),
		},
	}
}

func TestNewStatePatcher(t *testing.T) {
	_, err := NewStatePatcher(&Config{Logger: nopLogger{}})
	assert.Error(t, err)

	_, err = NewStatePatcher(&Config{Registry: prometheus.NewRegistry()})
	assert.Error(t, err)
}

// TestDiffThenPatch checks the core contract: patching the old state with
// the diff against a new state reproduces that new state.
func TestDiffThenPatch(t *testing.T) {
	from := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	to := from.Add(time.Minute)

	old := makeState(from)

	new := makeState(to)
	new.Pairs[1] = amm.Pair{
		ID: 1, Token0: 1, Token1: 2,
		Reserve0:    big.NewInt(1100),
		Reserve1:    big.NewInt(1900),
		TotalSupply: big.NewInt(120),
		FeeBps:      30,
	}
	new.Tokens[3] = tokenregistry.Token{ID: 3, Symbol: "TKC", Decimals: 18}
	new.Prices[1] = decimal.RequireFromString("1.0002")
	new.Prices[3] = decimal.RequireFromString("0.5")

	diff, err := newTestDiffer(t).Diff(old, new)
	require.NoError(t, err)

	patched, err := newTestPatcher(t).Patch(old, diff)
	require.NoError(t, err)

	assert.True(t, patched.Timestamp.Equal(new.Timestamp))
	assert.Equal(t, new.Tokens, patched.Tokens)

	require.Len(t, patched.Pairs, 1)
	assert.Zero(t, new.Pairs[1].Reserve0.Cmp(patched.Pairs[1].Reserve0))
	assert.Zero(t, new.Pairs[1].TotalSupply.Cmp(patched.Pairs[1].TotalSupply))

	require.Len(t, patched.Prices, 2)
	assert.True(t, new.Prices[1].Equal(patched.Prices[1]))
	assert.True(t, new.Prices[3].Equal(patched.Prices[3]))

	// The old state must be untouched.
	assert.Zero(t, big.NewInt(1000).Cmp(old.Pairs[1].Reserve0))
	assert.Equal(t, "1.0001", old.Prices[1].String())
	assert.Len(t, old.Tokens, 2)
}

func TestPatchIntegrity(t *testing.T) {
	from := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	patcher := newTestPatcher(t)

	t.Run("rejects a diff computed from another base", func(t *testing.T) {
		diff := &differ.StateDiff{
			FromTimestamp: from.Add(time.Hour),
			ToTimestamp:   from.Add(2 * time.Hour),
		}

		_, err := patcher.Patch(makeState(from), diff)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "diff base mismatch")
	})

	t.Run("rejects nil inputs", func(t *testing.T) {
		_, err := patcher.Patch(nil, &differ.StateDiff{})
		assert.Error(t, err)

		_, err = patcher.Patch(makeState(from), nil)
		assert.Error(t, err)
	})

	t.Run("rejects diffs that break referential integrity", func(t *testing.T) {
		diff := &differ.StateDiff{
			FromTimestamp: from,
			ToTimestamp:   from.Add(time.Minute),
			Tokens:        tokenregistry.Diff{Deletions: []uint64{2}},
		}

		_, err := patcher.Patch(makeState(from), diff)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "inconsistent")
	})

	t.Run("empty diff advances only the timestamp", func(t *testing.T) {
		to := from.Add(time.Minute)
		diff := &differ.StateDiff{FromTimestamp: from, ToTimestamp: to}

		patched, err := patcher.Patch(makeState(from), diff)
		require.NoError(t, err)
		assert.True(t, patched.Timestamp.Equal(to))
		assert.Len(t, patched.Pairs, 1)
		assert.Len(t, patched.Tokens, 2)
	})
}
