package differ

import (
	"math/big"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexquote/dexquote-client-go/engine"
	amm "github.com/dexquote/dexquote-client-go/protocols/amm"
	tokenregistry "github.com/dexquote/dexquote-client-go/protocols/tokenregistry"
)

// nopLogger keeps test output clean.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func newTestDiffer(t *testing.T) *StateDiffer {
	t.Helper()
	differ, err := NewStateDiffer(&Config{
		Registry: prometheus.NewRegistry(),
		Logger:   nopLogger{},
	})
	require.NoError(t, err)
	return differ
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
			2: decimal.RequireFromString("1810.55"),
		},
	}
}

func TestNewStateDiffer(t *testing.T) {
	_, err := NewStateDiffer(&Config{Logger: nopLogger{}})
	assert.Error(t, err, "a nil metrics registry must be rejected")

	_, err = NewStateDiffer(&Config{Registry: prometheus.NewRegistry()})
	assert.Error(t, err, "a nil logger must be rejected")
}

func TestStateDiffer(t *testing.T) {
	from := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	to := from.Add(time.Minute)

	t.Run("identical states produce an empty diff", func(t *testing.T) {
		differ := newTestDiffer(t)

		diff, err := differ.Diff(makeState(from), makeState(to))
		require.NoError(t, err)

		assert.True(t, diff.IsEmpty())
		assert.Equal(t, from, diff.FromTimestamp)
		assert.Equal(t, to, diff.ToTimestamp)
	})

	t.Run("captures changes in every section", func(t *testing.T) {
		differ := newTestDiffer(t)

		old := makeState(from)
		new := makeState(to)
		new.Pairs[1] = amm.Pair{
			ID: 1, Token0: 1, Token1: 2,
			Reserve0:    big.NewInt(1100),
			Reserve1:    big.NewInt(1900),
			TotalSupply: big.NewInt(100),
			FeeBps:      30,
		}
		new.Tokens[3] = tokenregistry.Token{ID: 3, Symbol: "TKC", Decimals: 18}
		new.Prices[2] = decimal.RequireFromString("1811")

		diff, err := differ.Diff(old, new)
		require.NoError(t, err)

		assert.Len(t, diff.Pairs.Updates, 1)
		assert.Len(t, diff.Tokens.Additions, 1)
		require.Len(t, diff.Prices.Updates, 1)
		assert.Equal(t, "1811", diff.Prices.Updates[2].String())
	})

	t.Run("equal prices in different notations do not diff", func(t *testing.T) {
		differ := newTestDiffer(t)

		old := makeState(from)
		new := makeState(to)
		old.Prices[1] = decimal.RequireFromString("1.10")
		new.Prices[1] = decimal.RequireFromString("1.1")

		diff, err := differ.Diff(old, new)
		require.NoError(t, err)
		assert.True(t, diff.Prices.IsEmpty())
	})

	t.Run("captures price deletions", func(t *testing.T) {
		differ := newTestDiffer(t)

		old := makeState(from)
		new := makeState(to)
		delete(new.Prices, 2)

		diff, err := differ.Diff(old, new)
		require.NoError(t, err)
		require.Len(t, diff.Prices.Deletions, 1)
		assert.Equal(t, uint64(2), diff.Prices.Deletions[0])
	})

	t.Run("rejects nil states", func(t *testing.T) {
		differ := newTestDiffer(t)

		_, err := differ.Diff(nil, makeState(to))
		assert.Error(t, err)
	})

	t.Run("rejects inconsistent states", func(t *testing.T) {
		differ := newTestDiffer(t)

		broken := makeState(from)
		broken.Pairs[1] = amm.Pair{ID: 1, Token0: 1, Token1: 9}

		_, err := differ.Diff(broken, makeState(to))
		assert.Error(t, err)
	})
}
