// Package patcher applies state diffs, producing a new state snapshot from
// an old one without mutating it.
package patcher

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/dexquote/dexquote-client-go/differ"
	"github.com/dexquote/dexquote-client-go/engine"
	amm "github.com/dexquote/dexquote-client-go/protocols/amm"
	tokenregistry "github.com/dexquote/dexquote-client-go/protocols/tokenregistry"
)

// Config carries the dependencies of a StatePatcher.
type Config struct {
	Registry prometheus.Registerer // required for metrics
	Logger   differ.Logger         // required for logging
}

func (c *Config) validate() error {
	if c.Registry == nil {
		return errors.New("config: Registry cannot be nil")
	}
	if c.Logger == nil {
		return errors.New("config: Logger cannot be nil")
	}
	return nil
}

// Metrics holds the instrumentation of the state patcher.
type Metrics struct {
	patchDuration  prometheus.Histogram
	appliedChanges *prometheus.CounterVec
}

// NewMetrics creates and registers the patcher metrics on the given registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		patchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dexquote",
			Subsystem: "patcher",
			Name:      "patch_duration_seconds",
			Help:      "Time spent applying one state diff.",
		}),
		appliedChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dexquote",
			Subsystem: "patcher",
			Name:      "applied_changes_total",
			Help:      "Number of changes applied, by state section.",
		}, []string{"section"}),
	}

	registry.MustRegister(m.patchDuration, m.appliedChanges)
	return m
}

// StatePatcher applies state diffs with metrics and logging.
type StatePatcher struct {
	metrics *Metrics
	logger  differ.Logger
}

// NewStatePatcher constructs a new patcher from a configuration.
func NewStatePatcher(cfg *Config) (*StatePatcher, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &StatePatcher{
		metrics: NewMetrics(cfg.Registry),
		logger:  cfg.Logger,
	}, nil
}

// Patch creates a new State by applying the diff to the old state. The old
// state is never mutated, so callers can keep quoting against it while the
// new one is built.
//
// The diff must have been computed from the old state: its FromTimestamp has
// to match the state's timestamp, the same integrity check a block-based
// system does on block numbers.
func (p *StatePatcher) Patch(old *engine.State, diff *differ.StateDiff) (*engine.State, error) {
	timer := prometheus.NewTimer(p.metrics.patchDuration)
	defer timer.ObserveDuration()

	if old == nil || diff == nil {
		return nil, errors.New("patcher: state and diff must be non-nil")
	}
	if !old.Timestamp.Equal(diff.FromTimestamp) {
		return nil, fmt.Errorf("patcher: diff base mismatch (state=%s, diff=%s)",
			old.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
			diff.FromTimestamp.Format("2006-01-02T15:04:05.000Z07:00"))
	}

	tokens, err := tokenregistry.Patcher(old.Tokens, diff.Tokens)
	if err != nil {
		return nil, fmt.Errorf("patcher: tokens: %w", err)
	}

	pairs, err := amm.Patcher(old.Pairs, diff.Pairs)
	if err != nil {
		return nil, fmt.Errorf("patcher: pairs: %w", err)
	}

	prices := patchPrices(old.Prices, diff.Prices)

	newState := &engine.State{
		Timestamp: diff.ToTimestamp,
		Tokens:    tokens,
		Pairs:     pairs,
		Prices:    prices,
	}
	if err := newState.Validate(); err != nil {
		return nil, fmt.Errorf("patcher: patched state is inconsistent: %w", err)
	}

	p.metrics.appliedChanges.WithLabelValues("tokens").Add(float64(diff.Tokens.Size()))
	p.metrics.appliedChanges.WithLabelValues("pairs").Add(float64(diff.Pairs.Size()))
	p.metrics.appliedChanges.WithLabelValues("prices").Add(float64(diff.Prices.Size()))

	p.logger.Debug("applied state diff",
		"tokenChanges", diff.Tokens.Size(),
		"pairChanges", diff.Pairs.Size(),
		"priceChanges", diff.Prices.Size(),
	)

	return newState, nil
}

func patchPrices(prev map[uint64]decimal.Decimal, diff differ.PriceDiff) map[uint64]decimal.Decimal {
	next := make(map[uint64]decimal.Decimal, len(prev)+len(diff.Updates))
	for id, price := range prev {
		next[id] = price
	}
	for _, id := range diff.Deletions {
		delete(next, id)
	}
	for id, price := range diff.Updates {
		next[id] = price
	}
	return next
}
