// Package differ computes the changes between two state snapshots so an
// embedding client can refresh its held state without rebuilding it.
package differ

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/dexquote/dexquote-client-go/engine"
	amm "github.com/dexquote/dexquote-client-go/protocols/amm"
	tokenregistry "github.com/dexquote/dexquote-client-go/protocols/tokenregistry"
)

// Config carries the dependencies of a StateDiffer.
type Config struct {
	Registry prometheus.Registerer // required for metrics
	Logger   Logger                // required for logging
}

// validate checks if the configuration is valid, ensuring required dependencies are present.
func (c *Config) validate() error {
	if c.Registry == nil {
		return errors.New("config: Registry cannot be nil")
	}
	if c.Logger == nil {
		return errors.New("config: Logger cannot be nil")
	}
	return nil
}

// StateDiffer computes state-level diffs with metrics and logging.
type StateDiffer struct {
	metrics *Metrics
	logger  Logger
}

// NewStateDiffer constructs a new differ from a configuration, returning an
// error if the config is invalid.
func NewStateDiffer(cfg *Config) (*StateDiffer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &StateDiffer{
		metrics: NewMetrics(cfg.Registry),
		logger:  cfg.Logger,
	}, nil
}

// Diff computes the changes that turn the old state into the new one. Both
// states must be internally consistent; a diff of inconsistent states would
// poison every state patched from it.
func (d *StateDiffer) Diff(old, new *engine.State) (*StateDiff, error) {
	timer := prometheus.NewTimer(d.metrics.diffDuration)
	defer timer.ObserveDuration()

	if old == nil || new == nil {
		return nil, errors.New("differ: old and new states must be non-nil")
	}
	if err := old.Validate(); err != nil {
		return nil, fmt.Errorf("differ: old state: %w", err)
	}
	if err := new.Validate(); err != nil {
		return nil, fmt.Errorf("differ: new state: %w", err)
	}

	diff := &StateDiff{
		FromTimestamp: old.Timestamp,
		ToTimestamp:   new.Timestamp,
		Tokens:        tokenregistry.Differ(old.Tokens, new.Tokens),
		Pairs:         amm.Differ(old.Pairs, new.Pairs),
		Prices:        diffPrices(old.Prices, new.Prices),
	}

	d.metrics.changes.WithLabelValues("tokens").Add(float64(diff.Tokens.Size()))
	d.metrics.changes.WithLabelValues("pairs").Add(float64(diff.Pairs.Size()))
	d.metrics.changes.WithLabelValues("prices").Add(float64(diff.Prices.Size()))

	d.logger.Debug("computed state diff",
		"tokenChanges", diff.Tokens.Size(),
		"pairChanges", diff.Pairs.Size(),
		"priceChanges", diff.Prices.Size(),
	)

	return diff, nil
}

// diffPrices compares two price maps. A price counts as updated only when
// the values differ numerically; 1.10 and 1.1 are the same price.
func diffPrices(old, new map[uint64]decimal.Decimal) PriceDiff {
	var updates map[uint64]decimal.Decimal
	var deletions []uint64

	for id, newPrice := range new {
		oldPrice, exists := old[id]
		if exists && oldPrice.Equal(newPrice) {
			continue
		}
		if updates == nil {
			updates = make(map[uint64]decimal.Decimal)
		}
		updates[id] = newPrice
	}

	for id := range old {
		if _, exists := new[id]; !exists {
			deletions = append(deletions, id)
		}
	}

	return PriceDiff{Updates: updates, Deletions: deletions}
}
