package differ

import (
	"time"

	"github.com/shopspring/decimal"

	amm "github.com/dexquote/dexquote-client-go/protocols/amm"
	tokenregistry "github.com/dexquote/dexquote-client-go/protocols/tokenregistry"
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// PriceDiff describes the changes that turn one price map into another.
// Prices have no identity fields, so there is no addition/update split: an
// entry in Updates is upserted whether or not the old state priced it.
type PriceDiff struct {
	Updates   map[uint64]decimal.Decimal `json:"updates,omitempty"`
	Deletions []uint64                   `json:"deletions,omitempty"`
}

// IsEmpty returns true if the diff contains no changes.
func (d PriceDiff) IsEmpty() bool {
	return len(d.Updates) == 0 && len(d.Deletions) == 0
}

// Size returns the total number of changes in the diff.
func (d PriceDiff) Size() int {
	return len(d.Updates) + len(d.Deletions)
}

// StateDiff is a summary of the changes between two state snapshots, from
// the snapshot taken at FromTimestamp to the one at ToTimestamp.
type StateDiff struct {
	FromTimestamp time.Time          `json:"fromTimestamp"`
	ToTimestamp   time.Time          `json:"toTimestamp"`
	Tokens        tokenregistry.Diff `json:"tokens"`
	Pairs         amm.Diff           `json:"pairs"`
	Prices        PriceDiff          `json:"prices"`
}

// IsEmpty returns true if no section of the diff contains changes.
func (d *StateDiff) IsEmpty() bool {
	return d.Tokens.IsEmpty() && d.Pairs.IsEmpty() && d.Prices.IsEmpty()
}
