// Package engine defines the state envelope an embedding client holds
// between recalculations, and the JSON snapshot schema it is exchanged in.
package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	amm "github.com/dexquote/dexquote-client-go/protocols/amm"
	tokenregistry "github.com/dexquote/dexquote-client-go/protocols/tokenregistry"
)

// State is the full snapshot the calculators quote against: token metadata,
// pair reserves and supplies, and externally quoted prices. The calculators
// treat a State as immutable; the differ and patcher produce new States
// rather than mutating one in place. Price freshness is the caller's
// concern.
type State struct {
	Timestamp time.Time              `json:"timestamp"`
	Tokens    tokenregistry.Registry `json:"tokens"`
	Pairs     amm.Registry           `json:"pairs"`

	// Prices maps token IDs to their quote-currency price.
	Prices map[uint64]decimal.Decimal `json:"prices,omitempty"`
}

// Validate checks the referential integrity of the state: every pair must
// trade two distinct known tokens, and every price must belong to a known
// token.
func (s *State) Validate() error {
	for id, pair := range s.Pairs {
		if pair.ID != id {
			return fmt.Errorf("engine: pair keyed as %d carries ID %d", id, pair.ID)
		}
		if pair.Token0 == pair.Token1 {
			return fmt.Errorf("engine: pair %d trades token %d against itself", id, pair.Token0)
		}
		if _, ok := s.Tokens[pair.Token0]; !ok {
			return fmt.Errorf("engine: pair %d references unknown token %d", id, pair.Token0)
		}
		if _, ok := s.Tokens[pair.Token1]; !ok {
			return fmt.Errorf("engine: pair %d references unknown token %d", id, pair.Token1)
		}
	}

	for id, token := range s.Tokens {
		if token.ID != id {
			return fmt.Errorf("engine: token keyed as %d carries ID %d", id, token.ID)
		}
	}

	for id := range s.Prices {
		if _, ok := s.Tokens[id]; !ok {
			return fmt.Errorf("engine: price for unknown token %d", id)
		}
	}

	return nil
}

// Clone returns a State that shares no mutable memory with the receiver.
func (s *State) Clone() *State {
	tokens := make(tokenregistry.Registry, len(s.Tokens))
	for id, token := range s.Tokens {
		tokens[id] = token
	}

	pairs := make(amm.Registry, len(s.Pairs))
	for id, pair := range s.Pairs {
		pairs[id] = pair.Clone()
	}

	prices := make(map[uint64]decimal.Decimal, len(s.Prices))
	for id, price := range s.Prices {
		prices[id] = price
	}

	return &State{
		Timestamp: s.Timestamp,
		Tokens:    tokens,
		Pairs:     pairs,
		Prices:    prices,
	}
}
