package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	amm "github.com/dexquote/dexquote-client-go/protocols/amm"
	"github.com/dexquote/dexquote-client-go/protocols/amm/calculator/scalemath"
	tokenregistry "github.com/dexquote/dexquote-client-go/protocols/tokenregistry"
)

// ErrInvalidSnapshot is returned when a snapshot document cannot be decoded
// into a consistent State.
var ErrInvalidSnapshot = errors.New("invalid state snapshot")

// Snapshot wire schema. Raw integers travel as decimal strings: reserves
// routinely exceed what a JSON number can carry without loss.
type snapshotToken struct {
	ID       uint64 `json:"id"`
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

type snapshotPair struct {
	ID          uint64 `json:"id"`
	Token0      uint64 `json:"token0"`
	Token1      uint64 `json:"token1"`
	Reserve0    string `json:"reserve0"`
	Reserve1    string `json:"reserve1"`
	TotalSupply string `json:"totalSupply"`
	FeeBps      uint16 `json:"feeBps"`
}

type snapshot struct {
	Timestamp time.Time         `json:"timestamp"`
	Tokens    []snapshotToken   `json:"tokens"`
	Pairs     []snapshotPair    `json:"pairs"`
	Prices    map[uint64]string `json:"prices,omitempty"`
}

// DecodeSnapshot parses a snapshot document into a validated State.
func DecodeSnapshot(data []byte) (*State, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	tokens := make(tokenregistry.Registry, len(snap.Tokens))
	for _, st := range snap.Tokens {
		if _, dup := tokens[st.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate token ID %d", ErrInvalidSnapshot, st.ID)
		}
		if !common.IsHexAddress(st.Address) {
			return nil, fmt.Errorf("%w: token %d has malformed address %q", ErrInvalidSnapshot, st.ID, st.Address)
		}
		tokens[st.ID] = tokenregistry.Token{
			ID:       st.ID,
			Address:  common.HexToAddress(st.Address),
			Name:     st.Name,
			Symbol:   st.Symbol,
			Decimals: st.Decimals,
		}
	}

	pairs := make(amm.Registry, len(snap.Pairs))
	for _, sp := range snap.Pairs {
		if _, dup := pairs[sp.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate pair ID %d", ErrInvalidSnapshot, sp.ID)
		}
		reserve0, err := parseRawAmount(sp.Reserve0)
		if err != nil {
			return nil, fmt.Errorf("%w: pair %d reserve0: %v", ErrInvalidSnapshot, sp.ID, err)
		}
		reserve1, err := parseRawAmount(sp.Reserve1)
		if err != nil {
			return nil, fmt.Errorf("%w: pair %d reserve1: %v", ErrInvalidSnapshot, sp.ID, err)
		}
		totalSupply, err := parseRawAmount(sp.TotalSupply)
		if err != nil {
			return nil, fmt.Errorf("%w: pair %d totalSupply: %v", ErrInvalidSnapshot, sp.ID, err)
		}
		pairs[sp.ID] = amm.Pair{
			ID:          sp.ID,
			Token0:      sp.Token0,
			Token1:      sp.Token1,
			Reserve0:    reserve0,
			Reserve1:    reserve1,
			TotalSupply: totalSupply,
			FeeBps:      sp.FeeBps,
		}
	}

	state := &State{
		Timestamp: snap.Timestamp,
		Tokens:    tokens,
		Pairs:     pairs,
	}

	if len(snap.Prices) > 0 {
		state.Prices = make(map[uint64]decimal.Decimal, len(snap.Prices))
	}
	for id, raw := range snap.Prices {
		price, err := scalemath.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: price for token %d: %v", ErrInvalidSnapshot, id, err)
		}
		if price.Sign() < 0 {
			return nil, fmt.Errorf("%w: price for token %d is negative", ErrInvalidSnapshot, id)
		}
		state.Prices[id] = price
	}

	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return state, nil
}

// EncodeSnapshot serializes the state into the snapshot schema, with tokens
// and pairs sorted by ID so identical states encode identically.
func (s *State) EncodeSnapshot() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	snap := snapshot{
		Timestamp: s.Timestamp,
		Tokens:    make([]snapshotToken, 0, len(s.Tokens)),
		Pairs:     make([]snapshotPair, 0, len(s.Pairs)),
	}

	for _, token := range s.Tokens {
		snap.Tokens = append(snap.Tokens, snapshotToken{
			ID:       token.ID,
			Address:  token.Address.Hex(),
			Name:     token.Name,
			Symbol:   token.Symbol,
			Decimals: token.Decimals,
		})
	}
	sort.Slice(snap.Tokens, func(i, j int) bool { return snap.Tokens[i].ID < snap.Tokens[j].ID })

	for _, pair := range s.Pairs {
		if pair.Reserve0 == nil || pair.Reserve1 == nil || pair.TotalSupply == nil {
			return nil, fmt.Errorf("engine: pair %d has nil reserves", pair.ID)
		}
		snap.Pairs = append(snap.Pairs, snapshotPair{
			ID:          pair.ID,
			Token0:      pair.Token0,
			Token1:      pair.Token1,
			Reserve0:    pair.Reserve0.String(),
			Reserve1:    pair.Reserve1.String(),
			TotalSupply: pair.TotalSupply.String(),
			FeeBps:      pair.FeeBps,
		})
	}
	sort.Slice(snap.Pairs, func(i, j int) bool { return snap.Pairs[i].ID < snap.Pairs[j].ID })

	if len(s.Prices) > 0 {
		snap.Prices = make(map[uint64]string, len(s.Prices))
		for id, price := range s.Prices {
			snap.Prices[id] = price.String()
		}
	}

	return json.MarshalIndent(snap, "", "  ")
}

func parseRawAmount(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%q is not a base-10 integer", s)
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("%q is negative", s)
	}
	return n, nil
}
