package indexer

import (
	"sort"

	tokenregistry "github.com/dexquote/dexquote-client-go/protocols/tokenregistry"
	"github.com/ethereum/go-ethereum/common"
)

// Indexer builds indexed views over token registries.
type Indexer struct{}

// New creates a new Indexer.
func New() *Indexer {
	return &Indexer{}
}

// Index creates an indexed token system from a registry snapshot.
func (i *Indexer) Index(tokens tokenregistry.Registry) IndexedTokens {
	return NewIndexableTokenSystem(tokens)
}

// IndexableTokenSystem provides fast, indexed access to token metadata.
type IndexableTokenSystem struct {
	byID      map[uint64]tokenregistry.Token
	byAddress map[common.Address]tokenregistry.Token
	bySymbol  map[string]tokenregistry.Token
	all       []tokenregistry.Token
}

// NewIndexableTokenSystem creates a new indexed token system from a registry.
// When two tokens share a symbol, the one with the lowest ID wins the symbol
// lookup; ID and address lookups are always unambiguous.
func NewIndexableTokenSystem(tokens tokenregistry.Registry) *IndexableTokenSystem {
	byID := make(map[uint64]tokenregistry.Token, len(tokens))
	byAddress := make(map[common.Address]tokenregistry.Token, len(tokens))
	bySymbol := make(map[string]tokenregistry.Token, len(tokens))
	all := make([]tokenregistry.Token, 0, len(tokens))

	for _, t := range tokens {
		byID[t.ID] = t
		byAddress[t.Address] = t
		all = append(all, t)
	}

	// Registry iteration order is random; keep All and the symbol
	// tie-break deterministic.
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	for _, t := range all {
		if _, taken := bySymbol[t.Symbol]; !taken {
			bySymbol[t.Symbol] = t
		}
	}

	return &IndexableTokenSystem{
		byID:      byID,
		byAddress: byAddress,
		bySymbol:  bySymbol,
		all:       all,
	}
}

// GetByID retrieves a token by its unique ID.
func (its *IndexableTokenSystem) GetByID(id uint64) (tokenregistry.Token, bool) {
	t, ok := its.byID[id]
	return t, ok
}

// GetByAddress retrieves a token by its contract address.
func (its *IndexableTokenSystem) GetByAddress(address common.Address) (tokenregistry.Token, bool) {
	t, ok := its.byAddress[address]
	return t, ok
}

// GetBySymbol retrieves a token by its symbol.
func (its *IndexableTokenSystem) GetBySymbol(symbol string) (tokenregistry.Token, bool) {
	t, ok := its.bySymbol[symbol]
	return t, ok
}

// All returns a defensive copy of the slice of all tokens, sorted by ID.
func (its *IndexableTokenSystem) All() []tokenregistry.Token {
	allCopy := make([]tokenregistry.Token, len(its.all))
	copy(allCopy, its.all)
	return allCopy
}
