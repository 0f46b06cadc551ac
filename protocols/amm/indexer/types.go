package indexer

import amm "github.com/dexquote/dexquote-client-go/protocols/amm"

// IndexedPairs defines the methods for accessing an indexed pair registry.
type IndexedPairs interface {
	GetByID(id uint64) (amm.Pair, bool)
	GetByTokens(tokenA, tokenB uint64) []amm.Pair
	All() []amm.Pair
}
