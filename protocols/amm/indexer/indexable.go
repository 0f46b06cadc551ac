package indexer

import (
	"sort"

	amm "github.com/dexquote/dexquote-client-go/protocols/amm"
)

// Indexer builds indexed views over pair registries.
type Indexer struct{}

// New creates a new Indexer.
func New() *Indexer {
	return &Indexer{}
}

// Index creates an indexed pair system from a registry snapshot.
func (i *Indexer) Index(pairs amm.Registry) IndexedPairs {
	return NewIndexablePairSystem(pairs)
}

// tokenKey is an order-independent key for a token pair: lookups for
// (A, B) and (B, A) hit the same bucket.
type tokenKey struct {
	lo, hi uint64
}

func newTokenKey(tokenA, tokenB uint64) tokenKey {
	if tokenA > tokenB {
		tokenA, tokenB = tokenB, tokenA
	}
	return tokenKey{lo: tokenA, hi: tokenB}
}

// IndexablePairSystem provides fast, indexed access to pair data.
type IndexablePairSystem struct {
	byID     map[uint64]amm.Pair
	byTokens map[tokenKey][]amm.Pair
	all      []amm.Pair
}

// NewIndexablePairSystem creates a new indexed pair system from a registry.
func NewIndexablePairSystem(pairs amm.Registry) *IndexablePairSystem {
	byID := make(map[uint64]amm.Pair, len(pairs))
	byTokens := make(map[tokenKey][]amm.Pair, len(pairs))
	all := make([]amm.Pair, 0, len(pairs))

	for _, p := range pairs {
		byID[p.ID] = p
		key := newTokenKey(p.Token0, p.Token1)
		byTokens[key] = append(byTokens[key], p)
		all = append(all, p)
	}

	// Registry iteration order is random; keep All deterministic.
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	for _, bucket := range byTokens {
		sort.Slice(bucket, func(i, j int) bool { return bucket[i].ID < bucket[j].ID })
	}

	return &IndexablePairSystem{
		byID:     byID,
		byTokens: byTokens,
		all:      all,
	}
}

// GetByID retrieves a pair by its unique ID.
func (ips *IndexablePairSystem) GetByID(id uint64) (amm.Pair, bool) {
	p, ok := ips.byID[id]
	return p, ok
}

// GetByTokens retrieves every pair trading the given two tokens, in either
// order, sorted by pair ID.
func (ips *IndexablePairSystem) GetByTokens(tokenA, tokenB uint64) []amm.Pair {
	bucket := ips.byTokens[newTokenKey(tokenA, tokenB)]
	bucketCopy := make([]amm.Pair, len(bucket))
	copy(bucketCopy, bucket)
	return bucketCopy
}

// All returns a defensive copy of the slice of all pairs, sorted by ID.
func (ips *IndexablePairSystem) All() []amm.Pair {
	allCopy := make([]amm.Pair, len(ips.all))
	copy(allCopy, ips.all)
	return allCopy
}
