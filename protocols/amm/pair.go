// Package amm models constant-product trading pairs and maintains their
// registry between state snapshots.
package amm

import "math/big"

// Pair is the snapshot of one constant-product pool: its token identities,
// pooled reserves, outstanding LP supply, and fee. Reserves and supply are
// raw integers in each token's smallest unit.
type Pair struct {
	ID          uint64   `json:"id"`
	Token0      uint64   `json:"token0"`
	Token1      uint64   `json:"token1"`
	Reserve0    *big.Int `json:"reserve0"`
	Reserve1    *big.Int `json:"reserve1"`
	TotalSupply *big.Int `json:"totalSupply"`
	FeeBps      uint16   `json:"feeBps"` // i.e 30 for 0.3%
}

// Registry holds the pair snapshots of one state, keyed by pair ID.
type Registry map[uint64]Pair

// Clone returns a Pair with its own memory for the big.Int fields, so the
// copy never shares mutable state with the original snapshot.
func (p Pair) Clone() Pair {
	clone := p
	if p.Reserve0 != nil {
		clone.Reserve0 = new(big.Int).Set(p.Reserve0)
	}
	if p.Reserve1 != nil {
		clone.Reserve1 = new(big.Int).Set(p.Reserve1)
	}
	if p.TotalSupply != nil {
		clone.TotalSupply = new(big.Int).Set(p.TotalSupply)
	}
	return clone
}

// HasToken reports whether the pair trades the given token.
func (p Pair) HasToken(tokenID uint64) bool {
	return tokenID == p.Token0 || tokenID == p.Token1
}

func bigIntEqual(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
}
