// Package tokenregistry models the token metadata an external registry
// supplies and maintains it between state snapshots.
package tokenregistry

import "github.com/ethereum/go-ethereum/common"

// Token is a safe, structured representation of a token's metadata for
// external use. Decimals is the power-of-ten scale factor converting the
// token's raw ledger units into human-denominated units.
type Token struct {
	ID       uint64         `json:"id"`
	Address  common.Address `json:"address"`
	Name     string         `json:"name"`
	Symbol   string         `json:"symbol"`
	Decimals uint8          `json:"decimals"`
}

// Registry holds the token metadata of one state, keyed by token ID.
type Registry map[uint64]Token
