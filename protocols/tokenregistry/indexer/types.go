package indexer

import (
	tokenregistry "github.com/dexquote/dexquote-client-go/protocols/tokenregistry"
	"github.com/ethereum/go-ethereum/common"
)

// IndexedTokens defines the methods for accessing an indexed token registry.
type IndexedTokens interface {
	GetByID(id uint64) (tokenregistry.Token, bool)
	GetByAddress(address common.Address) (tokenregistry.Token, bool)
	GetBySymbol(symbol string) (tokenregistry.Token, bool)
	All() []tokenregistry.Token
}
