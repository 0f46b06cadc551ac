// Package valuemath expresses token amounts in a quote currency so that
// amounts of different tokens become comparable.
package valuemath

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/dexquote/dexquote-client-go/protocols/amm/calculator/scalemath"
)

// ValueOf returns amount * price. The price is the externally quoted value of
// one whole token; freshness of the quote is the caller's concern.
func ValueOf(amount, price decimal.Decimal) decimal.Decimal {
	return amount.Mul(price)
}

// ValueOfRaw values a raw integer amount by descaling it first. This is the
// form a front end uses on balances read straight from a ledger.
func ValueOfRaw(amount *big.Int, decimals int32, price decimal.Decimal) (decimal.Decimal, error) {
	value, err := scalemath.RemoveDecimals(amount, decimals)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return ValueOf(value, price), nil
}
