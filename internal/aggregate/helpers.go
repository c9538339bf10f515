package aggregate

import (
	"math/big"
	"strings"
)

const ratioScale = 18

// closingPrice is reserveB per unit of reserveA, or nil for an empty pool.
func closingPrice(reserveA, reserveB *big.Int) *string {
	if reserveA == nil || reserveB == nil || reserveA.Sign() <= 0 || reserveB.Sign() < 0 {
		return nil
	}
	rat := new(big.Rat).SetFrac(reserveB, reserveA)
	val := rat.FloatString(ratioScale)
	return &val
}

func windowStart(ts uint64, windowSec uint64) uint64 {
	return ts - (ts % windowSec)
}

func poolKey(address string) string {
	return strings.ToLower(address)
}
