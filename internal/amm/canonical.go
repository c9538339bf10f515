package amm

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"liquidityCore/internal/asset"
)

// Order reports how two asset types compare under the canonical order.
type Order int

const (
	Smaller Order = iota - 1
	Equal
	Larger
)

// Compare orders asset types by type name, then module name, then defining
// address, each compared bytewise.
func Compare(a, b asset.TypeID) Order {
	if c := bytes.Compare([]byte(a.Name), []byte(b.Name)); c != 0 {
		return Order(c)
	}
	if c := bytes.Compare([]byte(a.Module), []byte(b.Module)); c != 0 {
		return Order(c)
	}
	return Order(bytes.Compare(a.Address[:], b.Address[:]))
}

// Canonicalize checks that a and b form a valid pair and reports whether
// (a, b) is already in canonical order.
func Canonicalize(ledger CoinInfo, a, b asset.TypeID) (Order, error) {
	if !ledger.IsInitialized(a) {
		return Equal, fmt.Errorf("%w: %s", ErrUninitializedAsset, a)
	}
	if !ledger.IsInitialized(b) {
		return Equal, fmt.Errorf("%w: %s", ErrUninitializedAsset, b)
	}
	order := Compare(a, b)
	if order == Equal {
		return Equal, fmt.Errorf("%w: %s twice", ErrInvalidPair, a)
	}
	return order, nil
}

// Pair is a canonical ordered pair: Compare(A, B) == Smaller.
type Pair struct {
	A asset.TypeID
	B asset.TypeID
}

// NewPair orders a and b canonically. The returned Order is Larger when the
// inputs were swapped.
func NewPair(a, b asset.TypeID) (Pair, Order, error) {
	switch Compare(a, b) {
	case Smaller:
		return Pair{A: a, B: b}, Smaller, nil
	case Larger:
		return Pair{A: b, B: a}, Larger, nil
	default:
		return Pair{}, Equal, fmt.Errorf("%w: %s twice", ErrInvalidPair, a)
	}
}

func (p Pair) String() string {
	return p.A.String() + "/" + p.B.String()
}

// Address derives the pool address from the canonical pair.
func (p Pair) Address() common.Address {
	hash := crypto.Keccak256([]byte(p.A.String()), []byte{0}, []byte(p.B.String()))
	return common.BytesToAddress(hash[12:])
}
