package asset

import (
	"fmt"
	"math"
)

// Balance is an owned amount of a single asset type. Balances are only
// created by a Ledger (or Zero) and move value by draining their source.
type Balance struct {
	typ   TypeID
	value uint64
}

// Zero returns an empty balance of type t.
func Zero(t TypeID) *Balance {
	return &Balance{typ: t}
}

func (b *Balance) Type() TypeID {
	return b.typ
}

func (b *Balance) Value() uint64 {
	if b == nil {
		return 0
	}
	return b.value
}

// Merge moves the whole of src into b. src is left empty.
func (b *Balance) Merge(src *Balance) error {
	if src == nil {
		return nil
	}
	if src.typ != b.typ {
		return fmt.Errorf("%w: merge %s into %s", ErrTypeMismatch, src.typ, b.typ)
	}
	if src.value > math.MaxUint64-b.value {
		return ErrAmountOverflow
	}
	b.value += src.value
	src.value = 0
	return nil
}

// Extract splits amount off b into a new balance.
func (b *Balance) Extract(amount uint64) (*Balance, error) {
	if amount > b.value {
		return nil, fmt.Errorf("%w: %s has %d, need %d", ErrInsufficientBalance, b.typ, b.value, amount)
	}
	b.value -= amount
	return &Balance{typ: b.typ, value: amount}, nil
}
