package aggregate

import (
	"encoding/json"
	"fmt"
	"math/big"

	"liquidityCore/internal/model"
)

// Accumulator holds aggregate values for a pool window.
type Accumulator struct {
	PoolAddress string
	CoinA       string
	CoinB       string
	WindowStart uint64
	WindowEnd   uint64
	SwapCount   uint64
	SupplyCount uint64
	RemoveCount uint64
	VolumeAIn   *big.Int
	VolumeAOut  *big.Int
	VolumeBIn   *big.Int
	VolumeBOut  *big.Int
	LastSeq     uint64
}

func NewAccumulator(record model.TypedEventRecord, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		PoolAddress: record.Address,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		VolumeAIn:   big.NewInt(0),
		VolumeAOut:  big.NewInt(0),
		VolumeBIn:   big.NewInt(0),
		VolumeBOut:  big.NewInt(0),
		LastSeq:     record.Sequence,
	}
}

// AddEvent folds one decoded event into the window and applies its reserve
// movement to reserves.
func (a *Accumulator) AddEvent(record model.TypedEventRecord, reserves *Reserves) error {
	switch record.EventName {
	case model.EventPoolCreated:
		var created model.PoolCreatedData
		if err := json.Unmarshal(record.Decoded, &created); err != nil {
			return fmt.Errorf("decode pool created: %w", err)
		}
		a.setCoins(created.CoinA, created.CoinB)
	case model.EventLiquiditySupplied:
		var supplied model.LiquiditySuppliedData
		if err := json.Unmarshal(record.Decoded, &supplied); err != nil {
			return fmt.Errorf("decode liquidity supplied: %w", err)
		}
		a.setCoins(supplied.CoinA, supplied.CoinB)
		reserves.add(supplied.AmountA, supplied.AmountB)
		a.SupplyCount++
	case model.EventLiquidityRemoved:
		var removed model.LiquidityRemovedData
		if err := json.Unmarshal(record.Decoded, &removed); err != nil {
			return fmt.Errorf("decode liquidity removed: %w", err)
		}
		a.setCoins(removed.CoinA, removed.CoinB)
		reserves.sub(removed.AmountA, removed.AmountB)
		a.RemoveCount++
	case model.EventSwapped:
		var swapped model.SwappedData
		if err := json.Unmarshal(record.Decoded, &swapped); err != nil {
			return fmt.Errorf("decode swapped: %w", err)
		}
		a.setCoins(swapped.CoinA, swapped.CoinB)
		reserves.add(swapped.AmountAIn, swapped.AmountBIn)
		reserves.sub(swapped.AmountAOut, swapped.AmountBOut)
		addUint(a.VolumeAIn, swapped.AmountAIn)
		addUint(a.VolumeAOut, swapped.AmountAOut)
		addUint(a.VolumeBIn, swapped.AmountBIn)
		addUint(a.VolumeBOut, swapped.AmountBOut)
		a.SwapCount++
	default:
		return nil
	}

	if record.Sequence > a.LastSeq {
		a.LastSeq = record.Sequence
	}
	return nil
}

func (a *Accumulator) setCoins(coinA, coinB string) {
	if a.CoinA == "" {
		a.CoinA = coinA
		a.CoinB = coinB
	}
}

// Reserves is a pool's reserve pair rebuilt by replaying its events.
type Reserves struct {
	A *big.Int
	B *big.Int
}

func newReserves() *Reserves {
	return &Reserves{A: big.NewInt(0), B: big.NewInt(0)}
}

func (r *Reserves) add(a, b uint64) {
	addUint(r.A, a)
	addUint(r.B, b)
}

func (r *Reserves) sub(a, b uint64) {
	r.A.Sub(r.A, new(big.Int).SetUint64(a))
	r.B.Sub(r.B, new(big.Int).SetUint64(b))
}

func addUint(target *big.Int, value uint64) {
	target.Add(target, new(big.Int).SetUint64(value))
}
