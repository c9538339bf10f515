package amm

import (
	"go.uber.org/zap"

	"liquidityCore/internal/asset"
	"liquidityCore/internal/model"
)

// Swap pays inA and inB into the pool for their pair and takes outA and outB
// out of it. Both legs may flow at once. The outputs come back in the same
// order as the inputs.
func (r *Registry) Swap(inA, inB *asset.Balance, outA, outB uint64) (*asset.Balance, *asset.Balance, error) {
	gotA, gotB, err := r.swap(inA, inB, outA, outB)
	r.observer.ObserveOperation(OpSwap, err)
	return gotA, gotB, err
}

func (r *Registry) swap(inA, inB *asset.Balance, outA, outB uint64) (*asset.Balance, *asset.Balance, error) {
	pool, order, err := r.lookupOrdered(inA.Type(), inB.Type())
	if err != nil {
		return nil, nil, err
	}
	if order == Larger {
		inA, inB = inB, inA
		outA, outB = outB, outA
	}

	pool.mu.Lock()
	defer pool.mu.Unlock()

	legs := SwapLegs{AIn: inA.Value(), AOut: outA, BIn: inB.Value(), BOut: outB}
	if _, _, err := ApplySwap(pool.reserveA.Value(), pool.reserveB.Value(), legs); err != nil {
		return nil, nil, err
	}

	// ApplySwap checked reserve+in and reserve+in-out for both sides, so the
	// merges and extracts below cannot fail.
	if err := pool.reserveA.Merge(inA); err != nil {
		return nil, nil, err
	}
	if err := pool.reserveB.Merge(inB); err != nil {
		return nil, nil, err
	}
	gotA, err := pool.reserveA.Extract(legs.AOut)
	if err != nil {
		return nil, nil, err
	}
	gotB, err := pool.reserveB.Extract(legs.BOut)
	if err != nil {
		return nil, nil, err
	}

	r.emitter.Emit(model.Event{
		Name: model.EventSwapped,
		Pool: pool.address.Hex(),
		Payload: model.SwappedData{
			CoinA:      pool.pair.A.String(),
			CoinB:      pool.pair.B.String(),
			AmountAIn:  legs.AIn,
			AmountAOut: legs.AOut,
			AmountBIn:  legs.BIn,
			AmountBOut: legs.BOut,
			Timestamp:  r.timestamp(),
		},
	})
	r.logger.Debug("swapped",
		zap.String("pool", pool.address.Hex()),
		zap.Uint64("a_in", legs.AIn),
		zap.Uint64("a_out", legs.AOut),
		zap.Uint64("b_in", legs.BIn),
		zap.Uint64("b_out", legs.BOut),
	)

	if order == Larger {
		return gotB, gotA, nil
	}
	return gotA, gotB, nil
}
