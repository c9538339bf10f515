package amm

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"liquidityCore/internal/asset"
	"liquidityCore/internal/model"
)

// Supply deposits coinA and coinB (in either pair order) and returns the
// minted share tokens. Both inputs are drained on success and untouched on
// failure.
func (r *Registry) Supply(coinA, coinB *asset.Balance) (*asset.Balance, error) {
	shares, err := r.supply(coinA, coinB)
	r.observer.ObserveOperation(OpSupply, err)
	return shares, err
}

func (r *Registry) supply(coinA, coinB *asset.Balance) (*asset.Balance, error) {
	pool, order, err := r.lookupOrdered(coinA.Type(), coinB.Type())
	if err != nil {
		return nil, err
	}
	if order == Larger {
		coinA, coinB = coinB, coinA
	}

	pool.mu.Lock()
	defer pool.mu.Unlock()

	totalShares, ok := r.ledger.TotalSupply(pool.share)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUninitializedAsset, pool.share)
	}
	amountA, amountB := coinA.Value(), coinB.Value()
	reserveA, reserveB := pool.reserveA.Value(), pool.reserveB.Value()

	quote, err := QuoteSupply(reserveA, reserveB, totalShares, amountA, amountB)
	if err != nil {
		return nil, err
	}
	if amountA > math.MaxUint64-reserveA || amountB > math.MaxUint64-reserveB {
		return nil, asset.ErrAmountOverflow
	}

	if quote.Locked > 0 {
		locked, err := pool.mintShares(r.ledger, quote.Locked)
		if err != nil {
			return nil, err
		}
		if err := pool.locked.Merge(locked); err != nil {
			return nil, err
		}
	}
	shares, err := pool.mintShares(r.ledger, quote.Shares)
	if err != nil {
		return nil, err
	}
	if err := pool.reserveA.Merge(coinA); err != nil {
		return nil, err
	}
	if err := pool.reserveB.Merge(coinB); err != nil {
		return nil, err
	}

	r.emitter.Emit(model.Event{
		Name: model.EventLiquiditySupplied,
		Pool: pool.address.Hex(),
		Payload: model.LiquiditySuppliedData{
			CoinA:        pool.pair.A.String(),
			CoinB:        pool.pair.B.String(),
			AmountA:      amountA,
			AmountB:      amountB,
			SharesMinted: quote.Shares,
			Timestamp:    r.timestamp(),
		},
	})
	r.logger.Debug("liquidity supplied",
		zap.String("pool", pool.address.Hex()),
		zap.Uint64("amount_a", amountA),
		zap.Uint64("amount_b", amountB),
		zap.Uint64("shares", quote.Shares),
		zap.Uint64("locked", quote.Locked),
	)
	return shares, nil
}

// Remove redeems shares of the (a, b) pool and returns the reserves owed, in
// the caller's (a, b) order.
func (r *Registry) Remove(a, b asset.TypeID, shares *asset.Balance) (*asset.Balance, *asset.Balance, error) {
	outA, outB, err := r.remove(a, b, shares)
	r.observer.ObserveOperation(OpRemove, err)
	return outA, outB, err
}

func (r *Registry) remove(a, b asset.TypeID, shares *asset.Balance) (*asset.Balance, *asset.Balance, error) {
	pool, order, err := r.lookupOrdered(a, b)
	if err != nil {
		return nil, nil, err
	}
	if shares.Type() != pool.share {
		return nil, nil, fmt.Errorf("%w: got %s", ErrWrongShareToken, shares.Type())
	}

	pool.mu.Lock()
	defer pool.mu.Unlock()

	totalShares, ok := r.ledger.TotalSupply(pool.share)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUninitializedAsset, pool.share)
	}
	burned := shares.Value()
	amountA, amountB, err := QuoteRemove(pool.reserveA.Value(), pool.reserveB.Value(), totalShares, burned)
	if err != nil {
		return nil, nil, err
	}

	outA, err := pool.reserveA.Extract(amountA)
	if err != nil {
		return nil, nil, err
	}
	outB, err := pool.reserveB.Extract(amountB)
	if err != nil {
		_ = pool.reserveA.Merge(outA)
		return nil, nil, err
	}
	if err := pool.burnShares(r.ledger, shares); err != nil {
		_ = pool.reserveA.Merge(outA)
		_ = pool.reserveB.Merge(outB)
		return nil, nil, err
	}

	r.emitter.Emit(model.Event{
		Name: model.EventLiquidityRemoved,
		Pool: pool.address.Hex(),
		Payload: model.LiquidityRemovedData{
			CoinA:        pool.pair.A.String(),
			CoinB:        pool.pair.B.String(),
			SharesBurned: burned,
			AmountA:      amountA,
			AmountB:      amountB,
			Timestamp:    r.timestamp(),
		},
	})
	r.logger.Debug("liquidity removed",
		zap.String("pool", pool.address.Hex()),
		zap.Uint64("shares", burned),
		zap.Uint64("amount_a", amountA),
		zap.Uint64("amount_b", amountB),
	)

	if order == Larger {
		return outB, outA, nil
	}
	return outA, outB, nil
}

// PreviewSupply reports the shares Supply would mint for amountA of a and
// amountB of b against the pool's current state.
func (r *Registry) PreviewSupply(a, b asset.TypeID, amountA, amountB uint64) (uint64, error) {
	pool, order, err := r.lookupOrdered(a, b)
	if err != nil {
		return 0, err
	}
	if order == Larger {
		amountA, amountB = amountB, amountA
	}

	pool.mu.Lock()
	defer pool.mu.Unlock()

	totalShares, ok := r.ledger.TotalSupply(pool.share)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUninitializedAsset, pool.share)
	}
	quote, err := QuoteSupply(pool.reserveA.Value(), pool.reserveB.Value(), totalShares, amountA, amountB)
	if err != nil {
		return 0, err
	}
	return quote.Shares, nil
}

// PreviewRemove reports the reserves Remove would return for shares, in the
// caller's (a, b) order.
func (r *Registry) PreviewRemove(a, b asset.TypeID, shares uint64) (uint64, uint64, error) {
	pool, order, err := r.lookupOrdered(a, b)
	if err != nil {
		return 0, 0, err
	}

	pool.mu.Lock()
	defer pool.mu.Unlock()

	totalShares, ok := r.ledger.TotalSupply(pool.share)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s", ErrUninitializedAsset, pool.share)
	}
	amountA, amountB, err := QuoteRemove(pool.reserveA.Value(), pool.reserveB.Value(), totalShares, shares)
	if err != nil {
		return 0, 0, err
	}
	if order == Larger {
		return amountB, amountA, nil
	}
	return amountA, amountB, nil
}
