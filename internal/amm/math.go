package amm

import (
	"math"

	"github.com/holiman/uint256"

	"liquidityCore/internal/asset"
)

// MinimumLiquidity is locked forever on the first deposit into a pool.
const MinimumLiquidity uint64 = 1000

var minimumLiquidity = uint256.NewInt(MinimumLiquidity)

// SupplyQuote is the outcome of a deposit before any state changes.
type SupplyQuote struct {
	// Shares go to the depositor.
	Shares uint64
	// Locked shares go to the pool's permanent sink (first deposit only).
	Locked uint64
}

// QuoteSupply computes the shares minted for depositing amountA and amountB
// into reserves (reserveA, reserveB) with totalShares outstanding.
func QuoteSupply(reserveA, reserveB uint64, totalShares *uint256.Int, amountA, amountB uint64) (SupplyQuote, error) {
	a := uint256.NewInt(amountA)
	b := uint256.NewInt(amountB)

	if totalShares.IsZero() {
		initial := sqrt(new(uint256.Int).Mul(a, b))
		if !initial.Gt(minimumLiquidity) {
			return SupplyQuote{}, ErrInsufficientInitialLiquidity
		}
		// sqrt of a product of two uint64 always fits in uint64.
		return SupplyQuote{
			Shares: initial.Uint64() - MinimumLiquidity,
			Locked: MinimumLiquidity,
		}, nil
	}

	if reserveA == 0 || reserveB == 0 {
		return SupplyQuote{}, ErrZeroLiquidityMinted
	}
	sharesA := new(uint256.Int).Mul(a, totalShares)
	sharesA.Div(sharesA, uint256.NewInt(reserveA))
	sharesB := new(uint256.Int).Mul(b, totalShares)
	sharesB.Div(sharesB, uint256.NewInt(reserveB))

	shares := sharesA
	if sharesB.Lt(sharesA) {
		shares = sharesB
	}
	if shares.IsZero() {
		return SupplyQuote{}, ErrZeroLiquidityMinted
	}
	if !shares.IsUint64() {
		return SupplyQuote{}, asset.ErrAmountOverflow
	}
	return SupplyQuote{Shares: shares.Uint64()}, nil
}

// QuoteRemove computes the reserves returned for redeeming shares.
func QuoteRemove(reserveA, reserveB uint64, totalShares *uint256.Int, shares uint64) (uint64, uint64, error) {
	if !totalShares.Gt(minimumLiquidity) {
		return 0, 0, ErrBelowMinimumLiquidity
	}
	s := uint256.NewInt(shares)
	if s.Gt(totalShares) {
		return 0, 0, asset.ErrInsufficientBalance
	}

	outA := new(uint256.Int).Mul(s, uint256.NewInt(reserveA))
	outA.Div(outA, totalShares)
	outB := new(uint256.Int).Mul(s, uint256.NewInt(reserveB))
	outB.Div(outB, totalShares)

	if outA.IsZero() || outB.IsZero() {
		return 0, 0, ErrZeroRedemption
	}
	// shares <= totalShares, so each output is bounded by its reserve.
	return outA.Uint64(), outB.Uint64(), nil
}

// SwapLegs are the four amounts of a swap, in canonical pair order.
type SwapLegs struct {
	AIn  uint64
	AOut uint64
	BIn  uint64
	BOut uint64
}

// ApplySwap returns the reserves after the swap, or an error if the swap is
// invalid. The product of the new reserves must not be below the product of
// the old ones; both are compared at full width.
func ApplySwap(reserveA, reserveB uint64, legs SwapLegs) (uint64, uint64, error) {
	if legs.AIn == 0 && legs.BIn == 0 {
		return 0, 0, ErrNoAmountProvided
	}

	newA, err := moveReserve(reserveA, legs.AIn, legs.AOut)
	if err != nil {
		return 0, 0, err
	}
	newB, err := moveReserve(reserveB, legs.BIn, legs.BOut)
	if err != nil {
		return 0, 0, err
	}

	kBefore := new(uint256.Int).Mul(uint256.NewInt(reserveA), uint256.NewInt(reserveB))
	kAfter := new(uint256.Int).Mul(uint256.NewInt(newA), uint256.NewInt(newB))
	if kAfter.Lt(kBefore) {
		return 0, 0, ErrInvariantViolated
	}
	return newA, newB, nil
}

// moveReserve adds in before taking out, so the intermediate reserve+in must
// fit in uint64 as well as the result.
func moveReserve(reserve, in, out uint64) (uint64, error) {
	if in > math.MaxUint64-reserve {
		return 0, asset.ErrAmountOverflow
	}
	gross := reserve + in
	if out > gross {
		return 0, asset.ErrInsufficientBalance
	}
	return gross - out, nil
}

// sqrt is the Babylonian integer square root, rounding down.
func sqrt(y *uint256.Int) *uint256.Int {
	z := new(uint256.Int)
	if y.GtUint64(3) {
		z.Set(y)
		x := new(uint256.Int).Rsh(y, 1)
		x.AddUint64(x, 1)
		for x.Lt(z) {
			z.Set(x)
			q := new(uint256.Int).Div(y, x)
			x.Add(q, x)
			x.Rsh(x, 1)
		}
		return z
	}
	if !y.IsZero() {
		z.SetOne()
	}
	return z
}
