package amm

import (
	"math"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"liquidityCore/internal/asset"
)

func TestSqrt(t *testing.T) {
	cases := map[uint64]uint64{
		0:         0,
		1:         1,
		3:         1,
		4:         2,
		15:        3,
		16:        4,
		100000000: 10000,
		99999999:  9999,
	}
	for in, want := range cases {
		require.Equal(t, want, sqrt(uint256.NewInt(in)).Uint64(), "sqrt(%d)", in)
	}

	largest := new(uint256.Int).Mul(uint256.NewInt(math.MaxUint64), uint256.NewInt(math.MaxUint64))
	require.Equal(t, uint64(math.MaxUint64), sqrt(largest).Uint64())
}

func TestQuoteSupplyFirstDeposit(t *testing.T) {
	quote, err := QuoteSupply(0, 0, new(uint256.Int), 10000, 10000)
	require.NoError(t, err)
	require.Equal(t, uint64(9000), quote.Shares)
	require.Equal(t, MinimumLiquidity, quote.Locked)

	_, err = QuoteSupply(0, 0, new(uint256.Int), 10, 10)
	require.ErrorIs(t, err, ErrInsufficientInitialLiquidity)

	// sqrt(1000*1000) is exactly the minimum and is rejected.
	_, err = QuoteSupply(0, 0, new(uint256.Int), 1000, 1000)
	require.ErrorIs(t, err, ErrInsufficientInitialLiquidity)

	quote, err = QuoteSupply(0, 0, new(uint256.Int), 1001, 1001)
	require.NoError(t, err)
	require.Equal(t, uint64(1), quote.Shares)

	_, err = QuoteSupply(0, 0, new(uint256.Int), 5000000, 0)
	require.ErrorIs(t, err, ErrInsufficientInitialLiquidity)
}

func TestQuoteSupplyFirstDepositLargeAmounts(t *testing.T) {
	quote, err := QuoteSupply(0, 0, new(uint256.Int), math.MaxUint64, math.MaxUint64)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64)-MinimumLiquidity, quote.Shares)
}

func TestQuoteSupplyLaterDepositTakesMinimum(t *testing.T) {
	total := uint256.NewInt(10000)

	quote, err := QuoteSupply(10000, 10000, total, 5000, 5000)
	require.NoError(t, err)
	require.Equal(t, uint64(5000), quote.Shares)
	require.Zero(t, quote.Locked)

	// Excess on one side is donated to the pool.
	quote, err = QuoteSupply(10000, 10000, total, 5000, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(100), quote.Shares)

	_, err = QuoteSupply(10000, 10000, total, 0, 5000)
	require.ErrorIs(t, err, ErrZeroLiquidityMinted)

	_, err = QuoteSupply(1000000, 1000000, uint256.NewInt(1001), 999, 999)
	require.ErrorIs(t, err, ErrZeroLiquidityMinted)
}

func TestQuoteSupplyMultipliesBeforeDividing(t *testing.T) {
	// 3 * 10 / 7 = 4; dividing first would give 0.
	quote, err := QuoteSupply(7, 7, uint256.NewInt(10), 3, 3)
	require.NoError(t, err)
	require.Equal(t, uint64(4), quote.Shares)
}

func TestQuoteRemove(t *testing.T) {
	outA, outB, err := QuoteRemove(10000, 10000, uint256.NewInt(10000), 9000)
	require.NoError(t, err)
	require.Equal(t, uint64(9000), outA)
	require.Equal(t, uint64(9000), outB)

	outA, outB, err = QuoteRemove(30000, 7, uint256.NewInt(3000), 2000)
	require.NoError(t, err)
	require.Equal(t, uint64(20000), outA)
	require.Equal(t, uint64(4), outB)

	_, _, err = QuoteRemove(10000, 10000, uint256.NewInt(MinimumLiquidity), 1)
	require.ErrorIs(t, err, ErrBelowMinimumLiquidity)

	_, _, err = QuoteRemove(10000, 10000, new(uint256.Int), 1)
	require.ErrorIs(t, err, ErrBelowMinimumLiquidity)

	_, _, err = QuoteRemove(10000, 10000, uint256.NewInt(10000), 0)
	require.ErrorIs(t, err, ErrZeroRedemption)

	_, _, err = QuoteRemove(10000, 3, uint256.NewInt(10000), 100)
	require.ErrorIs(t, err, ErrZeroRedemption)

	_, _, err = QuoteRemove(10000, 10000, uint256.NewInt(10000), 10001)
	require.ErrorIs(t, err, asset.ErrInsufficientBalance)
}

func TestApplySwap(t *testing.T) {
	cases := []struct {
		name     string
		reserveA uint64
		reserveB uint64
		legs     SwapLegs
		wantA    uint64
		wantB    uint64
		wantErr  error
	}{
		{
			name:     "a for b",
			reserveA: 10000, reserveB: 10000,
			legs:  SwapLegs{AIn: 1000, BOut: 900},
			wantA: 11000, wantB: 9100,
		},
		{
			name:     "b for a",
			reserveA: 10000, reserveB: 10000,
			legs:  SwapLegs{BIn: 2500, AOut: 2000},
			wantA: 8000, wantB: 12500,
		},
		{
			name:     "exact invariant",
			reserveA: 100, reserveB: 100,
			legs:  SwapLegs{AIn: 100, BOut: 50},
			wantA: 200, wantB: 50,
		},
		{
			name:     "donation",
			reserveA: 100, reserveB: 100,
			legs:  SwapLegs{AIn: 5},
			wantA: 105, wantB: 100,
		},
		{
			name:     "both legs at once",
			reserveA: 10000, reserveB: 10000,
			legs:  SwapLegs{AIn: 1000, AOut: 10, BIn: 20, BOut: 900},
			wantA: 10990, wantB: 9120,
		},
		{
			name:     "no input",
			reserveA: 10000, reserveB: 10000,
			legs:    SwapLegs{AOut: 1},
			wantErr: ErrNoAmountProvided,
		},
		{
			name:     "takes too much",
			reserveA: 10000, reserveB: 10000,
			legs:    SwapLegs{AIn: 1000, BOut: 1000},
			wantErr: ErrInvariantViolated,
		},
		{
			name:     "out exceeds reserve",
			reserveA: 10000, reserveB: 10000,
			legs:    SwapLegs{AIn: 1000, BOut: 10001},
			wantErr: asset.ErrInsufficientBalance,
		},
		{
			name:     "reserve overflow",
			reserveA: math.MaxUint64, reserveB: 10,
			legs:    SwapLegs{AIn: 1},
			wantErr: asset.ErrAmountOverflow,
		},
		{
			name:     "input overflows before output is taken",
			reserveA: 1_000_000, reserveB: math.MaxUint64 - 10,
			legs:    SwapLegs{AIn: 100, BIn: 100, BOut: 200},
			wantErr: asset.ErrAmountOverflow,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotA, gotB, err := ApplySwap(tc.reserveA, tc.reserveB, tc.legs)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantA, gotA)
			require.Equal(t, tc.wantB, gotB)
		})
	}
}

// The invariant compares the new reserves against the old ones once. A check
// that re-applied the deltas to the already updated reserves would compare
// 3000*200 against 2000*600 here and reject a swap that keeps k above its
// starting value.
func TestApplySwapUsesStartingProduct(t *testing.T) {
	gotA, gotB, err := ApplySwap(1000, 1000, SwapLegs{AIn: 1000, BOut: 400})
	require.NoError(t, err)
	require.Equal(t, uint64(2000), gotA)
	require.Equal(t, uint64(600), gotB)
}

func TestApplySwapComparesFullWidth(t *testing.T) {
	// k = 2^64 wraps to zero at 64 bits, which would let any swap through.
	const r = uint64(1) << 32
	_, _, err := ApplySwap(r, r, SwapLegs{AIn: 1, BOut: r / 2})
	require.ErrorIs(t, err, ErrInvariantViolated)
}
