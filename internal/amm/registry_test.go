package amm

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"liquidityCore/internal/asset"
	"liquidityCore/internal/model"
)

func TestCreatePool(t *testing.T) {
	f := newFixture(t)

	pool, err := f.registry.CreatePool(usdc, dai)
	require.NoError(t, err)
	require.Equal(t, Pair{A: dai, B: usdc}, pool.Pair())

	share := pool.ShareToken()
	require.Equal(t, registryOwner, share.Address)
	require.Equal(t, "pool", share.Module)
	require.True(t, f.ledger.IsInitialized(share))

	name, err := f.ledger.Name(share)
	require.NoError(t, err)
	require.Equal(t, `"DAI"-"USDC" LP token`, name)
	symbol, err := f.ledger.Symbol(share)
	require.NoError(t, err)
	require.Equal(t, "DAI-USDC", symbol)
	decimals, err := f.ledger.Decimals(share)
	require.NoError(t, err)
	require.Equal(t, uint8(8), decimals)

	reserveA, reserveB := pool.Reserves()
	require.Zero(t, reserveA)
	require.Zero(t, reserveB)

	event := f.events.last()
	require.Equal(t, model.EventPoolCreated, event.Name)
	require.Equal(t, pool.Address().Hex(), event.Pool)
	require.Equal(t, model.PoolCreatedData{
		CoinA:      dai.String(),
		CoinB:      usdc.String(),
		ShareToken: share.String(),
		Timestamp:  uint64(fixedNow.Unix()),
	}, event.Payload)
}

func TestCreatePoolRejectsDuplicatesInEitherOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.registry.CreatePool(dai, usdc)
	require.NoError(t, err)

	_, err = f.registry.CreatePool(dai, usdc)
	require.ErrorIs(t, err, ErrPoolAlreadyExists)
	_, err = f.registry.CreatePool(usdc, dai)
	require.ErrorIs(t, err, ErrPoolAlreadyExists)

	require.Len(t, f.registry.Pools(), 1)
}

func TestCreatePoolRejectsInvalidPairs(t *testing.T) {
	f := newFixture(t)

	_, err := f.registry.CreatePool(dai, dai)
	require.ErrorIs(t, err, ErrInvalidPair)

	_, err = f.registry.CreatePool(dai, unknown)
	require.ErrorIs(t, err, ErrUninitializedAsset)

	require.Empty(t, f.registry.Pools())
	require.Empty(t, f.events.events)
}

func TestLookup(t *testing.T) {
	f := newFixture(t)

	_, err := f.registry.Lookup(dai, usdc)
	require.ErrorIs(t, err, ErrPoolNotFound)

	created, err := f.registry.CreatePool(dai, usdc)
	require.NoError(t, err)

	got, err := f.registry.Lookup(usdc, dai)
	require.NoError(t, err)
	require.Same(t, created, got)

	_, err = f.registry.Lookup(dai, weth)
	require.ErrorIs(t, err, ErrPoolNotFound)
}

func TestPoolsAreSorted(t *testing.T) {
	f := newFixture(t)

	_, err := f.registry.CreatePool(weth, usdc)
	require.NoError(t, err)
	_, err = f.registry.CreatePool(weth, dai)
	require.NoError(t, err)
	_, err = f.registry.CreatePool(usdc, dai)
	require.NoError(t, err)

	infos := f.registry.Pools()
	require.Len(t, infos, 3)
	for i := 1; i < len(infos); i++ {
		require.Less(t, infos[i-1].Pair.String(), infos[i].Pair.String())
	}
	for _, info := range infos {
		require.Equal(t, Smaller, Compare(info.Pair.A, info.Pair.B))
	}
}

func TestShareTokenSymbol(t *testing.T) {
	require.Equal(t, "DAI-USDC", ShareTokenSymbol("DAI", "USDC"))
	require.Equal(t, "WBTC-WETH", ShareTokenSymbol("WBTC", "WETH"))
	require.Equal(t, "ABCD-XY", ShareTokenSymbol("ABCDEFG", "XY"))
	require.Equal(t, "ÄÖÜß-Y", ShareTokenSymbol("ÄÖÜßX", "Y"))
	require.Equal(t, "-X", ShareTokenSymbol("", "X"))
}

func TestConcurrentCreateSamePair(t *testing.T) {
	f := newFixture(t)

	const workers = 32
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		dupes   int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := dai, usdc
			if i%2 == 1 {
				a, b = b, a
			}
			_, err := f.registry.CreatePool(a, b)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, ErrPoolAlreadyExists):
				dupes++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, created)
	require.Equal(t, workers-1, dupes)
	require.Len(t, f.registry.Pools(), 1)
}

func TestRestoreRejectsBadRecords(t *testing.T) {
	f := newFixture(t)
	pair := Pair{A: dai, B: usdc}

	err := f.registry.Restore([]model.PoolRecord{{
		CoinA:      usdc.String(),
		CoinB:      dai.String(),
		ShareToken: ShareTokenType(registryOwner, pair).String(),
	}})
	require.ErrorIs(t, err, ErrInvalidPair)

	err = f.registry.Restore([]model.PoolRecord{{
		CoinA:      dai.String(),
		CoinB:      usdc.String(),
		ShareToken: ShareTokenType(registryOwner, Pair{A: dai, B: weth}).String(),
	}})
	require.Error(t, err)

	err = f.registry.Restore([]model.PoolRecord{{
		CoinA:      dai.String(),
		CoinB:      usdc.String(),
		ShareToken: ShareTokenType(registryOwner, pair).String(),
		Address:    Pair{A: dai, B: weth}.Address().Hex(),
	}})
	require.Error(t, err)

	require.Empty(t, f.registry.Pools())
}

func TestCheckAssetTypeReservesShareNamespace(t *testing.T) {
	f := newFixture(t)
	pair, _, err := NewPair(dai, weth)
	require.NoError(t, err)

	require.ErrorIs(t, f.registry.CheckAssetType(ShareTokenType(registryOwner, pair)), ErrReservedAssetType)
	require.ErrorIs(t, f.registry.CheckAssetType(asset.TypeID{Address: registryOwner, Module: "pool", Name: "anything"}), ErrReservedAssetType)
	require.NoError(t, f.registry.CheckAssetType(dai))
	require.NoError(t, f.registry.CheckAssetType(asset.TypeID{Address: registryOwner, Module: "coins", Name: "LP"}))
}
