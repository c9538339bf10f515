package aggregate

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"liquidityCore/internal/amm"
	"liquidityCore/internal/asset"
	"liquidityCore/internal/eventlog"
	"liquidityCore/internal/model"
)

type memoryStore struct {
	batches [][]model.PoolWindowMetrics
}

func (m *memoryStore) UpsertWindowMetrics(_ context.Context, metrics []model.PoolWindowMetrics) error {
	m.batches = append(m.batches, append([]model.PoolWindowMetrics(nil), metrics...))
	return nil
}

func (m *memoryStore) all() []model.PoolWindowMetrics {
	var out []model.PoolWindowMetrics
	for _, batch := range m.batches {
		out = append(out, batch...)
	}
	return out
}

// writeHistory runs a short pool history and writes it as decoded JSONL.
func writeHistory(t *testing.T, path string) common.Address {
	t.Helper()

	ledger := asset.NewLedger()
	dai := asset.MustParseTypeID("0x0000000000000000000000000000000000000001::coins::DAI")
	usdc := asset.MustParseTypeID("0x0000000000000000000000000000000000000001::coins::USDC")
	daiMint, _, err := ledger.RegisterCoin(dai, "Dai", "DAI", 18)
	require.NoError(t, err)
	usdcMint, _, err := ledger.RegisterCoin(usdc, "USD Coin", "USDC", 6)
	require.NoError(t, err)
	mint := func(c asset.MintCapability, n uint64) *asset.Balance {
		b, err := ledger.Mint(c, n)
		require.NoError(t, err)
		return b
	}

	now := time.Unix(1000, 0)
	recorder, err := eventlog.NewRecorder(1, nil)
	require.NoError(t, err)
	registry := amm.NewRegistry(ledger, common.HexToAddress("0xaa"),
		amm.WithEmitter(recorder),
		amm.WithClock(func() time.Time { return now }),
	)

	pool, err := registry.CreatePool(dai, usdc)
	require.NoError(t, err)
	_, err = registry.Supply(mint(daiMint, 10000), mint(usdcMint, 40000))
	require.NoError(t, err)
	now = time.Unix(2000, 0)
	_, _, err = registry.Swap(mint(daiMint, 1000), asset.Zero(usdc), 0, 3000)
	require.NoError(t, err)
	now = time.Unix(5000, 0)
	_, _, err = registry.Swap(mint(daiMint, 100), asset.Zero(usdc), 0, 200)
	require.NoError(t, err)

	decoder, err := eventlog.NewDecoder()
	require.NoError(t, err)
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	for _, record := range recorder.Drain() {
		typed, err := decoder.Decode(record)
		require.NoError(t, err)
		line, err := json.Marshal(typed)
		require.NoError(t, err)
		_, err = file.Write(append(line, '\n'))
		require.NoError(t, err)
	}
	return pool.Address()
}

func TestAggregatorWindows(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "typed.jsonl")
	pool := writeHistory(t, input)

	store := &memoryStore{}
	state := &FileStateStore{Path: filepath.Join(dir, "state.json")}
	agg := NewAggregator(Config{WindowSeconds: 3600, StateStore: state}, store, nil)
	require.NoError(t, agg.Run(context.Background(), input))

	metrics := store.all()
	require.Len(t, metrics, 2)

	first, second := metrics[0], metrics[1]
	require.Equal(t, pool.Hex(), first.PoolAddress)
	require.Equal(t, time.Unix(0, 0).UTC(), first.WindowStart)
	require.Equal(t, time.Unix(3600, 0).UTC(), first.WindowEnd)
	require.Equal(t, uint64(1), first.SupplyCount)
	require.Equal(t, uint64(1), first.SwapCount)
	require.Equal(t, "1000", first.VolumeAIn)
	require.Equal(t, "3000", first.VolumeBOut)
	require.Equal(t, "0", first.VolumeBIn)
	require.Equal(t, "11000", first.ReserveA)
	require.Equal(t, "37000", first.ReserveB)
	require.NotNil(t, first.ClosingPrice)
	require.Equal(t, "3.363636363636363636", *first.ClosingPrice)

	require.Equal(t, time.Unix(3600, 0).UTC(), second.WindowStart)
	require.Equal(t, uint64(1), second.SwapCount)
	require.Zero(t, second.SupplyCount)
	require.Equal(t, "11100", second.ReserveA)
	require.Equal(t, "36800", second.ReserveB)

	reserveA, reserveB, ok := agg.ReservesOf(pool.Hex())
	require.True(t, ok)
	require.Equal(t, "11100", reserveA.String())
	require.Equal(t, "36800", reserveB.String())

	last, ok, err := state.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(4), last)

	// Nothing new on a second pass.
	again := &memoryStore{}
	require.NoError(t, NewAggregator(Config{WindowSeconds: 3600, StateStore: state}, again, nil).Run(context.Background(), input))
	require.Empty(t, again.all())

	// Recomputing from the last swap rewrites only its window.
	recomputed := &memoryStore{}
	require.NoError(t, NewAggregator(Config{WindowSeconds: 3600, RecomputeFrom: 4}, recomputed, nil).Run(context.Background(), input))
	require.Len(t, recomputed.all(), 1)
	require.Equal(t, "11100", recomputed.all()[0].ReserveA)
}

func TestAggregatorRejectsBadConfig(t *testing.T) {
	require.Error(t, NewAggregator(Config{}, &memoryStore{}, nil).Run(context.Background(), "unused"))
	require.Error(t, NewAggregator(Config{WindowSeconds: 60}, nil, nil).Run(context.Background(), "unused"))
}

func TestClosingPrice(t *testing.T) {
	require.Nil(t, closingPrice(newReserves().A, newReserves().B))
	r := newReserves()
	r.add(4, 10)
	require.Equal(t, "2.500000000000000000", *closingPrice(r.A, r.B))
}
