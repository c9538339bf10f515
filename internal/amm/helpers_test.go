package amm

import (
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"liquidityCore/internal/asset"
	"liquidityCore/internal/model"
)

var (
	registryOwner = common.HexToAddress("0x00000000000000000000000000000000000000aa")

	dai     = asset.MustParseTypeID("0x0000000000000000000000000000000000000001::coins::DAI")
	usdc    = asset.MustParseTypeID("0x0000000000000000000000000000000000000001::coins::USDC")
	weth    = asset.MustParseTypeID("0x0000000000000000000000000000000000000002::coins::WETH")
	unknown = asset.MustParseTypeID("0x0000000000000000000000000000000000000003::coins::NOPE")

	fixedNow = time.Unix(1700000000, 0)
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []model.Event
}

func (e *recordingEmitter) Emit(event model.Event) {
	e.mu.Lock()
	e.events = append(e.events, event)
	e.mu.Unlock()
}

func (e *recordingEmitter) last() model.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.events[len(e.events)-1]
}

type fixture struct {
	ledger   *asset.Ledger
	registry *Registry
	events   *recordingEmitter
	mints    map[asset.TypeID]asset.MintCapability
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		ledger: asset.NewLedger(),
		events: &recordingEmitter{},
		mints:  make(map[asset.TypeID]asset.MintCapability),
	}
	coins := []struct {
		id     asset.TypeID
		name   string
		symbol string
	}{
		{dai, "Dai Stablecoin", "DAI"},
		{usdc, "USD Coin", "USDC"},
		{weth, "Wrapped Ether", "WETH"},
	}
	for _, c := range coins {
		mintCap, _, err := f.ledger.RegisterCoin(c.id, c.name, c.symbol, 18)
		require.NoError(t, err)
		f.mints[c.id] = mintCap
	}
	f.registry = NewRegistry(f.ledger, registryOwner,
		WithEmitter(f.events),
		WithClock(func() time.Time { return fixedNow }),
	)
	return f
}

func (f *fixture) coins(t *testing.T, id asset.TypeID, amount uint64) *asset.Balance {
	t.Helper()
	b, err := f.ledger.Mint(f.mints[id], amount)
	require.NoError(t, err)
	return b
}

func (f *fixture) seededPool(t *testing.T, a, b asset.TypeID, amountA, amountB uint64) (*Pool, *asset.Balance) {
	t.Helper()
	pool, err := f.registry.CreatePool(a, b)
	require.NoError(t, err)
	shares, err := f.registry.Supply(f.coins(t, a, amountA), f.coins(t, b, amountB))
	require.NoError(t, err)
	return pool, shares
}

func (f *fixture) supply(t *testing.T, pool *Pool) uint64 {
	t.Helper()
	total, ok := f.ledger.TotalSupply(pool.ShareToken())
	require.True(t, ok)
	return total.Uint64()
}
