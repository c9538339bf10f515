package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"liquidityCore/internal/amm"
	"liquidityCore/internal/asset"
	"liquidityCore/internal/eventlog"
	"liquidityCore/internal/model"
)

var (
	owner = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	alice = common.HexToAddress("0x000000000000000000000000000000000000a11c")

	dai  = asset.MustParseTypeID("0x0000000000000000000000000000000000000001::coins::DAI")
	usdc = asset.MustParseTypeID("0x0000000000000000000000000000000000000001::coins::USDC")
)

type memorySink struct {
	mu      sync.Mutex
	records []model.LogRecord
	pools   []model.PoolRecord
	err     error
}

func (m *memorySink) PutLogBatch(records []model.LogRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, records...)
	return nil
}

func (m *memorySink) UpsertPools(_ context.Context, pools []model.PoolRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pools = pools
	return nil
}

func newService(t *testing.T) (*Service, *memorySink) {
	t.Helper()

	ledger := asset.NewLedger()
	recorder, err := eventlog.NewRecorder(1, nil)
	require.NoError(t, err)
	registry := amm.NewRegistry(ledger, owner,
		amm.WithEmitter(recorder),
		amm.WithClock(func() time.Time { return time.Unix(1700000000, 0) }),
	)
	sink := &memorySink{}
	svc := New(ledger, registry, recorder, sink, WithPoolSink(sink))

	require.NoError(t, svc.RegisterAsset(dai, "Dai Stablecoin", "DAI", 18))
	require.NoError(t, svc.RegisterAsset(usdc, "USD Coin", "USDC", 6))
	return svc, sink
}

func TestSupplyMovesAccountFunds(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.CreatePool(dai, usdc)
	require.NoError(t, err)
	require.NoError(t, svc.Fund(alice, dai, 50_000))
	require.NoError(t, svc.Fund(alice, usdc, 50_000))

	shares, err := svc.Supply(alice, dai, usdc, 10_000, 40_000)
	require.NoError(t, err)
	require.Equal(t, uint64(19_000), shares)

	pool, err := svc.Registry().Lookup(dai, usdc)
	require.NoError(t, err)
	require.Equal(t, uint64(40_000), svc.Balance(alice, dai))
	require.Equal(t, uint64(10_000), svc.Balance(alice, usdc))
	require.Equal(t, shares, svc.Balance(alice, pool.ShareToken()))
}

func TestSupplyFailureRefundsInputs(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.CreatePool(dai, usdc)
	require.NoError(t, err)
	require.NoError(t, svc.Fund(alice, dai, 100))
	require.NoError(t, svc.Fund(alice, usdc, 100))

	_, err = svc.Supply(alice, dai, usdc, 100, 100)
	require.ErrorIs(t, err, amm.ErrInsufficientInitialLiquidity)
	require.Equal(t, uint64(100), svc.Balance(alice, dai))
	require.Equal(t, uint64(100), svc.Balance(alice, usdc))
}

func TestSupplyWithdrawFailureRefundsFirstLeg(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.CreatePool(dai, usdc)
	require.NoError(t, err)
	require.NoError(t, svc.Fund(alice, dai, 10_000))

	_, err = svc.Supply(alice, dai, usdc, 10_000, 10_000)
	require.ErrorIs(t, err, asset.ErrInsufficientBalance)
	require.Equal(t, uint64(10_000), svc.Balance(alice, dai))
}

func TestUnknownPoolFailsBeforeTouchingAccount(t *testing.T) {
	svc, _ := newService(t)
	require.NoError(t, svc.Fund(alice, dai, 10))

	_, err := svc.Supply(alice, dai, usdc, 10, 10)
	require.ErrorIs(t, err, amm.ErrPoolNotFound)
	_, _, err = svc.Swap(alice, dai, usdc, 10, 0, 0, 1)
	require.ErrorIs(t, err, amm.ErrPoolNotFound)
	_, _, err = svc.Remove(alice, dai, usdc, 10)
	require.ErrorIs(t, err, amm.ErrPoolNotFound)
	require.Equal(t, uint64(10), svc.Balance(alice, dai))
}

func TestSwapAndRemove(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.CreatePool(dai, usdc)
	require.NoError(t, err)
	require.NoError(t, svc.Fund(alice, dai, 20_000))
	require.NoError(t, svc.Fund(alice, usdc, 10_000))

	shares, err := svc.Supply(alice, dai, usdc, 10_000, 10_000)
	require.NoError(t, err)
	require.Equal(t, uint64(9_000), shares)

	gotA, gotB, err := svc.Swap(alice, dai, usdc, 1_000, 0, 0, 900)
	require.NoError(t, err)
	require.Equal(t, uint64(0), gotA)
	require.Equal(t, uint64(900), gotB)
	require.Equal(t, uint64(9_000), svc.Balance(alice, dai))
	require.Equal(t, uint64(900), svc.Balance(alice, usdc))

	_, _, err = svc.Swap(alice, dai, usdc, 1_000, 0, 0, 5_000)
	require.ErrorIs(t, err, amm.ErrInvariantViolated)
	require.Equal(t, uint64(9_000), svc.Balance(alice, dai))

	outA, outB, err := svc.Remove(alice, usdc, dai, 9_000)
	require.NoError(t, err)
	// 9000 of 10000 shares against reserves 11000 DAI / 9100 USDC.
	require.Equal(t, uint64(8_190), outA)
	require.Equal(t, uint64(9_900), outB)
	require.Equal(t, uint64(18_900), svc.Balance(alice, dai))
	require.Equal(t, uint64(9_090), svc.Balance(alice, usdc))
}

func TestRemoveFailureRefundsShares(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.CreatePool(dai, usdc)
	require.NoError(t, err)
	require.NoError(t, svc.Fund(alice, dai, 1_001))
	require.NoError(t, svc.Fund(alice, usdc, 1_000_000))

	shares, err := svc.Supply(alice, dai, usdc, 1_001, 1_000_000)
	require.NoError(t, err)

	pool, err := svc.Registry().Lookup(dai, usdc)
	require.NoError(t, err)
	_, _, err = svc.Remove(alice, dai, usdc, 1)
	require.ErrorIs(t, err, amm.ErrZeroRedemption)
	require.Equal(t, shares, svc.Balance(alice, pool.ShareToken()))
}

func TestFundRejectsShareTokens(t *testing.T) {
	svc, _ := newService(t)
	info, err := svc.CreatePool(dai, usdc)
	require.NoError(t, err)

	err = svc.Fund(alice, info.ShareToken, 1)
	require.ErrorIs(t, err, asset.ErrCapabilityClaimed)
}

func TestFlushWritesEventsAndPools(t *testing.T) {
	svc, sink := newService(t)
	_, err := svc.CreatePool(dai, usdc)
	require.NoError(t, err)
	require.NoError(t, svc.Fund(alice, dai, 10_000))
	require.NoError(t, svc.Fund(alice, usdc, 10_000))
	_, err = svc.Supply(alice, dai, usdc, 10_000, 10_000)
	require.NoError(t, err)

	require.NoError(t, svc.Flush(context.Background()))
	require.Len(t, sink.records, 2)
	require.Equal(t, uint64(1), sink.records[0].Sequence)
	require.Equal(t, uint64(2), sink.records[1].Sequence)
	require.Len(t, sink.pools, 1)
	require.Equal(t, uint64(10_000), sink.pools[0].ReserveA)

	require.NoError(t, svc.Flush(context.Background()))
	require.Len(t, sink.records, 2)
}

func TestFlushReportsSinkFailure(t *testing.T) {
	svc, sink := newService(t)
	_, err := svc.CreatePool(dai, usdc)
	require.NoError(t, err)

	sink.err = errors.New("disk full")
	err = svc.Flush(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "disk full")
}

func TestParseHelpers(t *testing.T) {
	account, err := ParseAccount(" 0x000000000000000000000000000000000000a11c ")
	require.NoError(t, err)
	require.Equal(t, alice, account)

	_, err = ParseAccount("alice")
	require.Error(t, err)

	a, b, err := ParsePair(dai.String(), usdc.String())
	require.NoError(t, err)
	require.Equal(t, dai, a)
	require.Equal(t, usdc, b)

	_, _, err = ParsePair(dai.String(), "usdc")
	require.ErrorIs(t, err, asset.ErrInvalidTypeID)
}

func TestRegisterAssetRejectsShareTokenNamespace(t *testing.T) {
	svc, _ := newService(t)
	pair, _, err := amm.NewPair(dai, usdc)
	require.NoError(t, err)
	share := amm.ShareTokenType(owner, pair)

	err = svc.RegisterAsset(share, "fake LP", "LP", 8)
	require.ErrorIs(t, err, amm.ErrReservedAssetType)
	err = svc.Fund(alice, share, 1_000_000)
	require.ErrorIs(t, err, asset.ErrCoinNotRegistered)

	info, err := svc.CreatePool(dai, usdc)
	require.NoError(t, err)
	require.Equal(t, share, info.ShareToken)

	// The same module under another address is an ordinary coin.
	other := asset.TypeID{Address: alice, Module: share.Module, Name: share.Name}
	require.NoError(t, svc.RegisterAsset(other, "Other", "OTH", 8))
}

func TestSwapRefusedWhenAccountCannotHoldOutput(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.CreatePool(dai, usdc)
	require.NoError(t, err)
	require.NoError(t, svc.Fund(alice, dai, 10_000))
	require.NoError(t, svc.Fund(alice, usdc, 10_000))
	_, err = svc.Supply(alice, dai, usdc, 10_000, 10_000)
	require.NoError(t, err)

	bob := common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	require.NoError(t, svc.Fund(bob, dai, 1_000))
	require.NoError(t, svc.Fund(bob, usdc, math.MaxUint64-100))

	pool, err := svc.Registry().Lookup(dai, usdc)
	require.NoError(t, err)
	reserveA, reserveB := pool.Reserves()
	usdcSupply, _ := svc.ledger.TotalSupply(usdc)

	_, _, err = svc.Swap(bob, dai, usdc, 1_000, 0, 0, 900)
	require.ErrorIs(t, err, asset.ErrAmountOverflow)
	require.Equal(t, uint64(1_000), svc.Balance(bob, dai))
	require.Equal(t, uint64(math.MaxUint64-100), svc.Balance(bob, usdc))
	gotA, gotB := pool.Reserves()
	require.Equal(t, reserveA, gotA)
	require.Equal(t, reserveB, gotB)
	after, _ := svc.ledger.TotalSupply(usdc)
	require.Equal(t, usdcSupply, after)

	// usdc paid in leaves the account before the output lands.
	_, gotOut, err := svc.Swap(bob, dai, usdc, 0, 900, 0, 950)
	require.ErrorIs(t, err, amm.ErrInvariantViolated)
	require.Zero(t, gotOut)
	_, gotOut, err = svc.Swap(bob, dai, usdc, 0, 900, 0, 850)
	require.NoError(t, err)
	require.Equal(t, uint64(850), gotOut)
	require.Equal(t, uint64(math.MaxUint64-150), svc.Balance(bob, usdc))
}

func TestRemoveRefusedWhenAccountCannotHoldReserves(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.CreatePool(dai, usdc)
	require.NoError(t, err)
	require.NoError(t, svc.Fund(alice, dai, 10_000))
	require.NoError(t, svc.Fund(alice, usdc, 10_000))
	shares, err := svc.Supply(alice, dai, usdc, 10_000, 10_000)
	require.NoError(t, err)
	require.NoError(t, svc.Fund(alice, dai, math.MaxUint64))

	pool, err := svc.Registry().Lookup(dai, usdc)
	require.NoError(t, err)
	_, _, err = svc.Remove(alice, usdc, dai, 1_000)
	require.ErrorIs(t, err, asset.ErrAmountOverflow)
	require.Equal(t, shares, svc.Balance(alice, pool.ShareToken()))
	require.Equal(t, uint64(math.MaxUint64), svc.Balance(alice, dai))
	require.Zero(t, svc.Balance(alice, usdc))
	reserveA, reserveB := pool.Reserves()
	require.Equal(t, uint64(10_000), reserveA)
	require.Equal(t, uint64(10_000), reserveB)
	total, _ := svc.ledger.TotalSupply(pool.ShareToken())
	require.Equal(t, uint64(10_000), total.Uint64())
}
