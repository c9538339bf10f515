package amm

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityCore/internal/asset"
	"liquidityCore/internal/model"
)

// Operation names reported to the Observer.
const (
	OpCreatePool = "create_pool"
	OpSupply     = "supply"
	OpRemove     = "remove"
	OpSwap       = "swap"
)

// Option configures a Registry.
type Option func(*Registry)

func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithEmitter(emitter Emitter) Option {
	return func(r *Registry) {
		if emitter != nil {
			r.emitter = emitter
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(r *Registry) {
		if observer != nil {
			r.observer = observer
		}
	}
}

// WithClock sets the time source for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// Registry maps canonical pairs to pools. The map lock is only held to look a
// pool up or to insert a new one; operations on a pool serialize on the
// pool's own lock, so distinct pools never contend.
type Registry struct {
	ledger   Ledger
	owner    common.Address
	emitter  Emitter
	observer Observer
	logger   *zap.Logger
	now      func() time.Time

	mu    sync.RWMutex
	pools map[Pair]*Pool
}

// NewRegistry builds a registry whose share tokens are defined at owner.
func NewRegistry(ledger Ledger, owner common.Address, opts ...Option) *Registry {
	r := &Registry{
		ledger:   ledger,
		owner:    owner,
		emitter:  nopEmitter{},
		observer: nopObserver{},
		logger:   zap.NewNop(),
		now:      time.Now,
		pools:    make(map[Pair]*Pool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreatePool registers the pool for (a, b), in either order.
func (r *Registry) CreatePool(a, b asset.TypeID) (*Pool, error) {
	pool, err := r.createPool(a, b)
	r.observer.ObserveOperation(OpCreatePool, err)
	return pool, err
}

func (r *Registry) createPool(a, b asset.TypeID) (*Pool, error) {
	if _, err := Canonicalize(r.ledger, a, b); err != nil {
		return nil, err
	}
	pair, _, err := NewPair(a, b)
	if err != nil {
		return nil, err
	}
	symbolA, err := r.ledger.Symbol(pair.A)
	if err != nil {
		return nil, err
	}
	symbolB, err := r.ledger.Symbol(pair.B)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pools[pair]; ok {
		return nil, fmt.Errorf("%w: %s", ErrPoolAlreadyExists, pair)
	}

	share := ShareTokenType(r.owner, pair)
	name := ShareTokenName(symbolA, symbolB)
	symbol := ShareTokenSymbol(symbolA, symbolB)
	mintCap, burnCap, err := r.ledger.RegisterCoin(share, name, symbol, shareDecimals)
	if err != nil {
		return nil, fmt.Errorf("register share token: %w", err)
	}

	pool := &Pool{
		pair:        pair,
		address:     pair.Address(),
		share:       share,
		shareName:   name,
		shareSymbol: symbol,
		createdAt:   r.timestamp(),
		reserveA:    asset.Zero(pair.A),
		reserveB:    asset.Zero(pair.B),
		locked:      asset.Zero(share),
		mintCap:     mintCap,
		burnCap:     burnCap,
	}
	r.pools[pair] = pool
	r.observer.ObservePoolCount(len(r.pools))

	r.emitter.Emit(model.Event{
		Name: model.EventPoolCreated,
		Pool: pool.address.Hex(),
		Payload: model.PoolCreatedData{
			CoinA:      pair.A.String(),
			CoinB:      pair.B.String(),
			ShareToken: share.String(),
			Timestamp:  pool.createdAt,
		},
	})
	r.logger.Info("pool created",
		zap.String("pool", pool.address.Hex()),
		zap.String("coin_a", pair.A.String()),
		zap.String("coin_b", pair.B.String()),
		zap.String("share_symbol", symbol),
	)
	return pool, nil
}

// CheckAssetType fails with ErrReservedAssetType for types in the share token
// namespace of this registry. Only CreatePool may register those.
func (r *Registry) CheckAssetType(t asset.TypeID) error {
	if t.Address == r.owner && t.Module == shareModule {
		return fmt.Errorf("%w: %s", ErrReservedAssetType, t)
	}
	return nil
}

// Lookup returns the pool for (a, b), in either order.
func (r *Registry) Lookup(a, b asset.TypeID) (*Pool, error) {
	pool, _, err := r.lookupOrdered(a, b)
	return pool, err
}

func (r *Registry) lookupOrdered(a, b asset.TypeID) (*Pool, Order, error) {
	order, err := Canonicalize(r.ledger, a, b)
	if err != nil {
		return nil, Equal, err
	}
	pair := Pair{A: a, B: b}
	if order == Larger {
		pair = Pair{A: b, B: a}
	}

	r.mu.RLock()
	pool, ok := r.pools[pair]
	r.mu.RUnlock()
	if !ok {
		return nil, Equal, fmt.Errorf("%w: %s", ErrPoolNotFound, pair)
	}
	return pool, order, nil
}

// Info returns a view of the pool for (a, b).
func (r *Registry) Info(a, b asset.TypeID) (PoolInfo, error) {
	pool, err := r.Lookup(a, b)
	if err != nil {
		return PoolInfo{}, err
	}
	return pool.info(r.ledger), nil
}

// Pools lists every pool sorted by pair.
func (r *Registry) Pools() []PoolInfo {
	r.mu.RLock()
	pools := make([]*Pool, 0, len(r.pools))
	for _, pool := range r.pools {
		pools = append(pools, pool)
	}
	r.mu.RUnlock()

	infos := make([]PoolInfo, 0, len(pools))
	for _, pool := range pools {
		infos = append(infos, pool.info(r.ledger))
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Pair.String() < infos[j].Pair.String()
	})
	return infos
}

// Export returns the durable record of every pool.
func (r *Registry) Export() []model.PoolRecord {
	infos := r.Pools()
	records := make([]model.PoolRecord, 0, len(infos))
	for _, info := range infos {
		records = append(records, info.Record())
	}
	return records
}

// Restore rebuilds pools from their records. Reserves and locked shares are
// withdrawn from the ledger account at each pool's address, and the share
// token capabilities are reclaimed from the ledger.
func (r *Registry) Restore(records []model.PoolRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range records {
		pool, err := r.restorePool(rec)
		if err != nil {
			return fmt.Errorf("restore pool %s: %w", rec.Address, err)
		}
		if _, ok := r.pools[pool.pair]; ok {
			return fmt.Errorf("%w: %s", ErrPoolAlreadyExists, pool.pair)
		}
		r.pools[pool.pair] = pool
	}
	r.observer.ObservePoolCount(len(r.pools))
	return nil
}

func (r *Registry) restorePool(rec model.PoolRecord) (*Pool, error) {
	a, err := asset.ParseTypeID(rec.CoinA)
	if err != nil {
		return nil, err
	}
	b, err := asset.ParseTypeID(rec.CoinB)
	if err != nil {
		return nil, err
	}
	if Compare(a, b) != Smaller {
		return nil, fmt.Errorf("%w: %s/%s is not canonical", ErrInvalidPair, a, b)
	}
	pair := Pair{A: a, B: b}
	share := ShareTokenType(r.owner, pair)
	if rec.ShareToken != share.String() {
		return nil, fmt.Errorf("share token %s does not match %s", rec.ShareToken, share)
	}
	address := pair.Address()
	if rec.Address != "" && common.HexToAddress(rec.Address) != address {
		return nil, fmt.Errorf("pool address %s does not match %s", rec.Address, address.Hex())
	}

	mintCap, burnCap, err := r.ledger.Claim(share)
	if err != nil {
		return nil, err
	}
	reserveA, err := r.ledger.Withdraw(address, a, rec.ReserveA)
	if err != nil {
		return nil, err
	}
	reserveB, err := r.ledger.Withdraw(address, b, rec.ReserveB)
	if err != nil {
		return nil, err
	}
	locked, err := r.ledger.Withdraw(address, share, rec.LockedShares)
	if err != nil {
		return nil, err
	}

	return &Pool{
		pair:        pair,
		address:     address,
		share:       share,
		shareName:   rec.ShareName,
		shareSymbol: rec.ShareSymbol,
		createdAt:   rec.CreatedAt,
		reserveA:    reserveA,
		reserveB:    reserveB,
		locked:      locked,
		mintCap:     mintCap,
		burnCap:     burnCap,
	}, nil
}

func (r *Registry) timestamp() uint64 {
	return uint64(r.now().Unix())
}
