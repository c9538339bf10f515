package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityCore/internal/amm"
	"liquidityCore/internal/asset"
	"liquidityCore/internal/model"
	"liquidityCore/internal/storage"
)

// EventSource hands over buffered event records. *eventlog.Recorder
// satisfies it.
type EventSource interface {
	Drain() []model.LogRecord
}

// PoolSink receives the current pool records on every flush.
// *postgres.Store satisfies it.
type PoolSink interface {
	UpsertPools(ctx context.Context, pools []model.PoolRecord) error
}

// Service runs pool operations on behalf of ledger accounts: it withdraws
// the inputs from the account, runs the operation, and deposits the outputs
// back. A failed operation returns the inputs to the account, and an
// operation whose outputs the account could not hold is refused up front.
type Service struct {
	ledger   *asset.Ledger
	registry *amm.Registry
	faucet   *asset.Faucet
	events   EventSource
	sink     storage.Storage
	pools    PoolSink
	logger   *zap.Logger

	// opMu keeps the room checked before an operation valid until its
	// outputs are credited.
	opMu    sync.Mutex
	flushMu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

func WithPoolSink(pools PoolSink) Option {
	return func(s *Service) { s.pools = pools }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds a Service. events and sink may be nil, in which case Flush
// does nothing with events.
func New(ledger *asset.Ledger, registry *amm.Registry, events EventSource, sink storage.Storage, opts ...Option) *Service {
	s := &Service{
		ledger:   ledger,
		registry: registry,
		faucet:   asset.NewFaucet(ledger),
		events:   events,
		sink:     sink,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Registry() *amm.Registry { return s.registry }

// RegisterAsset initializes a new coin type.
func (s *Service) RegisterAsset(t asset.TypeID, name, symbol string, decimals uint8) error {
	if err := s.registry.CheckAssetType(t); err != nil {
		return err
	}
	if err := s.faucet.Register(t, name, symbol, decimals); err != nil {
		return err
	}
	s.logger.Info("asset registered", zap.String("type", t.String()), zap.String("symbol", symbol), zap.Uint8("decimals", decimals))
	return nil
}

// Fund mints amount of t into account.
func (s *Service) Fund(account common.Address, t asset.TypeID, amount uint64) error {
	if err := s.faucet.Drip(account, t, amount); err != nil {
		return err
	}
	s.logger.Info("account funded", zap.String("account", account.Hex()), zap.String("type", t.String()), zap.Uint64("amount", amount))
	return nil
}

// Balance reports the account's holding of t.
func (s *Service) Balance(account common.Address, t asset.TypeID) uint64 {
	return s.ledger.BalanceOf(account, t)
}

func (s *Service) CreatePool(a, b asset.TypeID) (amm.PoolInfo, error) {
	pool, err := s.registry.CreatePool(a, b)
	if err != nil {
		return amm.PoolInfo{}, err
	}
	return s.registry.Info(pool.Pair().A, pool.Pair().B)
}

// Supply deposits amountA of a and amountB of b from account and credits the
// minted shares to it.
func (s *Service) Supply(account common.Address, a, b asset.TypeID, amountA, amountB uint64) (uint64, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	pool, err := s.registry.Lookup(a, b)
	if err != nil {
		return 0, err
	}
	if quoted, err := s.registry.PreviewSupply(a, b, amountA, amountB); err == nil {
		if err := s.checkRoom(account, leg{pool.ShareToken(), quoted}); err != nil {
			return 0, err
		}
	}
	inputs, err := s.withdraw(account, []leg{{a, amountA}, {b, amountB}})
	if err != nil {
		return 0, err
	}

	shares, err := s.registry.Supply(inputs[0], inputs[1])
	if err != nil {
		s.refund(account, inputs)
		return 0, err
	}
	minted := shares.Value()
	if err := s.ledger.Deposit(account, shares); err != nil {
		return 0, fmt.Errorf("credit shares: %w", err)
	}
	return minted, nil
}

// Remove burns shares of the (a, b) pool held by account and credits the
// redeemed coins, returned in (a, b) order.
func (s *Service) Remove(account common.Address, a, b asset.TypeID, shares uint64) (uint64, uint64, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	pool, err := s.registry.Lookup(a, b)
	if err != nil {
		return 0, 0, err
	}
	if quotedA, quotedB, err := s.registry.PreviewRemove(a, b, shares); err == nil {
		if err := s.checkRoom(account, leg{a, quotedA}, leg{b, quotedB}); err != nil {
			return 0, 0, err
		}
	}
	inputs, err := s.withdraw(account, []leg{{pool.ShareToken(), shares}})
	if err != nil {
		return 0, 0, err
	}

	outA, outB, err := s.registry.Remove(a, b, inputs[0])
	if err != nil {
		s.refund(account, inputs)
		return 0, 0, err
	}
	return s.credit(account, outA, outB)
}

// Swap pays inA of a and inB of b from account into the pool and credits
// outA of a and outB of b.
func (s *Service) Swap(account common.Address, a, b asset.TypeID, inA, inB, outA, outB uint64) (uint64, uint64, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if _, err := s.registry.Lookup(a, b); err != nil {
		return 0, 0, err
	}
	// The inputs leave the account first, so a coin paid in also frees room
	// for the same coin coming out.
	if err := s.checkRoom(account, leg{a, sub(outA, inA)}, leg{b, sub(outB, inB)}); err != nil {
		return 0, 0, err
	}
	inputs, err := s.withdraw(account, []leg{{a, inA}, {b, inB}})
	if err != nil {
		return 0, 0, err
	}

	gotA, gotB, err := s.registry.Swap(inputs[0], inputs[1], outA, outB)
	if err != nil {
		s.refund(account, inputs)
		return 0, 0, err
	}
	return s.credit(account, gotA, gotB)
}

// Flush hands buffered events to the sink and, when configured, the current
// pool records to the pool sink.
func (s *Service) Flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	if s.events != nil && s.sink != nil {
		records := s.events.Drain()
		if err := s.sink.PutLogBatch(records); err != nil {
			return fmt.Errorf("store events: %w", err)
		}
		if len(records) > 0 {
			s.logger.Debug("events flushed", zap.Int("records", len(records)))
		}
	}
	if s.pools != nil {
		if err := s.pools.UpsertPools(ctx, s.registry.Export()); err != nil {
			return fmt.Errorf("store pools: %w", err)
		}
	}
	return nil
}

type leg struct {
	typ    asset.TypeID
	amount uint64
}

// withdraw takes every leg out of account, or none of them.
func (s *Service) withdraw(account common.Address, legs []leg) ([]*asset.Balance, error) {
	out := make([]*asset.Balance, 0, len(legs))
	for _, l := range legs {
		b, err := s.ledger.Withdraw(account, l.typ, l.amount)
		if err != nil {
			s.refund(account, out)
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// checkRoom fails if account could not take every leg on top of what it
// holds.
func (s *Service) checkRoom(account common.Address, legs ...leg) error {
	for _, l := range legs {
		if room := s.ledger.Room(account, l.typ); l.amount > room {
			return fmt.Errorf("%w: %s can take %d more %s, operation pays out %d", asset.ErrAmountOverflow, account.Hex(), room, l.typ, l.amount)
		}
	}
	return nil
}

func sub(x, y uint64) uint64 {
	if x < y {
		return 0
	}
	return x - y
}

func (s *Service) refund(account common.Address, balances []*asset.Balance) {
	for _, b := range balances {
		if err := s.ledger.Deposit(account, b); err != nil {
			s.logger.Error("refund failed", zap.String("account", account.Hex()), zap.String("type", b.Type().String()), zap.Uint64("amount", b.Value()), zap.Error(err))
		}
	}
}

func (s *Service) credit(account common.Address, a, b *asset.Balance) (uint64, uint64, error) {
	amountA, amountB := a.Value(), b.Value()
	for _, out := range []*asset.Balance{a, b} {
		if err := s.ledger.Deposit(account, out); err != nil {
			return 0, 0, fmt.Errorf("credit %s: %w", out.Type(), err)
		}
	}
	return amountA, amountB, nil
}
