package erc20

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityCore/internal/asset"
	"liquidityCore/internal/model"
)

// Module is the module name ERC20-backed asset types are registered under.
const Module = "erc20"

// Caller performs read-only contract calls. *chain.Client satisfies it.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Fetcher loads ERC20 metadata, retrying failed calls with exponential
// backoff and caching results by token address.
type Fetcher struct {
	caller     Caller
	maxRetries int
	baseDelay  time.Duration
	logger     *zap.Logger

	mu    sync.RWMutex
	cache map[common.Address]model.TokenMeta
}

func NewFetcher(caller Caller, maxRetries int, baseDelay time.Duration, logger *zap.Logger) *Fetcher {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		caller:     caller,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
		cache:      make(map[common.Address]model.TokenMeta),
	}
}

// FetchTokenMeta loads decimals, symbol and name. Only decimals are
// required; a token without a readable symbol cannot be registered.
func (f *Fetcher) FetchTokenMeta(ctx context.Context, token common.Address) (model.TokenMeta, error) {
	f.mu.RLock()
	meta, ok := f.cache[token]
	f.mu.RUnlock()
	if ok {
		return meta, nil
	}

	stringABI, err := StringABI()
	if err != nil {
		return model.TokenMeta{}, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := Bytes32ABI()
	if err != nil {
		return model.TokenMeta{}, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	meta = model.TokenMeta{Address: token.Hex()}

	values, err := f.call(ctx, token, stringABI, "decimals")
	if err != nil {
		return model.TokenMeta{}, err
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return model.TokenMeta{}, fmt.Errorf("decimals: unsupported type %T", values[0])
	}
	meta.Decimals = decimals
	meta.Symbol = f.text(ctx, token, stringABI, bytes32ABI, "symbol")
	meta.Name = f.text(ctx, token, stringABI, bytes32ABI, "name")
	if meta.Symbol == "" {
		return model.TokenMeta{}, fmt.Errorf("token %s has no readable symbol", token.Hex())
	}

	typeID, err := TypeFor(meta)
	if err != nil {
		return model.TokenMeta{}, err
	}
	meta.Type = typeID.String()

	f.mu.Lock()
	f.cache[token] = meta
	f.mu.Unlock()
	return meta, nil
}

// text reads a string method, falling back to the bytes32 variant.
func (f *Fetcher) text(ctx context.Context, token common.Address, stringABI, bytes32ABI abi.ABI, method string) string {
	if values, err := f.call(ctx, token, stringABI, method); err == nil {
		if s, ok := values[0].(string); ok {
			return s
		}
	}
	values, err := f.call(ctx, token, bytes32ABI, method)
	if err != nil {
		f.logger.Debug("metadata call failed", zap.String("token", token.Hex()), zap.String("method", method), zap.Error(err))
		return ""
	}
	if s, ok := bytes32ToString(values[0]); ok {
		return s
	}
	return ""
}

func (f *Fetcher) call(ctx context.Context, token common.Address, parsed abi.ABI, method string) ([]interface{}, error) {
	data, err := parsed.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	var resp []byte
	delay := f.baseDelay
	for attempt := 0; ; attempt++ {
		resp, err = f.caller.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
		if err == nil {
			break
		}
		if attempt >= f.maxRetries {
			return nil, fmt.Errorf("call %s: %w", method, err)
		}
		f.logger.Warn("contract call failed, retrying",
			zap.String("token", token.Hex()),
			zap.String("method", method),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}

	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("unpack %s: no values", method)
	}
	return values, nil
}

var symbolSanitizer = regexp.MustCompile(`[^A-Za-z0-9_]`)

// TypeFor is the asset type an ERC20 token is registered under:
// 0x<token>::erc20::<SYMBOL>.
func TypeFor(meta model.TokenMeta) (asset.TypeID, error) {
	if !common.IsHexAddress(meta.Address) {
		return asset.TypeID{}, fmt.Errorf("invalid token address: %s", meta.Address)
	}
	name := strings.ToUpper(symbolSanitizer.ReplaceAllString(meta.Symbol, ""))
	if name == "" {
		return asset.TypeID{}, fmt.Errorf("token %s symbol %q has no usable characters", meta.Address, meta.Symbol)
	}
	return asset.NewTypeID(common.HexToAddress(meta.Address), Module, name)
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}
