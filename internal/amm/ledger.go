package amm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"liquidityCore/internal/asset"
	"liquidityCore/internal/model"
)

// CoinInfo answers metadata questions about asset types.
type CoinInfo interface {
	IsInitialized(t asset.TypeID) bool
	Symbol(t asset.TypeID) (string, error)
}

// Ledger is the asset ledger the registry mints, burns and escrows through.
// *asset.Ledger satisfies it.
type Ledger interface {
	CoinInfo
	RegisterCoin(t asset.TypeID, name, symbol string, decimals uint8) (asset.MintCapability, asset.BurnCapability, error)
	Claim(t asset.TypeID) (asset.MintCapability, asset.BurnCapability, error)
	Mint(c asset.MintCapability, amount uint64) (*asset.Balance, error)
	Burn(c asset.BurnCapability, b *asset.Balance) error
	TotalSupply(t asset.TypeID) (*uint256.Int, bool)
	Withdraw(owner common.Address, t asset.TypeID, amount uint64) (*asset.Balance, error)
}

// Emitter receives pool events in the order they happen on each pool.
type Emitter interface {
	Emit(event model.Event)
}

// Observer is notified of every operation outcome.
type Observer interface {
	ObserveOperation(op string, err error)
	ObservePoolCount(n int)
}

type nopEmitter struct{}

func (nopEmitter) Emit(model.Event) {}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, error) {}
func (nopObserver) ObservePoolCount(int)           {}
