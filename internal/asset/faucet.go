package asset

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Faucet holds the mint capabilities of coins registered through it, or
// claimed by it after an import, and pays new coins into accounts.
type Faucet struct {
	ledger *Ledger

	mu    sync.Mutex
	mints map[TypeID]MintCapability
}

func NewFaucet(ledger *Ledger) *Faucet {
	return &Faucet{ledger: ledger, mints: make(map[TypeID]MintCapability)}
}

// Register initializes a new coin and keeps its mint capability.
func (f *Faucet) Register(t TypeID, name, symbol string, decimals uint8) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	mintCap, _, err := f.ledger.RegisterCoin(t, name, symbol, decimals)
	if err != nil {
		return err
	}
	f.mints[t] = mintCap
	return nil
}

// Drip mints amount of t into owner's account, or nothing if the account
// cannot hold it. Coins whose capabilities are held elsewhere, such as pool
// share tokens, fail with ErrCapabilityClaimed.
func (f *Faucet) Drip(owner common.Address, t TypeID, amount uint64) error {
	mintCap, err := f.capability(t)
	if err != nil {
		return err
	}
	return f.ledger.MintTo(mintCap, owner, amount)
}

func (f *Faucet) capability(t TypeID) (MintCapability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if mintCap, ok := f.mints[t]; ok {
		return mintCap, nil
	}
	mintCap, _, err := f.ledger.Claim(t)
	if err != nil {
		return MintCapability{}, err
	}
	f.mints[t] = mintCap
	return mintCap, nil
}
