package snapshot

import (
	"fmt"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"liquidityCore/internal/amm"
	"liquidityCore/internal/asset"
	"liquidityCore/internal/model"
)

const currentVersion = 1

// State is the durable image of a ledger and the pools built on it. Pool
// reserves and locked shares are stored as ledger balances held at each
// pool's address.
type State struct {
	Version      int                `json:"version"`
	Owner        string             `json:"owner"`
	NextSequence uint64             `json:"next_sequence"`
	Ledger       model.LedgerState  `json:"ledger"`
	Pools        []model.PoolRecord `json:"pools"`
	UpdatedAt    string             `json:"updated_at"`
}

// Capture records the ledger and every pool. No operation may run on the
// registry while it is captured.
func Capture(ledger *asset.Ledger, registry *amm.Registry, owner common.Address, nextSequence uint64) State {
	state := State{
		Version:      currentVersion,
		Owner:        owner.Hex(),
		NextSequence: nextSequence,
		Ledger:       ledger.Export(),
		Pools:        registry.Export(),
		UpdatedAt:    time.Now().UTC().Format(time.RFC3339Nano),
	}

	for _, pool := range state.Pools {
		escrow := []model.AccountBalance{
			{Owner: pool.Address, Type: pool.CoinA, Amount: pool.ReserveA},
			{Owner: pool.Address, Type: pool.CoinB, Amount: pool.ReserveB},
			{Owner: pool.Address, Type: pool.ShareToken, Amount: pool.LockedShares},
		}
		for _, balance := range escrow {
			if balance.Amount > 0 {
				state.Ledger.Balances = append(state.Ledger.Balances, balance)
			}
		}
	}
	sort.SliceStable(state.Ledger.Balances, func(i, j int) bool {
		a, b := state.Ledger.Balances[i], state.Ledger.Balances[j]
		if a.Owner != b.Owner {
			return a.Owner < b.Owner
		}
		return a.Type < b.Type
	})
	return state
}

// Restore rebuilds the ledger and registry from a captured state. Options are
// passed through to the registry.
func Restore(state State, opts ...amm.Option) (*asset.Ledger, *amm.Registry, error) {
	if state.Version != currentVersion {
		return nil, nil, fmt.Errorf("unsupported snapshot version %d", state.Version)
	}
	if !common.IsHexAddress(state.Owner) {
		return nil, nil, fmt.Errorf("invalid registry owner: %q", state.Owner)
	}

	ledger := asset.NewLedger()
	if err := ledger.Import(state.Ledger); err != nil {
		return nil, nil, fmt.Errorf("import ledger: %w", err)
	}
	registry := amm.NewRegistry(ledger, common.HexToAddress(state.Owner), opts...)
	if err := registry.Restore(state.Pools); err != nil {
		return nil, nil, err
	}
	return ledger, registry, nil
}

// Empty is the state of a fresh deployment owned by owner.
func Empty(owner common.Address) State {
	return State{Version: currentVersion, Owner: owner.Hex()}
}
