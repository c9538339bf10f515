package amm

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"liquidityCore/internal/asset"
	"liquidityCore/internal/model"
)

const (
	shareModule   = "pool"
	shareDecimals = 8
	symbolPrefix  = 4
)

// Pool holds the two reserves of one canonical pair and the exclusive
// authority over its share token. All mutation happens under mu.
type Pool struct {
	mu sync.Mutex

	pair        Pair
	address     common.Address
	share       asset.TypeID
	shareName   string
	shareSymbol string
	createdAt   uint64

	reserveA *asset.Balance
	reserveB *asset.Balance
	locked   *asset.Balance
	mintCap  asset.MintCapability
	burnCap  asset.BurnCapability
}

// PoolInfo is a point-in-time view of a pool.
type PoolInfo struct {
	Pair         Pair
	Address      common.Address
	ShareToken   asset.TypeID
	ShareName    string
	ShareSymbol  string
	ReserveA     uint64
	ReserveB     uint64
	LockedShares uint64
	ShareSupply  *uint256.Int
	CreatedAt    uint64
}

func (p *Pool) Pair() Pair              { return p.pair }
func (p *Pool) Address() common.Address { return p.address }
func (p *Pool) ShareToken() asset.TypeID {
	return p.share
}

// Reserves returns the current reserves in canonical order.
func (p *Pool) Reserves() (uint64, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reserveA.Value(), p.reserveB.Value()
}

func (p *Pool) info(ledger Ledger) PoolInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	supply, ok := ledger.TotalSupply(p.share)
	if !ok {
		supply = new(uint256.Int)
	}
	return PoolInfo{
		Pair:         p.pair,
		Address:      p.address,
		ShareToken:   p.share,
		ShareName:    p.shareName,
		ShareSymbol:  p.shareSymbol,
		ReserveA:     p.reserveA.Value(),
		ReserveB:     p.reserveB.Value(),
		LockedShares: p.locked.Value(),
		ShareSupply:  supply,
		CreatedAt:    p.createdAt,
	}
}

// Record converts the view into its durable form.
func (i PoolInfo) Record() model.PoolRecord {
	supply := "0"
	if i.ShareSupply != nil {
		supply = i.ShareSupply.ToBig().String()
	}
	return model.PoolRecord{
		Address:      i.Address.Hex(),
		CoinA:        i.Pair.A.String(),
		CoinB:        i.Pair.B.String(),
		ShareToken:   i.ShareToken.String(),
		ShareName:    i.ShareName,
		ShareSymbol:  i.ShareSymbol,
		ReserveA:     i.ReserveA,
		ReserveB:     i.ReserveB,
		LockedShares: i.LockedShares,
		ShareSupply:  supply,
		CreatedAt:    i.CreatedAt,
	}
}

func (p *Pool) mintShares(ledger Ledger, amount uint64) (*asset.Balance, error) {
	return ledger.Mint(p.mintCap, amount)
}

func (p *Pool) burnShares(ledger Ledger, shares *asset.Balance) error {
	return ledger.Burn(p.burnCap, shares)
}

// ShareTokenType is the share token of the pool for pair, owned by registry.
func ShareTokenType(registry common.Address, pair Pair) asset.TypeID {
	return asset.TypeID{
		Address: registry,
		Module:  shareModule,
		Name:    fmt.Sprintf("LP<%s, %s>", pair.A, pair.B),
	}
}

// ShareTokenName renders "<symbolA>"-"<symbolB>" LP token.
func ShareTokenName(symbolA, symbolB string) string {
	return fmt.Sprintf(`"%s"-"%s" LP token`, symbolA, symbolB)
}

// ShareTokenSymbol joins the first four characters of each symbol with '-'.
func ShareTokenSymbol(symbolA, symbolB string) string {
	return strings.Join([]string{truncate(symbolA, symbolPrefix), truncate(symbolB, symbolPrefix)}, "-")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
