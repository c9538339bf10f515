package asset

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"liquidityCore/internal/model"
)

// MintCapability authorizes minting one coin type on one ledger.
type MintCapability struct {
	coin   TypeID
	ledger *Ledger
}

func (c MintCapability) Type() TypeID { return c.coin }

// BurnCapability authorizes burning one coin type on one ledger.
type BurnCapability struct {
	coin   TypeID
	ledger *Ledger
}

func (c BurnCapability) Type() TypeID { return c.coin }

type coinInfo struct {
	name     string
	symbol   string
	decimals uint8
	supply   uint256.Int
	claimed  bool
}

// Ledger holds coin metadata, total supplies and account balances.
type Ledger struct {
	mu       sync.RWMutex
	coins    map[TypeID]*coinInfo
	accounts map[common.Address]map[TypeID]uint64
}

func NewLedger() *Ledger {
	return &Ledger{
		coins:    make(map[TypeID]*coinInfo),
		accounts: make(map[common.Address]map[TypeID]uint64),
	}
}

// RegisterCoin initializes a coin type and hands out its only capability pair.
func (l *Ledger) RegisterCoin(t TypeID, name, symbol string, decimals uint8) (MintCapability, BurnCapability, error) {
	if err := t.Validate(); err != nil {
		return MintCapability{}, BurnCapability{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.coins[t]; ok {
		return MintCapability{}, BurnCapability{}, fmt.Errorf("%w: %s", ErrCoinAlreadyRegistered, t)
	}
	l.coins[t] = &coinInfo{name: name, symbol: symbol, decimals: decimals, claimed: true}
	return MintCapability{coin: t, ledger: l}, BurnCapability{coin: t, ledger: l}, nil
}

// Claim reissues the capability pair of a coin restored by Import. Each
// imported coin can be claimed once.
func (l *Ledger) Claim(t TypeID) (MintCapability, BurnCapability, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	info, ok := l.coins[t]
	if !ok {
		return MintCapability{}, BurnCapability{}, fmt.Errorf("%w: %s", ErrCoinNotRegistered, t)
	}
	if info.claimed {
		return MintCapability{}, BurnCapability{}, fmt.Errorf("%w: %s", ErrCapabilityClaimed, t)
	}
	info.claimed = true
	return MintCapability{coin: t, ledger: l}, BurnCapability{coin: t, ledger: l}, nil
}

func (l *Ledger) IsInitialized(t TypeID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.coins[t]
	return ok
}

func (l *Ledger) Symbol(t TypeID) (string, error) {
	info, err := l.info(t)
	if err != nil {
		return "", err
	}
	return info.symbol, nil
}

func (l *Ledger) Name(t TypeID) (string, error) {
	info, err := l.info(t)
	if err != nil {
		return "", err
	}
	return info.name, nil
}

func (l *Ledger) Decimals(t TypeID) (uint8, error) {
	info, err := l.info(t)
	if err != nil {
		return 0, err
	}
	return info.decimals, nil
}

func (l *Ledger) info(t TypeID) (coinInfo, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	info, ok := l.coins[t]
	if !ok {
		return coinInfo{}, fmt.Errorf("%w: %s", ErrCoinNotRegistered, t)
	}
	return *info, nil
}

// TotalSupply reports the outstanding supply, or false if t is not registered.
func (l *Ledger) TotalSupply(t TypeID) (*uint256.Int, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	info, ok := l.coins[t]
	if !ok {
		return nil, false
	}
	return new(uint256.Int).Set(&info.supply), true
}

func (l *Ledger) Mint(c MintCapability, amount uint64) (*Balance, error) {
	if c.ledger != l {
		return nil, ErrWrongCapability
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	info, ok := l.coins[c.coin]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCoinNotRegistered, c.coin)
	}
	if _, overflow := info.supply.AddOverflow(&info.supply, uint256.NewInt(amount)); overflow {
		return nil, ErrAmountOverflow
	}
	return &Balance{typ: c.coin, value: amount}, nil
}

// MintTo mints amount straight into the owner's account. Nothing changes
// unless both the supply and the account can take the amount.
func (l *Ledger) MintTo(c MintCapability, owner common.Address, amount uint64) error {
	if c.ledger != l {
		return ErrWrongCapability
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	info, ok := l.coins[c.coin]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCoinNotRegistered, c.coin)
	}
	if amount > math.MaxUint64-l.accounts[owner][c.coin] {
		return fmt.Errorf("%w: %s cannot hold %d more %s", ErrAmountOverflow, owner.Hex(), amount, c.coin)
	}
	supply, overflow := new(uint256.Int).AddOverflow(&info.supply, uint256.NewInt(amount))
	if overflow {
		return ErrAmountOverflow
	}
	if amount == 0 {
		return nil
	}
	info.supply = *supply
	holdings := l.accounts[owner]
	if holdings == nil {
		holdings = make(map[TypeID]uint64)
		l.accounts[owner] = holdings
	}
	holdings[c.coin] += amount
	return nil
}

func (l *Ledger) Burn(c BurnCapability, b *Balance) error {
	if c.ledger != l || b.typ != c.coin {
		return ErrWrongCapability
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	info, ok := l.coins[c.coin]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCoinNotRegistered, c.coin)
	}
	if _, underflow := info.supply.SubOverflow(&info.supply, uint256.NewInt(b.value)); underflow {
		return ErrInsufficientBalance
	}
	b.value = 0
	return nil
}

// Deposit drains b into the owner's account.
func (l *Ledger) Deposit(owner common.Address, b *Balance) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.coins[b.typ]; !ok {
		return fmt.Errorf("%w: %s", ErrCoinNotRegistered, b.typ)
	}
	if b.value == 0 {
		return nil
	}
	holdings := l.accounts[owner]
	if holdings == nil {
		holdings = make(map[TypeID]uint64)
		l.accounts[owner] = holdings
	}
	if b.value > math.MaxUint64-holdings[b.typ] {
		return ErrAmountOverflow
	}
	holdings[b.typ] += b.value
	b.value = 0
	return nil
}

// Withdraw takes amount of t out of the owner's account.
func (l *Ledger) Withdraw(owner common.Address, t TypeID, amount uint64) (*Balance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.coins[t]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrCoinNotRegistered, t)
	}
	held := l.accounts[owner][t]
	if amount > held {
		return nil, fmt.Errorf("%w: %s holds %d of %s, need %d", ErrInsufficientBalance, owner.Hex(), held, t, amount)
	}
	if held == amount {
		delete(l.accounts[owner], t)
	} else {
		l.accounts[owner][t] = held - amount
	}
	return &Balance{typ: t, value: amount}, nil
}

func (l *Ledger) BalanceOf(owner common.Address, t TypeID) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.accounts[owner][t]
}

// Room reports how much more of t the owner's account can hold.
func (l *Ledger) Room(owner common.Address, t TypeID) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return math.MaxUint64 - l.accounts[owner][t]
}

// Export returns a deterministic copy of the ledger state.
func (l *Ledger) Export() model.LedgerState {
	l.mu.RLock()
	defer l.mu.RUnlock()

	state := model.LedgerState{
		Coins:    make([]model.CoinRecord, 0, len(l.coins)),
		Balances: make([]model.AccountBalance, 0),
	}
	for t, info := range l.coins {
		state.Coins = append(state.Coins, model.CoinRecord{
			Type:     t.String(),
			Name:     info.name,
			Symbol:   info.symbol,
			Decimals: info.decimals,
			Supply:   info.supply.ToBig().String(),
		})
	}
	for owner, holdings := range l.accounts {
		for t, amount := range holdings {
			state.Balances = append(state.Balances, model.AccountBalance{
				Owner:  owner.Hex(),
				Type:   t.String(),
				Amount: amount,
			})
		}
	}

	sort.Slice(state.Coins, func(i, j int) bool { return state.Coins[i].Type < state.Coins[j].Type })
	sort.Slice(state.Balances, func(i, j int) bool {
		if state.Balances[i].Owner != state.Balances[j].Owner {
			return state.Balances[i].Owner < state.Balances[j].Owner
		}
		return state.Balances[i].Type < state.Balances[j].Type
	})
	return state
}

// Import replaces the ledger contents. Capabilities of imported coins must be
// reacquired with Claim.
func (l *Ledger) Import(state model.LedgerState) error {
	coins := make(map[TypeID]*coinInfo, len(state.Coins))
	for _, rec := range state.Coins {
		t, err := ParseTypeID(rec.Type)
		if err != nil {
			return err
		}
		supply, ok := new(big.Int).SetString(rec.Supply, 10)
		if !ok {
			return fmt.Errorf("invalid supply for %s: %q", rec.Type, rec.Supply)
		}
		value, overflow := uint256.FromBig(supply)
		if overflow || supply.Sign() < 0 {
			return fmt.Errorf("supply out of range for %s: %s", rec.Type, rec.Supply)
		}
		coins[t] = &coinInfo{name: rec.Name, symbol: rec.Symbol, decimals: rec.Decimals, supply: *value}
	}

	accounts := make(map[common.Address]map[TypeID]uint64)
	for _, rec := range state.Balances {
		if !common.IsHexAddress(rec.Owner) {
			return fmt.Errorf("invalid owner address: %s", rec.Owner)
		}
		t, err := ParseTypeID(rec.Type)
		if err != nil {
			return err
		}
		if _, ok := coins[t]; !ok {
			return fmt.Errorf("%w: balance of %s", ErrCoinNotRegistered, rec.Type)
		}
		owner := common.HexToAddress(rec.Owner)
		if accounts[owner] == nil {
			accounts[owner] = make(map[TypeID]uint64)
		}
		accounts[owner][t] += rec.Amount
	}

	l.mu.Lock()
	l.coins = coins
	l.accounts = accounts
	l.mu.Unlock()
	return nil
}
