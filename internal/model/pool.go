package model

// PoolRecord is the durable record of one pool, keyed by its canonical pair.
type PoolRecord struct {
	Address      string `json:"address"`
	CoinA        string `json:"coin_a"`
	CoinB        string `json:"coin_b"`
	ShareToken   string `json:"share_token"`
	ShareName    string `json:"share_name"`
	ShareSymbol  string `json:"share_symbol"`
	ReserveA     uint64 `json:"reserve_a"`
	ReserveB     uint64 `json:"reserve_b"`
	LockedShares uint64 `json:"locked_shares"`
	ShareSupply  string `json:"share_supply"`
	CreatedAt    uint64 `json:"created_at"`
}
