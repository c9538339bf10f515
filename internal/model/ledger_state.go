package model

// CoinRecord is the persisted form of a registered coin.
type CoinRecord struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
	Supply   string `json:"supply"`
}

// AccountBalance is one owner's holding of one coin.
type AccountBalance struct {
	Owner  string `json:"owner"`
	Type   string `json:"type"`
	Amount uint64 `json:"amount"`
}

// LedgerState is a full export of the asset ledger.
type LedgerState struct {
	Coins    []CoinRecord     `json:"coins"`
	Balances []AccountBalance `json:"balances"`
}
