package model

// Event names as they appear in the event log.
const (
	EventPoolCreated       = "PoolCreated"
	EventLiquiditySupplied = "LiquiditySupplied"
	EventLiquidityRemoved  = "LiquidityRemoved"
	EventSwapped           = "Swapped"
)

// Event is one occurrence emitted by a pool operation. Payload is one of the
// *Data types below.
type Event struct {
	Name    string
	Pool    string
	Payload interface{}
}

// PoolCreatedData is the PoolCreated payload.
type PoolCreatedData struct {
	CoinA      string `json:"coin_a"`
	CoinB      string `json:"coin_b"`
	ShareToken string `json:"share_token"`
	Timestamp  uint64 `json:"timestamp"`
}

// LiquiditySuppliedData is the LiquiditySupplied payload.
type LiquiditySuppliedData struct {
	CoinA        string `json:"coin_a"`
	CoinB        string `json:"coin_b"`
	AmountA      uint64 `json:"amount_a"`
	AmountB      uint64 `json:"amount_b"`
	SharesMinted uint64 `json:"shares_minted"`
	Timestamp    uint64 `json:"timestamp"`
}

// LiquidityRemovedData is the LiquidityRemoved payload.
type LiquidityRemovedData struct {
	CoinA        string `json:"coin_a"`
	CoinB        string `json:"coin_b"`
	SharesBurned uint64 `json:"shares_burned"`
	AmountA      uint64 `json:"amount_a"`
	AmountB      uint64 `json:"amount_b"`
	Timestamp    uint64 `json:"timestamp"`
}

// SwappedData is the Swapped payload.
type SwappedData struct {
	CoinA      string `json:"coin_a"`
	CoinB      string `json:"coin_b"`
	AmountAIn  uint64 `json:"amount_a_in"`
	AmountAOut uint64 `json:"amount_a_out"`
	AmountBIn  uint64 `json:"amount_b_in"`
	AmountBOut uint64 `json:"amount_b_out"`
	Timestamp  uint64 `json:"timestamp"`
}
