package eventlog

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"liquidityCore/internal/model"
)

// Encode packs an event into its topic list and hex data.
func Encode(poolABI abi.ABI, event model.Event) ([]string, string, error) {
	abiEvent, ok := poolABI.Events[event.Name]
	if !ok {
		return nil, "", fmt.Errorf("unsupported event name: %s", event.Name)
	}

	values, err := payloadValues(event)
	if err != nil {
		return nil, "", err
	}
	data, err := abiEvent.Inputs.NonIndexed().Pack(values...)
	if err != nil {
		return nil, "", fmt.Errorf("pack %s: %w", event.Name, err)
	}
	return []string{abiEvent.ID.Hex()}, hexutil.Encode(data), nil
}

func payloadValues(event model.Event) ([]interface{}, error) {
	switch p := event.Payload.(type) {
	case model.PoolCreatedData:
		return []interface{}{p.CoinA, p.CoinB, p.ShareToken, p.Timestamp}, nil
	case model.LiquiditySuppliedData:
		return []interface{}{p.CoinA, p.CoinB, p.AmountA, p.AmountB, p.SharesMinted, p.Timestamp}, nil
	case model.LiquidityRemovedData:
		return []interface{}{p.CoinA, p.CoinB, p.SharesBurned, p.AmountA, p.AmountB, p.Timestamp}, nil
	case model.SwappedData:
		return []interface{}{p.CoinA, p.CoinB, p.AmountAIn, p.AmountAOut, p.AmountBIn, p.AmountBOut, p.Timestamp}, nil
	default:
		return nil, fmt.Errorf("unsupported payload %T for %s", event.Payload, event.Name)
	}
}

func payloadTimestamp(payload interface{}) uint64 {
	switch p := payload.(type) {
	case model.PoolCreatedData:
		return p.Timestamp
	case model.LiquiditySuppliedData:
		return p.Timestamp
	case model.LiquidityRemovedData:
		return p.Timestamp
	case model.SwappedData:
		return p.Timestamp
	default:
		return 0
	}
}
