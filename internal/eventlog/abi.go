package eventlog

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const poolEventsABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "string", "name": "coinA", "type": "string"},
      {"indexed": false, "internalType": "string", "name": "coinB", "type": "string"},
      {"indexed": false, "internalType": "string", "name": "shareToken", "type": "string"},
      {"indexed": false, "internalType": "uint64", "name": "timestamp", "type": "uint64"}
    ],
    "name": "PoolCreated",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "string", "name": "coinA", "type": "string"},
      {"indexed": false, "internalType": "string", "name": "coinB", "type": "string"},
      {"indexed": false, "internalType": "uint64", "name": "amountA", "type": "uint64"},
      {"indexed": false, "internalType": "uint64", "name": "amountB", "type": "uint64"},
      {"indexed": false, "internalType": "uint64", "name": "sharesMinted", "type": "uint64"},
      {"indexed": false, "internalType": "uint64", "name": "timestamp", "type": "uint64"}
    ],
    "name": "LiquiditySupplied",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "string", "name": "coinA", "type": "string"},
      {"indexed": false, "internalType": "string", "name": "coinB", "type": "string"},
      {"indexed": false, "internalType": "uint64", "name": "sharesBurned", "type": "uint64"},
      {"indexed": false, "internalType": "uint64", "name": "amountA", "type": "uint64"},
      {"indexed": false, "internalType": "uint64", "name": "amountB", "type": "uint64"},
      {"indexed": false, "internalType": "uint64", "name": "timestamp", "type": "uint64"}
    ],
    "name": "LiquidityRemoved",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "string", "name": "coinA", "type": "string"},
      {"indexed": false, "internalType": "string", "name": "coinB", "type": "string"},
      {"indexed": false, "internalType": "uint64", "name": "amountAIn", "type": "uint64"},
      {"indexed": false, "internalType": "uint64", "name": "amountAOut", "type": "uint64"},
      {"indexed": false, "internalType": "uint64", "name": "amountBIn", "type": "uint64"},
      {"indexed": false, "internalType": "uint64", "name": "amountBOut", "type": "uint64"},
      {"indexed": false, "internalType": "uint64", "name": "timestamp", "type": "uint64"}
    ],
    "name": "Swapped",
    "type": "event"
  }
]`

var (
	poolEventsABI     abi.ABI
	poolEventsABIOnce sync.Once
	poolEventsABIErr  error
)

// PoolEventsABI returns the parsed pool event ABI.
func PoolEventsABI() (abi.ABI, error) {
	poolEventsABIOnce.Do(func() {
		poolEventsABI, poolEventsABIErr = abi.JSON(strings.NewReader(poolEventsABIJSON))
	})
	return poolEventsABI, poolEventsABIErr
}
