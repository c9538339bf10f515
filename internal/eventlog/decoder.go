package eventlog

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"liquidityCore/internal/model"
)

// Decoder turns pool log records back into typed events.
type Decoder struct {
	poolABI     abi.ABI
	topicToName map[string]string
}

// NewDecoder builds a decoder for the pool event ABI.
func NewDecoder() (*Decoder, error) {
	poolABI, err := PoolEventsABI()
	if err != nil {
		return nil, err
	}

	topicToName := make(map[string]string, len(poolABI.Events))
	for name, event := range poolABI.Events {
		topicToName[strings.ToLower(event.ID.Hex())] = name
	}
	return &Decoder{
		poolABI:     poolABI,
		topicToName: topicToName,
	}, nil
}

// CanDecode checks if the topic0 is supported.
func (d *Decoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.topicToName[strings.ToLower(topic0)]
	return ok
}

// Decode converts a LogRecord into a TypedEvent.
func (d *Decoder) Decode(log model.LogRecord) (*model.TypedEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	name, ok := d.topicToName[strings.ToLower(log.Topics[0])]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", log.Topics[0])
	}
	if !common.IsHexAddress(log.Address) {
		return nil, fmt.Errorf("invalid pool address: %s", log.Address)
	}

	event := d.poolABI.Events[name]
	if len(log.Topics) != 1 {
		return nil, fmt.Errorf("expected 1 topic, got %d", len(log.Topics))
	}
	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return nil, err
	}

	var decoded interface{}
	switch name {
	case model.EventPoolCreated:
		decoded, err = decodePoolCreated(values)
	case model.EventLiquiditySupplied:
		decoded, err = decodeLiquiditySupplied(values)
	case model.EventLiquidityRemoved:
		decoded, err = decodeLiquidityRemoved(values)
	case model.EventSwapped:
		decoded, err = decodeSwapped(values)
	default:
		return nil, fmt.Errorf("unsupported event name: %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	return &model.TypedEvent{
		Sequence:  log.Sequence,
		Address:   log.Address,
		EventName: name,
		Timestamp: log.Timestamp,
		Decoded:   decoded,
		Raw:       &model.RawLogRef{Topic0: log.Topics[0], Data: log.Data},
	}, nil
}

func decodePoolCreated(values []interface{}) (model.PoolCreatedData, error) {
	var out model.PoolCreatedData
	f := fields{values: values}
	out.CoinA = f.str()
	out.CoinB = f.str()
	out.ShareToken = f.str()
	out.Timestamp = f.u64()
	return out, f.done()
}

func decodeLiquiditySupplied(values []interface{}) (model.LiquiditySuppliedData, error) {
	var out model.LiquiditySuppliedData
	f := fields{values: values}
	out.CoinA = f.str()
	out.CoinB = f.str()
	out.AmountA = f.u64()
	out.AmountB = f.u64()
	out.SharesMinted = f.u64()
	out.Timestamp = f.u64()
	return out, f.done()
}

func decodeLiquidityRemoved(values []interface{}) (model.LiquidityRemovedData, error) {
	var out model.LiquidityRemovedData
	f := fields{values: values}
	out.CoinA = f.str()
	out.CoinB = f.str()
	out.SharesBurned = f.u64()
	out.AmountA = f.u64()
	out.AmountB = f.u64()
	out.Timestamp = f.u64()
	return out, f.done()
}

func decodeSwapped(values []interface{}) (model.SwappedData, error) {
	var out model.SwappedData
	f := fields{values: values}
	out.CoinA = f.str()
	out.CoinB = f.str()
	out.AmountAIn = f.u64()
	out.AmountAOut = f.u64()
	out.AmountBIn = f.u64()
	out.AmountBOut = f.u64()
	out.Timestamp = f.u64()
	return out, f.done()
}

// fields walks unpacked ABI values in order, keeping the first error.
type fields struct {
	values []interface{}
	pos    int
	err    error
}

func (f *fields) take() (interface{}, bool) {
	if f.err != nil {
		return nil, false
	}
	if f.pos >= len(f.values) {
		f.err = fmt.Errorf("missing value %d", f.pos)
		return nil, false
	}
	v := f.values[f.pos]
	f.pos++
	return v, true
}

func (f *fields) str() string {
	v, ok := f.take()
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		f.err = fmt.Errorf("value %d: unexpected type %T", f.pos-1, v)
	}
	return s
}

func (f *fields) u64() uint64 {
	v, ok := f.take()
	if !ok {
		return 0
	}
	n, ok := v.(uint64)
	if !ok {
		f.err = fmt.Errorf("value %d: unexpected type %T", f.pos-1, v)
	}
	return n
}

func (f *fields) done() error {
	if f.err == nil && f.pos != len(f.values) {
		return fmt.Errorf("unexpected values: %d", len(f.values))
	}
	return f.err
}

func unpackNonIndexed(event abi.Event, dataHex string) ([]interface{}, error) {
	data, err := hexutil.Decode(dataHex)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	return values, nil
}
