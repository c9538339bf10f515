package eventlog

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"go.uber.org/zap"

	"liquidityCore/internal/model"
)

// Recorder encodes emitted pool events into log records and buffers them
// until drained. It satisfies amm.Emitter.
type Recorder struct {
	poolABI abi.ABI
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	next    uint64
	records []model.LogRecord
	failed  int
}

// NewRecorder builds a recorder whose first record gets sequence next.
func NewRecorder(next uint64, logger *zap.Logger) (*Recorder, error) {
	poolABI, err := PoolEventsABI()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		poolABI: poolABI,
		logger:  logger,
		now:     time.Now,
		next:    next,
	}, nil
}

// Emit appends the encoded event. Events that cannot be encoded are logged
// and counted, and do not consume a sequence number.
func (r *Recorder) Emit(event model.Event) {
	topics, data, err := Encode(r.poolABI, event)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		r.failed++
		r.logger.Error("encode event failed", zap.String("event", event.Name), zap.String("pool", event.Pool), zap.Error(err))
		return
	}
	r.records = append(r.records, model.LogRecord{
		Sequence:  r.next,
		Address:   event.Pool,
		Topics:    topics,
		Data:      data,
		Timestamp: payloadTimestamp(event.Payload),
		EmittedAt: r.now().UTC().Format(time.RFC3339Nano),
	})
	r.next++
}

// Drain returns the buffered records and empties the buffer.
func (r *Recorder) Drain() []model.LogRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.records
	r.records = nil
	return out
}

// NextSequence is the sequence the next record will receive.
func (r *Recorder) NextSequence() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.next
}

// Failed reports how many events could not be encoded.
func (r *Recorder) Failed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed
}
