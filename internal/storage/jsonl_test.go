package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"liquidityCore/internal/model"
)

func TestJsonlStorageAppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "events.jsonl")
	store := NewJsonlStorage(path)

	first := []model.LogRecord{
		{Sequence: 1, Address: "0x01", Topics: []string{"0xaa"}, Data: "0x00", Timestamp: 10},
		{Sequence: 2, Address: "0x01", Topics: []string{"0xbb"}, Data: "0x01", Timestamp: 11},
	}
	if err := store.PutLogBatch(first); err != nil {
		t.Fatalf("put first: %v", err)
	}
	if err := store.PutLogBatch(nil); err != nil {
		t.Fatalf("put empty: %v", err)
	}
	if err := store.PutLogBatch([]model.LogRecord{{Sequence: 3, Address: "0x02", Topics: []string{"0xcc"}, Data: "0x"}}); err != nil {
		t.Fatalf("put second: %v", err)
	}

	var got []uint64
	err := store.ReadLogs(func(record model.LogRecord) error {
		got = append(got, record.Sequence)
		return nil
	})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("unexpected sequences: %v", got)
	}
}

func TestJsonlStorageReadMissingFile(t *testing.T) {
	store := NewJsonlStorage(filepath.Join(t.TempDir(), "missing.jsonl"))
	calls := 0
	if err := store.ReadLogs(func(model.LogRecord) error { calls++; return nil }); err != nil {
		t.Fatalf("read: %v", err)
	}
	if calls != 0 {
		t.Fatalf("unexpected calls: %d", calls)
	}
}

func TestJsonlStorageReadStopsOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	if err := os.WriteFile(path, []byte("{\"sequence\":1}\nnot json\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	store := NewJsonlStorage(path)

	if err := store.ReadLogs(func(model.LogRecord) error { return nil }); err == nil {
		t.Fatalf("expected parse error")
	}

	stop := errors.New("stop")
	if err := store.ReadLogs(func(model.LogRecord) error { return stop }); !errors.Is(err, stop) {
		t.Fatalf("expected callback error, got %v", err)
	}
}

type countingSink struct{ n int }

func (c *countingSink) PutLogBatch(logs []model.LogRecord) error {
	c.n += len(logs)
	return nil
}

func TestMultiFansOut(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	if err := (Multi{a, b}).PutLogBatch(make([]model.LogRecord, 3)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if a.n != 3 || b.n != 3 {
		t.Fatalf("unexpected counts: %d %d", a.n, b.n)
	}
}
