package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"liquidityCore/internal/model"
)

const (
	dai   = "0x0000000000000000000000000000000000000001::coins::DAI"
	usdc  = "0x0000000000000000000000000000000000000001::coins::USDC"
	alice = "0x000000000000000000000000000000000000a11c"
)

type cli struct {
	dir string
}

func (c cli) run(t *testing.T, args ...string) []byte {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args,
		"--snapshot", filepath.Join(c.dir, "state.json"),
		"--events", filepath.Join(c.dir, "events.jsonl"),
		"--log-level", "error",
	))
	if err := root.Execute(); err != nil {
		t.Fatalf("amm %v: %v\n%s", args, err, out.String())
	}
	return out.Bytes()
}

func (c cli) fail(t *testing.T, args ...string) {
	t.Helper()
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append(args,
		"--snapshot", filepath.Join(c.dir, "state.json"),
		"--events", filepath.Join(c.dir, "events.jsonl"),
		"--log-level", "error",
	))
	if err := root.Execute(); err == nil {
		t.Fatalf("amm %v: expected error", args)
	}
}

func TestCommandsPersistStateAcrossRuns(t *testing.T) {
	c := cli{dir: t.TempDir()}

	c.run(t, "asset", "register", dai, "--symbol", "DAI", "--name", "Dai Stablecoin", "--decimals", "18")
	c.run(t, "asset", "register", usdc, "--symbol", "USDC", "--decimals", "6")
	c.run(t, "faucet", alice, dai, "50000")
	c.run(t, "faucet", alice, usdc, "50000")
	c.run(t, "pool", "create", usdc, dai)

	var supplied map[string]uint64
	if err := json.Unmarshal(c.run(t, "supply", alice, dai, usdc, "10000", "10000"), &supplied); err != nil {
		t.Fatalf("decode supply output: %v", err)
	}
	if supplied["shares"] != 9000 {
		t.Fatalf("shares = %d, want 9000", supplied["shares"])
	}

	c.run(t, "swap", alice, dai, usdc, "--in-a", "1000", "--out-b", "900")
	c.fail(t, "swap", alice, dai, usdc, "--in-a", "1000", "--out-b", "5000")
	c.fail(t, "pool", "create", dai, usdc)

	var pool model.PoolRecord
	if err := json.Unmarshal(c.run(t, "pool", "show", dai, usdc), &pool); err != nil {
		t.Fatalf("decode pool: %v", err)
	}
	if pool.ReserveA != 11000 || pool.ReserveB != 9100 {
		t.Fatalf("reserves = %d/%d, want 11000/9100", pool.ReserveA, pool.ReserveB)
	}
	if pool.ShareSupply != "10000" || pool.LockedShares != 1000 {
		t.Fatalf("share supply %s locked %d", pool.ShareSupply, pool.LockedShares)
	}

	var balance map[string]interface{}
	if err := json.Unmarshal(c.run(t, "balance", alice, usdc), &balance); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	if balance["amount"] != float64(40900) {
		t.Fatalf("usdc balance = %v, want 40900", balance["amount"])
	}

	typed := filepath.Join(c.dir, "typed.jsonl")
	c.run(t, "decode", "--in", filepath.Join(c.dir, "events.jsonl"), "--out", typed, "--errors", filepath.Join(c.dir, "errors.jsonl"))

	names := readEventNames(t, typed)
	want := []string{"PoolCreated", "LiquiditySupplied", "Swapped"}
	if len(names) != len(want) {
		t.Fatalf("events = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("events = %v, want %v", names, want)
		}
	}
}

func readEventNames(t *testing.T, path string) []string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer file.Close()

	var names []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record model.TypedEventRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		names = append(names, record.EventName)
	}
	return names
}
