package model

import "time"

// PoolWindowMetrics stores aggregated activity for a pool window.
type PoolWindowMetrics struct {
	PoolAddress    string
	CoinA          string
	CoinB          string
	WindowSizeSecs int64
	WindowStart    time.Time
	WindowEnd      time.Time
	SwapCount      uint64
	SupplyCount    uint64
	RemoveCount    uint64
	VolumeAIn      string
	VolumeAOut     string
	VolumeBIn      string
	VolumeBOut     string
	ReserveA       string
	ReserveB       string
	ClosingPrice   *string
}
