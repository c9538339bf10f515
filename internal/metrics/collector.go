package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"liquidityCore/internal/amm"
	"liquidityCore/internal/asset"
)

const namespace = "amm"

// Collector records registry activity. It satisfies amm.Observer.
type Collector struct {
	operations *prometheus.CounterVec
	pools      prometheus.Gauge
}

// NewCollector builds a collector and registers it on reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Pool operations by kind and outcome.",
		}, []string{"operation", "outcome"}),
		pools: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pools",
			Help:      "Number of registered pools.",
		}),
	}
	for _, collector := range []prometheus.Collector{c.operations, c.pools} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) ObserveOperation(op string, err error) {
	c.operations.WithLabelValues(op, Outcome(err)).Inc()
}

func (c *Collector) ObservePoolCount(n int) {
	c.pools.Set(float64(n))
}

var outcomes = []struct {
	err   error
	label string
}{
	{amm.ErrInvalidPair, "invalid_pair"},
	{amm.ErrUninitializedAsset, "uninitialized_asset"},
	{amm.ErrPoolAlreadyExists, "pool_already_exists"},
	{amm.ErrPoolNotFound, "pool_not_found"},
	{amm.ErrInsufficientInitialLiquidity, "insufficient_initial_liquidity"},
	{amm.ErrZeroLiquidityMinted, "zero_liquidity_minted"},
	{amm.ErrBelowMinimumLiquidity, "below_minimum_liquidity"},
	{amm.ErrZeroRedemption, "zero_redemption"},
	{amm.ErrNoAmountProvided, "no_amount_provided"},
	{amm.ErrInvariantViolated, "invariant_violated"},
	{amm.ErrWrongShareToken, "wrong_share_token"},
	{amm.ErrReservedAssetType, "reserved_asset_type"},
	{asset.ErrInsufficientBalance, "insufficient_balance"},
	{asset.ErrAmountOverflow, "amount_overflow"},
}

// Outcome maps an operation error to a bounded label value.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	for _, o := range outcomes {
		if errors.Is(err, o.err) {
			return o.label
		}
	}
	return "error"
}
