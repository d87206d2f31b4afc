package bundle

import (
	"time"

	"yieldScope/internal/compute"
	"yieldScope/internal/model"
)

// Demo returns a fixed sample bundle. Its hash never changes.
func Demo() Bundle {
	avg, apr := 1.0, 9.7
	metrics := compute.Metrics{
		StabilityPool: compute.StabilityPoolMetrics{
			TotalDepositsLovelace:          50_000_000,
			TotalLiquidationsReceived:      11_270_000,
			TotalRealizedPremiumLovelace:   1_093_190,
			NetAdaFromLiquidationsLovelace: -38_730_000,
			LiquidationCount:               23,
		},
		Rob: compute.RobMetrics{
			TotalPlacedLovelace:          20_000_000,
			TotalFilledLovelace:          8_080_000,
			TotalPremiumReceivedLovelace: 80_800,
			AvgPremiumPct:                &avg,
			FillCount:                    4,
		},
		Combined: compute.CombinedMetrics{
			TotalAdaInLovelace:  70_000_000,
			TotalAdaOutLovelace: 19_350_000,
			NetPnlLovelace:      -50_650_000,
			AprPct:              &apr,
		},
	}

	return New(Inputs{
		Address:   "addr1_demo (yield sample)",
		CreatedAt: time.Date(2026, 2, 12, 10, 0, 0, 0, time.UTC),
		TxHashes:  []string{"demo_tx_1", "demo_tx_2"},
		Events:    model.EventSet{},
		Metrics:   metrics,
		Slots:     []uint64{100_000, 100_100},
	})
}
