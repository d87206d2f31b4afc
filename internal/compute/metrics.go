package compute

// Metrics is the aggregate view of an EventSet.
type Metrics struct {
	StabilityPool StabilityPoolMetrics `json:"stability_pool"`
	Rob           RobMetrics           `json:"rob"`
	IndyStaking   IndyStakingMetrics   `json:"indy_staking"`
	Combined      CombinedMetrics      `json:"combined"`
	Dilution      *DilutionModel       `json:"dilution"`
}

type StabilityPoolMetrics struct {
	TotalDepositsLovelace          uint64 `json:"total_deposits_lovelace"`
	TotalWithdrawalsLovelace       uint64 `json:"total_withdrawals_lovelace"`
	TotalLiquidationsReceived      uint64 `json:"total_liquidations_ada_received_lovelace"`
	TotalRealizedPremiumLovelace   uint64 `json:"total_realized_premium_lovelace"`
	NetAdaFromLiquidationsLovelace int64  `json:"net_ada_from_liquidations_lovelace"`
	LiquidationCount               uint64 `json:"liquidation_count"`
}

type RobMetrics struct {
	TotalPlacedLovelace          uint64   `json:"total_placed_lovelace"`
	TotalFilledLovelace          uint64   `json:"total_filled_lovelace"`
	TotalPremiumReceivedLovelace uint64   `json:"total_premium_received_lovelace"`
	AvgPremiumPct                *float64 `json:"avg_premium_pct"`
	FillCount                    uint64   `json:"fill_count"`
}

type IndyStakingMetrics struct {
	TotalRewardsLovelace   uint64 `json:"total_rewards_lovelace"`
	TotalSpPremiumLovelace uint64 `json:"total_sp_premium_lovelace"`
	RewardTxCount          uint64 `json:"reward_tx_count"`
}

type CombinedMetrics struct {
	TotalAdaInLovelace  uint64   `json:"total_ada_in_lovelace"`
	TotalAdaOutLovelace uint64   `json:"total_ada_out_lovelace"`
	NetPnlLovelace      int64    `json:"net_pnl_lovelace"`
	AprPct              *float64 `json:"apr_pct"`
}

// DilutionModel summarizes dilution notes attached to liquidations, when any exist.
type DilutionModel struct {
	AnnotatedLiquidations  uint64 `json:"annotated_liquidations"`
	DilutionEffectLovelace uint64 `json:"dilution_effect_lovelace"`
}
