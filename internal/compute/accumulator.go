package compute

import (
	"strings"

	"github.com/shopspring/decimal"

	"yieldScope/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Accumulator folds events into running totals. Every update is a commutative
// sum, so the result does not depend on event order.
type Accumulator struct {
	pool    StabilityPoolMetrics
	rob     RobMetrics
	staking IndyStakingMetrics

	totalIn  uint64
	totalOut uint64

	// filled-weighted premium: sum(pct * filled) / sum(filled)
	premiumWeighted decimal.Decimal
	premiumWeight   decimal.Decimal

	dilution *DilutionModel
}

func NewAccumulator() *Accumulator {
	return &Accumulator{
		premiumWeighted: decimal.Zero,
		premiumWeight:   decimal.Zero,
	}
}

func (a *Accumulator) AddEvent(ev model.Event) {
	switch p := ev.Payload.(type) {
	case model.PoolDeposit:
		a.pool.TotalDepositsLovelace = addSat(a.pool.TotalDepositsLovelace, p.AmountLovelace)
		a.totalIn = addSat(a.totalIn, p.AmountLovelace)
	case model.PoolWithdraw:
		a.pool.TotalWithdrawalsLovelace = addSat(a.pool.TotalWithdrawalsLovelace, p.AmountLovelace)
		a.totalOut = addSat(a.totalOut, p.AmountLovelace)
	case model.PoolLiquidation:
		a.pool.TotalLiquidationsReceived = addSat(a.pool.TotalLiquidationsReceived, p.AdaReceivedLovelace)
		a.pool.TotalRealizedPremiumLovelace = addSat(a.pool.TotalRealizedPremiumLovelace, p.RealizedPremiumLovelace)
		a.pool.LiquidationCount = addSat(a.pool.LiquidationCount, 1)
		a.totalOut = addSat(a.totalOut, p.AdaReceivedLovelace)
		a.addDilution(p.DilutionEffect)
	case model.OrderPlace:
		a.rob.TotalPlacedLovelace = addSat(a.rob.TotalPlacedLovelace, p.AmountLovelace)
		a.totalIn = addSat(a.totalIn, p.AmountLovelace)
	case model.OrderFill:
		a.applyFill(p)
	case model.StakingReward:
		a.staking.TotalRewardsLovelace = addSat(a.staking.TotalRewardsLovelace, p.AmountLovelace)
		a.staking.RewardTxCount = addSat(a.staking.RewardTxCount, 1)
		a.totalOut = addSat(a.totalOut, p.AmountLovelace)
	case model.PoolPremium:
		a.staking.TotalSpPremiumLovelace = addSat(a.staking.TotalSpPremiumLovelace, p.AmountLovelace)
		a.totalOut = addSat(a.totalOut, p.AmountLovelace)
	}
}

func (a *Accumulator) applyFill(p model.OrderFill) {
	a.rob.TotalFilledLovelace = addSat(a.rob.TotalFilledLovelace, p.FilledLovelace)
	a.rob.FillCount = addSat(a.rob.FillCount, 1)
	a.totalOut = addSat(a.totalOut, p.FilledLovelace)

	if p.PremiumPct == nil {
		return
	}
	filled := lovelaceDecimal(p.FilledLovelace)
	weighted := decimal.NewFromFloat(*p.PremiumPct).Mul(filled)

	premium := toLovelace(weighted.Div(hundred))
	a.rob.TotalPremiumReceivedLovelace = addSat(a.rob.TotalPremiumReceivedLovelace, premium)

	a.premiumWeighted = a.premiumWeighted.Add(weighted)
	a.premiumWeight = a.premiumWeight.Add(filled)
}

func (a *Accumulator) addDilution(note *string) {
	if note == nil {
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(*note))
	if err != nil {
		return
	}
	if a.dilution == nil {
		a.dilution = &DilutionModel{}
	}
	a.dilution.AnnotatedLiquidations = addSat(a.dilution.AnnotatedLiquidations, 1)
	a.dilution.DilutionEffectLovelace = addSat(a.dilution.DilutionEffectLovelace, toLovelace(amount))
}

// Metrics returns the totals without the period-dependent APR.
func (a *Accumulator) Metrics() Metrics {
	pool := a.pool
	pool.NetAdaFromLiquidationsLovelace = signedDiff(pool.TotalLiquidationsReceived, pool.TotalDepositsLovelace)

	rob := a.rob
	if a.premiumWeight.Sign() > 0 {
		avg := a.premiumWeighted.Div(a.premiumWeight).InexactFloat64()
		rob.AvgPremiumPct = &avg
	}

	var dilution *DilutionModel
	if a.dilution != nil {
		d := *a.dilution
		dilution = &d
	}

	return Metrics{
		StabilityPool: pool,
		Rob:           rob,
		IndyStaking:   a.staking,
		Combined: CombinedMetrics{
			TotalAdaInLovelace:  a.totalIn,
			TotalAdaOutLovelace: a.totalOut,
			NetPnlLovelace:      signedDiff(a.totalOut, a.totalIn),
		},
		Dilution: dilution,
	}
}
