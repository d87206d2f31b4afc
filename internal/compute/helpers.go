package compute

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

const secondsPerYear = 365.25 * 24 * 3600

func addSat(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

func subSat(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// signedDiff returns a - b clamped to the int64 range.
func signedDiff(a, b uint64) int64 {
	if a >= b {
		d := a - b
		if d > math.MaxInt64 {
			return math.MaxInt64
		}
		return int64(d)
	}
	d := b - a
	if d > math.MaxInt64 {
		return math.MinInt64
	}
	return -int64(d)
}

func lovelaceDecimal(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

// toLovelace truncates d toward zero and saturates into uint64.
func toLovelace(d decimal.Decimal) uint64 {
	if d.Sign() <= 0 {
		return 0
	}
	n := d.Truncate(0).BigInt()
	if !n.IsUint64() {
		return math.MaxUint64
	}
	return n.Uint64()
}

// computeAPR annualizes pnl over the period relative to position.
// Returns nil unless both period bounds are known.
func computeAPR(pnl int64, position uint64, start, end *int64) *float64 {
	if start == nil || end == nil {
		return nil
	}
	period := *end - *start
	if period < 1 {
		period = 1
	}
	if position < 1 {
		position = 1
	}
	gain := pnl
	if gain < 0 {
		gain = 0
	}
	apr := (float64(gain) / float64(position)) * (secondsPerYear / float64(period)) * 100
	return &apr
}
