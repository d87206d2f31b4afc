package reconstruct

import (
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"yieldScope/internal/model"
)

// parseLovelace reads a decimal lovelace string. Anything that is not a
// non-negative integer fitting in uint64 counts as zero.
func parseLovelace(s string) uint64 {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() || !d.IsInteger() {
		return 0
	}
	n := d.BigInt()
	if !n.IsUint64() {
		return 0
	}
	return n.Uint64()
}

func addSat(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

// sumLovelace totals the ADA value of the UTXOs accepted by keep (all when keep is nil).
func sumLovelace(utxos []model.Utxo, keep func(model.Utxo) bool) uint64 {
	var total uint64
	for _, u := range utxos {
		if keep != nil && !keep(u) {
			continue
		}
		total = addSat(total, parseLovelace(u.Value))
	}
	return total
}

// premiumPct returns (out - in) / in * 100. in must be positive and below out.
func premiumPct(in, out uint64) float64 {
	din := lovelaceDecimal(in)
	gain := lovelaceDecimal(out).Sub(din)
	return gain.Div(din).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

func lovelaceDecimal(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}
