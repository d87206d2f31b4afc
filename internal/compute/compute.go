package compute

import "yieldScope/internal/model"

// Input is everything the aggregation needs. Period bounds are unix seconds.
type Input struct {
	Events          model.EventSet
	PeriodStart     *int64
	PeriodEnd       *int64
	CurrentPosition *uint64
}

// Compute folds the event set into metrics. APR is set only when both period
// bounds are given; the position defaults to total in minus total out.
func Compute(in Input) Metrics {
	acc := NewAccumulator()
	for _, ev := range in.Events.All() {
		acc.AddEvent(ev)
	}
	m := acc.Metrics()

	position := subSat(m.Combined.TotalAdaInLovelace, m.Combined.TotalAdaOutLovelace)
	if in.CurrentPosition != nil {
		position = *in.CurrentPosition
	}
	m.Combined.AprPct = computeAPR(m.Combined.NetPnlLovelace, position, in.PeriodStart, in.PeriodEnd)
	return m
}
