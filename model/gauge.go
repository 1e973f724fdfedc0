package model

import "math"

// Gauge holds cumulative latency statistics in milliseconds.
type Gauge struct {
	BestMs  int64
	WorstMs int64
	TotalMs int64
	Count   int64
}

// NewGauge returns an empty gauge with best and worst set to their sentinels.
func NewGauge() Gauge {
	return Gauge{BestMs: math.MaxInt64, WorstMs: math.MinInt64}
}

// Append folds one sample into the gauge.
func (g *Gauge) Append(ms int64) {
	g.BestMs = min(g.BestMs, ms)
	g.WorstMs = max(g.WorstMs, ms)
	g.TotalMs += ms
	g.Count++
}

// Merge folds another gauge into g. Used to combine shards.
func (g *Gauge) Merge(o Gauge) {
	if o.Count == 0 {
		return
	}
	g.BestMs = min(g.BestMs, o.BestMs)
	g.WorstMs = max(g.WorstMs, o.WorstMs)
	g.TotalMs += o.TotalMs
	g.Count += o.Count
}

// AvgMs returns TotalMs/Count truncated toward zero. ok is false when there are no samples.
func (g Gauge) AvgMs() (avg int64, ok bool) {
	if g.Count == 0 {
		return 0, false
	}
	return g.TotalMs / g.Count, true
}

// Empty reports whether no samples have been recorded.
func (g Gauge) Empty() bool {
	return g.Count == 0
}

// Stats is the wire form of a gauge. Nil fields mean there is no data yet.
type Stats struct {
	Count   int64  `json:"count"`
	BestMs  *int64 `json:"best_ms"`
	AvgMs   *int64 `json:"avg_ms"`
	WorstMs *int64 `json:"worst_ms"`
}

// Stats converts the gauge to its wire form.
func (g Gauge) Stats() Stats {
	s := Stats{Count: g.Count}
	if avg, ok := g.AvgMs(); ok {
		best, worst := g.BestMs, g.WorstMs
		s.BestMs, s.AvgMs, s.WorstMs = &best, &avg, &worst
	}
	return s
}
