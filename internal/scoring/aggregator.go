// Package scoring turns per-question scores into a bounded total and a qualitative label.
package scoring

import (
	"fmt"
	"sort"
)

// Scale is the published scoring range totals are clamped into.
type Scale struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// DefaultScale 平台公开的 350-900 分制
var DefaultScale = Scale{Min: 350, Max: 900}

func (s Scale) Validate() error {
	if s.Min >= s.Max {
		return fmt.Errorf("scale min %d must be below max %d", s.Min, s.Max)
	}
	return nil
}

// Clamp forces v into [Min, Max].
func (s Scale) Clamp(v int) int {
	if v < s.Min {
		return s.Min
	}
	if v > s.Max {
		return s.Max
	}
	return v
}

// Band labels every total at or above Min, unless a higher band matched first.
type Band struct {
	Min   int    `json:"min"`
	Label string `json:"label"`
}

// ThresholdTable holds bands ordered highest-first. The lowest band acts as the fallback.
type ThresholdTable struct {
	name  string
	bands []Band
}

func NewThresholdTable(name string, bands []Band) (ThresholdTable, error) {
	if len(bands) == 0 {
		return ThresholdTable{}, fmt.Errorf("threshold table %q has no bands", name)
	}
	sorted := make([]Band, len(bands))
	copy(sorted, bands)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Min > sorted[j].Min })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Min == sorted[i-1].Min {
			return ThresholdTable{}, fmt.Errorf("threshold table %q has two bands at %d", name, sorted[i].Min)
		}
	}
	return ThresholdTable{name: name, bands: sorted}, nil
}

func (t ThresholdTable) Name() string {
	return t.name
}

// Bands returns a copy of the bands, highest-first.
func (t ThresholdTable) Bands() []Band {
	out := make([]Band, len(t.bands))
	copy(out, t.bands)
	return out
}

// Label returns the label of the highest band whose Min is <= total.
// Totals below every band get the lowest band's label.
func (t ThresholdTable) Label(total int) string {
	if len(t.bands) == 0 {
		return ""
	}
	for _, b := range t.bands {
		if total >= b.Min {
			return b.Label
		}
	}
	return t.bands[len(t.bands)-1].Label
}

// Rank is the band index counted from the bottom; a higher rank is a better band.
func (t ThresholdTable) Rank(total int) int {
	for i, b := range t.bands {
		if total >= b.Min {
			return len(t.bands) - 1 - i
		}
	}
	return 0
}

// Result 汇总结果
type Result struct {
	RawTotal     int    `json:"rawTotal"`
	ClampedTotal int    `json:"clampedTotal"`
	Label        string `json:"label"`
}

// Aggregator is a pure function of its scale and threshold table.
type Aggregator struct {
	Scale Scale
	Table ThresholdTable
}

func NewAggregator(scale Scale, table ThresholdTable) Aggregator {
	return Aggregator{Scale: scale, Table: table}
}

// Aggregate sums the scores, clamps the sum into the scale and labels the clamped total.
// No per-question upper bound is applied here.
func (a Aggregator) Aggregate(scores []int) Result {
	raw := 0
	for _, s := range scores {
		raw += s
	}
	clamped := a.Scale.Clamp(raw)
	return Result{
		RawTotal:     raw,
		ClampedTotal: clamped,
		Label:        a.Table.Label(clamped),
	}
}
