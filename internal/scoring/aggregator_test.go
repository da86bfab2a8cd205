package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func standardAggregator(t *testing.T) Aggregator {
	t.Helper()
	agg, err := DefaultRegistry().Aggregator(PresetStandard)
	require.NoError(t, err)
	return agg
}

func TestAggregateClampsIntoScale(t *testing.T) {
	agg := standardAggregator(t)

	for raw := -200; raw <= 1200; raw += 7 {
		res := agg.Aggregate([]int{raw})
		require.Equal(t, raw, res.RawTotal)
		require.GreaterOrEqual(t, res.ClampedTotal, 350)
		require.LessOrEqual(t, res.ClampedTotal, 900)
		if raw >= 350 && raw <= 900 {
			require.Equal(t, raw, res.ClampedTotal)
		}
	}
}

func TestAggregateEmptyScores(t *testing.T) {
	res := standardAggregator(t).Aggregate(nil)
	assert.Equal(t, 0, res.RawTotal)
	assert.Equal(t, 350, res.ClampedTotal)
	assert.Equal(t, "Needs Improvement", res.Label)
}

func TestAggregateScenarios(t *testing.T) {
	tests := []struct {
		name        string
		scores      []int
		wantRaw     int
		wantClamped int
		wantLabel   string
	}{
		{"eight perfect answers", []int{100, 100, 100, 100, 100, 100, 100, 100}, 800, 800, "Outstanding"},
		{"twenty zeros hit the floor", make([]int, 20), 0, 350, "Needs Improvement"},
		{"above ceiling", []int{500, 500}, 1000, 900, "Outstanding"},
		{"excellent boundary", []int{350, 350}, 700, 700, "Excellent"},
		{"just under very good", []int{599}, 599, 599, "Good"},
		{"satisfactory", []int{200, 210}, 410, 410, "Satisfactory"},
	}
	agg := standardAggregator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := agg.Aggregate(tt.scores)
			assert.Equal(t, tt.wantRaw, res.RawTotal)
			assert.Equal(t, tt.wantClamped, res.ClampedTotal)
			assert.Equal(t, tt.wantLabel, res.Label)
		})
	}
}

func TestLabelIsMonotonic(t *testing.T) {
	reg := DefaultRegistry()
	for _, preset := range reg.Names() {
		agg, err := reg.Aggregator(preset)
		require.NoError(t, err)
		prev := agg.Table.Rank(agg.Scale.Min)
		for v := agg.Scale.Min + 1; v <= agg.Scale.Max; v++ {
			r := agg.Table.Rank(v)
			require.GreaterOrEqualf(t, r, prev, "preset %s: rank dropped at %d", preset, v)
			prev = r
		}
	}
}

func TestCompactPreset(t *testing.T) {
	agg, err := DefaultRegistry().Aggregator(PresetCompact)
	require.NoError(t, err)

	assert.Equal(t, "Excellent", agg.Aggregate([]int{700}).Label)
	assert.Equal(t, "Good", agg.Aggregate([]int{550}).Label)
	assert.Equal(t, "Needs Improvement", agg.Aggregate([]int{549}).Label)
}

func TestThresholdTableSortsBands(t *testing.T) {
	table, err := NewThresholdTable("shuffled", []Band{
		{Min: 0, Label: "low"},
		{Min: 800, Label: "top"},
		{Min: 500, Label: "mid"},
	})
	require.NoError(t, err)
	assert.Equal(t, []Band{{800, "top"}, {500, "mid"}, {0, "low"}}, table.Bands())
	assert.Equal(t, "mid", table.Label(650))
	assert.Equal(t, "low", table.Label(-10))
}

func TestThresholdTableRejectsBadInput(t *testing.T) {
	_, err := NewThresholdTable("empty", nil)
	assert.Error(t, err)

	_, err = NewThresholdTable("dup", []Band{{Min: 500, Label: "a"}, {Min: 500, Label: "b"}})
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	reg := DefaultRegistry()

	_, err := reg.Aggregator("missing")
	assert.Error(t, err)

	def, err := reg.Aggregator("")
	require.NoError(t, err)
	assert.Equal(t, PresetStandard, def.Table.Name())

	err = reg.Reload(Scale{Min: 900, Max: 350}, PresetStandard, map[string][]Band{PresetStandard: StandardBands})
	assert.Error(t, err)

	err = reg.Reload(Scale{Min: 0, Max: 100}, "pass", map[string][]Band{"pass": {{Min: 50, Label: "Pass"}, {Min: 0, Label: "Fail"}}})
	require.NoError(t, err)
	agg, err := reg.Aggregator("")
	require.NoError(t, err)
	assert.Equal(t, Result{RawTotal: 120, ClampedTotal: 100, Label: "Pass"}, agg.Aggregate([]int{60, 60}))
	assert.Equal(t, []string{"pass"}, reg.Names())
}
