package scoring

import (
	"fmt"
	"sort"
	"sync"
)

const (
	PresetStandard = "standard"
	PresetCompact  = "compact"
)

// StandardBands 报告页使用的五档阈值
var StandardBands = []Band{
	{Min: 800, Label: "Outstanding"},
	{Min: 700, Label: "Excellent"},
	{Min: 600, Label: "Very Good"},
	{Min: 500, Label: "Good"},
	{Min: 400, Label: "Satisfactory"},
	{Min: 0, Label: "Needs Improvement"},
}

// CompactBands 结果列表页使用的两档阈值
// TODO: collapse into StandardBands once product confirms which table the 900-point scale uses.
var CompactBands = []Band{
	{Min: 700, Label: "Excellent"},
	{Min: 550, Label: "Good"},
	{Min: 0, Label: "Needs Improvement"},
}

// Registry holds named threshold presets and the scale they apply to.
// It is safe for concurrent use and can be replaced wholesale on config reload.
type Registry struct {
	mu            sync.RWMutex
	scale         Scale
	defaultPreset string
	tables        map[string]ThresholdTable
}

// NewRegistry builds a registry from raw preset definitions.
func NewRegistry(scale Scale, defaultPreset string, presets map[string][]Band) (*Registry, error) {
	r := &Registry{}
	if err := r.Reload(scale, defaultPreset, presets); err != nil {
		return nil, err
	}
	return r, nil
}

// DefaultRegistry returns the built-in standard and compact presets on the default scale.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultScale, PresetStandard, map[string][]Band{
		PresetStandard: StandardBands,
		PresetCompact:  CompactBands,
	})
	if err != nil {
		panic(err)
	}
	return r
}

// Reload validates the new definitions and swaps them in atomically.
func (r *Registry) Reload(scale Scale, defaultPreset string, presets map[string][]Band) error {
	if err := scale.Validate(); err != nil {
		return err
	}
	tables := make(map[string]ThresholdTable, len(presets))
	for name, bands := range presets {
		t, err := NewThresholdTable(name, bands)
		if err != nil {
			return err
		}
		tables[name] = t
	}
	if _, ok := tables[defaultPreset]; !ok {
		return fmt.Errorf("default preset %q is not defined", defaultPreset)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.scale = scale
	r.defaultPreset = defaultPreset
	r.tables = tables
	return nil
}

// Aggregator returns an aggregator for the named preset; empty name selects the default.
func (r *Registry) Aggregator(preset string) (Aggregator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if preset == "" {
		preset = r.defaultPreset
	}
	t, ok := r.tables[preset]
	if !ok {
		return Aggregator{}, fmt.Errorf("unknown threshold preset %q", preset)
	}
	return NewAggregator(r.scale, t), nil
}

// Names lists the registered presets in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tables))
	for n := range r.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
