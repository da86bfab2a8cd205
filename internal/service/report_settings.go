package service

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"expert_review_backend/internal/config"
	"expert_review_backend/internal/model"
	"expert_review_backend/internal/report"
	"expert_review_backend/internal/scoring"
)

// ReportSettings 持有评分预设与报告主题，可在配置热更新时整体替换
type ReportSettings struct {
	mu       sync.RWMutex
	registry *scoring.Registry
	themes   *report.ThemeSet
	platform string
}

func NewReportSettings(cfg *config.Config) (*ReportSettings, error) {
	s := &ReportSettings{}
	if err := s.Apply(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// Apply rebuilds presets and themes from cfg. On error the previous settings stay in place.
func (s *ReportSettings) Apply(cfg *config.Config) error {
	scale := scoring.Scale{Min: cfg.Scoring.Min, Max: cfg.Scoring.Max}
	presets := make(map[string][]scoring.Band, len(cfg.Scoring.Presets))
	for name, bands := range cfg.Scoring.Presets {
		out := make([]scoring.Band, len(bands))
		for i, b := range bands {
			out[i] = scoring.Band{Min: b.Min, Label: b.Label}
		}
		presets[name] = out
	}
	registry, err := scoring.NewRegistry(scale, cfg.Scoring.DefaultPreset, presets)
	if err != nil {
		return err
	}

	themes := make([]report.Theme, 0, len(cfg.Report.Themes))
	for name, tc := range cfg.Report.Themes {
		themes = append(themes, ThemeFromConfig(name, cfg.Report.Platform, tc))
	}
	// 固定顺序，保证错误信息稳定
	sort.Slice(themes, func(i, j int) bool { return themes[i].Name < themes[j].Name })
	themeSet, err := report.NewThemeSet(cfg.Report.DefaultTheme, themes...)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry = registry
	s.themes = themeSet
	s.platform = cfg.Report.Platform
	return nil
}

// ThemeFromConfig 将配置项转换为报告主题；未配置的文案沿用默认主题
func ThemeFromConfig(name, platform string, tc config.ThemeConfig) report.Theme {
	t := report.DefaultTheme()
	t.Name = strings.ToLower(name)
	if platform != "" {
		t.PlatformName = platform
	}
	if tc.LevelName != "" {
		t.LevelName = tc.LevelName
	} else {
		t.LevelName = name
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&t.Copy.CoverTitle, tc.CoverTitle)
	set(&t.Copy.CoverSubtitle, tc.CoverSubtitle)
	set(&t.Copy.DetailsHeading, tc.DetailsHeading)
	set(&t.Copy.DetailsIntro, tc.DetailsIntro)
	set(&t.Copy.SummaryHeading, tc.SummaryHeading)
	set(&t.Copy.ContinuationHeading, tc.ContinuationHeading)
	set(&t.Copy.InterpretationNote, tc.InterpretationNote)
	set(&t.Copy.QuestionHeading, tc.QuestionHeading)
	set(&t.Copy.ClosingHeading, tc.ClosingHeading)
	set(&t.Copy.ClosingText, tc.ClosingText)

	// 容量不做兜底，0 由 Validate 报告为配置错误
	t.Capacity = report.Capacity{FirstPage: tc.FirstPageCapacity, OverflowPage: tc.OverflowPageCapacity}
	for mode, icon := range tc.AnswerModeIcons {
		t.AnswerModeIcons[model.InterviewMode(strings.ToUpper(mode))] = icon
	}
	t.ThresholdPreset = tc.ThresholdPreset
	return t
}

func (s *ReportSettings) ThemeForLevel(level string) report.Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.themes.ForLevel(level)
}

// AggregatorForLevel 使用该级别主题指定的阈值预设，未指定时取默认预设
func (s *ReportSettings) AggregatorForLevel(level string) (scoring.Aggregator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.aggregator(level, s.themes.ForLevel(level))
}

// aggregator 调用方需持有读锁
func (s *ReportSettings) aggregator(level string, theme report.Theme) (scoring.Aggregator, error) {
	agg, err := s.registry.Aggregator(theme.ThresholdPreset)
	if err != nil {
		return scoring.Aggregator{}, fmt.Errorf("level %q: %w", level, err)
	}
	return agg, nil
}

// Composer 返回该级别的报告组装器，主题与阈值取自同一份配置
func (s *ReportSettings) Composer(level string) (*report.Composer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	theme := s.themes.ForLevel(level)
	agg, err := s.aggregator(level, theme)
	if err != nil {
		return nil, err
	}
	return report.NewComposer(theme, agg), nil
}

func (s *ReportSettings) Platform() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.platform
}
