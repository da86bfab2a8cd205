package report

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"expert_review_backend/internal/model"
)

// Copy is the fixed wording a theme puts on each page kind.
type Copy struct {
	CoverTitle          string `json:"coverTitle"`
	CoverSubtitle       string `json:"coverSubtitle"`
	DetailsHeading      string `json:"detailsHeading"`
	DetailsIntro        string `json:"detailsIntro"`
	SummaryHeading      string `json:"summaryHeading"`
	ContinuationHeading string `json:"continuationHeading"`
	InterpretationNote  string `json:"interpretationNote"`
	QuestionHeading     string `json:"questionHeading"`
	ClosingHeading      string `json:"closingHeading"`
	ClosingText         string `json:"closingText"`
	EmptyState          string `json:"emptyState"`
}

// Theme parameterises the composer for one assessment level.
type Theme struct {
	Name            string
	PlatformName    string
	LevelName       string
	Copy            Copy
	Capacity        Capacity
	AnswerModeIcons map[model.InterviewMode]string
	ThresholdPreset string
}

// DefaultTheme 一级评估报告的默认主题
func DefaultTheme() Theme {
	return Theme{
		Name:         "level1",
		PlatformName: "SelfAssess",
		LevelName:    "Level1",
		Copy: Copy{
			CoverTitle:          "Interview Assessment Report",
			CoverSubtitle:       "Expert Review",
			DetailsHeading:      "Candidate Details",
			DetailsIntro:        "This report summarises the expert review of your interview submission.",
			SummaryHeading:      "Score Summary",
			ContinuationHeading: "Score Summary (continued)",
			InterpretationNote:  "Scores are reported on a 350-900 scale.",
			QuestionHeading:     "Question Review",
			ClosingHeading:      "Next Steps",
			ClosingText:         "Thank you for completing the assessment.",
			EmptyState:          "No questions were answered in this submission.",
		},
		Capacity: DefaultCapacity,
		AnswerModeIcons: map[model.InterviewMode]string{
			model.ModeText:  "[T]",
			model.ModeVoice: "[V]",
			model.ModeMixed: "[T+V]",
		},
	}
}

func (t Theme) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("theme name is required")
	}
	if err := t.Capacity.Validate(); err != nil {
		return fmt.Errorf("theme %q: %w", t.Name, err)
	}
	return nil
}

// Icon returns the marker for an answer mode, falling back to the mode name.
func (t Theme) Icon(mode model.InterviewMode) string {
	if icon, ok := t.AnswerModeIcons[mode]; ok {
		return icon
	}
	return string(mode)
}

// ThemeSet maps assessment levels to themes. Lookups of unknown levels get the default theme.
type ThemeSet struct {
	mu           sync.RWMutex
	themes       map[string]Theme
	defaultTheme string
}

func NewThemeSet(defaultTheme string, themes ...Theme) (*ThemeSet, error) {
	s := &ThemeSet{}
	if err := s.Reload(defaultTheme, themes...); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ThemeSet) Reload(defaultTheme string, themes ...Theme) error {
	m := make(map[string]Theme, len(themes))
	for _, t := range themes {
		if err := t.Validate(); err != nil {
			return err
		}
		m[strings.ToLower(t.Name)] = t
	}
	defaultTheme = strings.ToLower(defaultTheme)
	if _, ok := m[defaultTheme]; !ok {
		return fmt.Errorf("default theme %q is not defined", defaultTheme)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.themes = m
	s.defaultTheme = defaultTheme
	return nil
}

func (s *ThemeSet) ForLevel(level string) Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.themes[strings.ToLower(level)]; ok {
		return t
	}
	return s.themes[s.defaultTheme]
}

func (s *ThemeSet) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.themes))
	for n := range s.themes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
