package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"expert_review_backend/internal/config"
	"expert_review_backend/internal/model"
	"expert_review_backend/internal/repository"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	theme := func(preset string) config.ThemeConfig {
		return config.ThemeConfig{
			FirstPageCapacity:    8,
			OverflowPageCapacity: 12,
			ThresholdPreset:      preset,
			AnswerModeIcons:      map[string]string{"text": "[T]", "voice": "[V]", "mixed": "[T+V]"},
		}
	}
	return &config.Config{
		Scoring: config.ScoringConfig{
			Min:           350,
			Max:           900,
			DefaultPreset: "standard",
			Presets: map[string][]config.ThresholdConfig{
				"standard": {
					{Min: 800, Label: "Outstanding"},
					{Min: 700, Label: "Excellent"},
					{Min: 600, Label: "Very Good"},
					{Min: 500, Label: "Good"},
					{Min: 400, Label: "Satisfactory"},
					{Min: 0, Label: "Needs Improvement"},
				},
				"compact": {
					{Min: 700, Label: "Excellent"},
					{Min: 550, Label: "Good"},
					{Min: 0, Label: "Needs Improvement"},
				},
			},
		},
		Report: config.ReportConfig{
			Platform:     "SelfAssess",
			DefaultTheme: "level1",
			Themes: map[string]config.ThemeConfig{
				"level1": theme("standard"),
				"level2": theme("compact"),
			},
		},
	}
}

func testSettings(t *testing.T) *ReportSettings {
	t.Helper()
	s, err := NewReportSettings(testConfig())
	require.NoError(t, err)
	return s
}

// recordingNotifier 记录每次通知
type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (n *recordingNotifier) SendReviewComplete(ctx context.Context, userID uint, submissionID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, fmt.Sprintf("%d:%s", userID, submissionID))
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

type fixture struct {
	submissions *repository.MemorySubmissionStore
	reviews     *repository.MemoryReviewStore
	users       *repository.MemoryUserStore
	notifier    *recordingNotifier
	service     *ReviewService
	settings    *ReportSettings
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reviews := repository.NewMemoryReviewStore()
	f := &fixture{
		submissions: repository.NewMemorySubmissionStore(reviews),
		reviews:     reviews,
		users: repository.NewMemoryUserStore(model.User{
			BaseModel:   model.BaseModel{ID: 7},
			Name:        "Jane Doe",
			Email:       "jane@example.com",
			PhoneNumber: "+1 555 0100",
			Role:        model.Candidate,
		}),
		notifier: &recordingNotifier{},
		settings: testSettings(t),
	}
	f.service = NewReviewService(f.submissions, f.reviews, f.settings, f.notifier)
	f.service.now = func() time.Time { return time.Date(2026, 5, 6, 9, 30, 0, 0, time.UTC) }
	return f
}

// addSubmission 存入含 n 道题的提交，题目 ID 为 order*10
func (f *fixture) addSubmission(t *testing.T, id, level string, n int) *model.Submission {
	t.Helper()
	answers := make([]model.QuestionAnswer, n)
	for i := range answers {
		answers[i] = model.QuestionAnswer{
			SubmissionID: id,
			QuestionID:   uint((i + 1) * 10),
			Order:        i + 1,
			QuestionText: fmt.Sprintf("Question %d", i+1),
			Answer:       model.Answer{Mode: model.ModeText, TextPart: "answer"},
		}
	}
	sub := model.Submission{
		UUIDBase:      model.UUIDBase{ID: id},
		UserID:        7,
		Level:         level,
		AttemptNumber: 2,
		InterviewMode: model.ModeText,
		SubmittedAt:   time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		Answers:       answers,
	}
	require.NoError(t, f.submissions.Store(context.Background(), sub))
	return &sub
}

// completeEdits 为前 n 题生成合法编辑
func completeEdits(n, score int) []QuestionEdit {
	edits := make([]QuestionEdit, n)
	for i := range edits {
		edits[i] = QuestionEdit{
			QuestionID: uint((i + 1) * 10),
			Score:      model.IntPtr(score),
			Remark:     strPtr(fmt.Sprintf("remark %d", i+1)),
		}
	}
	return edits
}

func strPtr(s string) *string {
	return &s
}

// fakeRedis implements the handful of commands the notifier and cache use.
type fakeRedis struct {
	redis.Cmdable
	mu         sync.Mutex
	kv         map[string]string
	published  map[string][]string
	publishErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{kv: map[string]string{}, published: map[string][]string{}}
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.kv[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.kv[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return redis.NewIntResult(0, f.publishErr)
	}
	var msg string
	switch m := message.(type) {
	case []byte:
		msg = string(m)
	default:
		msg = fmt.Sprint(m)
	}
	f.published[channel] = append(f.published[channel], msg)
	return redis.NewIntResult(1, nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.kv[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.kv[key] = string(v)
	default:
		f.kv[key] = fmt.Sprint(v)
	}
	return redis.NewStatusResult("OK", nil)
}
