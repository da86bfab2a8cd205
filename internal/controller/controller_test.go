package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"expert_review_backend/internal/config"
	"expert_review_backend/internal/model"
	"expert_review_backend/internal/report"
	"expert_review_backend/internal/repository"
	"expert_review_backend/internal/service"
	"expert_review_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ownerID  = 7
	expertID = 3
	otherID  = 8
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testEnv struct {
	router      *gin.Engine
	submissions *repository.MemorySubmissionStore
	notified    []string
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Scoring: config.ScoringConfig{
			Min:           350,
			Max:           900,
			DefaultPreset: "standard",
			Presets: map[string][]config.ThresholdConfig{
				"standard": {
					{Min: 800, Label: "Outstanding"},
					{Min: 600, Label: "Very Good"},
					{Min: 0, Label: "Needs Improvement"},
				},
			},
		},
		Report: config.ReportConfig{
			Platform:     "SelfAssess",
			DefaultTheme: "level1",
			Themes: map[string]config.ThemeConfig{
				"level1": {
					LevelName:            "Level 1",
					FirstPageCapacity:    8,
					OverflowPageCapacity: 12,
				},
			},
		},
		Storage: config.StorageConfig{Type: util.StorageLocal, LocalPath: t.TempDir()},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := testConfig(t)

	reviews := repository.NewMemoryReviewStore()
	env := &testEnv{submissions: repository.NewMemorySubmissionStore(reviews)}
	users := repository.NewMemoryUserStore(model.User{
		BaseModel: model.BaseModel{ID: ownerID},
		Name:      "Jane Doe",
		Email:     "jane@example.com",
		Role:      model.Candidate,
	})
	settings, err := service.NewReportSettings(cfg)
	require.NoError(t, err)

	notifier := service.NotifierFunc(func(ctx context.Context, userID uint, submissionID string) error {
		env.notified = append(env.notified, submissionID)
		return nil
	})
	reviewSvc := service.NewReviewService(env.submissions, reviews, settings, notifier)
	reportSvc := service.NewReportService(reviewSvc, users, settings, report.NewHTMLRenderer(), nil, service.NewStorageService(cfg))

	rc := NewReviewController(reviewSvc)
	pc := NewReportController(reportSvc, reviewSvc)

	r := gin.New()
	// 测试中以请求头模拟已登录用户
	r.Use(func(c *gin.Context) {
		var id uint
		var role model.UserRole
		fmt.Sscanf(c.GetHeader("X-Test-User"), "%d:%s", &id, &role)
		if id != 0 {
			c.Set("user", &util.Claims{UserID: id, Role: role})
		}
		c.Next()
	})
	r.GET("/api/expert/reviews/pending", rc.ListPending)
	r.GET("/api/expert/submissions/:id/review", rc.OpenForReview)
	r.PUT("/api/expert/submissions/:id/review/draft", rc.SaveDraft)
	r.POST("/api/expert/submissions/:id/review/finalize", rc.Finalize)
	r.GET("/api/submissions/:id/review", rc.GetReview)
	r.GET("/api/submissions/:id/report", pc.Download)
	r.GET("/api/submissions/:id/report/pages", pc.Pages)
	r.POST("/api/submissions/:id/report/export", pc.Export)
	env.router = r
	return env
}

func (e *testEnv) addSubmission(t *testing.T, n int, submittedAt time.Time) string {
	t.Helper()
	id := model.GenerateUUID()
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
	require.NoError(t, e.submissions.Store(context.Background(), model.Submission{
		UUIDBase:      model.UUIDBase{ID: id},
		UserID:        ownerID,
		Level:         "level1",
		AttemptNumber: 1,
		InterviewMode: model.ModeText,
		SubmittedAt:   submittedAt,
		Answers:       answers,
	}))
	return id
}

func (e *testEnv) do(method, path, user string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

var (
	expert    = fmt.Sprintf("%d:%s", expertID, model.Expert)
	owner     = fmt.Sprintf("%d:%s", ownerID, model.Candidate)
	stranger  = fmt.Sprintf("%d:%s", otherID, model.Candidate)
	fullMarks = ReviewRequest{QuestionReviews: []QuestionReviewRequest{
		{QuestionID: 10, Score: model.IntPtr(300), Remark: strPtr("clear")},
		{QuestionID: 20, Score: model.IntPtr(300), Remark: strPtr("thorough")},
		{QuestionID: 30, Score: model.IntPtr(300), Remark: strPtr("concise")},
	}}
)

func strPtr(s string) *string {
	return &s
}

func TestReviewLifecycle(t *testing.T) {
	env := newTestEnv(t)
	id := env.addSubmission(t, 3, time.Now())
	base := "/api/expert/submissions/" + id + "/review"

	var view ReviewViewResponse
	w := env.do(http.MethodGet, base, expert, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &view)
	assert.Equal(t, service.StatusDraft, view.Status)
	assert.False(t, view.ReadOnly)
	assert.Len(t, view.QuestionAnswers, 3)
	require.NotNil(t, view.Review)
	assert.Len(t, view.Review.Items, 3)
	for _, it := range view.Review.Items {
		require.NotNil(t, it.Score)
		assert.Zero(t, *it.Score)
	}

	// 草稿不校验，负分按 0 保存
	w = env.do(http.MethodPut, base+"/draft", expert, ReviewRequest{QuestionReviews: []QuestionReviewRequest{
		{QuestionID: 10, Score: model.IntPtr(-5), Remark: strPtr("")},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// 缺少评语时拒绝定稿并列出全部问题
	w = env.do(http.MethodPost, base+"/finalize", expert, ReviewRequest{})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var failed ValidationFailedResult
	decode(t, w, &failed)
	assert.False(t, failed.Success)
	assert.Len(t, failed.Errors, 3)
	assert.Empty(t, env.notified)

	var result ReviewResult
	w = env.do(http.MethodPost, base+"/finalize", expert, fullMarks)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &result)
	assert.True(t, result.Success)
	assert.Equal(t, model.ReviewFinal, result.Review.Status)
	require.NotNil(t, result.Review.TotalScore)
	assert.Equal(t, 900, *result.Review.TotalScore)
	assert.Equal(t, "Outstanding", result.Review.Label)
	assert.Equal(t, []string{id}, env.notified)

	// 定稿后只读
	w = env.do(http.MethodPut, base+"/draft", expert, fullMarks)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = env.do(http.MethodPost, base+"/finalize", expert, fullMarks)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Len(t, env.notified, 1)

	w = env.do(http.MethodGet, base, expert, nil)
	decode(t, w, &view)
	assert.Equal(t, service.StatusFinal, view.Status)
	assert.True(t, view.ReadOnly)
}

func TestUnknownQuestionAndBadID(t *testing.T) {
	env := newTestEnv(t)
	id := env.addSubmission(t, 2, time.Now())

	w := env.do(http.MethodPut, "/api/expert/submissions/"+id+"/review/draft", expert, ReviewRequest{
		QuestionReviews: []QuestionReviewRequest{{QuestionID: 999, Score: model.IntPtr(1)}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/expert/submissions/not-a-uuid/review", expert, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/expert/submissions/"+model.GenerateUUID()+"/review", expert, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/api/expert/submissions/"+id+"/review", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetReviewVisibility(t *testing.T) {
	env := newTestEnv(t)
	id := env.addSubmission(t, 3, time.Now())
	path := "/api/submissions/" + id + "/review"

	var view ReviewViewResponse
	w := env.do(http.MethodGet, path, owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &view)
	assert.Equal(t, service.StatusPending, view.Status)
	assert.Nil(t, view.Review)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, path, stranger, nil).Code)

	env.do(http.MethodGet, "/api/expert/submissions/"+id+"/review", expert, nil)
	view = ReviewViewResponse{}
	decode(t, env.do(http.MethodGet, path, owner, nil), &view)
	assert.Equal(t, service.StatusDraft, view.Status)
	assert.Nil(t, view.Review, "draft scores stay hidden from the candidate")

	view = ReviewViewResponse{}
	decode(t, env.do(http.MethodGet, path, expert, nil), &view)
	assert.NotNil(t, view.Review)

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, path, stranger, nil).Code)

	env.do(http.MethodPost, "/api/expert/submissions/"+id+"/review/finalize", expert, fullMarks)
	view = ReviewViewResponse{}
	decode(t, env.do(http.MethodGet, path, owner, nil), &view)
	assert.Equal(t, service.StatusFinal, view.Status)
	require.NotNil(t, view.Review)
	assert.Equal(t, "Outstanding", view.Review.Label)
}

func TestListPending(t *testing.T) {
	env := newTestEnv(t)
	t0 := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	first := env.addSubmission(t, 1, t0)
	second := env.addSubmission(t, 1, t0.Add(time.Hour))
	done := env.addSubmission(t, 3, t0.Add(2*time.Hour))
	env.do(http.MethodPost, "/api/expert/submissions/"+done+"/review/finalize", expert, fullMarks)

	var page struct {
		List  []PendingItem `json:"list"`
		Total int64         `json:"total"`
		Page  int           `json:"page"`
		Limit int           `json:"limit"`
	}
	w := env.do(http.MethodGet, "/api/expert/reviews/pending?page=1&limit=1", expert, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &page)
	assert.EqualValues(t, 2, page.Total)
	require.Len(t, page.List, 1)
	assert.Equal(t, first, page.List[0].SubmissionID)

	decode(t, env.do(http.MethodGet, "/api/expert/reviews/pending?page=2&limit=1", expert, nil), &page)
	require.Len(t, page.List, 1)
	assert.Equal(t, second, page.List[0].SubmissionID)
}

func TestReportDownload(t *testing.T) {
	env := newTestEnv(t)
	id := env.addSubmission(t, 3, time.Now())
	path := "/api/submissions/" + id + "/report"

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, path, owner, nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, path, stranger, nil).Code)
	env.do(http.MethodGet, "/api/expert/submissions/"+id+"/review", expert, nil)
	assert.Equal(t, http.StatusConflict, env.do(http.MethodGet, path, owner, nil).Code, "drafts have no report")
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, path, stranger, nil).Code, "review state stays hidden from other candidates")
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, path+"/pages", stranger, nil).Code)

	env.do(http.MethodPost, "/api/expert/submissions/"+id+"/review/finalize", expert, fullMarks)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, path, stranger, nil).Code)

	w := env.do(http.MethodGet, path, owner, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "7", w.Header().Get("X-Report-Pages"))
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "SelfAssess_Level_1_Jane_Doe_Attempt1_")
	assert.Equal(t, 7, strings.Count(w.Body.String(), `<section class="page`))
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	again := env.do(http.MethodGet, path, owner, nil)
	assert.Equal(t, w.Body.String(), again.Body.String())
	assert.Equal(t, etag, again.Header().Get("ETag"))

	w = env.do(http.MethodGet, path, owner, nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, w.Code)

	var doc report.Document
	w = env.do(http.MethodGet, path+"/pages", expert, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &doc)
	assert.Equal(t, 7, doc.TotalPages)
	assert.Equal(t, etag, w.Header().Get("ETag"))
}

func TestReportExport(t *testing.T) {
	env := newTestEnv(t)
	id := env.addSubmission(t, 3, time.Now())
	env.do(http.MethodPost, "/api/expert/submissions/"+id+"/review/finalize", expert, fullMarks)

	var result service.ExportResult
	w := env.do(http.MethodPost, "/api/submissions/"+id+"/report/export", owner, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &result)
	assert.True(t, strings.HasPrefix(result.URL, "/uploads/reports/"+id+"/"), result.URL)
	assert.Equal(t, 7, result.Pages)
	assert.Positive(t, result.Size)
}
