package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"expert_review_backend/internal/config"
	"expert_review_backend/internal/model"
	"expert_review_backend/internal/report"
	"expert_review_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRenderer 记录渲染次数，可注入失败
type countingRenderer struct {
	inner report.Renderer
	mu    sync.Mutex
	calls int
	err   error
}

func (r *countingRenderer) Render(ctx context.Context, doc *report.Document, filename string, progress report.ProgressFunc) (*report.Artifact, error) {
	r.mu.Lock()
	r.calls++
	err := r.err
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return r.inner.Render(ctx, doc, filename, progress)
}

func (r *countingRenderer) Extension() string {
	return r.inner.Extension()
}

func newReportFixture(t *testing.T, cache ArtifactStore, storage *StorageService) (*fixture, *countingRenderer, *ReportService) {
	t.Helper()
	f := newFixture(t)
	renderer := &countingRenderer{inner: report.NewHTMLRenderer()}
	svc := NewReportService(f.service, f.users, f.settings, renderer, cache, storage)
	return f, renderer, svc
}

func TestFilename(t *testing.T) {
	theme := report.DefaultTheme()
	theme.LevelName = "Level 1"
	meta := report.Metadata{
		Username:      "Jane  O'Doe",
		AttemptNumber: 3,
		ReportDate:    time.Date(2026, 5, 6, 23, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, "SelfAssess_Level_1_Jane_ODoe_Attempt3_2026-05-06.pdf", Filename(theme, meta, "pdf"))
}

func TestBuildDocumentRequiresFinal(t *testing.T) {
	f, _, svc := newReportFixture(t, nil, nil)
	f.addSubmission(t, "sub-1", "level1", 3)
	ctx := context.Background()

	_, err := svc.BuildDocument(ctx, "sub-1")
	assert.ErrorIs(t, err, util.ErrReviewNotFound)

	_, err = f.service.SaveDraft(ctx, "sub-1", expertID, completeEdits(3, 10))
	require.NoError(t, err)
	_, err = svc.BuildDocument(ctx, "sub-1")
	assert.ErrorIs(t, err, util.ErrInvalidState)

	_, err = svc.BuildDocument(ctx, "missing")
	assert.ErrorIs(t, err, util.ErrSubmissionNotFound)
}

func TestBuildDocumentScenario(t *testing.T) {
	f, _, svc := newReportFixture(t, nil, nil)
	f.addSubmission(t, "sub-1", "level1", 20)
	ctx := context.Background()
	_, err := f.service.Finalize(ctx, "sub-1", expertID, completeEdits(20, 0))
	require.NoError(t, err)

	rc, err := svc.BuildDocument(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, 25, rc.Document.TotalPages)
	assert.Equal(t, 2, rc.Document.SummaryPages)
	assert.Equal(t, "Jane Doe", rc.Meta.Username)
	assert.Equal(t, "+1 555 0100", rc.Meta.PhoneNumber)
	assert.Equal(t, f.service.now(), rc.Meta.ReportDate)

	again, err := svc.BuildDocument(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, rc.Digest, again.Digest, "re-generation is byte-identical")
}

func TestGenerateUsesCache(t *testing.T) {
	cache, err := NewArtifactCache(newFakeRedis(), time.Minute)
	require.NoError(t, err)
	f, renderer, svc := newReportFixture(t, cache, nil)
	f.addSubmission(t, "sub-1", "level1", 9)
	ctx := context.Background()
	_, err = f.service.Finalize(ctx, "sub-1", expertID, completeEdits(9, 70))
	require.NoError(t, err)

	var progress []int
	first, rc, err := svc.Generate(ctx, "sub-1", func(p int) { progress = append(progress, p) })
	require.NoError(t, err)
	assert.Equal(t, "SelfAssess_level1_Jane_Doe_Attempt2_2026-05-06.html", first.Filename)
	assert.Equal(t, 100, progress[len(progress)-1])
	assert.Equal(t, 2+2+9+1, rc.Document.TotalPages)

	second, _, err := svc.Generate(ctx, "sub-1", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, renderer.calls, "second download is served from cache")
	assert.Equal(t, first, second)
}

func TestGenerateRenderFailureIsRetryable(t *testing.T) {
	f, renderer, svc := newReportFixture(t, nil, nil)
	f.addSubmission(t, "sub-1", "level1", 2)
	ctx := context.Background()
	_, err := f.service.Finalize(ctx, "sub-1", expertID, completeEdits(2, 300))
	require.NoError(t, err)

	renderer.err = errors.New("converter timeout")
	_, _, err = svc.Generate(ctx, "sub-1", nil)
	assert.ErrorIs(t, err, util.ErrRenderFailure)

	stored, err := f.reviews.FindBySubmission(ctx, "sub-1")
	require.NoError(t, err)
	assert.True(t, stored.IsFinal(), "a render failure never touches the review")

	renderer.err = nil
	art, _, err := svc.Generate(ctx, "sub-1", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, art.Data)
}

func TestExportToLocalStorage(t *testing.T) {
	dir := t.TempDir()
	storage := NewStorageService(&config.Config{Storage: config.StorageConfig{Type: util.StorageLocal, LocalPath: dir}})
	f, _, svc := newReportFixture(t, nil, storage)
	f.addSubmission(t, "sub-1", "level1", 1)
	ctx := context.Background()
	_, err := f.service.Finalize(ctx, "sub-1", expertID, completeEdits(1, 500))
	require.NoError(t, err)

	res, err := svc.Export(ctx, "sub-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.URL, "/uploads/reports/sub-1/"))
	assert.Equal(t, 5, res.Pages)

	data, err := os.ReadFile(filepath.Join(dir, "reports", "sub-1", res.Filename))
	require.NoError(t, err)
	assert.Len(t, data, res.Size)
}

func TestNewRenderer(t *testing.T) {
	r, err := NewRenderer(config.RendererConfig{Type: "html"})
	require.NoError(t, err)
	assert.Equal(t, "html", r.Extension())

	r, err = NewRenderer(config.RendererConfig{Type: "remote", RemoteURL: "http://renderer:3000/convert", Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "pdf", r.Extension())

	_, err = NewRenderer(config.RendererConfig{Type: "docx"})
	assert.Error(t, err)
}

func TestReportSettingsApply(t *testing.T) {
	s := testSettings(t)
	assert.Equal(t, "[T+V]", s.ThemeForLevel("LEVEL2").Icon("MIXED"))

	agg, err := s.AggregatorForLevel("unknown-level")
	require.NoError(t, err)
	assert.Equal(t, "standard", agg.Table.Name(), "unknown levels use the default theme")

	bad := testConfig()
	bad.Report.Themes["level1"] = config.ThemeConfig{FirstPageCapacity: 0, OverflowPageCapacity: 12}
	assert.Error(t, s.Apply(bad))
	assert.Equal(t, 8, s.ThemeForLevel("level1").Capacity.FirstPage, "failed reload keeps previous settings")
}

func TestComposerPairsThemeWithItsPreset(t *testing.T) {
	s := testSettings(t)
	standard := testConfig()
	compact := testConfig()
	compact.Report.Themes["level1"] = compact.Report.Themes["level2"]

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			cfg := standard
			if i%2 == 1 {
				cfg = compact
			}
			assert.NoError(t, s.Apply(cfg))
		}
	}()

	for i := 0; i < 200; i++ {
		c, err := s.Composer("level1")
		require.NoError(t, err)
		assert.Equal(t, c.Theme.ThresholdPreset, c.Aggregator.Table.Name())
	}
	<-done
}

// countingSource 统计已定稿评审的读取次数
type countingSource struct {
	inner FinalReviewSource
	calls int
}

func (c *countingSource) GetFinal(ctx context.Context, submissionID string) (*model.Submission, *model.Review, error) {
	c.calls++
	return c.inner.GetFinal(ctx, submissionID)
}

func TestGenerateFromReusesBuiltDocument(t *testing.T) {
	f := newFixture(t)
	f.addSubmission(t, "sub-1", "level1", 3)
	ctx := context.Background()
	_, err := f.service.Finalize(ctx, "sub-1", expertID, completeEdits(3, 100))
	require.NoError(t, err)

	source := &countingSource{inner: f.service}
	storage := &StorageService{Provider: &LocalStorageProvider{Config: &config.StorageConfig{LocalPath: t.TempDir()}}}
	svc := NewReportService(source, f.users, f.settings, report.NewHTMLRenderer(), nil, storage)

	rc, err := svc.BuildDocument(ctx, "sub-1")
	require.NoError(t, err)
	art, err := svc.GenerateFrom(ctx, rc, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, art.Data)
	result, err := svc.ExportFrom(ctx, rc)
	require.NoError(t, err)
	assert.Equal(t, rc.Document.TotalPages, result.Pages)

	assert.Equal(t, 1, source.calls)
}
