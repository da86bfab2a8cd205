package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"expert_review_backend/internal/config"
	"expert_review_backend/internal/model"
	"expert_review_backend/internal/report"
	"expert_review_backend/internal/repository"
	"expert_review_backend/internal/util"
	"expert_review_backend/pkg/logger"
	"expert_review_backend/pkg/monitoring"
	"expert_review_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const exportLinkExpiry = 24 * time.Hour

// FinalReviewSource 报告只接受已定稿评审
type FinalReviewSource interface {
	GetFinal(ctx context.Context, submissionID string) (*model.Submission, *model.Review, error)
}

// ArtifactStore 渲染结果缓存
type ArtifactStore interface {
	Get(ctx context.Context, key string) (*report.Artifact, bool, error)
	Put(ctx context.Context, key string, art *report.Artifact) error
}

// ReportContext 一次报告生成的全部输入与组装结果
type ReportContext struct {
	Submission *model.Submission
	Review     *model.Review
	Theme      report.Theme
	Meta       report.Metadata
	Document   *report.Document
	Digest     string
}

// ExportResult 导出到存储后的下载信息
type ExportResult struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Digest   string `json:"digest"`
	Size     int    `json:"size"`
	Pages    int    `json:"pages"`
}

type ReportService struct {
	reviews  FinalReviewSource
	users    repository.UserStore
	settings *ReportSettings
	renderer report.Renderer
	cache    ArtifactStore
	storage  *StorageService
}

func NewReportService(
	reviews FinalReviewSource,
	users repository.UserStore,
	settings *ReportSettings,
	renderer report.Renderer,
	cache ArtifactStore,
	storage *StorageService,
) *ReportService {
	return &ReportService{
		reviews:  reviews,
		users:    users,
		settings: settings,
		renderer: renderer,
		cache:    cache,
		storage:  storage,
	}
}

// NewRenderer 按配置选择渲染方式
func NewRenderer(cfg config.RendererConfig) (report.Renderer, error) {
	switch cfg.Type {
	case "", util.RendererHTML:
		return report.NewHTMLRenderer(), nil
	case util.RendererRemote:
		return report.NewRemoteRenderer(cfg.RemoteURL, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unknown renderer type %q", cfg.Type)
	}
}

// Filename builds {platform}_{level}_{safeUsername}_Attempt{N}_{isoDate}.{ext}.
func Filename(theme report.Theme, meta report.Metadata, ext string) string {
	return fmt.Sprintf("%s_%s_%s_Attempt%d_%s.%s",
		util.SafeFilenamePart(theme.PlatformName),
		util.SafeFilenamePart(theme.LevelName),
		util.SafeFilenamePart(meta.Username),
		meta.AttemptNumber,
		meta.ReportDate.Format(util.DateFormat),
		ext,
	)
}

// metadata 报告日期取定稿时间，重复下载得到相同文档
func (s *ReportService) metadata(ctx context.Context, sub *model.Submission, review *model.Review) report.Metadata {
	meta := report.Metadata{
		AttemptNumber: sub.AttemptNumber,
		InterviewMode: sub.InterviewMode,
	}
	if review.FinalizedAt != nil {
		meta.ReportDate = *review.FinalizedAt
	}

	user := sub.User
	if user == nil && s.users != nil {
		u, err := s.users.FindByID(ctx, sub.UserID)
		if err != nil {
			logger.Log.Warn("Report owner lookup failed",
				zap.String("submissionId", sub.ID),
				zap.Uint("userId", sub.UserID),
				zap.Error(err))
		} else {
			user = u
		}
	}
	if user != nil {
		meta.Username = user.Name
		meta.Email = user.Email
		meta.PhoneNumber = user.PhoneNumber
	}
	return meta
}

// BuildDocument composes the page descriptions for a FINAL review.
func (s *ReportService) BuildDocument(ctx context.Context, submissionID string) (*ReportContext, error) {
	sub, review, err := s.reviews.GetFinal(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	composer, err := s.settings.Composer(sub.Level)
	if err != nil {
		return nil, err
	}
	meta := s.metadata(ctx, sub, review)

	doc, err := composer.Compose(review, sub.Answers, meta)
	if errors.Is(err, report.ErrReviewNotFinal) {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidState, err)
	}
	if err != nil {
		return nil, err
	}
	digest, err := doc.Digest()
	if err != nil {
		return nil, err
	}
	monitoring.ReportPages.Observe(float64(doc.TotalPages))

	return &ReportContext{
		Submission: sub,
		Review:     review,
		Theme:      composer.Theme,
		Meta:       meta,
		Document:   doc,
		Digest:     digest,
	}, nil
}

// Generate composes and renders the report. Render errors are wrapped in
// util.ErrRenderFailure and are safe to retry; the review is only read.
func (s *ReportService) Generate(ctx context.Context, submissionID string, progress report.ProgressFunc) (*report.Artifact, *ReportContext, error) {
	ctx, span := tracing.StartSpan(ctx, "ReportService.Generate", attribute.String("submission.id", submissionID))
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	rc, err := s.BuildDocument(ctx, submissionID)
	if err != nil {
		return nil, nil, err
	}
	art, err := s.GenerateFrom(ctx, rc, progress)
	if err != nil {
		return nil, nil, err
	}
	return art, rc, nil
}

// GenerateFrom renders an already composed document, for callers that built it to
// check access or ETags first.
func (s *ReportService) GenerateFrom(ctx context.Context, rc *ReportContext, progress report.ProgressFunc) (*report.Artifact, error) {
	submissionID := rc.Submission.ID
	ctx, span := tracing.StartSpan(ctx, "ReportService.GenerateFrom",
		attribute.String("submission.id", submissionID),
		attribute.Int("report.pages", rc.Document.TotalPages))
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	key := ArtifactKey(rc.Digest, s.renderer.Extension())
	if s.cache != nil {
		art, ok, cerr := s.cache.Get(ctx, key)
		if cerr != nil {
			logger.Log.Warn("Artifact cache read failed", zap.String("key", key), zap.Error(cerr))
		}
		if ok {
			if progress != nil {
				progress(100)
			}
			return art, nil
		}
	}

	filename := Filename(rc.Theme, rc.Meta, s.renderer.Extension())
	start := time.Now()
	_, rspan := tracing.StartSpan(ctx, "Renderer.Render", attribute.String("report.filename", filename))
	art, rerr := s.renderer.Render(ctx, rc.Document, filename, progress)
	tracing.EndSpan(rspan, rerr)

	status := "ok"
	if rerr != nil {
		status = "failed"
	}
	monitoring.ReportRenderDuration.WithLabelValues(s.renderer.Extension(), status).Observe(time.Since(start).Seconds())
	if rerr != nil {
		logger.Log.Error("Report render failed",
			zap.String("submissionId", submissionID),
			zap.String("filename", filename),
			zap.Error(rerr))
		err = fmt.Errorf("%w: %v", util.ErrRenderFailure, rerr)
		return nil, err
	}

	if s.cache != nil {
		if cerr := s.cache.Put(ctx, key, art); cerr != nil {
			logger.Log.Warn("Artifact cache write failed", zap.String("key", key), zap.Error(cerr))
		}
	}
	return art, nil
}

// Export renders the report and uploads it under reports/{submissionID}/.
func (s *ReportService) Export(ctx context.Context, submissionID string) (*ExportResult, error) {
	rc, err := s.BuildDocument(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	return s.ExportFrom(ctx, rc)
}

func (s *ReportService) ExportFrom(ctx context.Context, rc *ReportContext) (*ExportResult, error) {
	if s.storage == nil {
		return nil, errors.New("report export storage is not configured")
	}
	art, err := s.GenerateFrom(ctx, rc, nil)
	if err != nil {
		return nil, err
	}
	submissionID := rc.Submission.ID

	object := path.Join("reports", submissionID, art.Filename)
	if _, err := s.storage.Upload(ctx, object, bytes.NewReader(art.Data), int64(len(art.Data)), art.ContentType); err != nil {
		return nil, fmt.Errorf("upload report: %w", err)
	}
	url, err := s.storage.DownloadURL(ctx, object, exportLinkExpiry)
	if err != nil {
		return nil, fmt.Errorf("sign report url: %w", err)
	}
	logger.Log.Info("Report exported",
		zap.String("submissionId", submissionID),
		zap.String("object", object),
		zap.Int("bytes", len(art.Data)))

	return &ExportResult{
		Filename: art.Filename,
		URL:      url,
		Digest:   rc.Digest,
		Size:     len(art.Data),
		Pages:    rc.Document.TotalPages,
	}, nil
}
