package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expert_review_backend/internal/model"
	"expert_review_backend/internal/repository"
	"expert_review_backend/internal/scoring"
	"expert_review_backend/internal/util"
	"expert_review_backend/pkg/logger"
	"expert_review_backend/pkg/monitoring"
	"expert_review_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// DisplayStatus 面向展示的评审状态，PENDING 表示尚未创建评审
type DisplayStatus string

const (
	StatusPending DisplayStatus = "PENDING"
	StatusDraft   DisplayStatus = "DRAFT"
	StatusFinal   DisplayStatus = "FINAL"
)

const (
	maxDraftAttempts  = 3
	notifyTimeout     = 5 * time.Second
	opOpen            = "open"
	opSaveDraft       = "save_draft"
	opFinalize        = "finalize"
	outcomeOK         = "ok"
	outcomeInvalid    = "validation_failed"
	outcomeState      = "invalid_state"
	outcomeConflict   = "conflict"
	outcomeStoreError = "error"
)

// QuestionEdit 单题编辑，nil 字段表示不修改
type QuestionEdit struct {
	QuestionID uint
	Score      *int
	Remark     *string
}

// ReviewDisplay pairs a submission with its review. Review is nil when Status is PENDING.
type ReviewDisplay struct {
	Status     DisplayStatus
	ReadOnly   bool
	Submission *model.Submission
	Review     *model.Review
}

// AggregatorResolver 按评估级别选择评分量表与阈值预设
type AggregatorResolver interface {
	AggregatorForLevel(level string) (scoring.Aggregator, error)
}

type ReviewService struct {
	submissions repository.SubmissionStore
	reviews     repository.ReviewStore
	scoring     AggregatorResolver
	notifier    Notifier
	now         func() time.Time
}

func NewReviewService(
	submissions repository.SubmissionStore,
	reviews repository.ReviewStore,
	scoring AggregatorResolver,
	notifier Notifier,
) *ReviewService {
	return &ReviewService{
		submissions: submissions,
		reviews:     reviews,
		scoring:     scoring,
		notifier:    notifier,
		now:         time.Now,
	}
}

func (s *ReviewService) loadSubmission(ctx context.Context, submissionID string) (*model.Submission, error) {
	sub, err := s.submissions.FindByID(ctx, submissionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, util.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := sub.ValidateOrder(); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrMalformedSubmission, err)
	}
	return sub, nil
}

// SubmissionOwner 只读取提交者，用于在暴露评审状态前做权限校验
func (s *ReviewService) SubmissionOwner(ctx context.Context, submissionID string) (uint, error) {
	sub, err := s.submissions.FindByID(ctx, submissionID)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, util.ErrSubmissionNotFound
	}
	if err != nil {
		return 0, err
	}
	return sub.UserID, nil
}

// seedReview 为每道题生成 0 分、空评语的草稿项
func seedReview(sub *model.Submission, reviewerID uint) *model.Review {
	answers := sub.OrderedAnswers()
	items := make([]model.QuestionReview, len(answers))
	for i, a := range answers {
		items[i] = model.QuestionReview{
			QuestionID: a.QuestionID,
			Order:      a.Order,
			Score:      model.IntPtr(0),
		}
	}
	return &model.Review{
		SubmissionID: sub.ID,
		ReviewerID:   reviewerID,
		Status:       model.ReviewDraft,
		Version:      1,
		Items:        items,
	}
}

// findOrSeed returns the stored review, or an unsaved seeded draft with fresh=true
// when none exists yet.
func (s *ReviewService) findOrSeed(ctx context.Context, sub *model.Submission, reviewerID uint) (review *model.Review, fresh bool, err error) {
	review, err = s.reviews.FindBySubmission(ctx, sub.ID)
	if err == nil {
		return review, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}
	return seedReview(sub, reviewerID), true, nil
}

func (s *ReviewService) createSeed(ctx context.Context, review *model.Review) error {
	if err := s.reviews.Create(ctx, review); err != nil {
		return err
	}
	logger.Log.Info("Review draft created",
		zap.String("submissionId", review.SubmissionID),
		zap.Uint("reviewerId", review.ReviewerID),
		zap.Int("questions", len(review.Items)))
	return nil
}

// ensureReview loads the review, creating the seeded draft when none exists. A
// concurrent creator wins the unique index; the loser re-reads its row.
func (s *ReviewService) ensureReview(ctx context.Context, sub *model.Submission, reviewerID uint) (*model.Review, error) {
	review, fresh, err := s.findOrSeed(ctx, sub, reviewerID)
	if err != nil || !fresh {
		return review, err
	}
	err = s.createSeed(ctx, review)
	if errors.Is(err, repository.ErrAlreadyExists) {
		return s.reviews.FindBySubmission(ctx, sub.ID)
	}
	if err != nil {
		return nil, err
	}
	return review, nil
}

// OpenForReview 专家打开提交：无评审时创建草稿，草稿原样返回，已定稿则只读返回
func (s *ReviewService) OpenForReview(ctx context.Context, submissionID string, reviewerID uint) (*ReviewDisplay, error) {
	ctx, span := tracing.StartSpan(ctx, "ReviewService.OpenForReview", attribute.String("submission.id", submissionID))
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	sub, err := s.loadSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	review, err := s.ensureReview(ctx, sub, reviewerID)
	if err != nil {
		monitoring.ReviewTransitions.WithLabelValues(opOpen, outcomeStoreError).Inc()
		return nil, err
	}
	monitoring.ReviewTransitions.WithLabelValues(opOpen, outcomeOK).Inc()
	return display(sub, review), nil
}

func display(sub *model.Submission, review *model.Review) *ReviewDisplay {
	if review == nil {
		return &ReviewDisplay{Status: StatusPending, ReadOnly: true, Submission: sub}
	}
	if review.IsFinal() {
		return &ReviewDisplay{Status: StatusFinal, ReadOnly: true, Submission: sub, Review: review}
	}
	return &ReviewDisplay{Status: StatusDraft, Submission: sub, Review: review}
}

// GetForDisplay never creates a review; a missing one is reported as PENDING.
func (s *ReviewService) GetForDisplay(ctx context.Context, submissionID string) (*ReviewDisplay, error) {
	sub, err := s.loadSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	review, err := s.reviews.FindBySubmission(ctx, submissionID)
	if errors.Is(err, repository.ErrNotFound) {
		return display(sub, nil), nil
	}
	if err != nil {
		return nil, err
	}
	return display(sub, review), nil
}

// GetFinal 返回已定稿评审，供报告生成使用
func (s *ReviewService) GetFinal(ctx context.Context, submissionID string) (*model.Submission, *model.Review, error) {
	d, err := s.GetForDisplay(ctx, submissionID)
	if err != nil {
		return nil, nil, err
	}
	switch d.Status {
	case StatusPending:
		return nil, nil, util.ErrReviewNotFound
	case StatusDraft:
		return nil, nil, fmt.Errorf("%w: review is still a draft", util.ErrInvalidState)
	}
	return d.Submission, d.Review, nil
}

// ListPending 待评审队列，按提交时间升序
func (s *ReviewService) ListPending(ctx context.Context, page, limit int) ([]model.Submission, int64, error) {
	return s.submissions.ListAwaitingReview(ctx, page, limit)
}

// mergeEdits applies edits to review in place. Negative scores are coerced to 0.
func mergeEdits(review *model.Review, edits []QuestionEdit) error {
	for _, e := range edits {
		it := review.Item(e.QuestionID)
		if it == nil {
			return fmt.Errorf("%w: %d", util.ErrUnknownQuestion, e.QuestionID)
		}
		if e.Score != nil {
			it.Score = model.IntPtr(CoerceScore(*e.Score))
		}
		if e.Remark != nil {
			it.Remark = *e.Remark
		}
	}
	return nil
}

// SaveDraft merges edits into the DRAFT review. Validation is not applied. A version
// conflict with another draft save is retried against the fresh row.
func (s *ReviewService) SaveDraft(ctx context.Context, submissionID string, reviewerID uint, edits []QuestionEdit) (*model.Review, error) {
	ctx, span := tracing.StartSpan(ctx, "ReviewService.SaveDraft", attribute.String("submission.id", submissionID))
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	sub, err := s.loadSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		var current *model.Review
		current, err = s.ensureReview(ctx, sub, reviewerID)
		if err != nil {
			return nil, err
		}
		if current.IsFinal() {
			monitoring.ReviewTransitions.WithLabelValues(opSaveDraft, outcomeState).Inc()
			err = fmt.Errorf("%w: review is final", util.ErrInvalidState)
			return nil, err
		}

		candidate := current.Clone()
		if err = mergeEdits(candidate, edits); err != nil {
			return nil, err
		}
		err = s.reviews.SaveDraft(ctx, candidate, current.Version)
		if err == nil {
			monitoring.ReviewTransitions.WithLabelValues(opSaveDraft, outcomeOK).Inc()
			logger.Log.Debug("Review draft saved",
				zap.String("submissionId", submissionID),
				zap.Int("version", candidate.Version),
				zap.Int("edits", len(edits)))
			return candidate, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			monitoring.ReviewTransitions.WithLabelValues(opSaveDraft, outcomeStoreError).Inc()
			return nil, err
		}
		if attempt >= maxDraftAttempts {
			monitoring.ReviewTransitions.WithLabelValues(opSaveDraft, outcomeConflict).Inc()
			err = fmt.Errorf("%w: draft modified concurrently", util.ErrInvalidState)
			return nil, err
		}
	}
}

// Finalize merges edits, validates and locks the review. Validation failure writes
// nothing. The notification fires only after the FINAL row is durable and its failure
// is logged, not returned.
func (s *ReviewService) Finalize(ctx context.Context, submissionID string, reviewerID uint, edits []QuestionEdit) (*model.Review, error) {
	ctx, span := tracing.StartSpan(ctx, "ReviewService.Finalize", attribute.String("submission.id", submissionID))
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	sub, err := s.loadSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	// 尚无评审时只在内存中生成草稿，校验通过后才落库
	current, fresh, err := s.findOrSeed(ctx, sub, reviewerID)
	if err != nil {
		return nil, err
	}
	if current.IsFinal() {
		monitoring.ReviewTransitions.WithLabelValues(opFinalize, outcomeState).Inc()
		err = fmt.Errorf("%w: review already finalized", util.ErrInvalidState)
		return nil, err
	}

	candidate := current.Clone()
	if err = mergeEdits(candidate, edits); err != nil {
		return nil, err
	}
	if verrs := ValidateReview(candidate); len(verrs) > 0 {
		monitoring.ReviewTransitions.WithLabelValues(opFinalize, outcomeInvalid).Inc()
		err = &ValidationFailedError{Errors: verrs}
		return nil, err
	}

	agg, err := s.scoring.AggregatorForLevel(sub.Level)
	if err != nil {
		return nil, err
	}

	if fresh {
		// 另一位专家刚打开或定稿了同一提交，按并发冲突处理，由调用方重试
		if err = s.createSeed(ctx, current); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				monitoring.ReviewTransitions.WithLabelValues(opFinalize, outcomeConflict).Inc()
				err = util.ErrConcurrentFinalize
				return nil, err
			}
			monitoring.ReviewTransitions.WithLabelValues(opFinalize, outcomeStoreError).Inc()
			return nil, err
		}
		// 重新合并以带上落库后分配的 ID
		candidate = current.Clone()
		if err = mergeEdits(candidate, edits); err != nil {
			return nil, err
		}
	}
	result := agg.Aggregate(candidate.Scores())

	finalizedAt := s.now()
	candidate.Status = model.ReviewFinal
	candidate.TotalScore = model.IntPtr(result.ClampedTotal)
	candidate.Label = result.Label
	candidate.FinalizedAt = &finalizedAt
	candidate.ReviewerID = reviewerID

	if err = s.reviews.Finalize(ctx, candidate, current.Version); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			monitoring.ReviewTransitions.WithLabelValues(opFinalize, outcomeConflict).Inc()
			logger.Log.Warn("Concurrent finalize rejected",
				zap.String("submissionId", submissionID),
				zap.Uint("reviewerId", reviewerID))
			err = util.ErrConcurrentFinalize
			return nil, err
		}
		monitoring.ReviewTransitions.WithLabelValues(opFinalize, outcomeStoreError).Inc()
		return nil, err
	}

	monitoring.ReviewTransitions.WithLabelValues(opFinalize, outcomeOK).Inc()
	monitoring.ReviewScores.WithLabelValues(result.Label).Observe(float64(result.ClampedTotal))
	logger.Log.Info("Review finalized",
		zap.String("submissionId", submissionID),
		zap.Uint("reviewerId", reviewerID),
		zap.Int("rawTotal", result.RawTotal),
		zap.Int("clampedTotal", result.ClampedTotal),
		zap.String("label", result.Label))

	s.notify(ctx, sub)
	return candidate, nil
}

func (s *ReviewService) notify(ctx context.Context, sub *model.Submission) {
	if s.notifier == nil {
		return
	}
	// 定稿已提交，请求取消不应影响通知
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.notifier.SendReviewComplete(nctx, sub.UserID, sub.ID); err != nil {
		logger.Log.Error("Failed to send review notification",
			zap.String("submissionId", sub.ID),
			zap.Uint("userId", sub.UserID),
			zap.Error(err))
	}
}
