package repository

import (
	"context"
	"errors"

	"expert_review_backend/internal/model"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrAlreadyExists   = errors.New("record already exists")
	ErrVersionConflict = errors.New("record was modified concurrently")
)

// SubmissionStore 提交记录的只读访问，Answers 按 order 预加载
type SubmissionStore interface {
	FindByID(ctx context.Context, id string) (*model.Submission, error)
	// ListAwaitingReview 返回尚无 FINAL 评审的提交，按提交时间升序
	ListAwaitingReview(ctx context.Context, page, limit int) ([]model.Submission, int64, error)
}

// ReviewStore persists reviews keyed by submission. SaveDraft and Finalize are
// compare-and-set on Version and only succeed while the stored review is DRAFT;
// on success the review's Version is advanced in place.
type ReviewStore interface {
	FindBySubmission(ctx context.Context, submissionID string) (*model.Review, error)
	Create(ctx context.Context, review *model.Review) error
	SaveDraft(ctx context.Context, review *model.Review, expectedVersion int) error
	Finalize(ctx context.Context, review *model.Review, expectedVersion int) error
}

type UserStore interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
}
