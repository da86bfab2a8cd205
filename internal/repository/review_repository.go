package repository

import (
	"context"
	"errors"
	"expert_review_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type ReviewRepository struct {
	DB *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{DB: db}
}

func (r *ReviewRepository) FindBySubmission(ctx context.Context, submissionID string) (*model.Review, error) {
	var review model.Review
	err := r.DB.WithContext(ctx).
		Preload("Items", orderedAnswers).
		Where("submission_id = ?", submissionID).
		First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// Create 新建草稿评审，submission_id 唯一索引保证并发打开时只有一条
func (r *ReviewRepository) Create(ctx context.Context, review *model.Review) error {
	if review.Version == 0 {
		review.Version = 1
	}
	err := r.DB.WithContext(ctx).Create(review).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyExists
	}
	return err
}

func (r *ReviewRepository) SaveDraft(ctx context.Context, review *model.Review, expectedVersion int) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.bumpVersion(tx, review, expectedVersion, map[string]interface{}{}); err != nil {
			return err
		}
		return r.saveItems(tx, review)
	})
}

func (r *ReviewRepository) Finalize(ctx context.Context, review *model.Review, expectedVersion int) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := r.bumpVersion(tx, review, expectedVersion, map[string]interface{}{
			"status":       model.ReviewFinal,
			"total_score":  review.TotalScore,
			"label":        review.Label,
			"finalized_at": review.FinalizedAt,
			"reviewer_id":  review.ReviewerID,
		})
		if err != nil {
			return err
		}
		return r.saveItems(tx, review)
	})
}

// bumpVersion 以 version + DRAFT 状态做条件更新，未命中即视为并发冲突
func (r *ReviewRepository) bumpVersion(tx *gorm.DB, review *model.Review, expectedVersion int, fields map[string]interface{}) error {
	fields["version"] = gorm.Expr("version + 1")
	fields["updated_at"] = time.Now()

	res := tx.Model(&model.Review{}).
		Where("id = ? AND version = ? AND status = ?", review.ID, expectedVersion, model.ReviewDraft).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	review.Version = expectedVersion + 1
	return nil
}

func (r *ReviewRepository) saveItems(tx *gorm.DB, review *model.Review) error {
	for i := range review.Items {
		it := &review.Items[i]
		res := tx.Model(&model.QuestionReview{}).
			Where("review_id = ? AND question_id = ?", review.ID, it.QuestionID).
			Updates(map[string]interface{}{
				"score":  it.Score,
				"remark": it.Remark,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			it.ReviewID = review.ID
			if err := tx.Create(it).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
