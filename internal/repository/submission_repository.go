package repository

import (
	"context"
	"errors"
	"expert_review_backend/internal/model"

	"gorm.io/gorm"
)

type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

func orderedAnswers(db *gorm.DB) *gorm.DB {
	return db.Order("question_order ASC")
}

func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*model.Submission, error) {
	var sub model.Submission
	err := r.DB.WithContext(ctx).
		Preload("Answers", orderedAnswers).
		Preload("User").
		Where("id = ?", id).
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubmissionRepository) ListAwaitingReview(ctx context.Context, page, limit int) ([]model.Submission, int64, error) {
	var (
		subs  []model.Submission
		total int64
	)
	base := r.DB.WithContext(ctx).Model(&model.Submission{}).
		Joins("LEFT JOIN reviews ON reviews.submission_id = submissions.id AND reviews.deleted_at IS NULL").
		Where("reviews.id IS NULL OR reviews.status <> ?", model.ReviewFinal)

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := base.
		Preload("User").
		Order("submissions.submitted_at ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&subs).Error
	return subs, total, err
}
