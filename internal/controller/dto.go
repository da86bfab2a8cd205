package controller

import (
	"time"

	"expert_review_backend/internal/model"
	"expert_review_backend/internal/service"

	"github.com/jinzhu/copier"
)

// QuestionReviewRequest 单题评分与评语，省略的字段保持原值
type QuestionReviewRequest struct {
	QuestionID uint    `json:"questionId" binding:"required"`
	Score      *int    `json:"score"`
	Remark     *string `json:"remark"`
}

type ReviewRequest struct {
	QuestionReviews []QuestionReviewRequest `json:"questionReviews" binding:"dive"`
}

func (r ReviewRequest) edits() []service.QuestionEdit {
	out := make([]service.QuestionEdit, len(r.QuestionReviews))
	for i, q := range r.QuestionReviews {
		out[i] = service.QuestionEdit{QuestionID: q.QuestionID, Score: q.Score, Remark: q.Remark}
	}
	return out
}

type QuestionReviewDTO struct {
	QuestionID uint   `json:"questionId"`
	Order      int    `json:"order"`
	Score      *int   `json:"score"`
	Remark     string `json:"remark"`
}

type ReviewDTO struct {
	ID           uint                `json:"id"`
	SubmissionID string              `json:"submissionId"`
	ReviewerID   uint                `json:"reviewerId"`
	Status       model.ReviewStatus  `json:"status"`
	Version      int                 `json:"version"`
	TotalScore   *int                `json:"totalScore,omitempty"`
	Label        string              `json:"label,omitempty"`
	FinalizedAt  *time.Time          `json:"finalizedAt,omitempty"`
	Items        []QuestionReviewDTO `json:"questionReviews"`
}

type QuestionAnswerDTO struct {
	QuestionID   uint         `json:"questionId"`
	Order        int          `json:"order"`
	QuestionText string       `json:"questionText"`
	Answer       model.Answer `json:"answer"`
}

// ReviewViewResponse 评审页面数据；status 为 PENDING 时没有 review
type ReviewViewResponse struct {
	Status          service.DisplayStatus `json:"status"`
	ReadOnly        bool                  `json:"readOnly"`
	SubmissionID    string                `json:"submissionId"`
	Level           string                `json:"level"`
	AttemptNumber   int                   `json:"attemptNumber"`
	InterviewMode   model.InterviewMode   `json:"interviewMode"`
	SubmittedAt     time.Time             `json:"submittedAt"`
	QuestionAnswers []QuestionAnswerDTO   `json:"questionAnswers"`
	Review          *ReviewDTO            `json:"review,omitempty"`
}

type ReviewResult struct {
	Success bool       `json:"success"`
	Review  *ReviewDTO `json:"review"`
}

type ValidationFailedResult struct {
	Success bool                      `json:"success"`
	Errors  []service.ValidationError `json:"errors"`
}

type PendingItem struct {
	SubmissionID  string              `json:"submissionId"`
	UserID        uint                `json:"userId"`
	Level         string              `json:"level"`
	AttemptNumber int                 `json:"attemptNumber"`
	InterviewMode model.InterviewMode `json:"interviewMode"`
	SubmittedAt   time.Time           `json:"submittedAt"`
}

func toReviewDTO(r *model.Review) *ReviewDTO {
	if r == nil {
		return nil
	}
	var dto ReviewDTO
	copier.Copy(&dto, r)
	return &dto
}

func toViewResponse(d *service.ReviewDisplay, includeReview bool) ReviewViewResponse {
	resp := ReviewViewResponse{
		Status:        d.Status,
		ReadOnly:      d.ReadOnly,
		SubmissionID:  d.Submission.ID,
		Level:         d.Submission.Level,
		AttemptNumber: d.Submission.AttemptNumber,
		InterviewMode: d.Submission.InterviewMode,
		SubmittedAt:   d.Submission.SubmittedAt,
	}
	copier.Copy(&resp.QuestionAnswers, d.Submission.OrderedAnswers())
	if includeReview {
		resp.Review = toReviewDTO(d.Review)
	}
	return resp
}

func toPendingItems(subs []model.Submission) []PendingItem {
	items := make([]PendingItem, 0, len(subs))
	for _, s := range subs {
		var it PendingItem
		copier.Copy(&it, &s)
		it.SubmissionID = s.ID
		items = append(items, it)
	}
	return items
}
