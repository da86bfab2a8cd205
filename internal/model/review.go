package model

import "time"

type ReviewStatus string

const (
	ReviewDraft ReviewStatus = "DRAFT"
	ReviewFinal ReviewStatus = "FINAL"
)

// swagger:model Review
type Review struct {
	BaseModel
	SubmissionID string           `gorm:"uniqueIndex;type:varchar(36)" json:"submissionId"`
	ReviewerID   uint             `gorm:"index;type:bigint unsigned" json:"reviewerId"`
	Status       ReviewStatus     `gorm:"size:10;index;default:'DRAFT'" json:"status"`
	Version      int              `gorm:"not null;default:1" json:"version"`
	Items        []QuestionReview `gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE" json:"items"`
	TotalScore   *int             `json:"totalScore,omitempty"`
	Label        string           `gorm:"size:64" json:"label,omitempty"`
	FinalizedAt  *time.Time       `json:"finalizedAt,omitempty"`
}

func (Review) TableName() string {
	return "reviews"
}

// QuestionReview 专家对单题的评分与评语
type QuestionReview struct {
	BaseModel
	ReviewID   uint   `gorm:"uniqueIndex:idx_review_question;type:bigint unsigned" json:"reviewId"`
	QuestionID uint   `gorm:"uniqueIndex:idx_review_question;type:bigint unsigned" json:"questionId"`
	Order      int    `gorm:"column:question_order" json:"order"`
	Score      *int   `json:"score"`
	Remark     string `gorm:"type:text" json:"remark"`
}

func (QuestionReview) TableName() string {
	return "question_reviews"
}

func (r *Review) IsFinal() bool {
	return r.Status == ReviewFinal
}

// Item returns the QuestionReview for questionID, or nil.
func (r *Review) Item(questionID uint) *QuestionReview {
	for i := range r.Items {
		if r.Items[i].QuestionID == questionID {
			return &r.Items[i]
		}
	}
	return nil
}

// Scores 返回按题目顺序排列的分数，未评分按 0 计
func (r *Review) Scores() []int {
	out := make([]int, len(r.Items))
	for i, it := range r.Items {
		if it.Score != nil {
			out[i] = *it.Score
		}
	}
	return out
}

// Clone returns a deep copy so callers can merge edits without touching the stored value.
func (r *Review) Clone() *Review {
	c := *r
	c.Items = make([]QuestionReview, len(r.Items))
	for i, it := range r.Items {
		c.Items[i] = it
		if it.Score != nil {
			s := *it.Score
			c.Items[i].Score = &s
		}
	}
	if r.TotalScore != nil {
		t := *r.TotalScore
		c.TotalScore = &t
	}
	if r.FinalizedAt != nil {
		f := *r.FinalizedAt
		c.FinalizedAt = &f
	}
	return &c
}

func IntPtr(v int) *int {
	return &v
}
