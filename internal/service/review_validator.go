package service

import (
	"fmt"
	"sort"
	"strings"

	"expert_review_backend/internal/model"
)

const (
	FieldScore  = "score"
	FieldRemark = "remark"
)

// ValidationError 定位到单题单字段的校验错误
type ValidationError struct {
	QuestionID uint   `json:"questionId"`
	Order      int    `json:"order"`
	Field      string `json:"field"`
	Message    string `json:"message"`
}

// ValidationFailedError carries every error found; finalize writes nothing when it is returned.
type ValidationFailedError struct {
	Errors []ValidationError
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("review validation failed: %d error(s)", len(e.Errors))
}

// QuestionIDs 返回出错题目 ID，去重并保持顺序
func (e *ValidationFailedError) QuestionIDs() []uint {
	seen := make(map[uint]bool, len(e.Errors))
	var ids []uint
	for _, ve := range e.Errors {
		if !seen[ve.QuestionID] {
			seen[ve.QuestionID] = true
			ids = append(ids, ve.QuestionID)
		}
	}
	return ids
}

// CoerceScore 负分按 0 处理而非拒绝
func CoerceScore(score int) int {
	if score < 0 {
		return 0
	}
	return score
}

// ValidateReview checks every question review of a candidate: a score must be present
// and non-negative, and the remark must contain non-whitespace text. It has no side
// effects. Errors are ordered by question order, score before remark.
func ValidateReview(review *model.Review) []ValidationError {
	items := make([]model.QuestionReview, len(review.Items))
	copy(items, review.Items)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Order < items[j].Order })

	var errs []ValidationError
	for _, it := range items {
		switch {
		case it.Score == nil:
			errs = append(errs, ValidationError{
				QuestionID: it.QuestionID,
				Order:      it.Order,
				Field:      FieldScore,
				Message:    "score is required",
			})
		case *it.Score < 0:
			errs = append(errs, ValidationError{
				QuestionID: it.QuestionID,
				Order:      it.Order,
				Field:      FieldScore,
				Message:    "score must not be negative",
			})
		}
		if strings.TrimSpace(it.Remark) == "" {
			errs = append(errs, ValidationError{
				QuestionID: it.QuestionID,
				Order:      it.Order,
				Field:      FieldRemark,
				Message:    "remark is required",
			})
		}
	}
	return errs
}
