package model

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
)

type InterviewMode string

const (
	ModeText  InterviewMode = "TEXT"
	ModeVoice InterviewMode = "VOICE"
	ModeMixed InterviewMode = "MIXED"
)

// 旧版 MIXED 作答以分隔符拼接文本与语音转写
const (
	TextSegmentDelimiter  = "[TEXT]"
	VoiceSegmentDelimiter = "[VOICE]"
)

// swagger:model Submission
type Submission struct {
	UUIDBase
	UserID        uint             `gorm:"index;uniqueIndex:idx_user_level_attempt;type:bigint unsigned" json:"userId"`
	User          *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Level         string           `gorm:"size:32;uniqueIndex:idx_user_level_attempt" json:"level"`
	AttemptNumber int              `gorm:"uniqueIndex:idx_user_level_attempt" json:"attemptNumber"`
	InterviewMode InterviewMode    `gorm:"size:10" json:"interviewMode"`
	SubmittedAt   time.Time        `json:"submittedAt"`
	Answers       []QuestionAnswer `gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE" json:"answers"`
}

func (Submission) TableName() string {
	return "submissions"
}

// OrderedAnswers 按题目顺序返回作答副本
func (s *Submission) OrderedAnswers() []QuestionAnswer {
	out := make([]QuestionAnswer, len(s.Answers))
	copy(out, s.Answers)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// ValidateOrder checks that answer orders are unique and contiguous from 1.
func (s *Submission) ValidateOrder() error {
	seen := make(map[int]bool, len(s.Answers))
	for _, a := range s.Answers {
		if a.Order < 1 || a.Order > len(s.Answers) {
			return fmt.Errorf("question %d has order %d outside 1..%d", a.QuestionID, a.Order, len(s.Answers))
		}
		if seen[a.Order] {
			return fmt.Errorf("order %d is used more than once", a.Order)
		}
		seen[a.Order] = true
	}
	return nil
}

// Answer is the structured form of a user's answer. MIXED answers carry both parts.
type Answer struct {
	Mode      InterviewMode `gorm:"size:10" json:"mode"`
	TextPart  string        `gorm:"type:text" json:"textPart,omitempty"`
	VoicePart string        `gorm:"type:text" json:"voicePart,omitempty"`
}

// swagger:model QuestionAnswer
type QuestionAnswer struct {
	BaseModel
	SubmissionID string `gorm:"index;type:varchar(36)" json:"submissionId"`
	QuestionID   uint   `gorm:"index;type:bigint unsigned" json:"questionId"`
	Order        int    `gorm:"column:question_order" json:"order"`
	QuestionText string `gorm:"type:text" json:"questionText"`
	Answer       Answer `gorm:"embedded;embeddedPrefix:answer_" json:"answer"`
	RawAnswer    string `gorm:"type:text" json:"-"`
}

func (QuestionAnswer) TableName() string {
	return "question_answers"
}

// AfterFind 将旧版拼接字符串一次性转换为结构化作答
func (q *QuestionAnswer) AfterFind(tx *gorm.DB) error {
	if q.Answer.Mode == "" && q.RawAnswer != "" {
		q.Answer = ParseCompositeAnswer(q.RawAnswer)
	}
	return nil
}

// ParseCompositeAnswer splits a legacy delimited answer into its text and voice parts.
func ParseCompositeAnswer(raw string) Answer {
	ti := strings.Index(raw, TextSegmentDelimiter)
	vi := strings.Index(raw, VoiceSegmentDelimiter)

	switch {
	case ti >= 0 && vi >= 0:
		var text, voice string
		if ti < vi {
			text = raw[ti+len(TextSegmentDelimiter) : vi]
			voice = raw[vi+len(VoiceSegmentDelimiter):]
		} else {
			voice = raw[vi+len(VoiceSegmentDelimiter) : ti]
			text = raw[ti+len(TextSegmentDelimiter):]
		}
		return Answer{Mode: ModeMixed, TextPart: strings.TrimSpace(text), VoicePart: strings.TrimSpace(voice)}
	case vi >= 0:
		return Answer{Mode: ModeVoice, VoicePart: strings.TrimSpace(raw[vi+len(VoiceSegmentDelimiter):])}
	case ti >= 0:
		return Answer{Mode: ModeText, TextPart: strings.TrimSpace(raw[ti+len(TextSegmentDelimiter):])}
	default:
		return Answer{Mode: ModeText, TextPart: strings.TrimSpace(raw)}
	}
}
