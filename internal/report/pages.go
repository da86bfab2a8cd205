package report

import (
	"encoding/hex"
	"encoding/json"

	"expert_review_backend/internal/scoring"

	"golang.org/x/crypto/blake2b"
)

type PageKind string

const (
	PageCover          PageKind = "cover"
	PageDetails        PageKind = "details"
	PageScoreSummary   PageKind = "score_summary"
	PageQuestionDetail PageKind = "question_detail"
	PageClosing        PageKind = "closing"
)

// Page describes one physical page. Exactly one of the kind-specific fields is set.
type Page struct {
	Number   int           `json:"number"`
	Total    int           `json:"total"`
	Kind     PageKind      `json:"kind"`
	Cover    *CoverPage    `json:"cover,omitempty"`
	Details  *DetailsPage  `json:"details,omitempty"`
	Summary  *SummaryPage  `json:"summary,omitempty"`
	Question *QuestionPage `json:"question,omitempty"`
	Closing  *ClosingPage  `json:"closing,omitempty"`
}

type CoverPage struct {
	Platform      string `json:"platform"`
	Title         string `json:"title"`
	Subtitle      string `json:"subtitle"`
	Level         string `json:"level"`
	Username      string `json:"username"`
	AttemptNumber int    `json:"attemptNumber"`
	ReportDate    string `json:"reportDate"`
}

type DetailsPage struct {
	Heading       string `json:"heading"`
	Intro         string `json:"intro"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	PhoneNumber   string `json:"phoneNumber"`
	AttemptNumber int    `json:"attemptNumber"`
	InterviewMode string `json:"interviewMode"`
	QuestionCount int    `json:"questionCount"`
	ReportDate    string `json:"reportDate"`
	ReviewedOn    string `json:"reviewedOn"`
}

// ScoreCard is the aggregate block on the first score-summary page.
type ScoreCard struct {
	RawTotal     int            `json:"rawTotal"`
	ClampedTotal int            `json:"clampedTotal"`
	Label        string         `json:"label"`
	ScaleMin     int            `json:"scaleMin"`
	ScaleMax     int            `json:"scaleMax"`
	Bands        []scoring.Band `json:"bands"`
}

type SummaryRow struct {
	Order        int    `json:"order"`
	QuestionID   uint   `json:"questionId"`
	QuestionText string `json:"questionText"`
	ModeIcon     string `json:"modeIcon"`
	Score        int    `json:"score"`
}

type SummaryPage struct {
	Heading            string       `json:"heading"`
	Continuation       bool         `json:"continuation"`
	Slice              PageSlice    `json:"slice"`
	ScoreCard          *ScoreCard   `json:"scoreCard,omitempty"`
	Rows               []SummaryRow `json:"rows"`
	EmptyState         string       `json:"emptyState,omitempty"`
	InterpretationNote string       `json:"interpretationNote,omitempty"`
}

type AnswerSegment struct {
	Kind    string `json:"kind"` // text, voice
	Icon    string `json:"icon"`
	Content string `json:"content"`
}

type QuestionPage struct {
	Heading      string          `json:"heading"`
	Order        int             `json:"order"`
	QuestionID   uint            `json:"questionId"`
	QuestionText string          `json:"questionText"`
	Mode         string          `json:"mode"`
	ModeIcon     string          `json:"modeIcon"`
	Segments     []AnswerSegment `json:"segments"`
	Score        int             `json:"score"`
	Remark       string          `json:"remark"`
}

type ClosingPage struct {
	Heading      string `json:"heading"`
	Text         string `json:"text"`
	Platform     string `json:"platform"`
	ClampedTotal int    `json:"clampedTotal"`
	Label        string `json:"label"`
}

// Document is the ordered page sequence handed to a Renderer.
type Document struct {
	Theme        string `json:"theme"`
	SubmissionID string `json:"submissionId"`
	TotalPages   int    `json:"totalPages"`
	SummaryPages int    `json:"summaryPages"`
	Pages        []Page `json:"pages"`
}

// Digest is a stable content hash of the document, usable as an ETag or cache key.
func (d *Document) Digest() (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// PageNumbers returns the running page numbers in emission order.
func (d *Document) PageNumbers() []int {
	out := make([]int, len(d.Pages))
	for i, p := range d.Pages {
		out[i] = p.Number
	}
	return out
}
