// Package report composes a FINAL review into a fixed-layout page sequence and
// hands it to a Renderer.
package report

import (
	"errors"
	"fmt"
	"time"

	"expert_review_backend/internal/model"
	"expert_review_backend/internal/scoring"
)

const dateFormat = "2006-01-02"

// ErrReviewNotFinal is returned when composing a review that is still a draft.
var ErrReviewNotFinal = errors.New("report: review is not final")

// Metadata is the display data printed alongside the review.
type Metadata struct {
	Username      string
	Email         string
	PhoneNumber   string
	ReportDate    time.Time
	AttemptNumber int
	InterviewMode model.InterviewMode
}

// Composer builds page descriptions. It holds no mutable state and is safe to share.
type Composer struct {
	Theme      Theme
	Aggregator scoring.Aggregator
}

func NewComposer(theme Theme, agg scoring.Aggregator) *Composer {
	return &Composer{Theme: theme, Aggregator: agg}
}

// unit is one question paired with its review.
type unit struct {
	answer model.QuestionAnswer
	score  int
	remark string
}

// TotalPages is 2 fixed pages, the score-summary section, one page per question and the closing page.
func TotalPages(questionCount int, c Capacity) int {
	return 2 + PageCount(questionCount, c) + questionCount + 1
}

// Compose is a pure function of its inputs: the same FINAL review and metadata always
// produce identical documents.
func (c *Composer) Compose(review *model.Review, answers []model.QuestionAnswer, meta Metadata) (*Document, error) {
	if review == nil || !review.IsFinal() {
		return nil, ErrReviewNotFinal
	}
	if err := c.Theme.Validate(); err != nil {
		return nil, err
	}

	units := c.pairUnits(review, answers)
	n := len(units)

	slices, err := Plan(n, c.Theme.Capacity)
	if err != nil {
		return nil, err
	}
	total := TotalPages(n, c.Theme.Capacity)

	scores := make([]int, n)
	for i, u := range units {
		scores[i] = u.score
	}
	result := c.Aggregator.Aggregate(scores)
	// 定稿时的总分与等级为准，报告不重新计算
	if review.TotalScore != nil {
		result.ClampedTotal = *review.TotalScore
	}
	if review.Label != "" {
		result.Label = review.Label
	}

	doc := &Document{
		Theme:        c.Theme.Name,
		SubmissionID: review.SubmissionID,
		TotalPages:   total,
		SummaryPages: len(slices),
		Pages:        make([]Page, 0, total),
	}

	page := 0
	emit := func(p Page) {
		page++
		p.Number = page
		p.Total = total
		doc.Pages = append(doc.Pages, p)
	}

	emit(Page{Kind: PageCover, Cover: c.coverPage(meta)})
	emit(Page{Kind: PageDetails, Details: c.detailsPage(review, meta, n)})
	for i, s := range slices {
		emit(Page{Kind: PageScoreSummary, Summary: c.summaryPage(s, units, result, i == len(slices)-1)})
	}
	for _, u := range units {
		emit(Page{Kind: PageQuestionDetail, Question: c.questionPage(u)})
	}
	emit(Page{Kind: PageClosing, Closing: c.closingPage(result)})

	if page != total {
		return nil, fmt.Errorf("report: emitted %d pages, expected %d", page, total)
	}
	return doc, nil
}

func (c *Composer) pairUnits(review *model.Review, answers []model.QuestionAnswer) []unit {
	sub := model.Submission{Answers: answers}
	ordered := sub.OrderedAnswers()
	units := make([]unit, 0, len(ordered))
	for _, a := range ordered {
		u := unit{answer: a}
		if it := review.Item(a.QuestionID); it != nil {
			if it.Score != nil {
				u.score = *it.Score
			}
			u.remark = it.Remark
		}
		units = append(units, u)
	}
	return units
}

func (c *Composer) coverPage(meta Metadata) *CoverPage {
	return &CoverPage{
		Platform:      c.Theme.PlatformName,
		Title:         c.Theme.Copy.CoverTitle,
		Subtitle:      c.Theme.Copy.CoverSubtitle,
		Level:         c.Theme.LevelName,
		Username:      meta.Username,
		AttemptNumber: meta.AttemptNumber,
		ReportDate:    formatDate(meta.ReportDate),
	}
}

func (c *Composer) detailsPage(review *model.Review, meta Metadata, n int) *DetailsPage {
	reviewedOn := ""
	if review.FinalizedAt != nil {
		reviewedOn = formatDate(*review.FinalizedAt)
	}
	return &DetailsPage{
		Heading:       c.Theme.Copy.DetailsHeading,
		Intro:         c.Theme.Copy.DetailsIntro,
		Username:      meta.Username,
		Email:         meta.Email,
		PhoneNumber:   meta.PhoneNumber,
		AttemptNumber: meta.AttemptNumber,
		InterviewMode: string(meta.InterviewMode),
		QuestionCount: n,
		ReportDate:    formatDate(meta.ReportDate),
		ReviewedOn:    reviewedOn,
	}
}

// summaryPage renders one slice. The first slice carries the score card; the last one,
// whichever page that is, carries the interpretation note.
func (c *Composer) summaryPage(s PageSlice, units []unit, result scoring.Result, last bool) *SummaryPage {
	p := &SummaryPage{
		Heading:      c.Theme.Copy.SummaryHeading,
		Continuation: !s.IsFirst,
		Slice:        s,
		Rows:         make([]SummaryRow, 0, s.Len()),
	}
	if s.IsFirst {
		p.ScoreCard = &ScoreCard{
			RawTotal:     result.RawTotal,
			ClampedTotal: result.ClampedTotal,
			Label:        result.Label,
			ScaleMin:     c.Aggregator.Scale.Min,
			ScaleMax:     c.Aggregator.Scale.Max,
			Bands:        c.Aggregator.Table.Bands(),
		}
	} else if c.Theme.Copy.ContinuationHeading != "" {
		p.Heading = c.Theme.Copy.ContinuationHeading
	}
	for _, u := range units[s.Start:s.End] {
		p.Rows = append(p.Rows, SummaryRow{
			Order:        u.answer.Order,
			QuestionID:   u.answer.QuestionID,
			QuestionText: u.answer.QuestionText,
			ModeIcon:     c.Theme.Icon(u.answer.Answer.Mode),
			Score:        u.score,
		})
	}
	if s.Len() == 0 {
		p.EmptyState = c.Theme.Copy.EmptyState
	}
	if last {
		p.InterpretationNote = c.Theme.Copy.InterpretationNote
	}
	return p
}

func (c *Composer) questionPage(u unit) *QuestionPage {
	a := u.answer.Answer
	mode := a.Mode
	if mode == "" {
		mode = model.ModeText
	}
	return &QuestionPage{
		Heading:      c.Theme.Copy.QuestionHeading,
		Order:        u.answer.Order,
		QuestionID:   u.answer.QuestionID,
		QuestionText: u.answer.QuestionText,
		Mode:         string(mode),
		ModeIcon:     c.Theme.Icon(mode),
		Segments:     c.segments(mode, a),
		Score:        u.score,
		Remark:       u.remark,
	}
}

func (c *Composer) segments(mode model.InterviewMode, a model.Answer) []AnswerSegment {
	text := AnswerSegment{Kind: "text", Icon: c.Theme.Icon(model.ModeText), Content: a.TextPart}
	voice := AnswerSegment{Kind: "voice", Icon: c.Theme.Icon(model.ModeVoice), Content: a.VoicePart}
	switch mode {
	case model.ModeVoice:
		return []AnswerSegment{voice}
	case model.ModeMixed:
		return []AnswerSegment{text, voice}
	default:
		return []AnswerSegment{text}
	}
}

func (c *Composer) closingPage(result scoring.Result) *ClosingPage {
	return &ClosingPage{
		Heading:      c.Theme.Copy.ClosingHeading,
		Text:         c.Theme.Copy.ClosingText,
		Platform:     c.Theme.PlatformName,
		ClampedTotal: result.ClampedTotal,
		Label:        result.Label,
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateFormat)
}
