package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
)

const htmlContentType = "text/html; charset=utf-8"

// HTMLRenderer lays every page out as a fixed-size A4 section of one HTML document.
type HTMLRenderer struct {
	tmpl *template.Template
}

func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{tmpl: template.Must(template.New("report").Funcs(template.FuncMap{
		"paragraphs": paragraphs,
	}).Parse(reportTemplate))}
}

func (r *HTMLRenderer) Extension() string {
	return "html"
}

func (r *HTMLRenderer) Render(ctx context.Context, doc *Document, filename string, progress ProgressFunc) (*Artifact, error) {
	var buf bytes.Buffer
	if err := r.RenderTo(ctx, &buf, doc, progress); err != nil {
		return nil, err
	}
	reportProgress(progress, 1, 1)
	return &Artifact{Filename: filename, ContentType: htmlContentType, Data: buf.Bytes()}, nil
}

// RenderTo writes the HTML document to buf, reporting up to 99% as pages complete.
func (r *HTMLRenderer) RenderTo(ctx context.Context, buf *bytes.Buffer, doc *Document, progress ProgressFunc) error {
	reportProgress(progress, 0, 1)
	if err := r.tmpl.ExecuteTemplate(buf, "head", doc); err != nil {
		return fmt.Errorf("render head: %w", err)
	}
	for i := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := &doc.Pages[i]
		if err := r.tmpl.ExecuteTemplate(buf, string(p.Kind), p); err != nil {
			return fmt.Errorf("render page %d (%s): %w", p.Number, p.Kind, err)
		}
		// leave the final percent for completion
		reportProgress(progress, (i+1)*99, len(doc.Pages)*100)
	}
	if err := r.tmpl.ExecuteTemplate(buf, "foot", doc); err != nil {
		return fmt.Errorf("render foot: %w", err)
	}
	return nil
}

func paragraphs(s string) []string {
	var out []string
	for _, p := range strings.Split(s, "\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

const reportTemplate = `
{{define "head"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Assessment Report</title>
<style>
@page { size: A4; margin: 0; }
body { margin: 0; font-family: Helvetica, Arial, sans-serif; color: #1f2933; }
.page { width: 210mm; height: 297mm; box-sizing: border-box; padding: 18mm 16mm; position: relative; page-break-after: always; overflow: hidden; }
.page:last-child { page-break-after: auto; }
.footer { position: absolute; bottom: 10mm; left: 16mm; right: 16mm; font-size: 9pt; color: #7b8794; text-align: right; }
h1 { font-size: 26pt; margin: 60mm 0 6mm; }
h2 { font-size: 16pt; margin: 0 0 6mm; }
table { width: 100%; border-collapse: collapse; font-size: 10pt; }
td, th { border-bottom: 1px solid #e4e7eb; padding: 2.5mm 2mm; text-align: left; vertical-align: top; }
.card { border: 1px solid #cbd2d9; border-radius: 3mm; padding: 6mm; margin-bottom: 6mm; }
.total { font-size: 30pt; font-weight: bold; }
.note { font-size: 9pt; color: #52606d; margin-top: 6mm; }
.segment { margin-bottom: 4mm; }
.remark { background: #f5f7fa; padding: 4mm; border-left: 1mm solid #3e4c59; }
</style>
</head>
<body>
{{end}}

{{define "footer"}}<div class="footer">Page {{.Number}} of {{.Total}}</div>{{end}}

{{define "cover"}}<section class="page cover">
<div>{{.Cover.Platform}} &middot; {{.Cover.Level}}</div>
<h1>{{.Cover.Title}}</h1>
<h2>{{.Cover.Subtitle}}</h2>
<p>{{.Cover.Username}} &middot; Attempt {{.Cover.AttemptNumber}}</p>
<p>{{.Cover.ReportDate}}</p>
{{template "footer" .}}
</section>
{{end}}

{{define "details"}}<section class="page details">
<h2>{{.Details.Heading}}</h2>
<p>{{.Details.Intro}}</p>
<table>
<tr><th>Name</th><td>{{.Details.Username}}</td></tr>
<tr><th>Email</th><td>{{.Details.Email}}</td></tr>
<tr><th>Phone</th><td>{{.Details.PhoneNumber}}</td></tr>
<tr><th>Attempt</th><td>{{.Details.AttemptNumber}}</td></tr>
<tr><th>Interview mode</th><td>{{.Details.InterviewMode}}</td></tr>
<tr><th>Questions</th><td>{{.Details.QuestionCount}}</td></tr>
<tr><th>Reviewed on</th><td>{{.Details.ReviewedOn}}</td></tr>
<tr><th>Report date</th><td>{{.Details.ReportDate}}</td></tr>
</table>
{{template "footer" .}}
</section>
{{end}}

{{define "score_summary"}}<section class="page summary">
<h2>{{.Summary.Heading}}</h2>
{{with .Summary.ScoreCard}}<div class="card">
<div class="total">{{.ClampedTotal}}</div>
<div>{{.Label}} (scale {{.ScaleMin}}-{{.ScaleMax}})</div>
</div>{{end}}
{{if .Summary.Rows}}<table>
<tr><th>#</th><th>Question</th><th>Mode</th><th>Score</th></tr>
{{range .Summary.Rows}}<tr><td>{{.Order}}</td><td>{{.QuestionText}}</td><td>{{.ModeIcon}}</td><td>{{.Score}}</td></tr>
{{end}}</table>{{else}}<p>{{.Summary.EmptyState}}</p>{{end}}
{{with .Summary.InterpretationNote}}<p class="note">{{.}}</p>{{end}}
{{template "footer" .}}
</section>
{{end}}

{{define "question_detail"}}<section class="page question">
<h2>{{.Question.Heading}} {{.Question.Order}}</h2>
<p><strong>{{.Question.QuestionText}}</strong></p>
{{range .Question.Segments}}<div class="segment"><span>{{.Icon}}</span>
{{range paragraphs .Content}}<p>{{.}}</p>{{end}}</div>
{{end}}
<p>Score: <strong>{{.Question.Score}}</strong></p>
<div class="remark">{{range paragraphs .Question.Remark}}<p>{{.}}</p>{{end}}</div>
{{template "footer" .}}
</section>
{{end}}

{{define "closing"}}<section class="page closing">
<h2>{{.Closing.Heading}}</h2>
<p>{{.Closing.Text}}</p>
<p class="total">{{.Closing.ClampedTotal}}</p>
<p>{{.Closing.Label}}</p>
<p>{{.Closing.Platform}}</p>
{{template "footer" .}}
</section>
{{end}}

{{define "foot"}}</body>
</html>
{{end}}
`
