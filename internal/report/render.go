package report

import "context"

// ProgressFunc receives completion percentages in [0, 100], non-decreasing.
type ProgressFunc func(percent int)

// Artifact is a rendered, downloadable report.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Renderer turns a composed document into a binary artifact.
type Renderer interface {
	Render(ctx context.Context, doc *Document, filename string, progress ProgressFunc) (*Artifact, error)
	// Extension is the file extension of produced artifacts, without the dot.
	Extension() string
}

func reportProgress(progress ProgressFunc, done, total int) {
	if progress == nil {
		return
	}
	if total <= 0 {
		progress(100)
		return
	}
	progress(done * 100 / total)
}
