package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const pdfContentType = "application/pdf"

// maxRemoteArtifact caps the body read from the conversion service.
const maxRemoteArtifact = 64 << 20

// RemoteRenderer lays the document out as HTML and posts it to an HTML-to-PDF
// conversion service, returning the PDF body.
type RemoteRenderer struct {
	endpoint string
	html     *HTMLRenderer
	client   *http.Client
	// 超过上限的响应视为失败，不截断
	maxBytes int64
}

func NewRemoteRenderer(endpoint string, timeout time.Duration) (*RemoteRenderer, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid renderer url %q", endpoint)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RemoteRenderer{
		endpoint: endpoint,
		html:     NewHTMLRenderer(),
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxRemoteArtifact,
	}, nil
}

func (r *RemoteRenderer) Extension() string {
	return "pdf"
}

func (r *RemoteRenderer) Render(ctx context.Context, doc *Document, filename string, progress ProgressFunc) (*Artifact, error) {
	var buf bytes.Buffer
	// 版面排版占 0-50%，远端转换占剩余部分
	half := func(p int) {
		if progress != nil {
			progress(p / 2)
		}
	}
	if err := r.html.RenderTo(ctx, &buf, doc, half); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", htmlContentType)
	req.Header.Set("Accept", pdfContentType)
	req.Header.Set("X-Report-Filename", filename)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("renderer request: %w", err)
	}
	defer resp.Body.Close()
	if progress != nil {
		progress(75)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("renderer returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read renderer response: %w", err)
	}
	if int64(len(data)) > r.maxBytes {
		return nil, fmt.Errorf("renderer response exceeds %d bytes", r.maxBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("renderer returned an empty body")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = pdfContentType
	}
	if progress != nil {
		progress(100)
	}
	return &Artifact{Filename: filename, ContentType: contentType, Data: data}, nil
}
