package transport

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"

	"stoop/internal/observability"
)

// ProgressFunc reports upload progress as bytes sent out of the total body
// size (including multipart framing).
type ProgressFunc func(sent, total int64)

// UploadFile is one file in a multipart upload.
type UploadFile struct {
	Field    string
	Filename string
	Reader   io.Reader
}

// Upload sends a single file plus extra form fields as multipart form data
// and unwraps the envelope into out.
func (c *Client) Upload(ctx context.Context, path string, file UploadFile, extra map[string]string, progress ProgressFunc, out any) error {
	return c.UploadMulti(ctx, path, []UploadFile{file}, extra, progress, out)
}

// UploadMulti sends several files plus extra form fields as multipart form
// data and unwraps the envelope into out.
func (c *Client) UploadMulti(ctx context.Context, path string, files []UploadFile, extra map[string]string, progress ProgressFunc, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return err
		}
	}
	for k, v := range extra {
		if err := w.WriteField(k, v); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	body := &progressReader{
		r:        bytes.NewReader(buf.Bytes()),
		total:    int64(buf.Len()),
		progress: progress,
	}

	env, err := c.do(ctx, http.MethodPost, path, nil, body, w.FormDataContentType())
	if err != nil {
		return err
	}
	return unwrap(env, out)
}

// progressReader reports bytes read from the request body as they are sent.
type progressReader struct {
	r        io.Reader
	total    int64
	sent     int64
	progress ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		observability.UploadBytes.Add(float64(n))
		if p.progress != nil {
			p.progress(p.sent, p.total)
		}
	}
	return n, err
}
