package transfer

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/moyoez/cutqueue/normalize"
	"github.com/moyoez/cutqueue/tool"
)

// UploadField is the multipart field carrying the file.
const UploadField = "file"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Upload streams data to the upload endpoint as a multipart form, using name as
// the file name the service sees.
func (c *Client) Upload(ctx context.Context, name string, data io.Reader) (normalize.Payload, error) {
	if name == "" {
		return normalize.Payload{}, fmt.Errorf("invalid parameters: name must not be empty")
	}
	if data == nil {
		return normalize.Payload{}, fmt.Errorf("invalid parameters: data must not be nil")
	}
	url, err := c.endpoint(ctx, c.cfg.UploadPath)
	if err != nil {
		return normalize.Payload{}, fmt.Errorf("failed to build upload URL: %w", err)
	}

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	written := make(chan struct{})
	go func() {
		defer close(written)
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="%s"; filename="%s"`, UploadField, quoteEscaper.Replace(name)))
		header.Set("Content-Type", tool.DetectFileType(name, ""))
		part, err := form.CreatePart(header)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := tool.CopyWithContext(ctx, part, data); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(form.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		_ = pr.Close()
		<-written
		return normalize.Payload{}, fmt.Errorf("failed to create upload request: %v", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req, "upload")
	// unblocks the writer goroutine when the request ended early; data must
	// not be read after Upload returns
	_ = pr.Close()
	<-written
	if err != nil {
		return normalize.Payload{}, err
	}
	tool.DefaultLogger.Infof("Uploaded %s to %s", name, url)
	return parse(body, "upload"), nil
}
