// Package netx uploads payloads to object storage through presigned URLs.
package netx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody bounds how much of a failed response is kept.
const maxErrorBody = 4 << 10

// UploadError is a non-2xx answer from object storage. S3 puts the reason
// (for example SignatureDoesNotMatch or RequestTimeTooSkewed) in Body.
type UploadError struct {
	StatusCode int
	Body       string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// UploadToPresignedURL PUTs body to a presigned S3-compatible URL. A nil hc
// means http.DefaultClient.
func UploadToPresignedURL(ctx context.Context, hc *http.Client, url string, body []byte) error {
	if hc == nil {
		hc = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &UploadError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(b))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
