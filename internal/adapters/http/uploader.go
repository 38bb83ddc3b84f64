// Package http implements ports.Uploader against a FlashAir card's
// upload.cgi interface.
package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bft-labs/flashship/internal/domain"
	"github.com/bft-labs/flashship/internal/ports"
	"github.com/bft-labs/flashship/pkg/digest"
	"github.com/bft-labs/flashship/pkg/dostime"
	"github.com/bft-labs/flashship/pkg/form"
)

const (
	uploadEndpoint = "/upload.cgi"
	maxErrorBody   = 512
)

// Uploader implements ports.Uploader using HTTP.
type Uploader struct {
	client    ports.HTTPClient
	logger    ports.Logger
	baseURL   string
	userAgent string
}

// NewUploader creates an uploader for host. host may be a bare address
// ("192.168.29.3") or a base URL ("http://127.0.0.1:8080").
func NewUploader(client ports.HTTPClient, logger ports.Logger, host, userAgent string) *Uploader {
	return &Uploader{
		client:    client,
		logger:    logger,
		baseURL:   BaseURL(host),
		userAgent: userAgent,
	}
}

// BaseURL normalizes host into a base URL without a trailing slash.
func BaseURL(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return host
}

// Prime registers the modification time of the next upload.
func (u *Uploader) Prime(ctx context.Context, stamp uint32) error {
	target := u.baseURL + uploadEndpoint + "?FTIME=" + dostime.Hex(stamp)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", u.userAgent)

	resp, err := u.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	u.logger.Debug("primed upload time", ports.String("ftime", dostime.Hex(stamp)))
	return nil
}

// Upload posts the serialized form to upload.cgi.
func (u *Uploader) Upload(ctx context.Context, f *form.Form) error {
	var body bytes.Buffer
	if _, err := f.WriteTo(&body); err != nil {
		return fmt.Errorf("encode form: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+uploadEndpoint, bytes.NewReader(body.Bytes()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.ContentLength = int64(body.Len())
	req.Header.Set("User-Agent", u.userAgent)
	req.Header.Set("Content-Type", f.ContentType())

	resp, err := u.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	u.logger.Debug("upload accepted", ports.Int("status", resp.StatusCode), ports.Int64("bytes", req.ContentLength))
	return nil
}

// RemoteDigest fetches filename from the card root and hashes the body.
func (u *Uploader) RemoteDigest(ctx context.Context, filename string, maxBytes int64) (string, error) {
	target := u.baseURL + "/" + url.PathEscape(filename)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", u.userAgent)

	resp, err := u.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	sum, err := digest.Reader(resp.Body, maxBytes)
	if err != nil {
		return "", fmt.Errorf("%w: GET %s: %v", domain.ErrTransport, target, err)
	}
	return sum, nil
}

// do sends req and turns transport failures and non-2xx replies into errors.
// On success the caller owns resp.Body.
func (u *Uploader) do(req *http.Request) (*http.Response, error) {
	resp, err := u.client.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, ctxErr)
		}
		return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrTransport, req.Method, req.URL, err)
	}
	if resp.StatusCode/100 != 2 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &domain.StatusError{
			Method: req.Method,
			URL:    req.URL.String(),
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}
