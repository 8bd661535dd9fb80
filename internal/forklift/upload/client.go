// Package upload sends one file to the ingest service under a bounded
// retry policy.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/dart-platform/dart-cli/internal/constants"
	"github.com/dart-platform/dart-cli/internal/forklift"
	dhttp "github.com/dart-platform/dart-cli/internal/http"
	"github.com/dart-platform/dart-cli/internal/logging"
	"github.com/dart-platform/dart-cli/internal/models"
)

// Options configures a Client.
type Options struct {
	URL    string
	Format models.Format

	// IncludeMetadata adds a "metadata" part to multipart uploads.
	IncludeMetadata bool

	// Headers are the auth headers, copied at construction.
	Headers    nethttp.Header
	Retry      dhttp.RetryPolicy
	HTTPClient *nethttp.Client
	Logger     *logging.Logger

	// RequestID prefixes the X-Request-ID header, usually the run id.
	RequestID string
}

// Client performs uploads. It is safe for concurrent use.
type Client struct {
	url             string
	format          models.Format
	includeMetadata bool
	headers         nethttp.Header
	requestID       string
	rc              *retryablehttp.Client
}

type attemptsKey struct{}

// NewClient validates opts and builds a client.
func NewClient(opts Options) (*Client, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("service URL is required")
	}
	switch opts.Format {
	case models.FormatMultipart, models.FormatJSON, models.FormatText:
	default:
		return nil, fmt.Errorf("unsupported upload format %q", opts.Format)
	}
	if err := opts.Retry.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}

	rc := dhttp.NewRetryClient(opts.HTTPClient, opts.Retry, opts.Logger)
	rc.RequestLogHook = func(_ retryablehttp.Logger, req *nethttp.Request, attempt int) {
		if n, ok := req.Context().Value(attemptsKey{}).(*int32); ok {
			atomic.StoreInt32(n, int32(attempt+1))
		}
	}

	return &Client{
		url:             opts.URL,
		format:          opts.Format,
		includeMetadata: opts.IncludeMetadata,
		headers:         opts.Headers.Clone(),
		requestID:       opts.RequestID,
		rc:              rc,
	}, nil
}

// Upload posts the task's file and returns its outcome. A 2xx response is a
// success; anything else is retried per the policy and then reported as a
// failure carrying the last status code or transport error. Cancellation of
// ctx yields a Cancelled outcome.
func (c *Client) Upload(ctx context.Context, task models.UploadTask, meta models.Metadata) models.Outcome {
	body, contentType, err := c.buildBody(task.FilePath, meta)
	if err != nil {
		return models.Failure(err, 0, 0)
	}

	var attempts int32
	reqCtx := context.WithValue(ctx, attemptsKey{}, &attempts)

	req, err := retryablehttp.NewRequestWithContext(reqCtx, nethttp.MethodPost, c.url, body)
	if err != nil {
		return models.Failure(fmt.Errorf("failed to build request: %w", err), 0, 0)
	}
	for k, vs := range c.headers {
		req.Header[k] = append([]string(nil), vs...)
	}
	req.Header.Set("Content-Type", contentType)
	if c.requestID != "" {
		req.Header.Set("X-Request-ID", c.requestID+"/"+strconv.Itoa(task.Index))
	}

	resp, err := c.rc.Do(req)
	n := int(atomic.LoadInt32(&attempts))
	if err != nil {
		if ctx.Err() != nil {
			return models.Cancellation(ctx.Err(), n)
		}
		return models.Failure(&forklift.TransportError{Attempts: n, Err: err}, 0, n)
	}
	defer resp.Body.Close()

	if dhttp.IsSuccess(resp.StatusCode) {
		io.Copy(io.Discard, resp.Body)
		return models.Success(resp.StatusCode, n)
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, constants.HTTPResponseBodyLimit))
	statusErr := &forklift.StatusError{
		Attempts:   n,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(snippet)),
	}
	return models.Failure(statusErr, resp.StatusCode, n)
}

// buildBody encodes the file for the configured format. The body is held in
// memory so that every attempt resends identical bytes.
func (c *Client) buildBody(path string, meta models.Metadata) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("cannot read file: %w", err)
	}

	switch c.format {
	case models.FormatJSON:
		if !json.Valid(data) {
			return nil, "", fmt.Errorf("file is not valid JSON")
		}
		return data, "application/json", nil

	case models.FormatText:
		return data, "text/plain; charset=utf-8", nil

	default:
		return c.multipartBody(filepath.Base(path), data, meta)
	}
}

func (c *Client) multipartBody(name string, data []byte, meta models.Metadata) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}

	if c.includeMetadata {
		if meta == nil {
			meta = models.Metadata{}
		}
		encoded, err := json.Marshal(meta)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode metadata: %w", err)
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="metadata"`)
		h.Set("Content-Type", "application/json")
		mp, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := mp.Write(encoded); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
