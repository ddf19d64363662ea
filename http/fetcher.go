// Package http provides an HTTP-based implementation of librarian.Fetcher
// with failure classification for the retry policy.
package http

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/skaczmarek/librarian"
)

// DefaultFetchTimeout is the default per-request timeout.
const DefaultFetchTimeout = 10 * time.Second

// maxBodyBytes caps the response body size. Documentation pages beyond this
// are not legitimate index sources.
const maxBodyBytes = 16 << 20

// Ensure Fetcher implements librarian.Fetcher at compile time.
var _ librarian.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves HTML pages over HTTP. Failures are classified through
// error codes: EUNAVAILABLE for transient conditions (timeouts, connection
// errors, 5xx, 429), ENOTFOUND for missing pages, EINVALID otherwise.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-request timeout.
// Defaults to DefaultFetchTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithClient sets the underlying HTTP client. The fetcher's timeout is
// applied per request via context, not on the client.
func WithClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = &http.Client{}
	}
	return f
}

// Fetch retrieves the page at url. The returned page's URL reflects HTTP
// redirects, so it may differ from the requested URL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*librarian.SourcePage, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, librarian.Errorf(librarian.EINVALID, "invalid URL %q", rawURL)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, librarian.WrapError(err, librarian.EINVALID, "build request for %s", rawURL)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err, rawURL)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode, rawURL); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, librarian.WrapError(err, librarian.EUNAVAILABLE, "read body of %s", rawURL)
	}

	return &librarian.SourcePage{
		URL:        resp.Request.URL.String(),
		RequestURL: rawURL,
		HTML:       string(body),
	}, nil
}

// classifyTransportError maps transport failures to error codes. Timeouts
// and connection errors are transient; everything else is invalid.
func classifyTransportError(err error, url string) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		return librarian.WrapError(err, librarian.ECANCELED, "fetch %s", url)
	case errors.Is(err, context.DeadlineExceeded):
		return librarian.WrapError(err, librarian.EUNAVAILABLE, "fetch %s timed out", url)
	case errors.As(err, &netErr) && netErr.Timeout():
		return librarian.WrapError(err, librarian.EUNAVAILABLE, "fetch %s timed out", url)
	case isConnectionError(err):
		return librarian.WrapError(err, librarian.EUNAVAILABLE, "fetch %s", url)
	}
	return librarian.WrapError(err, librarian.EINVALID, "fetch %s", url)
}

func isConnectionError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}

// classifyStatus maps HTTP status codes to error codes. 5xx and 429 are
// retryable; other non-2xx statuses fail immediately.
func classifyStatus(status int, url string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status >= 500 || status == http.StatusTooManyRequests:
		return librarian.Errorf(librarian.EUNAVAILABLE, "HTTP %d for %s", status, url)
	case status == http.StatusNotFound || status == http.StatusGone:
		return librarian.Errorf(librarian.ENOTFOUND, "HTTP %d for %s", status, url)
	default:
		return librarian.Errorf(librarian.EINVALID, "HTTP %d for %s", status, url)
	}
}
