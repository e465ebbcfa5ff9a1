package suggest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bastiangx/quicksearch/pkg/engine"
)

const (
	// DefaultUserAgent is sent when no agent is configured.
	DefaultUserAgent = "quicksearch/1.0"
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 5 * time.Second
	maxBodyBytes   = 1 << 20
)

// ErrBadStatus is returned for non-200 responses.
var ErrBadStatus = errors.New("suggest: unexpected response status")

// FetcherOptions tunes a Fetcher. Zero values pick the defaults.
type FetcherOptions struct {
	Client     *http.Client
	Timeout    time.Duration
	UserAgent  string
	RatePerSec float64
	Burst      int
}

// Fetcher performs templated GET requests with a shared rate limit.
type Fetcher struct {
	template  string
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
}

// NewFetcher validates template and builds a fetcher for it.
func NewFetcher(template string, opts FetcherOptions) (*Fetcher, error) {
	if !strings.Contains(template, engine.TermPlaceholder) {
		return nil, fmt.Errorf("suggest: template %q: %w", template, engine.ErrMissingTermPlaceholder)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	limit := rate.Inf
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Fetcher{
		template:  template,
		client:    client,
		userAgent: ua,
		limiter:   rate.NewLimiter(limit, burst),
	}, nil
}

// URL fills the template. Extra replacements are applied before the term.
func (f *Fetcher) URL(term string, replacements ...string) string {
	u := f.template
	if len(replacements) > 0 {
		u = strings.NewReplacer(replacements...).Replace(u)
	}
	return strings.ReplaceAll(u, engine.TermPlaceholder, engine.EncodeTerm(term))
}

// Get fetches rawURL and returns the body.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
