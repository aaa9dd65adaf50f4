package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"github.com/donaldgifford/rulesync/internal/metrics"
	"github.com/donaldgifford/rulesync/internal/tracing"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 512
)

// requester is the HTTP plumbing shared by RulerClient and PrometheusClient.
type requester struct {
	store   string
	baseURL string
	prefix  string
	tenant  string

	username string
	password string
	tokens   TokenProvider

	client      *http.Client
	rateLimiter *RateLimiter
}

// Option configures a backend client.
type Option func(*requester)

// WithPathPrefix overrides the API path under the base URL, for example
// "/prometheus/config/v1/rules" for a Mimir ruler.
func WithPathPrefix(p string) Option {
	return func(r *requester) {
		r.prefix = strings.TrimSuffix(p, "/")
	}
}

// WithTenant sets the X-Scope-OrgID header sent on every request.
func WithTenant(tenant string) Option {
	return func(r *requester) {
		r.tenant = tenant
	}
}

// WithBasicAuth sets HTTP basic auth credentials.
func WithBasicAuth(username, password string) Option {
	return func(r *requester) {
		r.username = username
		r.password = password
	}
}

// WithTokenProvider sets the source of bearer tokens. It takes precedence
// over basic auth.
func WithTokenProvider(p TokenProvider) Option {
	return func(r *requester) {
		r.tokens = p
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(r *requester) {
		r.client = hc
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(r *requester) {
		r.client = &http.Client{Timeout: d}
	}
}

// WithRateLimiter makes every request wait on r first.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(r *requester) {
		r.rateLimiter = rl
	}
}

func newRequester(store, baseURL, prefix string, opts []Option) requester {
	r := requester{
		store:   store,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		prefix:  prefix,
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// get performs a GET against path (relative to the prefix) and returns the
// body of a 200 response. Any other status is a *StatusError.
func (r *requester) get(ctx context.Context, path string, query url.Values, accept string) (body []byte, err error) {
	ctx, span := tracing.Start(ctx, "backend.get",
		attribute.String("rulesync.store", r.store),
		attribute.String("http.path", r.prefix+path),
	)
	start := time.Now()
	defer func() {
		metrics.FetchDuration.WithLabelValues(r.store).Observe(time.Since(start).Seconds())
		tracing.End(span, err)
	}()

	if r.rateLimiter != nil {
		if err := r.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	u := r.baseURL + r.prefix + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Accept", accept)
	tracing.Inject(ctx, propagation.HeaderCarrier(req.Header))
	if r.tenant != "" {
		req.Header.Set("X-Scope-OrgID", r.tenant)
	}
	if err := r.authorize(ctx, req); err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing %s request: %w", r.store, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(body)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, &StatusError{Store: r.store, Code: resp.StatusCode, Body: strings.TrimSpace(msg)}
	}
	return body, nil
}

func (r *requester) authorize(ctx context.Context, req *http.Request) error {
	switch {
	case r.tokens != nil:
		token, err := r.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("getting auth token: %w", err)
		}
		if token == "" {
			return errors.New("getting auth token: empty token")
		}
		req.Header.Set("Authorization", "Bearer "+token)
	case r.username != "":
		req.SetBasicAuth(r.username, r.password)
	}
	return nil
}
