// Package upstream is the shared plumbing for third-party market data APIs:
// rate limiting, a circuit breaker, bounded retries and error mapping.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	svcmetrics "CoinSense/internal/service/metrics"
	xhttp "CoinSense/pkg/http"
	applogger "CoinSense/pkg/logger"
)

// Config describes one provider.
type Config struct {
	Name    string
	BaseURL string
	Timeout time.Duration
	RPS     float64
	Burst   int
	Headers map[string]string
}

// Option tunes a Base.
type Option func(*Base)

// Base executes JSON requests against one provider.
type Base struct {
	name     string
	baseURL  string
	headers  map[string]string
	client   *xhttp.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	attempts int
	backoff  time.Duration
	trip     uint32
	open     time.Duration
	log      *applogger.Logger
	hc       *http.Client
}

// New builds a Base. A non-positive RPS disables rate limiting.
func New(cfg Config, opts ...Option) *Base {
	b := &Base{
		name:     cfg.Name,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		headers:  cfg.Headers,
		attempts: 3,
		backoff:  200 * time.Millisecond,
		trip:     5,
		open:     30 * time.Second,
		log:      applogger.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	clientOpts := []xhttp.ClientOption{xhttp.WithTimeout(timeout)}
	if b.hc != nil {
		clientOpts = append(clientOpts, xhttp.WithHTTPClient(b.hc))
	}
	b.client = xhttp.NewClient(clientOpts...)

	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		b.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	trip := b.trip
	b.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     cfg.Name,
		Interval: 60 * time.Second,
		Timeout:  b.open,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= trip
		},
		IsSuccessful: func(err error) bool {
			return !countsAsFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			svcmetrics.SetBreakerState(name, int(to))
			b.log.Warn("upstream breaker state changed",
				applogger.String("provider", name),
				applogger.String("from", from.String()),
				applogger.String("to", to.String()),
			)
		},
	})
	return b
}

// WithRetry sets the total attempts per call and the base backoff between them.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(b *Base) {
		if attempts > 0 {
			b.attempts = attempts
		}
		if backoff > 0 {
			b.backoff = backoff
		}
	}
}

// WithBreaker trips the breaker after n consecutive provider failures and keeps it open for d.
func WithBreaker(n uint32, d time.Duration) Option {
	return func(b *Base) {
		if n > 0 {
			b.trip = n
		}
		if d > 0 {
			b.open = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *applogger.Logger) Option {
	return func(b *Base) {
		if l != nil {
			b.log = l
		}
	}
}

// WithHTTPClient swaps the transport client, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(b *Base) {
		b.hc = hc
	}
}

// Name returns the provider name.
func (b *Base) Name() string { return b.name }

// GetJSON issues a GET to path with query and decodes the JSON body into dest.
func (b *Base) GetJSON(ctx context.Context, path string, query url.Values, dest interface{}) error {
	return b.Do(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         b.baseURL + path,
		QueryParams: query,
	}, dest)
}

// PostJSON posts payload as JSON to path and decodes the response into dest.
func (b *Base) PostJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	return b.Do(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     b.baseURL + path,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    payload,
	}, dest)
}

// Do runs one logical request: wait for the limiter, then up to the configured
// attempts through the breaker. Only transient failures are retried.
func (b *Base) Do(ctx context.Context, opts *xhttp.RequestOptions, dest interface{}) error {
	endpoint := endpointLabel(opts.URL, b.baseURL)
	opts.Headers = b.mergeHeaders(opts.Headers)

	var lastErr error
	for attempt := 1; attempt <= b.attempts; attempt++ {
		if b.limiter != nil {
			if err := b.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("%s %s: wait for rate limiter: %w", b.name, endpoint, err)
			}
		}

		start := time.Now()
		_, err := b.breaker.Execute(func() (interface{}, error) {
			return nil, b.client.SendAndParse(ctx, opts, dest)
		})
		mapped, kind, retry := classify(err)
		svcmetrics.ObserveCall(b.name, endpoint, time.Since(start), kind)
		if err == nil {
			return nil
		}

		lastErr = wrap(b.name, endpoint, mapped, err)
		if !retry || attempt == b.attempts {
			break
		}
		b.log.Debug("upstream retry",
			applogger.String("provider", b.name),
			applogger.String("endpoint", endpoint),
			applogger.Int("attempt", attempt),
			applogger.Error(err),
		)
		select {
		case <-time.After(time.Duration(attempt) * b.backoff):
		case <-ctx.Done():
			return fmt.Errorf("%s %s: %w", b.name, endpoint, ctx.Err())
		}
	}
	if errors.Is(lastErr, ErrUpstreamUnavailable) {
		b.log.Warn("upstream call failed",
			applogger.String("provider", b.name),
			applogger.String("endpoint", endpoint),
			applogger.Error(lastErr),
		)
	}
	return lastErr
}

func (b *Base) mergeHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(b.headers)+len(h)+1)
	out["Accept"] = "application/json"
	for k, v := range b.headers {
		out[k] = v
	}
	for k, v := range h {
		out[k] = v
	}
	return out
}

// endpointLabel keeps metric cardinality low by dropping the query string.
func endpointLabel(raw, base string) string {
	p := strings.TrimPrefix(raw, base)
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	return p
}
