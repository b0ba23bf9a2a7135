package catalog

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pantrylens/backend/internal/domain"
	"github.com/pantrylens/backend/internal/logging"
	"github.com/pantrylens/backend/internal/metrics"
)

const (
	defaultMinInterval = time.Second
	defaultTimeout     = 10 * time.Second
	defaultUserAgent   = "PantryLens/1.0"
)

// ClientConfig configures one upstream catalog source
type ClientConfig struct {
	Source      domain.SourceID
	BaseURL     string
	UserAgent   string
	MinInterval time.Duration
	Timeout     time.Duration
	Retry       RetryPolicy
	CacheTTL    CacheTTLs
	StoreBrands []string
}

// Option customizes a catalog client
type Option func(*options)

type options struct {
	logger *zap.Logger
	sleep  sleeper
	now    func() time.Time
}

// WithLogger sets the client logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithSleeper replaces the retry sleep, used by tests to observe backoff delays.
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(o *options) { o.sleep = fn }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{sleep: sleepContext, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = logging.OrNop(o.logger)
	return o
}

// transport executes gated, retried, breaker-protected GET requests against one source.
// Every outbound call, including health probes, passes the same gate.
type transport struct {
	source  domain.SourceID
	http    *resty.Client
	gate    *rate.Limiter
	retry   RetryPolicy
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[[]byte]
	sleep   sleeper
	now     func() time.Time
	logger  *zap.Logger
}

func newTransport(cfg ClientConfig, accept string, o options) (*transport, error) {
	if cfg.Source == "" {
		return nil, fmt.Errorf("%w: catalog source id is required", domain.ErrInvalidRequest)
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: invalid base url %q for source %s", domain.ErrInvalidRequest, cfg.BaseURL, cfg.Source)
	}

	minInterval := cfg.MinInterval
	if minInterval <= 0 {
		minInterval = defaultMinInterval
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	logger := o.logger.Named("catalog").With(zap.String("source", string(cfg.Source)))

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", accept).
		SetRetryCount(0).
		SetLogger(logger.Sugar())

	return &transport{
		source: cfg.Source,
		http:   client,
		// burst 1: each call waits until minInterval has passed since the previous one
		gate:    rate.NewLimiter(rate.Every(minInterval), 1),
		retry:   cfg.Retry.withDefaults(),
		timeout: timeout,
		breaker: newBreaker(cfg.Source, logger),
		sleep:   o.sleep,
		now:     o.now,
		logger:  logger,
	}, nil
}

// get performs one logical GET including retries and returns the response body
func (t *transport) get(ctx context.Context, operation, path string, query url.Values) ([]byte, error) {
	start := time.Now()

	// the first wait stays outside the breaker: a caller whose deadline cannot fit the gate
	// says nothing about the health of the source
	if err := t.wait(ctx, operation); err != nil {
		metrics.RecordCatalogRequest(string(t.source), operation, outcomeOf(err), time.Since(start))
		return nil, err
	}

	body, err := t.breaker.Execute(func() ([]byte, error) {
		return t.getWithRetry(ctx, operation, path, query)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %s: %v", domain.ErrCircuitOpen, t.source, err)
	}

	metrics.RecordCatalogRequest(string(t.source), operation, outcomeOf(err), time.Since(start))
	return body, err
}

func (t *transport) getWithRetry(ctx context.Context, operation, path string, query url.Values) ([]byte, error) {
	var lastErr error

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			if err := t.wait(ctx, operation); err != nil {
				return nil, err
			}
		}

		status, header, body, err := t.do(ctx, path, query)

		var delay time.Duration
		var reason string
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if isTimeout(err) {
				return nil, fmt.Errorf("%w: %s %s after %s", domain.ErrTimeout, operation, path, t.timeout)
			}
			lastErr = fmt.Errorf("%w: %s %s: %v", domain.ErrNetwork, operation, path, err)
			delay, reason = t.retry.Backoff(attempt), "transport"
		case status >= 200 && status < 300:
			return body, nil
		case status == http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s %s", domain.ErrProductNotFound, operation, path)
		case status == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("%w: %s %s", domain.ErrRateLimited, operation, path)
			delay, reason = t.retry.RateLimitDelay(header.Get("Retry-After"), t.now()), "rate_limited"
		case status >= 500:
			lastErr = fmt.Errorf("%w: %s %s: status %d", domain.ErrNetwork, operation, path, status)
			delay, reason = t.retry.Backoff(attempt), "server_error"
		default:
			return nil, fmt.Errorf("%w: %s %s: status %d", domain.ErrUpstreamStatus, operation, path, status)
		}

		if attempt >= t.retry.MaxRetries {
			t.logger.Warn("retries exhausted",
				zap.String("operation", operation),
				zap.Int("attempts", attempt+1),
				zap.Error(lastErr),
			)
			return nil, lastErr
		}

		t.logger.Warn("retrying catalog request",
			zap.String("operation", operation),
			zap.String("reason", reason),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", t.retry.MaxRetries),
			zap.Duration("delay", delay),
		)
		metrics.RecordRetry(string(t.source), reason)

		if err := t.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// wait blocks on the rate gate. rate.Limiter refuses up front when the wait would run past
// the context deadline; that refusal is reported as a timeout wrapping context.DeadlineExceeded.
func (t *transport) wait(ctx context.Context, operation string) error {
	if err := t.gate.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s on %s: rate gate wait would pass the deadline: %w",
			domain.ErrTimeout, operation, t.source, context.DeadlineExceeded)
	}
	return nil
}

// do sends a single request bounded by the per-request timeout
func (t *transport) do(ctx context.Context, path string, query url.Values) (int, http.Header, []byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req := t.http.R().SetContext(reqCtx)
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}

	resp, err := req.Get(path)
	if err != nil {
		return 0, nil, nil, err
	}
	return resp.StatusCode(), resp.Header(), resp.Body(), nil
}

// probe sends one lightweight request without cache, retry or breaker
func (t *transport) probe(ctx context.Context, path string) domain.HealthStatus {
	status := domain.HealthStatus{Source: t.source, CheckedAt: t.now()}

	if err := t.wait(ctx, "health"); err != nil {
		status.Status = domain.HealthBroken
		status.Errors = []string{err.Error()}
		return status
	}

	start := time.Now()
	code, _, _, err := t.do(ctx, path, nil)
	status.ResponseTimeMs = time.Since(start).Milliseconds()

	switch {
	case err != nil:
		status.Status = domain.HealthBroken
		if isTimeout(err) {
			status.Errors = []string{fmt.Sprintf("%v: %v", domain.ErrTimeout, err)}
		} else {
			status.Errors = []string{err.Error()}
		}
	case code >= 200 && code < 300:
		status.Healthy = true
		status.Status = domain.HealthHealthy
		status.StatusCode = code
	default:
		status.Status = domain.HealthDegraded
		status.StatusCode = code
		status.Errors = []string{fmt.Sprintf("unexpected status %d", code)}
	}

	metrics.RecordCatalogRequest(string(t.source), "health", status.Status, time.Duration(status.ResponseTimeMs)*time.Millisecond)
	return status
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrProductNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrCircuitOpen):
		return "rejected"
	default:
		return "error"
	}
}
