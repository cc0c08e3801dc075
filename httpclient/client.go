package httpclient

import (
	"context"
	"crypto/tls"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/http2"

	"github.com/kbukum/previewkit/errors"
	"github.com/kbukum/previewkit/logger"
	"github.com/kbukum/previewkit/resilience"
)

const tracerName = "github.com/kbukum/previewkit/httpclient"

// Response is a fully read HTTP response.
type Response struct {
	// URL is the final URL after redirects.
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ContentType returns the response Content-Type header.
func (r *Response) ContentType() string {
	return r.Header.Get("Content-Type")
}

// Client is an HTTP client with retry, per-host circuit breakers and
// bulkheads, and a shared rate limiter.
type Client struct {
	httpClient *http.Client
	transport  *http.Transport
	config     Config
	limiter    *resilience.RateLimiter
	breakers   *resilience.Group[*resilience.CircuitBreaker]
	bulkheads  *resilience.Group[*resilience.Bulkhead]
	log        *logger.Logger
	tracer     trace.Tracer
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the logger used for retries and breaker transitions.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

// New creates a new HTTP client with the given configuration.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}

	c := &Client{
		httpClient: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		transport:  transport,
		config:     cfg,
		limiter:    resilience.NewRateLimiter(cfg.Resilience.RateLimit),
		log:        logger.Get("httpclient"),
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breakers = resilience.NewGroup(func(host string) *resilience.CircuitBreaker {
		bc := cfg.Resilience.Breaker.Named(host)
		if bc.IsFailure == nil {
			bc.IsFailure = errors.IsRetryable
		}
		if bc.OnStateChange == nil {
			bc.OnStateChange = c.logStateChange
		}
		return resilience.NewCircuitBreaker(bc)
	})
	c.bulkheads = resilience.NewGroup(func(host string) *resilience.Bulkhead {
		return resilience.NewBulkhead(host, cfg.Resilience.MaxPerHost)
	})
	return c, nil
}

func newTransport(cfg Config) (*http.Transport, error) {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	if cfg.DisableHTTP2 {
		// A non-nil empty map stops net/http from negotiating h2.
		t.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}
		return t, nil
	}
	h2, err := http2.ConfigureTransports(t)
	if err != nil {
		return nil, fmt.Errorf("httpclient: configure http2: %w", err)
	}
	h2.ReadIdleTimeout = 30 * time.Second
	h2.PingTimeout = 15 * time.Second
	return t, nil
}

// Get fetches rawURL. Retryable failures are retried with backoff; the
// returned error is an *errors.AppError unless ctx ended, in which case it
// is the context error.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	u, err := parseURL(rawURL)
	if err != nil {
		return nil, err
	}
	host := u.Host

	ctx, span := c.tracer.Start(ctx, "httpclient.get",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("url.full", u.Redacted()),
			attribute.String("server.address", host),
		),
	)
	defer span.End()

	retryCfg := c.config.Resilience.Retry
	retryCfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		span.AddEvent("retry", trace.WithAttributes(attribute.Int("attempt", attempt)))
		c.log.Warn("retrying request", logger.MergeWithError(logger.Fields(
			logger.FieldURL, u.Redacted(),
			"attempt", attempt,
			"backoff", backoff.String(),
		), err))
	}

	resp, err := resilience.Retry(ctx, retryCfg, func(ctx context.Context, _ int) (*Response, error) {
		return c.attempt(ctx, u)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(errors.CodeOf(err)))
		if status := StatusCode(err); status > 0 {
			span.SetAttributes(attribute.Int("http.response.status_code", status))
		}
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("http.response.status_code", resp.StatusCode),
		attribute.Int("http.response.body.size", len(resp.Body)),
	)
	return resp, nil
}

// attempt runs one request through the limiter, the host breaker and the
// host bulkhead.
func (c *Client) attempt(ctx context.Context, u *url.URL) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var resp *Response
	err := c.breakers.Get(u.Host).Execute(func() error {
		return c.bulkheads.Get(u.Host).Execute(ctx, func() error {
			var err error
			resp, err = c.doOnce(ctx, u)
			return err
		})
	})
	if stderrors.Is(err, resilience.ErrCircuitOpen) {
		return nil, errors.ServiceUnavailable(u.Host).WithCause(err)
	}
	return resp, err
}

func (c *Client) doOnce(ctx context.Context, u *url.URL) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.InvalidInput("url", err.Error())
	}
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err, u.Host)
	}
	defer func() { _ = res.Body.Close() }()

	if appErr := ClassifyStatusCode(res.StatusCode, u.Host, u.Redacted()); appErr != nil {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4<<10))
		return nil, appErr
	}

	limit := c.config.MaxBodyBytes
	body, err := io.ReadAll(io.LimitReader(res.Body, limit+1))
	if err != nil {
		return nil, classifyTransportError(ctx, err, u.Host)
	}
	if int64(len(body)) > limit {
		return nil, errors.InvalidInput("body", fmt.Sprintf("response exceeds %d bytes", limit)).
			WithDetail("url", u.Redacted())
	}

	return &Response{
		URL:        res.Request.URL.String(),
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       body,
	}, nil
}

// OpenCircuits returns the hosts whose breaker is not closed, sorted.
func (c *Client) OpenCircuits() []string {
	var hosts []string
	c.breakers.Each(func(host string, cb *resilience.CircuitBreaker) {
		if cb.State() != resilience.StateClosed {
			hosts = append(hosts, host)
		}
	})
	sort.Strings(hosts)
	return hosts
}

// BreakerState returns the breaker state for host.
func (c *Client) BreakerState(host string) resilience.State {
	return c.breakers.Get(host).State()
}

// CloseIdleConnections closes idle keep-alive connections.
func (c *Client) CloseIdleConnections() {
	c.transport.CloseIdleConnections()
}

// Unwrap returns the underlying *http.Client for advanced use cases.
func (c *Client) Unwrap() *http.Client {
	return c.httpClient
}

func (c *Client) logStateChange(host string, from, to resilience.State) {
	fields := logger.Fields("host", host, "from", from.String(), "to", to.String())
	if to == resilience.StateOpen {
		c.log.Warn("circuit opened", fields)
		return
	}
	c.log.Info("circuit state changed", fields)
}

func parseURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.InvalidInput("url", err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.InvalidInput("url", fmt.Sprintf("unsupported scheme %q", u.Scheme))
	}
	if u.Host == "" {
		return nil, errors.InvalidInput("url", "missing host")
	}
	return u, nil
}
