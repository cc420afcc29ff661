// Package httpx is the JSON HTTP helper shared by every upstream client:
// per-attempt timeout plus a bounded exponential backoff.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"GlobalStore/pkg/kit"
)

const (
	DefaultTimeout        = 10 * time.Second
	DefaultRetries        = 3
	DefaultInitialBackoff = 1 * time.Second

	// MaxRetries bounds the doubling backoff so its interval cannot overflow.
	MaxRetries = 10

	maxResponseBytes = 10 << 20
)

var (
	ErrUnavailable = errors.New("upstream unavailable")
	ErrBadStatus   = errors.New("upstream bad status")
	ErrEmptyBody   = errors.New("upstream empty body")
	ErrDecode      = errors.New("upstream bad json")
)

type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("%s: status=%d", ErrBadStatus, e.Code) }
func (e *StatusError) Unwrap() error { return ErrBadStatus }

// IsNotFound reports a 404 from upstream.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

type Options struct {
	Timeout        time.Duration
	Retries        int
	InitialBackoff time.Duration
	HTTP           *http.Client
	Log            *zap.Logger
	Metrics        *Metrics
}

type Client struct {
	BaseURL string
	Target  string

	http           *http.Client
	timeout        time.Duration
	retries        int
	initialBackoff time.Duration
	log            *zap.Logger
	metrics        *Metrics
}

// New builds a client for baseURL. target names the upstream in logs and
// metrics.
func New(baseURL, target string, opts Options) *Client {
	c := &Client{
		BaseURL:        strings.TrimRight(baseURL, "/"),
		Target:         target,
		http:           opts.HTTP,
		timeout:        opts.Timeout,
		retries:        opts.Retries,
		initialBackoff: opts.InitialBackoff,
		log:            kit.OrNop(opts.Log),
		metrics:        opts.Metrics,
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	c.retries = min(max(c.retries, 0), MaxRetries)
	if c.initialBackoff <= 0 {
		c.initialBackoff = DefaultInitialBackoff
	}
	return c
}

func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) PutJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = c.initialBackoff << c.retries
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.retries)), ctx)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	url := c.BaseURL + path
	attempt := 0

	op := func() error {
		attempt++
		start := time.Now()
		err := c.attempt(ctx, method, url, body, out)
		c.metrics.observe(c.Target, err, time.Since(start))
		if err != nil {
			c.log.Debug("upstream attempt failed",
				zap.String("target", c.Target),
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		return err
	}

	err := backoff.Retry(op, c.policy(ctx))
	if err != nil {
		c.log.Warn("upstream request failed",
			zap.String("target", c.Target),
			zap.String("method", method),
			zap.String("url", url),
			zap.Int("attempts", attempt),
			zap.Error(err),
		)
	}
	return err
}

func (c *Client) attempt(parent context.Context, method, url string, body []byte, out any) error {
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if parent.Err() != nil {
			return backoff.Permanent(parent.Err())
		}
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Code: resp.StatusCode}
		if retryable(resp.StatusCode) {
			return se
		}
		return backoff.Permanent(se)
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return backoff.Permanent(ErrEmptyBody)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return backoff.Permanent(fmt.Errorf("%w: %w", ErrDecode, err))
	}
	return nil
}

func retryable(code int) bool {
	return code >= 500 || code == http.StatusRequestTimeout || code == http.StatusTooManyRequests
}

// Metrics tracks upstream calls per attempt.
type Metrics struct {
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upstream_requests_total",
				Help: "Upstream HTTP attempts",
			},
			[]string{"target", "outcome"},
		),
		Latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "upstream_request_duration_seconds",
				Help: "Upstream HTTP attempt latency",
			},
			[]string{"target"},
		),
	}
	reg.MustRegister(m.Requests, m.Latency)
	return m
}

func (m *Metrics) observe(target string, err error, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrBadStatus):
		outcome = "bad_status"
	default:
		outcome = "error"
	}
	m.Requests.WithLabelValues(target, outcome).Inc()
	m.Latency.WithLabelValues(target).Observe(d.Seconds())
}
