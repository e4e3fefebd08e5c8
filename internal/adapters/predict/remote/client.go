// Package remote calls an external model serving endpoint as a feed predictor
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"time"

	"bioreactor/internal/core/observation"
	"bioreactor/internal/platform/config"
	perr "bioreactor/internal/platform/errors"
	"bioreactor/internal/platform/logger"

	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	defaultTimeout   = 5 * time.Second
	defaultMaxRetry  = 3
	defaultRetryBase = 200 * time.Millisecond
	defaultTrip      = 5
	defaultCooldown  = 30 * time.Second
	maxBackoff       = 5 * time.Second
	maxBody          = 1 << 20
)

// Options configures the Client
type Options struct {
	URL       string
	Token     string // sent as a bearer token when set
	Timeout   time.Duration
	UserAgent string

	// retries apply to transport errors and 5xx only
	MaxRetries int
	RetryBase  time.Duration

	// the breaker opens after BreakerFailures consecutive failed calls and probes again after BreakerCooldown
	BreakerFailures int
	BreakerCooldown time.Duration
}

// FromConfig reads URL, TOKEN, TIMEOUT, MAX_RETRIES, RETRY_BASE, BREAKER_FAILURES and BREAKER_COOLDOWN
// under c, e.g. CORE_MODEL_REMOTE_
func FromConfig(c config.Conf) Options {
	return Options{
		URL:             c.MustURL("URL").String(),
		Token:           c.MayString("TOKEN", ""),
		Timeout:         c.MayDuration("TIMEOUT", defaultTimeout),
		MaxRetries:      c.MayInt("MAX_RETRIES", defaultMaxRetry),
		RetryBase:       c.MayDuration("RETRY_BASE", defaultRetryBase),
		BreakerFailures: c.MayInt("BREAKER_FAILURES", defaultTrip),
		BreakerCooldown: c.MayDuration("BREAKER_COOLDOWN", defaultCooldown),
	}
}

type (
	instance struct {
		Features []float64 `json:"features"`
	}
	request struct {
		Instances []instance `json:"instances"`
	}
	response struct {
		Predictions []float64 `json:"predictions"`
	}
)

// Client predicts feed rates over HTTP; it satisfies feed.Predictor
type Client struct {
	http    *http.Client
	opts    Options
	log     logger.Logger
	breaker *gobreaker.CircuitBreaker[[]byte]
	now     func() time.Time
	sleep   func(context.Context, time.Duration) error
}

// New creates a Client with defaults for unset options
func New(o Options) *Client {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	if o.UserAgent == "" {
		o.UserAgent = "bioreactor-advisor"
	}
	if o.BreakerFailures <= 0 {
		o.BreakerFailures = defaultTrip
	}
	if o.BreakerCooldown <= 0 {
		o.BreakerCooldown = defaultCooldown
	}
	c := &Client{
		http:  &http.Client{Timeout: o.Timeout},
		opts:  o,
		log:   *logger.Named("predict.remote"),
		now:   time.Now,
		sleep: sleepCtx,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "predict.remote",
		Timeout: o.BreakerCooldown,
		ReadyToTrip: func(n gobreaker.Counts) bool {
			return n.ConsecutiveFailures >= uint32(o.BreakerFailures)
		},
		// caller cancellation says nothing about the endpoint
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("model breaker state change")
		},
	})
	return c
}

// BreakerState reports closed, half-open or open
func (c *Client) BreakerState() string { return c.breaker.State().String() }

// Predict posts one instance and returns the single prediction
func (c *Client) Predict(ctx context.Context, f observation.Features) (float64, error) {
	body, err := json.Marshal(request{Instances: []instance{{Features: f.Slice()}}})
	if err != nil {
		return 0, perr.Wrap(err, perr.ErrorCodeJSON, "encode prediction request")
	}

	raw, err := c.breaker.Execute(func() ([]byte, error) { return c.post(ctx, body) })
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return 0, perr.Wrap(err, perr.ErrorCodeUnavailable, "model endpoint circuit open")
	}
	if err != nil {
		return 0, err
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, perr.Wrap(err, perr.ErrorCodeUnknown, "decode prediction response")
	}
	if len(out.Predictions) != 1 {
		return 0, perr.Newf(perr.ErrorCodeUnknown, "model returned %d predictions for 1 instance", len(out.Predictions))
	}
	p := out.Predictions[0]
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, perr.Newf(perr.ErrorCodeUnknown, "model returned non-finite prediction")
	}
	return p, nil
}

// post sends body and returns the 2xx response body, retrying transport errors and 5xx
func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.URL, bytes.NewReader(body))
		if err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "build prediction request")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.opts.UserAgent)
		if c.opts.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.opts.Token)
		}

		start := c.now()
		resp, err := c.http.Do(req)
		lat := c.now().Sub(start)

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if attempt >= c.opts.MaxRetries {
				return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "model endpoint unreachable")
			}
			if err := c.retry(ctx, attempt, 0, err); err != nil {
				return nil, err
			}
			continue
		}

		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		_ = resp.Body.Close()

		c.log.Debug().Int("status", resp.StatusCode).Int("attempt", attempt).Dur("latency", lat).Msg("model response")

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if readErr != nil {
				return nil, perr.Wrap(readErr, perr.ErrorCodeUnavailable, "read model response")
			}
			return raw, nil
		case resp.StatusCode >= 500:
			if attempt >= c.opts.MaxRetries {
				return nil, perr.Unavailablef("model endpoint status %d", resp.StatusCode)
			}
			if err := c.retry(ctx, attempt, resp.StatusCode, nil); err != nil {
				return nil, err
			}
		default:
			return nil, perr.Unavailablef("model endpoint status %d: %s", resp.StatusCode, tail(raw))
		}
	}
}

func (c *Client) retry(ctx context.Context, attempt, status int, cause error) error {
	back := c.backoff(attempt)
	c.log.Warn().Err(cause).Int("status", status).Int("attempt", attempt).Dur("retry_in", back).Msg("model call failed, retrying")
	return c.sleep(ctx, back)
}

// backoff doubles RetryBase per attempt up to maxBackoff
func (c *Client) backoff(attempt int) time.Duration {
	d := c.opts.RetryBase << uint(min(attempt, 16))
	return min(d, maxBackoff)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func tail(b []byte) string {
	const n = 256
	if len(b) > n {
		b = b[:n]
	}
	return string(bytes.TrimSpace(b))
}
