// Package completion calls an OpenRouter-compatible chat-completion API.
package completion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/hongminglow/horoscope-be/internal/config"
	"github.com/hongminglow/horoscope-be/internal/logging"
	"github.com/hongminglow/horoscope-be/internal/metrics"
)

const (
	DefaultURL     = "https://openrouter.ai/api/v1/chat/completions"
	DefaultTimeout = 30 * time.Second

	breakerName     = "completion-api"
	maxResponseSize = 1 << 20
)

// Completer produces the raw assistant text for a payload.
type Completer interface {
	Complete(ctx context.Context, payload Payload) (string, error)
}

var _ Completer = (*Client)(nil)

// Client is safe for concurrent use.
type Client struct {
	apiKey     string
	url        string
	referer    string
	title      string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[string]
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBreakerSettings replaces the circuit breaker configuration.
func WithBreakerSettings(st gobreaker.Settings) Option {
	return func(c *Client) { c.breaker = newBreaker(st) }
}

// New builds a Client from configuration. A missing API key is not an
// error here; every call then fails with KindConfiguration.
func New(cfg config.CompletionConfig, opts ...Option) *Client {
	c := &Client{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		url:        cfg.URL,
		referer:    cfg.Referer,
		title:      cfg.Title,
		timeout:    cfg.Timeout,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Inf, 1),
	}
	if c.url == "" {
		c.url = DefaultURL
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if cfg.RatePerSec > 0 {
		burst := int(cfg.RatePerSec)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
	}
	c.breaker = newBreaker(defaultBreakerSettings())
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func defaultBreakerSettings() gobreaker.Settings {
	return gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
}

func newBreaker(st gobreaker.Settings) *gobreaker.CircuitBreaker[string] {
	if st.Name == "" {
		st.Name = breakerName
	}
	st.IsSuccessful = func(err error) bool {
		return err == nil || clientSide(err)
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state transition")
		metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
	}
	metrics.CircuitBreakerState.WithLabelValues(st.Name).Set(0)
	return gobreaker.NewCircuitBreaker[string](st)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Complete sends payload and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, payload Payload) (string, error) {
	log := logging.Ctx(ctx)
	start := time.Now()

	content, err := c.complete(ctx, payload)

	outcome := "success"
	if err != nil {
		outcome = string(KindOf(err))
	}
	elapsed := time.Since(start)
	metrics.CompletionRequests.WithLabelValues(outcome).Inc()
	metrics.CompletionDuration.Observe(elapsed.Seconds())

	event := log.Debug()
	if err != nil {
		event = log.Warn().Err(err)
	}
	event.Str("model", payload.Model).
		Int("max_tokens", payload.MaxTokens).
		Str("outcome", outcome).
		Dur("latency", elapsed).
		Msg("completion request")

	return content, err
}

func (c *Client) complete(ctx context.Context, payload Payload) (string, error) {
	if c.apiKey == "" {
		return "", &Error{Kind: KindConfiguration, Err: ErrNotConfigured}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return "", &Error{Kind: KindProvider, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	content, err := c.breaker.Execute(func() (string, error) {
		return c.send(ctx, payload)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", &Error{Kind: KindProvider, Err: err}
		}
		return "", err
	}
	return content, nil
}

func (c *Client) send(ctx context.Context, payload Payload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", &Error{Kind: KindRequest, Err: fmt.Errorf("encode payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Kind: KindProvider, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Error{Kind: KindProvider, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", &Error{Kind: KindProvider, Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", &Error{Kind: KindAuth, Status: resp.StatusCode, Message: providerMessage(raw)}
	case resp.StatusCode == http.StatusBadRequest:
		return "", &Error{Kind: KindRequest, Status: resp.StatusCode, Message: providerMessage(raw)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", &Error{Kind: KindProvider, Status: resp.StatusCode, Message: providerMessage(raw)}
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", &Error{Kind: KindProvider, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return "", &Error{Kind: KindEmptyResponse, Status: resp.StatusCode}
	}
	return decoded.Choices[0].Message.Content, nil
}

// providerMessage extracts error.message from a provider error body,
// falling back to the trimmed body text.
func providerMessage(raw []byte) string {
	var e errorResponse
	if err := json.Unmarshal(raw, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
