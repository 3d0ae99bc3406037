// Package completion wraps a single chat-completion HTTP call against an
// OpenAI-compatible endpoint.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/rehearse-dev/rehearse/internal/config"
)

// CredentialSource resolves the credential for a call.
type CredentialSource interface {
	Resolve(ctx context.Context) string
}

// Completer is the surface the interview and report packages depend on.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts ...Option) (string, error)
}

// Option adjusts a single Complete call.
type Option func(*callOptions)

type callOptions struct {
	systemPrompt string
	credential   string
}

// WithSystemPrompt prepends a system message.
func WithSystemPrompt(s string) Option {
	return func(o *callOptions) { o.systemPrompt = s }
}

// WithCredential overrides the resolved credential for one call.
func WithCredential(key string) Option {
	return func(o *callOptions) { o.credential = key }
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens"`
}

type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client performs completion calls. It holds no per-session state.
type Client struct {
	cfg        config.CompletionConfig
	creds      CredentialSource
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *Metrics
}

// NewClient builds a Client. creds may be nil when every call passes
// WithCredential; logger and metrics may be nil.
func NewClient(cfg config.CompletionConfig, creds CredentialSource, logger *zap.Logger, metrics *Metrics) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		creds:      creds,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		logger:     logger,
		metrics:    metrics,
	}
}

// Complete sends prompt as the user message and returns the first choice's
// content verbatim.
func (c *Client) Complete(ctx context.Context, prompt string, opts ...Option) (string, error) {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}

	key := o.credential
	if key == "" && c.creds != nil {
		key = c.creds.Resolve(ctx)
	}
	if key == "" {
		c.metrics.observe(modeGenerate, KindMissingCredential, 0)
		return "", &Error{Kind: KindMissingCredential}
	}

	messages := make([]message, 0, 2)
	if o.systemPrompt != "" {
		messages = append(messages, message{Role: "system", Content: o.systemPrompt})
	}
	messages = append(messages, message{Role: "user", Content: prompt})

	temp := c.cfg.Temperature
	body := request{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: &temp,
		MaxTokens:   c.cfg.MaxTokens,
	}

	start := time.Now()
	resp, err := c.withRetry(ctx, func() (*response, error) {
		return c.post(ctx, key, body)
	})
	c.metrics.observe(modeGenerate, KindOf(err), time.Since(start))
	if err != nil {
		c.logger.Debug("completion failed", zap.String("kind", string(KindOf(err))), zap.Error(err))
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", &Error{Kind: KindParseFailure, Err: errors.New("response has no choices")}
	}
	return resp.Choices[0].Message.Content, nil
}

// withRetry runs op once, or under exponential backoff when retries are
// configured. Only rate-limit and network failures are retried.
func (c *Client) withRetry(ctx context.Context, op func() (*response, error)) (*response, error) {
	if c.cfg.MaxRetries <= 0 {
		return op()
	}

	b := backoff.NewExponentialBackOff()
	if c.cfg.RetryInitialMs > 0 {
		b.InitialInterval = time.Duration(c.cfg.RetryInitialMs) * time.Millisecond
	}

	attempt := 0
	resp, err := backoff.Retry(ctx, func() (*response, error) {
		attempt++
		r, err := op()
		if err != nil && !Retryable(err) {
			return nil, backoff.Permanent(err)
		}
		return r, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(c.cfg.MaxRetries)+1),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Debug("retrying completion", zap.Int("attempt", attempt), zap.Duration("next", next), zap.Error(err))
		}),
	)
	if err != nil && KindOf(err) == "" {
		// Context cancellation while waiting between attempts.
		err = &Error{Kind: KindNetworkFailure, Err: err}
	}
	return resp, err
}

// post performs one HTTP round trip and classifies the outcome.
func (c *Client) post(ctx context.Context, key string, body request) (*response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, &Error{Kind: KindNetworkFailure, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetworkFailure, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetworkFailure, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: statusKind(resp.StatusCode), Status: resp.StatusCode, Err: upstreamMessage(raw)}
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &Error{Kind: KindParseFailure, Err: err}
	}
	return &out, nil
}

// upstreamMessage extracts {"error":{"message"}} from an error body, if any.
func upstreamMessage(raw []byte) error {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error.Message != "" {
		return errors.New(body.Error.Message)
	}
	return nil
}
