package completion

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rehearse-dev/rehearse/internal/credential"
)

// probeMessage is the fixed user message sent when validating a key.
const probeMessage = "Hello, this is a test message."

// Validation is the outcome of probing a credential.
// Kind is empty when Valid is true.
type Validation struct {
	Valid   bool   `json:"isValid"`
	Message string `json:"message"`
	Kind    Kind   `json:"error,omitempty"`
}

// Validate checks a credential with one small completion call. Empty and
// malformed keys are rejected without touching the network. Retries are
// never applied.
func (c *Client) Validate(ctx context.Context, key string) Validation {
	key = strings.TrimSpace(key)
	if key == "" {
		return c.invalid(&Error{Kind: KindMissingCredential}, 0)
	}
	if !credential.HasPrefix(key) {
		return c.invalid(&Error{Kind: KindInvalidCredentialFormat}, 0)
	}

	body := request{
		Model:     c.cfg.Model,
		Messages:  []message{{Role: "user", Content: probeMessage}},
		MaxTokens: c.cfg.ValidateMaxTokens,
	}

	start := time.Now()
	resp, err := c.post(ctx, key, body)
	if err != nil {
		return c.invalid(err, time.Since(start))
	}
	if len(resp.Choices) == 0 {
		return c.invalid(&Error{Kind: KindParseFailure, Err: errors.New("response has no choices")}, time.Since(start))
	}

	c.metrics.observe(modeValidate, "", time.Since(start))
	return Validation{Valid: true, Message: "API key is valid and working correctly!"}
}

func (c *Client) invalid(err error, elapsed time.Duration) Validation {
	kind := KindOf(err)
	if kind == "" {
		kind = KindNetworkFailure
	}
	c.metrics.observe(modeValidate, kind, elapsed)
	return Validation{Valid: false, Message: Guidance(err), Kind: kind}
}
