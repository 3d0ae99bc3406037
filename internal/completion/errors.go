package completion

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a completion failure.
type Kind string

const (
	KindMissingCredential       Kind = "missing_credential"
	KindInvalidCredentialFormat Kind = "invalid_credential_format"
	KindInvalidCredential       Kind = "invalid_credential"
	KindInsufficientPermission  Kind = "insufficient_permission"
	KindRateLimited             Kind = "rate_limited"
	KindUpstreamError           Kind = "upstream_error"
	KindNetworkFailure          Kind = "network_failure"
	KindParseFailure            Kind = "parse_failure"
)

// Error is returned by every failing Client call.
// Status is the HTTP status for upstream errors and 0 otherwise.
type Error struct {
	Kind   Kind
	Status int
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("completion %s (status %d): %v", e.Kind, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("completion %s (status %d)", e.Kind, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("completion %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("completion %s", e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind carried by err, or "" if err is not a *Error.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// IsCredentialError reports whether err means the user must act on their
// credential. Such errors are surfaced, never retried.
func IsCredentialError(err error) bool {
	switch KindOf(err) {
	case KindMissingCredential, KindInvalidCredentialFormat, KindInvalidCredential, KindInsufficientPermission:
		return true
	default:
		return false
	}
}

// Retryable reports whether a retry could plausibly succeed.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindRateLimited, KindNetworkFailure:
		return true
	default:
		return false
	}
}

// statusKind maps a non-2xx HTTP status to a Kind.
func statusKind(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindInvalidCredential
	case http.StatusForbidden:
		return KindInsufficientPermission
	case http.StatusTooManyRequests:
		return KindRateLimited
	default:
		return KindUpstreamError
	}
}

// Guidance returns a user-facing message for err.
func Guidance(err error) string {
	var ce *Error
	if !errors.As(err, &ce) {
		if err == nil {
			return ""
		}
		return err.Error()
	}
	switch ce.Kind {
	case KindMissingCredential:
		return "No API key found. Run `rehearse key set <key>` or set REHEARSE_API_KEY."
	case KindInvalidCredentialFormat:
		return `Invalid API key format. Groq API keys should start with "gsk_".`
	case KindInvalidCredential:
		return "Invalid API key. Please check your Groq API key."
	case KindInsufficientPermission:
		return "API key is valid but doesn't have permission to access this model."
	case KindRateLimited:
		return "Rate limit exceeded. Please try again later."
	case KindUpstreamError:
		return fmt.Sprintf("API request failed with status %d: %s", ce.Status, http.StatusText(ce.Status))
	case KindNetworkFailure:
		if ce.Err != nil {
			return "Network error: " + ce.Err.Error()
		}
		return "Network error: Unknown error"
	case KindParseFailure:
		return "API responded but with unexpected format."
	default:
		return ce.Error()
	}
}
