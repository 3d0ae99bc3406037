// Package credential decides which API key a completion call uses.
package credential

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/rehearse-dev/rehearse/internal/kv"
)

// Prefix is the expected start of a provider API key.
const Prefix = "gsk_"

// Source names where a resolved credential came from.
type Source string

const (
	SourceUser    Source = "user"
	SourceDefault Source = "default"
	SourceNone    Source = "none"
)

// Status describes the active credential without exposing it.
type Status struct {
	HasKey bool   `json:"hasKey"`
	Length int    `json:"keyLength"`
	Prefix string `json:"keyPrefix"`
	Source Source `json:"source"`
}

// Resolver resolves the credential at call time: a user-supplied key in the
// store wins over the process default, which wins over nothing.
type Resolver struct {
	store      kv.Store
	defaultKey string
	logger     *zap.Logger
}

// NewResolver creates a Resolver. store may be nil, in which case only the
// default key is consulted.
func NewResolver(store kv.Store, defaultKey string, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{store: store, defaultKey: strings.TrimSpace(defaultKey), logger: logger}
}

// Resolve returns the active credential or "". It never fails; storage
// errors are logged and treated as an absent user key.
func (r *Resolver) Resolve(ctx context.Context) string {
	key, _ := r.resolve(ctx)
	return key
}

func (r *Resolver) resolve(ctx context.Context) (string, Source) {
	if r.store != nil {
		v, ok, err := r.store.Get(ctx, kv.KeyUserAPIKey)
		if err != nil {
			r.logger.Warn("reading user credential", zap.Error(err))
		} else if ok {
			if v = strings.TrimSpace(v); v != "" {
				return v, SourceUser
			}
		}
	}
	if r.defaultKey != "" {
		return r.defaultKey, SourceDefault
	}
	return "", SourceNone
}

// Set stores a user-supplied credential.
func (r *Resolver) Set(ctx context.Context, key string) error {
	if r.store == nil {
		return errors.New("no credential store configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("credential is empty")
	}
	return r.store.Set(ctx, kv.KeyUserAPIKey, key)
}

// Clear removes the user-supplied credential; the default applies again.
func (r *Resolver) Clear(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	return r.store.Delete(ctx, kv.KeyUserAPIKey)
}

// Status reports the shape and origin of the active credential.
func (r *Resolver) Status(ctx context.Context) Status {
	key, src := r.resolve(ctx)
	st := Status{HasKey: key != "", Length: len(key), Source: src}
	if len(key) >= 4 {
		st.Prefix = key[:4]
	} else {
		st.Prefix = key
	}
	return st
}

// HasPrefix reports whether key looks like a provider key.
func HasPrefix(key string) bool {
	return strings.HasPrefix(key, Prefix)
}
