package credential

import (
	"context"
	"errors"
	"testing"

	"github.com/rehearse-dev/rehearse/internal/kv"
)

type failingStore struct{ kv.Store }

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}

func TestResolvePrecedence(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name       string
		user       string
		def        string
		want       string
		wantSource Source
	}{
		{"user wins", "gsk_user", "gsk_default", "gsk_user", SourceUser},
		{"default when no user key", "", "gsk_default", "gsk_default", SourceDefault},
		{"empty when neither", "", "", "", SourceNone},
		{"blank user key ignored", "   ", "gsk_default", "gsk_default", SourceDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := kv.NewMemoryStore()
			if tt.user != "" {
				if err := store.Set(ctx, kv.KeyUserAPIKey, tt.user); err != nil {
					t.Fatalf("Set: %v", err)
				}
			}
			r := NewResolver(store, tt.def, nil)
			if got := r.Resolve(ctx); got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
			if st := r.Status(ctx); st.Source != tt.wantSource {
				t.Errorf("Status().Source = %q, want %q", st.Source, tt.wantSource)
			}
		})
	}
}

func TestResolveStoreErrorFallsBackToDefault(t *testing.T) {
	r := NewResolver(failingStore{kv.NewMemoryStore()}, "gsk_default", nil)
	if got := r.Resolve(context.Background()); got != "gsk_default" {
		t.Errorf("Resolve() = %q, want default", got)
	}
}

func TestSetAndClear(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(kv.NewMemoryStore(), "gsk_default", nil)

	if err := r.Set(ctx, "  gsk_abcdef  "); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := r.Resolve(ctx); got != "gsk_abcdef" {
		t.Errorf("after Set, Resolve() = %q", got)
	}

	st := r.Status(ctx)
	if !st.HasKey || st.Length != len("gsk_abcdef") || st.Prefix != "gsk_" {
		t.Errorf("Status() = %+v", st)
	}

	if err := r.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got := r.Resolve(ctx); got != "gsk_default" {
		t.Errorf("after Clear, Resolve() = %q", got)
	}
}

func TestSetRejectsEmpty(t *testing.T) {
	r := NewResolver(kv.NewMemoryStore(), "", nil)
	if err := r.Set(context.Background(), "  "); err == nil {
		t.Error("Set should reject a blank credential")
	}
}

func TestNilStoreUsesDefaultOnly(t *testing.T) {
	r := NewResolver(nil, "gsk_default", nil)
	if got := r.Resolve(context.Background()); got != "gsk_default" {
		t.Errorf("Resolve() = %q", got)
	}
	if err := r.Set(context.Background(), "gsk_x"); err == nil {
		t.Error("Set without a store should fail")
	}
}

func TestHasPrefix(t *testing.T) {
	if !HasPrefix("gsk_123") || HasPrefix("sk-123") {
		t.Error("HasPrefix mismatch")
	}
}
