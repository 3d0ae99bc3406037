// Package testutil provides test helpers shared by rehearse package tests.
package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rehearse-dev/rehearse/internal/completion"
)

// TempProject creates a temporary directory with the given files and returns its path.
// Files is a map of relative path -> content. Directories are created as needed.
// The directory is automatically cleaned up when the test finishes.
func TempProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	for relPath, content := range files {
		absPath := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			t.Fatalf("creating directory for %s: %v", relPath, err)
		}
		if err := os.WriteFile(absPath, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", relPath, err)
		}
	}

	return dir
}

// MemoryProject returns project files selecting the in-memory store, so a
// test run leaves no database behind.
func MemoryProject(endpoint string) map[string]string {
	return map[string]string{
		".rehearse/config.yaml": "version: 1\ncompletion:\n  endpoint: " + endpoint + "\nstorage:\n  driver: memory\n",
	}
}

// Response is one scripted completion outcome.
type Response struct {
	Text string
	Err  error
}

// Reply scripts a successful completion.
func Reply(text string) Response { return Response{Text: text} }

// Fail scripts a completion failure of the given kind.
func Fail(kind completion.Kind) Response {
	r := Response{Err: &completion.Error{Kind: kind}}
	switch kind {
	case completion.KindInvalidCredential:
		r.Err = &completion.Error{Kind: kind, Status: http.StatusUnauthorized}
	case completion.KindInsufficientPermission:
		r.Err = &completion.Error{Kind: kind, Status: http.StatusForbidden}
	case completion.KindRateLimited:
		r.Err = &completion.Error{Kind: kind, Status: http.StatusTooManyRequests}
	}
	return r
}

// FakeCompleter replays scripted responses in order, then Default forever.
// When Gate is non-nil every call blocks until a value is received on it
// (or the context ends), which lets tests hold a call in flight.
type FakeCompleter struct {
	mu        sync.Mutex
	responses []Response
	prompts   []string
	Default   Response
	Gate      chan struct{}
	Started   chan struct{}
}

// NewFakeCompleter scripts the given responses.
func NewFakeCompleter(responses ...Response) *FakeCompleter {
	return &FakeCompleter{responses: responses, Default: Reply("Next question?")}
}

// Complete implements completion.Completer.
func (f *FakeCompleter) Complete(ctx context.Context, prompt string, _ ...completion.Option) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	resp := f.Default
	if len(f.responses) > 0 {
		resp = f.responses[0]
		f.responses = f.responses[1:]
	}
	gate, started := f.Gate, f.Started
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", &completion.Error{Kind: completion.KindNetworkFailure, Err: ctx.Err()}
		}
	}
	return resp.Text, resp.Err
}

// Prompts returns every prompt received so far.
func (f *FakeCompleter) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// Calls returns how many calls were made.
func (f *FakeCompleter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

// ChatServer starts an OpenAI-compatible endpoint that answers every request
// with content, in order, repeating the last one when exhausted.
func ChatServer(t *testing.T, contents ...string) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		content := "Tell me about yourself."
		if len(contents) > 0 {
			content = contents[0]
			if len(contents) > 1 {
				contents = contents[1:]
			}
		}
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}
