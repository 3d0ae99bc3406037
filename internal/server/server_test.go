package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehearse-dev/rehearse/internal/completion"
	"github.com/rehearse-dev/rehearse/internal/config"
	"github.com/rehearse-dev/rehearse/internal/credential"
	"github.com/rehearse-dev/rehearse/internal/history"
	"github.com/rehearse-dev/rehearse/internal/interview"
	"github.com/rehearse-dev/rehearse/internal/kv"
	"github.com/rehearse-dev/rehearse/internal/report"
	"github.com/rehearse-dev/rehearse/internal/testutil"
)

type fixture struct {
	srv     *httptest.Server
	fake    *testutil.FakeCompleter
	session *interview.Orchestrator
	store   kv.Store
}

func newFixture(t *testing.T, responses ...testutil.Response) *fixture {
	t.Helper()
	store := kv.NewMemoryStore()
	hist := history.NewStore(store)
	fake := testutil.NewFakeCompleter(responses...)
	session := interview.New(fake, report.NewSynthesizer(fake, hist, nil, nil), interview.Options{})
	t.Cleanup(func() { _ = session.Close() })

	chat := testutil.ChatServer(t, "pong")
	ccfg := config.DefaultConfig().Completion
	ccfg.Endpoint = chat.URL
	reg := prometheus.NewRegistry()
	client := completion.NewClient(ccfg, nil, nil, completion.NewMetrics(reg))

	s := New(Deps{
		Session:    session,
		Store:      store,
		Resolver:   credential.NewResolver(store, "", nil),
		Validator:  client,
		History:    hist,
		Gatherer:   reg,
		ReportsDir: t.TempDir(),
	})
	srv := httptest.NewServer(s.Routes())
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, fake: fake, session: session, store: store}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, rd)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeSession(t *testing.T, data []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

var engineer = map[string]string{"jobRole": "Software Engineer", "difficultyLevel": "beginner"}

func TestStartWithoutConfigIsBadRequest(t *testing.T) {
	f := newFixture(t)
	resp, data := f.do(t, http.MethodPost, "/api/v1/session/start", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(data), "config_required")
}

func TestStartSavesConfigAndAsksQuestion(t *testing.T) {
	f := newFixture(t, testutil.Reply("What is a pointer?"))
	resp, data := f.do(t, http.MethodPost, "/api/v1/session/start", engineer)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	body := decodeSession(t, data)
	session := body["session"].(map[string]interface{})
	assert.Equal(t, "active", session["state"])
	entries := session["entries"].([]interface{})
	require.Len(t, entries, 1)
	assert.Equal(t, "What is a pointer?", entries[0].(map[string]interface{})["content"])

	resp, data = f.do(t, http.MethodGet, "/api/v1/config", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"jobRole":"Software Engineer"`)
}

func TestStartWithInvalidConfig(t *testing.T) {
	f := newFixture(t)
	resp, data := f.do(t, http.MethodPost, "/api/v1/session/start", map[string]string{"jobRole": "SRE", "difficultyLevel": "guru"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(data), "validation_error")
}

func TestCredentialFailureReturnsWarning(t *testing.T) {
	f := newFixture(t, testutil.Fail(completion.KindInvalidCredential))
	resp, data := f.do(t, http.MethodPost, "/api/v1/session/start", engineer)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeSession(t, data)
	warning := out["warning"].(map[string]interface{})
	assert.Equal(t, string(completion.KindInvalidCredential), warning["code"])
	assert.Equal(t, "Invalid API key. Please check your Groq API key.", warning["message"])
	entries := out["session"].(map[string]interface{})["entries"].([]interface{})
	assert.Equal(t, interview.FallbackQuestion, entries[0].(map[string]interface{})["content"])
}

func TestFullSessionFlow(t *testing.T) {
	f := newFixture(t,
		testutil.Reply("Q1"),
		testutil.Reply("Q2"),
		testutil.Reply("Q3"),
		testutil.Reply("## Summary\nScore: 20"),
	)

	resp, _ := f.do(t, http.MethodPost, "/api/v1/session/start", engineer)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/api/v1/session/answer", map[string]string{"text": "idk"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/api/v1/session/code", map[string]string{"code": "print(1)", "language": "python"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data := f.do(t, http.MethodPost, "/api/v1/session/report", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "report needs an ended session")
	assert.Contains(t, string(data), "invalid_state")

	resp, _ = f.do(t, http.MethodPost, "/api/v1/session/stop", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/api/v1/session/answer", map[string]string{"text": "too late"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, data = f.do(t, http.MethodPost, "/api/v1/session/report", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var rep report.Report
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Len(t, rep.QAPairs, 2)
	assert.True(t, rep.QAPairs[0].NonAnswer)
	assert.Contains(t, rep.QAPairs[1].Answer, "[code: python]")
	assert.Contains(t, rep.Table, "| Question | Answer | Kind |")
	assert.Equal(t, "## Summary\nScore: 20", rep.Narrative)

	resp, data = f.do(t, http.MethodGet, "/api/v1/history", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var records []history.Record
	require.NoError(t, json.Unmarshal(data, &records))
	assert.Len(t, records, 1)

	resp, data = f.do(t, http.MethodPost, "/api/v1/session/reset", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"state":"idle"`)
}

func TestBusySessionIsConflict(t *testing.T) {
	f := newFixture(t, testutil.Reply("Q1"))
	resp, _ := f.do(t, http.MethodPost, "/api/v1/session/start", engineer)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	gate := make(chan struct{})
	f.fake.Gate = gate
	f.fake.Started = make(chan struct{}, 4)

	done := make(chan int, 1)
	go func() {
		resp, err := http.Post(f.srv.URL+"/api/v1/session/answer", "application/json", strings.NewReader(`{"text":"first"}`))
		if err != nil {
			done <- 0
			return
		}
		resp.Body.Close()
		done <- resp.StatusCode
	}()
	<-f.fake.Started

	resp, data := f.do(t, http.MethodPost, "/api/v1/session/question", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(data), `"code":"busy"`)

	close(gate)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestCredentialEndpoints(t *testing.T) {
	f := newFixture(t)

	resp, data := f.do(t, http.MethodGet, "/api/v1/credential", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"hasKey":false`)

	resp, data = f.do(t, http.MethodPut, "/api/v1/credential", map[string]string{"key": "gsk_abc123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"keyPrefix":"gsk_"`)
	assert.Contains(t, string(data), `"source":"user"`)
	assert.NotContains(t, string(data), "abc123", "the key itself is never echoed")

	resp, data = f.do(t, http.MethodPost, "/api/v1/credential/validate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"isValid":true`)

	resp, data = f.do(t, http.MethodPost, "/api/v1/credential/validate", map[string]string{"key": "sk-wrong"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), string(completion.KindInvalidCredentialFormat))

	resp, data = f.do(t, http.MethodDelete, "/api/v1/credential", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"source":"none"`)

	resp, _ = f.do(t, http.MethodPut, "/api/v1/credential", map[string]string{"key": " "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	_, _ = f.do(t, http.MethodPost, "/api/v1/credential/validate", map[string]string{"key": "gsk_x"})

	resp, data := f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(data), "rehearse_completion_requests_total"))
}

func TestMalformedBody(t *testing.T) {
	f := newFixture(t)
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, f.srv.URL+"/api/v1/session/answer", strings.NewReader("{"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
