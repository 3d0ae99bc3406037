package interview

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/rehearse-dev/rehearse/internal/answer"
	"github.com/rehearse-dev/rehearse/internal/completion"
	"github.com/rehearse-dev/rehearse/internal/log"
	"github.com/rehearse-dev/rehearse/internal/practice"
	"github.com/rehearse-dev/rehearse/internal/report"
	"github.com/rehearse-dev/rehearse/internal/testutil"
	"github.com/rehearse-dev/rehearse/internal/transcript"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type manualTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               { m.stopped.Store(true) }

// tick delivers one tick; it blocks until the timer goroutine takes it.
func (m *manualTicker) tick(t *testing.T) {
	t.Helper()
	select {
	case m.ch <- time.Now():
	case <-time.After(time.Second):
		t.Fatal("timer goroutine did not take the tick")
	}
}

type memSink struct {
	mu     sync.Mutex
	events []log.LogEvent
}

func (s *memSink) Append(ev log.LogEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *memSink) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, e := range s.events {
		out = append(out, e.Event)
	}
	return out
}

type countingReporter struct {
	calls atomic.Int32
	last  report.Input
}

func (c *countingReporter) Generate(_ context.Context, in report.Input) *report.Report {
	c.calls.Add(1)
	c.last = in
	return &report.Report{SessionID: in.SessionID, Narrative: "ok", Table: report.Table(report.Pair(in.Entries))}
}

type harness struct {
	o        *Orchestrator
	fake     *testutil.FakeCompleter
	reporter *countingReporter
	sink     *memSink

	mu      sync.Mutex
	tickers []*manualTicker
}

func newHarness(t *testing.T, responses ...testutil.Response) *harness {
	t.Helper()
	h := &harness{
		fake:     testutil.NewFakeCompleter(responses...),
		reporter: &countingReporter{},
		sink:     &memSink{},
	}
	h.o = New(h.fake, h.reporter, Options{
		Events: h.sink,
		NewTicker: func() Ticker {
			h.mu.Lock()
			defer h.mu.Unlock()
			tk := &manualTicker{ch: make(chan time.Time)}
			h.tickers = append(h.tickers, tk)
			return tk
		},
	})
	t.Cleanup(func() { _ = h.o.Close() })
	return h
}

func (h *harness) ticker() *manualTicker {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tickers[len(h.tickers)-1]
}

var beginner = &practice.Config{JobRole: "Software Engineer", DifficultyLevel: practice.Beginner}

func contents(entries []transcript.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = string(e.Kind) + ":" + e.Content
	}
	return out
}

func TestStartRequiresConfig(t *testing.T) {
	h := newHarness(t)
	if err := h.o.Start(context.Background(), nil); !errors.Is(err, ErrConfigRequired) {
		t.Fatalf("Start(nil) = %v, want ErrConfigRequired", err)
	}
	if h.o.State() != StateIdle {
		t.Errorf("state = %s, want idle", h.o.State())
	}
	if h.fake.Calls() != 0 {
		t.Error("no completion call expected")
	}
}

func TestStartRejectsInvalidConfig(t *testing.T) {
	h := newHarness(t)
	err := h.o.Start(context.Background(), &practice.Config{JobRole: " ", DifficultyLevel: practice.Beginner})
	if err == nil {
		t.Fatal("Start with blank role should fail")
	}
	if h.o.State() != StateIdle {
		t.Errorf("state = %s", h.o.State())
	}
}

func TestStartAsksFirstQuestion(t *testing.T) {
	h := newHarness(t, testutil.Reply("  What is a variable?\n"))

	if err := h.o.Start(context.Background(), beginner); err != nil {
		t.Fatalf("Start: %v", err)
	}
	snap := h.o.Snapshot()
	if snap.State != StateActive {
		t.Errorf("state = %s, want active", snap.State)
	}
	if len(snap.Entries) != 1 || snap.Entries[0].Kind != transcript.KindQuestion {
		t.Fatalf("entries = %v", contents(snap.Entries))
	}
	if snap.Entries[0].Content != "What is a variable?" {
		t.Errorf("question not trimmed: %q", snap.Entries[0].Content)
	}
	if snap.SessionID == "" || snap.Config == nil || snap.Config.JobRole != "Software Engineer" {
		t.Errorf("snapshot = %+v", snap)
	}

	prompt := h.fake.Prompts()[0]
	for _, want := range []string{"beginner", "Software Engineer", "fundamentals", "single interview question"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("question prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestStartNormalizesDifficulty(t *testing.T) {
	h := newHarness(t, testutil.Reply("Design a rate limiter."))

	cfg := &practice.Config{JobRole: "SRE", DifficultyLevel: "Advanced"}
	if err := h.o.Start(context.Background(), cfg); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := h.o.Snapshot().Config.DifficultyLevel; got != practice.Advanced {
		t.Errorf("difficulty = %q, want %q", got, practice.Advanced)
	}
	if cfg.DifficultyLevel != "Advanced" {
		t.Errorf("caller config mutated: %q", cfg.DifficultyLevel)
	}
	if prompt := h.fake.Prompts()[0]; !strings.Contains(prompt, "system design") {
		t.Errorf("question prompt missing advanced focus:\n%s", prompt)
	}
}

func TestStartWhileActiveRefused(t *testing.T) {
	h := newHarness(t)
	if err := h.o.Start(context.Background(), beginner); err != nil {
		t.Fatal(err)
	}
	if err := h.o.Start(context.Background(), beginner); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second Start = %v, want ErrInvalidTransition", err)
	}
}

func TestIdkAnswerIsRecordedVerbatim(t *testing.T) {
	h := newHarness(t, testutil.Reply("What is a loop?"), testutil.Reply("No problem. What is an array?"))
	ctx := context.Background()

	if err := h.o.Start(ctx, beginner); err != nil {
		t.Fatal(err)
	}
	if err := h.o.SubmitAnswer(ctx, "idk"); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	entries := h.o.Snapshot().Entries
	want := []string{"question:What is a loop?", "answer:idk", "question:No problem. What is an array?"}
	if strings.Join(contents(entries), "|") != strings.Join(want, "|") {
		t.Errorf("entries = %v, want %v", contents(entries), want)
	}
	if !answer.IsNonAnswer(entries[1].Content) {
		t.Error(`IsNonAnswer("idk") should be true`)
	}

	react := h.fake.Prompts()[1]
	if !strings.Contains(react, "Interviewer: What is a loop?\nCandidate: idk") {
		t.Errorf("reactive prompt missing history:\n%s", react)
	}
}

func TestCredentialFailureAppendsFallbackAndSurfaces(t *testing.T) {
	h := newHarness(t, testutil.Fail(completion.KindInvalidCredential), testutil.Fail(completion.KindInvalidCredential))
	ctx := context.Background()

	err := h.o.Start(ctx, beginner)
	if !completion.IsCredentialError(err) {
		t.Fatalf("Start error = %v, want credential error", err)
	}
	entries := h.o.Snapshot().Entries
	if len(entries) != 1 || entries[0].Content != FallbackQuestion {
		t.Fatalf("entries = %v", contents(entries))
	}

	err = h.o.RequestQuestion(ctx)
	if completion.KindOf(err) != completion.KindInvalidCredential {
		t.Errorf("RequestQuestion error = %v", err)
	}
	entries = h.o.Snapshot().Entries
	if len(entries) != 2 || entries[1].Kind != transcript.KindQuestion || entries[1].Content != FallbackQuestion {
		t.Errorf("entries = %v", contents(entries))
	}
	if h.o.State() != StateActive {
		t.Errorf("state = %s", h.o.State())
	}
}

func TestOtherFailuresFallBackSilently(t *testing.T) {
	for _, kind := range []completion.Kind{completion.KindRateLimited, completion.KindUpstreamError, completion.KindNetworkFailure, completion.KindParseFailure} {
		t.Run(string(kind), func(t *testing.T) {
			h := newHarness(t, testutil.Fail(kind))
			if err := h.o.Start(context.Background(), beginner); err != nil {
				t.Fatalf("Start: %v", err)
			}
			entries := h.o.Snapshot().Entries
			if len(entries) != 1 || entries[0].Content != FallbackQuestion {
				t.Errorf("entries = %v", contents(entries))
			}
		})
	}
}

func TestBlankReplyUsesFallback(t *testing.T) {
	h := newHarness(t, testutil.Reply("   "))
	if err := h.o.Start(context.Background(), beginner); err != nil {
		t.Fatal(err)
	}
	if got := h.o.Snapshot().Entries[0].Content; got != FallbackQuestion {
		t.Errorf("question = %q", got)
	}
}

func TestReactFailureFallsBackToNewQuestion(t *testing.T) {
	h := newHarness(t,
		testutil.Reply("Q1"),
		testutil.Fail(completion.KindNetworkFailure),
		testutil.Reply("Q2"),
	)
	ctx := context.Background()
	if err := h.o.Start(ctx, beginner); err != nil {
		t.Fatal(err)
	}
	if err := h.o.SubmitAnswer(ctx, "a mutex guards shared state"); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	want := "question:Q1|answer:a mutex guards shared state|question:Q2"
	if got := strings.Join(contents(h.o.Snapshot().Entries), "|"); got != want {
		t.Errorf("entries = %s, want %s", got, want)
	}
	if h.fake.Calls() != 3 {
		t.Errorf("calls = %d, want 3", h.fake.Calls())
	}
}

func TestSubmitNoOps(t *testing.T) {
	h := newHarness(t, testutil.Reply("Q1"))
	ctx := context.Background()

	if err := h.o.SubmitAnswer(ctx, "before start"); err != nil {
		t.Errorf("SubmitAnswer without session = %v, want nil", err)
	}
	if err := h.o.Start(ctx, beginner); err != nil {
		t.Fatal(err)
	}
	if err := h.o.SubmitAnswer(ctx, "  \n\t"); err != nil {
		t.Errorf("blank SubmitAnswer = %v", err)
	}
	if err := h.o.SubmitCode(ctx, "", "go"); err != nil {
		t.Errorf("blank SubmitCode = %v", err)
	}
	if n := len(h.o.Snapshot().Entries); n != 1 {
		t.Errorf("entries = %d, want 1", n)
	}
	if h.fake.Calls() != 1 {
		t.Errorf("calls = %d, want 1", h.fake.Calls())
	}
}

func TestSubmitAfterStopNotActive(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_ = h.o.Start(ctx, beginner)
	if err := h.o.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := h.o.SubmitAnswer(ctx, "late"); !errors.Is(err, ErrNotActive) {
		t.Errorf("SubmitAnswer after Stop = %v, want ErrNotActive", err)
	}
	if err := h.o.RequestQuestion(ctx); !errors.Is(err, ErrNotActive) {
		t.Errorf("RequestQuestion after Stop = %v", err)
	}
	if err := h.o.Stop(); !errors.Is(err, ErrNotActive) {
		t.Errorf("second Stop = %v", err)
	}
}

func TestSubmitCode(t *testing.T) {
	h := newHarness(t, testutil.Reply("Print the number one."), testutil.Reply("What does print return?"))
	ctx := context.Background()
	_ = h.o.Start(ctx, beginner)

	if err := h.o.SubmitCode(ctx, "print(1)", " python "); err != nil {
		t.Fatalf("SubmitCode: %v", err)
	}
	entries := h.o.Snapshot().Entries
	if len(entries) != 3 {
		t.Fatalf("entries = %v", contents(entries))
	}
	c := entries[1]
	if c.Kind != transcript.KindCode || c.Content != "print(1)" || c.Language != "python" {
		t.Errorf("code entry = %+v", c)
	}

	prompt := h.fake.Prompts()[1]
	if !strings.Contains(prompt, "```python\nprint(1)\n```") {
		t.Errorf("code prompt missing fenced code:\n%s", prompt)
	}
	if !strings.Contains(prompt, "code reviewer") {
		t.Error("code prompt should ask for a reviewer reaction")
	}
	if strings.Count(prompt, "print(1)") != 1 {
		t.Error("code should appear once in the prompt")
	}
}

func TestTimerCountsAndFreezesOnStop(t *testing.T) {
	h := newHarness(t)
	_ = h.o.Start(context.Background(), beginner)

	tk := h.ticker()
	for i := 0; i < 3; i++ {
		tk.tick(t)
	}
	if err := h.o.Stop(); err != nil {
		t.Fatal(err)
	}
	if got := h.o.Elapsed(); got != 3 {
		t.Errorf("Elapsed after 3 ticks = %d", got)
	}
	if !tk.stopped.Load() {
		t.Error("ticker not stopped")
	}

	select {
	case tk.ch <- time.Now():
		t.Fatal("timer goroutine still running after Stop")
	case <-time.After(20 * time.Millisecond):
	}
	if got := h.o.Elapsed(); got != 3 {
		t.Errorf("Elapsed changed after Stop: %d", got)
	}
}

func TestStartAfterReportedClearsSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_ = h.o.Start(ctx, beginner)
	first := h.o.Snapshot().SessionID
	h.ticker().tick(t)
	_ = h.o.SubmitAnswer(ctx, "answer")
	_ = h.o.Stop()
	if _, err := h.o.RequestReport(ctx); err != nil {
		t.Fatalf("RequestReport: %v", err)
	}
	if h.o.State() != StateReported {
		t.Fatalf("state = %s", h.o.State())
	}

	if err := h.o.Start(ctx, beginner); err != nil {
		t.Fatal(err)
	}
	snap := h.o.Snapshot()
	if len(snap.Entries) != 1 || snap.ElapsedSec != 0 || snap.Report != nil {
		t.Errorf("session not cleared: %d entries, elapsed %d, report %v", len(snap.Entries), snap.ElapsedSec, snap.Report)
	}
	if snap.SessionID == first {
		t.Error("new session should have a new id")
	}
}

func TestRequestReportTransitions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.o.RequestReport(ctx); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("RequestReport from idle = %v", err)
	}
	_ = h.o.Start(ctx, beginner)
	if _, err := h.o.RequestReport(ctx); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("RequestReport while active = %v", err)
	}

	_ = h.o.SubmitAnswer(ctx, "dunno")
	_ = h.o.Stop()
	r, err := h.o.RequestReport(ctx)
	if err != nil {
		t.Fatalf("RequestReport: %v", err)
	}
	if len(h.reporter.last.Entries) != 3 {
		t.Errorf("reporter saw %d entries", len(h.reporter.last.Entries))
	}
	if h.o.Snapshot().Report != r {
		t.Error("snapshot should hold the latest report")
	}

	if _, err := h.o.RequestReport(ctx); err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if h.reporter.calls.Load() != 2 {
		t.Errorf("reporter calls = %d, want 2", h.reporter.calls.Load())
	}
}

func TestResetReturnsToIdle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_ = h.o.Start(ctx, beginner)
	tk := h.ticker()
	tk.tick(t)

	h.o.Reset()
	snap := h.o.Snapshot()
	if snap.State != StateIdle || len(snap.Entries) != 0 || snap.ElapsedSec != 0 || snap.Config != nil {
		t.Errorf("after Reset: %+v", snap)
	}
	if !tk.stopped.Load() {
		t.Error("Reset must stop the timer")
	}
	if err := h.o.SubmitAnswer(ctx, "anything"); err != nil {
		t.Errorf("SubmitAnswer after Reset = %v, want no-op", err)
	}
}

// gate holds the next completion call in flight until released.
func gate(h *harness) (release func()) {
	g := make(chan struct{})
	h.fake.Gate = g
	h.fake.Started = make(chan struct{}, 1)
	return func() { close(g) }
}

func TestLateResponseDiscardedAfterStop(t *testing.T) {
	h := newHarness(t, testutil.Reply("Q1"), testutil.Reply("late question"))
	ctx := context.Background()
	_ = h.o.Start(ctx, beginner)

	release := gate(h)
	errc := make(chan error, 1)
	go func() { errc <- h.o.SubmitAnswer(ctx, "my answer") }()

	<-h.fake.Started
	if err := h.o.Stop(); err != nil {
		t.Fatalf("Stop during call: %v", err)
	}
	release()

	if err := <-errc; !errors.Is(err, ErrResponseDiscarded) {
		t.Errorf("SubmitAnswer = %v, want ErrResponseDiscarded", err)
	}
	want := "question:Q1|answer:my answer"
	if got := strings.Join(contents(h.o.Snapshot().Entries), "|"); got != want {
		t.Errorf("entries = %s, want %s", got, want)
	}
}

func TestConcurrentOperationsRejectedWhileBusy(t *testing.T) {
	h := newHarness(t, testutil.Reply("Q1"))
	ctx := context.Background()
	_ = h.o.Start(ctx, beginner)

	release := gate(h)
	errc := make(chan error, 1)
	go func() { errc <- h.o.SubmitAnswer(ctx, "first") }()
	<-h.fake.Started

	if !h.o.Busy() || !h.o.Snapshot().Busy {
		t.Error("Busy should be true while a call is in flight")
	}
	if err := h.o.SubmitAnswer(ctx, "second"); !errors.Is(err, ErrBusy) {
		t.Errorf("concurrent SubmitAnswer = %v, want ErrBusy", err)
	}
	if err := h.o.RequestQuestion(ctx); !errors.Is(err, ErrBusy) {
		t.Errorf("concurrent RequestQuestion = %v, want ErrBusy", err)
	}

	release()
	if err := <-errc; err != nil {
		t.Errorf("first SubmitAnswer = %v", err)
	}
	if h.o.Busy() {
		t.Error("Busy should clear after the call")
	}
	for _, e := range h.o.Snapshot().Entries {
		if e.Content == "second" {
			t.Error("rejected answer was recorded")
		}
	}
}

func TestCloseEndsSessionAndStopsTimer(t *testing.T) {
	h := newHarness(t)
	_ = h.o.Start(context.Background(), beginner)
	tk := h.ticker()

	if err := h.o.Close(); err != nil {
		t.Fatal(err)
	}
	if h.o.State() != StateEnded {
		t.Errorf("state = %s, want ended", h.o.State())
	}
	if !tk.stopped.Load() {
		t.Error("Close must stop the timer")
	}
	if err := h.o.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestEventsLogged(t *testing.T) {
	h := newHarness(t, testutil.Reply("Q1"), testutil.Reply("Q2"))
	ctx := context.Background()
	_ = h.o.Start(ctx, beginner)
	_ = h.o.SubmitAnswer(ctx, "idk")
	_ = h.o.Stop()
	h.o.Reset()

	want := []string{
		log.EventSessionStarted,
		log.EventQuestionAsked,
		log.EventAnswerSubmitted,
		log.EventQuestionAsked,
		log.EventSessionStopped,
		log.EventSessionReset,
	}
	if got := h.sink.names(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", got, want)
	}
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	if !h.sink.events[2].NonAnswer {
		t.Error("answer_submitted should flag the non-answer")
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{StateIdle: "idle", StateActive: "active", StateEnded: "ended", StateReported: "reported"} {
		if s.String() != want {
			t.Errorf("%d.String() = %q", s, s.String())
		}
	}
}
