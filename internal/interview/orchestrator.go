// Package interview owns the lifecycle of one practice session: it asks
// questions, records answers, keeps the timer and hands the finished
// transcript to the report synthesizer.
package interview

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rehearse-dev/rehearse/internal/answer"
	"github.com/rehearse-dev/rehearse/internal/completion"
	"github.com/rehearse-dev/rehearse/internal/log"
	"github.com/rehearse-dev/rehearse/internal/practice"
	"github.com/rehearse-dev/rehearse/internal/report"
	"github.com/rehearse-dev/rehearse/internal/transcript"
	"github.com/rehearse-dev/rehearse/prompts"
)

// FallbackQuestion is asked whenever a question cannot be generated.
const FallbackQuestion = "Tell me about a challenging project you worked on and how you overcame obstacles."

// Reporter synthesizes a report from a finished session.
type Reporter interface {
	Generate(ctx context.Context, in report.Input) *report.Report
}

// Options holds optional collaborators. Zero values are replaced with
// working defaults.
type Options struct {
	Events    log.Sink
	Logger    *zap.Logger
	NewTicker func() Ticker
	Now       func() time.Time
}

// Snapshot is a point-in-time copy of the session.
type Snapshot struct {
	SessionID  string             `json:"sessionId,omitempty"`
	State      State              `json:"state"`
	ElapsedSec int                `json:"elapsedSeconds"`
	Busy       bool               `json:"busy"`
	Config     *practice.Config   `json:"config,omitempty"`
	Entries    []transcript.Entry `json:"entries"`
	StartedAt  time.Time          `json:"startedAt,omitempty"`
	EndedAt    time.Time          `json:"endedAt,omitempty"`
	Report     *report.Report     `json:"report,omitempty"`
}

// Orchestrator drives a single session. All methods are safe for concurrent
// use. At most one completion call is in flight at a time; the state mutex
// is never held across one.
type Orchestrator struct {
	client    completion.Completer
	reporter  Reporter
	events    log.Sink
	logger    *zap.Logger
	newTicker func() Ticker
	now       func() time.Time

	busy    atomic.Bool
	elapsed atomic.Int64

	mu         sync.Mutex
	state      State
	cfg        *practice.Config
	sessionID  string
	transcript *transcript.Transcript
	startedAt  time.Time
	endedAt    time.Time
	report     *report.Report
	gen        uint64
	timer      *sessionTimer
}

// New creates an idle Orchestrator.
func New(client completion.Completer, reporter Reporter, opts Options) *Orchestrator {
	o := &Orchestrator{
		client:     client,
		reporter:   reporter,
		events:     opts.Events,
		logger:     opts.Logger,
		newTicker:  opts.NewTicker,
		now:        opts.Now,
		transcript: transcript.New(),
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.newTicker == nil {
		o.newTicker = secondTicker
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// Start begins a new session with cfg and asks the first question. Starting
// from Ended or Reported discards the previous session. The returned error
// is non-nil only for refusals and credential problems; in the latter case
// the session is running and holds the fallback question.
func (o *Orchestrator) Start(ctx context.Context, cfg *practice.Config) error {
	if cfg == nil {
		return ErrConfigRequired
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid practice configuration: %w", err)
	}
	if !o.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer o.busy.Store(false)

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate session id: %w", err)
	}

	o.mu.Lock()
	if o.state == StateActive {
		o.mu.Unlock()
		return fmt.Errorf("%w: session already active", ErrInvalidTransition)
	}
	o.resetLocked()
	c := *cfg
	c.DifficultyLevel, _ = practice.ParseDifficulty(string(c.DifficultyLevel))
	o.cfg = &c
	o.sessionID = id.String()
	o.state = StateActive
	o.startedAt = o.now()
	o.timer = startTimer(o.newTicker(), &o.elapsed)
	gen := o.gen
	o.mu.Unlock()

	o.emit(log.LogEvent{
		Event:      log.EventSessionStarted,
		SessionID:  id.String(),
		JobRole:    c.JobRole,
		Difficulty: string(c.DifficultyLevel),
	})

	return o.askQuestion(ctx, gen, c)
}

// RequestQuestion asks the model for a fresh question.
func (o *Orchestrator) RequestQuestion(ctx context.Context) error {
	if !o.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer o.busy.Store(false)

	o.mu.Lock()
	if o.state != StateActive {
		o.mu.Unlock()
		return ErrNotActive
	}
	gen, cfg := o.gen, *o.cfg
	o.mu.Unlock()

	return o.askQuestion(ctx, gen, cfg)
}

// SubmitAnswer records text verbatim and asks the interviewer to react.
// Blank text, or no configured session, is a no-op.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, text string) error {
	return o.submit(ctx, transcript.KindAnswer, text, "")
}

// SubmitCode records a code submission and asks the interviewer to review it.
func (o *Orchestrator) SubmitCode(ctx context.Context, code, language string) error {
	return o.submit(ctx, transcript.KindCode, code, strings.TrimSpace(language))
}

func (o *Orchestrator) submit(ctx context.Context, kind transcript.Kind, content, language string) error {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	if !o.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer o.busy.Store(false)

	o.mu.Lock()
	if o.cfg == nil {
		o.mu.Unlock()
		return nil
	}
	if o.state != StateActive {
		o.mu.Unlock()
		return ErrNotActive
	}
	prior := o.transcript.Entries()
	entry, err := o.transcript.AppendCode(kind, content, language)
	gen, cfg, sid := o.gen, *o.cfg, o.sessionID
	o.mu.Unlock()
	if err != nil {
		return fmt.Errorf("recording %s: %w", kind, err)
	}

	ev := log.LogEvent{SessionID: sid, EntryID: entry.ID, Kind: string(kind), NonAnswer: answer.IsNonAnswer(content)}
	var prompt string
	if kind == transcript.KindCode {
		ev.Event = log.EventCodeSubmitted
		ev.Language = language
		prompt, err = BuildCodePrompt(cfg, prior, content, language)
	} else {
		ev.Event = log.EventAnswerSubmitted
		prompt, err = BuildAnswerPrompt(cfg, append(prior, entry))
	}
	o.emit(ev)

	var reply string
	if err == nil {
		reply, err = o.client.Complete(ctx, prompt)
	}
	if err == nil && strings.TrimSpace(reply) == "" {
		err = &completion.Error{Kind: completion.KindParseFailure, Err: fmt.Errorf("empty reply")}
	}
	if err != nil {
		o.failed(sid, "react", err)
		return o.askQuestion(ctx, gen, cfg)
	}

	return o.appendQuestion(gen, strings.TrimSpace(reply), false)
}

// askQuestion generates one question, substituting FallbackQuestion on any
// failure. The question is appended either way.
func (o *Orchestrator) askQuestion(ctx context.Context, gen uint64, cfg practice.Config) error {
	prompt, err := BuildQuestionPrompt(cfg)
	var text string
	if err == nil {
		text, err = o.client.Complete(ctx, prompt, completion.WithSystemPrompt(strings.TrimSpace(prompts.QuestionSystemPrompt)))
	}
	text = strings.TrimSpace(text)
	if err == nil && text == "" {
		err = &completion.Error{Kind: completion.KindParseFailure, Err: fmt.Errorf("empty question")}
	}

	fallback := err != nil
	if fallback {
		o.failed(o.currentSessionID(), "question", err)
		text = FallbackQuestion
	}
	if appendErr := o.appendQuestion(gen, text, fallback); appendErr != nil {
		return appendErr
	}
	if completion.IsCredentialError(err) {
		return fmt.Errorf("requesting question: %w", err)
	}
	return nil
}

// appendQuestion adds a question if the session that issued the call is
// still the active one.
func (o *Orchestrator) appendQuestion(gen uint64, text string, fallback bool) error {
	o.mu.Lock()
	if o.gen != gen || o.state != StateActive {
		sid := o.sessionID
		o.mu.Unlock()
		o.emit(log.LogEvent{Event: log.EventResponseDropped, SessionID: sid, Kind: string(transcript.KindQuestion)})
		return ErrResponseDiscarded
	}
	entry, err := o.transcript.Append(transcript.KindQuestion, text)
	sid := o.sessionID
	o.mu.Unlock()
	if err != nil {
		return fmt.Errorf("recording question: %w", err)
	}

	o.emit(log.LogEvent{Event: log.EventQuestionAsked, SessionID: sid, EntryID: entry.ID, Fallback: fallback})
	return nil
}

// Stop ends the active session and freezes the timer. It does not generate
// a report and does not cancel an in-flight call; a late reply is discarded.
func (o *Orchestrator) Stop() error {
	o.mu.Lock()
	if o.state != StateActive {
		o.mu.Unlock()
		return ErrNotActive
	}
	o.timer.halt()
	o.timer = nil
	o.state = StateEnded
	o.endedAt = o.now()
	ev := log.LogEvent{
		Event:      log.EventSessionStopped,
		SessionID:  o.sessionID,
		Entries:    o.transcript.Len(),
		ElapsedSec: int(o.elapsed.Load()),
	}
	o.mu.Unlock()

	o.emit(ev)
	return nil
}

// RequestReport synthesizes a report for the ended session. Calling it again
// from Reported generates a new report.
func (o *Orchestrator) RequestReport(ctx context.Context) (*report.Report, error) {
	if !o.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer o.busy.Store(false)

	o.mu.Lock()
	if o.state != StateEnded && o.state != StateReported {
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: report requires an ended session", ErrInvalidTransition)
	}
	in := report.Input{
		SessionID:  o.sessionID,
		Config:     *o.cfg,
		Entries:    o.transcript.Entries(),
		ElapsedSec: int(o.elapsed.Load()),
		EndedAt:    o.endedAt,
	}
	gen := o.gen
	o.mu.Unlock()

	r := o.reporter.Generate(ctx, in)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.gen != gen {
		return r, ErrResponseDiscarded
	}
	o.report = r
	o.state = StateReported
	return r, nil
}

// Reset discards the session and returns to Idle. Allowed from any state;
// a running timer is stopped and in-flight replies are discarded.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	sid := o.sessionID
	o.resetLocked()
	o.mu.Unlock()

	o.emit(log.LogEvent{Event: log.EventSessionReset, SessionID: sid})
}

// resetLocked clears all session state. Caller holds o.mu.
func (o *Orchestrator) resetLocked() {
	o.timer.halt()
	o.timer = nil
	o.gen++
	o.state = StateIdle
	o.cfg = nil
	o.sessionID = ""
	o.transcript.Reset()
	o.elapsed.Store(0)
	o.startedAt = time.Time{}
	o.endedAt = time.Time{}
	o.report = nil
}

// Close stops the timer on teardown. An active session is ended; late
// replies are discarded. Safe to call more than once.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.timer.halt()
	o.timer = nil
	o.gen++
	if o.state == StateActive {
		o.state = StateEnded
		o.endedAt = o.now()
	}
	return nil
}

// Snapshot returns a copy of the session.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := Snapshot{
		SessionID:  o.sessionID,
		State:      o.state,
		ElapsedSec: int(o.elapsed.Load()),
		Busy:       o.busy.Load(),
		Entries:    o.transcript.Entries(),
		StartedAt:  o.startedAt,
		EndedAt:    o.endedAt,
		Report:     o.report,
	}
	if o.cfg != nil {
		c := *o.cfg
		s.Config = &c
	}
	return s
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Elapsed returns whole seconds spent Active in the current session.
func (o *Orchestrator) Elapsed() int {
	return int(o.elapsed.Load())
}

// Busy reports whether a completion call is in flight.
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

func (o *Orchestrator) currentSessionID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessionID
}

func (o *Orchestrator) failed(sid, reason string, err error) {
	o.logger.Info("completion failed", zap.String("reason", reason), zap.String("kind", string(completion.KindOf(err))), zap.Error(err))
	o.emit(log.LogEvent{Event: log.EventCompletionFailed, SessionID: sid, Reason: reason, Error: err.Error()})
}

func (o *Orchestrator) emit(ev log.LogEvent) {
	if o.events == nil {
		return
	}
	if err := o.events.Append(ev); err != nil {
		o.logger.Debug("event log append", zap.Error(err))
	}
}
