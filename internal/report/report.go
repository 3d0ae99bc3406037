// Package report synthesizes the end-of-session assessment: a Q&A table
// built locally and a narrative scored by the completion API.
package report

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rehearse-dev/rehearse/internal/completion"
	"github.com/rehearse-dev/rehearse/internal/history"
	"github.com/rehearse-dev/rehearse/internal/log"
	"github.com/rehearse-dev/rehearse/internal/practice"
	"github.com/rehearse-dev/rehearse/internal/transcript"
)

// FailureMessage replaces the narrative when scoring fails.
const FailureMessage = "Failed to generate report. Please try again."

// Report is the synthesized session artifact. It is never mutated after
// Generate returns it.
type Report struct {
	SessionID      string           `json:"sessionId,omitempty"`
	Config         practice.Config  `json:"config"`
	QAPairs        []history.QAPair `json:"qaPairs"`
	Table          string           `json:"table"`
	Narrative      string           `json:"narrative"`
	Failed         bool             `json:"failed"`
	QuestionsAsked int              `json:"questionsAsked"`
	AnswersGiven   int              `json:"answersGiven"`
	NonAnswers     int              `json:"nonAnswers"`
	ElapsedSec     int              `json:"elapsedSeconds"`
	EndedAt        time.Time        `json:"endedAt"`
	GeneratedAt    time.Time        `json:"generatedAt"`
	Err            error            `json:"-"`
}

// Input is a read-only snapshot of a finished session.
type Input struct {
	SessionID  string
	Config     practice.Config
	Entries    []transcript.Entry
	ElapsedSec int
	EndedAt    time.Time
}

// HistoryWriter stores finished sessions.
type HistoryWriter interface {
	Prepend(ctx context.Context, rec history.Record) error
}

// Synthesizer turns a finished transcript into a Report.
type Synthesizer struct {
	client  completion.Completer
	history HistoryWriter
	events  log.Sink
	logger  *zap.Logger
	now     func() time.Time
}

// NewSynthesizer builds a Synthesizer. history, events and logger may be nil.
func NewSynthesizer(client completion.Completer, history HistoryWriter, events log.Sink, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{client: client, history: history, events: events, logger: logger, now: time.Now}
}

// Generate always returns a report. The session is appended to history
// before scoring, so every call adds one record. A scoring failure leaves
// the table intact and sets the narrative to FailureMessage.
func (s *Synthesizer) Generate(ctx context.Context, in Input) *Report {
	start := s.now()
	pairs := Pair(in.Entries)
	table := Table(pairs)

	r := &Report{
		SessionID:  in.SessionID,
		Config:     in.Config,
		QAPairs:    pairs,
		Table:      table,
		ElapsedSec: in.ElapsedSec,
		EndedAt:    in.EndedAt,
	}
	for _, e := range in.Entries {
		if e.Kind == transcript.KindQuestion {
			r.QuestionsAsked++
		}
	}
	r.AnswersGiven = len(pairs)
	for _, p := range pairs {
		if p.NonAnswer {
			r.NonAnswers++
		}
	}

	s.saveHistory(ctx, in, pairs)

	narrative, err := s.score(ctx, in.Config, pairs, table)
	if err != nil {
		r.Narrative = FailureMessage
		r.Failed = true
		r.Err = err
		s.logger.Warn("report scoring failed", zap.Error(err))
	} else {
		r.Narrative = narrative
	}
	r.GeneratedAt = s.now()

	s.emit(log.LogEvent{
		Event:      log.EventReportGenerated,
		SessionID:  in.SessionID,
		Pairs:      len(pairs),
		Entries:    len(in.Entries),
		Fallback:   r.Failed,
		Error:      errString(err),
		DurationMs: r.GeneratedAt.Sub(start).Milliseconds(),
	})
	return r
}

func (s *Synthesizer) score(ctx context.Context, cfg practice.Config, pairs []history.QAPair, table string) (string, error) {
	prompt, err := BuildPrompt(cfg, pairs, table)
	if err != nil {
		return "", err
	}
	out, err := s.client.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", &completion.Error{Kind: completion.KindParseFailure}
	}
	return out, nil
}

func (s *Synthesizer) saveHistory(ctx context.Context, in Input, pairs []history.QAPair) {
	if s.history == nil {
		return
	}
	id, err := uuid.NewV7()
	if err != nil {
		s.logger.Warn("history record id", zap.Error(err))
		return
	}
	endedAt := in.EndedAt
	if endedAt.IsZero() {
		endedAt = s.now()
	}
	rec := history.Record{
		ID:        id.String(),
		SessionID: in.SessionID,
		Config:    in.Config,
		QAPairs:   pairs,
		Messages:  in.Entries,
		EndedAt:   endedAt,
	}
	if err := s.history.Prepend(ctx, rec); err != nil {
		s.logger.Warn("saving session history", zap.Error(err))
	}
}

func (s *Synthesizer) emit(ev log.LogEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Append(ev); err != nil {
		s.logger.Debug("event log append", zap.Error(err))
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
