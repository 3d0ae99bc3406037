// Package capture defines the speech capabilities the interview front ends
// use and binds them to external commands.
package capture

import (
	"context"
	"errors"
)

// Partial is one incremental transcription result. Interim results are
// replaced by later ones; final results accumulate.
type Partial struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

// Transcriber turns speech into a stream of partial results. The channel
// is closed once the transcriber has stopped producing; consumers read it
// until then. Stop may block while the last results are delivered.
type Transcriber interface {
	Start(ctx context.Context) (<-chan Partial, error)
	Stop() error
}

// Speaker reads text aloud, returning when playback ends or ctx is done.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// AnswerSink receives the flushed dictation text.
type AnswerSink interface {
	SubmitAnswer(ctx context.Context, text string) error
}

var (
	ErrAlreadyRecording = errors.New("dictation already recording")
	ErrNotRecording     = errors.New("dictation not recording")
)
