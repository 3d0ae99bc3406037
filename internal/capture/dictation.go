package capture

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Dictation accumulates transcription results while recording and, on
// Stop, waits for results to settle before submitting the text as an answer.
type Dictation struct {
	tr     Transcriber
	sink   AnswerSink
	settle *Debouncer
	logger *zap.Logger

	mu        sync.Mutex
	recording bool
	finals    []string
	interim   string
	onSettle  func()
	cancel    context.CancelFunc
	done      chan struct{}
}

type flushResult struct {
	text string
	err  error
}

// NewDictation wires a transcriber to an answer sink. settle is the quiet
// period after Stop during which late results are still collected.
func NewDictation(tr Transcriber, sink AnswerSink, settle time.Duration, logger *zap.Logger) *Dictation {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dictation{tr: tr, sink: sink, settle: NewDebouncer(settle), logger: logger}
}

// Start begins recording. Any text from a previous recording is discarded.
func (d *Dictation) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.recording || d.done != nil {
		return ErrAlreadyRecording
	}

	ch, err := d.tr.Start(ctx)
	if err != nil {
		return err
	}

	cctx, cancel := context.WithCancel(context.Background())
	d.recording = true
	d.finals = nil
	d.interim = ""
	d.onSettle = nil
	d.cancel = cancel
	d.done = make(chan struct{})
	go d.consume(cctx, ch, d.done)
	return nil
}

func (d *Dictation) consume(ctx context.Context, ch <-chan Partial, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-ch:
			if !ok {
				return
			}
			d.apply(p)
		}
	}
}

func (d *Dictation) apply(p Partial) {
	d.mu.Lock()
	if p.Final {
		if t := strings.TrimSpace(p.Text); t != "" {
			d.finals = append(d.finals, t)
		}
		d.interim = ""
	} else {
		d.interim = strings.TrimSpace(p.Text)
	}
	onSettle := d.onSettle
	d.mu.Unlock()

	// Results arriving after Stop push the flush back.
	if onSettle != nil {
		d.settle.Debounce(onSettle)
	}
}

// Text returns the text captured so far.
func (d *Dictation) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.textLocked()
}

func (d *Dictation) textLocked() string {
	parts := append([]string(nil), d.finals...)
	if d.interim != "" {
		parts = append(parts, d.interim)
	}
	return strings.Join(parts, " ")
}

// Recording reports whether dictation is capturing.
func (d *Dictation) Recording() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.recording
}

// Stop ends recording, waits until no result has arrived for the settle
// period, then submits the captured text (if any) and returns it.
func (d *Dictation) Stop(ctx context.Context) (string, error) {
	d.mu.Lock()
	if !d.recording {
		d.mu.Unlock()
		return "", ErrNotRecording
	}
	d.recording = false
	d.mu.Unlock()

	// The consumer keeps draining while the transcriber delivers its last
	// results, so it must not be halted until Stop returns.
	if err := d.tr.Stop(); err != nil {
		d.logger.Warn("stopping transcriber", zap.Error(err))
	}

	res := make(chan flushResult, 1)
	var once sync.Once
	flush := func() {
		once.Do(func() {
			text := d.halt()
			var err error
			if text != "" && d.sink != nil {
				err = d.sink.SubmitAnswer(ctx, text)
			}
			res <- flushResult{text: text, err: err}
		})
	}
	d.mu.Lock()
	d.onSettle = flush
	d.mu.Unlock()
	d.settle.Debounce(flush)

	select {
	case r := <-res:
		return r.text, r.err
	case <-ctx.Done():
		d.settle.Cancel()
		once.Do(func() { d.halt() })
		return "", ctx.Err()
	}
}

// Cancel stops recording and discards the captured text.
func (d *Dictation) Cancel() {
	d.mu.Lock()
	wasRecording := d.recording
	d.recording = false
	d.mu.Unlock()

	if wasRecording {
		if err := d.tr.Stop(); err != nil {
			d.logger.Warn("stopping transcriber", zap.Error(err))
		}
	}
	d.settle.Cancel()
	d.halt()
}

// halt stops the consumer goroutine, clears state and returns the text.
func (d *Dictation) halt() string {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	text := strings.TrimSpace(d.textLocked())
	d.finals = nil
	d.interim = ""
	d.onSettle = nil
	d.cancel = nil
	d.done = nil
	return text
}
