package capture

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// stopGrace is how long a transcriber process may keep writing after it has
// been interrupted before it is killed.
const stopGrace = 2 * time.Second

// CommandTranscriber runs an external speech-to-text program and reads one
// result per stdout line. A line is either JSON {"text","final"} or plain
// text, which counts as a final result. Stop interrupts the process and
// waits for its remaining output.
type CommandTranscriber struct {
	argv []string

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCommandTranscriber returns a transcriber for argv.
func NewCommandTranscriber(argv []string) (*CommandTranscriber, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, errors.New("transcriber command is empty")
	}
	return &CommandTranscriber{argv: argv}, nil
}

// Start launches the process.
func (c *CommandTranscriber) Start(ctx context.Context) (<-chan Partial, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return nil, ErrAlreadyRecording
	}

	cctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(cctx, c.argv[0], c.argv[1:]...)
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = stopGrace
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("transcriber stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("starting transcriber %q: %w", c.argv[0], err)
	}

	out := make(chan Partial)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done

	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			if p, ok := ParseLine(scanner.Text()); ok {
				out <- p
			}
		}
		_ = cmd.Wait()
		close(out)
		close(done)
	}()
	return out, nil
}

// Stop interrupts the process and waits until its output is consumed.
func (c *CommandTranscriber) Stop() error {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

// ParseLine decodes one transcriber output line.
func ParseLine(line string) (Partial, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Partial{}, false
	}
	if strings.HasPrefix(line, "{") {
		var p Partial
		if err := json.Unmarshal([]byte(line), &p); err == nil {
			return p, true
		}
	}
	return Partial{Text: line, Final: true}, true
}

// CommandSpeaker reads text aloud by running argv with the text appended
// as the last argument.
type CommandSpeaker struct {
	argv []string
}

// NewCommandSpeaker returns a speaker for argv.
func NewCommandSpeaker(argv []string) (*CommandSpeaker, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, errors.New("speaker command is empty")
	}
	return &CommandSpeaker{argv: argv}, nil
}

// Speak runs the command and waits for it to finish.
func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	args := append(append([]string(nil), s.argv[1:]...), text)
	cmd := exec.CommandContext(ctx, s.argv[0], args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("speaker exited with error: %w\nstderr: %s", err, stderr.String())
	}
	return nil
}

// NopSpeaker discards text.
type NopSpeaker struct{}

func (NopSpeaker) Speak(context.Context, string) error { return nil }
