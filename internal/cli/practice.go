// practice.go implements the "rehearse practice" command and its line-mode session.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rehearse-dev/rehearse/internal/capture"
	"github.com/rehearse-dev/rehearse/internal/completion"
	"github.com/rehearse-dev/rehearse/internal/interview"
	"github.com/rehearse-dev/rehearse/internal/practice"
	"github.com/rehearse-dev/rehearse/internal/report"
	"github.com/rehearse-dev/rehearse/internal/transcript"
	"github.com/rehearse-dev/rehearse/internal/tui"
	"github.com/rehearse-dev/rehearse/internal/ui"
)

const plainHelp = `Commands:
  /next            ask for another question
  /code [language] start a code submission, finish it with /end on its own line
  /stop            end the interview
  /report          score the ended interview
  /reset           start over with a new session
  /quit            leave
Anything else is sent as your answer.`

func newPracticeCmd() *cobra.Command {
	var plain bool
	var overrides practice.Config

	cmd := &cobra.Command{
		Use:   "practice",
		Short: "Start a mock interview",
		Long: `Start a mock interview using the saved practice configuration.
--role/--difficulty/--company update the saved configuration first.
Without a terminal, or with --plain, the session runs line by line on
stdin/stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if overrides.JobRole != "" || overrides.DifficultyLevel != "" {
				if err := savePractice(cmd.Context(), a, overrides); err != nil {
					return err
				}
			}

			if !plain && tui.IsTTY() {
				m := tui.New(cmd.Context(), tui.Deps{
					Session:    a.session,
					Store:      a.store,
					Dictation:  a.dictation(),
					Speaker:    a.speaker(),
					Logger:     a.logger,
					ReportsDir: a.reportsDir(),
				})
				return tui.Run(m)
			}

			p := &plainSession{
				app:     a,
				speaker: a.speaker(),
				in:      cmd.InOrStdin(),
				out:     cmd.OutOrStdout(),
			}
			return p.run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Line-mode session instead of the full-screen interface")
	addPracticeFlags(cmd, &overrides)
	return cmd
}

// savePractice merges the flags into the saved configuration and stores it.
func savePractice(ctx context.Context, a *app, overrides practice.Config) error {
	cfg := practice.Config{DifficultyLevel: practice.Beginner}
	if saved, err := practice.Load(ctx, a.store); err == nil {
		cfg = *saved
	}
	if overrides.JobRole != "" {
		cfg.JobRole = overrides.JobRole
	}
	if overrides.DifficultyLevel != "" {
		cfg.DifficultyLevel = overrides.DifficultyLevel
	}
	if overrides.TargetCompany != "" {
		cfg.TargetCompany = overrides.TargetCompany
	}
	if err := practice.Save(ctx, a.store, cfg); err != nil {
		return fmt.Errorf("saving practice configuration: %w", err)
	}
	return nil
}

// plainSession drives the orchestrator from lines of text.
type plainSession struct {
	app     *app
	speaker capture.Speaker
	in      io.Reader
	out     io.Writer
	shown   int
}

func (p *plainSession) run(ctx context.Context) error {
	cfg, err := practice.Load(ctx, p.app.store)
	if err != nil {
		if errors.Is(err, practice.ErrNotConfigured) {
			return fmt.Errorf("no practice configuration saved; run: rehearse configure --role <role>")
		}
		return err
	}

	fmt.Fprintf(p.out, "Mock interview: %s\n", cfg.Describe())
	fmt.Fprintln(p.out, "Type your answers. /help lists commands.")
	fmt.Fprintln(p.out)

	if err := p.step(ctx, p.call(func() error { return p.app.session.Start(ctx, cfg) })); err != nil {
		return err
	}

	scanner := bufio.NewScanner(p.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "/help":
			fmt.Fprintln(p.out, plainHelp)
		case "/quit", "/exit":
			return nil
		case "/next":
			err = p.step(ctx, p.call(func() error { return p.app.session.RequestQuestion(ctx) }))
		case "/code":
			language := strings.Join(fields[1:], " ")
			code := readUntilEnd(scanner)
			err = p.step(ctx, p.call(func() error { return p.app.session.SubmitCode(ctx, code, language) }))
		case "/stop":
			err = p.step(ctx, p.app.session.Stop())
			if err == nil {
				fmt.Fprintf(p.out, "Interview ended after %s. Type /report to score it.\n",
					report.FormatElapsed(p.app.session.Elapsed()))
			}
		case "/report":
			err = p.report(ctx)
		case "/reset":
			p.app.session.Reset()
			p.shown = 0
			err = p.step(ctx, p.call(func() error { return p.app.session.Start(ctx, cfg) }))
		default:
			err = p.step(ctx, p.call(func() error { return p.app.session.SubmitAnswer(ctx, line) }))
		}
		if err != nil {
			return err
		}
	}
	return scanner.Err()
}

// readUntilEnd collects raw lines up to a line containing only /end.
func readUntilEnd(scanner *bufio.Scanner) string {
	var lines []string
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "/end" {
			break
		}
		lines = append(lines, scanner.Text())
	}
	return strings.Join(lines, "\n")
}

// step prints questions added by the last call and reports recoverable
// errors. Only unexpected errors are returned.
func (p *plainSession) step(ctx context.Context, err error) error {
	switch {
	case err == nil, errors.Is(err, interview.ErrResponseDiscarded):
	case completion.IsCredentialError(err):
		fmt.Fprintf(p.out, "Warning: %s\n", completion.Guidance(err))
	case errors.Is(err, interview.ErrNotActive):
		fmt.Fprintln(p.out, "The interview has ended. /report scores it, /reset starts over.")
	case errors.Is(err, interview.ErrInvalidTransition):
		fmt.Fprintln(p.out, "End the interview with /stop first.")
	case errors.Is(err, interview.ErrBusy):
		fmt.Fprintln(p.out, "Still waiting on the previous request.")
	default:
		return err
	}

	entries := p.app.session.Snapshot().Entries
	for ; p.shown < len(entries); p.shown++ {
		e := entries[p.shown]
		if e.Kind != transcript.KindQuestion {
			continue
		}
		fmt.Fprintln(p.out, transcript.RenderLine(e))
		if p.speaker != nil {
			if err := p.speaker.Speak(ctx, e.Content); err != nil {
				p.app.logger.Warn("speaking question", zap.Error(err))
			}
		}
	}
	return nil
}

// call runs a completion-backed operation with the waiting indicator.
func (p *plainSession) call(fn func() error) error {
	return ui.NewWaiting(p.out, "Interviewer is thinking").Wrap(fn)
}

func (p *plainSession) report(ctx context.Context) error {
	var r *report.Report
	err := ui.NewWaiting(p.out, "Scoring the interview").Wrap(func() error {
		var err error
		r, err = p.app.session.RequestReport(ctx)
		return err
	})
	if err != nil {
		return p.step(ctx, err)
	}
	fmt.Fprint(p.out, report.FormatReport(r))
	path, err := report.WriteReport(p.app.reportsDir(), r)
	if err != nil {
		fmt.Fprintf(p.out, "Warning: %v\n", err)
		return nil
	}
	fmt.Fprintf(p.out, "Report saved to %s\n", path)
	return nil
}
