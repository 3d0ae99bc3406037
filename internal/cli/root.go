// Package cli defines Cobra command definitions for the rehearse CLI.
// This file contains the root command, version flag, and help output.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rehearse-dev/rehearse/internal/tui"
)

var (
	debug   bool
	version = "dev" // set via ldflags at build time
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rehearse",
		Short: "Mock interview practice with an AI interviewer",
		Long: `Rehearse runs mock job interviews. An AI interviewer asks questions
for the role and difficulty you configure, reacts to your spoken, typed or
coded answers, and scores the session when you finish.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// When no subcommand is provided, launch TUI if TTY, show help otherwise
			if !tui.IsTTY() {
				return cmd.Help()
			}
			return runTUI(cmd)
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log diagnostics to stderr")
	cmd.PersistentFlags().String("project", ".", "Project directory holding .rehearse/")

	cmd.AddCommand(newPracticeCmd())
	cmd.AddCommand(newConfigureCmd())
	cmd.AddCommand(newKeyCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newReportCmd())
	cmd.AddCommand(newServeCmd())
	return cmd
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runTUI opens the interview screen for the project.
func runTUI(cmd *cobra.Command) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

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
