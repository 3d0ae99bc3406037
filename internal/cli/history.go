// history.go implements the "rehearse history" commands.
package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rehearse-dev/rehearse/internal/report"
	"github.com/rehearse-dev/rehearse/internal/transcript"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past interview sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.history.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No sessions yet. Start one with: rehearse practice")
				return nil
			}
			if limit > 0 && len(records) > limit {
				records = records[:limit]
			}

			for i, rec := range records {
				nonAnswers := 0
				for _, p := range rec.QAPairs {
					if p.NonAnswer {
						nonAnswers++
					}
				}
				fmt.Fprintf(out, "  %-3d  %s  %-40s  %2d answers", i+1,
					rec.EndedAt.Local().Format("2006-01-02 15:04"), rec.Config.Describe(), len(rec.QAPairs))
				if nonAnswers > 0 {
					fmt.Fprintf(out, " (%d non-answer)", nonAnswers)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Show at most this many sessions (0 for all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <n>",
		Short: "Print the transcript of a past session (1 is the newest)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid session number %q", args[0])
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.history.List(cmd.Context())
			if err != nil {
				return err
			}
			if n > len(records) {
				return fmt.Errorf("only %d sessions recorded", len(records))
			}
			rec := records[n-1]

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s, ended %s\n\n", rec.Config.Describe(), rec.EndedAt.Local().Format("2006-01-02 15:04"))
			fmt.Fprintln(out, transcript.Render(rec.Messages))
			fmt.Fprintln(out)
			fmt.Fprintln(out, report.Table(rec.QAPairs))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.history.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
			return nil
		},
	})

	return cmd
}
