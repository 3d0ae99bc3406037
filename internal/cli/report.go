// report.go implements the "rehearse report" command for showing the latest report.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/rehearse-dev/rehearse/internal/cleanup"
	"github.com/rehearse-dev/rehearse/internal/report"
	"github.com/rehearse-dev/rehearse/internal/tui"
)

func newReportCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the latest interview report",
		Long: `Display the most recent scored interview report from .rehearse/reports/.
When no report was saved, the answers of the latest recorded session are shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			md, err := latestReport(a.reportsDir())
			if err != nil {
				return err
			}
			if md == "" {
				rec, ok, err := a.history.Latest(cmd.Context())
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("no interview reports found; start one with: rehearse practice")
				}
				md = fmt.Sprintf("# %s\n\nNo scored report was saved for this session.\n\n%s\n",
					rec.Config.Describe(), report.Table(rec.QAPairs))
			}

			out := cmd.OutOrStdout()
			if raw || !tui.IsTTY() {
				fmt.Fprint(out, md)
				return nil
			}
			r, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(100),
			)
			if err != nil {
				return fmt.Errorf("creating markdown renderer: %w", err)
			}
			rendered, err := r.Render(md)
			if err != nil {
				return fmt.Errorf("rendering report: %w", err)
			}
			fmt.Fprint(out, rendered)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print markdown without terminal styling")
	cmd.AddCommand(newReportPruneCmd())
	return cmd
}

func newReportPruneCmd() *cobra.Command {
	var olderThan, keep int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old saved reports",
		Long: `Remove report files from .rehearse/reports/ older than --older-than days,
or all but the newest --keep reports. Session history is not touched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 && keep < 0 {
				return fmt.Errorf("specify --older-than or --keep")
			}
			root, err := projectRoot(cmd)
			if err != nil {
				return err
			}
			dir := report.Dir(root)

			var pruned []string
			if olderThan > 0 {
				pruned, err = cleanup.PruneByAge(dir, olderThan, dryRun)
			} else {
				pruned, err = cleanup.PruneKeepRecent(dir, keep, dryRun)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			verb := "Removed"
			if dryRun {
				verb = "Would remove"
			}
			for _, name := range pruned {
				fmt.Fprintf(out, "%s %s\n", verb, name)
			}
			fmt.Fprintf(out, "%s %d report(s).\n", verb, len(pruned))
			return nil
		},
	}
	cmd.Flags().IntVar(&olderThan, "older-than", 0, "Remove reports older than this many days")
	cmd.Flags().IntVar(&keep, "keep", -1, "Keep only this many of the newest reports")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List what would be removed without deleting")
	return cmd
}

// latestReport returns the newest report file's contents, or "" when none exist.
func latestReport(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading reports directory: %w", err)
	}

	// Names are timestamps, so they sort lexicographically.
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", nil
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	data, err := os.ReadFile(filepath.Join(dir, names[0]))
	if err != nil {
		return "", fmt.Errorf("reading report: %w", err)
	}
	return string(data), nil
}
