// configure.go implements the "rehearse configure" command.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rehearse-dev/rehearse/internal/config"
	"github.com/rehearse-dev/rehearse/internal/practice"
)

func addPracticeFlags(cmd *cobra.Command, cfg *practice.Config) {
	cmd.Flags().StringVar(&cfg.JobRole, "role", "", "Job role to interview for, e.g. \"Backend Engineer\"")
	cmd.Flags().StringVar((*string)(&cfg.DifficultyLevel), "difficulty", "", "beginner, intermediate or advanced")
	cmd.Flags().StringVar(&cfg.TargetCompany, "company", "", "Target company (optional)")
}

func newConfigureCmd() *cobra.Command {
	var flags practice.Config

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Set the role, difficulty and company to practice for",
		Long: `Save the practice configuration used by every new session. Values
not given as flags are asked for interactively. Also writes a default
.rehearse/config.yaml when the project has none.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if _, err := config.ReadConfig(a.root); errors.Is(err, fs.ErrNotExist) {
				if err := config.WriteConfig(a.root, config.DefaultConfig()); err != nil {
					return err
				}
				fmt.Fprintln(out, "Wrote .rehearse/config.yaml")
			}

			cfg := practice.Config{DifficultyLevel: practice.Beginner}
			if saved, err := practice.Load(cmd.Context(), a.store); err == nil {
				cfg = *saved
			}

			// Without --role every field is asked for; otherwise unset
			// flags keep their saved values.
			reader := bufio.NewReader(cmd.InOrStdin())
			interactive := flags.JobRole == ""
			if interactive {
				flags.JobRole = ask(reader, out, "Job role", cfg.JobRole)
			}
			if flags.DifficultyLevel == "" {
				flags.DifficultyLevel = cfg.DifficultyLevel
				if interactive {
					flags.DifficultyLevel = practice.Difficulty(ask(reader, out, "Difficulty (beginner/intermediate/advanced)", string(cfg.DifficultyLevel)))
				}
			}
			if !cmd.Flags().Changed("company") {
				flags.TargetCompany = cfg.TargetCompany
				if interactive {
					flags.TargetCompany = ask(reader, out, "Target company (optional)", cfg.TargetCompany)
				}
			}

			if err := practice.Save(cmd.Context(), a.store, flags); err != nil {
				return fmt.Errorf("saving practice configuration: %w", err)
			}
			saved, err := practice.Load(cmd.Context(), a.store)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Practice configured: %s\n", saved.Describe())
			return nil
		},
	}

	addPracticeFlags(cmd, &flags)
	return cmd
}

// ask prompts for a value, returning def on an empty answer or EOF.
func ask(r *bufio.Reader, w io.Writer, label, def string) string {
	if def != "" {
		fmt.Fprintf(w, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(w, "%s: ", label)
	}
	answer, _ := r.ReadString('\n')
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return def
	}
	return answer
}
