// key.go implements the "rehearse key" commands for the completion credential.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the Groq API key",
		Long: `Store, clear, inspect or test the API key used for completions.
A stored key takes precedence over REHEARSE_API_KEY / GROQ_API_KEY.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key>",
		Short: "Store an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.resolver.Set(cmd.Context(), args[0]); err != nil {
				return err
			}
			printKeyStatus(cmd, a)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the stored API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.resolver.Clear(cmd.Context()); err != nil {
				return err
			}
			printKeyStatus(cmd, a)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show which API key is active",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			printKeyStatus(cmd, a)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "test [key]",
		Short: "Check an API key against the completion endpoint",
		Long:  "Send a tiny completion request with the given key, or the active key when none is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			key := a.resolver.Resolve(cmd.Context())
			if len(args) == 1 {
				key = args[0]
			}
			v := a.client.Validate(cmd.Context(), key)
			if !v.Valid {
				return errors.New(v.Message)
			}
			fmt.Fprintln(cmd.OutOrStdout(), v.Message)
			return nil
		},
	})

	return cmd
}

func printKeyStatus(cmd *cobra.Command, a *app) {
	out := cmd.OutOrStdout()
	st := a.resolver.Status(cmd.Context())
	if !st.HasKey {
		fmt.Fprintln(out, "No API key configured.")
		return
	}
	fmt.Fprintf(out, "API key: %s... (%d characters, source: %s)\n", st.Prefix, st.Length, st.Source)
}
