package tui

import (
	"fmt"
	"io"
)

// runFallback handles non-TTY execution by pointing at the line-mode session.
func runFallback(w io.Writer) error {
	fmt.Fprintln(w, "Non-TTY environment detected.")
	fmt.Fprintln(w, "Use 'rehearse practice --plain' for a line-mode interview.")
	return nil
}
