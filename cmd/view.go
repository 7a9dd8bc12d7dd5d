package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/sessiondiff/internal/report"
	"github.com/fakeyudi/sessiondiff/internal/tui"
)

var plainOutput bool

var viewCmd = &cobra.Command{
	Use:   "view <file>",
	Short: "View a saved note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", path)
			}
			return err
		}

		n, err := report.ParserFor(path).Parse(data)
		if err != nil {
			return err
		}

		if plainOutput || !term.IsTerminal(os.Stdout.Fd()) {
			printNote(cmd.OutOrStdout(), n)
			return nil
		}
		return tui.Run(n, path)
	},
}

// printNote writes a plain-text summary of n to w.
func printNote(w io.Writer, n *report.Note) {
	fmt.Fprintln(w, "## Summary")
	fmt.Fprintf(w, "  Work dir:  %s\n", n.Session.WorkDir)
	fmt.Fprintf(w, "  Baseline:  %s\n", n.Session.Baseline)
	fmt.Fprintf(w, "  Started:   %s\n", n.Session.StartTime.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "  Captured:  %s\n", n.CapturedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "  Lines:     +%d -%d\n", n.Added, n.Removed)
	if n.Git != nil {
		fmt.Fprintf(w, "  Branch:    %s\n", n.Git.Branch)
		fmt.Fprintf(w, "  Head:      %s\n", n.Git.Head)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Files")
	if len(n.Files) == 0 {
		fmt.Fprintln(w, "  (none)")
	} else {
		for _, f := range n.Files {
			path := f.Path
			if f.OldPath != "" {
				path = f.OldPath + " -> " + f.Path
			}
			fmt.Fprintf(w, "  %-9s %s  (+%d -%d)\n", f.Status, path, f.Added, f.Removed)
		}
	}
	fmt.Fprintln(w)

	if n.Git != nil && len(n.Git.Commits) > 0 {
		fmt.Fprintln(w, "## Commits")
		for _, c := range n.Git.Commits {
			fmt.Fprintf(w, "  %s\n", c)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "## Diff")
	if n.Diff == "" {
		fmt.Fprintln(w, "  (none)")
	} else {
		fmt.Fprintln(w, indent(n.Diff, "  "))
	}
	fmt.Fprintln(w)
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

func init() {
	viewCmd.Flags().BoolVar(&plainOutput, "plain", false, "Print a plain-text summary instead of the TUI")
	rootCmd.AddCommand(viewCmd)
}
