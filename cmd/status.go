package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/sessiondiff/internal/session"
)

var statusAll bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the watch session for the directory, or all sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		store, err := session.NewStore()
		if err != nil {
			return err
		}

		if statusAll {
			all, err := store.List()
			if err != nil {
				return err
			}
			if len(all) == 0 {
				fmt.Fprintln(out, "no active sessions")
				return nil
			}
			for i, s := range all {
				if i > 0 {
					fmt.Fprintln(out)
				}
				printSession(out, s)
			}
			return nil
		}

		dir, err := targetDir()
		if err != nil {
			return err
		}
		s, err := store.Load(dir)
		if err != nil {
			if !errors.Is(err, session.ErrNoSession) {
				return err
			}
			fmt.Fprintf(out, "no active session for %s\n", dir)
			if all, err := store.List(); err == nil && len(all) > 0 {
				fmt.Fprintf(out, "%d session(s) in other directories; use --all to list them\n", len(all))
			}
			return nil
		}
		printSession(out, s)
		return nil
	},
}

func printSession(out io.Writer, s *session.Session) {
	state := "running"
	if !s.Running() {
		state = "not running (stale record)"
	}
	last := "never"
	if s.LastUpdate != nil {
		last = s.LastUpdate.Format(time.RFC3339)
	}

	fmt.Fprintf(out, "Session: %s\n", s.ID)
	fmt.Fprintf(out, "Work dir: %s\n", s.WorkDir)
	fmt.Fprintf(out, "Baseline: %s\n", s.Baseline)
	fmt.Fprintf(out, "Started: %s\n", s.StartTime.Format(time.RFC3339))
	fmt.Fprintf(out, "Duration: %s\n", time.Since(s.StartTime).Round(time.Second).String())
	fmt.Fprintf(out, "PID: %d (%s)\n", s.PID, state)
	fmt.Fprintf(out, "Updates: %d\n", s.Updates)
	fmt.Fprintf(out, "Last update: %s\n", last)
}

func init() {
	statusCmd.Flags().BoolVar(&statusAll, "all", false, "List the sessions of every directory")
	rootCmd.AddCommand(statusCmd)
}
