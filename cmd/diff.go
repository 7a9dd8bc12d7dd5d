package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/sessiondiff/internal/collector"
	"github.com/fakeyudi/sessiondiff/internal/logging"
	"github.com/fakeyudi/sessiondiff/internal/report"
	"github.com/fakeyudi/sessiondiff/internal/tracker"
)

var (
	diffSince  time.Duration
	diffFormat string
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Print the combined diff against HEAD once",
	Long: `diff captures HEAD as the baseline and prints tracked changes plus any
untracked file created within --since. Without --format it prints the raw
diff; with --format it renders a note.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := targetDir()
		if err != nil {
			return err
		}
		cfg := GetConfig()
		ctx := logging.WithComponent(cmd.Context(), "diff")

		var start time.Time
		if diffSince > 0 {
			start = time.Now().Add(-diffSince)
		}
		runner := tracker.ExecRunner{Binary: cfg.GitBinary}
		tr := tracker.New(ctx, true, tracker.Options{
			Dir:       dir,
			Runner:    runner,
			StartTime: start,
		})
		if !tr.Enabled() {
			return fmt.Errorf("%s is not inside a git repository with at least one commit", dir)
		}

		text, ok := tr.Diff(ctx)
		if !ok {
			return fmt.Errorf("diff unavailable")
		}

		if diffFormat == "" {
			if text != "" {
				fmt.Fprintln(cmd.OutOrStdout(), text)
			}
			return nil
		}

		renderer, err := report.RendererFor(diffFormat, cfg.MaxDiffLines)
		if err != nil {
			return err
		}
		note := report.NewNote(report.SessionMeta{
			WorkDir:   dir,
			Baseline:  tr.Baseline(),
			StartTime: tr.StartTime(),
		}, text, time.Now())
		gc := &collector.GitCollector{Dir: dir, Runner: runner}
		if info, err := gc.Collect(ctx, tr.Baseline()); err != nil {
			logging.Debug(ctx, "git context unavailable", slog.String("error", err.Error()))
		} else {
			note.Git = info
		}
		data, err := renderer.Render(note)
		if err != nil {
			return fmt.Errorf("render note: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	diffCmd.Flags().DurationVar(&diffSince, "since", 0, "Include untracked files created within this duration")
	diffCmd.Flags().StringVar(&diffFormat, "format", "", "Render a note instead of the raw diff: markdown, json or diff")
	rootCmd.AddCommand(diffCmd)
}
