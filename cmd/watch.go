package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/sessiondiff/internal/collector"
	"github.com/fakeyudi/sessiondiff/internal/logging"
	"github.com/fakeyudi/sessiondiff/internal/report"
	"github.com/fakeyudi/sessiondiff/internal/session"
	"github.com/fakeyudi/sessiondiff/internal/tracker"
	"github.com/fakeyudi/sessiondiff/internal/watcher"
)

var (
	watchFormat    string
	watchOutputDir string
	watchInterval  time.Duration
	watchForce     bool
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Start a session and report changes as they happen",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := targetDir()
		if err != nil {
			return err
		}
		cfg := GetConfig()

		store, err := session.NewStore()
		if err != nil {
			return err
		}
		if err := checkNoLiveSession(store, dir, watchForce); err != nil {
			return err
		}

		format := watchFormat
		if format == "" {
			format = cfg.DefaultFormat
		}
		renderer, err := report.RendererFor(format, cfg.MaxDiffLines)
		if err != nil {
			return err
		}

		id := uuid.New().String()
		if err := logging.Init(id, cfg.LogLevel); err != nil {
			return err
		}
		defer logging.Close()
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logging.WithComponent(logging.WithSession(ctx, id), "watch")

		runner := tracker.ExecRunner{Binary: cfg.GitBinary}
		tr := tracker.New(ctx, true, tracker.Options{Dir: dir, Runner: runner})
		if !tr.Enabled() {
			return fmt.Errorf("%s is not inside a git repository with at least one commit", dir)
		}

		s := &session.Session{
			ID:        id,
			StartTime: tr.StartTime(),
			WorkDir:   dir,
			Baseline:  tr.Baseline(),
			PID:       os.Getpid(),
		}
		if err := store.Save(s); err != nil {
			return err
		}
		defer func() {
			if err := store.Delete(dir); err != nil {
				logging.Warn(ctx, "failed to remove session record", slog.String("error", err.Error()))
			}
		}()

		outputDir := watchOutputDir
		if outputDir == "" {
			outputDir = cfg.OutputDir
		}
		interval := watchInterval
		if interval == 0 {
			interval = cfg.Interval()
		}

		em := &noteEmitter{
			tracker:   tr,
			git:       &collector.GitCollector{Dir: dir, Runner: runner},
			renderer:  renderer,
			store:     store,
			session:   s,
			out:       cmd.OutOrStdout(),
			outputDir: outputDir,
			styled:    term.IsTerminal(os.Stdout.Fd()),
			now:       time.Now,
		}

		logging.Info(ctx, "session started",
			slog.String("dir", dir),
			slog.String("baseline", tr.Baseline()),
			slog.String("format", format))
		cmd.Printf("Watching %s (baseline %s). Press Ctrl+C to stop.\n", dir, shortRev(tr.Baseline()))

		em.update(ctx)

		w := &watcher.Watcher{
			Dir:            dir,
			IgnorePatterns: cfg.IgnorePatterns,
			Debounce:       cfg.Debounce(),
			Interval:       interval,
		}
		if err := w.Run(ctx, em.update); err != nil {
			return err
		}

		logging.Info(ctx, "session stopped", slog.Int("updates", s.Updates))
		cmd.Printf("Session stopped after %d update(s).\n", s.Updates)
		return nil
	},
}

// checkNoLiveSession fails when dir already has a running session, unless
// force is set. Sessions in other directories are not considered.
func checkNoLiveSession(store *session.Store, dir string, force bool) error {
	existing, err := store.Load(dir)
	if errors.Is(err, session.ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.Running() && !force {
		return fmt.Errorf("session already in progress in %s (pid %d, started at %s); use --force to replace it",
			existing.WorkDir, existing.PID, existing.StartTime.Format(time.RFC3339))
	}
	return nil
}

// noteEmitter renders a note whenever the tracker reports a new change set.
type noteEmitter struct {
	tracker   *tracker.Tracker
	git       *collector.GitCollector // optional
	renderer  report.NoteRenderer
	store     *session.Store
	session   *session.Session
	out       io.Writer
	outputDir string
	styled    bool
	now       func() time.Time
}

func (e *noteEmitter) update(ctx context.Context) {
	text, st := e.tracker.DiffIfChanged(ctx)
	if st != tracker.Changed {
		return
	}
	at := e.now()
	if text == "" {
		if e.session.Updates > 0 {
			fmt.Fprintf(e.out, "%s: no changes since the baseline\n", at.Format("15:04:05"))
		}
		return
	}

	note := report.NewNote(report.SessionMeta{
		ID:        e.session.ID,
		WorkDir:   e.session.WorkDir,
		Baseline:  e.session.Baseline,
		StartTime: e.session.StartTime,
	}, text, at)
	if e.git != nil {
		if info, err := e.git.Collect(ctx, e.session.Baseline); err != nil {
			logging.Debug(ctx, "git context unavailable", slog.String("error", err.Error()))
		} else {
			note.Git = info
		}
	}

	data, err := e.renderer.Render(note)
	if err != nil {
		logging.Error(ctx, "failed to render note", slog.String("error", err.Error()))
		return
	}

	header := fmt.Sprintf("── %s  %d file(s)  +%d -%d ──", at.Format("15:04:05"), len(note.Files), note.Added, note.Removed)
	if e.styled {
		header = headerStyle.Render(header)
	}
	fmt.Fprintln(e.out, header)
	e.out.Write(data)

	if e.outputDir != "" {
		if path, err := writeNote(e.outputDir, at, e.renderer.Ext(), data); err != nil {
			logging.Warn(ctx, "failed to write note", slog.String("error", err.Error()))
		} else {
			logging.Debug(ctx, "note written", slog.String("path", path))
		}
	}

	e.session.Touch(at)
	if err := e.store.Save(e.session); err != nil {
		logging.Warn(ctx, "failed to update session record", slog.String("error", err.Error()))
	}
	logging.Info(ctx, "change set updated",
		slog.Int("files", len(note.Files)),
		slog.Int("added", note.Added),
		slog.Int("removed", note.Removed))
}

// writeNote saves data as note-<timestamp><ext> inside dir.
func writeNote(dir string, at time.Time, ext string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(dir, "note-"+at.Format("20060102T150405.000")+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write output file: %w", err)
	}
	return path, nil
}

func shortRev(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

func init() {
	watchCmd.Flags().StringVar(&watchFormat, "format", "", "Note format: markdown, json or diff (overrides config)")
	watchCmd.Flags().StringVar(&watchOutputDir, "output-dir", "", "Also write each note to this directory (overrides config)")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Polling interval (overrides config; 0 uses config)")
	watchCmd.Flags().BoolVar(&watchForce, "force", false, "Replace the record of a session that is still running")
	rootCmd.AddCommand(watchCmd)
}
