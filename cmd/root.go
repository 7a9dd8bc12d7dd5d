package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/sessiondiff/internal/config"
	"github.com/fakeyudi/sessiondiff/internal/logging"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

var (
	workDirFlag  string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "sessiondiff",
	Short: "Track what changed in a git working tree since a session started",
	Long: `sessiondiff captures the current commit when a session starts and reports
everything that changed since then: committed work, uncommitted edits and
files created during the session. Nested linked worktrees are left out.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dir, err := targetDir()
		if err != nil {
			return err
		}

		global, err := config.LoadGlobal()
		if err != nil {
			return fmt.Errorf("loading global config: %w", err)
		}
		project, err := config.LoadProject(dir)
		if err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		cfg = config.Merge(global, project)
		if logLevelFlag != "" {
			cfg.LogLevel = logLevelFlag
		}

		// Commands log to stderr; watch switches to a per-session file.
		return logging.Init("", cfg.LogLevel)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workDirFlag, "dir", "C", "", "Directory to track (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn or error")
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

// targetDir resolves the -C flag, or the working directory, to an absolute path.
func targetDir() (string, error) {
	dir := workDirFlag
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", dir)
	}
	return abs, nil
}
