package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/sessiondiff/internal/config"
)

var initProject bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file interactively (re-run anytime to edit settings)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GlobalPath()
		if err != nil {
			return err
		}
		if initProject {
			dir, err := targetDir()
			if err != nil {
				return err
			}
			path = filepath.Join(dir, ".sessiondiffconfig")
		}

		// The merged config supplies the defaults for each prompt.
		updated, err := config.RunSetup(cmd.InOrStdin(), cmd.OutOrStdout(), GetConfig())
		if err != nil {
			return fmt.Errorf("setup cancelled: %w", err)
		}
		if err := config.Save(path, updated); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		cmd.Printf("Config written to %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initProject, "project", false, "Write .sessiondiffconfig in the tracked directory instead of the global config")
	rootCmd.AddCommand(initCmd)
}
