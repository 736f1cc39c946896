package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/testguard/testguard/internal/config"
	"github.com/testguard/testguard/internal/framework"
	"github.com/testguard/testguard/internal/prompt"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a testguard.yml for this project",
	Long: `Interactively creates a testguard.yml at the project root with the
storage backend and default framework for this project.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		path := filepath.Join(cfg.ProjectRoot, config.ConfigFileName)
		if _, statErr := os.Stat(path); statErr == nil {
			if !prompt.Confirm(fmt.Sprintf("%s already exists. Overwrite?", config.ConfigFileName), false) {
				fmt.Println("Aborted.")

				return nil
			}
		}

		backend, err := prompt.Select("Storage backend:",
			[]string{config.BackendFile, config.BackendBadger}, cfg.StorageBackend)
		if err != nil {
			return err
		}
		cfg.StorageBackend = backend

		defaultFramework := cfg.DefaultFramework
		if defaultFramework == "" {
			defaultFramework = "(none)"
		}

		selected, err := prompt.Select("Default framework for `run` when detection fails:",
			append([]string{"(none)"}, framework.Names()...), defaultFramework)
		if err != nil {
			return err
		}
		if selected == "(none)" {
			selected = ""
		}
		cfg.DefaultFramework = selected

		if err := cfg.Save(); err != nil {
			return err
		}

		fmt.Printf("Wrote %s\n", path)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
