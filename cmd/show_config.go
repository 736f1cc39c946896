package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showConfigCmd = &cobra.Command{
	Use:   "show-config",
	Short: "Display the effective configuration",
	Long:  `Shows the configuration resolved from defaults, testguard.yml, and environment variables.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Println(cfg.String())

		return nil
	},
}

func init() {
	rootCmd.AddCommand(showConfigCmd)
}
