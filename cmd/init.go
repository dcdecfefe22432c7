package cmd

import (
	"github.com/spf13/cobra"

	"github.com/me-e6/pengine/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize pengine configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure providers, retrieval and the insight analyzer, and writes the result to the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
