// Package cmd implements the CLI commands for the rulesync service.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "rulesync",
	Short: "Confirm rule changes have reached the rule evaluator",
	Long: "A service that compares alerting and recording rule groups in a ruler's " +
		"definition store with what the Prometheus-compatible evaluator reports, " +
		"waits for the two to converge after a change, and audits them for drift.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.AddCommand(versionCommand())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
