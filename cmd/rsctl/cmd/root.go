// Package cmd implements the rsctl CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apiclient "github.com/donaldgifford/rulesync/internal/api/client"
	domain "github.com/donaldgifford/rulesync/pkg/types"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "rsctl",
		Short: "CLI client for rulesync",
		Long: "rsctl is a command-line client for the rulesync API.\n" +
			"It compares rule groups across the ruler and the evaluator, waits for\n" +
			"rule changes to land, and runs or inspects drift audits.",
		SilenceUsage: true,
	}
)

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "", "config file (default $HOME/.rsctl.yaml)")
	rootCmd.PersistentFlags().
		String("server", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().
		String("output", "table", "output format (table, json)")
	rootCmd.PersistentFlags().
		String("source", "", "backend name (default: the server's default backend)")

	cobra.CheckErr(viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server")))
	cobra.CheckErr(viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output")))
	cobra.CheckErr(viper.BindPFlag("source", rootCmd.PersistentFlags().Lookup("source")))

	rootCmd.AddCommand(matchCmd())
	rootCmd.AddCommand(sourcesCmd())
	rootCmd.AddCommand(waitCmd())
	rootCmd.AddCommand(waitsCmd())
	rootCmd.AddCommand(auditCmd())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".rsctl")
	}

	viper.SetEnvPrefix("RSCTL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func newClient() *apiclient.Client {
	return apiclient.New(viper.GetString("server"))
}

func jsonOutput() bool {
	return viper.GetString("output") == "json"
}

// groupArg builds a reference from <namespace> <group> and --source.
func groupArg(args []string) domain.GroupRef {
	return domain.GroupRef{
		Source:    viper.GetString("source"),
		Namespace: args[0],
		Group:     args[1],
	}
}
