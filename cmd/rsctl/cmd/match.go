package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func matchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "match <namespace> <group>",
		Short: "Compare a rule group across the ruler and the evaluator",
		Long: "Fetch one snapshot of the group from each store, pair their rules and\n" +
			"report whether the evaluator has caught up with the ruler.",
		Args: cobra.ExactArgs(2),
		Example: `  rsctl match team-a latency
  rsctl match team-a latency --source prod --output json`,
		RunE: func(_ *cobra.Command, args []string) error {
			gm, err := newClient().Match(context.Background(), groupArg(args))
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(gm)
			}
			return printMatch(gm)
		},
	}
}

func sourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the server's configured backends",
		RunE: func(_ *cobra.Command, _ []string) error {
			resp, err := newClient().ListSources(context.Background())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(resp)
			}
			for _, name := range resp.Sources {
				if name == resp.Default {
					fmt.Println(name + " (default)")
					continue
				}
				fmt.Println(name)
			}
			return nil
		},
	}
}
