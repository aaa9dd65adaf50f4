package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apiclient "github.com/donaldgifford/rulesync/internal/api/client"
)

func waitsCmd() *cobra.Command {
	waitsRoot := &cobra.Command{
		Use:   "waits",
		Short: "Inspect wait history",
		Long: "Every finished wait is recorded with its outcome, poll count and elapsed\n" +
			"time. Use these commands to list and inspect them.",
	}

	waitsRoot.AddCommand(
		waitsListCmd(),
		waitsGetCmd(),
		waitsActiveCmd(),
	)

	return waitsRoot
}

func waitsListCmd() *cobra.Command {
	var (
		kind      string
		outcome   string
		namespace string
		group     string
		since     time.Duration
		limit     int
		offset    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded waits, newest first",
		Example: `  rsctl waits list
  rsctl waits list --outcome timed_out --since 24h
  rsctl waits list --namespace team-a --group latency --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			p := &apiclient.ListWaitsParams{
				Kind:      kind,
				Outcome:   outcome,
				Source:    viper.GetString("source"),
				Namespace: namespace,
				Group:     group,
				Limit:     limit,
				Offset:    offset,
			}
			if since > 0 {
				p.Since = time.Now().Add(-since)
			}

			resp, err := newClient().ListWaits(context.Background(), p)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(resp)
			}
			if len(resp.Waits) == 0 {
				fmt.Println("No waits found.")
				return nil
			}
			if err := printWaitsTable(resp.Waits); err != nil {
				return err
			}
			fmt.Printf("\nShowing %d of %d\n", len(resp.Waits), resp.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "filter by kind (group, rule_appear, rule_disappear)")
	cmd.Flags().StringVar(&outcome, "outcome", "", "filter by outcome (converged, timed_out, cancelled, failed)")
	cmd.Flags().StringVar(&namespace, "namespace", "", "filter by namespace")
	cmd.Flags().StringVar(&group, "group", "", "filter by group")
	cmd.Flags().DurationVar(&since, "since", 0, "only waits started within this duration")
	cmd.Flags().IntVar(&limit, "limit", 0, "number of results (default 50)")
	cmd.Flags().IntVar(&offset, "offset", 0, "pagination offset")
	return cmd
}

func waitsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one recorded wait",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			w, err := newClient().GetWait(context.Background(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(w)
			}
			return printWaitDetail(w)
		},
	}
}

func waitsActiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "List groups with a wait in progress",
		RunE: func(_ *cobra.Command, _ []string) error {
			refs, err := newClient().ActiveWaits(context.Background())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(refs)
			}
			if len(refs) == 0 {
				fmt.Println("No active waits.")
				return nil
			}
			for _, ref := range refs {
				fmt.Println(ref.String())
			}
			return nil
		},
	}
}
