package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	domain "github.com/donaldgifford/rulesync/pkg/types"
)

func auditCmd() *cobra.Command {
	auditRoot := &cobra.Command{
		Use:   "audit",
		Short: "Run or inspect the drift audit",
		Long: "The drift audit compares every configured audit group across both stores\n" +
			"and notifies when a group stays out of sync on consecutive runs.",
	}

	auditRoot.AddCommand(
		auditRunCmd(),
		auditHistoryCmd(),
	)

	return auditRoot
}

func auditRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the drift audit now",
		RunE: func(_ *cobra.Command, _ []string) error {
			run, err := newClient().RunAudit(context.Background())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(run)
			}
			return printAuditRunsTable([]domain.AuditRun{*run})
		},
	}
}

func auditHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent audit runs",
		Example: `  rsctl audit history
  rsctl audit history --limit 5 --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			runs, err := newClient().ListAuditRuns(context.Background(), limit)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(runs)
			}
			if len(runs) == 0 {
				fmt.Println("No audit runs found.")
				return nil
			}
			return printAuditRunsTable(runs)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "number of runs (default 20)")
	return cmd
}
