package cmd

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apiclient "github.com/donaldgifford/rulesync/internal/api/client"
	domain "github.com/donaldgifford/rulesync/pkg/types"
)

func waitCmd() *cobra.Command {
	waitRoot := &cobra.Command{
		Use:   "wait",
		Short: "Wait for a rule change to reach the evaluator",
		Long: "Block until the evaluator agrees with the ruler. The command exits non-zero\n" +
			"if the wait times out, is cancelled or fails.",
	}

	waitRoot.AddCommand(
		waitGroupCmd(),
		waitRuleCmd(),
		waitCancelCmd(),
	)

	return waitRoot
}

func waitGroupCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "group <namespace> <group>",
		Short: "Wait until a group is consistent across both stores",
		Args:  cobra.ExactArgs(2),
		Example: `  rsctl wait group team-a latency
  rsctl wait group team-a latency --source prod --timeout 5m`,
		RunE: func(_ *cobra.Command, args []string) error {
			ref := groupArg(args)
			res, err := newClient().WaitGroup(context.Background(), &apiclient.WaitGroupRequest{
				Source:         ref.Source,
				Namespace:      ref.Namespace,
				Group:          ref.Group,
				TimeoutSeconds: timeoutSeconds(timeout),
			})
			if err != nil {
				return err
			}
			if jsonOutput() {
				if err := outputJSON(res); err != nil {
					return err
				}
			} else if err := printGroupWait(res); err != nil {
				return err
			}
			return outcomeErr(res.Outcome, res.Error)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "give up after this long (default: server setting)")
	return cmd
}

func waitRuleCmd() *cobra.Command {
	var (
		timeout     time.Duration
		mode        string
		uid         string
		kind        string
		query       string
		labels      map[string]string
		annotations map[string]string
	)

	cmd := &cobra.Command{
		Use:   "rule <namespace> <group> <name>",
		Short: "Wait until a rule appears in or disappears from the evaluator",
		Long: "Wait for a single rule. A rule given by name alone is looked up in the\n" +
			"ruler; pass --query and --label to wait for a rule the ruler no longer\n" +
			"holds, for example after deleting it.",
		Args: cobra.ExactArgs(3),
		Example: `  rsctl wait rule team-a latency HighLatency
  rsctl wait rule team-a latency HighLatency --mode disappear \
    --query 'histogram_quantile(0.99, rate(http_duration_seconds_bucket[5m])) > 1' \
    --label severity=page`,
		RunE: func(_ *cobra.Command, args []string) error {
			if mode != "appear" && mode != "disappear" {
				return fmt.Errorf("invalid --mode %q: must be appear or disappear", mode)
			}
			res, err := newClient().WaitRule(context.Background(), &apiclient.WaitRuleRequest{
				Source:         viper.GetString("source"),
				Namespace:      args[0],
				Group:          args[1],
				Name:           args[2],
				UID:            uid,
				Kind:           kind,
				Query:          query,
				Labels:         labels,
				Annotations:    annotations,
				Mode:           mode,
				TimeoutSeconds: timeoutSeconds(timeout),
			})
			if err != nil {
				return err
			}
			if jsonOutput() {
				if err := outputJSON(res); err != nil {
					return err
				}
			} else if err := printRuleWait(res); err != nil {
				return err
			}
			return outcomeErr(res.Outcome, res.Error)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "give up after this long (default: server setting)")
	cmd.Flags().StringVar(&mode, "mode", "appear", "wait for the rule to appear or disappear")
	cmd.Flags().StringVar(&uid, "uid", "", "runtime UID, when the evaluator reports one")
	cmd.Flags().StringVar(&kind, "kind", "", "rule kind (alerting, recording)")
	cmd.Flags().StringVar(&query, "query", "", "rule query")
	cmd.Flags().StringToStringVar(&labels, "label", nil, "rule label as key=value (repeatable)")
	cmd.Flags().StringToStringVar(&annotations, "annotation", nil, "rule annotation as key=value (repeatable)")
	return cmd
}

func waitCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <namespace> <group>",
		Short: "Cancel the active wait for a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			ref := groupArg(args)
			err := newClient().CancelWait(context.Background(), ref)
			if apiclient.NotFound(err) {
				fmt.Printf("No active wait for %s.\n", ref)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("Cancelled wait for %s.\n", ref)
			return nil
		},
	}
}

// timeoutSeconds rounds d up to whole seconds.
func timeoutSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

// outcomeErr turns any outcome but converged into an error so the exit
// status reflects it.
func outcomeErr(o domain.WaitOutcome, detail string) error {
	if o == domain.OutcomeConverged {
		return nil
	}
	if detail != "" {
		return fmt.Errorf("wait %s: %s", o, detail)
	}
	return fmt.Errorf("wait %s", o)
}
