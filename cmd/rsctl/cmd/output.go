package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	apiclient "github.com/donaldgifford/rulesync/internal/api/client"
	domain "github.com/donaldgifford/rulesync/pkg/types"
)

const timeLayout = "2006-01-02 15:04:05"

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printMatch(gm *apiclient.MatchResponse) error {
	return writeMatch(os.Stdout, gm)
}

func writeMatch(w io.Writer, gm *apiclient.MatchResponse) error {
	tw := newTabWriter(w)
	tw.writef("Group:\t%s\n", gm.Ref)
	tw.writef("In sync:\t%v\n", gm.Verdict.InSync)
	tw.writef("Reason:\t%s\n", gm.Verdict.Reason)
	if gm.Verdict.Detail != "" {
		tw.writef("Detail:\t%s\n", gm.Verdict.Detail)
	}
	if gm.Verdict.Degraded {
		tw.writef("Degraded:\ttrue (a store could not be read)\n")
	}
	tw.writef("\n")

	tw.writef("STATUS\tNAME\tKIND\tDEFINITION ID\tRUNTIME ID\n")
	for i := range gm.Identities {
		id := &gm.Identities[i]
		kind := "-"
		if i < len(gm.Match.Matched) {
			kind = string(gm.Match.Matched[i].Definition.Kind)
		}
		tw.writef("matched\t%s\t%s\t%s\t%s\n", id.Name, kind, id.Definition.Hash, runtimeID(id.Runtime))
	}
	for i := range gm.Match.DefinitionOnly {
		r := &gm.Match.DefinitionOnly[i]
		tw.writef("definition only\t%s\t%s\t-\t-\n", r.Name, r.Kind)
	}
	for i := range gm.Match.RuntimeOnly {
		r := &gm.Match.RuntimeOnly[i]
		tw.writef("runtime only\t%s\t%s\t-\t%s\n", r.Name, r.Kind, orDash(r.UID))
	}
	return tw.finish()
}

func runtimeID(id domain.RuleIdentifier) string {
	return orDash(id.UID)
}

func printGroupWait(res *apiclient.GroupWaitResult) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Group:\t%s\n", res.Ref)
	tw.writef("Outcome:\t%s\n", res.Outcome)
	tw.writef("Reason:\t%s\n", res.Verdict.Reason)
	if res.Verdict.Detail != "" {
		tw.writef("Detail:\t%s\n", res.Verdict.Detail)
	}
	tw.writef("Polls:\t%d\n", res.Ticks)
	tw.writef("Elapsed:\t%s\n", millis(res.ElapsedMS))
	if res.Error != "" {
		tw.writef("Error:\t%s\n", res.Error)
	}
	return tw.finish()
}

func printRuleWait(res *apiclient.RuleWaitResult) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Rule:\t%s\n", res.Rule)
	tw.writef("Mode:\t%s\n", res.Mode)
	tw.writef("Outcome:\t%s\n", res.Outcome)
	tw.writef("Polls:\t%d\n", res.Ticks)
	tw.writef("Elapsed:\t%s\n", millis(res.ElapsedMS))
	if res.Found != nil {
		tw.writef("State:\t%s\n", orDash(string(res.Found.State)))
		tw.writef("Health:\t%s\n", orDash(res.Found.Health))
	}
	if res.Error != "" {
		tw.writef("Error:\t%s\n", res.Error)
	}
	return tw.finish()
}

func printWaitsTable(waits []domain.WaitRecord) error {
	return writeWaitsTable(os.Stdout, waits)
}

func writeWaitsTable(w io.Writer, waits []domain.WaitRecord) error {
	tw := newTabWriter(w)
	tw.writef("ID\tKIND\tGROUP\tRULE\tOUTCOME\tPOLLS\tELAPSED\tSTARTED\n")
	for i := range waits {
		r := &waits[i]
		tw.writef("%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ID,
			r.Kind,
			r.Group,
			orDash(r.RuleName),
			r.Outcome,
			r.Ticks,
			r.Elapsed.Round(time.Millisecond),
			r.StartedAt.Local().Format(timeLayout),
		)
	}
	return tw.finish()
}

func printWaitDetail(r *domain.WaitRecord) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID:\t%s\n", r.ID)
	tw.writef("Kind:\t%s\n", r.Kind)
	tw.writef("Group:\t%s\n", r.Group)
	if r.RuleName != "" {
		tw.writef("Rule:\t%s\n", r.RuleName)
	}
	tw.writef("Outcome:\t%s\n", r.Outcome)
	if r.Reason != "" {
		tw.writef("Reason:\t%s\n", r.Reason)
	}
	tw.writef("Polls:\t%d\n", r.Ticks)
	tw.writef("Elapsed:\t%s\n", r.Elapsed.Round(time.Millisecond))
	tw.writef("Started:\t%s\n", r.StartedAt.Local().Format(timeLayout))
	tw.writef("Finished:\t%s\n", r.FinishedAt.Local().Format(timeLayout))
	return tw.finish()
}

func printAuditRunsTable(runs []domain.AuditRun) error {
	return writeAuditRunsTable(os.Stdout, runs)
}

func writeAuditRunsTable(w io.Writer, runs []domain.AuditRun) error {
	tw := newTabWriter(w)
	tw.writef("ID\tSTATUS\tCHECKED\tDRIFTED\tSTARTED\tCOMPLETED\tERROR\n")
	for i := range runs {
		r := &runs[i]
		completed := "-"
		if r.CompletedAt != nil {
			completed = r.CompletedAt.Local().Format(timeLayout)
		}
		tw.writef("%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			r.ID,
			r.Status,
			r.GroupsChecked,
			r.GroupsDrifted,
			r.StartedAt.Local().Format(timeLayout),
			completed,
			orDash(truncate(oneLine(r.ErrorText), 40)),
		)
	}
	return tw.finish()
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func millis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func oneLine(s string) string {
	return strings.ReplaceAll(s, "\n", "; ")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
