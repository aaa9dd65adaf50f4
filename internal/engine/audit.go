package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/donaldgifford/rulesync/internal/metrics"
	domain "github.com/donaldgifford/rulesync/pkg/types"
)

// RunAudit matches every configured audit group once. Orphan counts are
// exported per group, and groups that stay out of sync for driftThreshold
// consecutive runs are sent to the notifier. A group that cannot be fetched
// does not fail the run.
func (eng *Engine) RunAudit(ctx context.Context) (*domain.AuditRun, error) {
	id, err := eng.store.InsertAuditRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("inserting audit run: %w", err)
	}
	run := &domain.AuditRun{
		ID:        id,
		StartedAt: time.Now(),
		Status:    domain.AuditRunning,
	}
	metrics.AuditRunsTotal.Inc()

	var (
		reports []domain.DriftReport
		errs    []error
	)
	for _, ref := range eng.auditGroups {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		report, err := eng.auditGroup(ctx, ref)
		run.GroupsChecked++
		if err != nil {
			eng.log.Error("auditing group", "group", ref.String(), "error", err)
			errs = append(errs, fmt.Errorf("group %s: %w", ref, err))
			continue
		}
		if report == nil {
			continue
		}
		run.GroupsDrifted++
		if report.ConsecutiveRuns >= eng.driftThreshold {
			reports = append(reports, *report)
		}
	}
	metrics.AuditDriftTotal.Add(float64(run.GroupsDrifted))

	if len(reports) > 0 {
		if err := eng.notifier.SendDriftBatch(ctx, reports); err != nil {
			eng.log.Error("sending drift notifications", "groups", len(reports), "error", err)
			errs = append(errs, fmt.Errorf("notifying: %w", err))
		}
	}

	runErr := errors.Join(errs...)
	now := time.Now()
	run.CompletedAt = &now
	run.Status = domain.AuditSucceeded
	if runErr != nil {
		run.Status = domain.AuditFailed
		run.ErrorText = runErr.Error()
	}
	if err := eng.store.CompleteAuditRun(context.WithoutCancel(ctx), run); err != nil {
		eng.log.Error("completing audit run", "id", run.ID, "error", err)
	}

	eng.log.Info("audit complete",
		"groups_checked", run.GroupsChecked,
		"groups_drifted", run.GroupsDrifted,
		"reported", len(reports),
		"status", run.Status,
	)
	return run, runErr
}

// auditGroup matches one group and updates its drift streak. It returns a
// report when the group is out of sync. Verdicts declared in sync because a
// store was unreachable neither extend nor reset the streak.
func (eng *Engine) auditGroup(ctx context.Context, ref domain.GroupRef) (*domain.DriftReport, error) {
	gm, err := eng.MatchGroup(ctx, ref)
	if err != nil {
		return nil, err
	}

	source := ref.Source
	if source == "" {
		source = "default"
	}
	metrics.AuditOrphanRules.WithLabelValues(source, ref.Namespace, ref.Group, "definition").
		Set(float64(len(gm.Match.DefinitionOnly)))
	metrics.AuditOrphanRules.WithLabelValues(source, ref.Namespace, ref.Group, "runtime").
		Set(float64(len(gm.Match.RuntimeOnly)))

	eng.mu.Lock()
	defer eng.mu.Unlock()

	switch {
	case gm.Verdict.Degraded:
		return nil, nil
	case gm.Verdict.InSync:
		delete(eng.streaks, ref)
		return nil, nil
	}

	eng.streaks[ref]++
	report := &domain.DriftReport{
		Group:           ref,
		Reason:          string(gm.Verdict.Reason),
		Detail:          gm.Verdict.Detail,
		ConsecutiveRuns: eng.streaks[ref],
	}
	for i := range gm.Match.DefinitionOnly {
		report.DefinitionOnly = append(report.DefinitionOnly, gm.Match.DefinitionOnly[i].Name)
	}
	for i := range gm.Match.RuntimeOnly {
		report.RuntimeOnly = append(report.RuntimeOnly, gm.Match.RuntimeOnly[i].Name)
	}
	return report, nil
}
