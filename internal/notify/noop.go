package notify

import (
	"context"
	"log/slog"

	domain "github.com/donaldgifford/rulesync/pkg/types"
)

// NoOpNotifier implements Notifier by logging discarded reports. It is used
// when Discord (or another notification backend) is not configured.
type NoOpNotifier struct {
	log *slog.Logger
}

// NewNoOpNotifier creates a notifier that discards reports with a log message.
func NewNoOpNotifier(log *slog.Logger) *NoOpNotifier {
	return &NoOpNotifier{log: log}
}

// SendDrift logs and discards a single report.
func (n *NoOpNotifier) SendDrift(_ context.Context, report *domain.DriftReport) error {
	n.log.Debug("notification discarded (no backend configured)",
		"group", report.Group.String(),
		"reason", report.Reason,
		"consecutive_runs", report.ConsecutiveRuns,
	)
	return nil
}

// SendDriftBatch logs and discards a batch of reports.
func (n *NoOpNotifier) SendDriftBatch(_ context.Context, reports []domain.DriftReport) error {
	n.log.Debug("batch notification discarded (no backend configured)",
		"count", len(reports),
	)
	return nil
}
