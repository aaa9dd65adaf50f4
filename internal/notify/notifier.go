// Package notify defines the notification interface and implementations
// for drift reports produced by the audit.
package notify

import (
	"context"

	domain "github.com/donaldgifford/rulesync/pkg/types"
)

// Notifier defines the interface for sending drift notifications.
type Notifier interface {
	SendDrift(ctx context.Context, report *domain.DriftReport) error
	SendDriftBatch(ctx context.Context, reports []domain.DriftReport) error
}
