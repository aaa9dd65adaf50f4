package notify

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/rulesync/pkg/types"
)

func TestNoOpNotifier_SendDrift(t *testing.T) {
	t.Parallel()

	n := NewNoOpNotifier(slog.New(slog.NewTextHandler(io.Discard, nil)))
	report := testReport("count_mismatch")
	require.NoError(t, n.SendDrift(context.Background(), &report))
}

func TestNoOpNotifier_SendDriftBatch(t *testing.T) {
	t.Parallel()

	n := NewNoOpNotifier(slog.New(slog.NewTextHandler(io.Discard, nil)))
	reports := []domain.DriftReport{testReport("count_mismatch"), testReport("unmatched_rules")}
	require.NoError(t, n.SendDriftBatch(context.Background(), reports))
}

func TestNoOpNotifier_SendDriftBatch_Empty(t *testing.T) {
	t.Parallel()

	n := NewNoOpNotifier(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, n.SendDriftBatch(context.Background(), nil))
}

// compile-time interface checks.
var (
	_ Notifier = (*NoOpNotifier)(nil)
	_ Notifier = (*DiscordNotifier)(nil)
)
