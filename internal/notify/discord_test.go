package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/rulesync/internal/metrics"
	domain "github.com/donaldgifford/rulesync/pkg/types"
)

func testReport(reason string) domain.DriftReport {
	return domain.DriftReport{
		Group:           domain.GroupRef{Source: "prod", Namespace: "team-a", Group: "latency"},
		Reason:          reason,
		Detail:          "1 definition-only, 1 runtime-only",
		DefinitionOnly:  []string{"HighLatency"},
		RuntimeOnly:     []string{"HighLatencyOld"},
		ConsecutiveRuns: 2,
	}
}

func TestDiscordNotifier_SendDrift(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		report     domain.DriftReport
		statusCode int
		wantErr    bool
		errMsg     string
		wantColor  int
	}{
		{
			name:       "unmatched rules uses orange",
			report:     testReport("unmatched_rules"),
			statusCode: http.StatusNoContent,
			wantColor:  colorOrange,
		},
		{
			name:       "creation pending uses red",
			report:     testReport("creation_pending"),
			statusCode: http.StatusNoContent,
			wantColor:  colorRed,
		},
		{
			name:       "order mismatch uses yellow",
			report:     testReport("name_sequence_mismatch"),
			statusCode: http.StatusNoContent,
			wantColor:  colorYellow,
		},
		{
			name:       "discord returns 429 rate limited",
			report:     testReport("count_mismatch"),
			statusCode: http.StatusTooManyRequests,
			wantErr:    true,
			errMsg:     "rate limited",
		},
		{
			name:       "discord returns 400 error",
			report:     testReport("count_mismatch"),
			statusCode: http.StatusBadRequest,
			wantErr:    true,
			errMsg:     "discord returned 400",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var received discordWebhookPayload

			srv := httptest.NewServer(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
					assert.Equal(t, http.MethodPost, r.Method)

					err := json.NewDecoder(r.Body).Decode(&received)
					assert.NoError(t, err)

					w.WriteHeader(tt.statusCode)
				}),
			)
			defer srv.Close()

			d := NewDiscordNotifier(srv.URL)
			err := d.SendDrift(context.Background(), &tt.report)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}

			require.NoError(t, err)
			require.Len(t, received.Embeds, 1)

			embed := received.Embeds[0]
			assert.Equal(t, tt.wantColor, embed.Color)
			assert.Equal(t, "Rule drift: prod/team-a/latency", embed.Title)

			fieldMap := make(map[string]string)
			for _, f := range embed.Fields {
				fieldMap[f.Name] = f.Value
			}
			assert.Equal(t, tt.report.Reason, fieldMap["Reason"])
			assert.Equal(t, "2", fieldMap["Consecutive audits"])
			assert.Equal(t, "`HighLatency`", fieldMap["Definition only"])
			assert.Equal(t, "`HighLatencyOld`", fieldMap["Runtime only"])
		})
	}
}

func TestDiscordNotifier_SendDrift_NoOrphans(t *testing.T) {
	t.Parallel()

	var received discordWebhookPayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := json.NewDecoder(r.Body).Decode(&received)
		assert.NoError(t, err)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	report := testReport("name_sequence_mismatch")
	report.DefinitionOnly = nil
	report.RuntimeOnly = nil

	d := NewDiscordNotifier(srv.URL)
	require.NoError(t, d.SendDrift(context.Background(), &report))

	require.Len(t, received.Embeds, 1)
	assert.Len(t, received.Embeds[0].Fields, 2)
}

func TestDiscordNotifier_SendDriftBatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		count      int
		wantEmbeds int
		wantCalls  int
	}{
		{name: "few reports", count: 3, wantEmbeds: 3, wantCalls: 1},
		{name: "exactly ten", count: 10, wantEmbeds: 10, wantCalls: 1},
		{name: "overflow summarized", count: 14, wantEmbeds: 10, wantCalls: 1},
		{name: "empty batch sends nothing", count: 0, wantCalls: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var received discordWebhookPayload
			calls := 0

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				err := json.NewDecoder(r.Body).Decode(&received)
				assert.NoError(t, err)
				w.WriteHeader(http.StatusNoContent)
			}))
			defer srv.Close()

			reports := make([]domain.DriftReport, tt.count)
			for i := range reports {
				reports[i] = testReport("count_mismatch")
				reports[i].Group.Group = fmt.Sprintf("group-%d", i)
			}

			d := NewDiscordNotifier(srv.URL)
			require.NoError(t, d.SendDriftBatch(context.Background(), reports))

			assert.Equal(t, tt.wantCalls, calls)
			assert.Len(t, received.Embeds, tt.wantEmbeds)
			if tt.count > 10 {
				last := received.Embeds[len(received.Embeds)-1]
				assert.Equal(t, "... and 5 more drifted groups", last.Title)
			}
		})
	}
}

func TestRuleList_Truncates(t *testing.T) {
	t.Parallel()

	names := make([]string, 200)
	for i := range names {
		names[i] = fmt.Sprintf("VeryLongAlertingRuleName%03d", i)
	}

	got := ruleList(names)
	assert.LessOrEqual(t, len(got), maxFieldValue)
	assert.True(t, strings.HasPrefix(got, "`VeryLongAlertingRuleName000`"))
	assert.Contains(t, got, "more")
}

func TestDiscordNotifier_NetworkError(t *testing.T) {
	t.Parallel()

	d := NewDiscordNotifier("http://127.0.0.1:1") // nothing listening
	report := testReport("count_mismatch")
	err := d.SendDrift(context.Background(), &report)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sending discord webhook")
}

func TestDiscordNotifier_InvalidWebhookURL(t *testing.T) {
	t.Parallel()

	d := NewDiscordNotifier("://not-a-valid-url")
	report := testReport("count_mismatch")
	err := d.SendDrift(context.Background(), &report)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating discord request")
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()

	custom := &http.Client{}
	d := NewDiscordNotifier("https://example.com", WithHTTPClient(custom))
	assert.Same(t, custom, d.client)
}

func getNotificationHistogramSampleCount() uint64 {
	ch := make(chan prometheus.Metric, 1)
	metrics.NotificationDuration.Collect(ch)
	m := <-ch
	pb := &dto.Metric{}
	_ = m.Write(pb)
	return pb.GetHistogram().GetSampleCount()
}

func TestSendDrift_ObservesNotificationDuration(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	before := getNotificationHistogramSampleCount()

	d := NewDiscordNotifier(srv.URL)
	report := testReport("count_mismatch")
	require.NoError(t, d.SendDrift(context.Background(), &report))

	after := getNotificationHistogramSampleCount()
	assert.Greater(t, after, before, "NotificationDuration histogram sample count should increase")
}
