package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/donaldgifford/rulesync/internal/metrics"
	"github.com/donaldgifford/rulesync/pkg/consistency"
	domain "github.com/donaldgifford/rulesync/pkg/types"
)

const (
	colorRed    = 0xE74C3C // group missing on one side
	colorOrange = 0xE67E22 // rule membership differs
	colorYellow = 0xF1C40F // order or anything else

	maxEmbeds     = 10
	maxFieldValue = 1024
)

// DiscordNotifier implements Notifier via Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(webhookURL string, opts ...DiscordOption) *DiscordNotifier {
	d := &DiscordNotifier{
		webhookURL: webhookURL,
		client:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DiscordOption configures a DiscordNotifier.
type DiscordOption func(*DiscordNotifier)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) DiscordOption {
	return func(d *DiscordNotifier) {
		d.client = c
	}
}

// discordWebhookPayload is the Discord webhook JSON structure.
type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	Color       int                 `json:"color"`
	Description string              `json:"description,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// SendDrift sends a single drift report as a Discord embed.
func (d *DiscordNotifier) SendDrift(ctx context.Context, report *domain.DriftReport) error {
	payload := discordWebhookPayload{
		Embeds: []discordEmbed{buildEmbed(report)},
	}
	return d.post(ctx, payload)
}

// SendDriftBatch sends several drift reports as a single Discord message.
func (d *DiscordNotifier) SendDriftBatch(ctx context.Context, reports []domain.DriftReport) error {
	if len(reports) == 0 {
		return nil
	}

	embeds := make([]discordEmbed, 0, min(len(reports), maxEmbeds))

	// Discord allows max 10 embeds per message; keep the last slot for the
	// overflow summary.
	limit := len(reports)
	if limit > maxEmbeds {
		limit = maxEmbeds - 1
	}
	for i := range limit {
		embeds = append(embeds, buildEmbed(&reports[i]))
	}

	if len(reports) > limit {
		embeds = append(embeds, discordEmbed{
			Title:       fmt.Sprintf("... and %d more drifted groups", len(reports)-limit),
			Color:       colorYellow,
			Description: "Run `rsctl audit` for the full report.",
		})
	}

	return d.post(ctx, discordWebhookPayload{Embeds: embeds})
}

func buildEmbed(r *domain.DriftReport) discordEmbed {
	embed := discordEmbed{
		Title:       "Rule drift: " + r.Group.String(),
		Color:       reasonColor(r.Reason),
		Description: r.Detail,
		Fields: []discordEmbedField{
			{Name: "Reason", Value: r.Reason, Inline: true},
			{Name: "Consecutive audits", Value: strconv.Itoa(r.ConsecutiveRuns), Inline: true},
		},
	}

	if len(r.DefinitionOnly) > 0 {
		embed.Fields = append(embed.Fields, discordEmbedField{
			Name:  "Definition only",
			Value: ruleList(r.DefinitionOnly),
		})
	}
	if len(r.RuntimeOnly) > 0 {
		embed.Fields = append(embed.Fields, discordEmbedField{
			Name:  "Runtime only",
			Value: ruleList(r.RuntimeOnly),
		})
	}

	return embed
}

func reasonColor(reason string) int {
	switch consistency.Reason(reason) {
	case consistency.ReasonCreationPending, consistency.ReasonDeletionPending:
		return colorRed
	case consistency.ReasonCountMismatch, consistency.ReasonUnmatchedRules:
		return colorOrange
	default:
		return colorYellow
	}
}

// ruleList renders names one per line, truncated to fit an embed field.
func ruleList(names []string) string {
	var b strings.Builder
	for i, n := range names {
		line := "`" + n + "`\n"
		if b.Len()+len(line) > maxFieldValue-16 {
			fmt.Fprintf(&b, "+%d more", len(names)-i)
			break
		}
		b.WriteString(line)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (d *DiscordNotifier) post(ctx context.Context, payload discordWebhookPayload) error {
	start := time.Now()
	defer func() {
		metrics.NotificationDuration.Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		d.webhookURL,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("creating discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("discord rate limited (429)")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("discord returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
