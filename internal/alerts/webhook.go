// Package alerts delivers run summaries to a chat webhook. Delivery is
// fire-and-forget: failures are logged, never retried, and never fail a run.
package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/revpilot/revpilot/internal/config"
)

// Notifier posts run summaries to a chat webhook.
type Notifier struct {
	webhookURL string
	enabled    bool
	httpClient *http.Client
}

// NewNotifier builds a notifier from alert config. A disabled or URL-less
// config yields a notifier whose sends are no-ops.
func NewNotifier(cfg config.AlertsConfig) *Notifier {
	return &Notifier{
		webhookURL: cfg.WebhookURL,
		enabled:    cfg.Enabled && cfg.WebhookURL != "",
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSecs) * time.Second},
	}
}

// Send posts a summary line to the webhook.
func (n *Notifier) Send(ctx context.Context, text string) {
	if !n.enabled {
		return
	}

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal alert payload")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		log.Error().Err(err).Msg("Failed to build alert request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("Alert delivery failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Warn().
			Int("status", resp.StatusCode).
			Msg("Alert webhook returned non-success status")
		return
	}
	log.Debug().Msg("Alert delivered")
}
