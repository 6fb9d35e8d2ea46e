package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/johnlee-jh/traffic-microsimulation/internal/metrics"
)

// AlertType categorizes the kind of alert.
type AlertType string

const (
	AlertTypeDiverged     AlertType = "DIVERGED"
	AlertTypeSimFailure   AlertType = "SIMULATION_FAILURE"
	AlertTypeWarningFlood AlertType = "MATCHING_WARNINGS"
	AlertTypeConverged    AlertType = "CONVERGED"
)

// Alert represents a single alert event.
type Alert struct {
	Type    AlertType
	RunID   string
	Network string
	Title   string
	Message string
	Fields  map[string]string
}

// Alerter is the interface for sending alerts.
type Alerter interface {
	Send(ctx context.Context, alert Alert) error
}

// MultiAlerter fans out alerts to multiple channels with per-key cooldown.
type MultiAlerter struct {
	alerters []Alerter
	cooldown time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	lastSent map[string]time.Time
}

func NewMultiAlerter(cooldown time.Duration, logger *slog.Logger, alerters ...Alerter) *MultiAlerter {
	return &MultiAlerter{
		alerters: alerters,
		cooldown: cooldown,
		logger:   logger.With("component", "alerter"),
		lastSent: make(map[string]time.Time),
	}
}

// cooldownKey generates a dedup key for cooldown tracking.
func cooldownKey(a Alert) string {
	return fmt.Sprintf("%s:%s:%s", a.Type, a.Network, a.RunID)
}

// Send dispatches alert to all channels, respecting cooldown.
func (m *MultiAlerter) Send(ctx context.Context, alert Alert) error {
	key := cooldownKey(alert)

	m.mu.Lock()
	if last, ok := m.lastSent[key]; ok && time.Since(last) < m.cooldown {
		m.mu.Unlock()
		m.logger.Debug("alert suppressed by cooldown", "key", key)
		for _, a := range m.alerters {
			metrics.AlertsCooldownSkipped.WithLabelValues(alerterName(a), string(alert.Type)).Inc()
		}
		return nil
	}
	m.lastSent[key] = time.Now()
	m.mu.Unlock()

	var firstErr error
	for _, a := range m.alerters {
		if err := a.Send(ctx, alert); err != nil {
			m.logger.Warn("alert send failed",
				"channel", alerterName(a),
				"type", alert.Type,
				"error", err,
			)
			if firstErr == nil {
				firstErr = err
			}
		} else {
			metrics.AlertsSent.WithLabelValues(alerterName(a), string(alert.Type)).Inc()
		}
	}
	return firstErr
}

func alerterName(a Alerter) string {
	switch a.(type) {
	case *WebhookAlerter:
		return "webhook"
	default:
		return "unknown"
	}
}

// WebhookAlerter sends alerts to a generic HTTP webhook.
type WebhookAlerter struct {
	url    string
	client *http.Client
}

func NewWebhookAlerter(url string) *WebhookAlerter {
	return &WebhookAlerter{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send sends an alert to the webhook endpoint.
func (w *WebhookAlerter) Send(ctx context.Context, alert Alert) error {
	payload := map[string]any{
		"type":    string(alert.Type),
		"run_id":  alert.RunID,
		"network": alert.Network,
		"title":   alert.Title,
		"message": alert.Message,
		"fields":  alert.Fields,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// NoopAlerter does nothing. Used when no alert channels are configured.
type NoopAlerter struct{}

func (n *NoopAlerter) Send(_ context.Context, _ Alert) error { return nil }
