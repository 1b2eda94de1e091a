// Package notify fires system notifications for error events, with
// optional webhook and ntfy fan-out.
package notify

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"os/exec"
	"runtime"
	"time"
)

// Config holds notification settings.
type Config struct {
	Enabled bool
	Webhook string
	NtfyURL string
}

// Notifier fires system notifications and optional webhook POSTs.
type Notifier struct {
	cfg    Config
	logger *slog.Logger
}

// New returns a Notifier with the given config.
func New(cfg Config, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{cfg: cfg, logger: logger}
}

// Alert surfaces a user-visible notification for a backend or submission
// error. Failures to deliver are logged, never returned: notifications are
// best-effort by contract.
func (n *Notifier) Alert(message string) {
	if !n.cfg.Enabled {
		return
	}

	n.sendSystemNotification(message)

	if n.cfg.Webhook != "" {
		n.sendWebhook(message)
	}
	if n.cfg.NtfyURL != "" {
		n.sendNtfy(message)
	}
}

func (n *Notifier) sendSystemNotification(msg string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := "display notification " + jsonQuote(msg) + ` with title "browser-relay"`
		cmd = exec.Command("osascript", "-e", script)
	default:
		cmd = exec.Command("notify-send", "browser-relay", msg)
	}
	if err := cmd.Run(); err != nil {
		n.logger.Debug("system notification failed", "error", err)
	}
}

func jsonQuote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

type webhookPayload struct {
	Source    string `json:"source"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func (n *Notifier) sendWebhook(msg string) {
	payload := webhookPayload{
		Source:    "browser-relay",
		Message:   msg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(n.cfg.Webhook, "application/json", bytes.NewReader(data))
	if err != nil {
		n.logger.Debug("webhook notification failed", "error", err)
		return
	}
	resp.Body.Close()
}

type ntfyPayload struct {
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Priority int      `json:"priority"`
	Tags     []string `json:"tags"`
}

func (n *Notifier) sendNtfy(msg string) {
	payload := ntfyPayload{
		Title:    "browser-relay error",
		Message:  msg,
		Priority: 4,
		Tags:     []string{"warning"},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(n.cfg.NtfyURL, "application/json", bytes.NewReader(data))
	if err != nil {
		n.logger.Debug("ntfy notification failed", "error", err)
		return
	}
	resp.Body.Close()
}
