package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"llstore/internal/config"
)

const userAgent = "llstore/0.1.0"

// Service defines the notification surface exposed to the queue store.
type Service interface {
	NotifyInstallCompleted(ctx context.Context, appName string) error
	NotifyInstallFailed(ctx context.Context, appName, reason string) error
	NotifyInstallCancelled(ctx context.Context, appName string) error
	NotifyQueueDrained(ctx context.Context, processed, failed int) error
	NotifyRecovery(ctx context.Context, appName string, confirmed bool) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		sendInstalls: cfg.Notifications.Installs,
		sendErrors:   cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	sendInstalls bool
	sendErrors   bool
}

func (n *ntfyService) NotifyInstallCompleted(ctx context.Context, appName string) error {
	if !n.sendInstalls {
		return nil
	}
	data := payload{
		title:   "Store - Install Complete",
		message: fmt.Sprintf("Installed: %s", strings.TrimSpace(appName)),
		tags:    []string{"llstore", "install", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyInstallFailed(ctx context.Context, appName, reason string) error {
	if !n.sendErrors {
		return nil
	}
	appName = strings.TrimSpace(appName)
	reason = strings.TrimSpace(reason)
	message := fmt.Sprintf("Install failed: %s", appName)
	if reason != "" {
		message = fmt.Sprintf("%s\n%s", message, reason)
	}
	data := payload{
		title:    "Store - Install Failed",
		message:  message,
		tags:     []string{"llstore", "install", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyInstallCancelled(ctx context.Context, appName string) error {
	if !n.sendInstalls {
		return nil
	}
	data := payload{
		title:    "Store - Install Cancelled",
		message:  fmt.Sprintf("Cancelled: %s", strings.TrimSpace(appName)),
		tags:     []string{"llstore", "install", "cancelled"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyQueueDrained(ctx context.Context, processed, failed int) error {
	if !n.sendInstalls {
		return nil
	}
	var title, message string
	if failed == 0 {
		title = "Store - Queue Complete"
		message = fmt.Sprintf("Install queue drained: %d installed", processed)
	} else {
		title = "Store - Queue Complete (with errors)"
		message = fmt.Sprintf("Install queue drained: %d installed, %d failed", processed, failed)
	}
	data := payload{
		title:   title,
		message: message,
		tags:    []string{"llstore", "queue", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRecovery(ctx context.Context, appName string, confirmed bool) error {
	if !n.sendErrors {
		return nil
	}
	appName = strings.TrimSpace(appName)
	var message string
	if confirmed {
		message = fmt.Sprintf("Install of %s finished before the last shutdown and was confirmed on restart", appName)
	} else {
		message = fmt.Sprintf("Install of %s was interrupted by shutdown and did not complete", appName)
	}
	data := payload{
		title:   "Store - Recovered Task",
		message: message,
		tags:    []string{"llstore", "recovery"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Store - Test",
		message:  "Notification system test",
		tags:     []string{"llstore", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyInstallCompleted(context.Context, string) error      { return nil }
func (noopService) NotifyInstallFailed(context.Context, string, string) error { return nil }
func (noopService) NotifyInstallCancelled(context.Context, string) error      { return nil }
func (noopService) NotifyQueueDrained(context.Context, int, int) error        { return nil }
func (noopService) NotifyRecovery(context.Context, string, bool) error        { return nil }
func (noopService) TestNotification(context.Context) error                    { return nil }
