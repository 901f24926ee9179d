package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"metasweep/internal/config"
)

const userAgent = "metasweep/0.1.0"

// Service defines the notification surface exposed to the monitor pipeline.
type Service interface {
	NotifyMonitorStarted(ctx context.Context, watchDir, mode, sessionID string) error
	NotifyMonitorStopped(ctx context.Context, sessionID string) error
	NotifyMetadataFound(ctx context.Context, relPath, summary string) error
	NotifyCleaned(ctx context.Context, relPath string) error
	NotifyCleanFailed(ctx context.Context, relPath string, cause error) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
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
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyMonitorStarted(ctx context.Context, watchDir, mode, sessionID string) error {
	data := payload{
		title:   "Metasweep - Monitor Started",
		message: fmt.Sprintf("🟢 Watching %s (%s mode, session %s)", strings.TrimSpace(watchDir), mode, sessionID),
		tags:    []string{"metasweep", "monitor", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyMonitorStopped(ctx context.Context, sessionID string) error {
	data := payload{
		title:   "Metasweep - Monitor Stopped",
		message: fmt.Sprintf("🔴 Monitor stopped (session %s)", sessionID),
		tags:    []string{"metasweep", "monitor", "stopped"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyMetadataFound(ctx context.Context, relPath, summary string) error {
	relPath = strings.TrimSpace(relPath)
	data := payload{
		title:   "Metasweep - Metadata Detected",
		message: fmt.Sprintf("🔍 %s\n%s", relPath, summary),
		tags:    []string{"metasweep", "metadata", "detected"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyCleaned(ctx context.Context, relPath string) error {
	relPath = strings.TrimSpace(relPath)
	data := payload{
		title:   "Metasweep - Cleaned",
		message: fmt.Sprintf("✅ Metadata removed from %s", relPath),
		tags:    []string{"metasweep", "clean", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyCleanFailed(ctx context.Context, relPath string, cause error) error {
	relPath = strings.TrimSpace(relPath)
	message := fmt.Sprintf("❌ Failed to remove metadata from %s", relPath)
	if cause != nil {
		message = fmt.Sprintf("%s: %s", message, strings.TrimSpace(cause.Error()))
	}
	data := payload{
		title:    "Metasweep - Clean Failed",
		message:  message,
		tags:     []string{"metasweep", "clean", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Metasweep - Error",
		message:  builder.String(),
		tags:     []string{"metasweep", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Metasweep - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"metasweep", "test"},
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

func (noopService) NotifyMonitorStarted(context.Context, string, string, string) error { return nil }
func (noopService) NotifyMonitorStopped(context.Context, string) error                 { return nil }
func (noopService) NotifyMetadataFound(context.Context, string, string) error          { return nil }
func (noopService) NotifyCleaned(context.Context, string) error                        { return nil }
func (noopService) NotifyCleanFailed(context.Context, string, error) error             { return nil }
func (noopService) NotifyError(context.Context, error, string) error                   { return nil }
func (noopService) TestNotification(context.Context) error                             { return nil }
