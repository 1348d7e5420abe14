package tasks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// newKeepAliveTask pings the configured backend so free-tier hosts do not
// put it to sleep. Without a backend URL the task does nothing.
func newKeepAliveTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", KeepAlive)
	client := deps.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return func(ctx context.Context) error {
		url := deps.Config.HTTP.BackendURL
		if url == "" {
			log.DebugContext(ctx, "No backend URL configured, skipping keep-alive")
			return nil
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("failed to build keep-alive request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			log.WarnContext(ctx, "Keep-alive request failed", "url", url, "error", err)
			return fmt.Errorf("keep-alive request failed: %w", err)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("keep-alive got status %d", resp.StatusCode)
		}
		log.InfoContext(ctx, "Keep-alive ping succeeded", "url", url, "status", resp.StatusCode)
		return nil
	}
}
