package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ExpoSender delivers message batches to the Expo push HTTP API.
// Nil-safe: when not configured, Send logs and drops the batch so local
// development works without a gateway.
type ExpoSender struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewExpoSender creates a sender with a bounded per-request timeout.
// Returns nil when url is empty (push delivery disabled).
func NewExpoSender(url string, timeout time.Duration, logger *slog.Logger) *ExpoSender {
	if url == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &ExpoSender{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Send posts one chunk to the gateway. The gateway answers per request, not
// per message; any non-2xx status or transport error fails the whole chunk.
func (s *ExpoSender) Send(ctx context.Context, msgs []Message) error {
	if s == nil {
		slog.Default().Info("push send (gateway disabled)", "messages", len(msgs))
		return nil
	}
	if len(msgs) == 0 {
		return nil
	}

	body, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("marshal push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("push gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push gateway status %d: %s", resp.StatusCode, snippet)
	}

	// The response carries per-receipt tickets; they are deliberately not
	// inspected — the chunk succeeds or fails as a unit.
	io.Copy(io.Discard, resp.Body)
	return nil
}
