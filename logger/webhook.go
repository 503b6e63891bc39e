package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// deliveryTimeout bounds a single webhook delivery, connection included.
const deliveryTimeout = 5 * time.Second

// A webhookEvent is the wire form of one mirrored log event.
type webhookEvent struct {
	Level         string         `json:"level"`
	Message       string         `json:"message"`
	Metadata      map[string]any `json:"metadata"`
	ComponentName string         `json:"componentName"`
	Timestamp     string         `json:"timestamp"`
	Environment   string         `json:"environment"`
}

// deliver mirrors an emitted event to the webhook, fire-and-forget.
//
// The caller is never blocked: the rate check is non-blocking and the
// request runs on its own goroutine. Every failure mode, network error,
// timeout, or non-2xx status, is reported through the raw sink and
// dropped; nothing retries and nothing reaches the caller.
func (l *Logger) deliver(level, message string, metadata map[string]any) {
	if l.limiter != nil && !l.limiter.Allow() {
		return
	}

	// Snapshot the metadata before handing off: the caller owns the map
	// and may mutate it the moment this call returns.
	var meta map[string]any
	if len(metadata) > 0 {
		meta = make(map[string]any, len(metadata))
		for k, v := range metadata {
			meta[k] = v
		}
	}

	event := webhookEvent{
		Level:         level,
		Message:       message,
		Metadata:      meta,
		ComponentName: l.component,
		Timestamp:     l.now().UTC().Format(time.RFC3339),
		Environment:   l.env.String(),
	}

	go l.post(event)
}

func (l *Logger) post(event webhookEvent) {
	body, err := json.Marshal(event)
	if err != nil {
		l.raw.Printf("webhook delivery failed: encode: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.cfg.webhook.URL, bytes.NewReader(body))
	if err != nil {
		l.raw.Printf("webhook delivery failed: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-Id", uuid.NewString())

	resp, err := l.client.Do(req)
	if err != nil {
		l.raw.Printf("webhook delivery failed: %v", err)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		l.raw.Printf("webhook delivery failed: status %d", resp.StatusCode)
	}
}
