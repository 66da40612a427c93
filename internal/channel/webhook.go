package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"courierpulse/internal/constants"
	"courierpulse/internal/engine"
	"courierpulse/internal/logger"
	"courierpulse/pkg/circuitbreaker"
	"courierpulse/pkg/models"
)

// WebhookAdapter delivers webhook actions over HTTP. Calls run through a
// circuit breaker so a dead endpoint stops consuming the per-action
// timeout for every event.
type WebhookAdapter struct {
	client  *http.Client
	breaker *circuitbreaker.Wrapper
	logger  logger.Logger
}

func NewWebhookAdapter(timeout time.Duration, breaker *circuitbreaker.Wrapper, log logger.Logger) *WebhookAdapter {
	if timeout == 0 {
		timeout = constants.DefaultHTTPTimeout
	}
	return &WebhookAdapter{
		client:  &http.Client{Timeout: timeout},
		breaker: breaker,
		logger:  log,
	}
}

func (a *WebhookAdapter) Send(ctx context.Context, action engine.Action, event models.EventEnvelope) error {
	url, err := Render(action.URL, event)
	if err != nil {
		return err
	}

	body, err := a.buildBody(action, event)
	if err != nil {
		return err
	}

	call := func() (interface{}, error) {
		return nil, a.post(ctx, url, action, body)
	}

	if a.breaker != nil {
		_, err = a.breaker.ExecuteWithContext(ctx, call)
		a.breaker.RecordRequest(err == nil)
		return err
	}

	_, err = call()
	return err
}

func (a *WebhookAdapter) buildBody(action engine.Action, event models.EventEnvelope) ([]byte, error) {
	if len(action.Payload) > 0 {
		rendered := make(map[string]interface{}, len(action.Payload))
		for key, value := range action.Payload {
			if s, ok := value.(string); ok {
				out, err := Render(s, event)
				if err != nil {
					return nil, err
				}
				rendered[key] = out
				continue
			}
			rendered[key] = value
		}
		return json.Marshal(rendered)
	}

	// Default body: the event itself.
	return json.Marshal(event)
}

func (a *WebhookAdapter) post(ctx context.Context, url string, action engine.Action, body []byte) error {
	method := action.Method
	if method == "" {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range action.Headers {
		req.Header.Set(key, value)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook call failed: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
