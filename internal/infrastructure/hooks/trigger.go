package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Trigger kicks off one step of the daily task in an external worker. The
// workers own the actual sync logic; this side only fires the trigger and
// reports whether it was accepted.
type Trigger interface {
	Trigger(ctx context.Context) error
}

type httpTrigger struct {
	name   string
	url    string
	client *http.Client
}

// NewHTTPTrigger builds a trigger that POSTs to the worker's endpoint. An
// empty URL disables the step: Trigger logs and reports success so sibling
// steps are unaffected.
func NewHTTPTrigger(name, url string) Trigger {
	return &httpTrigger{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (t *httpTrigger) Trigger(ctx context.Context) error {
	if t.url == "" {
		slog.Debug("trigger not configured, skipping", "step", t.name)
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, nil)
	if err != nil {
		return err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("trigger %s: %w", t.name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("trigger %s returned %d", t.name, resp.StatusCode)
	}
	return nil
}
