package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"eventlisting/internal/domain"
)

type hitPayload struct {
	App       string `json:"app"`
	URI       string `json:"uri"`
	IP        string `json:"ip"`
	Timestamp string `json:"timestamp"`
}

type httpReporter struct {
	client  *http.Client
	baseURL string
	app     string
}

// NewHTTPReporter returns a HitReporter that posts hits to {baseURL}/hit.
// An empty Hit.App is filled with app.
func NewHTTPReporter(client *http.Client, baseURL, app string) domain.HitReporter {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpReporter{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		app:     app,
	}
}

func (r *httpReporter) Report(ctx context.Context, hit domain.Hit) error {
	app := hit.App
	if app == "" {
		app = r.app
	}
	body, err := json.Marshal(hitPayload{
		App:       app,
		URI:       hit.URI,
		IP:        hit.IP,
		Timestamp: hit.Timestamp.UTC().Format(domain.HitTimeLayout),
	})
	if err != nil {
		return fmt.Errorf("failed to encode hit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/hit", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send hit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("stats service returned status: %d", resp.StatusCode)
	}
	return nil
}

type noopReporter struct{}

// NewNoopReporter returns a HitReporter that drops every hit.
func NewNoopReporter() domain.HitReporter {
	return noopReporter{}
}

func (noopReporter) Report(context.Context, domain.Hit) error { return nil }
