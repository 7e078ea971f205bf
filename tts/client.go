package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// HealthStatus is the worker's last reported health snapshot. It is
// advisory: it may be stale and is never proof the worker is currently
// alive.
type HealthStatus struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Device      string `json:"device"`
	CacheDir    string `json:"cache_dir"`
}

// Ready reports whether the snapshot's semantic status field says the
// worker may receive requests. An HTTP 200 with any other status value
// does not count as ready.
func (h HealthStatus) Ready() bool {
	return h.Status == "ok"
}

// Client is a typed request/response wrapper over the worker's loopback
// HTTP endpoints.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	probeTimeout time.Duration
}

// NewClient creates a client for the worker at cfg's loopback address.
func NewClient(cfg WorkerConfig) *Client {
	return &Client{
		baseURL:      cfg.BaseURL(),
		httpClient:   &http.Client{Timeout: cfg.RequestTimeout},
		probeTimeout: cfg.ProbeTimeout,
	}
}

// Health performs a single health check with its own short timeout.
// Transport failures and non-2xx responses both collapse to unavailable
// rather than an error: health is advisory, so the distinction carries
// no information the caller can act on.
func (c *Client) Health(ctx context.Context) (HealthStatus, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return HealthStatus{}, false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return HealthStatus{}, false
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return HealthStatus{}, false
	}

	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		log.Debug("health response malformed", "error", err)
		return HealthStatus{}, false
	}

	return status, true
}

// Synthesize asks the worker to generate audio for text and returns the
// raw waveform bytes unmodified. A reachable worker that refuses the
// request yields an *ApplicationError with its structured message; an
// unreachable or disappearing worker yields ErrTransport.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("encode synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/speak", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportErr(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeWorkerError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportErr(err)
	}

	log.Debug("synthesis complete", "textLength", len(text), "audioBytes", len(data))
	return data, nil
}

// Preload asks the worker to load its model eagerly. Same error contract
// as Synthesize.
func (c *Client) Preload(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/preload", nil)
	if err != nil {
		return fmt.Errorf("create preload request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportErr(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeWorkerError(resp)
	}
	return nil
}

// Shutdown requests a graceful worker shutdown. Transport failure is the
// expected outcome when the worker is already gone, so callers swallow
// any error from this call.
func (c *Client) Shutdown(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/shutdown", nil)
	if err != nil {
		return fmt.Errorf("create shutdown request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportErr(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeWorkerError(resp)
	}
	return nil
}

// decodeWorkerError turns a non-2xx response into an *ApplicationError,
// parsing the structured {error} body when present.
func decodeWorkerError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil {
		_ = json.Unmarshal(body, &payload)
	}

	if payload.Error == "" {
		payload.Error = fmt.Sprintf("worker returned HTTP %d", resp.StatusCode)
	}

	return &ApplicationError{Message: payload.Error, Status: resp.StatusCode}
}
