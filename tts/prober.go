package tts

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// Prober decides whether the worker is answering health checks. Probing
// is strictly sequential: the next probe is not issued until the previous
// one resolves or times out, which bounds the load on a worker that is
// still loading its model.
type Prober struct {
	client   *Client
	interval time.Duration
}

// NewProber creates a prober that spaces retries cfg.ProbeInterval apart.
// Each individual probe carries the client's own short timeout, so one
// slow probe cannot consume the whole startup window.
func NewProber(client *Client, cfg WorkerConfig) *Prober {
	return &Prober{client: client, interval: cfg.ProbeInterval}
}

// Probe performs a single health check. True means the worker answered
// with a semantic ready status, not merely an HTTP 200.
func (p *Prober) Probe(ctx context.Context) bool {
	status, ok := p.client.Health(ctx)
	return ok && status.Ready()
}

// WaitUntilReady probes up to maxAttempts times, sleeping the configured
// interval between failures. It reports success as a boolean and never
// returns an error: exhaustion and cancellation are both "not ready".
func (p *Prober) WaitUntilReady(ctx context.Context, maxAttempts int) bool {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if p.Probe(ctx) {
			log.Debug("worker ready", "attempt", attempt)
			return true
		}

		if attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(p.interval):
		}
	}

	log.Debug("readiness probing exhausted", "attempts", maxAttempts)
	return false
}
