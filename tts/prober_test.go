package tts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestProberProbe(t *testing.T) {
	t.Run("ready worker", func(t *testing.T) {
		srv := httptest.NewServer(healthHandler("ok"))
		defer srv.Close()

		cfg := workerConfigForURL(t, srv.URL)
		prober := NewProber(NewClient(cfg), cfg)
		if !prober.Probe(context.Background()) {
			t.Error("Probe false against a ready worker")
		}
	})

	t.Run("reachable but not ready", func(t *testing.T) {
		srv := httptest.NewServer(healthHandler("loading"))
		defer srv.Close()

		cfg := workerConfigForURL(t, srv.URL)
		prober := NewProber(NewClient(cfg), cfg)
		if prober.Probe(context.Background()) {
			t.Error("Probe true for a worker still loading")
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		cfg := unreachableWorkerConfig(t)
		prober := NewProber(NewClient(cfg), cfg)
		if prober.Probe(context.Background()) {
			t.Error("Probe true against nothing")
		}
	})
}

func TestProberWaitUntilReady(t *testing.T) {
	t.Run("worker becomes ready mid-probing", func(t *testing.T) {
		var calls atomic.Int64
		ready := healthHandler("ok")
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			ready(w, r)
		}))
		defer srv.Close()

		cfg := workerConfigForURL(t, srv.URL)
		prober := NewProber(NewClient(cfg), cfg)
		if !prober.WaitUntilReady(context.Background(), 10) {
			t.Fatal("WaitUntilReady gave up on a worker that became ready")
		}
		if got := calls.Load(); got != 3 {
			t.Errorf("worker probed %d times, want 3", got)
		}
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		var calls atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		cfg := workerConfigForURL(t, srv.URL)
		prober := NewProber(NewClient(cfg), cfg)
		if prober.WaitUntilReady(context.Background(), 4) {
			t.Fatal("WaitUntilReady succeeded against a worker that never readied")
		}
		if got := calls.Load(); got != 4 {
			t.Errorf("worker probed %d times, want 4", got)
		}
	})

	t.Run("cancellation stops probing", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		cfg := workerConfigForURL(t, srv.URL)
		prober := NewProber(NewClient(cfg), cfg)
		if prober.WaitUntilReady(ctx, 100) {
			t.Error("WaitUntilReady succeeded under a cancelled context")
		}
	})
}
