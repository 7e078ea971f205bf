package tts

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if got := cfg.Worker.BaseURL(); got != "http://127.0.0.1:5123" {
		t.Errorf("BaseURL = %q, want http://127.0.0.1:5123", got)
	}
	if !cfg.Playback.Enabled {
		t.Error("playback disabled by default")
	}
	if cfg.Cache.MemoryCapacity <= 0 {
		t.Errorf("MemoryCapacity = %d, want bounded positive default", cfg.Cache.MemoryCapacity)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("TTSD_WORKER_PORT", "7001")
	t.Setenv("TTSD_WORKER_PYTHON", "/usr/local/bin/python3.12")
	t.Setenv("TTSD_PROBE_INTERVAL", "250ms")
	t.Setenv("TTSD_PLAYBACK_ENABLED", "false")
	t.Setenv("TTSD_DEBUG", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Worker.Port != 7001 {
		t.Errorf("Port = %d, want 7001", cfg.Worker.Port)
	}
	if cfg.Worker.Python != "/usr/local/bin/python3.12" {
		t.Errorf("Python = %q", cfg.Worker.Python)
	}
	if cfg.Worker.ProbeInterval != 250*time.Millisecond {
		t.Errorf("ProbeInterval = %v, want 250ms", cfg.Worker.ProbeInterval)
	}
	if cfg.Playback.Enabled {
		t.Error("playback still enabled despite env override")
	}
	if !cfg.Debug {
		t.Error("debug not enabled despite env override")
	}
}

func TestLoadConfigRejectsInvalidEnv(t *testing.T) {
	t.Setenv("TTSD_WORKER_PORT", "99999")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig accepted an out-of-range port")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "port too low",
			mutate:  func(c *Config) { c.Worker.Port = 0 },
			wantErr: "port",
		},
		{
			name:    "empty interpreter",
			mutate:  func(c *Config) { c.Worker.Python = "" },
			wantErr: "python",
		},
		{
			name:    "zero startup attempts",
			mutate:  func(c *Config) { c.Worker.StartupAttempts = 0 },
			wantErr: "startup_attempts",
		},
		{
			name:    "probe interval too small",
			mutate:  func(c *Config) { c.Worker.ProbeInterval = time.Millisecond },
			wantErr: "probe_interval",
		},
		{
			name:    "request timeout too small",
			mutate:  func(c *Config) { c.Worker.RequestTimeout = 100 * time.Millisecond },
			wantErr: "request_timeout",
		},
		{
			name:    "negative memory capacity",
			mutate:  func(c *Config) { c.Cache.MemoryCapacity = -1 },
			wantErr: "memory_capacity",
		},
		{
			name:    "volume out of range",
			mutate:  func(c *Config) { c.Playback.Volume = 3.5 },
			wantErr: "volume",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate accepted an invalid config")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
