package tts

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// appNamespace is the application directory under the platform cache
// root. It must match the namespace the worker writes generated audio
// into, or cache lookups would never observe the worker's output.
const appNamespace = "EnglishLearningApp"

// Config contains all supervisor, client and cache configuration.
type Config struct {
	Worker   WorkerConfig   `yaml:"worker"`
	Cache    CacheConfig    `yaml:"cache"`
	Playback PlaybackConfig `yaml:"playback"`

	Debug bool `yaml:"debug" env:"TTSD_DEBUG" envDefault:"false"`
}

// WorkerConfig controls how the synthesis worker is located, spawned and
// probed.
type WorkerConfig struct {
	// Host and Port form the loopback address the worker listens on.
	Host string `yaml:"host" env:"TTSD_WORKER_HOST" envDefault:"127.0.0.1"`
	Port int    `yaml:"port" env:"TTSD_WORKER_PORT" envDefault:"5123"`

	// Script is an explicit path to the worker script. When empty the
	// supervisor resolves it relative to the working tree in development
	// or ResourcesDir in a packaged deployment.
	Script       string `yaml:"script" env:"TTSD_WORKER_SCRIPT"`
	ResourcesDir string `yaml:"resources_dir" env:"TTSD_RESOURCES_DIR"`

	// Python selects the interpreter used to run the worker script.
	Python string `yaml:"python" env:"TTSD_WORKER_PYTHON" envDefault:"python3"`

	// Preload asks the worker to load its model eagerly on startup.
	Preload bool `yaml:"preload" env:"TTSD_WORKER_PRELOAD" envDefault:"false"`

	// Readiness probing: StartupAttempts probes spaced ProbeInterval
	// apart, each with its own ProbeTimeout.
	StartupAttempts int           `yaml:"startup_attempts" env:"TTSD_STARTUP_ATTEMPTS" envDefault:"60"`
	ProbeInterval   time.Duration `yaml:"probe_interval" env:"TTSD_PROBE_INTERVAL" envDefault:"1s"`
	ProbeTimeout    time.Duration `yaml:"probe_timeout" env:"TTSD_PROBE_TIMEOUT" envDefault:"2s"`

	// RequestTimeout bounds a single synthesis call. Generation on CPU
	// can be slow, so this is generous.
	RequestTimeout time.Duration `yaml:"request_timeout" env:"TTSD_REQUEST_TIMEOUT" envDefault:"120s"`

	// StopGrace is how long Stop waits for the process to exit after a
	// graceful shutdown request before killing it.
	StopGrace time.Duration `yaml:"stop_grace" env:"TTSD_STOP_GRACE" envDefault:"2s"`
}

// CacheConfig controls the on-disk content cache and the in-memory cache
// carried by the Speaker facade.
type CacheConfig struct {
	// Dir overrides the platform default audio cache directory.
	Dir string `yaml:"dir" env:"TTSD_CACHE_DIR"`

	// MemoryCapacity bounds the facade's in-memory audio cache in bytes.
	MemoryCapacity int64 `yaml:"memory_capacity" env:"TTSD_MEMORY_CAPACITY" envDefault:"33554432"`
}

// PlaybackConfig controls local audio playback.
type PlaybackConfig struct {
	Enabled bool    `yaml:"enabled" env:"TTSD_PLAYBACK_ENABLED" envDefault:"true"`
	Volume  float64 `yaml:"volume" env:"TTSD_PLAYBACK_VOLUME" envDefault:"1.0"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Worker: WorkerConfig{
			Host:            "127.0.0.1",
			Port:            5123,
			Python:          "python3",
			StartupAttempts: 60,
			ProbeInterval:   time.Second,
			ProbeTimeout:    2 * time.Second,
			RequestTimeout:  120 * time.Second,
			StopGrace:       2 * time.Second,
		},
		Cache: CacheConfig{
			MemoryCapacity: 32 << 20,
		},
		Playback: PlaybackConfig{
			Enabled: true,
			Volume:  1.0,
		},
	}
}

// LoadConfig applies environment overrides on top of the defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// BaseURL returns the worker's loopback endpoint.
func (c *WorkerConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Worker.Port < 1 || c.Worker.Port > 65535 {
		return fmt.Errorf("worker port must be between 1 and 65535, got %d", c.Worker.Port)
	}
	if c.Worker.Python == "" {
		return fmt.Errorf("worker python interpreter cannot be empty")
	}
	if c.Worker.StartupAttempts < 1 {
		return fmt.Errorf("startup_attempts must be at least 1, got %d", c.Worker.StartupAttempts)
	}
	if c.Worker.ProbeInterval < 100*time.Millisecond {
		return fmt.Errorf("probe_interval must be at least 100ms, got %v", c.Worker.ProbeInterval)
	}
	if c.Worker.ProbeTimeout < 100*time.Millisecond {
		return fmt.Errorf("probe_timeout must be at least 100ms, got %v", c.Worker.ProbeTimeout)
	}
	if c.Worker.RequestTimeout < time.Second {
		return fmt.Errorf("request_timeout must be at least 1 second, got %v", c.Worker.RequestTimeout)
	}
	if c.Cache.MemoryCapacity < 0 {
		return fmt.Errorf("memory_capacity cannot be negative, got %d", c.Cache.MemoryCapacity)
	}
	if c.Playback.Volume < 0.0 || c.Playback.Volume > 2.0 {
		return fmt.Errorf("playback volume must be between 0.0 and 2.0, got %f", c.Playback.Volume)
	}
	return nil
}
