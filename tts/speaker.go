package tts

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/lexibox/ttsd/internal/audio"
	"github.com/lexibox/ttsd/internal/cache"
)

// Speaker is the consumer-facing entry point. It resolves cache hits
// before anything else, carries a bounded in-memory cache in front of
// the disk cache, and owns the single playback slot. It never starts the
// worker implicitly: when no cached audio exists and the worker is not
// known to be available, Speak fails soft and the caller must opt in via
// Initialize.
type Speaker struct {
	cfg     Config
	content *ContentCache
	memory  *cache.Memory
	client  *Client
	sup     *Supervisor
	player  audio.Player

	mu        sync.Mutex
	checked   bool
	available bool
	health    HealthStatus
	initTok   *startToken
}

// NewSpeaker wires a facade over an already constructed supervisor,
// client and content cache.
func NewSpeaker(cfg Config, sup *Supervisor, client *Client, content *ContentCache, player audio.Player) *Speaker {
	return &Speaker{
		cfg:     cfg,
		content: content,
		memory:  cache.NewMemory(cfg.Cache.MemoryCapacity),
		client:  client,
		sup:     sup,
		player:  player,
	}
}

// Speak resolves audio for text and plays it. The bool result reports
// whether anything was spoken: (false, nil) means synthesis was
// unavailable and no cache entry existed, which is not an error.
// Cache read failures, worker application errors and transport failures
// all propagate; they are never converted into a silent "not spoken".
func (s *Speaker) Speak(ctx context.Context, text string) (bool, error) {
	if data, ok := s.memory.Get(text); ok {
		return true, s.play(data)
	}

	data, ok, err := s.content.Lookup(text)
	if err != nil {
		return false, err
	}
	if ok {
		s.remember(text, data)
		return true, s.play(data)
	}

	if !s.workerAvailable(ctx) {
		log.Debug("synthesis unavailable, nothing cached", "key", DeriveKey(text))
		return false, nil
	}

	data, err = s.client.Synthesize(ctx, text)
	if err != nil {
		if errors.Is(err, ErrTransport) {
			s.markUnavailable()
		}
		return false, err
	}

	s.remember(text, data)
	return true, s.play(data)
}

// Initialize starts the worker and warms it up. Concurrent callers
// coalesce onto one underlying attempt and observe the same outcome,
// matching the supervisor's own start guarantee.
func (s *Speaker) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if tok := s.initTok; tok != nil {
		s.mu.Unlock()
		return awaitToken(ctx, tok)
	}
	tok := newStartToken()
	s.initTok = tok
	s.mu.Unlock()

	go func() {
		err := s.sup.Start(context.Background())

		var health HealthStatus
		if err == nil {
			if s.cfg.Worker.Preload {
				if perr := s.client.Preload(context.Background()); perr != nil {
					log.Warn("model preload failed", "error", perr)
				}
			}
			health, _ = s.client.Health(context.Background())
		}

		s.mu.Lock()
		s.initTok = nil
		if err == nil {
			s.checked = true
			s.available = true
			s.health = health
		}
		s.mu.Unlock()

		tok.resolve(err)
	}()

	return awaitToken(ctx, tok)
}

// Preload asks a running worker to load its model.
func (s *Speaker) Preload(ctx context.Context) error {
	err := s.client.Preload(ctx)
	if err != nil && errors.Is(err, ErrTransport) {
		s.markUnavailable()
	}
	return err
}

// Available reports the cached availability status, probing the worker
// once on first use rather than on every call.
func (s *Speaker) Available(ctx context.Context) bool {
	return s.workerAvailable(ctx)
}

// Health returns the last known health snapshot, fetching one if none is
// cached. The snapshot is advisory and may be stale.
func (s *Speaker) Health(ctx context.Context) (HealthStatus, bool) {
	s.mu.Lock()
	if s.checked && s.available {
		health := s.health
		s.mu.Unlock()
		return health, true
	}
	s.mu.Unlock()

	status, ok := s.client.Health(ctx)

	s.mu.Lock()
	s.checked = true
	s.available = ok && status.Ready()
	if ok {
		s.health = status
	}
	s.mu.Unlock()

	return status, ok
}

// Playing reports whether the playback slot is currently occupied.
func (s *Speaker) Playing() bool {
	return s.player.IsPlaying()
}

// ClearCache drops the in-memory audio cache. The disk cache is shared
// with the worker and left untouched.
func (s *Speaker) ClearCache() {
	s.memory.Clear()
}

// Shutdown stops playback and the supervised worker.
func (s *Speaker) Shutdown(ctx context.Context) {
	s.player.Stop()
	s.sup.Stop(ctx)
	s.markUnavailable()
}

// workerAvailable returns the cached availability, fetching it lazily on
// first use. A ready supervisor short-circuits the probe.
func (s *Speaker) workerAvailable(ctx context.Context) bool {
	if s.sup.Ready() {
		return true
	}

	s.mu.Lock()
	if s.checked {
		available := s.available
		s.mu.Unlock()
		return available
	}
	s.mu.Unlock()

	status, ok := s.Health(ctx)
	return ok && status.Ready()
}

// markUnavailable invalidates the cached availability after a transport
// failure so the next Speak re-checks instead of trusting a dead worker.
func (s *Speaker) markUnavailable() {
	s.mu.Lock()
	s.checked = true
	s.available = false
	s.mu.Unlock()
}

// remember stores audio in the bounded in-memory cache, keyed by the
// exact input text.
func (s *Speaker) remember(text string, data []byte) {
	if err := s.memory.Put(text, data); err != nil {
		log.Debug("audio not memory-cached", "error", err, "bytes", len(data))
	}
}

// play sends audio to the single playback slot when playback is enabled.
func (s *Speaker) play(data []byte) error {
	if !s.cfg.Playback.Enabled {
		return nil
	}
	return s.player.Play(data)
}
