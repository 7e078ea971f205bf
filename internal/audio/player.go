package audio

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// Player is the playback slot used by the speaker facade.
type Player interface {
	// Play starts playing a WAV clip, stopping any previous clip first.
	Play(data []byte) error
	// Stop halts the current clip, if any.
	Stop()
	// IsPlaying reports whether a clip is currently playing.
	IsPlaying() bool
	// Close releases playback resources.
	Close() error
}

// OtoPlayer plays WAV audio through the system device via oto. The oto
// context is created lazily from the first clip's format and reused for
// the process lifetime, matching how the worker emits a single fixed
// format.
type OtoPlayer struct {
	volume float64

	mu      sync.Mutex
	context *oto.Context
	current *oto.Player
}

// NewOtoPlayer creates a player with the given volume (0.0 to 2.0).
func NewOtoPlayer(volume float64) *OtoPlayer {
	if volume <= 0 {
		volume = 1.0
	}
	return &OtoPlayer{volume: volume}
}

// Play parses the WAV clip and starts playback, replacing whatever was
// playing before.
func (p *OtoPlayer) Play(data []byte) error {
	info, err := parseWAV(data)
	if err != nil {
		return fmt.Errorf("parse audio: %w", err)
	}
	if info.bitsPerSample != 16 {
		return fmt.Errorf("unsupported sample width: %d bits", info.bitsPerSample)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureContext(info); err != nil {
		return err
	}

	// Single playback slot: the previous clip is discarded regardless of
	// whether it finished.
	if p.current != nil {
		_ = p.current.Close()
		p.current = nil
	}

	player := p.context.NewPlayer(bytes.NewReader(info.data))
	player.SetVolume(p.volume)
	player.Play()
	p.current = player

	log.Debug("playback started",
		"bytes", len(info.data),
		"sampleRate", info.sampleRate,
		"channels", info.channels)
	return nil
}

// ensureContext lazily creates the oto context. Lock must be held.
func (p *OtoPlayer) ensureContext(info wavInfo) error {
	if p.context != nil {
		return nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   info.sampleRate,
		ChannelCount: info.channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return fmt.Errorf("create audio context: %w", err)
	}

	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		return fmt.Errorf("audio context initialization timeout")
	}

	p.context = ctx
	return nil
}

// Stop halts the current clip, if any.
func (p *OtoPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil {
		_ = p.current.Close()
		p.current = nil
	}
}

// IsPlaying reports whether a clip is currently playing.
func (p *OtoPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil && p.current.IsPlaying()
}

// Close stops playback. The oto context itself has no close operation
// and is reclaimed with the process.
func (p *OtoPlayer) Close() error {
	p.Stop()
	return nil
}
