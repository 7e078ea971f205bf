package audio

import "sync"

// MockPlayer is a Player for tests and audio-less environments. It
// records every clip it was asked to play and how often the previous
// clip was replaced mid-flight.
type MockPlayer struct {
	mu       sync.Mutex
	playing  bool
	plays    [][]byte
	stops    int
	replaced int

	// FailNext makes the next Play call return this error once.
	FailNext error
}

// NewMockPlayer creates an idle mock player.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{}
}

// Play records the clip and marks the player as playing.
func (m *MockPlayer) Play(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailNext != nil {
		err := m.FailNext
		m.FailNext = nil
		return err
	}

	if m.playing {
		m.replaced++
	}
	clip := make([]byte, len(data))
	copy(clip, data)
	m.plays = append(m.plays, clip)
	m.playing = true
	return nil
}

// Stop marks the player as idle.
func (m *MockPlayer) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.playing {
		m.stops++
		m.playing = false
	}
}

// IsPlaying reports whether a clip is "playing".
func (m *MockPlayer) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// Close stops playback.
func (m *MockPlayer) Close() error {
	m.Stop()
	return nil
}

// Plays returns the recorded clips in play order.
func (m *MockPlayer) Plays() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.plays...)
}

// Replaced returns how many times Play interrupted a previous clip.
func (m *MockPlayer) Replaced() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replaced
}
