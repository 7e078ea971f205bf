package tts

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
)

// audioCacheSubdir is the fixed segment under the application cache root
// where the worker persists generated audio.
const audioCacheSubdir = "audio_cache"

// ContentCache is a read-through view over the worker's on-disk audio
// cache: one <key>.wav file per distinct derived key, presence of the
// file being the sole source of truth. This subsystem never writes into
// the cache; the worker persists audio as a side effect of generation
// and later lookups observe it.
type ContentCache struct {
	dir string
}

// CacheStats summarizes the on-disk cache contents.
type CacheStats struct {
	Entries    int
	TotalBytes int64
}

// NewContentCache resolves the audio cache directory and returns a cache
// handle. An empty dir selects the platform default shared with the
// worker. The directory is created if missing so first-run lookups do
// not error.
func NewContentCache(cfg CacheConfig) (*ContentCache, error) {
	dir := cfg.Dir
	if dir == "" {
		root, err := gap.NewScope(gap.User, appNamespace).CacheDir()
		if err != nil {
			return nil, fmt.Errorf("resolve cache root: %w", err)
		}
		dir = filepath.Join(root, audioCacheSubdir)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	log.Debug("audio cache ready", "dir", dir)
	return &ContentCache{dir: dir}, nil
}

// Dir returns the resolved audio cache directory.
func (c *ContentCache) Dir() string {
	return c.dir
}

// Path returns where the cache entry for text lives, whether or not it
// exists yet.
func (c *ContentCache) Path(text string) string {
	return filepath.Join(c.dir, DeriveKey(text)+".wav")
}

// Contains reports whether a cache entry exists for text.
func (c *ContentCache) Contains(text string) bool {
	_, err := os.Stat(c.Path(text))
	return err == nil
}

// Lookup returns the cached audio for text. A missing entry is a plain
// miss (nil, false, nil). A file that exists but cannot be read reports
// ErrCacheIO: callers must not treat corrupt or locked entries as misses.
func (c *ContentCache) Lookup(text string) ([]byte, bool, error) {
	path := c.Path(text)

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: stat %s: %w", ErrCacheIO, path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("%w: read %s: %w", ErrCacheIO, path, err)
	}

	log.Debug("cache hit", "path", path, "bytes", len(data))
	return data, true, nil
}

// Stats walks the cache directory and reports entry count and size.
func (c *ContentCache) Stats() (CacheStats, error) {
	var stats CacheStats

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return stats, fmt.Errorf("read cache directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".wav" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		stats.Entries++
		stats.TotalBytes += info.Size()
	}

	return stats, nil
}
