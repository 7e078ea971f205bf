package tts

import (
	"fmt"
	"os"
	"path/filepath"
)

// workerScriptName is the synthesis worker's entry point.
const workerScriptName = "tts_server.py"

// devScriptDirs are working-tree locations checked during development,
// relative to the current directory.
var devScriptDirs = []string{
	"python",
	filepath.Join("..", "python"),
	".",
}

// ResolveWorkerScript locates the worker script artifact. An explicit
// path from config wins; a packaged deployment looks under the bundled
// resources dir; otherwise the development working tree is searched.
// The returned error means the script artifact cannot be located and a
// spawn attempt is pointless.
func ResolveWorkerScript(cfg WorkerConfig) (string, error) {
	if cfg.Script != "" {
		if _, err := os.Stat(cfg.Script); err != nil {
			return "", fmt.Errorf("configured worker script %s: %w", cfg.Script, err)
		}
		return cfg.Script, nil
	}

	if cfg.ResourcesDir != "" {
		path := filepath.Join(cfg.ResourcesDir, workerScriptName)
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("bundled worker script %s: %w", path, err)
		}
		return path, nil
	}

	for _, dir := range devScriptDirs {
		path := filepath.Join(dir, workerScriptName)
		if _, err := os.Stat(path); err == nil {
			abs, err := filepath.Abs(path)
			if err != nil {
				return path, nil
			}
			return abs, nil
		}
	}

	return "", fmt.Errorf("worker script %s not found in working tree", workerScriptName)
}
