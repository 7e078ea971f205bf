// Package utils provides small helpers shared by the CLI.
package utils

import (
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// ExpandPath expands a leading ~ to the user's home directory and cleans
// the result. Paths that cannot be expanded are returned unchanged.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		expanded, err := homedir.Expand(path)
		if err == nil {
			return filepath.Clean(expanded)
		}
	}
	return filepath.Clean(path)
}
