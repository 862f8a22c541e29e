// Package util holds small path helpers shared across packages.
package util

import (
	"os"
	"strings"
)

// ExpandHome expands a leading ~/ to the user's home directory. The path is
// returned unchanged when it has no tilde prefix or the home directory is
// unknown.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	return home + path[1:]
}
