package ingest

import (
	"path/filepath"
	"strings"
)

// DefaultExts are the URL list extensions the inbox picks up.
var DefaultExts = map[string]struct{}{
	"txt":  {},
	"urls": {},
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

func allowed(path string, exts map[string]struct{}) bool {
	if IsHidden(path) {
		return false
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	_, ok := exts[ext]
	return ok
}
