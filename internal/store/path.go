package store

import (
	"errors"
	"strings"
)

// ErrInvalidPath is returned for paths with empty segments.
var ErrInvalidPath = errors.New("invalid store path")

// Clean trims surrounding slashes. The root is the empty path.
func Clean(path string) string {
	return strings.Trim(strings.TrimSpace(path), "/")
}

// Segments splits a path into its keys.
func Segments(path string) ([]string, error) {
	path = Clean(path)
	if path == "" {
		return nil, nil
	}
	parts := strings.Split(path, "/")
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			return nil, ErrInvalidPath
		}
	}
	return parts, nil
}

// Join builds a path from keys. Keys are expected to be valid segments.
func Join(keys ...string) string {
	cleaned := make([]string, 0, len(keys))
	for _, key := range keys {
		if key = Clean(key); key != "" {
			cleaned = append(cleaned, key)
		}
	}
	return strings.Join(cleaned, "/")
}

// ValidSegment reports whether key can be used as one path element.
func ValidSegment(key string) bool {
	return strings.TrimSpace(key) != "" && !strings.Contains(key, "/")
}

// Related reports whether a change at one path can alter the snapshot at the other,
// i.e. one is an ancestor of, or equal to, the other.
func Related(a, b string) bool {
	a, b = Clean(a), Clean(b)
	if a == "" || b == "" || a == b {
		return true
	}
	return strings.HasPrefix(a, b+"/") || strings.HasPrefix(b, a+"/")
}
