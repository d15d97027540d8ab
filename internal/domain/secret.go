package domain

import (
	"fmt"
	"strings"
)

// SecretStoragePath maps a secret reference such as
// kbtrain://agents/a/kb_key/1 to the relative path kbtrain/agents/a/kb_key/1
// used by path-based secret backends.
func SecretStoragePath(ref string) string {
	trimmed := strings.TrimSpace(ref)
	if scheme, rest, ok := strings.Cut(trimmed, "://"); ok && scheme != "" {
		return scheme + "/" + strings.TrimLeft(rest, "/")
	}

	return trimmed
}

// SecretPathSegments splits ref into the path segments a backend stores it
// under. References that are empty, absolute, or that climb out of the
// backend root are rejected.
func SecretPathSegments(ref string) ([]string, error) {
	path := SecretStoragePath(ref)
	if path == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrInvalidSecretRef)
	}
	if strings.HasPrefix(path, "/") || strings.Contains(path, `\`) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSecretRef, ref)
	}

	var segments []string
	for _, segment := range strings.Split(path, "/") {
		switch segment {
		case "":
			continue
		case ".", "..":
			return nil, fmt.Errorf("%w: %q", ErrInvalidSecretRef, ref)
		}
		segments = append(segments, segment)
	}

	return segments, nil
}
