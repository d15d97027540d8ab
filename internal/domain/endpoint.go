package domain

import "strings"

const (
	kbSegment              = "kb"
	trainingTimestampsPath = "last-taining-timestamps"
)

// JoinEndpoint joins base and path with exactly one slash.
func JoinEndpoint(base, path string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	path = strings.TrimLeft(strings.TrimSpace(path), "/")

	switch {
	case base == "":
		return path
	case path == "":
		return base
	default:
		return base + "/" + path
	}
}

// KBResourceURL resolves a knowledge-base resource against an agent's
// configured base. Bases that already point at the kb segment get the
// resource appended directly; all others get kb/<resource>.
func KBResourceURL(base, resource string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(base), "/")
	if trimmed == kbSegment || strings.HasSuffix(trimmed, "/"+kbSegment) {
		return JoinEndpoint(trimmed, resource)
	}

	return JoinEndpoint(trimmed, kbSegment+"/"+strings.TrimLeft(resource, "/"))
}

func TrainingTimestampsURL(base string) string {
	return KBResourceURL(base, trainingTimestampsPath)
}
