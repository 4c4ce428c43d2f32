package stages

import (
	"strings"
)

// Probe reports whether a file name counts as the output of a stage.
type Probe func(name string) bool

// MatchSuffix matches names ending in any of the suffixes, ignoring case.
func MatchSuffix(suffixes ...string) Probe {
	normalized := make([]string, 0, len(suffixes))
	for _, suffix := range suffixes {
		if suffix = strings.ToLower(strings.TrimSpace(suffix)); suffix != "" {
			normalized = append(normalized, suffix)
		}
	}
	return func(name string) bool {
		lower := strings.ToLower(name)
		for _, suffix := range normalized {
			if strings.HasSuffix(lower, suffix) {
				return true
			}
		}
		return false
	}
}

// MatchAny matches every name.
func MatchAny() Probe {
	return func(string) bool { return true }
}
