package domain

import (
	"strings"
	"time"
)

type TrainingKey string

const (
	TrainingKeyAssistant  TrainingKey = "assistant"
	TrainingKeyKBAnalyzer TrainingKey = "kb_analyzer"
	TrainingKeyKBCreator  TrainingKey = "kb_creator"
	TrainingKeyKBExpert   TrainingKey = "kb_expert"
)

// TrainingKeys lists every artifact that must be fresh for an agent to skip
// retraining.
var TrainingKeys = []TrainingKey{
	TrainingKeyAssistant,
	TrainingKeyKBAnalyzer,
	TrainingKeyKBCreator,
	TrainingKeyKBExpert,
}

// TrainingTimestamps maps artifact keys to the raw timestamps reported by the
// knowledge-base endpoint.
type TrainingTimestamps map[TrainingKey]string

var trainingTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTrainingTime parses an ISO-8601 timestamp. Values without a zone are
// read as UTC.
func ParseTrainingTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	for _, layout := range trainingTimeLayouts {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			return parsed, true
		}
	}

	return time.Time{}, false
}

// StaleKeys returns every training key that is missing, unparsable, or at
// least maxAge old at now.
func (t TrainingTimestamps) StaleKeys(now time.Time, maxAge time.Duration) []TrainingKey {
	stale := make([]TrainingKey, 0, len(TrainingKeys))
	for _, key := range TrainingKeys {
		trainedAt, ok := ParseTrainingTime(t[key])
		if !ok || now.Sub(trainedAt) >= maxAge {
			stale = append(stale, key)
		}
	}

	return stale
}

func (t TrainingTimestamps) IsStale(now time.Time, maxAge time.Duration) bool {
	return len(t.StaleKeys(now, maxAge)) > 0
}

// TrainingTimestampsFromJSON keeps the string-valued training keys of a
// decoded response object; anything else counts as missing.
func TrainingTimestampsFromJSON(payload map[string]any) TrainingTimestamps {
	timestamps := make(TrainingTimestamps, len(TrainingKeys))
	for _, key := range TrainingKeys {
		if raw, ok := payload[string(key)].(string); ok {
			timestamps[key] = raw
		}
	}

	return timestamps
}

func TrainingKeyNames(keys []TrainingKey) []string {
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		names = append(names, string(key))
	}

	return names
}
