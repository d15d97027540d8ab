package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaleKeysBoundaryIsInclusive(t *testing.T) {
	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	maxAge := 500 * time.Minute

	timestamps := TrainingTimestamps{
		TrainingKeyAssistant:  now.Add(-maxAge).Format(time.RFC3339),
		TrainingKeyKBAnalyzer: now.Add(-maxAge + time.Second).Format(time.RFC3339),
		TrainingKeyKBCreator:  now.Add(-time.Minute).Format(time.RFC3339),
		TrainingKeyKBExpert:   now.Format(time.RFC3339),
	}

	assert.Equal(t, []TrainingKey{TrainingKeyAssistant}, timestamps.StaleKeys(now, maxAge))
	assert.True(t, timestamps.IsStale(now, maxAge))
}

func TestStaleKeysBoundaryAtMillisecondPrecision(t *testing.T) {
	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	maxAge := 500 * time.Minute

	exactlyAtThreshold := TrainingTimestamps{}
	justInside := TrainingTimestamps{}
	for _, key := range TrainingKeys {
		exactlyAtThreshold[key] = now.Add(-maxAge).Format(time.RFC3339Nano)
		justInside[key] = now.Add(-maxAge + time.Millisecond).Format(time.RFC3339Nano)
	}

	assert.True(t, exactlyAtThreshold.IsStale(now, maxAge))
	assert.Equal(t, TrainingKeys, exactlyAtThreshold.StaleKeys(now, maxAge))
	assert.False(t, justInside.IsStale(now, maxAge))
	assert.Empty(t, justInside.StaleKeys(now, maxAge))
}

func TestStaleKeysTreatsMissingAndUnparsableAsStale(t *testing.T) {
	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)

	timestamps := TrainingTimestamps{
		TrainingKeyAssistant:  now.Format(time.RFC3339),
		TrainingKeyKBAnalyzer: "yesterday-ish",
		TrainingKeyKBCreator:  "",
	}

	assert.Equal(t,
		[]TrainingKey{TrainingKeyKBAnalyzer, TrainingKeyKBCreator, TrainingKeyKBExpert},
		timestamps.StaleKeys(now, time.Hour),
	)
}

func TestFreshTimestampsAreNotStale(t *testing.T) {
	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	timestamps := TrainingTimestamps{}
	for _, key := range TrainingKeys {
		timestamps[key] = now.Add(-time.Minute).Format(time.RFC3339Nano)
	}

	assert.Empty(t, timestamps.StaleKeys(now, time.Hour))
	assert.False(t, timestamps.IsStale(now, time.Hour))
}

func TestParseTrainingTime(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
		ok   bool
	}{
		{name: "rfc3339 utc", raw: "2026-02-14T10:30:00Z", want: time.Date(2026, 2, 14, 10, 30, 0, 0, time.UTC), ok: true},
		{name: "fractional seconds", raw: "2026-02-14T10:30:00.250Z", want: time.Date(2026, 2, 14, 10, 30, 0, 250_000_000, time.UTC), ok: true},
		{name: "offset", raw: "2026-02-14T12:30:00+02:00", want: time.Date(2026, 2, 14, 10, 30, 0, 0, time.UTC), ok: true},
		{name: "no zone reads as utc", raw: "2026-02-14T10:30:00", want: time.Date(2026, 2, 14, 10, 30, 0, 0, time.UTC), ok: true},
		{name: "date only", raw: "2026-02-14", want: time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC), ok: true},
		{name: "surrounding space", raw: "  2026-02-14T10:30:00Z ", want: time.Date(2026, 2, 14, 10, 30, 0, 0, time.UTC), ok: true},
		{name: "empty", raw: ""},
		{name: "garbage", raw: "not a time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTrainingTime(tt.raw)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
			}
		})
	}
}

func TestTrainingTimestampsFromJSONKeepsOnlyStrings(t *testing.T) {
	payload := map[string]any{
		"assistant":   "2026-02-14T10:30:00Z",
		"kb_analyzer": 12345.0,
		"kb_creator":  nil,
		"unrelated":   "2026-02-14T10:30:00Z",
	}

	got := TrainingTimestampsFromJSON(payload)

	assert.Equal(t, TrainingTimestamps{TrainingKeyAssistant: "2026-02-14T10:30:00Z"}, got)
}
