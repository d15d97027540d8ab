package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float(v float64) *float64 { return &v }

func TestResolveUsage(t *testing.T) {
	tests := []struct {
		name          string
		meta          *UsageMetadata
		wantTotal     int64
		wantEstimated bool
	}{
		{name: "no metadata", meta: nil, wantTotal: DefaultFallbackTokens, wantEstimated: true},
		{name: "total wins", meta: &UsageMetadata{PromptTokenCount: float(10), CandidatesTokenCount: float(5), TotalTokenCount: float(99.6)}, wantTotal: 100},
		{name: "sum when total missing", meta: &UsageMetadata{PromptTokenCount: float(10), CandidatesTokenCount: float(5)}, wantTotal: 15},
		{name: "sum when total is zero", meta: &UsageMetadata{PromptTokenCount: float(7), TotalTokenCount: float(0)}, wantTotal: 7},
		{name: "negative counts ignored", meta: &UsageMetadata{PromptTokenCount: float(-4), CandidatesTokenCount: float(3)}, wantTotal: 3},
		{name: "all zero falls back", meta: &UsageMetadata{PromptTokenCount: float(0), CandidatesTokenCount: float(0), TotalTokenCount: float(0)}, wantTotal: DefaultFallbackTokens, wantEstimated: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveUsage(tt.meta, 0)
			assert.Equal(t, tt.wantTotal, got.TotalTokenCount)
			assert.Equal(t, tt.wantEstimated, got.Estimated)
		})
	}
}

func TestResolveUsageCustomFallback(t *testing.T) {
	got := ResolveUsage(&UsageMetadata{}, 1_000)

	assert.Equal(t, int64(1_000), got.TotalTokenCount)
	assert.True(t, got.Estimated)
}

func TestResolveUsageKeepsRoundedParts(t *testing.T) {
	got := ResolveUsage(&UsageMetadata{PromptTokenCount: float(10.4), CandidatesTokenCount: float(2.5)}, 0)

	require.NotNil(t, got.PromptTokenCount)
	require.NotNil(t, got.CandidatesTokenCount)
	assert.Equal(t, int64(10), *got.PromptTokenCount)
	assert.Equal(t, int64(3), *got.CandidatesTokenCount)
	assert.Equal(t, int64(13), got.TotalTokenCount)
}

func TestExtractUsageMetadata(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantNil   bool
		wantTotal float64
	}{
		{name: "gemini camel case", body: `{"usageMetadata":{"totalTokenCount":42}}`, wantTotal: 42},
		{name: "snake case container", body: `{"usage_metadata":{"total_tokens":8}}`, wantTotal: 8},
		{name: "openai usage", body: `{"usage":{"prompt_tokens":1,"completion_tokens":2,"total_tokens":3}}`, wantTotal: 3},
		{name: "data envelope", body: `{"data":{"usage":{"totalTokens":11}}}`, wantTotal: 11},
		{name: "result envelope", body: `{"result":{"usageMetadata":{"totalTokenCount":5}}}`, wantTotal: 5},
		{name: "empty container ignored", body: `{"usage":{},"response":{"usage":{"total_tokens":9}}}`, wantTotal: 9},
		{name: "string counts ignored", body: `{"usage":{"total_tokens":"12"}}`, wantNil: true},
		{name: "no usage", body: `{"text":"done"}`, wantNil: true},
		{name: "not json", body: `done`, wantNil: true},
		{name: "array body", body: `[1]`, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := ExtractUsageMetadata([]byte(tt.body))
			if tt.wantNil {
				assert.Nil(t, meta)
				return
			}
			require.NotNil(t, meta)
			require.NotNil(t, meta.TotalTokenCount)
			assert.Equal(t, tt.wantTotal, *meta.TotalTokenCount)
		})
	}
}

func TestCompactNumberBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		value int64
		want  string
	}{
		{name: "below thousand", value: 999, want: "999"},
		{name: "thousand", value: 1_000, want: "1.0k"},
		{name: "fallback charge", value: DefaultFallbackTokens, want: "50.0k"},
		{name: "million", value: 1_000_000, want: "1.0M"},
		{name: "negative", value: -1_000, want: "-1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UsageRecord{TotalTokenCount: tt.value}.TotalCompact())
		})
	}
}
