package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinEndpoint(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{base: "https://kb.example.com/api/", path: "/kb/x", want: "https://kb.example.com/api/kb/x"},
		{base: "https://kb.example.com", path: "kb", want: "https://kb.example.com/kb"},
		{base: "https://kb.example.com//", path: "", want: "https://kb.example.com"},
		{base: "", path: "/kb", want: "kb"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, JoinEndpoint(tt.base, tt.path), "JoinEndpoint(%q, %q)", tt.base, tt.path)
	}
}

func TestTrainingTimestampsURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		want string
	}{
		{name: "plain base", base: "https://kb.example.com/api", want: "https://kb.example.com/api/kb/last-taining-timestamps"},
		{name: "base ends in kb", base: "https://kb.example.com/api/kb/", want: "https://kb.example.com/api/kb/last-taining-timestamps"},
		{name: "kb lookalike segment", base: "https://kb.example.com/mykb", want: "https://kb.example.com/mykb/kb/last-taining-timestamps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrainingTimestampsURL(tt.base))
		})
	}
}
