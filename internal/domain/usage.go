package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// DefaultFallbackTokens is charged when a training response carries no usable
// usage metadata.
const DefaultFallbackTokens int64 = 50_000

// UsageRecord is what gets charged to the wallet for one training dispatch.
type UsageRecord struct {
	AgentID              AgentID `json:"agentId,omitempty"`
	PromptTokenCount     *int64  `json:"promptTokenCount,omitempty"`
	CandidatesTokenCount *int64  `json:"candidatesTokenCount,omitempty"`
	TotalTokenCount      int64   `json:"totalTokenCount"`
	Estimated            bool    `json:"estimated,omitempty"`
}

func (u UsageRecord) TotalCompact() string {
	return compactNumber(u.TotalTokenCount)
}

// UsageMetadata is the raw token accounting found in a chat response. Nil
// fields were absent.
type UsageMetadata struct {
	PromptTokenCount     *float64
	CandidatesTokenCount *float64
	TotalTokenCount      *float64
}

// ResolveUsage turns response metadata into a chargeable record: a positive
// total wins, then a positive prompt+candidates sum, then fallback.
func ResolveUsage(meta *UsageMetadata, fallback int64) UsageRecord {
	if fallback <= 0 {
		fallback = DefaultFallbackTokens
	}
	if meta == nil {
		return UsageRecord{TotalTokenCount: fallback, Estimated: true}
	}

	record := UsageRecord{
		PromptTokenCount:     roundedCount(meta.PromptTokenCount),
		CandidatesTokenCount: roundedCount(meta.CandidatesTokenCount),
	}

	total := positive(meta.TotalTokenCount)
	prompt := positive(meta.PromptTokenCount)
	candidates := positive(meta.CandidatesTokenCount)

	switch {
	case total > 0:
		record.TotalTokenCount = int64(math.Round(total))
	case prompt > 0 || candidates > 0:
		record.TotalTokenCount = int64(math.Round(prompt + candidates))
	default:
		record.TotalTokenCount = fallback
		record.Estimated = true
	}

	return record
}

var usageContainers = []string{"usageMetadata", "usage_metadata", "usage"}
var usageEnvelopes = []string{"response", "data", "result"}

var (
	promptTokenFields     = []string{"promptTokenCount", "prompt_tokens", "input_tokens", "inputTokens"}
	candidatesTokenFields = []string{"candidatesTokenCount", "completion_tokens", "output_tokens", "outputTokens"}
	totalTokenFields      = []string{"totalTokenCount", "total_tokens", "totalTokens"}
)

// ExtractUsageMetadata finds token usage in a chat response body. Both the
// camelCase Gemini shape and the snake_case OpenAI shape are recognised, at
// the top level or under a response/data/result envelope. Bodies that are not
// JSON objects yield nil.
func ExtractUsageMetadata(body []byte) *UsageMetadata {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}

	if meta := usageFromObject(payload); meta != nil {
		return meta
	}
	for _, envelope := range usageEnvelopes {
		if nested, ok := payload[envelope].(map[string]any); ok {
			if meta := usageFromObject(nested); meta != nil {
				return meta
			}
		}
	}

	return nil
}

func usageFromObject(object map[string]any) *UsageMetadata {
	for _, name := range usageContainers {
		container, ok := object[name].(map[string]any)
		if !ok {
			continue
		}

		meta := &UsageMetadata{
			PromptTokenCount:     firstNumber(container, promptTokenFields),
			CandidatesTokenCount: firstNumber(container, candidatesTokenFields),
			TotalTokenCount:      firstNumber(container, totalTokenFields),
		}
		if meta.PromptTokenCount == nil && meta.CandidatesTokenCount == nil && meta.TotalTokenCount == nil {
			continue
		}

		return meta
	}

	return nil
}

func firstNumber(object map[string]any, fields []string) *float64 {
	for _, field := range fields {
		if value, ok := object[field].(float64); ok && !math.IsNaN(value) && !math.IsInf(value, 0) {
			return &value
		}
	}

	return nil
}

func positive(value *float64) float64 {
	if value == nil || *value <= 0 {
		return 0
	}

	return *value
}

func roundedCount(value *float64) *int64 {
	if value == nil {
		return nil
	}

	rounded := int64(math.Round(*value))
	return &rounded
}

func compactNumber(v int64) string {
	if v < 1_000 {
		return fmt.Sprintf("%d", v)
	}

	if v < 1_000_000 {
		return fmt.Sprintf("%.1fk", float64(v)/1_000)
	}

	return fmt.Sprintf("%.1fM", float64(v)/1_000_000)
}
