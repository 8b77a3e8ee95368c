package llm

import (
	"sync"
	"time"
)

// TokenUsage holds token usage stats for one model
type TokenUsage struct {
	TotalCalls   int       `json:"total_calls"`   // Total number of calls made
	InputTokens  int       `json:"input_tokens"`  // Total input tokens used
	OutputTokens int       `json:"output_tokens"` // Total output tokens used
	LastUsed     time.Time `json:"last_used"`     // Last time the model was used
}

type TokenTracker struct {
	lock  sync.RWMutex
	usage map[string]*TokenUsage // model -> usage
}

func NewTokenTracker() *TokenTracker {
	return &TokenTracker{usage: map[string]*TokenUsage{}}
}

// RecordTokenUsage records token usage for a model
func (t *TokenTracker) RecordTokenUsage(model string, inputTokens, outputTokens int) {
	t.lock.Lock()
	defer t.lock.Unlock()

	usage, ok := t.usage[model]
	if !ok {
		usage = &TokenUsage{}
		t.usage[model] = usage
	}

	usage.TotalCalls++
	usage.InputTokens += inputTokens
	usage.OutputTokens += outputTokens
	usage.LastUsed = time.Now()
}

// Snapshot returns a copy of usage for every model seen so far
func (t *TokenTracker) Snapshot() map[string]TokenUsage {
	t.lock.RLock()
	defer t.lock.RUnlock()

	out := make(map[string]TokenUsage, len(t.usage))
	for model, usage := range t.usage {
		out[model] = *usage
	}
	return out
}

// EstimateTokenCount gives a rough estimate of token count based on text length.
// Used when an endpoint doesn't report usage.
func EstimateTokenCount(text string) int {
	// Rough estimate: 1 token ≈ 4 characters in English
	return len(text) / 4
}
