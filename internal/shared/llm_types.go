// Package shared holds the usage bookkeeping passed from LLM providers to the metrics store.
package shared

import "time"

// TokenUsage is what a provider reports for one call.
type TokenUsage struct {
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Sum returns TotalTokens, or prompt plus completion when the provider left it out.
func (u TokenUsage) Sum() int {
	if u.TotalTokens > 0 {
		return u.TotalTokens
	}
	return u.PromptTokens + u.CompletionTokens
}

// AgentMeta describes one recipe-extraction call.
type AgentMeta struct {
	AgentName string
	Usage     TokenUsage
	Latency   time.Duration
}

// Billable reports whether the call consumed any tokens.
func (m AgentMeta) Billable() bool {
	return m.Usage.Sum() > 0
}
