// Package shared holds the small types several packages exchange: model
// usage accounting and enum parsing.
package shared

import (
	"time"
)

// Agent names under which model calls are recorded in the usage ledger.
const (
	AgentAdvisor = "tree_advisor"
	AgentClipper = "catalog_clipper"
)

// TokenUsage is what one model call consumed. Cache hits report zero usage.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// IsZero reports whether the call consumed nothing, as on a cache hit.
func (u TokenUsage) IsZero() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0
}

// Total is TotalTokens when the provider reported it, else prompt plus completion.
func (u TokenUsage) Total() int {
	if u.TotalTokens > 0 {
		return u.TotalTokens
	}
	return u.PromptTokens + u.CompletionTokens
}

// AgentMeta describes one answered request: which agent asked, what it cost
// and how long the model took.
type AgentMeta struct {
	AgentName string
	Usage     TokenUsage
	Latency   time.Duration
}
