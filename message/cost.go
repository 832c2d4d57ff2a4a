package message

import "sync"

// CostRecord accumulates token usage and estimated spend across the calls
// made during one Brain.Step or Agent.Step. Generalized from the teacher's
// generators.Usage part (generators/part.go), which is a single-shot
// per-response sample appended to the RoleLog stream; CostRecord instead
// owns the running total, since the spec requires cumulative accounting
// across an entire step rather than one generation call.
type CostRecord struct {
	mu sync.Mutex

	PromptTokens     int
	CachedTokens     int
	CompletionTokens int
	ThoughtTokens    int
	TotalTokens      int
	EstimatedCostUSD float64
}

// Usage is one provider call's token counts, as reported by the API
// response, before being folded into a CostRecord.
type Usage struct {
	PromptTokens     int
	CachedTokens     int
	CompletionTokens int
	ThoughtTokens    int
	CostUSD          float64
}

// Add folds one Usage sample into the record. Per spec, exactly one writer
// calls Add per provider call — the mutex only guards against the rare case
// of ensemble/plan workers sharing a CostRecord across goroutines.
func (c *CostRecord) Add(u Usage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.PromptTokens += u.PromptTokens
	c.CachedTokens += u.CachedTokens
	c.CompletionTokens += u.CompletionTokens
	c.ThoughtTokens += u.ThoughtTokens
	c.TotalTokens += u.PromptTokens + u.CompletionTokens + u.ThoughtTokens
	c.EstimatedCostUSD += u.CostUSD
}

// Snapshot returns a copy of the current totals, safe to read concurrently
// with further Add calls.
func (c *CostRecord) Snapshot() CostRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CostRecord{
		PromptTokens:     c.PromptTokens,
		CachedTokens:     c.CachedTokens,
		CompletionTokens: c.CompletionTokens,
		ThoughtTokens:    c.ThoughtTokens,
		TotalTokens:      c.TotalTokens,
		EstimatedCostUSD: c.EstimatedCostUSD,
	}
}
