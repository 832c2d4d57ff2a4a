// Package brain implements the Brain/Mind orchestrator: the entry point
// that normalizes a query into an Input, resolves a model alias through the
// ModelRegistry, and delegates to a registered Worker by route. Grounded on
// the teacher's generators.GetGenerator (generators/generator.go), which
// switches on a vendor-specific config type to construct a Generator —
// generalized here to an injectable NewProvider-per-api_type registry so
// the Brain never hardcodes a vendor list.
package brain

import "github.com/reusee/minion/message"

// Input is the normalized request the Brain builds from a caller's raw
// arguments before dispatching to a Worker, mirroring spec §4.8 step 1.
type Input struct {
	Messages []message.Message
	Route    string
	Stream   bool
	Tools    []string
	Dataset  string
	Metadata map[string]any
}

// Query returns the plain-text content of the last user message, for
// workers that only need a single-string prompt.
func (in Input) Query() string {
	for i := len(in.Messages) - 1; i >= 0; i-- {
		if in.Messages[i].Role == message.RoleUser {
			return in.Messages[i].PlainText()
		}
	}
	return ""
}

// AgentResponse is what the Brain (and every Worker) returns for one step:
// the candidate answer, the full message trace, whether the step
// terminated (spec §4.8 step 4's (answer, score, terminated, truncated,
// info) tuple, flattened into one struct).
type AgentResponse struct {
	Answer     string
	Messages   []message.Message
	Score      float64
	Terminated bool
	Truncated  bool
	Usage      message.Usage
	Metadata   map[string]any
}
