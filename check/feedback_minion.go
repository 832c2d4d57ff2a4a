package check

import (
	"context"
	"fmt"

	"github.com/reusee/minion/brain"
)

// FeedbackMinion is the Improver (spec §4.7): it receives the original
// input, the failing candidate, and the checker's feedback, and produces a
// new candidate via any named sub-worker. Grounded on the teacher/
// original_source's main/improve.py, which re-invokes a worker with the
// critic's feedback folded into the prompt.
type FeedbackMinion struct {
	// Route names the sub-worker used to produce the improved candidate,
	// e.g. "raw" or "cot". Defaults to Input.Route if empty.
	Route string
}

func (fm FeedbackMinion) Improve(ctx context.Context, in *brain.Input, candidate *brain.AgentResponse, feedback string, b *brain.Brain) (*brain.AgentResponse, error) {
	route := fm.Route
	if route == "" {
		route = in.Route
	}
	if route == "" {
		route = "raw"
	}
	worker, err := b.Workers.New(route)
	if err != nil {
		return nil, fmt.Errorf("check: improver resolving route %q: %w", route, err)
	}

	retryIn := *in
	retryMeta := map[string]any{}
	for k, v := range in.Metadata {
		retryMeta[k] = v
	}
	retryMeta["previous_answer"] = candidate.Answer
	retryMeta["feedback"] = feedback
	retryIn.Metadata = retryMeta

	return worker.Execute(ctx, &retryIn, b)
}
