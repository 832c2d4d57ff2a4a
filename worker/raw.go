// Package worker implements the named reasoning strategies (spec §4.6's
// MINION_REGISTRY routes: raw, native, cot, dcot, python, code, plan,
// ensemble, route, moderator). Every strategy registers itself into
// package brain's process-wide Registry from its own init(), the same
// one-directional dependency database/sql drivers use, so brain never
// needs to import worker.
package worker

import (
	"context"

	"github.com/reusee/minion/actionnode"
	"github.com/reusee/minion/brain"
)

func init() {
	brain.RegisterWorker("raw", func() brain.Worker { return Raw{} })
}

// Raw is the simplest strategy: one Action Node call, no post-processing,
// the answer is the full assistant text. Grounded on the teacher's
// phases.BuildGeneratePhase used with no system prompt and no tools
// (generators/build_generate_phase.go).
type Raw struct {
	Model string
}

func (r Raw) Execute(ctx context.Context, in *brain.Input, b *brain.Brain) (*brain.AgentResponse, error) {
	p, err := resolveProvider(b, r.Model)
	if err != nil {
		return nil, err
	}
	node := actionnode.Node{Provider: p, Registry: b.Tools, ToolNames: in.Tools}
	result, err := node.Run(ctx, nil, in.Messages)
	if err != nil {
		return nil, err
	}
	return &brain.AgentResponse{
		Answer:     lastAssistantText(result.Messages),
		Messages:   result.Messages,
		Score:      1,
		Terminated: result.Terminal,
		Usage:      result.Usage,
	}, nil
}
