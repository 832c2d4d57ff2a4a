package worker

import (
	"context"
	"fmt"
	"strings"

	"github.com/reusee/minion/actionnode"
	"github.com/reusee/minion/brain"
	"github.com/reusee/minion/message"
)

func init() {
	brain.RegisterWorker("route", func() brain.Worker { return Route{} })
}

const routeSystemPromptTemplate = `Given this input, choose the single best strategy from the following list and reply with only its name, nothing else:
%s`

// Route is the meta-worker that asks the LLM to pick the best named route
// for an input, then delegates to it, per spec §4.6's "route" row.
type Route struct {
	Model string
	// Candidates restricts the routes offered; empty means every route
	// registered in the Brain's Workers registry except "route" and
	// "moderator" themselves.
	Candidates []string
}

func (rt Route) Execute(ctx context.Context, in *brain.Input, b *brain.Brain) (*brain.AgentResponse, error) {
	candidates := rt.Candidates
	if len(candidates) == 0 {
		for _, name := range b.Workers.Names() {
			if name == "route" || name == "moderator" {
				continue
			}
			candidates = append(candidates, name)
		}
	}

	p, err := resolveProvider(b, rt.Model)
	if err != nil {
		return nil, err
	}
	system := fmt.Sprintf(routeSystemPromptTemplate, strings.Join(candidates, ", "))
	history := append([]message.Message{message.NewText(message.RoleSystem, system)}, in.Messages...)
	node := actionnode.Node{Provider: p}
	result, err := node.Run(ctx, nil, history)
	if err != nil {
		return nil, err
	}

	chosen := strings.ToLower(strings.TrimSpace(lastAssistantText(result.Messages)))
	var matched string
	for _, c := range candidates {
		if strings.ToLower(c) == chosen {
			matched = c
			break
		}
	}
	if matched == "" && len(candidates) > 0 {
		matched = candidates[0]
	}
	if matched == "" {
		return nil, fmt.Errorf("worker: route could not choose a strategy (no candidates registered)")
	}

	sub, err := b.Workers.New(matched)
	if err != nil {
		return nil, err
	}
	resp, err := sub.Execute(ctx, in, b)
	if err != nil {
		return nil, err
	}
	if resp.Metadata == nil {
		resp.Metadata = map[string]any{}
	}
	resp.Metadata["chosen_route"] = matched
	return resp, nil
}
