package agent

import (
	"context"
	"fmt"

	"github.com/reusee/minion/brain"
	"github.com/reusee/minion/message"
	"github.com/reusee/minion/procs"
)

// Step runs one turn of the Agent loop (spec §4.9): it appends task to the
// State's message history, calls Brain.Step, replaces the history with the
// response's Messages, then applies the decay and compaction passes before
// returning the candidate AgentResponse.
func (a *Agent) Step(ctx context.Context, task string, route string, stream bool) (*brain.AgentResponse, error) {
	if !a.setupDone {
		if err := a.Setup(ctx); err != nil {
			return nil, err
		}
	}

	if task != "" {
		a.State.Messages = append(a.State.Messages, message.NewText(message.RoleUser, task))
	}
	a.State.Steps++

	toolNames := make([]string, 0, len(a.Tools))
	for _, t := range a.Tools {
		toolNames = append(toolNames, t.Name)
	}

	resp, err := a.Brain.Step(ctx, brain.StepRequest{
		Messages: a.State.Messages,
		Route:    route,
		Stream:   stream,
		Tools:    toolNames,
	})
	if err != nil {
		return nil, err
	}

	a.State.Messages = resp.Messages

	if a.Decay.Enabled {
		if err := a.decayPass(ctx); err != nil {
			return nil, fmt.Errorf("agent: decay pass: %w", err)
		}
	}
	if a.Compact.Enabled {
		if err := a.compactPass(ctx); err != nil {
			return nil, fmt.Errorf("agent: compact pass: %w", err)
		}
	}

	if a.Tap != nil {
		a.Tap(ctx, "agent.Step", map[string]any{
			"task":     task,
			"route":    route,
			"steps":    a.State.Steps,
			"messages": a.State.Messages,
			"response": resp,
		})
	}

	return resp, nil
}

// runState is the continuation context a stepProc threads through the
// procs.Proc[C] chain RunAsync drives.
type runState struct {
	ctx       context.Context
	agent     *Agent
	route     string
	stream    bool
	task      string
	remaining int
	last      *brain.AgentResponse
}

// stepProc adapts one Agent.Step call to procs.Proc[*runState]: it returns
// itself to continue the chain, or nil once the response terminates or the
// step budget runs out, matching procs.Procs' "nil means done" contract
// (procs/procs.go).
type stepProc struct{}

func (stepProc) Run(s *runState) (procs.Proc[*runState], error) {
	resp, err := s.agent.Step(s.ctx, s.task, s.route, s.stream)
	if err != nil {
		return nil, err
	}
	s.last = resp
	s.task = "" // subsequent steps continue the existing conversation
	s.remaining--
	if resp.Terminated || s.remaining <= 0 {
		return nil, nil
	}
	return stepProc{}, nil
}

// RunAsync drives Step repeatedly until the response terminates or
// maxSteps is reached, the spec §4.9 "repeated step(state) → AgentResponse"
// lifecycle collapsed into one call for callers that don't need to
// inspect intermediate steps. Driven through procs.Proc's self-returning
// continuation chain rather than a plain loop.
func (a *Agent) RunAsync(ctx context.Context, task string, maxSteps int, route string, stream bool) (*brain.AgentResponse, error) {
	if maxSteps <= 0 {
		maxSteps = 1
	}
	s := &runState{ctx: ctx, agent: a, route: route, stream: stream, task: task, remaining: maxSteps}

	var p procs.Proc[*runState] = stepProc{}
	for p != nil {
		var err error
		p, err = p.Run(s)
		if err != nil {
			return nil, err
		}
	}

	if s.last != nil && !s.last.Terminated {
		s.last.Truncated = true
	}
	return s.last, nil
}
