package worker

import (
	"context"
	"fmt"

	"github.com/reusee/minion/actionnode"
	"github.com/reusee/minion/brain"
	"github.com/reusee/minion/message"
)

func init() {
	brain.RegisterWorker("code", func() brain.Worker { return Code{} })
}

var codeSystemPrompt = "Respond in a Thought / Code / Observation cycle. " +
	"Write your reasoning as Thought:, then a single fenced ```python code block ending in <END>, " +
	"then wait for the Observation. try/except/finally/raise, with-statements, class definitions, and " +
	"f-strings all work; import only " + importableModulesList() + ". Call final_answer(value) with the result."

// Code is the structured "code" strategy (spec §4.6 "code" row): same
// interpreter-backed retry loop as Python, but requires the Thought/Code/
// Observation shape and extracts the first complete code block via the
// three sentinel formats extractCode recognizes.
type Code struct {
	Model     string
	MaxRounds int // defaults to 3
}

func (c Code) Execute(ctx context.Context, in *brain.Input, b *brain.Brain) (*brain.AgentResponse, error) {
	rounds := c.MaxRounds
	if rounds <= 0 {
		rounds = 3
	}
	p, err := resolveProvider(b, c.Model)
	if err != nil {
		return nil, err
	}
	if b.Interp == nil {
		return nil, fmt.Errorf("worker: brain has no code interpreter configured")
	}

	history := append([]message.Message{message.NewText(message.RoleSystem, codeSystemPrompt)}, in.Messages...)
	node := actionnode.Node{Provider: p, Registry: b.Tools, ToolNames: in.Tools}

	var usage message.Usage
	for round := 0; round < rounds; round++ {
		result, err := node.Run(ctx, nil, history)
		if err != nil {
			return nil, err
		}
		history = result.Messages
		usage = addUsage(usage, result.Usage)

		text := lastAssistantText(history)
		code, ok := extractCode(text)
		if !ok {
			history = append(history, message.NewText(message.RoleUser,
				"Observation: no complete ```python ...<END> code block found; emit exactly one."))
			continue
		}

		run, err := b.Interp.Run(ctx, "snippet", code)
		if err != nil {
			history = append(history, message.NewText(message.RoleUser,
				fmt.Sprintf("Observation: execution error: %s", err.Error())))
			continue
		}

		answer := fmt.Sprintf("%v", run.Namespace)
		if run.Terminal {
			answer = fmt.Sprintf("%v", run.Answer.Value)
		}
		return &brain.AgentResponse{
			Answer:     answer,
			Messages:   history,
			Score:      1,
			Terminated: true,
			Usage:      usage,
			Metadata:   map[string]any{"rounds": round + 1},
		}, nil
	}

	return &brain.AgentResponse{
		Messages:   history,
		Score:      0,
		Terminated: false,
		Truncated:  true,
		Usage:      usage,
		Metadata:   map[string]any{"rounds": rounds, "all_attempts_failed": true},
	}, nil
}
