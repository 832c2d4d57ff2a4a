package worker

import (
	"context"
	"fmt"
	"strings"

	"github.com/reusee/minion/actionnode"
	"github.com/reusee/minion/brain"
	"github.com/reusee/minion/interpreter"
	"github.com/reusee/minion/message"
)

func init() {
	brain.RegisterWorker("python", func() brain.Worker { return Python{} })
}

// importableModulesList renders the interpreter's import allowlist
// (interpreter.AllowedModules) for inclusion in a system prompt, so the
// model is told exactly what it can import rather than discovering the
// boundary by trial and error.
func importableModulesList() string {
	return strings.Join(interpreter.AllowedModules(), ", ")
}

var pythonSystemPrompt = "Solve the task by writing a Python snippet in a fenced ```python code block. " +
	"try/except/finally/raise, with-statements, class definitions, and f-strings all work. " +
	"import only " + importableModulesList() + "; any other import fails with an ImportError-style observation. " +
	"Call final_answer(value) with the result. If a prior attempt errored, the error is given as an Observation; fix it and try again."

// Python is the "LLM writes a snippet, the interpreter runs it" strategy
// (spec §4.6 "python" row): on an execution error, the error is fed back
// into the next round's prompt as an Observation and retried up to
// MaxRounds times.
type Python struct {
	Model     string
	MaxRounds int // defaults to 3
}

func (py Python) Execute(ctx context.Context, in *brain.Input, b *brain.Brain) (*brain.AgentResponse, error) {
	rounds := py.MaxRounds
	if rounds <= 0 {
		rounds = 3
	}
	p, err := resolveProvider(b, py.Model)
	if err != nil {
		return nil, err
	}
	if b.Interp == nil {
		return nil, fmt.Errorf("worker: brain has no code interpreter configured")
	}

	history := append([]message.Message{message.NewText(message.RoleSystem, pythonSystemPrompt)}, in.Messages...)
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
			code = text
		}

		run, err := b.Interp.Run(ctx, "snippet", code)
		if err != nil {
			history = append(history, message.NewText(message.RoleUser,
				fmt.Sprintf("Observation: execution error: %s", err.Error())))
			continue
		}

		if run.Terminal {
			return &brain.AgentResponse{
				Answer:     fmt.Sprintf("%v", run.Answer.Value),
				Messages:   history,
				Score:      1,
				Terminated: true,
				Usage:      usage,
				Metadata:   map[string]any{"rounds": round + 1},
			}, nil
		}

		return &brain.AgentResponse{
			Answer:     fmt.Sprintf("%v", run.Namespace),
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

func addUsage(a, b message.Usage) message.Usage {
	return message.Usage{
		PromptTokens:     a.PromptTokens + b.PromptTokens,
		CachedTokens:     a.CachedTokens + b.CachedTokens,
		CompletionTokens: a.CompletionTokens + b.CompletionTokens,
		ThoughtTokens:    a.ThoughtTokens + b.ThoughtTokens,
		CostUSD:          a.CostUSD + b.CostUSD,
	}
}
