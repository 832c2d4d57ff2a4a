package worker

import (
	"context"
	"regexp"
	"strings"

	"github.com/reusee/minion/actionnode"
	"github.com/reusee/minion/brain"
	"github.com/reusee/minion/message"
)

func init() {
	brain.RegisterWorker("cot", func() brain.Worker { return CoT{} })
}

const cotSystemPrompt = `Think through the problem step by step, then give your final answer on its own line prefixed with "Final Answer:".`

// finalAnswerPattern extracts a "Final Answer: ..." line, case-insensitive,
// grounded on the teacher's original_source equivalent
// (main/code_workers.py's is_final_answer indicator list) generalized from
// a substring check into a captured regex.
var finalAnswerPattern = regexp.MustCompile(`(?i)final answer:\s*(.+)`)

// CoT is the chain-of-thought strategy: one Action Node call against a
// reasoning-style system prompt, with the answer extracted by regex or, if
// no sentinel line is present, the last non-empty paragraph.
type CoT struct {
	Model string
}

func (c CoT) Execute(ctx context.Context, in *brain.Input, b *brain.Brain) (*brain.AgentResponse, error) {
	p, err := resolveProvider(b, c.Model)
	if err != nil {
		return nil, err
	}
	history := append([]message.Message{message.NewText(message.RoleSystem, cotSystemPrompt)}, in.Messages...)
	node := actionnode.Node{Provider: p, Registry: b.Tools, ToolNames: in.Tools}
	result, err := node.Run(ctx, nil, history)
	if err != nil {
		return nil, err
	}
	text := lastAssistantText(result.Messages)
	return &brain.AgentResponse{
		Answer:     extractFinalAnswer(text),
		Messages:   result.Messages,
		Score:      1,
		Terminated: result.Terminal,
		Usage:      result.Usage,
	}, nil
}

// extractFinalAnswer pulls a "Final Answer:" line from text, falling back
// to the last non-empty paragraph when no sentinel line is present.
func extractFinalAnswer(text string) string {
	if m := finalAnswerPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	paragraphs := strings.Split(strings.TrimSpace(text), "\n\n")
	for i := len(paragraphs) - 1; i >= 0; i-- {
		if p := strings.TrimSpace(paragraphs[i]); p != "" {
			return p
		}
	}
	return strings.TrimSpace(text)
}
