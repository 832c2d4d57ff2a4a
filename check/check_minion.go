package check

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/reusee/minion/actionnode"
	"github.com/reusee/minion/brain"
	"github.com/reusee/minion/message"
	"github.com/reusee/minion/provider"
)

const checkSystemPrompt = `Let's think step by step to verify this answer. Reply with exactly three lines:
Correct: true or false
Score: a number between 0 and 1
Feedback: a short explanation of what is wrong, if anything`

var (
	correctLinePattern  = regexp.MustCompile(`(?im)^correct:\s*(true|false)\s*$`)
	scoreLinePattern    = regexp.MustCompile(`(?im)^score:\s*([0-9.]+)\s*$`)
	feedbackLinePattern = regexp.MustCompile(`(?im)^feedback:\s*(.+)$`)
)

// CheckMinion is an LLM critic with an explicit rubric (spec §4.7),
// generalized from the teacher/original_source's XML-structured CheckMinion
// (main/check.py) into a three-line plain-text format this module's
// Action Node can parse without an XML dependency. Supports multimodal
// queries by forwarding Input.Messages (which may carry image parts)
// unchanged into the critic prompt.
type CheckMinion struct {
	Provider provider.Provider
	Model    string
}

func (c CheckMinion) Check(ctx context.Context, in *brain.Input, candidate *brain.AgentResponse) (float64, string, error) {
	history := []message.Message{
		message.NewText(message.RoleSystem, checkSystemPrompt),
	}
	history = append(history, in.Messages...)
	history = append(history, message.NewText(message.RoleAssistant, candidate.Answer))
	history = append(history, message.NewText(message.RoleUser, "Verify the answer above."))

	node := actionnode.Node{Provider: c.Provider, Model: c.Model}
	result, err := node.Run(ctx, nil, history)
	if err != nil {
		return 0, "", fmt.Errorf("check: critic call failed: %w", err)
	}

	text := ""
	for i := len(result.Messages) - 1; i >= 0; i-- {
		if result.Messages[i].Role == message.RoleAssistant {
			text = result.Messages[i].PlainText()
			break
		}
	}
	return parseVerdict(text)
}

func parseVerdict(text string) (float64, string, error) {
	var score float64
	if m := scoreLinePattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			score = v
		}
	} else if m := correctLinePattern.FindStringSubmatch(text); m != nil {
		if strings.EqualFold(m[1], "true") {
			score = 1
		}
	} else {
		return 0, "", fmt.Errorf("check: could not parse critic verdict from %q", text)
	}

	feedback := ""
	if m := feedbackLinePattern.FindStringSubmatch(text); m != nil {
		feedback = strings.TrimSpace(m[1])
	}
	return score, feedback, nil
}
