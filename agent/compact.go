package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/reusee/minion/actionnode"
	"github.com/reusee/minion/message"
)

// compactPass summarizes the middle span of State.Messages once the
// estimated token count crosses Compact.TokenBudget, pinning every system
// message and the last Compact.PinLastTurns messages untouched — the
// other context-management knob spec §4.9 names alongside decay.
// Grounded on generators.BPETokenCounter's abstraction shape
// (generators/count_tokens.go), via this package's Tokenizer interface.
func (a *Agent) compactPass(ctx context.Context) error {
	msgs := a.State.Messages
	total := 0
	for _, m := range msgs {
		n, err := a.Tokenizer.Count(m.PlainText())
		if err != nil {
			return err
		}
		total += n
	}
	if total <= a.Compact.TokenBudget {
		return nil
	}

	pin := a.Compact.PinLastTurns
	if pin <= 0 {
		pin = 4
	}

	// Pin every system message (spec §4.9 step 1, invariant 9), not just
	// the first: a prior compaction pass's own synthetic summary is itself
	// a RoleSystem message, so this collects it here and keeps it pinned
	// on every later pass instead of letting it drift into rest and get
	// summarized away.
	var system, rest []message.Message
	for _, m := range msgs {
		if m.Role == message.RoleSystem {
			system = append(system, m)
		} else {
			rest = append(rest, m)
		}
	}
	if len(rest) <= pin {
		return nil // nothing in the middle to summarize
	}

	middle := rest[:len(rest)-pin]
	tail := rest[len(rest)-pin:]

	summary, err := a.summarize(ctx, middle)
	if err != nil {
		return fmt.Errorf("compacting history: %w", err)
	}

	next := append(append([]message.Message{}, system...), message.NewText(message.RoleSystem, "[Conversation Summary] "+summary))
	next = append(next, tail...)
	a.State.Messages = next
	return nil
}

func (a *Agent) summarize(ctx context.Context, middle []message.Message) (string, error) {
	model := a.Compact.CompactModel
	if model == "" {
		model = a.Model
	}
	p, err := a.Brain.Models.Resolve(modelOrDefault(model, a.Brain.DefaultProvider))
	if err != nil {
		return "", err
	}

	var parts []string
	for _, m := range middle {
		parts = append(parts, string(m.Role)+": "+m.PlainText())
	}
	prompt := "Summarize the following conversation span concisely, preserving any facts needed to continue it:\n\n" + strings.Join(parts, "\n")

	node := actionnode.Node{Provider: p}
	result, err := node.Run(ctx, prompt, nil)
	if err != nil {
		return "", err
	}
	for i := len(result.Messages) - 1; i >= 0; i-- {
		if result.Messages[i].Role == message.RoleAssistant {
			return result.Messages[i].PlainText(), nil
		}
	}
	return "", fmt.Errorf("summarizer produced no assistant reply")
}

func modelOrDefault(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}
