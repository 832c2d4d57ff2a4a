package worker

import (
	"github.com/reusee/minion/brain"
	"github.com/reusee/minion/message"
	"github.com/reusee/minion/provider"
)

// resolveProvider picks a provider by model alias, falling back to the
// Brain's configured default provider alias.
func resolveProvider(b *brain.Brain, model string) (provider.Provider, error) {
	if model == "" {
		model = b.DefaultProvider
	}
	return b.Models.Resolve(model)
}

// lastAssistantText returns the plain text of the last assistant message in
// a history, the answer for strategies with no special extraction rule.
func lastAssistantText(history []message.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == message.RoleAssistant {
			return history[i].PlainText()
		}
	}
	return ""
}
