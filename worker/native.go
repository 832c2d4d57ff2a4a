package worker

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/reusee/minion/actionnode"
	"github.com/reusee/minion/brain"
	"github.com/reusee/minion/message"
)

func init() {
	brain.RegisterWorker("native", func() brain.Worker { return Native{} })
}

// defaultNativeTemplate mirrors the teacher's prompt-formatting convention
// (generators/prompt.go builds a system/user pair from a fixed Go string),
// generalized into a user-overridable text/template — the one deliberate
// standard-library choice in this package, since no library in the
// retrieval pack offers Jinja-style templating for Go (see DESIGN.md).
const defaultNativeTemplate = `{{.Query}}`

// Native renders a Jinja-style prompt template against the Input before a
// single Action Node call, per spec §4.6's "native" route.
type Native struct {
	Model    string
	Template string // defaults to defaultNativeTemplate
}

func (n Native) Execute(ctx context.Context, in *brain.Input, b *brain.Brain) (*brain.AgentResponse, error) {
	tmplSrc := n.Template
	if tmplSrc == "" {
		tmplSrc = defaultNativeTemplate
	}
	tmpl, err := template.New("native").Parse(tmplSrc)
	if err != nil {
		return nil, fmt.Errorf("worker: parsing native template: %w", err)
	}
	var buf bytes.Buffer
	data := map[string]any{"Query": in.Query(), "Metadata": in.Metadata}
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("worker: rendering native template: %w", err)
	}

	p, err := resolveProvider(b, n.Model)
	if err != nil {
		return nil, err
	}
	var base []message.Message
	for _, m := range in.Messages {
		if m.Role != message.RoleUser {
			base = append(base, m)
		}
	}
	history := append(base, message.NewText(message.RoleUser, buf.String()))
	node := actionnode.Node{Provider: p, Registry: b.Tools, ToolNames: in.Tools}
	result, err := node.Run(ctx, nil, history)
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
