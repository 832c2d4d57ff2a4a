package actionnode

import (
	"context"
	"testing"

	"github.com/reusee/minion/message"
	"github.com/reusee/minion/provider"
	"github.com/reusee/minion/tool"
)

type fakeProvider struct {
	responses []provider.Response
	calls     int
}

func (f *fakeProvider) Generate(ctx context.Context, req provider.Request) (provider.Response, error) {
	resp := f.responses[f.calls]
	f.calls++
	return resp, nil
}

func (f *fakeProvider) GenerateStream(ctx context.Context, req provider.Request) (<-chan provider.StreamChunk, error) {
	return nil, nil
}

func (f *fakeProvider) CountTokens(text string) (int, error) {
	return 0, nil
}

func (f *fakeProvider) GetCost() *message.CostRecord {
	return &message.CostRecord{}
}

func TestNodeRunPlainAnswer(t *testing.T) {
	p := &fakeProvider{responses: []provider.Response{
		{Message: message.NewText(message.RoleAssistant, "hi there"), StopReason: "stop"},
	}}
	n := Node{Provider: p}

	result, err := n.Run(context.Background(), "hello", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Terminal {
		t.Fatal("expected a plain answer to be terminal")
	}
	if len(result.Messages) != 2 {
		t.Fatalf("got %+v", result.Messages)
	}
}

func TestNodeRunDispatchesToolCall(t *testing.T) {
	registry := tool.NewRegistry()
	registry.Register(tool.Descriptor{
		ToolDescriptor: message.ToolDescriptor{Name: "now"},
		Call: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return map[string]any{"now": "2026-08-03"}, nil
		},
	})

	toolCallMsg := message.Message{
		Role: message.RoleAssistant,
		Parts: []message.Part{
			message.ToolCall{ID: "call-1", Name: "now", Args: map[string]any{}},
		},
	}
	p := &fakeProvider{responses: []provider.Response{
		{Message: toolCallMsg, StopReason: "tool_calls"},
	}}

	n := Node{Provider: p, Registry: registry, ToolNames: []string{"now"}}
	result, err := n.Run(context.Background(), "what time is it?", nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Terminal {
		t.Fatal("expected a tool-call round to not be terminal")
	}
	last := result.Messages[len(result.Messages)-1]
	toolResult, ok := last.Parts[0].(message.ToolResult)
	if !ok || toolResult.Result["now"] != "2026-08-03" {
		t.Fatalf("got %+v", last)
	}
}

func TestNodeRunFinalAnswerToolCall(t *testing.T) {
	toolCallMsg := message.Message{
		Role: message.RoleAssistant,
		Parts: []message.Part{
			message.ToolCall{ID: "call-1", Name: "final_answer", Args: map[string]any{"answer": "42"}},
		},
	}
	p := &fakeProvider{responses: []provider.Response{
		{Message: toolCallMsg, StopReason: "tool_calls"},
	}}
	n := Node{Provider: p}

	result, err := n.Run(context.Background(), "compute it", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Terminal {
		t.Fatal("expected final_answer call to terminate the node")
	}
}
