package collection

import (
	"context"
	"testing"

	"github.com/reusee/minion/message"
)

type fakeMCPClient struct {
	specs  []ToolSpec
	closed bool
}

func (f *fakeMCPClient) ListTools(ctx context.Context) ([]ToolSpec, error) {
	return f.specs, nil
}

func (f *fakeMCPClient) CallTool(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	return map[string]any{"called": name, "args": args}, nil
}

func (f *fakeMCPClient) Close() error {
	f.closed = true
	return nil
}

func TestMCPSetupNamespacesTools(t *testing.T) {
	client := &fakeMCPClient{specs: []ToolSpec{
		{Name: "search", Description: "search the web", Inputs: map[string]message.ToolSchema{
			"query": {Name: "query", Type: "string"},
		}},
	}}
	m := NewMCP("web", client)

	if err := m.Setup(context.Background()); err != nil {
		t.Fatal(err)
	}
	tools := m.Tools()
	if len(tools) != 1 || tools[0].Name != "web.search" {
		t.Fatalf("got %+v", tools)
	}

	result, err := tools[0].Invoke(context.Background(), map[string]any{"query": "go"})
	if err != nil {
		t.Fatal(err)
	}
	if result["called"] != "search" {
		t.Fatalf("got %+v", result)
	}
}

func TestMCPCloseDelegatesToClient(t *testing.T) {
	client := &fakeMCPClient{}
	m := NewMCP("web", client)
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if !client.closed {
		t.Fatal("expected underlying client to be closed")
	}
}
