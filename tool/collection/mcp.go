package collection

import (
	"context"
	"fmt"

	"github.com/reusee/minion/message"
	"github.com/reusee/minion/tool"
)

// Client is the minimal surface an MCP transport must provide. Full MCP
// framing (stdio subprocess, SSE, or streamable-HTTP) is explicitly an
// external collaborator the spec scopes out; callers supply a Client that
// already speaks one of those transports, and MCP here only adapts its
// listed tools into tool.Descriptor.
type Client interface {
	ListTools(ctx context.Context) ([]ToolSpec, error)
	CallTool(ctx context.Context, name string, args map[string]any) (map[string]any, error)
	Close() error
}

// ToolSpec is the tool shape an MCP server advertises over the "tools/list"
// method, trimmed to what this adapter needs to build a tool.Descriptor.
type ToolSpec struct {
	Name        string
	Description string
	Inputs      map[string]message.ToolSchema
}

// MCP adapts one MCP server's tool list into tool.Descriptors, prefixing
// each tool's name with the server's configured namespace to avoid
// collisions across multiple MCP servers registered on the same Agent.
type MCP struct {
	Namespace string
	client    Client
	tools     []tool.Descriptor
}

func NewMCP(namespace string, client Client) *MCP {
	return &MCP{Namespace: namespace, client: client}
}

var _ Collection = (*MCP)(nil)

func (m *MCP) Setup(ctx context.Context) error {
	specs, err := m.client.ListTools(ctx)
	if err != nil {
		return err
	}

	m.tools = make([]tool.Descriptor, 0, len(specs))
	for _, spec := range specs {
		name := spec.Name
		if m.Namespace != "" {
			name = m.Namespace + "." + spec.Name
		}
		remoteName := spec.Name
		m.tools = append(m.tools, tool.Descriptor{
			ToolDescriptor: message.ToolDescriptor{
				Name:        name,
				Description: spec.Description,
				Inputs:      spec.Inputs,
			},
			Category: "mcp:" + m.Namespace,
			Call: func(ctx context.Context, args map[string]any) (map[string]any, error) {
				return m.client.CallTool(ctx, remoteName, args)
			},
		})
	}

	return nil
}

func (m *MCP) Close() error {
	if m.client == nil {
		return nil
	}
	return m.client.Close()
}

func (m *MCP) Tools() []tool.Descriptor {
	return m.tools
}

func (m *MCP) String() string {
	return fmt.Sprintf("mcp(%s, %d tools)", m.Namespace, len(m.tools))
}
