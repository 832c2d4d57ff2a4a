// Package tool implements the shared tool surface: a registry of callable
// tools, searchable by keyword/regex/bm25, loaded eagerly or via a lazy
// factory. Grounded on the teacher's generators.FuncDecl/Func pair
// (generators/func_decl.go, generators/func.go), generalized from "always
// loaded, addressed by its Gemini/OpenAI wire schema" to "loaded or lazily
// factoried, addressed by a registry name".
package tool

import (
	"context"

	"github.com/reusee/minion/message"
)

// Descriptor is a fully-built, callable tool: the wire-level schema
// (message.ToolDescriptor, generalized from generators.FuncDecl) plus the Go
// function that actually runs it.
type Descriptor struct {
	message.ToolDescriptor
	Category string

	Call      func(ctx context.Context, args map[string]any) (map[string]any, error)
	CallAsync func(ctx context.Context, args map[string]any) (<-chan CallResult, error)
}

// CallResult is one increment of an async tool call's output, for tools
// that stream partial results (e.g. a long-running shell command).
type CallResult struct {
	Partial map[string]any
	Final   map[string]any
	Err     error
	Done    bool
}

// Invoke runs the tool synchronously, falling back to draining CallAsync if
// Call is unset.
func (d Descriptor) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	if d.Call != nil {
		return d.Call(ctx, args)
	}
	if d.CallAsync == nil {
		return nil, nil
	}
	ch, err := d.CallAsync(ctx, args)
	if err != nil {
		return nil, err
	}
	var result map[string]any
	for chunk := range ch {
		if chunk.Err != nil {
			return nil, chunk.Err
		}
		if chunk.Final != nil {
			result = chunk.Final
		}
		if chunk.Done {
			break
		}
	}
	return result, nil
}
