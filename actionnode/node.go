// Package actionnode implements the Action Node: one request/response round
// trip with a provider, including any tool calls it asks for. Grounded on
// the teacher's phases.BuildGeneratePhase (generators/build_generate_phase.go),
// which closes over a generators.Generator and a continuation Phase and
// returns the next Phase plus the resulting State on every call — this
// package keeps that continuation shape (Run returns enough to feed the
// next Run call) but generalizes "generator.Generate" from a single vendor
// call into the five-step contract the spec names: normalize messages,
// attach tool descriptors, call the provider, dispatch any requested tool
// calls, and detect a final_answer-equivalent termination.
package actionnode

import (
	"context"
	"fmt"

	"github.com/reusee/minion/message"
	"github.com/reusee/minion/provider"
	"github.com/reusee/minion/tool"
)

// Node is one configured Action Node: a provider to call, a tool registry
// to dispatch against, and the generation parameters to attach to every
// request.
type Node struct {
	Provider    provider.Provider
	Registry    *tool.Registry
	Model       string
	ToolNames   []string // empty means "no tools attached"
	ToolChoice  string
	Temperature *float32
	MaxTokens   *int
	Stream      bool
}

// Result is what one Run call produces: the updated message history
// (the assistant's reply plus any tool results appended), whether a
// final_answer-equivalent terminal condition was reached, and the raw
// provider usage for cost accounting.
type Result struct {
	Messages []message.Message
	Terminal bool
	Usage    message.Usage
}

// Run executes one Action Node step: it normalizes input onto state's
// existing history, attaches tool descriptors, calls the provider, and
// dispatches any tool calls the provider requested, returning the new
// message history for the next Run call (the continuation, as
// phases.BuildGeneratePhase returns the next Phase).
func (n Node) Run(ctx context.Context, input any, state []message.Message) (Result, error) {
	// Step 1: normalize messages onto existing history.
	history, err := n.normalize(input, state)
	if err != nil {
		return Result{}, err
	}

	// Step 2: attach tool descriptors + tool_choice.
	tools, err := n.toolDescriptors()
	if err != nil {
		return Result{}, err
	}

	req := provider.Request{
		Model:       n.Model,
		Messages:    history,
		Tools:       tools,
		ToolChoice:  n.ToolChoice,
		Temperature: n.Temperature,
		MaxTokens:   n.MaxTokens,
	}

	// Step 3: call the provider (streaming or not).
	resp, err := n.call(ctx, req)
	if err != nil {
		return Result{}, err
	}

	history = append(history, resp.Message)

	// Step 4: dispatch tool calls in provider order.
	calls := resp.Message.ToolCalls()
	var terminal bool
	if len(calls) > 0 {
		resultMsg, gotTerminal, err := n.dispatch(ctx, calls)
		if err != nil {
			return Result{}, err
		}
		history = append(history, resultMsg)
		terminal = gotTerminal
	}

	// Step 5: detect final_answer — a provider reply with no tool calls is
	// also terminal (ordinary answer), whatever its stop reason.
	if !terminal && len(calls) == 0 {
		terminal = true
	}

	return Result{
		Messages: history,
		Terminal: terminal,
		Usage:    resp.Usage,
	}, nil
}

func (n Node) normalize(input any, state []message.Message) ([]message.Message, error) {
	if input == nil {
		return state, nil
	}
	next, err := message.CanonicalizeQuery(input, "")
	if err != nil {
		return nil, err
	}
	return append(append([]message.Message{}, state...), next...), nil
}

func (n Node) toolDescriptors() ([]message.ToolDescriptor, error) {
	if n.Registry == nil || len(n.ToolNames) == 0 {
		return nil, nil
	}
	descriptors := make([]message.ToolDescriptor, 0, len(n.ToolNames))
	for _, name := range n.ToolNames {
		d, err := n.Registry.LoadTool(name)
		if err != nil {
			return nil, fmt.Errorf("actionnode: loading tool %q: %w", name, err)
		}
		descriptors = append(descriptors, d.ToolDescriptor)
	}
	return descriptors, nil
}

func (n Node) call(ctx context.Context, req provider.Request) (provider.Response, error) {
	if !n.Stream {
		return n.Provider.Generate(ctx, req)
	}

	chunks, err := n.Provider.GenerateStream(ctx, req)
	if err != nil {
		return provider.Response{}, err
	}

	var msg message.Message
	msg.Role = message.RoleAssistant
	var usage message.Usage
	var stopReason string
	for chunk := range chunks {
		if chunk.Delta != nil {
			msg.Parts = append(msg.Parts, chunk.Delta)
		}
		if chunk.Usage != nil {
			usage = *chunk.Usage
		}
		if chunk.Done {
			stopReason = chunk.StopReason
		}
	}
	_ = stopReason
	return provider.Response{Message: msg, Usage: usage, StopReason: stopReason}, nil
}

// dispatch invokes every requested tool call against the registry in the
// order the provider emitted them, returning one role-tool message
// carrying all the resulting message.ToolResult parts. A tool call naming
// "final_answer" (the convention the worker/python strategies use to
// surface a terminal value as an ordinary tool call) short-circuits the
// rest of the batch and marks the step terminal.
func (n Node) dispatch(ctx context.Context, calls []message.ToolCall) (message.Message, bool, error) {
	msg := message.Message{Role: message.RoleTool}
	var terminal bool
	for _, call := range calls {
		if call.Name == "final_answer" {
			msg.Parts = append(msg.Parts, message.ToolResult{
				ToolCallID: call.ID,
				Name:       call.Name,
				Result:     call.Args,
			})
			terminal = true
			continue
		}

		if n.Registry == nil {
			msg.Parts = append(msg.Parts, message.ToolResult{
				ToolCallID: call.ID,
				Name:       call.Name,
				Err:        "no tool registry configured",
			})
			continue
		}

		d, err := n.Registry.LoadTool(call.Name)
		if err != nil {
			msg.Parts = append(msg.Parts, message.ToolResult{
				ToolCallID: call.ID,
				Name:       call.Name,
				Err:        err.Error(),
			})
			continue
		}

		result, err := d.Invoke(ctx, call.Args)
		if err != nil {
			msg.Parts = append(msg.Parts, message.ToolResult{
				ToolCallID: call.ID,
				Name:       call.Name,
				Err:        err.Error(),
			})
			continue
		}

		msg.Parts = append(msg.Parts, message.ToolResult{
			ToolCallID: call.ID,
			Name:       call.Name,
			Result:     result,
		})
	}
	return msg, terminal, nil
}
