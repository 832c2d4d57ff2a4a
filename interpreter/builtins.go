package interpreter

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"go.starlark.net/starlark"

	"github.com/reusee/minion/tool"
)

// FinalAnswer is the value passed to the sandboxed final_answer() builtin.
// A script that calls final_answer terminates immediately; Run returns this
// value as its Result with Terminal set, mirroring the reference
// implementation's FinalAnswerTool raising a sentinel exception the agent
// loop catches above the interpreter.
type FinalAnswer struct {
	Value any
}

// finalAnswerSignal is panicked by the final_answer builtin and recovered
// in Interpreter.Run — Starlark has no exception type a builtin can raise
// that unwinds past arbitrary call depth other than a Go error, and a Go
// error would be reported as an ordinary script failure instead of a
// deliberate early return, so a typed panic is used instead.
type finalAnswerSignal struct {
	answer FinalAnswer
}

func finalAnswerBuiltin() *starlark.Builtin {
	return starlark.NewBuiltin("final_answer", func(
		thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple,
	) (starlark.Value, error) {
		var answer starlark.Value = starlark.None
		if len(args) == 1 {
			answer = args[0]
		} else if len(args) > 1 {
			answer = args
		}
		goVal, err := FromStarlark(answer)
		if err != nil {
			return nil, err
		}
		panic(finalAnswerSignal{answer: FinalAnswer{Value: goVal}})
	})
}

// printBuiltin forwards print() calls to the Interpreter's configured
// Stdout sink instead of os.Stdout, so a Run call can capture a script's
// printed output for inclusion in a tool result.
func printBuiltin(sink *[]string) func(thread *starlark.Thread, msg string) {
	return func(thread *starlark.Thread, msg string) {
		*sink = append(*sink, msg)
	}
}

// toolBuiltin wraps a tool.Descriptor as a starlark.Builtin taking keyword
// arguments matching the tool's declared inputs, invoking it against the
// interpreter's ambient context (threaded through thread.Local).
func toolBuiltin(name string, registry *tool.Registry) *starlark.Builtin {
	return starlark.NewBuiltin(name, func(
		thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple,
	) (starlark.Value, error) {
		callArgs, err := kwargsToMap(args, kwargs)
		if err != nil {
			return nil, err
		}
		ctx, _ := thread.Local(ctxLocalKey).(context.Context)
		if ctx == nil {
			ctx = context.Background()
		}
		descriptor, err := registry.LoadTool(name)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", name, err)
		}
		result, err := descriptor.Invoke(ctx, callArgs)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", name, err)
		}
		return ToStarlark(result)
	})
}

// kwargsToMap merges positional args (named arg0, arg1, ...) and keyword
// args into a single map[string]any call frame, matching the convention
// tool.FromFunc uses for positional parameters.
func kwargsToMap(args starlark.Tuple, kwargs []starlark.Tuple) (map[string]any, error) {
	m := make(map[string]any, len(args)+len(kwargs))
	for i, a := range args {
		v, err := FromStarlark(a)
		if err != nil {
			return nil, err
		}
		m[fmt.Sprintf("arg%d", i)] = v
	}
	for _, kv := range kwargs {
		key, _ := starlark.AsString(kv[0])
		v, err := FromStarlark(kv[1])
		if err != nil {
			return nil, err
		}
		m[key] = v
	}
	return m, nil
}

// parallelCall is one entry in a multi_tool_use.parallel() request: a tool
// name plus the keyword arguments to invoke it with.
type parallelCall struct {
	Tool string
	Args map[string]any
}

// multiToolUseParallel implements the multi_tool_use.parallel(calls)
// builtin the reference implementation exposes for fanning out independent
// tool calls within one code-execution step, bounded by an errgroup so one
// failing call doesn't block the others from completing.
func multiToolUseParallel(registry *tool.Registry) *starlark.Builtin {
	return starlark.NewBuiltin("parallel", func(
		thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple,
	) (starlark.Value, error) {
		var callsArg starlark.Value
		if err := starlark.UnpackArgs("parallel", args, kwargs, "calls", &callsArg); err != nil {
			return nil, err
		}
		iterable, ok := callsArg.(starlark.Iterable)
		if !ok {
			return nil, fmt.Errorf("multi_tool_use.parallel: calls must be a list")
		}

		var calls []parallelCall
		iter := iterable.Iterate()
		defer iter.Done()
		var item starlark.Value
		for iter.Next(&item) {
			call, err := parseParallelCall(item)
			if err != nil {
				return nil, err
			}
			calls = append(calls, call)
		}

		ctx, _ := thread.Local(ctxLocalKey).(context.Context)
		if ctx == nil {
			ctx = context.Background()
		}

		results := make([]any, len(calls))
		successful := 0
		failed := 0
		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		for i, call := range calls {
			g.Go(func() error {
				descriptor, err := registry.LoadTool(call.Tool)
				if err != nil {
					mu.Lock()
					results[i] = map[string]any{"success": false, "error": "tool not found"}
					failed++
					mu.Unlock()
					return nil
				}
				result, err := descriptor.Invoke(gctx, call.Args)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					results[i] = map[string]any{"success": false, "error": err.Error()}
					failed++
					return nil
				}
				results[i] = map[string]any{"success": true, "result": result}
				successful++
				return nil
			})
		}
		_ = g.Wait()

		return ToStarlark(map[string]any{
			"results":         results,
			"total_calls":     len(calls),
			"successful_calls": successful,
			"failed_calls":    failed,
		})
	})
}

func parseParallelCall(v starlark.Value) (parallelCall, error) {
	goVal, err := FromStarlark(v)
	if err != nil {
		return parallelCall{}, err
	}
	m, ok := goVal.(map[string]any)
	if !ok {
		return parallelCall{}, fmt.Errorf("multi_tool_use.parallel: each call must be a dict")
	}
	name, _ := m["tool"].(string)
	if name == "" {
		name, _ = m["name"].(string)
	}
	if name == "" {
		return parallelCall{}, fmt.Errorf("multi_tool_use.parallel: call missing tool name")
	}
	argsMap, _ := m["args"].(map[string]any)
	if argsMap == nil {
		argsMap = map[string]any{}
	}
	return parallelCall{Tool: name, Args: argsMap}, nil
}

const ctxLocalKey = "ctx"
