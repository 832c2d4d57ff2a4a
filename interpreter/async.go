package interpreter

import "context"

// asyncResult pairs a Result with the error from one RunAsync call.
type asyncResult struct {
	Result Result
	Err    error
}

// RunAsync runs source on its own goroutine and returns a channel receiving
// exactly one asyncResult. Tool calls inside a script already run to
// completion synchronously (toolBuiltin blocks on descriptor.Invoke, there
// is no Starlark coroutine-suspension point below that boundary), so unlike
// the reference implementation's AsyncInterpreter — which probes the
// return value of every call for an Awaitable because Python tool wrappers
// may themselves be coroutines — this sandbox never needs to resume a
// script mid-statement. RunAsync exists so a caller (the agent step loop)
// can run a script without blocking its own goroutine, not to model
// Python's async/await inside the sandboxed language itself.
func (it *Interpreter) RunAsync(ctx context.Context, name, source string) <-chan asyncResult {
	out := make(chan asyncResult, 1)
	go func() {
		result, err := it.Run(ctx, name, source)
		out <- asyncResult{Result: result, Err: err}
		close(out)
	}()
	return out
}
