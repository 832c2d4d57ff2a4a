package interpreter

import (
	"context"
	"fmt"

	"go.starlark.net/starlark"

	"github.com/reusee/minion/tool"
)

// Result is what one Run call produces: any printed output, the namespace
// of top-level bindings left behind (for a REPL-style caller that wants to
// inspect variables), and — if the script called final_answer — the
// terminal value plus Terminal=true.
type Result struct {
	Stdout    []string
	Namespace map[string]any
	Answer    FinalAnswer
	Terminal  bool
}

// Interpreter runs one sandboxed script against a fixed tool.Registry and
// namespace of extra predeclared values set by the caller. Grounded on the teacher's taipy.Compile +
// taivm.VM pairing, generalized from "compile once, run a persistent VM"
// to "parse and exec a whole snippet per call", since the code-execution
// tool runs one-shot agent-authored snippets rather than a long-lived
// program.
type Interpreter struct {
	Registry  *tool.Registry
	MaxSteps  uint64
	Namespace map[string]any
}

// New builds an Interpreter with a 200,000-execution-step budget per Run
// call — generous enough for real data-processing snippets, small enough
// that a runaway loop returns promptly instead of spinning forever.
func New(registry *tool.Registry) *Interpreter {
	return &Interpreter{
		Registry: registry,
		MaxSteps: 200_000,
	}
}

func (it *Interpreter) predeclared() (starlark.StringDict, error) {
	predeclared := starlark.StringDict{
		"final_answer": finalAnswerBuiltin(),
		"__raise":      raiseBuiltin(),
		"__reraise":    reraiseBuiltin(),
		"__try_exec":   tryExecBuiltin(),
		"__with_enter": withEnterBuiltin(),
		"__with_exit":  withExitBuiltin(),
		"__pyobject__": pyObjectBuiltin(),
	}

	// Allowed modules are predeclared as plain globals, not just as
	// load()-able names: rewriteImports turns "import json" into a no-op
	// once it passes the allowlist check, on the assumption that the name
	// it would have bound is already here.
	for name, members := range modules {
		predeclared[name] = starlarkStringDictModule(name, members)
	}

	multiToolUse := starlarkStringDictModule("multi_tool_use", starlark.StringDict{
		"parallel": multiToolUseParallel(it.Registry),
	})
	predeclared["multi_tool_use"] = multiToolUse

	if it.Registry != nil {
		for _, name := range it.Registry.GetAllToolNames() {
			predeclared[name] = toolBuiltin(name, it.Registry)
		}
	}

	for key, val := range it.Namespace {
		sv, err := ToStarlark(val)
		if err != nil {
			return nil, fmt.Errorf("interpreter: namespace key %q: %w", key, err)
		}
		predeclared[key] = sv
	}

	return predeclared, nil
}

// Run executes source synchronously under ctx, honoring ctx cancellation by
// watching it from a side goroutine that calls thread.Cancel.
func (it *Interpreter) Run(ctx context.Context, name, source string) (result Result, err error) {
	predeclared, err := it.predeclared()
	if err != nil {
		return Result{}, err
	}

	source, err = Transpile(source)
	if err != nil {
		return Result{}, err
	}

	var stdout []string
	thread := &starlark.Thread{
		Name:  name,
		Print: printBuiltin(&stdout),
		Load:  loadModule,
	}
	thread.SetLocal(ctxLocalKey, ctx)
	if it.MaxSteps > 0 {
		thread.SetMaxExecutionSteps(it.MaxSteps)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel("context cancelled")
		case <-done:
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			signal, ok := r.(finalAnswerSignal)
			if !ok {
				panic(r)
			}
			result.Answer = signal.answer
			result.Terminal = true
			result.Stdout = stdout
			err = nil
		}
	}()

	globals, execErr := starlark.ExecFileOptions(fileOptions, thread, name, source, predeclared)
	if execErr != nil {
		return Result{Stdout: stdout}, execErr
	}

	return Result{
		Stdout:    stdout,
		Namespace: FromStarlarkDict(globals),
	}, nil
}

// starlarkStringDictModule builds a struct-like namespace value (e.g.
// multi_tool_use.parallel(...)) from a StringDict of members, grounded on
// go.starlark.net/starlarkstruct's module convention.
func starlarkStringDictModule(name string, members starlark.StringDict) starlark.Value {
	return &stringDictModule{name: name, members: members}
}

type stringDictModule struct {
	name    string
	members starlark.StringDict
}

func (m *stringDictModule) String() string        { return "<module '" + m.name + "'>" }
func (m *stringDictModule) Type() string           { return "module" }
func (m *stringDictModule) Freeze()                {}
func (m *stringDictModule) Truth() starlark.Bool   { return starlark.True }
func (m *stringDictModule) Hash() (uint32, error)  { return 0, fmt.Errorf("unhashable: module") }
func (m *stringDictModule) Attr(name string) (starlark.Value, error) {
	if v, ok := m.members[name]; ok {
		return v, nil
	}
	return nil, nil
}
func (m *stringDictModule) AttrNames() []string {
	names := make([]string, 0, len(m.members))
	for name := range m.members {
		names = append(names, name)
	}
	return names
}
