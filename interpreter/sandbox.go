package interpreter

import (
	"maps"
	"slices"

	"go.starlark.net/lib/json"
	mathlib "go.starlark.net/lib/math"
	timelib "go.starlark.net/lib/time"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// fileOptions mirrors the teacher's taipy.fileOptions (taipy/compile.go):
// Starlark's dialect enabled with set literals, while loops, and
// top-level control flow so scripts read like ordinary Python rather than
// Starlark's stricter build-language subset.
var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
}

// modules is the fixed set of standard-library-ish modules a script may
// `load()`, keyed by the name scripts use. Anything not listed here is
// refused by the sandbox's Load callback — this is the import allowlist.
var modules = map[string]starlark.StringDict{
	"json": json.Module.Members,
	"math": mathlib.Module.Members,
	"time": timelib.Module.Members,
}

// ErrImportNotAllowed is returned, wrapped with the offending module name,
// when a script attempts to load() a module outside the allowlist via
// Starlark's own load statement. A real Python "import" statement never
// reaches this path at all — rewriteImports (imports.go) checks the
// allowlist itself during transpilation and fails with
// ImportNotAllowedError's identical message before the script is ever
// handed to the Starlark parser; this path only covers scripts that use
// load(...) directly.
type ErrImportNotAllowed struct {
	Module string
}

func (e *ErrImportNotAllowed) Error() string {
	return "InterpreterError: import not allowed: " + e.Module
}

func loadModule(thread *starlark.Thread, module string) (starlark.StringDict, error) {
	members, ok := modules[module]
	if !ok {
		return nil, &ErrImportNotAllowed{Module: module}
	}
	return members, nil
}

// AllowedModules returns the sorted names of modules importable by any
// Interpreter, for diagnostics and for listing to a model in a system
// prompt describing the sandbox's capabilities.
func AllowedModules() []string {
	names := slices.Collect(maps.Keys(modules))
	slices.Sort(names)
	return names
}
