package interpreter

import (
	"regexp"
	"strings"
)

// importRe and fromImportRe recognize real Python import statements, which
// go.starlark.net's parser has no grammar for at all (Starlark only knows
// load(module, name)). rewriteImports runs before the script ever reaches
// the Starlark parser, turning these into either a no-op (the module's
// members are already predeclared globals, see Interpreter.predeclared) or
// a plain assignment, and rejecting anything outside the sandbox's
// allowlist with the exact error text spec.md's import invariant requires.
var (
	importRe     = regexp.MustCompile(`^import\s+([A-Za-z_][A-Za-z0-9_.]*)\s*(?:as\s+([A-Za-z_][A-Za-z0-9_]*))?$`)
	fromImportRe = regexp.MustCompile(`^from\s+([A-Za-z_][A-Za-z0-9_.]*)\s+import\s+(.+)$`)
)

// ImportNotAllowedError is returned when a script imports a module outside
// the sandbox's allowlist (spec.md §4.4/§8 invariant 3). Its Error text is
// the exact string the invariant names, so a caller checking a script's
// failure message doesn't need to unwrap anything.
type ImportNotAllowedError struct {
	Module string
}

func (e *ImportNotAllowedError) Error() string {
	return "InterpreterError: import not allowed: " + e.Module
}

func moduleAllowed(name string) bool {
	base, _, _ := strings.Cut(name, ".")
	_, ok := modules[base]
	return ok
}

// rewriteImports scans source line by line for import/from-import
// statements and rewrites them in place, preserving line count and
// indentation so later passes (and any error line numbers) stay aligned
// with the original source.
func rewriteImports(source string) (string, error) {
	lines := strings.Split(source, "\n")
	for i, raw := range lines {
		indent := raw[:len(raw)-len(strings.TrimLeft(raw, " \t"))]
		trimmed := strings.TrimSpace(raw)

		if m := importRe.FindStringSubmatch(trimmed); m != nil {
			module, alias := m[1], m[2]
			if !moduleAllowed(module) {
				return "", &ImportNotAllowedError{Module: module}
			}
			if alias != "" {
				lines[i] = indent + alias + " = " + module
			} else {
				lines[i] = indent + "pass"
			}
			continue
		}

		if m := fromImportRe.FindStringSubmatch(trimmed); m != nil {
			module, names := m[1], m[2]
			if !moduleAllowed(module) {
				return "", &ImportNotAllowedError{Module: module}
			}
			parts := strings.Split(names, ",")
			assigns := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p == "" {
					continue
				}
				name, alias, hasAlias := strings.Cut(p, " as ")
				name = strings.TrimSpace(name)
				target := name
				if hasAlias {
					target = strings.TrimSpace(alias)
				}
				assigns = append(assigns, target+" = "+module+"."+name)
			}
			if len(assigns) == 0 {
				lines[i] = indent + "pass"
			} else {
				lines[i] = indent + strings.Join(assigns, "; ")
			}
			continue
		}
	}
	return strings.Join(lines, "\n"), nil
}
