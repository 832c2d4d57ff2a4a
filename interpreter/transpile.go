package interpreter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Transpile turns agent-authored, Python-flavored source into valid
// Starlark source. go.starlark.net is a deliberately restricted dialect:
// it has no try/except/finally/raise, no class statement, no with
// statement, no f-strings, and no import statement (only load()). Rather
// than silently dropping those five forms (spec.md §4.4 lists all of them
// as required evaluator features), this rewrites them into constructs
// Starlark can run: try/except/finally become calls to the __try_exec
// builtin around generated closures, class becomes a constructor function
// building a __pyobject__ instance, with reuses the try/finally machinery,
// and f-strings/imports are rewritten by separate character- and
// line-level passes before the block rewrite runs.
//
// The three passes run in this order because each narrows what the next
// one has to parse: imports and f-strings are resolved textually first so
// the indentation-aware block pass below only has to reason about
// statement structure, not string or import syntax.
func Transpile(source string) (string, error) {
	source, err := rewriteImports(source)
	if err != nil {
		return "", err
	}
	source, err = rewriteFStrings(source)
	if err != nil {
		return "", err
	}
	t := &transpiler{}
	lines := splitPyLines(source)
	out, next, err := t.transformSuite(lines, 0, 0)
	if err != nil {
		return "", err
	}
	if next < len(lines) {
		// a dedent below the top level reached EOF early; shouldn't happen
		// for well-formed input, but fall back to appending the remainder
		// untouched rather than silently dropping it.
		for _, ln := range lines[next:] {
			out = append(out, strings.Repeat(" ", ln.indent)+ln.text)
		}
	}
	return strings.Join(out, "\n"), nil
}

type pyLine struct {
	indent int
	text   string
}

func splitPyLines(source string) []pyLine {
	raw := strings.Split(source, "\n")
	out := make([]pyLine, len(raw))
	for i, l := range raw {
		expanded := strings.ReplaceAll(l, "\t", "    ")
		trimmed := strings.TrimLeft(expanded, " ")
		out[i] = pyLine{indent: len(expanded) - len(trimmed), text: trimmed}
	}
	return out
}

func isBlankOrComment(text string) bool {
	return text == "" || strings.HasPrefix(text, "#")
}

// findBodyIndent returns the indent of the first non-blank, non-comment
// line at or after pos, used to discover how deeply a block's body is
// indented relative to its header. Returns parentIndent+4 if the block
// appears to have no body at all (defensive; well-formed Python always has
// one).
func findBodyIndent(lines []pyLine, pos int, parentIndent int) int {
	for i := pos; i < len(lines); i++ {
		if isBlankOrComment(lines[i].text) {
			continue
		}
		if lines[i].indent > parentIndent {
			return lines[i].indent
		}
		break
	}
	return parentIndent + 4
}

// reindent shifts every non-blank line's leading spaces by toIndent minus
// fromIndent, used whenever a sub-suite's already-transformed output is
// relocated into newly synthesized structure (a generated def body nested
// one or two levels deeper than its source position).
func reindent(out []string, fromIndent, toIndent int) []string {
	delta := toIndent - fromIndent
	result := make([]string, len(out))
	for i, l := range out {
		if strings.TrimSpace(l) == "" {
			result[i] = l
			continue
		}
		cur := len(l) - len(strings.TrimLeft(l, " "))
		next := cur + delta
		if next < 0 {
			next = 0
		}
		result[i] = strings.Repeat(" ", next) + strings.TrimLeft(l, " ")
	}
	return result
}

type transpiler struct {
	gensym   int
	excStack []string
}

func (t *transpiler) next() int {
	t.gensym++
	return t.gensym
}

// transformSuite processes every statement at exactly `indent` starting at
// pos, stopping at the first dedent (or EOF). Blank/comment lines pass
// through untouched.
func (t *transpiler) transformSuite(lines []pyLine, pos int, indent int) ([]string, int, error) {
	var out []string
	for pos < len(lines) {
		ln := lines[pos]
		if isBlankOrComment(ln.text) {
			out = append(out, strings.Repeat(" ", ln.indent)+ln.text)
			pos++
			continue
		}
		if ln.indent < indent {
			break
		}
		if ln.indent > indent {
			// a deeper line than expected at this position means the
			// caller mis-measured the suite's indent; stop rather than
			// mis-transform.
			break
		}
		stmtOut, next, err := t.transformStatement(lines, pos, indent)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, stmtOut...)
		pos = next
	}
	return out, pos, nil
}

var (
	classRe  = regexp.MustCompile(`^class\s+([A-Za-z_][A-Za-z0-9_]*)\s*(?:\([^)]*\))?\s*:$`)
	withRe   = regexp.MustCompile(`^with\s+(.+?)(?:\s+as\s+([A-Za-z_][A-Za-z0-9_]*))?\s*:$`)
	exceptRe = regexp.MustCompile(`^except(?:\s+([A-Za-z_][A-Za-z0-9_.]*))?(?:\s+as\s+([A-Za-z_][A-Za-z0-9_]*))?\s*:$`)
	defSigRe = regexp.MustCompile(`^def\s+([A-Za-z_][A-Za-z0-9_]*)\s*\((.*)\)\s*:$`)
	assignRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.+)$`)
)

func (t *transpiler) transformStatement(lines []pyLine, pos int, indent int) ([]string, int, error) {
	ln := lines[pos]
	text := ln.text
	prefix := strings.Repeat(" ", ln.indent)

	switch {
	case strings.HasPrefix(text, "raise") && (text == "raise" || strings.HasPrefix(text, "raise ") || strings.HasPrefix(text, "raise(")):
		repl, err := t.transformRaise(text)
		if err != nil {
			return nil, 0, err
		}
		return []string{prefix + repl}, pos + 1, nil

	case text == "try:":
		return t.transformTry(lines, pos, indent)

	case withRe.MatchString(text):
		return t.transformWith(lines, pos, indent)

	case classRe.MatchString(text):
		return t.transformClass(lines, pos, indent)

	default:
		if strings.HasSuffix(text, ":") {
			bodyIndent := findBodyIndent(lines, pos+1, indent)
			bodyOut, next, err := t.transformSuite(lines, pos+1, bodyIndent)
			if err != nil {
				return nil, 0, err
			}
			out := append([]string{prefix + text}, bodyOut...)
			return out, next, nil
		}
		return []string{prefix + text}, pos + 1, nil
	}
}

// transformTry rewrites a try/except*/else?/finally? statement into a
// sequence of generated closures plus one call to the __try_exec builtin,
// since Starlark's grammar has no exception-handling statement at all for
// this to desugar into directly.
func (t *transpiler) transformTry(lines []pyLine, pos int, indent int) ([]string, int, error) {
	ip := strings.Repeat(" ", indent)
	bodyIndent := findBodyIndent(lines, pos+1, indent)
	bodyOut, p, err := t.transformSuite(lines, pos+1, bodyIndent)
	if err != nil {
		return nil, 0, err
	}

	id := t.next()
	bodyFn := fmt.Sprintf("__try_body_%d__", id)
	out := []string{ip + "def " + bodyFn + "():"}
	out = append(out, reindent(bodyOut, bodyIndent, indent+4)...)

	var handlerEntries []string
	elseFn := ""
	finallyFn := ""

	for p < len(lines) {
		ln := lines[p]
		if isBlankOrComment(ln.text) {
			p++
			continue
		}
		if ln.indent != indent {
			break
		}
		text := ln.text

		if m := exceptRe.FindStringSubmatch(text); m != nil && strings.HasPrefix(text, "except") {
			varName := m[2]
			param := varName
			if param == "" {
				param = "__exc__"
			}
			cbi := findBodyIndent(lines, p+1, indent)
			t.excStack = append(t.excStack, param)
			cOut, next, err := t.transformSuite(lines, p+1, cbi)
			t.excStack = t.excStack[:len(t.excStack)-1]
			if err != nil {
				return nil, 0, err
			}
			hid := t.next()
			hname := fmt.Sprintf("__except_%d__", hid)
			out = append(out, ip+"def "+hname+"("+param+"):")
			out = append(out, reindent(cOut, cbi, indent+4)...)
			matchLit := "None"
			if m[1] != "" {
				matchLit = strconv.Quote(m[1])
			}
			handlerEntries = append(handlerEntries, "("+matchLit+", "+hname+")")
			p = next
			continue
		}

		if text == "else:" {
			cbi := findBodyIndent(lines, p+1, indent)
			cOut, next, err := t.transformSuite(lines, p+1, cbi)
			if err != nil {
				return nil, 0, err
			}
			eid := t.next()
			elseFn = fmt.Sprintf("__try_else_%d__", eid)
			out = append(out, ip+"def "+elseFn+"():")
			out = append(out, reindent(cOut, cbi, indent+4)...)
			p = next
			continue
		}

		if text == "finally:" {
			cbi := findBodyIndent(lines, p+1, indent)
			cOut, next, err := t.transformSuite(lines, p+1, cbi)
			if err != nil {
				return nil, 0, err
			}
			fid := t.next()
			finallyFn = fmt.Sprintf("__try_finally_%d__", fid)
			out = append(out, ip+"def "+finallyFn+"():")
			out = append(out, reindent(cOut, cbi, indent+4)...)
			p = next
			continue
		}

		break
	}

	handlersLit := "[" + strings.Join(handlerEntries, ", ") + "]"
	elseLit := "None"
	if elseFn != "" {
		elseLit = elseFn
	}
	finallyLit := "None"
	if finallyFn != "" {
		finallyLit = finallyFn
	}
	out = append(out, fmt.Sprintf("%s__try_exec(%s, %s, %s, %s)", ip, bodyFn, handlersLit, elseLit, finallyLit))

	return out, p, nil
}

// transformWith rewrites a with-statement into context-entry/exit calls
// built on the same __try_exec machinery as transformTry, so __exit__ runs
// even if the body raises.
func (t *transpiler) transformWith(lines []pyLine, pos int, indent int) ([]string, int, error) {
	ip := strings.Repeat(" ", indent)
	m := withRe.FindStringSubmatch(lines[pos].text)
	exprText := strings.TrimSpace(m[1])
	varName := m[2]

	bodyIndent := findBodyIndent(lines, pos+1, indent)
	bodyOut, next, err := t.transformSuite(lines, pos+1, bodyIndent)
	if err != nil {
		return nil, 0, err
	}

	id := t.next()
	ctxVar := fmt.Sprintf("__ctx_%d__", id)
	bodyFn := fmt.Sprintf("__with_body_%d__", id)

	var out []string
	out = append(out, ip+ctxVar+" = "+exprText)
	if varName != "" {
		out = append(out, ip+varName+" = __with_enter("+ctxVar+")")
	} else {
		out = append(out, ip+"__with_enter("+ctxVar+")")
	}
	out = append(out, ip+"def "+bodyFn+"():")
	out = append(out, reindent(bodyOut, bodyIndent, indent+4)...)
	out = append(out, ip+"__try_exec("+bodyFn+", [], None, lambda: __with_exit("+ctxVar+"))")
	return out, next, nil
}

// transformClass rewrites a class statement into a constructor function
// that builds a __pyobject__ instance: each method becomes a nested
// closure bound onto the instance as an attribute (so instance.method()
// call syntax works natively via starlark.HasSetField), and __init__'s
// body is inlined directly so it can reference both self and the
// already-bound methods.
func (t *transpiler) transformClass(lines []pyLine, pos int, indent int) ([]string, int, error) {
	ip := strings.Repeat(" ", indent)
	m := classRe.FindStringSubmatch(lines[pos].text)
	className := m[1]

	bodyIndent := findBodyIndent(lines, pos+1, indent)
	p := pos + 1

	var preludeOut []string
	var methodDefOut []string
	var methodBindOut []string
	var initBodyOut []string
	var initParams []string

	for p < len(lines) {
		ln := lines[p]
		if isBlankOrComment(ln.text) {
			p++
			continue
		}
		if ln.indent < bodyIndent {
			break
		}
		if ln.indent > bodyIndent {
			p++
			continue
		}
		text := ln.text

		if sig := defSigRe.FindStringSubmatch(text); sig != nil {
			methodName := sig[1]
			params := dropSelf(splitParams(sig[2]))
			methodBodyIndent := findBodyIndent(lines, p+1, ln.indent)
			mOut, next, err := t.transformSuite(lines, p+1, methodBodyIndent)
			if err != nil {
				return nil, 0, err
			}
			if methodName == "__init__" {
				initParams = params
				initBodyOut = reindent(mOut, methodBodyIndent, indent+4)
			} else {
				genName := fmt.Sprintf("__m_%s_%d__", methodName, t.next())
				methodDefOut = append(methodDefOut, ip+"    def "+genName+"("+strings.Join(params, ", ")+"):")
				methodDefOut = append(methodDefOut, reindent(mOut, methodBodyIndent, indent+8)...)
				methodBindOut = append(methodBindOut, ip+"    self."+methodName+" = "+genName)
			}
			p = next
			continue
		}

		if mm := assignRe.FindStringSubmatch(text); mm != nil {
			preludeOut = append(preludeOut, ip+"    self."+mm[1]+" = "+mm[2])
		}
		p++
	}

	var out []string
	out = append(out, ip+"def "+className+"("+strings.Join(initParams, ", ")+"):")
	out = append(out, ip+"    self = __pyobject__()")
	out = append(out, preludeOut...)
	out = append(out, methodDefOut...)
	out = append(out, methodBindOut...)
	out = append(out, initBodyOut...)
	out = append(out, ip+"    return self")
	return out, p, nil
}

func splitParams(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	parts := strings.Split(text, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func dropSelf(params []string) []string {
	if len(params) > 0 && params[0] == "self" {
		return params[1:]
	}
	return params
}

var (
	raiseCallRe     = regexp.MustCompile(`^raise\s+([A-Za-z_][A-Za-z0-9_]*)\s*\((.*)\)\s*$`)
	raiseBareTypeRe = regexp.MustCompile(`^raise\s+([A-Za-z_][A-Za-z0-9_]*)\s*$`)
)

// transformRaise rewrites a raise statement into a call to the __raise or
// __reraise builtin. Starlark builtins can only signal failure with a Go
// error, which is exactly what __raise returns — that error then
// propagates up through starlark.Call frames until the nearest __try_exec
// catches it, giving real unwind-to-nearest-handler semantics without
// Starlark needing an exception type of its own.
func (t *transpiler) transformRaise(text string) (string, error) {
	text = strings.TrimSpace(text)

	if text == "raise" {
		if len(t.excStack) > 0 {
			return "__reraise(" + t.excStack[len(t.excStack)-1] + ")", nil
		}
		return `__raise("RuntimeError", "No active exception to reraise")`, nil
	}

	if m := raiseCallRe.FindStringSubmatch(text); m != nil {
		typ := m[1]
		argsExpr := strings.TrimSpace(m[2])
		msgExpr := `""`
		if argsExpr != "" {
			msgExpr = "str((" + argsExpr + ",)[0])"
		}
		return "__raise(" + strconv.Quote(typ) + ", " + msgExpr + ")", nil
	}

	if m := raiseBareTypeRe.FindStringSubmatch(text); m != nil {
		name := m[1]
		if len(t.excStack) > 0 && name == t.excStack[len(t.excStack)-1] {
			return "__reraise(" + name + ")", nil
		}
		return "__raise(" + strconv.Quote(name) + `, "")`, nil
	}

	rest := strings.TrimSpace(strings.TrimPrefix(text, "raise"))
	if idx := strings.Index(rest, " from "); idx >= 0 {
		rest = strings.TrimSpace(rest[:idx])
	}
	if rest == "" {
		return `__raise("RuntimeError", "No active exception to reraise")`, nil
	}
	return `__raise("Exception", str(` + rest + `))`, nil
}
