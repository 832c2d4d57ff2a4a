package interpreter

import (
	"strings"

	"go.starlark.net/starlark"
)

// pyException carries the (type, message) pair a transpiled raise
// statement constructs, giving an except clause something to
// pattern-match against — Starlark itself has no exception hierarchy, so
// this is the sandbox's stand-in for one.
type pyException struct {
	typ string
	msg string
}

func (e *pyException) Error() string {
	if e.msg == "" {
		return e.typ
	}
	return e.typ + ": " + e.msg
}

// classifyError turns any error a try-body might fail with into a
// (type, message) pair an except clause can match against. A *pyException
// from __raise is returned as-is; anything else (a Starlark runtime
// error, a failed tool call) is mapped onto the closest-matching Python
// exception name by inspecting its message, so "except ZeroDivisionError"
// and similar clauses catch Starlark's own runtime failures too, not just
// explicit raises.
func classifyError(err error) (typ, msg string) {
	if pe, ok := err.(*pyException); ok {
		return pe.typ, pe.msg
	}
	msg = err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "division by zero"):
		return "ZeroDivisionError", msg
	case strings.Contains(lower, "index out of range") || strings.Contains(lower, "out of bound"):
		return "IndexError", msg
	case strings.Contains(lower, "key not found") || strings.Contains(lower, "key error"):
		return "KeyError", msg
	case strings.Contains(lower, "no such attribute") || strings.Contains(lower, "has no field or method"):
		return "AttributeError", msg
	case strings.Contains(lower, "unsupported") || (strings.Contains(lower, "want") && strings.Contains(lower, "got")):
		return "TypeError", msg
	case strings.Contains(lower, "undefined"):
		return "NameError", msg
	default:
		return "Exception", msg
	}
}

func splitExcString(s string) (typ, msg string) {
	typ, msg, found := strings.Cut(s, ": ")
	if !found {
		return s, ""
	}
	return typ, msg
}

func raiseBuiltin() *starlark.Builtin {
	return starlark.NewBuiltin("__raise", func(
		thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple,
	) (starlark.Value, error) {
		var typ, msg string
		if err := starlark.UnpackArgs("__raise", args, kwargs, "typ", &typ, "msg?", &msg); err != nil {
			return nil, err
		}
		return nil, &pyException{typ: typ, msg: msg}
	})
}

func reraiseBuiltin() *starlark.Builtin {
	return starlark.NewBuiltin("__reraise", func(
		thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple,
	) (starlark.Value, error) {
		var exc starlark.Value
		if err := starlark.UnpackArgs("__reraise", args, kwargs, "exc", &exc); err != nil {
			return nil, err
		}
		s, ok := starlark.AsString(exc)
		if !ok {
			s = exc.String()
		}
		typ, msg := splitExcString(s)
		return nil, &pyException{typ: typ, msg: msg}
	})
}

// tryExecBuiltin is what every transpiled try statement compiles down to:
// __try_exec(body, handlers, else_fn, finally_fn), where handlers is a
// list of (exception_name_or_None, handler_fn) pairs. It runs body, and on
// error classifies it and calls the first matching handler (a None match
// name means a bare "except:"); finally_fn always runs, via Go's own defer
// ordering reimplemented explicitly since Starlark calls aren't Go defers.
func tryExecBuiltin() *starlark.Builtin {
	return starlark.NewBuiltin("__try_exec", func(
		thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple,
	) (starlark.Value, error) {
		var bodyFn, handlers, elseFn, finallyFn starlark.Value
		if err := starlark.UnpackArgs("__try_exec", args, kwargs,
			"body", &bodyFn, "handlers", &handlers, "else_fn", &elseFn, "finally_fn", &finallyFn,
		); err != nil {
			return nil, err
		}

		runFinally := func() error {
			if finallyFn == nil || finallyFn == starlark.None {
				return nil
			}
			_, err := starlark.Call(thread, finallyFn, nil, nil)
			return err
		}

		_, bodyErr := starlark.Call(thread, bodyFn, nil, nil)
		if bodyErr == nil && elseFn != nil && elseFn != starlark.None {
			_, bodyErr = starlark.Call(thread, elseFn, nil, nil)
		}

		if bodyErr != nil {
			typ, msg := classifyError(bodyErr)
			handled := false
			if iterable, ok := handlers.(starlark.Iterable); ok {
				iter := iterable.Iterate()
				var item starlark.Value
				for iter.Next(&item) {
					entry, ok := item.(starlark.Tuple)
					if !ok || len(entry) != 2 {
						continue
					}
					bare := entry[0] == starlark.None
					matchName, isStr := starlark.AsString(entry[0])
					if !bare && !isStr {
						continue
					}
					if bare || matchName == typ || matchName == "Exception" || matchName == "BaseException" {
						excVal := starlark.String(typ + ": " + msg)
						if msg == "" {
							excVal = starlark.String(typ)
						}
						_, callErr := starlark.Call(thread, entry[1], starlark.Tuple{excVal}, nil)
						bodyErr = callErr
						handled = true
						break
					}
				}
				iter.Done()
			}
			if !handled {
				if ferr := runFinally(); ferr != nil {
					return nil, ferr
				}
				return nil, bodyErr
			}
			if bodyErr != nil {
				if ferr := runFinally(); ferr != nil {
					return nil, ferr
				}
				return nil, bodyErr
			}
		}

		if err := runFinally(); err != nil {
			return nil, err
		}
		return starlark.None, nil
	})
}

// withEnterBuiltin and withExitBuiltin implement the __enter__/__exit__
// protocol a transpiled with-statement calls into (see transformWith in
// transpile.go). A context value without those methods (e.g. a plain
// dict used as a with-target) is passed through unchanged on enter and
// ignored on exit, a best-effort fallback for objects that aren't real
// context managers.
func withEnterBuiltin() *starlark.Builtin {
	return starlark.NewBuiltin("__with_enter", func(
		thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple,
	) (starlark.Value, error) {
		var ctx starlark.Value
		if err := starlark.UnpackArgs("__with_enter", args, kwargs, "ctx", &ctx); err != nil {
			return nil, err
		}
		if attrs, ok := ctx.(starlark.HasAttrs); ok {
			if enter, err := attrs.Attr("__enter__"); err == nil && enter != nil {
				return starlark.Call(thread, enter, nil, nil)
			}
		}
		return ctx, nil
	})
}

func withExitBuiltin() *starlark.Builtin {
	return starlark.NewBuiltin("__with_exit", func(
		thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple,
	) (starlark.Value, error) {
		var ctx starlark.Value
		if err := starlark.UnpackArgs("__with_exit", args, kwargs, "ctx", &ctx); err != nil {
			return nil, err
		}
		if attrs, ok := ctx.(starlark.HasAttrs); ok {
			if exit, err := attrs.Attr("__exit__"); err == nil && exit != nil {
				_, err := starlark.Call(thread, exit, starlark.Tuple{starlark.None, starlark.None, starlark.None}, nil)
				return starlark.None, err
			}
		}
		return starlark.None, nil
	})
}
