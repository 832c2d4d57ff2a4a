// Package interpreter runs sandboxed Python-like code against the shared
// tool surface. Grounded directly on the teacher's own scripting stack:
// taipy/compile.go already parses source with go.starlark.net/syntax, and
// debugs/starlark.go already marshals arbitrary Go values to starlark.Value
// for injection into a script's globals. This package generalizes that
// marshaling helper into a two-way bridge and adds the sandboxing a
// code-execution tool needs: an execution-step budget, an import allowlist,
// and a final_answer escape hatch, none of which the debug REPL required.
package interpreter

import (
	"fmt"
	"reflect"

	"github.com/reusee/starlarkutil"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// ToStarlark converts an arbitrary Go value into a starlark.Value, the same
// way debugs.toStarlarkValue does, plus a reflect.Func case routed through
// starlarkutil.MakeFunc so tool.Descriptor.Call funcs can be injected
// directly as callables.
func ToStarlark(v any) (starlark.Value, error) {
	switch v := v.(type) {

	case nil:
		return starlark.None, nil
	case starlark.Value:
		return v, nil
	case bool:
		return starlark.Bool(v), nil
	case []byte:
		return starlark.Bytes(v), nil
	case string:
		return starlark.String(v), nil

	case int:
		return starlark.MakeInt(v), nil
	case int64:
		return starlark.MakeInt64(v), nil
	case float64:
		return starlark.Float(v), nil
	case float32:
		return starlark.Float(v), nil

	case []any:
		elems := make([]starlark.Value, len(v))
		for i, e := range v {
			sv, err := ToStarlark(e)
			if err != nil {
				return nil, err
			}
			elems[i] = sv
		}
		return starlark.NewList(elems), nil

	case map[string]any:
		d := starlark.NewDict(len(v))
		for k, val := range v {
			sv, err := ToStarlark(val)
			if err != nil {
				return nil, err
			}
			if err := d.SetKey(starlark.String(k), sv); err != nil {
				return nil, err
			}
		}
		return d, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {

	case reflect.Slice, reflect.Array:
		n := rv.Len()
		elems := make([]starlark.Value, n)
		for i := range n {
			sv, err := ToStarlark(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			elems[i] = sv
		}
		return starlark.NewList(elems), nil

	case reflect.Map:
		d := starlark.NewDict(rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			kv, err := ToStarlark(iter.Key().Interface())
			if err != nil {
				return nil, err
			}
			vv, err := ToStarlark(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			if err := d.SetKey(kv, vv); err != nil {
				return nil, err
			}
		}
		return d, nil

	case reflect.Struct:
		fields := starlark.StringDict{}
		typ := rv.Type()
		for i := range rv.NumField() {
			f := typ.Field(i)
			if !f.IsExported() {
				continue
			}
			sv, err := ToStarlark(rv.Field(i).Interface())
			if err != nil {
				return nil, err
			}
			fields[f.Name] = sv
		}
		return starlarkstruct.FromStringDict(starlarkstruct.Default, fields), nil

	case reflect.Func:
		return starlarkutil.MakeFunc("", v), nil

	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return starlark.None, nil
		}
		return ToStarlark(rv.Elem().Interface())
	}

	return nil, fmt.Errorf("interpreter: cannot convert %T to starlark value", v)
}

// FromStarlark converts a starlark.Value back into a plain Go value (nil,
// bool, int64/float64, string, []any, map[string]any), the shape
// message.ToolResult and friends expect.
func FromStarlark(v starlark.Value) (any, error) {
	switch v := v.(type) {

	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(v), nil
	case starlark.String:
		return string(v), nil
	case starlark.Bytes:
		return []byte(v), nil

	case starlark.Int:
		if i, ok := v.Int64(); ok {
			return i, nil
		}
		f := v.Float()
		return float64(f), nil

	case starlark.Float:
		return float64(v), nil

	case *starlark.List:
		out := make([]any, 0, v.Len())
		for i := range v.Len() {
			elem, err := FromStarlark(v.Index(i))
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
		}
		return out, nil

	case starlark.Tuple:
		out := make([]any, 0, len(v))
		for _, elem := range v {
			ev, err := FromStarlark(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, ev)
		}
		return out, nil

	case *starlark.Dict:
		out := make(map[string]any, v.Len())
		for _, item := range v.Items() {
			key, ok := starlark.AsString(item[0])
			if !ok {
				key = item[0].String()
			}
			val, err := FromStarlark(item[1])
			if err != nil {
				return nil, err
			}
			out[key] = val
		}
		return out, nil

	case *starlark.Set:
		out := make([]any, 0, v.Len())
		iter := v.Iterate()
		defer iter.Done()
		var elem starlark.Value
		for iter.Next(&elem) {
			ev, err := FromStarlark(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, ev)
		}
		return out, nil

	case *starlarkstruct.Struct:
		out := make(map[string]any)
		for _, name := range v.AttrNames() {
			attr, err := v.Attr(name)
			if err != nil {
				return nil, err
			}
			av, err := FromStarlark(attr)
			if err != nil {
				return nil, err
			}
			out[name] = av
		}
		return out, nil

	default:
		return v.String(), nil
	}
}

// FromStarlarkDict converts a starlark.StringDict (e.g. a module's globals
// after exec) into a plain map[string]any, skipping unconvertible values
// rather than failing the whole namespace dump.
func FromStarlarkDict(d starlark.StringDict) map[string]any {
	out := make(map[string]any, len(d))
	for name, v := range d {
		gv, err := FromStarlark(v)
		if err != nil {
			continue
		}
		out[name] = gv
	}
	return out
}
