package interpreter

import (
	"fmt"
	"sort"

	"go.starlark.net/starlark"
)

// PyObject backs the instances a transpiled class statement constructs
// (see transformClass in transpile.go). Starlark has no class statement
// and no notion of a mutable attribute-bearing value in its standard
// library, but go.starlark.net's starlark.HasSetField interface exists
// precisely for types that want `x.field = value` assignment syntax, so a
// generated constructor's `self = __pyobject__()` plus native attribute
// access/assignment is enough to give transpiled classes real self.x
// semantics without any further rewriting of method bodies.
type PyObject struct {
	fields map[string]starlark.Value
	frozen bool
}

func newPyObject() *PyObject {
	return &PyObject{fields: map[string]starlark.Value{}}
}

var (
	_ starlark.Value       = (*PyObject)(nil)
	_ starlark.HasAttrs    = (*PyObject)(nil)
	_ starlark.HasSetField = (*PyObject)(nil)
)

func (o *PyObject) String() string       { return fmt.Sprintf("<object %p>", o) }
func (o *PyObject) Type() string         { return "object" }
func (o *PyObject) Truth() starlark.Bool { return starlark.True }
func (o *PyObject) Hash() (uint32, error) {
	return 0, fmt.Errorf("unhashable type: object")
}

func (o *PyObject) Freeze() {
	if o.frozen {
		return
	}
	o.frozen = true
	for _, v := range o.fields {
		v.Freeze()
	}
}

func (o *PyObject) Attr(name string) (starlark.Value, error) {
	if v, ok := o.fields[name]; ok {
		return v, nil
	}
	return nil, nil
}

func (o *PyObject) AttrNames() []string {
	names := make([]string, 0, len(o.fields))
	for name := range o.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (o *PyObject) SetField(name string, val starlark.Value) error {
	if o.frozen {
		return fmt.Errorf("cannot set field %q on a frozen object", name)
	}
	o.fields[name] = val
	return nil
}

func pyObjectBuiltin() *starlark.Builtin {
	return starlark.NewBuiltin("__pyobject__", func(
		thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple,
	) (starlark.Value, error) {
		return newPyObject(), nil
	})
}
