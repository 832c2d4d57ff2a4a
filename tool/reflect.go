package tool

import (
	"context"
	"fmt"
	"reflect"

	"github.com/reusee/minion/message"
)

// FromFunc builds a Descriptor from a raw Go func lacking a hand-written
// schema, inferring its message.ToolSchema from the function signature via
// reflection — grounded on the teacher's tailang.GoFunc
// (tailang/go_func.go), which already inspects reflect.Type to build a
// calling convention over arbitrary Go funcs; reused here for schema
// inference instead of calling convention, since the interpreter package
// handles its own calling convention separately.
//
// An optional leading context.Context is passed through; every other
// parameter, including a struct or map, is a positional argument named
// arg0, arg1, ... in the inferred schema. A map[string]any result is
// returned as is, any other result as {"result": value}.
func FromFunc(name, description string, fn any) (Descriptor, error) {
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return Descriptor{}, fmt.Errorf("tool: FromFunc requires a function, got %s", t.Kind())
	}

	hasCtx := t.NumIn() > 0 && t.In(0) == reflect.TypeOf((*context.Context)(nil)).Elem()
	start := 0
	if hasCtx {
		start = 1
	}

	inputs := make(map[string]message.ToolSchema)
	var argNames []string
	for i := start; i < t.NumIn(); i++ {
		argName := fmt.Sprintf("arg%d", i-start)
		argNames = append(argNames, argName)
		inputs[argName] = message.ToolSchema{
			Name: argName,
			Type: goKindToSchemaType(t.In(i).Kind()),
		}
	}

	outputType := "object"
	if t.NumOut() > 0 {
		outputType = goKindToSchemaType(t.Out(0).Kind())
	}

	call := func(ctx context.Context, args map[string]any) (map[string]any, error) {
		in := make([]reflect.Value, 0, t.NumIn())
		if hasCtx {
			in = append(in, reflect.ValueOf(ctx))
		}
		for i, argName := range argNames {
			paramType := t.In(start + i)
			val, ok := args[argName]
			if !ok {
				in = append(in, reflect.Zero(paramType))
				continue
			}
			rv := reflect.ValueOf(val)
			if rv.Type().ConvertibleTo(paramType) {
				rv = rv.Convert(paramType)
			}
			in = append(in, rv)
		}

		out := v.Call(in)
		return reflectResultsToMap(out)
	}

	return Descriptor{
		ToolDescriptor: message.ToolDescriptor{
			Name:        name,
			Description: description,
			Inputs:      inputs,
			OutputType:  outputType,
		},
		Call: call,
	}, nil
}

func reflectResultsToMap(out []reflect.Value) (map[string]any, error) {
	var result any
	var err error
	errType := reflect.TypeOf((*error)(nil)).Elem()
	for _, rv := range out {
		if rv.Type() == errType {
			if !rv.IsNil() {
				err = rv.Interface().(error)
			}
			continue
		}
		result = rv.Interface()
	}
	if err != nil {
		return nil, err
	}
	if m, ok := result.(map[string]any); ok {
		return m, nil
	}
	return map[string]any{"result": result}, nil
}

func goKindToSchemaType(kind reflect.Kind) string {
	switch kind {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "bool"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "int"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct, reflect.Ptr, reflect.Interface:
		return "object"
	default:
		return "object"
	}
}
