package registry

import (
	"fmt"
	"reflect"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Param describes one formal parameter of a callable.
type Param struct {
	Index int
	Type  reflect.Type
	// Class is the declared type used for type-affinity matching and
	// resolution: a pointer to a named type, or a non-empty interface. It is
	// nil for every other parameter type.
	Class reflect.Type
	// Nullable parameters accept a nil runtime value during matching.
	Nullable bool
	// Variadic is set on the last parameter of a variadic function. Its Type
	// is the slice type.
	Variadic   bool
	Default    reflect.Value
	HasDefault bool
}

// Callable is a reflected function with precomputed parameter metadata.
type Callable struct {
	Fn     reflect.Value
	Params []Param
	// Skip is the number of leading parameters filled by the caller rather
	// than the binder: 1 for an initializer's handle, 0 otherwise.
	Skip       int
	ReturnsErr bool
}

// NewCallable reflects fn. The first skip parameters are excluded from
// Params.
func NewCallable(fn reflect.Value, skip int) *Callable {
	ft := fn.Type()
	c := &Callable{Fn: fn, Skip: skip}
	if n := ft.NumOut(); n > 0 && ft.Out(n-1) == errorType {
		c.ReturnsErr = true
	}
	for i := skip; i < ft.NumIn(); i++ {
		pt := ft.In(i)
		p := Param{
			Index:    i - skip,
			Type:     pt,
			Class:    classOf(pt),
			Nullable: nullable(pt),
			Variadic: ft.IsVariadic() && i == ft.NumIn()-1,
		}
		c.Params = append(c.Params, p)
	}
	return c
}

// Variadic reports whether the last parameter is variadic.
func (c *Callable) Variadic() bool {
	return c.Fn.Type().IsVariadic()
}

// Call invokes the function with already bound arguments. lead holds the
// skipped leading arguments. When the function is variadic the last bound
// argument is the slice for the variadic parameter.
func (c *Callable) Call(lead []reflect.Value, args []reflect.Value) ([]reflect.Value, error) {
	in := make([]reflect.Value, 0, len(lead)+len(args))
	in = append(in, lead...)
	in = append(in, args...)

	var out []reflect.Value
	if c.Variadic() {
		out = c.Fn.CallSlice(in)
	} else {
		out = c.Fn.Call(in)
	}
	if c.ReturnsErr {
		last := out[len(out)-1]
		out = out[:len(out)-1]
		if !last.IsNil() {
			return out, last.Interface().(error)
		}
	}
	return out, nil
}

// setDefault attaches a default value to the parameter at index.
func (c *Callable) setDefault(index int, v any) {
	if index < 0 || index >= len(c.Params) {
		panic(fmt.Sprintf("default for parameter %d of %s is out of range", index, c.Fn.Type()))
	}
	p := &c.Params[index]
	rv, ok := assignable(v, p.Type)
	if !ok {
		panic(fmt.Sprintf("default %T is not assignable to parameter %d (%s) of %s", v, index, p.Type, c.Fn.Type()))
	}
	p.Default = rv
	p.HasDefault = true
}

// classOf returns the declared class of a parameter type, or nil.
func classOf(t reflect.Type) reflect.Type {
	switch t.Kind() {
	case reflect.Pointer:
		if t.Elem().Name() != "" && t.Elem().Kind() != reflect.Pointer {
			return t
		}
	case reflect.Interface:
		if t.NumMethod() > 0 {
			return t
		}
	}
	return nil
}

func nullable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

// assignable converts v to t when Go allows assignment or a lossless
// conversion between basic kinds of the same family.
func assignable(v any, t reflect.Type) (reflect.Value, bool) {
	if v == nil {
		if nullable(t) {
			return reflect.Zero(t), true
		}
		return reflect.Value{}, false
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, true
	}
	if rv.Kind() == t.Kind() && rv.Type().ConvertibleTo(t) {
		return rv.Convert(t), true
	}
	return reflect.Value{}, false
}
