package container

import (
	"fmt"
	"reflect"

	"github.com/specialistvlad/objgraph/internal/registry"
	"github.com/specialistvlad/objgraph/internal/rules"
)

// expand resolves a spec into a value. Descriptors are built, composites are
// copied with their elements expanded, and bare names are resolved only when
// force is set. Everything else is returned unchanged.
func (c *Container) expand(spec any, share []any, force bool) (any, error) {
	switch v := spec.(type) {
	case *rules.Descriptor:
		if v == nil {
			return nil, nil
		}
		args, err := c.expandList(v.Args, nil, false)
		if err != nil {
			return nil, err
		}
		return c.dispatch(v.Target, args, share)
	case rules.Name:
		if force {
			return c.get(string(v), nil, nil)
		}
		return string(v), nil
	case string:
		if force {
			return c.get(v, nil, nil)
		}
		return v, nil
	case []any:
		return c.expandList(v, share, false)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			x, err := c.expand(e, share, false)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = x
		}
		return out, nil
	default:
		return spec, nil
	}
}

// expandList expands every element into a new slice. A nil list stays nil.
func (c *Container) expandList(list []any, share []any, force bool) ([]any, error) {
	if list == nil {
		return nil, nil
	}
	out := make([]any, len(list))
	for i, e := range list {
		x, err := c.expand(e, share, force)
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return out, nil
}

// dispatch builds a descriptor's target from already expanded args.
func (c *Container) dispatch(target rules.Target, args, share []any) (any, error) {
	switch t := target.(type) {
	case rules.Name:
		return c.get(string(t), concat(args, share), nil)
	case rules.Func:
		if t == nil {
			return nil, fmt.Errorf("%w: nil function", ErrNotInvocable)
		}
		return t(args...)
	case *rules.Descriptor:
		resolved, err := c.expand(t, share, true)
		if err != nil {
			return nil, err
		}
		return c.invoke(resolved, args, share)
	case nil:
		return nil, fmt.Errorf("%w: descriptor without target", ErrNotInvocable)
	default:
		return nil, fmt.Errorf("%w: %T", ErrNotInvocable, target)
	}
}

// invoke calls a target produced by a nested descriptor. Functions are
// called with args, names are resolved, anything else is rejected.
func (c *Container) invoke(resolved any, args, share []any) (any, error) {
	switch r := resolved.(type) {
	case rules.Func:
		return r(args...)
	case func(...any) (any, error):
		return r(args...)
	case string:
		return c.get(r, concat(args, share), nil)
	case rules.Name:
		return c.get(string(r), concat(args, share), nil)
	}

	fv := reflect.ValueOf(resolved)
	if fv.Kind() != reflect.Func || fv.IsNil() {
		return nil, fmt.Errorf("%w: %T", ErrNotInvocable, resolved)
	}
	fn := registry.NewCallable(fv, 0)
	in, err := positional(fn, args)
	if err != nil {
		return nil, err
	}
	out, err := fn.Call(nil, in)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0].Interface(), nil
}

// positional binds args to fn's parameters in order, without type matching.
func positional(fn *registry.Callable, args []any) ([]reflect.Value, error) {
	in := make([]reflect.Value, len(fn.Params))
	for i, p := range fn.Params {
		switch {
		case p.Variadic:
			rest := []any{}
			if i < len(args) {
				rest = args[i:]
			}
			rv, err := coerce(rest, p.Type)
			if err != nil {
				return nil, paramError(fn, p, err)
			}
			in[i] = rv
		case i < len(args):
			rv, err := coerce(args[i], p.Type)
			if err != nil {
				return nil, paramError(fn, p, err)
			}
			in[i] = rv
		default:
			in[i] = reflect.Zero(p.Type)
		}
	}
	return in, nil
}

func concat(a, b []any) []any {
	if len(b) == 0 {
		return a
	}
	out := make([]any, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
