package container

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/specialistvlad/objgraph/internal/registry"
	"github.com/specialistvlad/objgraph/internal/rules"
)

// binder turns runtime arguments and the shared pool into the argument list
// of one callable.
type binder func(args, share []any) ([]reflect.Value, error)

// newBinder precomputes what it can from fn and rule. Per parameter, in order:
//
//  1. the first runtime value matching the declared type is taken;
//  2. a declared type is resolved through its substitution or the container;
//  3. the next runtime value is taken positionally, or all of them for a
//     variadic parameter; shared values are skipped here;
//  4. the default registered for the parameter is used;
//  5. the zero value is used.
//
// Runtime arguments are extended with the expanded ConstructArgs and the
// shared pool, in that order, so caller arguments win type matching.
func (c *Container) newBinder(fn *registry.Callable, rule rules.Rule) binder {
	params := fn.Params
	subs := make(map[string]any, len(rule.Substitutions))
	for k, v := range rule.Substitutions {
		subs[rules.Normalize(k)] = v
	}
	constructArgs := rule.ConstructArgs

	return func(args, share []any) ([]reflect.Value, error) {
		pool := make([]slot, 0, len(args)+len(constructArgs)+len(share))
		for _, a := range args {
			pool = append(pool, slot{v: a})
		}
		if constructArgs != nil || len(share) > 0 {
			expanded, err := c.expandList(constructArgs, share, false)
			if err != nil {
				return nil, err
			}
			for _, a := range expanded {
				pool = append(pool, slot{v: a})
			}
			for _, a := range share {
				pool = append(pool, slot{v: a, shared: true})
			}
		}

		out := make([]reflect.Value, len(params))
		for i, p := range params {
			if p.Class != nil {
				if j := matchIndex(pool, p); j >= 0 {
					v := pool[j].v
					pool = remove(pool, j)
					rv, err := coerce(v, p.Type)
					if err != nil {
						return nil, paramError(fn, p, err)
					}
					out[i] = rv
					continue
				}

				rv, ok, err := c.resolveClass(p, subs, share)
				if err != nil {
					return nil, err
				}
				switch {
				case ok:
					out[i] = rv
				case p.HasDefault:
					out[i] = p.Default
				default:
					out[i] = reflect.Zero(p.Type)
				}
				continue
			}

			if j := nextPositional(pool); j >= 0 {
				var (
					rv  reflect.Value
					err error
				)
				if p.Variadic {
					var rest []any
					for _, s := range pool[j:] {
						if !s.shared {
							rest = append(rest, s.v)
						}
					}
					rv, err = c.collect(rest, p.Type)
					pool = pool[:j]
				} else {
					var v any
					v, err = c.expand(pool[j].v, nil, false)
					pool = remove(pool, j)
					if err == nil {
						rv, err = coerce(v, p.Type)
					}
				}
				if err != nil {
					return nil, paramError(fn, p, err)
				}
				out[i] = rv
				continue
			}

			if p.HasDefault {
				out[i] = p.Default
				continue
			}
			out[i] = reflect.Zero(p.Type)
		}
		return out, nil
	}
}

// slot is one candidate argument. Values from the shared pool only take
// part in type matching, never in positional binding.
type slot struct {
	v      any
	shared bool
}

func remove(pool []slot, j int) []slot {
	return append(pool[:j:j], pool[j+1:]...)
}

func nextPositional(pool []slot) int {
	for j, s := range pool {
		if !s.shared {
			return j
		}
	}
	return -1
}

// resolveClass runs step 2 for a declared type. It reports false when the
// type itself is unknown, in which case the parameter gets its default or nil.
func (c *Container) resolveClass(p registry.Param, subs map[string]any, share []any) (reflect.Value, bool, error) {
	name := c.reg.NameOf(p.Class)

	var (
		v   any
		err error
	)
	if sub, ok := subs[rules.Normalize(name)]; ok {
		v, err = c.expand(sub, share, true)
	} else {
		v, err = c.get(name, nil, share)
		var nf *NotFoundError
		if errors.As(err, &nf) && rules.Normalize(nf.Name) == rules.Normalize(name) {
			return reflect.Value{}, false, nil
		}
	}
	if err != nil {
		return reflect.Value{}, false, err
	}
	rv, err := coerce(v, p.Type)
	if err != nil {
		return reflect.Value{}, false, fmt.Errorf("resolving %s: %w", name, err)
	}
	return rv, true, nil
}

// collect expands and converts every remaining value into the variadic
// slice type.
func (c *Container) collect(values []any, sliceType reflect.Type) (reflect.Value, error) {
	out := reflect.MakeSlice(sliceType, 0, len(values))
	for _, v := range values {
		e, err := c.expand(v, nil, false)
		if err != nil {
			return reflect.Value{}, err
		}
		rv, err := coerce(e, sliceType.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		out = reflect.Append(out, rv)
	}
	return out, nil
}

// matchIndex returns the index of the first value whose type matches the
// declared type of p, or -1.
func matchIndex(pool []slot, p registry.Param) int {
	for j, s := range pool {
		if s.v == nil {
			if p.Nullable {
				return j
			}
			continue
		}
		if reflect.TypeOf(s.v).AssignableTo(p.Type) {
			return j
		}
	}
	return -1
}

func paramError(fn *registry.Callable, p registry.Param, err error) error {
	return fmt.Errorf("parameter %d (%s) of %s: %w", p.Index, p.Type, fn.Fn.Type(), err)
}
