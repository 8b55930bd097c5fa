package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// ErrNotSerializable is returned when a spec holds a value that has no raw
// form, such as a Func target.
var ErrNotSerializable = errors.New("spec is not serializable")

// Target is what a Descriptor asks the container to build.
// It is one of Name, Func or *Descriptor.
type Target interface {
	isTarget()
}

// Name refers to a rule name or a registered type name.
type Name string

// Func is a directly invocable factory. It receives the expanded arguments
// of its descriptor.
type Func func(args ...any) (any, error)

// Descriptor is a nested construction: build Target from Args and use the
// result as the value.
type Descriptor struct {
	Target Target
	Args   []any
}

func (Name) isTarget()        {}
func (Func) isTarget()        {}
func (*Descriptor) isTarget() {}

// New returns a descriptor for the named target.
func New(target string, args ...any) *Descriptor {
	return &Descriptor{Target: Name(target), Args: args}
}

// Invoke returns a descriptor that calls fn.
func Invoke(fn Func, args ...any) *Descriptor {
	return &Descriptor{Target: fn, Args: args}
}

// ParseSpec turns a raw decoded tree into a spec. A map with a "target" key
// becomes a *Descriptor; its "constructArgs" (or "construct_args") must be a
// list. Other maps and lists are walked recursively. Scalars pass through.
func ParseSpec(raw any) (any, error) {
	switch v := raw.(type) {
	case map[string]any:
		if t, ok := v["target"]; ok {
			return parseDescriptor(t, v)
		}
		out := make(map[string]any, len(v))
		for k, e := range v {
			s, err := ParseSpec(e)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = s
		}
		return out, nil
	case []any:
		return parseList(v)
	default:
		return raw, nil
	}
}

func parseDescriptor(target any, fields map[string]any) (*Descriptor, error) {
	d := &Descriptor{}
	switch t := target.(type) {
	case string:
		if t == "" {
			return nil, errors.New("descriptor target is empty")
		}
		d.Target = Name(t)
	case map[string]any:
		if _, ok := t["target"]; !ok {
			return nil, errors.New("nested descriptor target has no target key")
		}
		inner, err := parseDescriptor(t["target"], t)
		if err != nil {
			return nil, err
		}
		d.Target = inner
	default:
		return nil, fmt.Errorf("descriptor target must be a string or a descriptor, got %T", target)
	}

	rawArgs, ok := fields["constructArgs"]
	if !ok {
		rawArgs, ok = fields["construct_args"]
	}
	if !ok || rawArgs == nil {
		return d, nil
	}
	list, ok := rawArgs.([]any)
	if !ok {
		return nil, fmt.Errorf("constructArgs of %v must be a list, got %T", d.Target, rawArgs)
	}
	args, err := parseList(list)
	if err != nil {
		return nil, err
	}
	d.Args = args
	return d, nil
}

func parseList(in []any) ([]any, error) {
	out := make([]any, len(in))
	for i, e := range in {
		s, err := ParseSpec(e)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

// ParseRaw is ParseSpec for trees produced by generic decoders. Integer kinds
// are widened to int64, floats to float64, json.Number is resolved and
// map[any]any keys are stringified before parsing.
func ParseRaw(raw any) (any, error) {
	return ParseSpec(normalizeRaw(raw))
}

func normalizeRaw(raw any) any {
	switch v := raw.(type) {
	case nil, string, bool, int64, float64:
		return v
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		f, _ := v.Float64()
		return f
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = normalizeRaw(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[fmt.Sprint(k)] = normalizeRaw(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = normalizeRaw(e)
		}
		return out
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32:
		return rv.Float()
	}
	return raw
}

// RawSpec is the inverse of ParseSpec. Descriptors become maps with "target"
// and, when present, "constructArgs".
func RawSpec(spec any) (any, error) {
	switch v := spec.(type) {
	case *Descriptor:
		if v == nil {
			return nil, nil
		}
		out := map[string]any{}
		switch t := v.Target.(type) {
		case Name:
			out["target"] = string(t)
		case *Descriptor:
			inner, err := RawSpec(t)
			if err != nil {
				return nil, err
			}
			out["target"] = inner
		case Func:
			return nil, ErrNotSerializable
		default:
			return nil, fmt.Errorf("%w: target %T", ErrNotSerializable, v.Target)
		}
		if v.Args != nil {
			args, err := RawSpec(v.Args)
			if err != nil {
				return nil, err
			}
			out["constructArgs"] = args
		}
		return out, nil
	case Func:
		return nil, ErrNotSerializable
	case Name:
		return string(v), nil
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			r, err := RawSpec(e)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			r, err := RawSpec(e)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	default:
		if t := reflect.TypeOf(spec); t != nil && t.Kind() == reflect.Func {
			return nil, fmt.Errorf("%w: %T", ErrNotSerializable, spec)
		}
		return spec, nil
	}
}

// String implements fmt.Stringer.
func (d *Descriptor) String() string {
	switch t := d.Target.(type) {
	case Name:
		return fmt.Sprintf("{target: %s, args: %d}", string(t), len(d.Args))
	case *Descriptor:
		return fmt.Sprintf("{target: %s, args: %d}", t.String(), len(d.Args))
	default:
		return fmt.Sprintf("{target: func, args: %d}", len(d.Args))
	}
}
