package registry

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"
)

// Option configures a registration.
type Option func(*registration)

type registration struct {
	name      string
	defaults  map[int]any
	factories map[string]any
	order     []string
}

// WithName registers the type under name instead of its Go type string.
func WithName(name string) Option {
	return func(r *registration) {
		r.name = name
	}
}

// WithDefault sets the value bound to constructor parameter index when
// nothing else resolves it. Indexes do not count an initializer's handle.
func WithDefault(index int, v any) Option {
	return func(r *registration) {
		if r.defaults == nil {
			r.defaults = make(map[int]any)
		}
		r.defaults[index] = v
	}
}

// WithDefaults sets defaults for constructor parameters starting at index 0.
func WithDefaults(values ...any) Option {
	return func(r *registration) {
		for i, v := range values {
			WithDefault(i, v)(r)
		}
	}
}

// WithFactory attaches a named static factory. fn must return *T or
// (*T, error) for the registered T.
func WithFactory(name string, fn any) Option {
	return func(r *registration) {
		if r.factories == nil {
			r.factories = make(map[string]any)
		}
		k := strings.ToLower(name)
		if _, dup := r.factories[k]; dup {
			panic(fmt.Sprintf("factory with name '%s' already registered", name))
		}
		r.factories[k] = fn
		r.order = append(r.order, name)
	}
}

// Register registers a constructor or an initializer and returns the new
// entry. It panics on an unsupported function shape or a duplicate name.
func (r *Registry) Register(fn any, opts ...Option) *Type {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func || fv.IsNil() {
		panic(fmt.Sprintf("register: expected a function, got %T", fn))
	}
	ft := fv.Type()

	var (
		t    reflect.Type
		form Form
		skip int
	)
	switch {
	case isConstructor(ft):
		t, form = ft.Out(0).Elem(), FormConstructor
	case isInitializer(ft):
		t, form, skip = ft.In(0).Elem(), FormInitializer, 1
	default:
		panic(fmt.Sprintf("register: %s is neither func(...) *T [error] nor func(*T, ...) [error]", ft))
	}
	if t.Kind() == reflect.Interface {
		panic(fmt.Sprintf("register: %s builds an interface; register the interface with Interface and a concrete type separately", ft))
	}

	entry := &Type{Type: t, Form: form, ctor: NewCallable(fv, skip)}
	return r.add(entry, opts)
}

// Provide registers T without a constructor. Instances are zero values,
// optionally completed by post-construction calls.
func Provide[T any](r *Registry, opts ...Option) *Type {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() == reflect.Interface {
		panic(fmt.Sprintf("provide: %s is an interface; use Interface", t))
	}
	if t.Kind() == reflect.Pointer {
		panic(fmt.Sprintf("provide: %s is a pointer; provide the element type", t))
	}
	return r.add(&Type{Type: t, Form: FormZero}, opts)
}

// Interface registers the interface I as a contract.
func Interface[I any](r *Registry, opts ...Option) *Type {
	return r.RegisterInterface("", reflect.TypeOf((*I)(nil)).Elem(), opts...)
}

// RegisterInterface registers iface under name. An empty name uses the
// interface's Go type string.
func (r *Registry) RegisterInterface(name string, iface reflect.Type, opts ...Option) *Type {
	if iface == nil || iface.Kind() != reflect.Interface {
		panic(fmt.Sprintf("register interface: %v is not an interface type", iface))
	}
	if name != "" {
		opts = append([]Option{WithName(name)}, opts...)
	}
	return r.add(&Type{Type: iface, Form: FormInterface}, opts)
}

func (r *Registry) add(entry *Type, opts []Option) *Type {
	var reg registration
	for _, opt := range opts {
		opt(&reg)
	}
	entry.Name = reg.name
	if entry.Name == "" {
		entry.Name = entry.Type.String()
	}

	if len(reg.defaults) > 0 {
		if entry.ctor == nil {
			panic(fmt.Sprintf("type '%s' has no constructor to attach defaults to", entry.Name))
		}
		for i, v := range reg.defaults {
			entry.ctor.setDefault(i, v)
		}
	}

	if len(reg.factories) > 0 {
		if entry.Form == FormInterface {
			panic(fmt.Sprintf("interface '%s' cannot have factories", entry.Name))
		}
		entry.factories = make(map[string]*Callable, len(reg.factories))
		for _, name := range reg.order {
			k := strings.ToLower(name)
			entry.factories[k] = newFactory(entry, name, reg.factories[k])
		}
	}

	k := key(entry.Name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[k]; exists {
		panic(fmt.Sprintf("type with name '%s' already registered", entry.Name))
	}
	if prev, exists := r.byType[entry.Type]; exists {
		panic(fmt.Sprintf("type %s already registered as '%s'", entry.Type, prev.Name))
	}
	slog.Debug("Registering type.", "name", entry.Name, "form", entry.Form.String())
	r.byName[k] = entry
	r.byType[entry.Type] = entry
	return entry
}

func newFactory(entry *Type, name string, fn any) *Callable {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func || fv.IsNil() {
		panic(fmt.Sprintf("factory '%s' of '%s': expected a function, got %T", name, entry.Name, fn))
	}
	ft := fv.Type()
	if !isConstructor(ft) || ft.Out(0).Elem() != entry.Type {
		panic(fmt.Sprintf("factory '%s' of '%s': %s must return *%s or (*%s, error)", name, entry.Name, ft, entry.Type, entry.Type))
	}
	return NewCallable(fv, 0)
}

// isConstructor matches func(...) *T and func(...) (*T, error).
func isConstructor(ft reflect.Type) bool {
	switch ft.NumOut() {
	case 1:
	case 2:
		if ft.Out(1) != errorType {
			return false
		}
	default:
		return false
	}
	out := ft.Out(0)
	return out.Kind() == reflect.Pointer && out.Elem().Kind() != reflect.Pointer
}

// isInitializer matches func(*T, ...) and func(*T, ...) error.
func isInitializer(ft reflect.Type) bool {
	if ft.NumIn() == 0 || ft.IsVariadic() && ft.NumIn() == 1 {
		return false
	}
	in := ft.In(0)
	if in.Kind() != reflect.Pointer || in.Elem().Kind() == reflect.Pointer {
		return false
	}
	switch ft.NumOut() {
	case 0:
		return true
	case 1:
		return ft.Out(0) == errorType
	default:
		return false
	}
}
