package container

import (
	"fmt"
	"reflect"

	"github.com/specialistvlad/objgraph/internal/registry"
	"github.com/specialistvlad/objgraph/internal/rules"
)

// compile turns the rule for key into a factory. It does no construction.
func (c *Container) compile(key string, rule rules.Rule) (factory, error) {
	targetName := key
	if rule.Target != "" {
		targetName = rule.Target
	}
	t, ok := c.reg.Lookup(targetName)
	if !ok {
		return nil, &NotFoundError{Name: targetName}
	}
	if !t.Instantiable() {
		return nil, fmt.Errorf("%w: '%s' is an interface", ErrNotInstantiable, t.Name)
	}

	fn := t.Constructor()
	if rule.StaticFactory != "" {
		sf, ok := t.Factory(rule.StaticFactory)
		if !ok {
			return nil, fmt.Errorf("%w: factory '%s' on '%s'", ErrNoSuchMethod, rule.StaticFactory, t.Name)
		}
		fn = sf
	}

	c.logger.Debug("Compiling factory.",
		"name", key,
		"target", t.Name,
		"form", t.Form.String(),
		"shared", rule.IsShared(),
		"static_factory", rule.StaticFactory,
	)

	var bind binder
	if fn != nil && len(fn.Params) > 0 {
		bind = c.newBinder(fn, rule)
	}

	var post postCalls
	if len(rule.PostCalls) > 0 {
		post = c.newPostCalls(t, rule)
	}

	var f factory
	if rule.IsShared() {
		f = c.sharedFactory(key, t, fn, bind, post)
	} else {
		f = func(args, share []any) (any, error) {
			h, err := c.construct(t, fn, bind, nil, args, share)
			if err != nil {
				return nil, err
			}
			if post == nil {
				return h.Interface(), nil
			}
			return post(h.Interface(), share)
		}
	}

	if len(rule.ShareInstances) > 0 {
		f = c.withSharedInstances(rule.ShareInstances, f)
	}
	return f, nil
}

// sharedFactory allocates the instance, registers it, and only then runs the
// constructor against it. A peer that needs this instance while it is being
// built receives the registered handle.
func (c *Container) sharedFactory(key string, t *registry.Type, fn *registry.Callable, bind binder, post postCalls) factory {
	return func(args, share []any) (any, error) {
		handle := t.New()
		ptr := handle.Interface()
		if existing, loaded := c.instances.LoadOrStore(key, ptr); loaded {
			return existing, nil
		}
		c.logger.Debug("Registering shared instance.", "name", key, "type", t.Name)

		if _, err := c.construct(t, fn, bind, &handle, args, share); err != nil {
			c.instances.CompareAndDelete(key, ptr)
			return nil, err
		}
		if post == nil {
			return ptr, nil
		}
		obj, err := post(ptr, share)
		if err != nil {
			c.instances.CompareAndDelete(key, ptr)
			return nil, err
		}
		if obj != ptr {
			c.instances.Store(key, obj)
		}
		return obj, nil
	}
}

// construct builds one *T. With a non-nil into the value is built into that
// handle; otherwise a fresh one is allocated when needed.
func (c *Container) construct(t *registry.Type, fn *registry.Callable, bind binder, into *reflect.Value, args, share []any) (reflect.Value, error) {
	var handle reflect.Value
	if into != nil {
		handle = *into
	}
	if fn == nil {
		if !handle.IsValid() {
			handle = t.New()
		}
		return handle, nil
	}

	var in []reflect.Value
	if bind != nil {
		var err error
		if in, err = bind(args, share); err != nil {
			return reflect.Value{}, err
		}
	}

	if fn.Skip == 1 {
		if !handle.IsValid() {
			handle = t.New()
		}
		if _, err := fn.Call([]reflect.Value{handle}, in); err != nil {
			return reflect.Value{}, err
		}
		return handle, nil
	}

	out, err := fn.Call(nil, in)
	if err != nil {
		return reflect.Value{}, err
	}
	built := out[0]
	if built.IsNil() {
		return reflect.Value{}, fmt.Errorf("%w: constructor of '%s' returned nil", ErrNotInstantiable, t.Name)
	}
	if !handle.IsValid() {
		return built, nil
	}
	handle.Elem().Set(built.Elem())
	return handle, nil
}

// withSharedInstances resolves the named instances on every call and adds
// them to the pool handed to f.
func (c *Container) withSharedInstances(names []string, f factory) factory {
	return func(args, share []any) (any, error) {
		pool := make([]any, 0, len(share)+len(names))
		pool = append(pool, share...)
		for _, n := range names {
			v, err := c.get(n, nil, nil)
			if err != nil {
				return nil, err
			}
			pool = append(pool, v)
		}
		return f(args, pool)
	}
}

// postCalls runs the configured method calls on a built instance and
// returns the instance, or the last chained result.
type postCalls func(obj any, share []any) (any, error)

// boundCall is a post call with its method reflected ahead of time for the
// receiver type it expects. A nil fn means the receiver type was not known
// when the factory was compiled.
type boundCall struct {
	call rules.Call
	recv reflect.Type
	fn   *registry.Callable
	bind binder
}

// newPostCalls binds call arguments like constructor arguments, under a rule
// that carries only the share list. Methods are looked up once on *T and on
// the static result type of each chained call.
func (c *Container) newPostCalls(t *registry.Type, rule rules.Rule) postCalls {
	callRule := rules.Rule{ShareInstances: rule.ShareInstances}
	calls := make([]boundCall, len(rule.PostCalls))
	recv := t.PointerType()
	for i, call := range rule.PostCalls {
		calls[i].call = call
		if recv == nil || recv.Kind() == reflect.Interface {
			recv = nil
			continue
		}
		m, ok := recv.MethodByName(call.Method)
		if !ok {
			recv = nil
			continue
		}
		fn := registry.NewCallable(m.Func, 1)
		calls[i].recv = recv
		calls[i].fn = fn
		calls[i].bind = c.newBinder(fn, callRule)
		if call.Chain {
			recv = nil
			if fn.Fn.Type().NumOut() > 1 || (fn.Fn.Type().NumOut() == 1 && !fn.ReturnsErr) {
				recv = fn.Fn.Type().Out(0)
			}
		}
	}

	return func(obj any, share []any) (any, error) {
		for _, bc := range calls {
			fn, bind := bc.fn, bc.bind
			recv := reflect.ValueOf(obj)
			if !recv.IsValid() {
				return nil, fmt.Errorf("%w: '%s' on nil", ErrNoSuchMethod, bc.call.Method)
			}
			if fn == nil || recv.Type() != bc.recv {
				m, ok := recv.Type().MethodByName(bc.call.Method)
				if !ok {
					return nil, fmt.Errorf("%w: '%s' on %T", ErrNoSuchMethod, bc.call.Method, obj)
				}
				fn = registry.NewCallable(m.Func, 1)
				bind = c.newBinder(fn, callRule)
			}
			callArgs, err := c.expandList(bc.call.Args, share, false)
			if err != nil {
				return nil, err
			}
			in, err := bind(callArgs, share)
			if err != nil {
				return nil, fmt.Errorf("binding '%s': %w", bc.call.Method, err)
			}
			out, err := fn.Call([]reflect.Value{recv}, in)
			if err != nil {
				return nil, err
			}
			if !bc.call.Chain {
				continue
			}
			if len(out) == 0 {
				return nil, fmt.Errorf("%w: chained method '%s' returns nothing", ErrBadArgument, bc.call.Method)
			}
			obj = out[0].Interface()
		}
		return obj, nil
	}
}
