// Package container builds object graphs from a registry of Go types and a
// table of construction rules.
//
// Get looks a name up in the shared-instance store first. On a miss it
// compiles a factory for the name once, caches it, and invokes it. Factories
// bind constructor parameters by type affinity, expand nested construction
// descriptors and, for shared rules, register the allocated instance before
// its constructor runs so that cyclic shared dependencies resolve.
//
// Rules added after a name was first resolved do not affect that name's
// compiled factory.
package container

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/specialistvlad/objgraph/internal/ctxlog"
	"github.com/specialistvlad/objgraph/internal/registry"
	"github.com/specialistvlad/objgraph/internal/rules"
	"golang.org/x/sync/singleflight"
)

// factory produces one instance for one name.
type factory func(args, share []any) (any, error)

// Container owns a rule set, a factory cache and a shared-instance store.
// It is safe for concurrent use.
type Container struct {
	reg    *registry.Registry
	rules  *rules.Set
	logger *slog.Logger

	factories sync.Map // normalized name -> factory
	compiling singleflight.Group
	instances sync.Map // normalized name -> shared instance
}

// New creates a container resolving types through reg.
func New(reg *registry.Registry, opts ...Option) *Container {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = ctxlog.Discard()
	}

	c := &Container{
		reg:    reg,
		rules:  rules.NewSet(reg, o.policy),
		logger: o.logger,
	}
	if o.verbatim {
		c.rules.Load(o.table)
	} else {
		c.rules.AddTable(o.rules)
	}
	return c
}

// Get returns an instance for name, built with args as runtime arguments.
func (c *Container) Get(name string, args ...any) (any, error) {
	return c.get(name, args, nil)
}

// GetWith is Get with an explicit shared-value pool. Values in share are
// offered to every constructor of the nested construction.
func (c *Container) GetWith(name string, args, share []any) (any, error) {
	return c.get(name, args, share)
}

// Has reports whether name resolves to a registered type. It does not try
// to build anything.
func (c *Container) Has(name string) bool {
	rule := c.rules.Get(name)
	target := name
	if rule.Target != "" {
		target = rule.Target
	}
	return c.reg.Has(target)
}

// AddRule merges rule into the rule stored for name.
func (c *Container) AddRule(name string, rule rules.Rule) {
	c.rules.Add(name, rule)
}

// AddRules adds every rule of t in order.
func (c *Container) AddRules(t rules.Table) {
	c.rules.AddTable(t)
}

// Rule returns the rule that applies to name.
func (c *Container) Rule(name string) rules.Rule {
	return c.rules.Get(name)
}

// Rules returns the merged rule table, suitable for WithTable.
func (c *Container) Rules() rules.Table {
	return c.rules.Table()
}

// Registry returns the type registry the container resolves against.
func (c *Container) Registry() *registry.Registry {
	return c.reg
}

func (c *Container) get(name string, args, share []any) (any, error) {
	key := rules.Normalize(name)
	if v, ok := c.instances.Load(key); ok {
		return v, nil
	}
	f, err := c.factory(key)
	if err != nil {
		return nil, err
	}
	return f(args, share)
}

// factory returns the cached factory for key, compiling it at most once.
// A failed compile is not cached.
func (c *Container) factory(key string) (factory, error) {
	if f, ok := c.factories.Load(key); ok {
		return f.(factory), nil
	}
	v, err, _ := c.compiling.Do(key, func() (any, error) {
		if f, ok := c.factories.Load(key); ok {
			return f, nil
		}
		f, err := c.compile(key, c.rules.Get(key))
		if err != nil {
			return nil, err
		}
		c.factories.Store(key, f)
		return f, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(factory), nil
}

// Resolve is Get with a type assertion.
func Resolve[T any](c *Container, name string, args ...any) (T, error) {
	var zero T
	v, err := c.Get(name, args...)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: '%s' resolved to %T, not %s", ErrBadArgument, name, v, reflect.TypeOf((*T)(nil)).Elem())
	}
	return t, nil
}
