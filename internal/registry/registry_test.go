package registry

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/specialistvlad/objgraph/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Greeter interface {
	Greet() string
}

type Base struct {
	Label string
}

type Mid struct {
	*Base
}

type Leaf struct {
	Mid
	Count int
}

func (l *Leaf) Greet() string { return "hi " + l.Label }

// SetCount returns the receiver so it can be chained.
func (l *Leaf) SetCount(n int) *Leaf {
	l.Count = n
	return l
}

func NewBase(label string) *Base { return &Base{Label: label} }

func NewLeaf(base *Base, count int) (*Leaf, error) {
	if count < 0 {
		return nil, errors.New("negative count")
	}
	return &Leaf{Mid: Mid{Base: base}, Count: count}, nil
}

func InitMid(m *Mid, base *Base) { m.Base = base }

func newTestRegistry() *Registry {
	r := New()
	r.Register(NewBase, WithDefault(0, "default"))
	r.Register(InitMid)
	r.Register(NewLeaf, WithFactory("Empty", func() *Leaf { return &Leaf{} }))
	Interface[Greeter](r)
	return r
}

func TestRegister_Forms(t *testing.T) {
	t.Parallel()
	r := newTestRegistry()

	base, ok := r.Lookup("registry.Base")
	require.True(t, ok)
	assert.Equal(t, FormConstructor, base.Form)
	require.Len(t, base.Constructor().Params, 1)
	assert.True(t, base.Constructor().Params[0].HasDefault)
	assert.Equal(t, "default", base.Constructor().Params[0].Default.Interface())

	mid, ok := r.Lookup(".REGISTRY.mid")
	require.True(t, ok, "names are matched like rule names")
	assert.Equal(t, FormInitializer, mid.Form)
	require.Len(t, mid.Constructor().Params, 1, "the handle is not a bindable parameter")
	assert.Equal(t, reflect.TypeOf(&Base{}), mid.Constructor().Params[0].Class)

	leaf, ok := r.Lookup("registry.Leaf")
	require.True(t, ok)
	assert.True(t, leaf.Constructor().ReturnsErr)
	_, ok = leaf.Factory("empty")
	assert.True(t, ok)

	greeter, ok := r.Lookup("registry.Greeter")
	require.True(t, ok)
	assert.False(t, greeter.Instantiable())
}

func TestRegister_Provide(t *testing.T) {
	t.Parallel()
	r := New()
	entry := Provide[Base](r, WithName("base"))

	assert.Equal(t, FormZero, entry.Form)
	assert.Nil(t, entry.Constructor())
	v := entry.New()
	assert.Equal(t, reflect.TypeOf(&Base{}), v.Type())
	assert.Equal(t, "base", r.NameOf(reflect.TypeOf(&Base{})))
}

func TestRegister_Panics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   func(r *Registry)
	}{
		{name: "not a function", fn: func(r *Registry) { r.Register(42) }},
		{name: "returns a value", fn: func(r *Registry) { r.Register(func() Base { return Base{} }) }},
		{name: "second result not error", fn: func(r *Registry) { r.Register(func() (*Base, int) { return nil, 0 }) }},
		{name: "duplicate name", fn: func(r *Registry) {
			r.Register(NewBase)
			Provide[Leaf](r, WithName("registry.base"))
		}},
		{name: "duplicate type", fn: func(r *Registry) {
			r.Register(NewBase)
			Provide[Base](r, WithName("other"))
		}},
		{name: "default out of range", fn: func(r *Registry) { r.Register(NewBase, WithDefault(3, "x")) }},
		{name: "default of wrong type", fn: func(r *Registry) { r.Register(NewBase, WithDefault(0, 3)) }},
		{name: "factory of wrong type", fn: func(r *Registry) {
			r.Register(NewBase, WithFactory("Make", func() *Leaf { return nil }))
		}},
		{name: "provide interface", fn: func(r *Registry) { Provide[Greeter](r) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Panics(t, func() { tc.fn(New()) })
		})
	}
}

func TestParams(t *testing.T) {
	t.Parallel()
	fn := func(g Greeter, b *Base, s string, m map[string]int, rest ...int) {}
	c := NewCallable(reflect.ValueOf(fn), 0)

	require.Len(t, c.Params, 5)
	assert.NotNil(t, c.Params[0].Class)
	assert.NotNil(t, c.Params[1].Class)
	assert.Nil(t, c.Params[2].Class)
	assert.False(t, c.Params[2].Nullable)
	assert.True(t, c.Params[3].Nullable)
	assert.True(t, c.Params[4].Variadic)
	assert.Nil(t, c.Params[4].Class)
}

func TestIsSubtype(t *testing.T) {
	t.Parallel()
	r := newTestRegistry()

	assert.True(t, r.IsSubtype("registry.Leaf", "registry.Mid"))
	assert.True(t, r.IsSubtype("registry.Leaf", "registry.Base"), "embedding is transitive through pointers")
	assert.True(t, r.IsSubtype("registry.Leaf", "registry.Greeter"))
	assert.False(t, r.IsSubtype("registry.Base", "registry.Leaf"))
	assert.False(t, r.IsSubtype("registry.Base", "registry.Greeter"))
	assert.False(t, r.IsSubtype("registry.Leaf", "registry.Leaf"))
	assert.False(t, r.IsSubtype("registry.Unknown", "registry.Base"))
}

func TestCallable_Call(t *testing.T) {
	t.Parallel()
	c := NewCallable(reflect.ValueOf(NewLeaf), 0)

	out, err := c.Call(nil, []reflect.Value{reflect.ValueOf(&Base{Label: "x"}), reflect.ValueOf(2)})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 2, out[0].Interface().(*Leaf).Count)

	_, err = c.Call(nil, []reflect.Value{reflect.ValueOf(&Base{}), reflect.ValueOf(-1)})
	require.EqualError(t, err, "negative count")
}

func TestValidate(t *testing.T) {
	t.Parallel()
	r := newTestRegistry()

	ok := rules.Table{
		{Name: "*", Rule: rules.Rule{Shared: rules.Bool(true)}},
		{Name: "registry.base", Rule: rules.Rule{ConstructArgs: []any{"x"}}},
		{Name: "leaf", Rule: rules.Rule{
			Target:        "registry.Leaf",
			StaticFactory: "Empty",
			Substitutions: map[string]any{"registry.Base": rules.New("registry.Base")},
			PostCalls: []rules.Call{
				{Method: "SetCount", Args: []any{1}, Chain: true},
				{Method: "Greet"},
			},
		}},
	}
	require.NoError(t, r.Validate(context.Background(), ok))

	bad := rules.Table{
		{Name: "ghost", Rule: rules.Rule{}},
		{Name: "greeter", Rule: rules.Rule{Target: "registry.Greeter"}},
		{Name: "leaf", Rule: rules.Rule{
			Target:        "registry.Leaf",
			StaticFactory: "Missing",
			Substitutions: map[string]any{"nope.Type": 1},
			PostCalls:     []rules.Call{{Method: "Fly"}},
		}},
	}
	err := r.Validate(context.Background(), bad)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Problems, 5)
	assert.Contains(t, err.Error(), "target 'ghost' is not a registered type")
	assert.Contains(t, err.Error(), "cannot be instantiated")
	assert.Contains(t, err.Error(), "no factory 'Missing'")
	assert.Contains(t, err.Error(), "unknown type 'nope.Type'")
	assert.Contains(t, err.Error(), "no method 'Fly'")
}
