package container

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/specialistvlad/objgraph/internal/rules"
	"github.com/specialistvlad/objgraph/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var petrol = map[string]any{"container.Fuel": rules.New("container.Petrol")}

func TestGet_FreshInstanceWithoutRule(t *testing.T) {
	t.Parallel()
	reg, _ := newFixtureRegistry()
	c := New(reg)

	a, err := Resolve[*Engine](c, "container.Engine")
	require.NoError(t, err)
	b, err := Resolve[*Engine](c, "Container.ENGINE")
	require.NoError(t, err)

	assert.Equal(t, 100, a.Power, "registered default is bound")
	assert.NotSame(t, a, b)

	p, err := Resolve[*Petrol](c, "container.Petrol")
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestGet_RuntimeArgs(t *testing.T) {
	t.Parallel()
	reg, _ := newFixtureRegistry()
	c := New(reg)

	e, err := Resolve[*Engine](c, "container.Engine", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, e.Power)

	// A runtime value of the declared type wins over resolution.
	mine := &Engine{Power: 1}
	c.AddRule("container.Car", rules.Rule{Substitutions: petrol})
	car, err := Resolve[*Car](c, "container.Car", "name", mine)
	require.NoError(t, err)
	assert.Same(t, mine, car.Engine)
	assert.Equal(t, "name", car.Name)
}

func TestGet_SharedIsIdempotent(t *testing.T) {
	t.Parallel()
	reg, _ := newFixtureRegistry()
	c := New(reg)
	c.AddRule("container.Engine", rules.Rule{Shared: rules.Bool(true)})

	a, err := c.Get("container.Engine", 1)
	require.NoError(t, err)
	b, err := c.Get("container.Engine", 2)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, 1, a.(*Engine).Power)
}

func TestGet_SharedConcurrentFirstUse(t *testing.T) {
	t.Parallel()
	reg, _ := newFixtureRegistry()
	c := New(reg)
	c.AddRule("container.Engine", rules.Rule{Shared: rules.Bool(true)})

	const n = 32
	got := make([]any, n)
	testutil.Concurrently(n, func(i int) {
		v, err := c.Get("container.Engine")
		if err == nil {
			got[i] = v
		}
	})

	for i := 1; i < n; i++ {
		require.NotNil(t, got[i])
		assert.Same(t, got[0], got[i])
	}
}

func TestGet_CyclicSharedDependency(t *testing.T) {
	t.Parallel()
	reg, _ := newFixtureRegistry()
	c := New(reg, WithRules(rules.Table{
		{Name: "container.Parent", Rule: rules.Rule{Shared: rules.Bool(true)}},
		{Name: "container.Child", Rule: rules.Rule{Shared: rules.Bool(true)}},
	}))

	p, err := Resolve[*Parent](c, "container.Parent")
	require.NoError(t, err)
	require.NotNil(t, p.Child)
	assert.Same(t, p, p.Child.Parent)

	ch, err := Resolve[*Child](c, "container.Child")
	require.NoError(t, err)
	assert.Same(t, p.Child, ch)
}

func TestGet_Inheritance(t *testing.T) {
	t.Parallel()

	t.Run("struct embedding", func(t *testing.T) {
		t.Parallel()
		reg, _ := newFixtureRegistry()
		c := New(reg)
		c.AddRule("container.Shape", rules.Rule{ConstructArgs: []any{"red"}, Inherit: rules.Bool(true)})

		sq, err := Resolve[*Square](c, "container.Square")
		require.NoError(t, err)
		assert.Equal(t, "red", sq.Color)
	})

	t.Run("interface contract", func(t *testing.T) {
		t.Parallel()
		reg, _ := newFixtureRegistry()
		c := New(reg)
		c.AddRule("container.Greeter", rules.Rule{ConstructArgs: []any{"hello"}, Inherit: rules.Bool(true)})

		g, err := Resolve[Greeter](c, "container.English")
		require.NoError(t, err)
		assert.Equal(t, "hello", g.Greet())
	})

	t.Run("unset inherit does not apply by default", func(t *testing.T) {
		t.Parallel()
		reg, _ := newFixtureRegistry()
		c := New(reg)
		c.AddRule("container.Shape", rules.Rule{ConstructArgs: []any{"red"}})

		sq, err := Resolve[*Square](c, "container.Square")
		require.NoError(t, err)
		assert.Empty(t, sq.Color)
	})

	t.Run("unset inherit applies under unless-false", func(t *testing.T) {
		t.Parallel()
		reg, _ := newFixtureRegistry()
		c := New(reg, WithInheritPolicy(rules.InheritUnlessFalse))
		c.AddRule("container.Shape", rules.Rule{ConstructArgs: []any{"red"}})

		sq, err := Resolve[*Square](c, "container.Square")
		require.NoError(t, err)
		assert.Equal(t, "red", sq.Color)
	})

	t.Run("explicit false never applies", func(t *testing.T) {
		t.Parallel()
		reg, _ := newFixtureRegistry()
		c := New(reg, WithInheritPolicy(rules.InheritUnlessFalse))
		c.AddRule("container.Shape", rules.Rule{ConstructArgs: []any{"red"}, Inherit: rules.Bool(false)})

		sq, err := Resolve[*Square](c, "container.Square")
		require.NoError(t, err)
		assert.Empty(t, sq.Color)
	})
}

func TestGet_WildcardRule(t *testing.T) {
	t.Parallel()
	reg, _ := newFixtureRegistry()
	c := New(reg)
	c.AddRule(rules.Wildcard, rules.Rule{Shared: rules.Bool(true)})
	c.AddRule("container.Engine", rules.Rule{ConstructArgs: []any{3}})

	a, err := c.Get("container.Pool")
	require.NoError(t, err)
	b, err := c.Get("container.Pool")
	require.NoError(t, err)
	assert.Same(t, a, b)

	e1, err := c.Get("container.Engine")
	require.NoError(t, err)
	e2, err := c.Get("container.Engine")
	require.NoError(t, err)
	assert.NotSame(t, e1, e2, "an exact rule replaces the wildcard")
}

func TestGet_NestedConstruction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		arg       any
		wantPower int
	}{
		{name: "descriptor on a type", arg: rules.New("container.Engine", 5), wantPower: 5},
		{name: "descriptor on a rule name", arg: rules.New("bigEngine"), wantPower: 500},
		{name: "descriptor on a rule name with static factory", arg: rules.New("turbo"), wantPower: 50},
		{
			name: "function target",
			arg: rules.Invoke(func(args ...any) (any, error) {
				return &Engine{Power: args[0].(int) * 2}, nil
			}, 21),
			wantPower: 42,
		},
		{
			name: "descriptor as target",
			arg: &rules.Descriptor{
				Target: &rules.Descriptor{Target: rules.Func(func(...any) (any, error) {
					return rules.Func(func(args ...any) (any, error) {
						return &Engine{Power: len(args)}, nil
					}), nil
				})},
				Args: []any{1, 2, 3},
			},
			wantPower: 3,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			reg, _ := newFixtureRegistry()
			c := New(reg)
			c.AddRule("bigEngine", rules.Rule{Target: "container.Engine", ConstructArgs: []any{500}})
			c.AddRule("turbo", rules.Rule{Target: "container.Engine", StaticFactory: "Turbo", ConstructArgs: []any{5}})
			c.AddRule("car", rules.Rule{
				Target:        "container.Car",
				ConstructArgs: []any{tc.arg, "nested"},
				Substitutions: petrol,
			})

			car, err := Resolve[*Car](c, "car")
			require.NoError(t, err)
			require.NotNil(t, car.Engine)
			assert.Equal(t, tc.wantPower, car.Engine.Power)
			assert.Equal(t, "nested", car.Name)
		})
	}
}

func TestGet_NotInvocableTarget(t *testing.T) {
	t.Parallel()
	reg, _ := newFixtureRegistry()
	c := New(reg)
	c.AddRule("car", rules.Rule{
		Target: "container.Car",
		ConstructArgs: []any{&rules.Descriptor{
			Target: &rules.Descriptor{Target: rules.Func(func(...any) (any, error) { return 42, nil })},
		}},
		Substitutions: petrol,
	})

	_, err := c.Get("car")
	assert.ErrorIs(t, err, ErrNotInvocable)
}

func TestGet_Substitutions(t *testing.T) {
	t.Parallel()

	t.Run("interface without substitution is not instantiable", func(t *testing.T) {
		t.Parallel()
		reg, _ := newFixtureRegistry()
		_, err := New(reg).Get("container.Car")
		assert.ErrorIs(t, err, ErrNotInstantiable)
	})

	t.Run("descriptor substitution", func(t *testing.T) {
		t.Parallel()
		reg, _ := newFixtureRegistry()
		c := New(reg)
		c.AddRule("container.Car", rules.Rule{Substitutions: petrol})

		car, err := Resolve[*Car](c, "container.Car")
		require.NoError(t, err)
		assert.Equal(t, "petrol", car.Fuel.Kind())
	})

	t.Run("bare name substitution is resolved", func(t *testing.T) {
		t.Parallel()
		reg, _ := newFixtureRegistry()
		c := New(reg)
		c.AddRule("container.Car", rules.Rule{Substitutions: map[string]any{"Container.Fuel": "container.Diesel"}})

		car, err := Resolve[*Car](c, "container.Car")
		require.NoError(t, err)
		assert.Equal(t, "diesel", car.Fuel.Kind())
	})

	t.Run("substitution overrides a resolvable type", func(t *testing.T) {
		t.Parallel()
		reg, _ := newFixtureRegistry()
		c := New(reg)
		c.AddRule("container.Car", rules.Rule{Substitutions: map[string]any{
			"container.Fuel":   rules.New("container.Petrol"),
			"container.Engine": rules.New("container.Engine", 900),
		}})

		car, err := Resolve[*Car](c, "container.Car")
		require.NoError(t, err)
		assert.Equal(t, 900, car.Engine.Power)
	})
}

func TestGet_ShareInstances(t *testing.T) {
	t.Parallel()

	t.Run("without share list", func(t *testing.T) {
		t.Parallel()
		reg, _ := newFixtureRegistry()
		s, err := Resolve[*Service](New(reg), "container.Service")
		require.NoError(t, err)
		assert.NotSame(t, s.Repo.Pool, s.Cache.Pool)
	})

	t.Run("one pool per build", func(t *testing.T) {
		t.Parallel()
		reg, ids := newFixtureRegistry()
		c := New(reg)
		c.AddRule("container.Service", rules.Rule{ShareInstances: []string{"container.Pool"}})

		first, err := Resolve[*Service](c, "container.Service")
		require.NoError(t, err)
		assert.Same(t, first.Repo.Pool, first.Cache.Pool)
		assert.Equal(t, 1, *ids)

		second, err := Resolve[*Service](c, "container.Service")
		require.NoError(t, err)
		assert.Same(t, second.Repo.Pool, second.Cache.Pool)
		assert.NotSame(t, first.Repo.Pool, second.Repo.Pool)
	})
}

func TestGet_PostCalls(t *testing.T) {
	t.Parallel()

	t.Run("calls and chain", func(t *testing.T) {
		t.Parallel()
		reg, _ := newFixtureRegistry()
		c := New(reg)
		c.AddRule("container.Car", rules.Rule{
			ConstructArgs: []any{"plain"},
			Substitutions: petrol,
			PostCalls: []rules.Call{
				{Method: "Rename", Args: []any{"renamed"}},
				{Method: "Tune", Chain: true},
			},
		})

		car, err := Resolve[*Car](c, "container.Car")
		require.NoError(t, err)
		assert.Equal(t, "renamed", car.Name)
		assert.True(t, car.Tuned)
	})

	t.Run("chained shared instance is stored", func(t *testing.T) {
		t.Parallel()
		reg, _ := newFixtureRegistry()
		c := New(reg)
		c.AddRule("container.Car", rules.Rule{
			Shared:        rules.Bool(true),
			Substitutions: petrol,
			PostCalls:     []rules.Call{{Method: "Tune", Chain: true}},
		})

		a, err := c.Get("container.Car")
		require.NoError(t, err)
		b, err := c.Get("container.Car")
		require.NoError(t, err)
		assert.Same(t, a, b)
		assert.True(t, a.(*Car).Tuned)
	})

	t.Run("descriptor arguments see shared instances", func(t *testing.T) {
		t.Parallel()
		reg, ids := newFixtureRegistry()
		c := New(reg)
		c.AddRule("container.Sink", rules.Rule{
			ShareInstances: []string{"container.Pool"},
			PostCalls:      []rules.Call{{Method: "Use", Args: []any{rules.New("container.Repo")}}},
		})

		sink, err := Resolve[*Sink](c, "container.Sink")
		require.NoError(t, err)
		require.NotNil(t, sink.Repo)
		assert.Same(t, sink.Cache.Pool, sink.Repo.Pool)
		assert.Equal(t, 1, *ids)
	})

	t.Run("repeated builds reuse the compiled calls", func(t *testing.T) {
		t.Parallel()
		reg, _ := newFixtureRegistry()
		c := New(reg)
		c.AddRule("container.Car", rules.Rule{
			Substitutions: petrol,
			PostCalls: []rules.Call{
				{Method: "Tune", Chain: true},
				{Method: "Rename", Args: []any{"tuned"}},
			},
		})

		for range 3 {
			car, err := Resolve[*Car](c, "container.Car")
			require.NoError(t, err)
			assert.True(t, car.Tuned)
			assert.Equal(t, "tuned", car.Name)
		}
	})

	t.Run("missing method", func(t *testing.T) {
		t.Parallel()
		reg, _ := newFixtureRegistry()
		c := New(reg)
		c.AddRule("container.Car", rules.Rule{Substitutions: petrol, PostCalls: []rules.Call{{Method: "Fly"}}})

		_, err := c.Get("container.Car")
		assert.ErrorIs(t, err, ErrNoSuchMethod)
	})

	t.Run("error is returned unchanged", func(t *testing.T) {
		t.Parallel()
		reg, _ := newFixtureRegistry()
		c := New(reg)
		c.AddRule("container.Car", rules.Rule{Substitutions: petrol, PostCalls: []rules.Call{{Method: "Fail"}}})

		_, err := c.Get("container.Car")
		assert.Equal(t, errBroken, err)
	})
}

func TestGet_Errors(t *testing.T) {
	t.Parallel()

	t.Run("unknown name", func(t *testing.T) {
		t.Parallel()
		reg, _ := newFixtureRegistry()
		_, err := New(reg).Get("nope.Missing")

		require.ErrorIs(t, err, ErrNotFound)
		var nf *NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "nope.missing", nf.Name)
	})

	t.Run("alias with unknown target", func(t *testing.T) {
		t.Parallel()
		reg, _ := newFixtureRegistry()
		c := New(reg)
		c.AddRule("ghost", rules.Rule{Target: "nope.Ghost"})

		_, err := c.Get("ghost")
		var nf *NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "nope.Ghost", nf.Name)
	})

	t.Run("missing static factory", func(t *testing.T) {
		t.Parallel()
		reg, _ := newFixtureRegistry()
		c := New(reg)
		c.AddRule("container.Engine", rules.Rule{StaticFactory: "Warp"})

		_, err := c.Get("container.Engine")
		assert.ErrorIs(t, err, ErrNoSuchMethod)
	})

	t.Run("constructor error is returned unchanged", func(t *testing.T) {
		t.Parallel()
		reg, _ := newFixtureRegistry()
		_, err := New(reg).Get("container.Broken", true)
		assert.Equal(t, errBroken, err)
	})

	t.Run("failed shared construction is not kept", func(t *testing.T) {
		t.Parallel()
		reg, _ := newFixtureRegistry()
		c := New(reg)
		c.AddRule("container.Broken", rules.Rule{Shared: rules.Bool(true)})

		_, err := c.Get("container.Broken", true)
		require.True(t, errors.Is(err, errBroken))

		b, err := Resolve[*Broken](c, "container.Broken", false)
		require.NoError(t, err)
		assert.True(t, b.OK)

		again, err := Resolve[*Broken](c, "container.Broken", true)
		require.NoError(t, err, "the shared instance ignores later args")
		assert.Same(t, b, again)
	})

	t.Run("resolve with the wrong type", func(t *testing.T) {
		t.Parallel()
		reg, _ := newFixtureRegistry()
		_, err := Resolve[*Car](New(reg), "container.Engine")
		assert.ErrorIs(t, err, ErrBadArgument)
	})
}

func TestGet_Binding(t *testing.T) {
	t.Parallel()
	reg, _ := newFixtureRegistry()
	c := New(reg)

	t.Run("variadic collects the rest", func(t *testing.T) {
		bag, err := Resolve[*Bag](c, "container.Bag", "label", "a", "b")
		require.NoError(t, err)
		assert.Equal(t, "label", bag.Label)
		assert.Equal(t, []string{"a", "b"}, bag.Items)

		empty, err := Resolve[*Bag](c, "container.Bag", "label")
		require.NoError(t, err)
		assert.Empty(t, empty.Items)
	})

	t.Run("decoded literals are converted", func(t *testing.T) {
		h, err := Resolve[*Holder](c, "container.Holder", int64(5), []any{int64(80), float64(443)})
		require.NoError(t, err)
		assert.Nil(t, h.U, "an unregistered declared type binds nil")
		assert.Equal(t, int8(5), h.Limit)
		assert.Equal(t, []int{80, 443}, h.Ports)
	})

	t.Run("impossible conversions fail", func(t *testing.T) {
		for _, arg := range []any{int64(300), 2.5, "five"} {
			_, err := c.Get("container.Holder", arg)
			assert.ErrorIs(t, err, ErrBadArgument, "%v", arg)
		}
	})
}

func TestHas(t *testing.T) {
	t.Parallel()
	reg, _ := newFixtureRegistry()
	c := New(reg)
	c.AddRule("bigEngine", rules.Rule{Target: "container.Engine"})
	c.AddRule("ghost", rules.Rule{Target: "nope.Ghost"})

	assert.True(t, c.Has("container.Engine"))
	assert.True(t, c.Has(".CONTAINER.engine"))
	assert.True(t, c.Has("bigEngine"))
	assert.True(t, c.Has("container.Fuel"), "contracts are known types")
	assert.False(t, c.Has("ghost"))
	assert.False(t, c.Has("nope"))
}

func TestRules_TableReloadsVerbatim(t *testing.T) {
	t.Parallel()
	reg, _ := newFixtureRegistry()
	c := New(reg, WithRules(rules.Table{
		{Name: "bigEngine", Rule: rules.Rule{Target: "container.Engine", ConstructArgs: []any{500}}},
		{Name: "car", Rule: rules.Rule{
			Target:        "container.Car",
			ConstructArgs: []any{rules.New("bigEngine"), "cached"},
			Substitutions: petrol,
		}},
	}))
	c.AddRule("car", rules.Rule{Shared: rules.Bool(true)})

	data, err := rules.EncodeTable(c.Rules())
	require.NoError(t, err)
	table, err := rules.DecodeTable(data)
	require.NoError(t, err)

	reloaded := New(reg, WithTable(table), WithRules(rules.Table{{Name: "car", Rule: rules.Rule{Target: "ignored"}}}))
	assert.Equal(t, c.Rule("car").Target, reloaded.Rule("car").Target)

	for _, cc := range []*Container{c, reloaded} {
		car, err := Resolve[*Car](cc, "car")
		require.NoError(t, err)
		assert.Equal(t, 500, car.Engine.Power)
		assert.Equal(t, "cached", car.Name)
		assert.Equal(t, "petrol", car.Fuel.Kind())
	}
}

func TestWithLogger(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	reg, _ := newFixtureRegistry()
	c := New(reg, WithLogger(logger))
	c.AddRule("container.Engine", rules.Rule{Shared: rules.Bool(true)})

	_, err := c.Get("container.Engine")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Compiling factory.")
	assert.Contains(t, buf.String(), "Registering shared instance.")
}
