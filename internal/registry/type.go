package registry

import (
	"reflect"
	"strings"
)

// Form is the shape of a type's constructor.
type Form int

const (
	// FormZero types have no constructor; instances are zero values.
	FormZero Form = iota
	// FormConstructor types are built by func(...) *T.
	FormConstructor
	// FormInitializer types are built by func(*T, ...) on an allocated value.
	FormInitializer
	// FormInterface entries are contracts and cannot be instantiated.
	FormInterface
)

// String implements fmt.Stringer.
func (f Form) String() string {
	switch f {
	case FormZero:
		return "zero"
	case FormConstructor:
		return "constructor"
	case FormInitializer:
		return "initializer"
	case FormInterface:
		return "interface"
	default:
		return "unknown"
	}
}

// Type is one registration.
type Type struct {
	// Name is the name the type was registered under, as given.
	Name string
	// Type is the element type T: the struct (or other named type) that *T
	// points at, or the interface type for contracts.
	Type reflect.Type
	Form Form

	ctor      *Callable
	factories map[string]*Callable
}

// Constructor returns the constructor or initializer, nil for FormZero and
// FormInterface.
func (t *Type) Constructor() *Callable {
	return t.ctor
}

// Factory returns the named static factory.
func (t *Type) Factory(name string) (*Callable, bool) {
	c, ok := t.factories[strings.ToLower(name)]
	return c, ok
}

// Instantiable reports whether instances of the type can be built.
func (t *Type) Instantiable() bool {
	return t.Form != FormInterface
}

// New allocates a zero *T without running any constructor. It is the
// allocate phase of two-phase construction.
func (t *Type) New() reflect.Value {
	return reflect.New(t.Type)
}

// PointerType returns *T.
func (t *Type) PointerType() reflect.Type {
	return reflect.PointerTo(t.Type)
}
