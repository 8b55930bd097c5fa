package container

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a target type is not registered.
	ErrNotFound = errors.New("not found")
	// ErrNotInstantiable is returned when a target is registered only as an
	// interface contract.
	ErrNotInstantiable = errors.New("not instantiable")
	// ErrNotInvocable is returned when a descriptor target resolves to
	// something that is neither a name nor a function.
	ErrNotInvocable = errors.New("not invocable")
	// ErrNoSuchMethod is returned for a missing static factory or post call.
	ErrNoSuchMethod = errors.New("no such method")
	// ErrBadArgument is returned when a value cannot be bound to a parameter.
	ErrBadArgument = errors.New("bad argument")
)

// NotFoundError names the type that could not be found.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("type '%s' not found", e.Name)
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
