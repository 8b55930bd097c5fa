// Package clock provides the time zone and clock types used by the example
// rule files.
package clock

import (
	"github.com/specialistvlad/objgraph/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the clock types under "clock.<Type>".
func (m *Module) Register(r *registry.Registry) {
	r.Register(NewTimeZone, registry.WithFactory("UTC", UTC))
	registry.Interface[Source](r)
	registry.Provide[SystemSource](r)
	r.Register(NewFixedSource)
	r.Register(NewClock, registry.WithDefault(0, "now"))
}
