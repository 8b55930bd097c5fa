// Package http_client provides a shareable HTTP client and its transport as
// constructible types.
package http_client

import (
	"github.com/specialistvlad/objgraph/internal/registry"
)

// Module implements the registry.Module interface. It registers the client
// and transport types with the application's registry.
type Module struct{}

// Register registers "http_client.Transport" and "http_client.Client".
func (m *Module) Register(r *registry.Registry) {
	r.Register(NewTransport, registry.WithDefaults(100, 10, defaultIdleTimeout))
	r.Register(NewClient, registry.WithDefault(0, defaultTimeout))
}
