// Package env_vars provides a snapshot of the process environment as a
// constructible type.
package env_vars

import (
	"os"
	"sort"
	"strings"

	"github.com/specialistvlad/objgraph/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Env holds environment variables captured at construction.
type Env struct {
	Prefix string
	Vars   map[string]string
}

// NewEnv captures every variable whose name starts with prefix. The prefix
// is stripped from the stored keys. An empty prefix captures everything.
func NewEnv(prefix string) *Env {
	vars := make(map[string]string)
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) != 2 || !strings.HasPrefix(pair[0], prefix) {
			continue
		}
		vars[strings.TrimPrefix(pair[0], prefix)] = pair[1]
	}
	return &Env{Prefix: prefix, Vars: vars}
}

// Lookup returns the captured value of key.
func (e *Env) Lookup(key string) (string, bool) {
	v, ok := e.Vars[key]
	return v, ok
}

// Get returns the captured value of key, or fallback.
func (e *Env) Get(key, fallback string) string {
	if v, ok := e.Vars[key]; ok {
		return v
	}
	return fallback
}

// Keys returns the captured keys in sorted order.
func (e *Env) Keys() []string {
	keys := make([]string, 0, len(e.Vars))
	for k := range e.Vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set overrides a captured value. It is meant for post-construction calls.
func (e *Env) Set(key, value string) {
	e.Vars[key] = value
}

// Register registers Env as "env_vars.Env".
func (m *Module) Register(r *registry.Registry) {
	r.Register(NewEnv, registry.WithDefault(0, ""))
}
