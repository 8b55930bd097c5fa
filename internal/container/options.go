package container

import (
	"log/slog"

	"github.com/specialistvlad/objgraph/internal/rules"
)

// Option configures a Container.
type Option func(*options)

type options struct {
	policy   rules.InheritPolicy
	logger   *slog.Logger
	rules    rules.Table
	table    rules.Table
	verbatim bool
}

// WithRules adds the rules of t, in order, merging them like AddRules.
func WithRules(t rules.Table) Option {
	return func(o *options) {
		o.rules = append(o.rules, t...)
	}
}

// WithTable loads a previously merged table as is. It takes precedence over
// WithRules: a cached table is never merged again.
func WithTable(t rules.Table) Option {
	return func(o *options) {
		o.table = t
		o.verbatim = true
	}
}

// WithInheritPolicy sets how an unset Inherit flag is treated.
func WithInheritPolicy(p rules.InheritPolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithLogger sets the logger for compile and registration events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
