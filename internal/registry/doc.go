// Package registry maps the names used in rule files (e.g. "clock.TimeZone")
// to compiled Go types and the functions that build them.
//
// A type is registered with one of three shapes:
//
//   - Provide[T]: no constructor, instances start as the zero value of T.
//   - A constructor func(...) *T or func(...) (*T, error).
//   - An initializer func(*T, ...) or func(*T, ...) error, which fills in an
//     already allocated value. This is the true two-phase form: a shared
//     instance can be handed out before its initializer has run.
//
// Interfaces are registered as contracts so that rules can be keyed by them
// and inherited by every registered type that implements them.
//
// Registration happens once at startup from each Module. Mistakes there are
// programmer errors and panic. Validate checks a rule table against the
// registered Go code, the same way a manifest is checked against its handlers.
package registry
