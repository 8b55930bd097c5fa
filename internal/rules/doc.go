// Package rules defines the declarative construction rules that drive the
// container, together with the rule table that resolves a name to its rule.
//
// A Rule is attached to a name. The name is either a registered Go type name
// (e.g. "clock.TimeZone") or an arbitrary alias that points at a type through
// Rule.Target. Names are normalized with Normalize before every lookup, so
// "Clock.TimeZone", ".clock.timezone" and "clock.timezone" are the same key.
//
// # Resolution
//
// Set.Get resolves a name in three steps:
//
//  1. an exact rule for the normalized name;
//  2. the first rule, in insertion order, keyed by a type name that the name
//     is a subtype of, provided the inherit policy lets that rule apply;
//  3. the wildcard rule "*", or an empty rule.
//
// Lookups never fail. An unknown name yields an empty rule and the failure, if
// any, happens later when the container tries to build the target.
//
// # Argument specs
//
// Constructor arguments, substitutions and post-construction call arguments
// are specs: plain Go values are literals, *Descriptor asks the container to
// build another instance, and []any / map[string]any are walked recursively.
// In decoded files a descriptor is any mapping with a "target" key; ParseSpec
// turns such raw trees into specs and RawSpec turns them back.
package rules
