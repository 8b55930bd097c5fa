// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Rule, the unit of configuration the container reads
// when it compiles a factory for a name.
//
// Every field distinguishes "unset" from its zero value. This matters for
// merging (a later AddRule only overrides what it sets) and especially for
// Inherit, where an explicit false and an absent flag behave differently
// under InheritUnlessFalse.
package rules

import "strings"

// Wildcard is the reserved name of the default rule.
const Wildcard = "*"

// Rule describes how the container builds instances for one name.
type Rule struct {
	// Target is the registered type to instantiate. Empty means the name itself.
	Target string
	// ConstructArgs are appended to the runtime arguments before binding.
	// nil means unset; an empty non-nil slice explicitly clears inherited args.
	ConstructArgs []any
	// Shared caches the first instance and returns it for every later lookup.
	Shared *bool
	// ShareInstances names instances resolved once per build and pushed down
	// into the shared-value pool of the whole nested construction.
	ShareInstances []string
	// Substitutions override type-based resolution for a declared parameter
	// type, keyed by type name.
	Substitutions map[string]any
	// Inherit lets a rule keyed by a type name apply to its subtypes.
	Inherit *bool
	// StaticFactory names a factory registered on the target type that is
	// called instead of its constructor.
	StaticFactory string
	// PostCalls run in order on the instance after construction.
	PostCalls []Call
}

// Call is a method invocation performed after construction.
type Call struct {
	Method string
	Args   []any
	// Chain replaces the instance with the method's first return value.
	Chain bool
}

// Bool returns a pointer to b, for the optional flags of a Rule.
func Bool(b bool) *bool {
	return &b
}

// IsShared reports whether the rule asks for a shared instance.
func (r Rule) IsShared() bool {
	return r.Shared != nil && *r.Shared
}

// IsZero reports whether no field of the rule is set.
func (r Rule) IsZero() bool {
	return r.Target == "" &&
		r.ConstructArgs == nil &&
		r.Shared == nil &&
		r.ShareInstances == nil &&
		r.Substitutions == nil &&
		r.Inherit == nil &&
		r.StaticFactory == "" &&
		r.PostCalls == nil
}

// Merge returns base with every field that over sets replaced by over's
// value. The merge is shallow: slices and maps are replaced wholesale.
func Merge(base, over Rule) Rule {
	out := base
	if over.Target != "" {
		out.Target = over.Target
	}
	if over.ConstructArgs != nil {
		out.ConstructArgs = over.ConstructArgs
	}
	if over.Shared != nil {
		out.Shared = over.Shared
	}
	if over.ShareInstances != nil {
		out.ShareInstances = over.ShareInstances
	}
	if over.Substitutions != nil {
		out.Substitutions = over.Substitutions
	}
	if over.Inherit != nil {
		out.Inherit = over.Inherit
	}
	if over.StaticFactory != "" {
		out.StaticFactory = over.StaticFactory
	}
	if over.PostCalls != nil {
		out.PostCalls = over.PostCalls
	}
	return out
}

// Normalize maps a name to its lookup key: leading namespace separators are
// stripped and the result is lower-cased.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimLeft(name, `\.`))
}

// InheritPolicy decides whether an unset Inherit flag lets a type rule apply
// to subtypes.
type InheritPolicy int

const (
	// InheritExplicit applies a rule to subtypes only when Inherit is true.
	InheritExplicit InheritPolicy = iota
	// InheritUnlessFalse applies a rule to subtypes unless Inherit is false.
	InheritUnlessFalse
)

// Allows reports whether a rule with the given Inherit flag may be inherited.
func (p InheritPolicy) Allows(inherit *bool) bool {
	if inherit != nil {
		return *inherit
	}
	return p == InheritUnlessFalse
}

// String implements fmt.Stringer.
func (p InheritPolicy) String() string {
	switch p {
	case InheritExplicit:
		return "explicit"
	case InheritUnlessFalse:
		return "unless-false"
	default:
		return "unknown"
	}
}

// ParseInheritPolicy is the inverse of InheritPolicy.String.
func ParseInheritPolicy(s string) (InheritPolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "explicit":
		return InheritExplicit, true
	case "unless-false":
		return InheritUnlessFalse, true
	default:
		return InheritExplicit, false
	}
}
