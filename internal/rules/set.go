// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package rules

import "sync"

// Hierarchy answers the type questions the Set needs for inheritance.
// The container passes its type registry.
type Hierarchy interface {
	// IsType reports whether name is a registered type, as opposed to an alias.
	IsType(name string) bool
	// IsSubtype reports whether the type called name is a subtype of base.
	IsSubtype(name, base string) bool
}

// NamedRule is one entry of a Table.
type NamedRule struct {
	Name string `json:"name"`
	Rule Rule   `json:"rule"`
}

// Table is an insertion-ordered list of rules. Order matters: inheritance
// picks the first qualifying ancestor.
type Table []NamedRule

// Set is an insertion-ordered map from normalized name to Rule. It is safe
// for concurrent use.
type Set struct {
	mu        sync.RWMutex
	hierarchy Hierarchy
	policy    InheritPolicy
	order     []string
	byName    map[string]Rule
}

// NewSet creates an empty Set. A nil hierarchy disables inheritance.
func NewSet(h Hierarchy, policy InheritPolicy) *Set {
	return &Set{
		hierarchy: h,
		policy:    policy,
		byName:    make(map[string]Rule),
	}
}

// Policy returns the inherit policy of the set.
func (s *Set) Policy() InheritPolicy {
	return s.policy
}

// Add merges rule into the rule stored under name. Fields set on rule win.
// When rule points at a Target and its own Inherit flag passes the policy,
// the target's resolved rule is used as the base of the merge.
func (s *Set) Add(name string, rule Rule) {
	key := Normalize(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	base, exists := s.byName[key]
	if rule.Target != "" && key != Wildcard && s.policy.Allows(rule.Inherit) {
		if targetRule, ok := s.lookupLocked(Normalize(rule.Target)); ok {
			targetRule.Target = ""
			base = Merge(targetRule, base)
		}
	}
	if !exists {
		s.order = append(s.order, key)
	}
	s.byName[key] = Merge(base, rule)
}

// AddTable adds every entry of t in order.
func (s *Set) AddTable(t Table) {
	for _, nr := range t {
		s.Add(nr.Name, nr.Rule)
	}
}

// Get resolves the rule for name. It never fails: an unmatched name yields
// the wildcard rule or an empty Rule.
func (s *Set) Get(name string) Rule {
	key := Normalize(name)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.lookupLocked(key); ok {
		return r
	}
	if r, ok := s.byName[Wildcard]; ok {
		return r
	}
	return Rule{}
}

// Exact returns the rule stored under name without inheritance or fallback.
func (s *Set) Exact(name string) (Rule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byName[Normalize(name)]
	return r, ok
}

// lookupLocked runs the exact and inherited steps of Get.
func (s *Set) lookupLocked(key string) (Rule, bool) {
	if r, ok := s.byName[key]; ok {
		return r, true
	}
	if s.hierarchy == nil || !s.hierarchy.IsType(key) {
		return Rule{}, false
	}
	for _, base := range s.order {
		if base == Wildcard || base == key {
			continue
		}
		r := s.byName[base]
		if r.Target != "" || !s.policy.Allows(r.Inherit) {
			continue
		}
		if !s.hierarchy.IsType(base) {
			continue
		}
		if s.hierarchy.IsSubtype(key, base) {
			return r, true
		}
	}
	return Rule{}, false
}

// Len returns the number of stored rules.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Table returns the stored rules in insertion order.
func (s *Set) Table() Table {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := make(Table, 0, len(s.order))
	for _, key := range s.order {
		t = append(t, NamedRule{Name: key, Rule: s.byName[key]})
	}
	return t
}

// Load replaces the content of the set with t, verbatim. No merging or
// alias expansion takes place; t is expected to come from Table.
func (s *Set) Load(t Table) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = s.order[:0]
	s.byName = make(map[string]Rule, len(t))
	for _, nr := range t {
		key := Normalize(nr.Name)
		if _, dup := s.byName[key]; !dup {
			s.order = append(s.order, key)
		}
		s.byName[key] = nr.Rule
	}
}
