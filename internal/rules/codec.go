package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// rawRule is the serialized shape of a Rule. Argument fields carry raw trees
// (see RawSpec) so that descriptors survive the round trip. ConstructArgs is a
// pointer so an explicitly empty list is kept apart from an unset one.
type rawRule struct {
	Target         string         `json:"target,omitempty"`
	ConstructArgs  *[]any         `json:"constructArgs,omitempty"`
	Shared         *bool          `json:"shared,omitempty"`
	ShareInstances []string       `json:"shareInstances,omitempty"`
	Substitutions  map[string]any `json:"substitutions,omitempty"`
	Inherit        *bool          `json:"inherit,omitempty"`
	StaticFactory  string         `json:"staticFactory,omitempty"`
	PostCalls      []rawCall      `json:"postCalls,omitempty"`
}

type rawCall struct {
	Method string `json:"method"`
	Args   []any  `json:"args,omitempty"`
	Chain  bool   `json:"chain,omitempty"`
}

// MarshalJSON implements json.Marshaler. A rule holding a Func target fails
// with ErrNotSerializable.
func (r Rule) MarshalJSON() ([]byte, error) {
	raw, err := r.toRaw()
	if err != nil {
		return nil, err
	}
	return json.Marshal(raw)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Rule) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw rawRule
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	rule, err := FromRaw(raw.Target, map[string]any{
		"constructArgs":  argsOrNil(raw.ConstructArgs),
		"substitutions":  toMapOrNil(raw.Substitutions),
		"shareInstances": raw.ShareInstances,
	})
	if err != nil {
		return err
	}
	rule.Shared = raw.Shared
	rule.Inherit = raw.Inherit
	rule.StaticFactory = raw.StaticFactory
	if raw.PostCalls != nil {
		rule.PostCalls = make([]Call, 0, len(raw.PostCalls))
		for _, c := range raw.PostCalls {
			call := Call{Method: c.Method, Chain: c.Chain}
			if c.Args != nil {
				args, err := ParseRaw(c.Args)
				if err != nil {
					return fmt.Errorf("post call %q: %w", c.Method, err)
				}
				call.Args = args.([]any)
			}
			rule.PostCalls = append(rule.PostCalls, call)
		}
	}
	*r = rule
	return nil
}

func (r Rule) toRaw() (rawRule, error) {
	out := rawRule{
		Target:         r.Target,
		Shared:         r.Shared,
		ShareInstances: r.ShareInstances,
		Inherit:        r.Inherit,
		StaticFactory:  r.StaticFactory,
	}
	if r.ConstructArgs != nil {
		args, err := RawSpec(r.ConstructArgs)
		if err != nil {
			return rawRule{}, fmt.Errorf("constructArgs: %w", err)
		}
		list := args.([]any)
		out.ConstructArgs = &list
	}
	if r.Substitutions != nil {
		subs, err := RawSpec(r.Substitutions)
		if err != nil {
			return rawRule{}, fmt.Errorf("substitutions: %w", err)
		}
		out.Substitutions = subs.(map[string]any)
	}
	for _, c := range r.PostCalls {
		rc := rawCall{Method: c.Method, Chain: c.Chain}
		if c.Args != nil {
			args, err := RawSpec(c.Args)
			if err != nil {
				return rawRule{}, fmt.Errorf("post call %q: %w", c.Method, err)
			}
			rc.Args = args.([]any)
		}
		out.PostCalls = append(out.PostCalls, rc)
	}
	return out, nil
}

// FromRaw builds a Rule from the argument-bearing fields of a decoded rule.
// Recognized keys are constructArgs, substitutions and shareInstances; each
// value is parsed with ParseRaw.
func FromRaw(target string, fields map[string]any) (Rule, error) {
	rule := Rule{Target: target}
	if v := fields["constructArgs"]; v != nil {
		parsed, err := ParseRaw(v)
		if err != nil {
			return Rule{}, fmt.Errorf("constructArgs: %w", err)
		}
		list, ok := parsed.([]any)
		if !ok {
			return Rule{}, fmt.Errorf("constructArgs must be a list, got %T", parsed)
		}
		rule.ConstructArgs = list
	}
	if v := fields["substitutions"]; v != nil {
		parsed, err := ParseRaw(v)
		if err != nil {
			return Rule{}, fmt.Errorf("substitutions: %w", err)
		}
		m, ok := parsed.(map[string]any)
		if !ok {
			return Rule{}, fmt.Errorf("substitutions must be a mapping, got %T", parsed)
		}
		rule.Substitutions = m
	}
	if v, ok := fields["shareInstances"].([]string); ok && v != nil {
		rule.ShareInstances = v
	}
	return rule, nil
}

func argsOrNil(v *[]any) any {
	if v == nil {
		return nil
	}
	if *v == nil {
		return []any{}
	}
	return *v
}

func toMapOrNil(v map[string]any) any {
	if v == nil {
		return nil
	}
	return v
}

// EncodeTable serializes t as JSON, preserving order.
func EncodeTable(t Table) ([]byte, error) {
	if t == nil {
		t = Table{}
	}
	return json.Marshal(t)
}

// DecodeTable is the inverse of EncodeTable.
func DecodeTable(data []byte) (Table, error) {
	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decoding rule table: %w", err)
	}
	return t, nil
}
