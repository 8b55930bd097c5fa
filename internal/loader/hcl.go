package loader

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/objgraph/internal/ctxlog"
	"github.com/specialistvlad/objgraph/internal/rules"
)

// fileRoot is the top level of an HCL rule file.
type fileRoot struct {
	Rules  []*ruleBlock `hcl:"rule,block"`
	Remain hcl.Body     `hcl:",remain"`
}

// ruleBlock is one `rule "<name>" { ... }` block.
type ruleBlock struct {
	Name           string         `hcl:"name,label"`
	Target         *string        `hcl:"target,optional"`
	ConstructArgs  hcl.Expression `hcl:"construct_args,optional"`
	Shared         *bool          `hcl:"shared,optional"`
	Inherit        *bool          `hcl:"inherit,optional"`
	ShareInstances []string       `hcl:"share_instances,optional"`
	Substitutions  hcl.Expression `hcl:"substitutions,optional"`
	StaticFactory  *string        `hcl:"static_factory,optional"`
	Calls          []*callBlock   `hcl:"call,block"`
}

// callBlock is a `call "<method>" { ... }` block inside a rule.
type callBlock struct {
	Method string         `hcl:"method,label"`
	Args   hcl.Expression `hcl:"args,optional"`
	Chain  *bool          `hcl:"chain,optional"`
}

// decodeHCL parses src as native HCL syntax, or as HCL JSON syntax when
// filename ends in .json.
func decodeHCL(ctx context.Context, parser *hclparse.Parser, filename string, src []byte) (rules.Table, error) {
	var (
		file  *hcl.File
		diags hcl.Diagnostics
	)
	if filepath.Ext(filename) == ".json" {
		file, diags = parser.ParseJSON(src, filename)
	} else {
		file, diags = parser.ParseHCL(src, filename)
	}
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	table := make(rules.Table, 0, len(root.Rules))
	for _, b := range root.Rules {
		rule, err := translateRule(ctx, b)
		if err != nil {
			return nil, fmt.Errorf("%s: rule '%s': %w", filename, b.Name, err)
		}
		table = append(table, rules.NamedRule{Name: b.Name, Rule: rule})
	}
	return table, nil
}

func translateRule(ctx context.Context, b *ruleBlock) (rules.Rule, error) {
	fields := map[string]any{}
	if isExprDefined(ctx, b.ConstructArgs, "construct_args") {
		v, err := exprToNative(b.ConstructArgs)
		if err != nil {
			return rules.Rule{}, fmt.Errorf("construct_args: %w", err)
		}
		fields["constructArgs"] = v
	}
	if isExprDefined(ctx, b.Substitutions, "substitutions") {
		v, err := exprToNative(b.Substitutions)
		if err != nil {
			return rules.Rule{}, fmt.Errorf("substitutions: %w", err)
		}
		fields["substitutions"] = v
	}

	var target string
	if b.Target != nil {
		target = *b.Target
	}
	rule, err := rules.FromRaw(target, fields)
	if err != nil {
		return rules.Rule{}, err
	}
	rule.Shared = b.Shared
	rule.Inherit = b.Inherit
	rule.ShareInstances = b.ShareInstances
	if b.StaticFactory != nil {
		rule.StaticFactory = *b.StaticFactory
	}

	for _, cb := range b.Calls {
		call := rules.Call{Method: cb.Method}
		if cb.Chain != nil {
			call.Chain = *cb.Chain
		}
		if isExprDefined(ctx, cb.Args, "args") {
			v, err := exprToNative(cb.Args)
			if err != nil {
				return rules.Rule{}, fmt.Errorf("call '%s': %w", cb.Method, err)
			}
			parsed, err := rules.ParseRaw(v)
			if err != nil {
				return rules.Rule{}, fmt.Errorf("call '%s': %w", cb.Method, err)
			}
			if parsed == nil {
				rule.PostCalls = append(rule.PostCalls, call)
				continue
			}
			args, ok := parsed.([]any)
			if !ok {
				return rules.Rule{}, fmt.Errorf("call '%s': args must be a list", cb.Method)
			}
			call.Args = args
		}
		rule.PostCalls = append(rule.PostCalls, call)
	}
	return rule, nil
}

// exprToNative evaluates a literal expression. Rule files have no variables
// or functions, so a nil evaluation context is used.
func exprToNative(expr hcl.Expression) (any, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	return ctyToNative(val)
}

// isExprDefined checks if an HCL expression was actually present in the source
// code. The HCL decoder often populates optional fields with non-nil, zero-width
// expression objects, so a simple nil check is insufficient.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	defined := r.End.Byte > r.Start.Byte
	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", r.String(),
		"is_defined", defined,
	)
	return defined
}
