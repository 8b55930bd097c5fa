package loader

import (
	"fmt"

	"github.com/specialistvlad/objgraph/internal/rules"
	"gopkg.in/yaml.v3"
)

// yamlFile is the top level of a YAML rule file. Rules stay a node so that
// their order in the file is kept.
type yamlFile struct {
	Rules yaml.Node `yaml:"rules"`
}

type yamlRule struct {
	Target         string         `yaml:"target"`
	ConstructArgs  []any          `yaml:"constructArgs"`
	Shared         *bool          `yaml:"shared"`
	Inherit        *bool          `yaml:"inherit"`
	ShareInstances []string       `yaml:"shareInstances"`
	Substitutions  map[string]any `yaml:"substitutions"`
	StaticFactory  string         `yaml:"staticFactory"`
	PostCalls      []yamlCall     `yaml:"postCalls"`
}

type yamlCall struct {
	Method string `yaml:"method"`
	Args   []any  `yaml:"args"`
	Chain  bool   `yaml:"chain"`
}

func decodeYAML(filename string, src []byte) (rules.Table, error) {
	var doc yamlFile
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML file %s: %w", filename, err)
	}
	if doc.Rules.Kind == 0 {
		return rules.Table{}, nil
	}
	if doc.Rules.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s:%d: 'rules' must be a mapping", filename, doc.Rules.Line)
	}

	content := doc.Rules.Content
	table := make(rules.Table, 0, len(content)/2)
	for i := 0; i+1 < len(content); i += 2 {
		keyNode, valNode := content[i], content[i+1]
		var yr yamlRule
		if err := valNode.Decode(&yr); err != nil {
			return nil, fmt.Errorf("%s:%d: rule '%s': %w", filename, keyNode.Line, keyNode.Value, err)
		}
		rule, err := yr.toRule()
		if err != nil {
			return nil, fmt.Errorf("%s:%d: rule '%s': %w", filename, keyNode.Line, keyNode.Value, err)
		}
		table = append(table, rules.NamedRule{Name: keyNode.Value, Rule: rule})
	}
	return table, nil
}

func (yr yamlRule) toRule() (rules.Rule, error) {
	fields := map[string]any{}
	if yr.ConstructArgs != nil {
		fields["constructArgs"] = yr.ConstructArgs
	}
	if yr.Substitutions != nil {
		fields["substitutions"] = yr.Substitutions
	}
	rule, err := rules.FromRaw(yr.Target, fields)
	if err != nil {
		return rules.Rule{}, err
	}
	rule.Shared = yr.Shared
	rule.Inherit = yr.Inherit
	rule.ShareInstances = yr.ShareInstances
	rule.StaticFactory = yr.StaticFactory

	for _, yc := range yr.PostCalls {
		call := rules.Call{Method: yc.Method, Chain: yc.Chain}
		if yc.Args != nil {
			parsed, err := rules.ParseRaw(yc.Args)
			if err != nil {
				return rules.Rule{}, fmt.Errorf("call '%s': %w", yc.Method, err)
			}
			call.Args = parsed.([]any)
		}
		rule.PostCalls = append(rule.PostCalls, call)
	}
	return rule, nil
}
