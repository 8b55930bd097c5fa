package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/specialistvlad/objgraph/internal/ctxlog"
	"github.com/specialistvlad/objgraph/internal/rules"
)

// ValidationError lists every mismatch found by Validate.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("rule validation failed:\n- %s", strings.Join(e.Problems, "\n- "))
}

// Validate performs a parity check between a rule table and the registered
// Go code: rule targets must be registered and instantiable, static
// factories and post-construction methods must exist, and substitutions must
// be keyed by registered types.
func (r *Registry) Validate(ctx context.Context, table rules.Table) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, nr := range table {
		name := rules.Normalize(nr.Name)
		rule := nr.Rule

		for sub := range rule.Substitutions {
			if !r.Has(sub) {
				errs = append(errs, fmt.Sprintf("rule '%s': substitution for unknown type '%s'", name, sub))
			}
		}

		if name == rules.Wildcard {
			if rule.Target != "" {
				logger.Warn("Wildcard rule has a target; it applies to every unmatched name.", "target", rule.Target)
			}
			continue
		}

		target := rule.Target
		if target == "" {
			target = name
		}
		t, ok := r.Lookup(target)
		if !ok {
			errs = append(errs, fmt.Sprintf("rule '%s': target '%s' is not a registered type", name, target))
			continue
		}
		if !t.Instantiable() {
			errs = append(errs, fmt.Sprintf("rule '%s': target '%s' is an interface and cannot be instantiated", name, t.Name))
			continue
		}
		if rule.StaticFactory != "" {
			if _, ok := t.Factory(rule.StaticFactory); !ok {
				errs = append(errs, fmt.Sprintf("rule '%s': type '%s' has no factory '%s'", name, t.Name, rule.StaticFactory))
			}
		}

		recv := t.PointerType()
		for _, call := range rule.PostCalls {
			m, ok := recv.MethodByName(call.Method)
			if !ok {
				errs = append(errs, fmt.Sprintf("rule '%s': type '%s' has no method '%s'", name, t.Name, call.Method))
				break
			}
			if !call.Chain {
				continue
			}
			if m.Type.NumOut() == 0 {
				errs = append(errs, fmt.Sprintf("rule '%s': chained method '%s' returns nothing", name, call.Method))
				break
			}
			// Later calls run on the chained result.
			recv = m.Type.Out(0)
			if recv.Kind() == reflect.Interface {
				logger.Debug("Chained result is an interface; later calls are checked at construction.", "rule", name, "method", call.Method)
				break
			}
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Problems: errs}
	}
	return nil
}
