package registry

import "reflect"

// IsSubtype reports whether the type registered as name is a subtype of the
// type registered as base. A type is a subtype of an interface it implements
// through its pointer, and of every struct it embeds directly or
// transitively. A type is not its own subtype.
func (r *Registry) IsSubtype(name, base string) bool {
	t, ok := r.Lookup(name)
	if !ok {
		return false
	}
	b, ok := r.Lookup(base)
	if !ok || t == b {
		return false
	}
	return Subtype(t.Type, b.Type)
}

// Subtype is IsSubtype on Go types.
func Subtype(t, base reflect.Type) bool {
	if t == base {
		return false
	}
	if base.Kind() == reflect.Interface {
		if t.Kind() == reflect.Interface {
			return t.Implements(base)
		}
		return reflect.PointerTo(t).Implements(base)
	}
	if t.Kind() != reflect.Struct || base.Kind() != reflect.Struct {
		return false
	}
	return embeds(t, base, map[reflect.Type]bool{})
}

func embeds(t, base reflect.Type, seen map[reflect.Type]bool) bool {
	if seen[t] {
		return false
	}
	seen[t] = true
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft == base {
			return true
		}
		if ft.Kind() == reflect.Struct && embeds(ft, base, seen) {
			return true
		}
	}
	return false
}
