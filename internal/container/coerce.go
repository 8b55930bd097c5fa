package container

import (
	"fmt"
	"math"
	"reflect"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// coerce converts v into a value of type t. Rule files only produce strings,
// int64, float64, bool, []any and map[string]any, so those are widened or
// narrowed into the parameter type when Go assignment alone does not work.
func coerce(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, fmt.Errorf("%w: nil for %s", ErrBadArgument, t)
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}

	if t == durationType && rv.Kind() == reflect.String {
		d, err := time.ParseDuration(rv.String())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %v", ErrBadArgument, err)
		}
		return reflect.ValueOf(d), nil
	}

	switch {
	case isInt(t.Kind()):
		return toInt(rv, t)
	case isUint(t.Kind()):
		return toUint(rv, t)
	case isFloat(t.Kind()):
		if isNumber(rv.Kind()) {
			return rv.Convert(t), nil
		}
	case t.Kind() == reflect.String, t.Kind() == reflect.Bool:
		if rv.Kind() == t.Kind() {
			return rv.Convert(t), nil
		}
	case t.Kind() == reflect.Slice:
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			out := reflect.MakeSlice(t, rv.Len(), rv.Len())
			for i := 0; i < rv.Len(); i++ {
				e, err := coerce(rv.Index(i).Interface(), t.Elem())
				if err != nil {
					return reflect.Value{}, fmt.Errorf("index %d: %w", i, err)
				}
				out.Index(i).Set(e)
			}
			return out, nil
		}
	case t.Kind() == reflect.Map:
		if rv.Kind() == reflect.Map {
			out := reflect.MakeMapWithSize(t, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				k, err := coerce(iter.Key().Interface(), t.Key())
				if err != nil {
					return reflect.Value{}, fmt.Errorf("key %v: %w", iter.Key(), err)
				}
				e, err := coerce(iter.Value().Interface(), t.Elem())
				if err != nil {
					return reflect.Value{}, fmt.Errorf("key %v: %w", iter.Key(), err)
				}
				out.SetMapIndex(k, e)
			}
			return out, nil
		}
	}
	return reflect.Value{}, fmt.Errorf("%w: cannot use %T as %s", ErrBadArgument, v, t)
}

func toInt(rv reflect.Value, t reflect.Type) (reflect.Value, error) {
	var n int64
	switch {
	case isInt(rv.Kind()):
		n = rv.Int()
	case isUint(rv.Kind()):
		u := rv.Uint()
		if u > math.MaxInt64 {
			return reflect.Value{}, fmt.Errorf("%w: %d overflows %s", ErrBadArgument, u, t)
		}
		n = int64(u)
	case isFloat(rv.Kind()):
		f := rv.Float()
		if f != math.Trunc(f) || f < math.MinInt64 || f > math.MaxInt64 {
			return reflect.Value{}, fmt.Errorf("%w: %v is not an integer", ErrBadArgument, f)
		}
		n = int64(f)
	default:
		return reflect.Value{}, fmt.Errorf("%w: cannot use %s as %s", ErrBadArgument, rv.Type(), t)
	}
	out := reflect.New(t).Elem()
	if out.OverflowInt(n) {
		return reflect.Value{}, fmt.Errorf("%w: %d overflows %s", ErrBadArgument, n, t)
	}
	out.SetInt(n)
	return out, nil
}

func toUint(rv reflect.Value, t reflect.Type) (reflect.Value, error) {
	var n uint64
	switch {
	case isUint(rv.Kind()):
		n = rv.Uint()
	case isInt(rv.Kind()):
		i := rv.Int()
		if i < 0 {
			return reflect.Value{}, fmt.Errorf("%w: %d is negative for %s", ErrBadArgument, i, t)
		}
		n = uint64(i)
	case isFloat(rv.Kind()):
		f := rv.Float()
		if f != math.Trunc(f) || f < 0 || f > math.MaxUint64 {
			return reflect.Value{}, fmt.Errorf("%w: %v is not an unsigned integer", ErrBadArgument, f)
		}
		n = uint64(f)
	default:
		return reflect.Value{}, fmt.Errorf("%w: cannot use %s as %s", ErrBadArgument, rv.Type(), t)
	}
	out := reflect.New(t).Elem()
	if out.OverflowUint(n) {
		return reflect.Value{}, fmt.Errorf("%w: %d overflows %s", ErrBadArgument, n, t)
	}
	out.SetUint(n)
	return out, nil
}

func isInt(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUint(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func isNumber(k reflect.Kind) bool {
	return isInt(k) || isUint(k) || isFloat(k)
}
