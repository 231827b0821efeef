package ecs

import (
	"reflect"

	"github.com/ashgrove/ecsforge/internal/infrastructure/logging"
)

// Attr describes one field of a component's reset schema: the value a
// pooled instance's field should be set back to when the component is
// released. A nil Default resets the field to its zero value.
type Attr struct {
	Default any
}

// SynthesizeReset builds a ResetterFunc[T] from a field-name-to-default
// schema using reflection, for components that would rather declare their
// defaults as data than hand-write a Reset function. Unknown or unsettable
// field names are silently skipped, so a schema can be a subset of T's
// fields. A default whose value cannot convert to the field's type is also
// skipped, but logs a soft warning — the schema is malformed, though not
// fatally so, and the field is left at its current value rather than the
// requested default.
func SynthesizeReset[T any](schema map[string]Attr) ResetterFunc[T] {
	return func(v *T) {
		rv := reflect.ValueOf(v).Elem()
		for name, attr := range schema {
			f := rv.FieldByName(name)
			if !f.IsValid() || !f.CanSet() {
				continue
			}
			if attr.Default == nil {
				f.Set(reflect.Zero(f.Type()))
				continue
			}
			dv := reflect.ValueOf(attr.Default)
			if !dv.Type().ConvertibleTo(f.Type()) {
				logging.Get().WithField("component", rv.Type().String()).
					Warnf("schema default for field %s has type %s, not convertible to %s: leaving field unset",
						name, dv.Type(), f.Type())
				continue
			}
			f.Set(dv.Convert(f.Type()))
		}
	}
}

// SynthesizeCopy builds a CopierFunc[T] that duplicates every field of T
// by value assignment. Safe for components with no pointer/slice/map
// fields that need a deeper copy; components that do should write their
// own CopierFunc.
func SynthesizeCopy[T any]() CopierFunc[T] {
	return func(dst, src *T) {
		*dst = *src
	}
}
