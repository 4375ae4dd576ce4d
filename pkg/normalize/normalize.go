// Package normalize projects the loosely-shaped objects returned by the
// Jumpstarter controller into stable records. Upstream object shapes are not
// contractually fixed (several historical attribute names coexist), so every
// field is resolved through an ordered candidate probe that degrades to a
// documented default instead of failing the tool call.
package normalize

import (
	"fmt"
	"reflect"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// FieldGetter lets a value expose named fields without reflection.
type FieldGetter interface {
	GetField(name string) (any, bool)
}

// sections probed, in order, below the top level of an unstructured object.
var unstructuredSections = []string{"metadata", "spec", "status"}

// ResolveField probes each candidate name in order against the object's
// available fields and returns the first value present, or def when none
// match. Resolution is deterministic: same object and candidate order always
// yield the same value. It never panics on unexpected shapes.
func ResolveField(obj any, candidates []string, def any) any {
	for _, name := range candidates {
		if v, ok := lookup(obj, name); ok {
			return v
		}
	}
	return def
}

// ResolveNested resolves a candidate field and then applies one additional
// probe level against the resolved value. This handles accessor-like shapes
// such as a config whose "client" sub-object carries the actual "endpoint".
// A resolved plain string is returned as-is. A candidate whose value is
// neither a string nor carries any of the nested fields does not end the
// probe; later candidates are still tried before falling back to def.
func ResolveNested(obj any, candidates, nested []string, def any) any {
	for _, name := range candidates {
		v, ok := lookup(obj, name)
		if !ok || v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			return s
		}
		for _, n := range nested {
			if inner, ok := lookup(v, n); ok {
				return inner
			}
		}
	}
	return def
}

// lookup finds a single named field on an object of unknown shape. It
// understands string-keyed maps, unstructured objects (including their
// metadata/spec/status sections), FieldGetter implementations, and exported
// struct fields matched case-insensitively.
func lookup(obj any, name string) (any, bool) {
	switch o := obj.(type) {
	case nil:
		return nil, false
	case map[string]any:
		v, ok := o[name]
		return v, ok
	case map[string]string:
		v, ok := o[name]
		return v, ok
	case *unstructured.Unstructured:
		if o == nil {
			return nil, false
		}
		return lookupUnstructured(o.Object, name)
	case unstructured.Unstructured:
		return lookupUnstructured(o.Object, name)
	case FieldGetter:
		return o.GetField(name)
	}
	return lookupStructField(obj, name)
}

func lookupUnstructured(content map[string]any, name string) (any, bool) {
	if v, ok := content[name]; ok {
		return v, true
	}
	for _, section := range unstructuredSections {
		if sub, ok := content[section].(map[string]any); ok {
			if v, ok := sub[name]; ok {
				return v, true
			}
		}
	}
	return nil, false
}

// lookupStructField probes exported struct fields by name, ignoring case so
// that snake_case candidates match Go field names. Pointers are dereferenced;
// anything that is not a struct resolves to nothing.
func lookupStructField(obj any, name string) (any, bool) {
	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}
	want := strings.ReplaceAll(strings.ToLower(name), "_", "")
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		if strings.ToLower(f.Name) == want {
			return rv.Field(i).Interface(), true
		}
		if tag, ok := f.Tag.Lookup("json"); ok {
			if tagName, _, _ := strings.Cut(tag, ","); tagName == name {
				return rv.Field(i).Interface(), true
			}
		}
	}
	return nil, false
}

// CollectionUnwrap extracts the element sequence from a collection-like list
// result. It probes the given element keys in order (e.g. "exporters",
// "items"), then falls back to iterating the container directly. A shape it
// cannot unwrap yields an empty sequence, never an error: a listing must not
// fail because of a container the normalizer didn't anticipate.
func CollectionUnwrap(container any, elementKeys ...string) []any {
	if container == nil {
		return []any{}
	}
	for _, key := range elementKeys {
		if v, ok := lookup(container, key); ok {
			if elems, ok := toSlice(v); ok {
				return elems
			}
		}
	}
	if elems, ok := toSlice(container); ok {
		return elems
	}
	return []any{}
}

func toSlice(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// resolveText probes candidates in order and returns the first value that
// coerces to text. A candidate that resolves to an unusable composite (the
// raw status section of a custom resource, for example) is skipped so a
// later candidate can still supply the field.
func resolveText(obj any, candidates []string) (string, bool) {
	for _, name := range candidates {
		if v, ok := lookup(obj, name); ok {
			if s, ok := coerceString(v); ok {
				return s, true
			}
		}
	}
	return "", false
}

// coerceString renders a resolved value as text. Nil, empty, and composite
// (map/slice/struct) values report false so callers can fall back to their
// documented default instead of embedding a dumped object in the record.
func coerceString(v any) (string, bool) {
	switch s := v.(type) {
	case nil:
		return "", false
	case string:
		if s == "" {
			return "", false
		}
		return s, true
	case fmt.Stringer:
		return safeString(s)
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Pointer:
		return "", false
	}
	return fmt.Sprintf("%v", v), true
}

// stringRepresentation returns the object's own textual form when the type
// defines one. Used as a last-resort identifier for objects exposing none of
// the expected name fields.
func stringRepresentation(obj any) (string, bool) {
	if s, ok := obj.(fmt.Stringer); ok {
		return safeString(s)
	}
	return "", false
}

// safeString calls String() only when the receiver can be dereferenced. A
// typed-nil pointer inside a non-nil interface passes an == nil check but
// still crashes the method call, and normalization must never panic.
func safeString(s fmt.Stringer) (string, bool) {
	if s == nil {
		return "", false
	}
	rv := reflect.ValueOf(s)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		if rv.IsNil() {
			return "", false
		}
	}
	str := s.String()
	return str, str != ""
}

// coerceStringMap keeps a resolved labels value only when it is a true
// string-to-string mapping; anything else degrades to an empty map.
func coerceStringMap(v any) map[string]string {
	switch m := v.(type) {
	case map[string]string:
		if m == nil {
			return map[string]string{}
		}
		return m
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, val := range m {
			s, ok := val.(string)
			if !ok {
				return map[string]string{}
			}
			out[k] = s
		}
		return out
	default:
		return map[string]string{}
	}
}

func coerceBool(v any) bool {
	b, ok := v.(bool)
	return ok && b
}
