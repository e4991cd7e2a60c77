package reflect

import (
	"fmt"
	"reflect"
	"strings"
)

// FieldInfo describes one tagged struct field.
type FieldInfo struct {
	Name     string
	Index    []int
	Type     reflect.Type
	Named    string
	Optional bool
}

// StructFields returns the fields of t (a struct or pointer to struct) that
// carry tagKey, in declaration order. Tagged unexported fields are an error
// because they can never be set.
func StructFields(t reflect.Type, tagKey string) ([]FieldInfo, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, nil
	}

	var fields []FieldInfo
	for i := range t.NumField() {
		f := t.Field(i)
		tag, ok := f.Tag.Lookup(tagKey)
		if !ok {
			continue
		}
		if !f.IsExported() {
			return nil, fmt.Errorf("field %s.%s is tagged %q but unexported", t.Name(), f.Name, tagKey)
		}

		named, optional := parseTag(tag)
		fields = append(
			fields, FieldInfo{
				Name:     f.Name,
				Index:    f.Index,
				Type:     f.Type,
				Named:    named,
				Optional: optional,
			},
		)
	}
	return fields, nil
}

func parseTag(tag string) (named string, optional bool) {
	parts := strings.Split(tag, ",")
	named = strings.TrimSpace(parts[0])
	for _, p := range parts[1:] {
		if strings.TrimSpace(p) == "optional" {
			optional = true
		}
	}
	return named, optional
}

// MethodInfo describes a one-argument setter method.
type MethodInfo struct {
	Name string
	Type reflect.Type
}

// SetterMethods returns exported methods of t whose name starts with prefix
// and that take exactly one argument, sorted by name as reflect reports them.
func SetterMethods(t reflect.Type, prefix string) []MethodInfo {
	if prefix == "" {
		return nil
	}

	var methods []MethodInfo
	for i := range t.NumMethod() {
		m := t.Method(i)
		if !strings.HasPrefix(m.Name, prefix) {
			continue
		}
		// receiver is In(0) on method expressions
		if m.Type.NumIn() != 2 {
			continue
		}
		if m.Type.NumOut() > 1 || (m.Type.NumOut() == 1 && !m.Type.Out(0).Implements(errorType)) {
			continue
		}
		methods = append(methods, MethodInfo{Name: m.Name, Type: m.Type.In(1)})
	}
	return methods
}
