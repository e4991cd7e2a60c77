package reflect

import (
	"reflect"
	"unsafe"
)

type identityKey struct {
	typ reflect.Type
	ptr unsafe.Pointer
}

// Identity returns a comparable key that is equal for two values only when
// they are the same object. Values without reference semantics (ints,
// strings, plain structs) have no identity and return false.
func Identity(v any) (any, bool) {
	if v == nil {
		return nil, false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Chan, reflect.UnsafePointer:
		if rv.IsNil() {
			return nil, false
		}
		return v, true
	case reflect.Map, reflect.Func:
		if rv.IsNil() {
			return nil, false
		}
		return identityKey{typ: rv.Type(), ptr: rv.UnsafePointer()}, true
	case reflect.Slice:
		if rv.IsNil() || rv.Cap() == 0 {
			return nil, false
		}
		return identityKey{typ: rv.Type(), ptr: rv.UnsafePointer()}, true
	default:
		return nil, false
	}
}

// Pointer returns the address behind a pointer-shaped value and whether the
// pointee occupies memory. Zero-sized pointees share one address in the Go
// runtime and cannot be tracked by identity.
func Pointer(v any) (unsafe.Pointer, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return nil, false
	}
	if rv.Type().Elem().Size() == 0 {
		return nil, false
	}
	return rv.UnsafePointer(), true
}
