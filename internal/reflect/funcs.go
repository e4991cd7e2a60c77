package reflect

import (
	"fmt"
	"reflect"
)

var errorType = reflect.TypeFor[error]()

// FuncInfo is the validated shape of a constructor function:
// func(args...) T or func(args...) (T, error).
type FuncInfo struct {
	Value    reflect.Value
	Params   []reflect.Type
	Returns  reflect.Type
	HasError bool
}

func Func(fn any) (*FuncInfo, error) {
	if fn == nil {
		return nil, fmt.Errorf("constructor is nil")
	}

	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function, got %s", t)
	}
	if t.IsVariadic() {
		return nil, fmt.Errorf("constructor %s must not be variadic", t)
	}

	info := &FuncInfo{Value: v}
	switch t.NumOut() {
	case 1:
	case 2:
		if !t.Out(1).Implements(errorType) {
			return nil, fmt.Errorf("second result of %s must be error", t)
		}
		info.HasError = true
	default:
		return nil, fmt.Errorf("constructor %s must return T or (T, error)", t)
	}
	info.Returns = t.Out(0)

	info.Params = make([]reflect.Type, t.NumIn())
	for i := range t.NumIn() {
		info.Params[i] = t.In(i)
	}
	return info, nil
}

// Call invokes the function with args and splits the results.
func (f *FuncInfo) Call(args []reflect.Value) (any, error) {
	out := f.Value.Call(args)
	if f.HasError && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}
