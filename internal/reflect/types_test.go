package reflect

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type testInterface interface {
	DoSomething()
}

type testStruct struct {
	Name string
}

func (t *testStruct) DoSomething() {}

type tagged struct {
	DB      *testStruct   `awl:""`
	Cache   testInterface `awl:"redis,optional"`
	Ignored string
}

type badTagged struct {
	db *testStruct `awl:""` //nolint:unused // exercised through reflection
}

type setters struct{}

func (s *setters) InjectName(string)        {}
func (s *setters) InjectPort(int) error     { return nil }
func (s *setters) InjectTwo(string, string) {}
func (s *setters) Other(string)             {}

func TestTypeKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		typeFunc func() string
		want     string
	}{
		{"int", TypeKey[int], "int"},
		{"string", TypeKey[string], "string"},
		{"pointer to struct", TypeKey[*testStruct], "*github.com/danpasecinic/awl/internal/reflect.testStruct"},
		{"slice", TypeKey[[]string], "[]string"},
		{"array", TypeKey[[12]int], "[12]int"},
		{"map", TypeKey[map[string]int], "map[string]int"},
		{"interface", TypeKey[testInterface], "github.com/danpasecinic/awl/internal/reflect.testInterface"},
		{"context.Context", TypeKey[context.Context], "context.Context"},
		{"recv chan", TypeKey[<-chan int], "<-chan int"},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				t.Parallel()
				if got := tt.typeFunc(); got != tt.want {
					t.Errorf("TypeKey() = %q, want %q", got, tt.want)
				}
			},
		)
	}
}

func TestTypeKeyUnique(t *testing.T) {
	t.Parallel()

	keys := map[string]bool{}
	testCases := []func() string{
		TypeKey[int],
		TypeKey[int32],
		TypeKey[int64],
		TypeKey[string],
		TypeKey[*string],
		TypeKey[[]string],
		TypeKey[[2]string],
		TypeKey[[3]string],
		TypeKey[map[string]int],
		TypeKey[testStruct],
		TypeKey[*testStruct],
	}

	for _, tc := range testCases {
		key := tc()
		if keys[key] {
			t.Errorf("duplicate key: %s", key)
		}
		keys[key] = true
	}
}

func TestIsNil(t *testing.T) {
	t.Parallel()

	var nilPtr *testStruct
	var nilSlice []string
	var nilMap map[string]int
	var nilInterface testInterface

	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"nil", nil, true},
		{"nil pointer", nilPtr, true},
		{"nil slice", nilSlice, true},
		{"nil map", nilMap, true},
		{"nil interface", nilInterface, true},
		{"non-nil int", 42, false},
		{"non-nil string", "hello", false},
		{"non-nil struct", testStruct{}, false},
		{"non-nil pointer", &testStruct{}, false},
		{"non-nil slice", []string{"a"}, false},
		{"non-nil map", map[string]int{"a": 1}, false},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				t.Parallel()
				if got := IsNil(tt.v); got != tt.want {
					t.Errorf("IsNil() = %v, want %v", got, tt.want)
				}
			},
		)
	}
}

func TestIdentity(t *testing.T) {
	t.Parallel()

	a := &testStruct{Name: "x"}
	b := &testStruct{Name: "x"}

	ka, ok := Identity(a)
	if !ok {
		t.Fatal("pointer should have identity")
	}
	kb, _ := Identity(b)
	if ka == kb {
		t.Error("structurally equal pointers must have distinct identity")
	}

	again, _ := Identity(a)
	if ka != again {
		t.Error("same pointer must yield the same identity")
	}

	m := map[string]int{}
	km1, ok := Identity(m)
	if !ok {
		t.Fatal("map should have identity")
	}
	km2, _ := Identity(m)
	if km1 != km2 {
		t.Error("same map must yield the same identity")
	}

	for _, v := range []any{nil, 42, "s", testStruct{}, (*testStruct)(nil)} {
		if _, ok := Identity(v); ok {
			t.Errorf("%#v should not have identity", v)
		}
	}
}

func TestPointer(t *testing.T) {
	t.Parallel()

	if _, ok := Pointer(&testStruct{}); !ok {
		t.Error("pointer to sized struct should be trackable")
	}
	if _, ok := Pointer(&struct{}{}); ok {
		t.Error("pointer to zero-sized value should not be trackable")
	}
	if _, ok := Pointer("owner"); ok {
		t.Error("string is not a pointer")
	}
}

func TestIsSelfBindable(t *testing.T) {
	t.Parallel()

	cases := map[reflect.Type]bool{
		TypeOf[testStruct]():    true,
		TypeOf[*testStruct]():   true,
		TypeOf[int]():           false,
		TypeOf[string]():        false,
		TypeOf[testInterface](): false,
		TypeOf[[]testStruct]():  false,
	}
	for typ, want := range cases {
		if got := IsSelfBindable(typ); got != want {
			t.Errorf("IsSelfBindable(%s) = %v, want %v", typ, got, want)
		}
	}
}

func TestStructFields(t *testing.T) {
	t.Parallel()

	fields, err := StructFields(TypeOf[*tagged](), "awl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields[0].Name != "DB" || fields[0].Named != "" || fields[0].Optional {
		t.Errorf("unexpected first field: %+v", fields[0])
	}
	if fields[1].Name != "Cache" || fields[1].Named != "redis" || !fields[1].Optional {
		t.Errorf("unexpected second field: %+v", fields[1])
	}

	if _, err := StructFields(TypeOf[badTagged](), "awl"); err == nil {
		t.Error("expected error for unexported tagged field")
	}
}

func TestSetterMethods(t *testing.T) {
	t.Parallel()

	methods := SetterMethods(TypeOf[*setters](), "Inject")
	if len(methods) != 2 {
		t.Fatalf("expected 2 setter methods, got %d", len(methods))
	}
	if methods[0].Name != "InjectName" || methods[0].Type != TypeOf[string]() {
		t.Errorf("unexpected method: %+v", methods[0])
	}
	if methods[1].Name != "InjectPort" || methods[1].Type != TypeOf[int]() {
		t.Errorf("unexpected method: %+v", methods[1])
	}
}

func TestFunc(t *testing.T) {
	t.Parallel()

	info, err := Func(func(n int, s string) (*testStruct, error) { return &testStruct{Name: s}, nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(info.Params) != 2 || !info.HasError {
		t.Fatalf("unexpected info: %+v", info)
	}

	got, err := info.Call([]reflect.Value{reflect.ValueOf(1), reflect.ValueOf("a")})
	if err != nil || got.(*testStruct).Name != "a" {
		t.Errorf("Call() = %v, %v", got, err)
	}

	failing, _ := Func(func() (*testStruct, error) { return nil, errors.New("boom") })
	if _, err := failing.Call(nil); err == nil {
		t.Error("expected constructor error")
	}

	for _, bad := range []any{nil, 42, func() {}, func(...int) int { return 0 }, func() (int, int) { return 0, 0 }} {
		if _, err := Func(bad); err == nil {
			t.Errorf("expected error for %T", bad)
		}
	}
}

func BenchmarkTypeKey(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = TypeKey[*testStruct]()
	}
}
