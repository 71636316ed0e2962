package zabbix

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestFormat(t *testing.T) {
	id := uuid.MustParse("a0a08746-4dbe-4a37-9adf-9e7652c0b421")

	tests := []struct {
		name string
		v    Value
		opts FormatOptions
		want string
	}{
		{"null with fallback", Null, FormatOptions{Fallback: Fallback("ZBX_NOTSUPPORTED")}, "ZBX_NOTSUPPORTED"},
		{"null without fallback", Null, FormatOptions{}, ""},
		{"null ignores quoting", Null, FormatOptions{JSONQuote: true, Escape: true}, ""},
		{"true quoted is still numeric", BoolValue(true), FormatOptions{JSONQuote: true}, "1"},
		{"false", BoolValue(false), FormatOptions{}, "0"},
		{"escape and quote", StringValue(`a"b`), FormatOptions{Escape: true, JSONQuote: true}, `"a\"b"`},
		{"backslash escaped once", StringValue(`C:\WSUS\"x"`), FormatOptions{Escape: true}, `C:\\WSUS\\\"x\"`},
		{"no escape keeps text", StringValue(`a"b\c`), FormatOptions{}, `a"b\c`},
		{"string trimmed", StringValue("  WSUS01 \r\n"), FormatOptions{}, "WSUS01"},
		{"trim before quote", StringValue(" x "), FormatOptions{JSONQuote: true}, `"x"`},
		{"integer unquoted", IntValue(42), FormatOptions{JSONQuote: true}, "42"},
		{"float uses dot", FloatValue(3.25), FormatOptions{JSONQuote: true}, "3.25"},
		{"raw json number", NumberValue("1.5e3"), FormatOptions{}, "1.5e3"},
		{"epoch seconds", TimeValue(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)), FormatOptions{JSONQuote: true}, "1704164645"},
		{"before epoch", TimeValue(time.Date(1969, 12, 31, 23, 59, 0, 0, time.UTC)), FormatOptions{}, "-60"},
		{"epoch itself", TimeValue(time.Unix(0, 0)), FormatOptions{}, "0"},
		{"guid quoted", GUIDValue(id), FormatOptions{JSONQuote: true}, `"a0a08746-4dbe-4a37-9adf-9e7652c0b421"`},
		{"guid bare", GUIDValue(id), FormatOptions{}, "a0a08746-4dbe-4a37-9adf-9e7652c0b421"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(tt.v, tt.opts)
			if got != tt.want {
				t.Errorf("Format(%v) = %q, want %q", tt.v, got, tt.want)
			}
		})
	}
}

func TestFormat_ObjectUsesStringer(t *testing.T) {
	obj := &testObject{names: []string{"Count"}, values: map[string]Value{"Count": IntValue(3)}, text: " 3 "}
	if got := Format(ObjectValue(obj), FormatOptions{JSONQuote: true}); got != "3" {
		t.Errorf("Format(object) = %q, want 3", got)
	}
}

func TestFallback(t *testing.T) {
	if Fallback("") != nil {
		t.Error("empty code should mean no fallback")
	}
	if f := Fallback("-1"); f == nil || *f != "-1" {
		t.Errorf("Fallback(-1) = %v", f)
	}
}

func TestObjectValue_NilIsNull(t *testing.T) {
	if !ObjectValue(nil).IsNull() {
		t.Error("ObjectValue(nil) should be Null")
	}
}

// testObject is a minimal ordered Object for tests.
type testObject struct {
	names  []string
	values map[string]Value
	text   string
}

func (o *testObject) Property(name string) (Value, bool) {
	v, ok := o.values[name]
	return v, ok
}

func (o *testObject) PropertyNames() []string { return o.names }

func (o *testObject) String() string { return o.text }

func newTestObject(pairs ...any) *testObject {
	o := &testObject{values: make(map[string]Value)}
	for i := 0; i+1 < len(pairs); i += 2 {
		name := pairs[i].(string)
		o.names = append(o.names, name)
		o.values[name] = pairs[i+1].(Value)
	}
	return o
}
