package zabbix

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindBool
	KindNumber
	KindTime
	KindGUID
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindTime:
		return "time"
	case KindGUID:
		return "guid"
	case KindObject:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Object is a domain object whose properties can be looked up by name.
// Lookups of unknown names report ok=false rather than failing.
type Object interface {
	Property(name string) (Value, bool)
	PropertyNames() []string
}

// Value is a single item value as it flows from a WSUS object to Zabbix.
// The zero Value is Null.
type Value struct {
	kind Kind
	text string // string and number payload
	b    bool
	t    time.Time
	guid uuid.UUID
	obj  Object
}

// Null is the absent value.
var Null = Value{}

// StringValue wraps a string.
func StringValue(s string) Value {
	return Value{kind: KindString, text: s}
}

// BoolValue wraps a boolean.
func BoolValue(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// IntValue wraps an integer.
func IntValue(n int64) Value {
	return Value{kind: KindNumber, text: strconv.FormatInt(n, 10)}
}

// FloatValue wraps a float, rendered with a '.' decimal point.
func FloatValue(f float64) Value {
	return Value{kind: KindNumber, text: strconv.FormatFloat(f, 'f', -1, 64)}
}

// NumberValue wraps a number already in textual form (e.g. a raw JSON number).
func NumberValue(text string) Value {
	return Value{kind: KindNumber, text: text}
}

// TimeValue wraps a point in time.
func TimeValue(t time.Time) Value {
	return Value{kind: KindTime, t: t}
}

// GUIDValue wraps an identifier.
func GUIDValue(id uuid.UUID) Value {
	return Value{kind: KindGUID, guid: id}
}

// ObjectValue wraps a nested object. A nil object yields Null.
func ObjectValue(o Object) Value {
	if o == nil {
		return Null
	}
	return Value{kind: KindObject, obj: o}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the absent value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Object returns the nested object, if v holds one.
func (v Value) Object() (Object, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.obj, true
}

// Time returns the timestamp, if v holds one.
func (v Value) Time() (time.Time, bool) {
	if v.kind != KindTime {
		return time.Time{}, false
	}
	return v.t, true
}

// natural is the untrimmed, unescaped representation used by Format.
func (v Value) natural() string {
	switch v.kind {
	case KindString, KindNumber:
		return v.text
	case KindBool:
		if v.b {
			return "1"
		}
		return "0"
	case KindTime:
		return strconv.FormatInt(v.t.Unix(), 10)
	case KindGUID:
		return v.guid.String()
	case KindObject:
		if s, ok := v.obj.(fmt.Stringer); ok {
			return s.String()
		}
		return ""
	default:
		return ""
	}
}

// String implements fmt.Stringer for logging; it is not the Zabbix rendering.
func (v Value) String() string {
	if v.kind == KindNull {
		return "<null>"
	}
	return v.natural()
}
