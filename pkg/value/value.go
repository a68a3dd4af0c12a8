// Package value defines the closed tagged union used for every runtime
// value in Brio: primitives, opaque native handles, and user-declared
// record instances. Downstream code switches on Kind exhaustively; there
// are no hidden subtypes and no dynamic casts.
package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the variant stored in a Value.
type Kind uint8

const (
	KindUnit Kind = iota
	KindInt
	KindDouble
	KindBool
	KindString
	KindHandle
	KindRecord
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindUnit:
		return "Unit"
	case KindInt:
		return "Int"
	case KindDouble:
		return "Double"
	case KindBool:
		return "Bool"
	case KindString:
		return "String"
	case KindHandle:
		return "NativeHandle"
	case KindRecord:
		return "Record"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Handle is an opaque native value produced only by the capability bridge.
// Bytecode can carry a handle around and hand it back to the bridge, but
// can never construct one or look inside it.
type Handle struct {
	Type string // receiver kind, e.g. "Text", "ClosedRange", "Binding"
	ID   string // unique handle id, assigned by the bridge
	Obj  any    // native payload, invisible to the script
}

// Record is an instance of a user-declared record type.
type Record struct {
	TypeName string
	Fields   map[string]Value
}

// Value is the tagged union. The zero Value is Unit.
type Value struct {
	kind Kind
	n    int64 // Int payload; Bool stores 0/1 here
	f    float64
	s    string
	h    *Handle
	r    *Record
}

// Unit is the absent/none value.
var Unit = Value{kind: KindUnit}

// NewInt wraps an int64.
func NewInt(n int64) Value { return Value{kind: KindInt, n: n} }

// NewDouble wraps a float64.
func NewDouble(f float64) Value { return Value{kind: KindDouble, f: f} }

// NewBool wraps a bool.
func NewBool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.n = 1
	}
	return v
}

// NewString wraps a string.
func NewString(s string) Value { return Value{kind: KindString, s: s} }

// NewHandle wraps a native handle.
func NewHandle(h *Handle) Value { return Value{kind: KindHandle, h: h} }

// NewRecord wraps a record instance.
func NewRecord(r *Record) Value { return Value{kind: KindRecord, r: r} }

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// Int returns the Int payload. Valid only when Kind() == KindInt.
func (v Value) Int() int64 { return v.n }

// Double returns the Double payload. Valid only when Kind() == KindDouble.
func (v Value) Double() float64 { return v.f }

// Bool returns the Bool payload. Valid only when Kind() == KindBool.
func (v Value) Bool() bool { return v.n != 0 }

// Str returns the String payload. Valid only when Kind() == KindString.
func (v Value) Str() string { return v.s }

// Handle returns the native handle. Valid only when Kind() == KindHandle.
func (v Value) Handle() *Handle { return v.h }

// Record returns the record instance. Valid only when Kind() == KindRecord.
func (v Value) Record() *Record { return v.r }

// IsUnit reports whether v is the Unit value.
func (v Value) IsUnit() bool { return v.kind == KindUnit }

// IsNumeric reports whether v is an Int or a Double.
func (v Value) IsNumeric() bool {
	return v.kind == KindInt || v.kind == KindDouble
}

// AsDouble promotes a numeric value to float64.
func (v Value) AsDouble() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.n), true
	case KindDouble:
		return v.f, true
	default:
		return 0, false
	}
}

// Equal implements same-variant equality: Int/Int, Double/Double, Bool/Bool
// and String/String compare by payload; every cross-variant pair, and every
// pair involving Unit, handles, or records, compares false.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindInt:
		return a.n == b.n
	case KindDouble:
		return a.f == b.f
	case KindBool:
		return a.n == b.n
	case KindString:
		return a.s == b.s
	default:
		return false
	}
}

// String returns the canonical textual form, used by string interpolation
// and the print function.
func (v Value) String() string {
	switch v.kind {
	case KindUnit:
		return ""
	case KindInt:
		return strconv.FormatInt(v.n, 10)
	case KindDouble:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		if v.n != 0 {
			return "true"
		}
		return "false"
	case KindString:
		return v.s
	case KindHandle:
		return v.h.Type
	case KindRecord:
		return v.r.describe()
	default:
		return fmt.Sprintf("Value(kind=%d)", uint8(v.kind))
	}
}

func (r *Record) describe() string {
	names := make([]string, 0, len(r.Fields))
	for name := range r.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(r.TypeName)
	sb.WriteString("(")
	for i, name := range names {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(name)
		sb.WriteString(": ")
		sb.WriteString(r.Fields[name].String())
	}
	sb.WriteString(")")
	return sb.String()
}
