package value

import "testing"

func TestZeroValueIsUnit(t *testing.T) {
	var v Value
	if v.Kind() != KindUnit {
		t.Errorf("zero Value kind = %v, want KindUnit", v.Kind())
	}
	if !v.IsUnit() {
		t.Error("zero Value should be Unit")
	}
	if !Unit.IsUnit() {
		t.Error("Unit should be Unit")
	}
}

func TestConstructorsRoundTrip(t *testing.T) {
	if got := NewInt(42).Int(); got != 42 {
		t.Errorf("Int() = %d, want 42", got)
	}
	if got := NewDouble(3.5).Double(); got != 3.5 {
		t.Errorf("Double() = %g, want 3.5", got)
	}
	if got := NewBool(true).Bool(); got != true {
		t.Errorf("Bool() = %v, want true", got)
	}
	if got := NewString("hi").Str(); got != "hi" {
		t.Errorf("Str() = %q, want %q", got, "hi")
	}

	h := &Handle{Type: "Text", ID: "abc"}
	if got := NewHandle(h).Handle(); got != h {
		t.Error("Handle() did not return the wrapped handle")
	}

	r := &Record{TypeName: "Point", Fields: map[string]Value{"x": NewInt(1)}}
	if got := NewRecord(r).Record(); got != r {
		t.Error("Record() did not return the wrapped record")
	}
}

func TestAsDouble(t *testing.T) {
	tests := []struct {
		name   string
		v      Value
		want   float64
		wantOK bool
	}{
		{"int promotes", NewInt(3), 3.0, true},
		{"double passes through", NewDouble(2.5), 2.5, true},
		{"bool is not numeric", NewBool(true), 0, false},
		{"string is not numeric", NewString("3"), 0, false},
		{"unit is not numeric", Unit, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.v.AsDouble()
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("AsDouble() = (%g, %v), want (%g, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"equal ints", NewInt(4), NewInt(4), true},
		{"unequal ints", NewInt(4), NewInt(5), false},
		{"equal doubles", NewDouble(1.5), NewDouble(1.5), true},
		{"equal bools", NewBool(false), NewBool(false), true},
		{"equal strings", NewString("a"), NewString("a"), true},
		{"int vs double never equal", NewInt(4), NewDouble(4.0), false},
		{"unit vs unit never equal", Unit, Unit, false},
		{"handle vs handle never equal", NewHandle(&Handle{Type: "Text"}), NewHandle(&Handle{Type: "Text"}), false},
		{"string vs int", NewString("4"), NewInt(4), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"unit is empty", Unit, ""},
		{"int", NewInt(-7), "-7"},
		{"double minimal digits", NewDouble(2.5), "2.5"},
		{"double whole number", NewDouble(4), "4"},
		{"bool true", NewBool(true), "true"},
		{"bool false", NewBool(false), "false"},
		{"string verbatim", NewString("hello"), "hello"},
		{"handle shows type", NewHandle(&Handle{Type: "Button", ID: "x"}), "Button"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecordStringSortsFields(t *testing.T) {
	r := NewRecord(&Record{
		TypeName: "Point",
		Fields: map[string]Value{
			"y": NewInt(2),
			"x": NewInt(1),
		},
	})
	want := "Point(x: 1, y: 2)"
	if got := r.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
