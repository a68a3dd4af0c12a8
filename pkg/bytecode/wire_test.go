package bytecode

import (
	"bytes"
	"testing"

	"github.com/brio-lang/brio/pkg/bridge"
	"github.com/brio-lang/brio/pkg/value"
)

func TestMarshalRoundTrip(t *testing.T) {
	ctx := &Context{States: map[string]value.Value{"count": value.NewInt(3)}}
	orig := mustCompile(t, moduleOf(exprStmt(binExpr("+", ident("count"), stringLit("!")))), ctx)

	data, err := Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if !bytes.Equal(got.Code, orig.Code) {
		t.Error("code did not round-trip")
	}
	if len(got.Strings) != len(orig.Strings) || len(got.Symbols) != len(orig.Symbols) {
		t.Error("pools did not round-trip")
	}
	if v, ok := got.StateDefaults["count"]; !ok || v.Int() != 3 {
		t.Errorf("StateDefaults[count] = (%v, %v), want (3, true)", v, ok)
	}
}

func TestMarshalRoundTripActions(t *testing.T) {
	orig := NewProgram()
	orig.Actions = append(orig.Actions, Action{State: "count", Value: value.NewInt(5)})
	orig.Types = append(orig.Types, RecordType{Name: "Point", Fields: []string{"x", "y"}})

	data, err := Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if len(got.Actions) != 1 || got.Actions[0].State != "count" || got.Actions[0].Value.Int() != 5 {
		t.Errorf("actions = %+v, want [count <- 5]", got.Actions)
	}
	if rt, ok := got.TypeByName("Point"); !ok || len(rt.Fields) != 2 {
		t.Errorf("types did not round-trip: %+v", got.Types)
	}
}

func TestMarshalIsDeterministic(t *testing.T) {
	ctx := &Context{States: map[string]value.Value{
		"b": value.NewInt(2),
		"a": value.NewInt(1),
		"c": value.NewInt(3),
	}}
	prog := mustCompile(t, moduleOf(exprStmt(ident("a"))), ctx)

	first, err := Marshal(prog)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	second, err := Marshal(prog)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("canonical encoding should be byte-identical across calls")
	}
}

func TestMarshalRejectsHandleDefaults(t *testing.T) {
	prog := NewProgram()
	prog.StateDefaults["h"] = value.NewHandle(&value.Handle{Type: "Text"})

	if _, err := Marshal(prog); err == nil {
		t.Fatal("handle-valued state default should not serialize")
	}
}

func TestMarshalRejectsRecordActions(t *testing.T) {
	prog := NewProgram()
	prog.Actions = append(prog.Actions, Action{
		State: "p",
		Value: value.NewRecord(&value.Record{TypeName: "Point"}),
	})

	if _, err := Marshal(prog); err == nil {
		t.Fatal("record-valued action should not serialize")
	}
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	if _, err := Unmarshal([]byte("not cbor at all")); err == nil {
		t.Fatal("garbage input should fail")
	}
}

func TestUnmarshalRejectsWrongVersion(t *testing.T) {
	data, err := cborEncMode.Marshal(wireProgram{Version: 99})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := Unmarshal(data); err == nil {
		t.Fatal("unsupported version should fail")
	}
}

func TestUnmarshalExecutes(t *testing.T) {
	orig := mustCompile(t, moduleOf(exprStmt(binExpr("*", intLit(6), intLit(7)))), nil)

	data, err := Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	prog, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	got, err := NewVM(bridge.Default()).Run(prog)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got.Int() != 42 {
		t.Errorf("result = %v, want 42", got)
	}
}
