package ast

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		json      string
		wantStmts int
		wantError bool
	}{
		{
			name:      "empty module",
			json:      `{"body": []}`,
			wantStmts: 0,
		},
		{
			name:      "int literal statement",
			json:      `{"body": [{"type": "expr", "expr": {"type": "int", "value": 42}}]}`,
			wantStmts: 1,
		},
		{
			name:      "invalid json",
			json:      `{"body": [}`,
			wantError: true,
		},
		{
			name:      "empty input",
			json:      ``,
			wantError: true,
		},
		{
			name:      "missing discriminator",
			json:      `{"body": [{"value": 1}]}`,
			wantError: true,
		},
		{
			name:      "unknown statement type",
			json:      `{"body": [{"type": "goto"}]}`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod, err := Parse(strings.NewReader(tt.json))
			if (err != nil) != tt.wantError {
				t.Errorf("Parse() error = %v, wantError %v", err, tt.wantError)
				return
			}
			if err == nil && len(mod.Body) != tt.wantStmts {
				t.Errorf("Parse() len(Body) = %d, want %d", len(mod.Body), tt.wantStmts)
			}
		})
	}
}

func TestParseLiterals(t *testing.T) {
	json := `{"body": [
		{"type": "expr", "expr": {"type": "int", "value": 7}},
		{"type": "expr", "expr": {"type": "double", "value": 2.5}},
		{"type": "expr", "expr": {"type": "bool", "value": true}},
		{"type": "expr", "expr": {"type": "string", "value": "hi"}}
	]}`

	mod, err := ParseBytes([]byte(json))
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	if len(mod.Body) != 4 {
		t.Fatalf("len(Body) = %d, want 4", len(mod.Body))
	}

	if lit := mod.Body[0].(*ExprStmt).X.(*IntLit); lit.Value != 7 {
		t.Errorf("IntLit.Value = %d, want 7", lit.Value)
	}
	if lit := mod.Body[1].(*ExprStmt).X.(*DoubleLit); lit.Value != 2.5 {
		t.Errorf("DoubleLit.Value = %g, want 2.5", lit.Value)
	}
	if lit := mod.Body[2].(*ExprStmt).X.(*BoolLit); !lit.Value {
		t.Error("BoolLit.Value = false, want true")
	}
	if lit := mod.Body[3].(*ExprStmt).X.(*StringLit); lit.Value != "hi" {
		t.Errorf("StringLit.Value = %q, want %q", lit.Value, "hi")
	}
}

func TestParseCall(t *testing.T) {
	json := `{"body": [{"type": "expr", "expr": {
		"type": "call",
		"name": "Text",
		"args": [{"type": "string", "value": "hello"}],
		"location": {"line": 3, "col": 5}
	}}]}`

	mod, err := ParseBytes([]byte(json))
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	call := mod.Body[0].(*ExprStmt).X.(*Call)
	if call.Name != "Text" {
		t.Errorf("Call.Name = %q, want %q", call.Name, "Text")
	}
	if call.Target != nil {
		t.Error("Call.Target should be nil for a bare call")
	}
	if len(call.Args) != 1 {
		t.Fatalf("len(Call.Args) = %d, want 1", len(call.Args))
	}
	if call.Loc.Line != 3 || call.Loc.Col != 5 {
		t.Errorf("Call.Loc = %+v, want {3 5}", call.Loc)
	}
}

func TestParseMethodCallWithTarget(t *testing.T) {
	json := `{"body": [{"type": "expr", "expr": {
		"type": "call",
		"name": "uppercased",
		"target": {"type": "string", "value": "hi"},
		"args": []
	}}]}`

	mod, err := ParseBytes([]byte(json))
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	call := mod.Body[0].(*ExprStmt).X.(*Call)
	if call.Target == nil {
		t.Fatal("Call.Target should be set")
	}
	if lit, ok := call.Target.(*StringLit); !ok || lit.Value != "hi" {
		t.Errorf("Call.Target = %#v, want StringLit %q", call.Target, "hi")
	}
}

func TestParseCallWithBlock(t *testing.T) {
	json := `{"body": [{"type": "expr", "expr": {
		"type": "call",
		"name": "VStack",
		"block": [
			{"type": "expr", "expr": {"type": "int", "value": 1}},
			{"type": "expr", "expr": {"type": "int", "value": 2}}
		]
	}}]}`

	mod, err := ParseBytes([]byte(json))
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	call := mod.Body[0].(*ExprStmt).X.(*Call)
	if call.Block == nil {
		t.Fatal("Call.Block should be set")
	}
	if len(call.Block.Stmts) != 2 {
		t.Errorf("len(Block.Stmts) = %d, want 2", len(call.Block.Stmts))
	}
}

func TestParseIfBranches(t *testing.T) {
	json := `{"body": [{"type": "if",
		"cond": {"type": "bool", "value": true},
		"then": [{"type": "expr", "expr": {"type": "int", "value": 1}}],
		"else": [{"type": "expr", "expr": {"type": "int", "value": 2}}]
	}]}`

	mod, err := ParseBytes([]byte(json))
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	s := mod.Body[0].(*If)
	if len(s.Then) != 1 || len(s.Else) != 1 {
		t.Errorf("If branches = (%d, %d), want (1, 1)", len(s.Then), len(s.Else))
	}
}

func TestParseIfWithoutElse(t *testing.T) {
	json := `{"body": [{"type": "if",
		"cond": {"type": "bool", "value": false},
		"then": []
	}]}`

	mod, err := ParseBytes([]byte(json))
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	if s := mod.Body[0].(*If); s.Else != nil {
		t.Errorf("If.Else = %v, want nil", s.Else)
	}
}

func TestParseTernary(t *testing.T) {
	json := `{"body": [{"type": "expr", "expr": {
		"type": "ternary",
		"cond": {"type": "bool", "value": true},
		"then": {"type": "int", "value": 1},
		"else": {"type": "int", "value": 2}
	}}]}`

	mod, err := ParseBytes([]byte(json))
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	tern := mod.Body[0].(*ExprStmt).X.(*Ternary)
	if _, ok := tern.Then.(*IntLit); !ok {
		t.Errorf("Ternary.Then = %#v, want IntLit", tern.Then)
	}
}

func TestParseVarDeclNullInit(t *testing.T) {
	json := `{"body": [{"type": "var", "name": "x", "init": null}]}`

	mod, err := ParseBytes([]byte(json))
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	decl := mod.Body[0].(*VarDecl)
	if decl.Name != "x" {
		t.Errorf("VarDecl.Name = %q, want %q", decl.Name, "x")
	}
	if decl.Init != nil {
		t.Error("VarDecl.Init should be nil for null init")
	}
}

func TestParseRecordDecl(t *testing.T) {
	json := `{"body": [{"type": "record", "name": "Point", "fields": ["x", "y"]}]}`

	mod, err := ParseBytes([]byte(json))
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	decl := mod.Body[0].(*RecordDecl)
	if decl.Name != "Point" || len(decl.Fields) != 2 {
		t.Errorf("RecordDecl = %+v, want Point with 2 fields", decl)
	}
}

func TestParseForEach(t *testing.T) {
	json := `{"body": [{"type": "foreach",
		"var": "item",
		"seq": {"type": "array", "elems": [{"type": "int", "value": 1}]},
		"body": [{"type": "expr", "expr": {"type": "ident", "name": "item"}}]
	}]}`

	mod, err := ParseBytes([]byte(json))
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	fe := mod.Body[0].(*ForEach)
	if fe.Var != "item" {
		t.Errorf("ForEach.Var = %q, want %q", fe.Var, "item")
	}
	arr := fe.Seq.(*ArrayLit)
	if len(arr.Elems) != 1 {
		t.Errorf("len(ArrayLit.Elems) = %d, want 1", len(arr.Elems))
	}
}

func TestParseBindingAndMember(t *testing.T) {
	json := `{"body": [
		{"type": "expr", "expr": {"type": "binding", "name": "count"}},
		{"type": "expr", "expr": {"type": "member",
			"base": {"type": "ident", "name": "p"}, "name": "x"}}
	]}`

	mod, err := ParseBytes([]byte(json))
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	if b := mod.Body[0].(*ExprStmt).X.(*Binding); b.Name != "count" {
		t.Errorf("Binding.Name = %q, want %q", b.Name, "count")
	}
	m := mod.Body[1].(*ExprStmt).X.(*Member)
	if m.Name != "x" {
		t.Errorf("Member.Name = %q, want %q", m.Name, "x")
	}
	if id, ok := m.Base.(*Ident); !ok || id.Name != "p" {
		t.Errorf("Member.Base = %#v, want Ident p", m.Base)
	}
}
