package ast

import (
	"encoding/json"
	"fmt"
	"io"
)

// Parse decodes a Module from the external parser's JSON wire form. Every
// node is an object with a "type" discriminator.
func Parse(r io.Reader) (*Module, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ast: reading input: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes decodes a Module from raw JSON bytes.
func ParseBytes(data []byte) (*Module, error) {
	var raw struct {
		Body []json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("ast: invalid module: %w", err)
	}
	body, err := decodeStmts(raw.Body)
	if err != nil {
		return nil, err
	}
	return &Module{Body: body}, nil
}

// rawNode is the union of every field any node type may carry. Fields that
// can hold either a single node or a node list (ternary vs if branches)
// stay raw until the discriminator is known.
type rawNode struct {
	Type   string            `json:"type"`
	Value  json.RawMessage   `json:"value"`
	Name   string            `json:"name"`
	Var    string            `json:"var"`
	Op     string            `json:"op"`
	Fields []string          `json:"fields"`
	Loc    Location          `json:"location"`
	Parts  []json.RawMessage `json:"parts"`
	Elems  []json.RawMessage `json:"elems"`
	Args   []json.RawMessage `json:"args"`
	Base   json.RawMessage   `json:"base"`
	Target json.RawMessage   `json:"target"`
	Left   json.RawMessage   `json:"left"`
	Right  json.RawMessage   `json:"right"`
	Cond   json.RawMessage   `json:"cond"`
	Then   json.RawMessage   `json:"then"`
	Else   json.RawMessage   `json:"else"`
	Expr   json.RawMessage   `json:"expr"`
	Init   json.RawMessage   `json:"init"`
	Seq    json.RawMessage   `json:"seq"`
	Body   []json.RawMessage `json:"body"`
	Block  []json.RawMessage `json:"block"`
}

func decodeRaw(data json.RawMessage) (*rawNode, error) {
	var n rawNode
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("ast: invalid node: %w", err)
	}
	if n.Type == "" {
		return nil, fmt.Errorf("ast: node missing type discriminator")
	}
	return &n, nil
}

func decodeExpr(data json.RawMessage) (Expr, error) {
	n, err := decodeRaw(data)
	if err != nil {
		return nil, err
	}

	switch n.Type {
	case "int":
		var v int64
		if err := json.Unmarshal(n.Value, &v); err != nil {
			return nil, fmt.Errorf("ast: int literal: %w", err)
		}
		return &IntLit{Value: v}, nil

	case "double":
		var v float64
		if err := json.Unmarshal(n.Value, &v); err != nil {
			return nil, fmt.Errorf("ast: double literal: %w", err)
		}
		return &DoubleLit{Value: v}, nil

	case "bool":
		var v bool
		if err := json.Unmarshal(n.Value, &v); err != nil {
			return nil, fmt.Errorf("ast: bool literal: %w", err)
		}
		return &BoolLit{Value: v}, nil

	case "string":
		var v string
		if err := json.Unmarshal(n.Value, &v); err != nil {
			return nil, fmt.Errorf("ast: string literal: %w", err)
		}
		return &StringLit{Value: v}, nil

	case "interp":
		parts, err := decodeExprs(n.Parts)
		if err != nil {
			return nil, err
		}
		return &Interp{Parts: parts}, nil

	case "ident":
		return &Ident{Name: n.Name, Loc: n.Loc}, nil

	case "member":
		base, err := decodeExpr(n.Base)
		if err != nil {
			return nil, err
		}
		return &Member{Base: base, Name: n.Name}, nil

	case "binding":
		return &Binding{Name: n.Name}, nil

	case "call":
		call := &Call{Name: n.Name, Loc: n.Loc}
		if len(n.Target) > 0 && string(n.Target) != "null" {
			if call.Target, err = decodeExpr(n.Target); err != nil {
				return nil, err
			}
		}
		if call.Args, err = decodeExprs(n.Args); err != nil {
			return nil, err
		}
		if n.Block != nil {
			stmts, err := decodeStmts(n.Block)
			if err != nil {
				return nil, err
			}
			call.Block = &Block{Stmts: stmts}
		}
		return call, nil

	case "closure":
		body, err := decodeStmts(n.Body)
		if err != nil {
			return nil, err
		}
		return &Closure{Body: body}, nil

	case "ternary":
		cond, err := decodeExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := decodeExpr(n.Then)
		if err != nil {
			return nil, err
		}
		els, err := decodeExpr(n.Else)
		if err != nil {
			return nil, err
		}
		return &Ternary{Cond: cond, Then: then, Else: els}, nil

	case "binary":
		left, err := decodeExpr(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(n.Right)
		if err != nil {
			return nil, err
		}
		return &Binary{Op: n.Op, Left: left, Right: right}, nil

	case "array":
		elems, err := decodeExprs(n.Elems)
		if err != nil {
			return nil, err
		}
		return &ArrayLit{Elems: elems}, nil

	default:
		return nil, fmt.Errorf("ast: unknown expression type %q", n.Type)
	}
}

func decodeExprs(raw []json.RawMessage) ([]Expr, error) {
	if raw == nil {
		return nil, nil
	}
	exprs := make([]Expr, len(raw))
	for i, r := range raw {
		e, err := decodeExpr(r)
		if err != nil {
			return nil, err
		}
		exprs[i] = e
	}
	return exprs, nil
}

func decodeStmt(data json.RawMessage) (Stmt, error) {
	n, err := decodeRaw(data)
	if err != nil {
		return nil, err
	}

	switch n.Type {
	case "expr":
		x, err := decodeExpr(n.Expr)
		if err != nil {
			return nil, err
		}
		return &ExprStmt{X: x}, nil

	case "var":
		decl := &VarDecl{Name: n.Name, Loc: n.Loc}
		if len(n.Init) > 0 && string(n.Init) != "null" {
			if decl.Init, err = decodeExpr(n.Init); err != nil {
				return nil, err
			}
		}
		return decl, nil

	case "assign":
		v, err := decodeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return &Assign{Name: n.Name, Value: v, Loc: n.Loc}, nil

	case "if":
		cond, err := decodeExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := decodeStmtBranch(n.Then)
		if err != nil {
			return nil, err
		}
		els, err := decodeStmtBranch(n.Else)
		if err != nil {
			return nil, err
		}
		return &If{Cond: cond, Then: then, Else: els}, nil

	case "while":
		cond, err := decodeExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		body, err := decodeStmts(n.Body)
		if err != nil {
			return nil, err
		}
		return &While{Cond: cond, Body: body}, nil

	case "return":
		ret := &Return{}
		if len(n.Value) > 0 && string(n.Value) != "null" {
			if ret.Value, err = decodeExpr(n.Value); err != nil {
				return nil, err
			}
		}
		return ret, nil

	case "record":
		return &RecordDecl{Name: n.Name, Fields: n.Fields, Loc: n.Loc}, nil

	case "foreach":
		seq, err := decodeExpr(n.Seq)
		if err != nil {
			return nil, err
		}
		body, err := decodeStmts(n.Body)
		if err != nil {
			return nil, err
		}
		return &ForEach{Var: n.Var, Seq: seq, Body: body, Loc: n.Loc}, nil

	default:
		return nil, fmt.Errorf("ast: unknown statement type %q", n.Type)
	}
}

// decodeStmtBranch decodes an if branch, which arrives as a JSON array of
// statement nodes (or is absent).
func decodeStmtBranch(data json.RawMessage) ([]Stmt, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("ast: invalid branch: %w", err)
	}
	return decodeStmts(raw)
}

func decodeStmts(raw []json.RawMessage) ([]Stmt, error) {
	if raw == nil {
		return nil, nil
	}
	stmts := make([]Stmt, len(raw))
	for i, r := range raw {
		s, err := decodeStmt(r)
		if err != nil {
			return nil, err
		}
		stmts[i] = s
	}
	return stmts, nil
}
