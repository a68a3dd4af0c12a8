// Package ast defines types for the Brio AST handed to the compiler by the
// external parser. The tree is read-only input: the compiler walks it but
// never mutates or owns it.
package ast

// Location represents a position in the source file.
type Location struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// Expr is implemented by all expression nodes.
type Expr interface {
	exprNode()
}

// Stmt is implemented by all statement nodes.
type Stmt interface {
	stmtNode()
}

// Module is the root of a parsed script.
type Module struct {
	Body []Stmt `json:"body"`
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// IntLit is an integer literal.
type IntLit struct {
	Value int64 `json:"value"`
}

// DoubleLit is a floating-point literal.
type DoubleLit struct {
	Value float64 `json:"value"`
}

// BoolLit is a boolean literal.
type BoolLit struct {
	Value bool `json:"value"`
}

// StringLit is a plain string literal with no interpolation.
type StringLit struct {
	Value string `json:"value"`
}

// Interp is an interpolated string: literal and expression segments in
// source order. Parts that are StringLit are literal text.
type Interp struct {
	Parts []Expr `json:"parts"`
}

// Ident is a bare identifier reference.
type Ident struct {
	Name string   `json:"name"`
	Loc  Location `json:"location"`
}

// Member is a property access: Base.Name.
type Member struct {
	Base Expr   `json:"base"`
	Name string `json:"name"`
}

// Binding is a two-way state binding reference ($name in source).
type Binding struct {
	Name string `json:"name"`
}

// Call is a call expression. Target is nil for a bare-identifier call and
// non-nil for a method call on a receiver. Block carries a trailing block
// argument when present.
type Call struct {
	Target Expr     `json:"target"`
	Name   string   `json:"name"`
	Args   []Expr   `json:"args"`
	Block  *Block   `json:"block"`
	Loc    Location `json:"location"`
}

// Block is a trailing block argument: either a container child list or an
// event-handler closure, decided by the compiler from the callee.
type Block struct {
	Stmts []Stmt `json:"stmts"`
}

// Closure is an inline closure expression used as an argument, e.g. an
// event handler.
type Closure struct {
	Body []Stmt `json:"body"`
}

// Ternary is cond ? then : else.
type Ternary struct {
	Cond Expr `json:"cond"`
	Then Expr `json:"then"`
	Else Expr `json:"else"`
}

// Binary is a binary operator expression. Op is the source operator text:
// + - * / < == ?? && || and the range operator "...".
type Binary struct {
	Op    string `json:"op"`
	Left  Expr   `json:"left"`
	Right Expr   `json:"right"`
}

// ArrayLit is a literal array. The compiler only accepts it as the sequence
// of a for-each construct, where it is unrolled at compile time.
type ArrayLit struct {
	Elems []Expr `json:"elems"`
}

func (*IntLit) exprNode()    {}
func (*DoubleLit) exprNode() {}
func (*BoolLit) exprNode()   {}
func (*StringLit) exprNode() {}
func (*Interp) exprNode()    {}
func (*Ident) exprNode()     {}
func (*Member) exprNode()    {}
func (*Binding) exprNode()   {}
func (*Call) exprNode()      {}
func (*Closure) exprNode()   {}
func (*Ternary) exprNode()   {}
func (*Binary) exprNode()    {}
func (*ArrayLit) exprNode()  {}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// ExprStmt is an expression evaluated for its value; inside a container
// block the value becomes a child of the container.
type ExprStmt struct {
	X Expr `json:"expr"`
}

// VarDecl declares a local variable, optionally initialized.
type VarDecl struct {
	Name string   `json:"name"`
	Init Expr     `json:"init"`
	Loc  Location `json:"location"`
}

// Assign stores a new value into an existing local variable.
type Assign struct {
	Name  string   `json:"name"`
	Value Expr     `json:"value"`
	Loc   Location `json:"location"`
}

// If is a two-branch conditional statement.
type If struct {
	Cond Expr   `json:"cond"`
	Then []Stmt `json:"then"`
	Else []Stmt `json:"else"`
}

// While is a pre-tested loop.
type While struct {
	Cond Expr   `json:"cond"`
	Body []Stmt `json:"body"`
}

// Return returns a value (or Unit when Value is nil) from the program.
type Return struct {
	Value Expr `json:"value"`
}

// RecordDecl declares a record type. Field order is positional: it defines
// the constructor argument order.
type RecordDecl struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
	Loc    Location `json:"location"`
}

// ForEach iterates a literal array. The compiler unrolls it: the body is
// re-emitted once per element with Var bound to that element's literal.
type ForEach struct {
	Var  string   `json:"var"`
	Seq  Expr     `json:"seq"`
	Body []Stmt   `json:"body"`
	Loc  Location `json:"location"`
}

func (*ExprStmt) stmtNode()   {}
func (*VarDecl) stmtNode()    {}
func (*Assign) stmtNode()     {}
func (*If) stmtNode()         {}
func (*While) stmtNode()      {}
func (*Return) stmtNode()     {}
func (*RecordDecl) stmtNode() {}
func (*ForEach) stmtNode()    {}
