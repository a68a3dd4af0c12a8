package bytecode

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/brio-lang/brio/pkg/ast"
	"github.com/brio-lang/brio/pkg/value"
)

// Context supplies the externally-declared bindings a script compiles
// against: reactive state names with defaults, literal constant bindings,
// and computed-property expressions. All maps may be nil.
type Context struct {
	// States maps reactive state names to their default values.
	States map[string]value.Value

	// Lets maps identifier names to fixed literal values.
	Lets map[string]value.Value

	// Computed maps identifier names to expressions compiled inline at
	// every reference site.
	Computed map[string]ast.Expr

	// OnUnresolved is invoked for every identifier or closure that silently
	// degrades to Unit. Diagnostic only; it never changes emission.
	OnUnresolved func(name string)
}

// containerTypes names the constructs whose trailing block is compiled as
// an ordered child list rather than an event-handler closure.
var containerTypes = map[string]bool{
	"VStack": true,
	"HStack": true,
	"ZStack": true,
	"List":   true,
	"Group":  true,
}

// isTypeName reports whether a bare callee names a constructible type.
// Capitalization is the only signal, by language convention; keeping the
// check isolated here lets a declared-symbol table replace it later without
// touching the emission rules.
func isTypeName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// Compiler walks the parser's AST once, left to right, and emits a Program.
// No intermediate representation is built beyond the AST itself.
type Compiler struct {
	prog *Program
	ctx  *Context

	// Local slot allocation: a monotonic counter keyed by name. Slots are
	// never reused and there is no scoping below function granularity.
	localSlots map[string]int64
	nextSlot   int64

	// loopBindings rebinds for-each loop variables to element literals
	// during compile-time unrolling.
	loopBindings map[string]ast.Expr

	// computing guards against computed properties that reference
	// themselves, directly or via another computed property.
	computing map[string]bool
}

// Compile translates a module into an immutable Program. It fails only on
// structural problems; semantically dubious programs (unknown identifiers,
// unrecognized closures) compile with those sites degraded to Unit.
func Compile(mod *ast.Module, ctx *Context) (*Program, error) {
	if mod == nil {
		return nil, &CompileError{Msg: "missing module"}
	}
	if ctx == nil {
		ctx = &Context{}
	}

	c := &Compiler{
		prog:         NewProgram(),
		ctx:          ctx,
		localSlots:   make(map[string]int64),
		loopBindings: make(map[string]ast.Expr),
		computing:    make(map[string]bool),
	}

	for name, v := range ctx.States {
		c.prog.StateDefaults[name] = v
	}

	// Record declarations are registered up front so constructors resolve
	// regardless of declaration position.
	for _, stmt := range mod.Body {
		decl, ok := stmt.(*ast.RecordDecl)
		if !ok {
			continue
		}
		if _, exists := c.prog.TypeByName(decl.Name); exists {
			return nil, &CompileError{
				Msg:  fmt.Sprintf("duplicate record declaration %q", decl.Name),
				Line: decl.Loc.Line,
				Col:  decl.Loc.Col,
			}
		}
		c.prog.Types = append(c.prog.Types, RecordType{Name: decl.Name, Fields: decl.Fields})
	}

	if _, err := c.compileStmts(mod.Body); err != nil {
		return nil, err
	}
	return c.prog, nil
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// compileStmts compiles a statement list and returns how many values the
// list pushes, which is the child count when the list is a container body.
func (c *Compiler) compileStmts(stmts []ast.Stmt) (int, error) {
	pushed := 0
	for _, stmt := range stmts {
		n, err := c.compileStmt(stmt)
		if err != nil {
			return 0, err
		}
		pushed += n
	}
	return pushed, nil
}

func (c *Compiler) compileStmt(stmt ast.Stmt) (int, error) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		ok, err := c.compileExpr(s.X)
		if err != nil {
			return 0, err
		}
		if ok {
			return 1, nil
		}
		return 0, nil

	case *ast.VarDecl:
		return c.compileVarDecl(s)

	case *ast.Assign:
		return 0, c.compileAssign(s)

	case *ast.If:
		return c.compileIf(s)

	case *ast.While:
		return 0, c.compileWhile(s)

	case *ast.Return:
		if s.Value != nil {
			if err := c.compilePushed(s.Value); err != nil {
				return 0, err
			}
		} else {
			c.prog.AppendOp(OpPushNil)
		}
		c.prog.AppendOp(OpReturn)
		return 0, nil

	case *ast.RecordDecl:
		// Registered before emission.
		return 0, nil

	case *ast.ForEach:
		return c.compileForEach(s)

	default:
		return 0, &CompileError{Msg: fmt.Sprintf("unsupported statement %T", stmt)}
	}
}

// compileVarDecl allocates the next free slot for a new name (redeclaring a
// name reuses its slot) and, when initialized, emits store-then-load so the
// declaration's value stays available as an expression result.
func (c *Compiler) compileVarDecl(decl *ast.VarDecl) (int, error) {
	slot, ok := c.localSlots[decl.Name]
	if !ok {
		slot = c.nextSlot
		c.localSlots[decl.Name] = slot
		c.nextSlot++
	}

	if decl.Init == nil {
		return 0, nil
	}
	if err := c.compilePushed(decl.Init); err != nil {
		return 0, err
	}
	c.prog.AppendOp(OpStoreLocal)
	c.prog.AppendInt(slot)
	c.prog.AppendOp(OpLoadLocal)
	c.prog.AppendInt(slot)
	return 1, nil
}

func (c *Compiler) compileAssign(a *ast.Assign) error {
	if _, isState := c.ctx.States[a.Name]; isState {
		return &CompileError{
			Msg:  fmt.Sprintf("state %q can only be assigned from an event handler", a.Name),
			Line: a.Loc.Line,
			Col:  a.Loc.Col,
		}
	}

	if err := c.compilePushed(a.Value); err != nil {
		return err
	}

	slot, ok := c.localSlots[a.Name]
	if !ok {
		// Assignment to an undeclared name introduces a local.
		slot = c.nextSlot
		c.localSlots[a.Name] = slot
		c.nextSlot++
	}
	c.prog.AppendOp(OpStoreLocal)
	c.prog.AppendInt(slot)
	return nil
}

// compileIf emits the standard two-pass jump-patch shape. Branch values are
// left on the stack; the reported push count comes from the then branch,
// and well-formed programs keep both branches balanced.
func (c *Compiler) compileIf(s *ast.If) (int, error) {
	if err := c.compilePushed(s.Cond); err != nil {
		return 0, err
	}

	falseJump := c.prog.EmitJump(OpJumpIfFalse)

	thenPushed, err := c.compileStmts(s.Then)
	if err != nil {
		return 0, err
	}

	if len(s.Else) == 0 {
		c.prog.PatchJump(falseJump)
		return thenPushed, nil
	}

	endJump := c.prog.EmitJump(OpJump)
	c.prog.PatchJump(falseJump)
	if _, err := c.compileStmts(s.Else); err != nil {
		return 0, err
	}
	c.prog.PatchJump(endJump)
	return thenPushed, nil
}

func (c *Compiler) compileWhile(s *ast.While) error {
	loopStart := c.prog.Count()

	if err := c.compilePushed(s.Cond); err != nil {
		return err
	}
	exitJump := c.prog.EmitJump(OpJumpIfFalse)

	if _, err := c.compileStmts(s.Body); err != nil {
		return err
	}

	c.prog.EmitLoop(loopStart)
	c.prog.PatchJump(exitJump)
	return nil
}

// compileForEach unrolls a bounded loop over a literal array: the body is
// re-emitted once per element with the loop variable rebound to that
// element. No runtime loop opcode exists for this construct, so the emitted
// stream stays fully static.
func (c *Compiler) compileForEach(s *ast.ForEach) (int, error) {
	arr, ok := s.Seq.(*ast.ArrayLit)
	if !ok {
		return 0, &CompileError{
			Msg:  "for-each requires a literal array",
			Line: s.Loc.Line,
			Col:  s.Loc.Col,
		}
	}

	prev, hadPrev := c.loopBindings[s.Var]
	defer func() {
		if hadPrev {
			c.loopBindings[s.Var] = prev
		} else {
			delete(c.loopBindings, s.Var)
		}
	}()

	total := 0
	for _, elem := range arr.Elems {
		c.loopBindings[s.Var] = elem
		n, err := c.compileStmts(s.Body)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// compilePushed compiles an expression and guarantees exactly one value is
// pushed, inserting a Unit push when the expression produced nothing.
func (c *Compiler) compilePushed(e ast.Expr) error {
	pushed, err := c.compileExpr(e)
	if err != nil {
		return err
	}
	if !pushed {
		c.prog.AppendOp(OpPushNil)
	}
	return nil
}

// compileExpr compiles one expression and reports whether a value was
// actually pushed.
func (c *Compiler) compileExpr(e ast.Expr) (bool, error) {
	switch x := e.(type) {
	case *ast.IntLit:
		c.prog.AppendOp(OpPushInt)
		c.prog.AppendInt(x.Value)
		return true, nil

	case *ast.DoubleLit:
		c.prog.AppendOp(OpPushDouble)
		c.prog.AppendDouble(x.Value)
		return true, nil

	case *ast.BoolLit:
		c.prog.AppendOp(OpPushBool)
		c.prog.AppendBool(x.Value)
		return true, nil

	case *ast.StringLit:
		c.emitString(x.Value)
		return true, nil

	case *ast.Interp:
		return true, c.compileInterp(x)

	case *ast.Ident:
		return c.compileIdent(x)

	case *ast.Member:
		if err := c.compilePushed(x.Base); err != nil {
			return false, err
		}
		c.prog.AppendOp(OpGetProperty)
		c.prog.AppendInt(c.prog.InternSymbol(x.Name))
		return true, nil

	case *ast.Binding:
		return c.compileBinding(x)

	case *ast.Call:
		return c.compileCall(x)

	case *ast.Closure:
		return c.compileClosure(x.Body)

	case *ast.Ternary:
		return true, c.compileTernary(x)

	case *ast.Binary:
		return c.compileBinary(x)

	case *ast.ArrayLit:
		return false, &CompileError{Msg: "array literals are only supported as for-each sequences"}

	default:
		return false, &CompileError{Msg: fmt.Sprintf("unsupported expression %T", e)}
	}
}

func (c *Compiler) emitString(s string) {
	c.prog.AppendOp(OpPushString)
	c.prog.AppendInt(c.prog.InternString(s))
}

// compileInterp concatenates segments left to right with the polymorphic
// add opcode, which stringifies non-string operands. The leading operand is
// forced to a string so a lone expression segment still stringifies.
func (c *Compiler) compileInterp(x *ast.Interp) error {
	if len(x.Parts) == 0 {
		c.emitString("")
		return nil
	}

	first := x.Parts[0]
	if lit, ok := first.(*ast.StringLit); ok {
		c.emitString(lit.Value)
	} else {
		c.emitString("")
		if err := c.compilePushed(first); err != nil {
			return err
		}
		c.prog.AppendOp(OpAdd)
	}

	for _, part := range x.Parts[1:] {
		if err := c.compilePushed(part); err != nil {
			return err
		}
		c.prog.AppendOp(OpAdd)
	}
	return nil
}

// compileIdent resolves a bare identifier. Resolution order: for-each
// rebinding, local slot, reactive state, literal binding, computed
// property. An unresolved identifier pushes Unit rather than failing;
// that leniency is observable through Context.OnUnresolved.
func (c *Compiler) compileIdent(id *ast.Ident) (bool, error) {
	if elem, ok := c.loopBindings[id.Name]; ok {
		// Unbind while expanding so an element that mentions its own loop
		// variable falls through to the outer resolution chain instead of
		// recursing forever.
		delete(c.loopBindings, id.Name)
		pushed, err := c.compileExpr(elem)
		c.loopBindings[id.Name] = elem
		return pushed, err
	}

	if slot, ok := c.localSlots[id.Name]; ok {
		c.prog.AppendOp(OpLoadLocal)
		c.prog.AppendInt(slot)
		return true, nil
	}

	if _, ok := c.ctx.States[id.Name]; ok {
		c.prog.AppendOp(OpLoadState)
		c.prog.AppendInt(c.prog.InternSymbol(id.Name))
		return true, nil
	}

	if v, ok := c.ctx.Lets[id.Name]; ok {
		return true, c.emitLiteral(v)
	}

	if expr, ok := c.ctx.Computed[id.Name]; ok {
		if c.computing[id.Name] {
			c.unresolved(id.Name)
			c.prog.AppendOp(OpPushNil)
			return true, nil
		}
		c.computing[id.Name] = true
		err := c.compilePushed(expr)
		delete(c.computing, id.Name)
		return true, err
	}

	c.unresolved(id.Name)
	c.prog.AppendOp(OpPushNil)
	return true, nil
}

func (c *Compiler) compileBinding(b *ast.Binding) (bool, error) {
	if _, ok := c.ctx.States[b.Name]; !ok {
		c.unresolved(b.Name)
		c.prog.AppendOp(OpPushNil)
		return true, nil
	}
	c.prog.AppendOp(OpPushBinding)
	c.prog.AppendInt(c.prog.InternSymbol(b.Name))
	return true, nil
}

func (c *Compiler) compileTernary(t *ast.Ternary) error {
	if err := c.compilePushed(t.Cond); err != nil {
		return err
	}
	falseJump := c.prog.EmitJump(OpJumpIfFalse)

	if err := c.compilePushed(t.Then); err != nil {
		return err
	}
	endJump := c.prog.EmitJump(OpJump)

	c.prog.PatchJump(falseJump)
	if err := c.compilePushed(t.Else); err != nil {
		return err
	}
	c.prog.PatchJump(endJump)
	return nil
}

func (c *Compiler) compileBinary(b *ast.Binary) (bool, error) {
	switch b.Op {
	case "&&":
		return true, c.compileAnd(b)
	case "||":
		return true, c.compileOr(b)
	case "...":
		// Ranges are ordinary bridge-constructed values, not a primitive.
		if err := c.compilePushed(b.Left); err != nil {
			return false, err
		}
		if err := c.compilePushed(b.Right); err != nil {
			return false, err
		}
		c.prog.AppendOp(OpConstruct)
		c.prog.AppendInt(c.prog.InternSymbol("ClosedRange"))
		c.prog.AppendInt(2)
		return true, nil
	}

	var op Opcode
	switch b.Op {
	case "+":
		op = OpAdd
	case "-":
		op = OpSubtract
	case "*":
		op = OpMultiply
	case "/":
		op = OpDivide
	case "<":
		op = OpLessThan
	case "==":
		op = OpEqual
	case "??":
		op = OpCoalesce
	default:
		return false, &CompileError{Msg: fmt.Sprintf("unsupported operator %q", b.Op)}
	}

	if err := c.compilePushed(b.Left); err != nil {
		return false, err
	}
	if err := c.compilePushed(b.Right); err != nil {
		return false, err
	}
	c.prog.AppendOp(op)
	return true, nil
}

// compileAnd short-circuits: the right operand is never evaluated when the
// left is false.
func (c *Compiler) compileAnd(b *ast.Binary) error {
	if err := c.compilePushed(b.Left); err != nil {
		return err
	}
	shortJump := c.prog.EmitJump(OpJumpIfFalse)

	if err := c.compilePushed(b.Right); err != nil {
		return err
	}
	endJump := c.prog.EmitJump(OpJump)

	c.prog.PatchJump(shortJump)
	c.prog.AppendOp(OpPushBool)
	c.prog.AppendBool(false)
	c.prog.PatchJump(endJump)
	return nil
}

// compileOr short-circuits: the right operand is evaluated only when the
// left is false.
func (c *Compiler) compileOr(b *ast.Binary) error {
	if err := c.compilePushed(b.Left); err != nil {
		return err
	}
	rightJump := c.prog.EmitJump(OpJumpIfFalse)

	c.prog.AppendOp(OpPushBool)
	c.prog.AppendBool(true)
	endJump := c.prog.EmitJump(OpJump)

	c.prog.PatchJump(rightJump)
	if err := c.compilePushed(b.Right); err != nil {
		return err
	}
	c.prog.PatchJump(endJump)
	return nil
}

// ---------------------------------------------------------------------------
// Calls
// ---------------------------------------------------------------------------

// compileCall distinguishes the three call shapes: a container construct
// with a trailing child block, a capitalized type construction, and a
// function or method call. Argument count is always a fixed operand so the
// VM pops exactly that many values.
func (c *Compiler) compileCall(call *ast.Call) (bool, error) {
	if call.Target != nil {
		if err := c.compilePushed(call.Target); err != nil {
			return false, err
		}
		argc, err := c.compileArgs(call.Args)
		if err != nil {
			return false, err
		}
		c.prog.AppendOp(OpCallMethod)
		c.prog.AppendInt(c.prog.InternSymbol(call.Name))
		c.prog.AppendInt(argc)
		return true, nil
	}

	if call.Block != nil && containerTypes[call.Name] {
		argc, err := c.compileArgs(call.Args)
		if err != nil {
			return false, err
		}
		children, err := c.compileStmts(call.Block.Stmts)
		if err != nil {
			return false, err
		}
		c.prog.AppendOp(OpConstruct)
		c.prog.AppendInt(c.prog.InternSymbol(call.Name))
		c.prog.AppendInt(argc + int64(children))
		return true, nil
	}

	argc, err := c.compileArgs(call.Args)
	if err != nil {
		return false, err
	}
	if call.Block != nil {
		// A trailing block on a non-container call is an event handler.
		if _, err := c.compileClosure(call.Block.Stmts); err != nil {
			return false, err
		}
		argc++
	}

	op := OpCallFunction
	if isTypeName(call.Name) {
		op = OpConstruct
	}
	c.prog.AppendOp(op)
	c.prog.AppendInt(c.prog.InternSymbol(call.Name))
	c.prog.AppendInt(argc)
	return true, nil
}

func (c *Compiler) compileArgs(args []ast.Expr) (int64, error) {
	for _, arg := range args {
		if err := c.compilePushed(arg); err != nil {
			return 0, err
		}
	}
	return int64(len(args)), nil
}

// compileClosure lowers an event-handler closure. Only the compile-time
// resolvable shape — a single assignment of a literal to a state name — is
// interpretable at runtime; anything else degrades to Unit. That
// restriction is a sandboxing decision: no closure bodies execute at event
// time, only precompiled single assignments.
func (c *Compiler) compileClosure(body []ast.Stmt) (bool, error) {
	if action, ok := c.actionFromClosure(body); ok {
		index := int64(len(c.prog.Actions))
		c.prog.Actions = append(c.prog.Actions, action)
		c.prog.AppendOp(OpPushAction)
		c.prog.AppendInt(index)
		return true, nil
	}

	c.unresolved("closure")
	c.prog.AppendOp(OpPushNil)
	return true, nil
}

func (c *Compiler) actionFromClosure(body []ast.Stmt) (Action, bool) {
	if len(body) != 1 {
		return Action{}, false
	}
	assign, ok := body[0].(*ast.Assign)
	if !ok {
		return Action{}, false
	}
	if _, isState := c.ctx.States[assign.Name]; !isState {
		return Action{}, false
	}
	v, ok := literalValue(assign.Value)
	if !ok {
		return Action{}, false
	}
	return Action{State: assign.Name, Value: v}, true
}

// literalValue extracts the value of a literal expression.
func literalValue(e ast.Expr) (value.Value, bool) {
	switch x := e.(type) {
	case *ast.IntLit:
		return value.NewInt(x.Value), true
	case *ast.DoubleLit:
		return value.NewDouble(x.Value), true
	case *ast.BoolLit:
		return value.NewBool(x.Value), true
	case *ast.StringLit:
		return value.NewString(x.Value), true
	default:
		return value.Unit, false
	}
}

// emitLiteral emits a push for an already-materialized literal value.
func (c *Compiler) emitLiteral(v value.Value) error {
	switch v.Kind() {
	case value.KindUnit:
		c.prog.AppendOp(OpPushNil)
	case value.KindInt:
		c.prog.AppendOp(OpPushInt)
		c.prog.AppendInt(v.Int())
	case value.KindDouble:
		c.prog.AppendOp(OpPushDouble)
		c.prog.AppendDouble(v.Double())
	case value.KindBool:
		c.prog.AppendOp(OpPushBool)
		c.prog.AppendBool(v.Bool())
	case value.KindString:
		c.emitString(v.Str())
	default:
		return &CompileError{Msg: fmt.Sprintf("%s values cannot appear as compile-time literals", v.Kind())}
	}
	return nil
}

func (c *Compiler) unresolved(name string) {
	if c.ctx.OnUnresolved != nil {
		c.ctx.OnUnresolved(name)
	}
}
