package bytecode

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/brio-lang/brio/pkg/bridge"
	"github.com/brio-lang/brio/pkg/state"
	"github.com/brio-lang/brio/pkg/value"
)

// Logger is the VM's log sink, fed by the print function. It is an injected
// collaborator; the core never writes anywhere else.
type Logger interface {
	Log(msg string)
}

// callFrame records what a return must restore: the caller's PC, the
// operand-stack depth at call time, and the locals-stack depth.
type callFrame struct {
	returnPC    int
	stackBase   int
	localsIndex int
}

// VM executes a compiled program. One instance serves one Run call at a
// time; concurrent runs need independent instances. The capability
// descriptor is fixed at construction and is the sandbox boundary — no
// in-language operation can reach native code around it.
type VM struct {
	caps   *bridge.Descriptor
	store  state.Store
	logger Logger

	prog   *Program
	pc     int
	stack  []value.Value
	frames []callFrame
	locals [][]value.Value
}

// NewVM creates a VM gated by the given capability descriptor. A nil
// descriptor denies every native operation.
func NewVM(caps *bridge.Descriptor) *VM {
	return &VM{caps: caps}
}

// SetLogger sets the log sink. Optional; without it print is a no-op.
func (vm *VM) SetLogger(l Logger) {
	vm.logger = l
}

// SetStore sets the external reactive state store. Optional; without it
// state reads fall back to the program's compiled defaults.
func (vm *VM) SetStore(s state.Store) {
	vm.store = s
}

// Run executes the program to completion and returns the final value: the
// top of the operand stack, or Unit when the stack is empty. The first
// runtime error aborts the run with no partial result.
func (vm *VM) Run(prog *Program) (value.Value, error) {
	vm.prog = prog
	vm.pc = 0
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	vm.locals = [][]value.Value{nil}

	if err := vm.run(); err != nil {
		return value.Unit, err
	}
	if len(vm.stack) > 0 {
		return vm.stack[len(vm.stack)-1], nil
	}
	return value.Unit, nil
}

func (vm *VM) run() error {
	code := vm.prog.Code
	for vm.pc < len(code) {
		opPC := vm.pc
		op := Opcode(code[vm.pc])
		vm.pc++

		switch op {
		// ============ Constants ============
		case OpPushInt:
			v, err := vm.readInt()
			if err != nil {
				return err
			}
			vm.push(value.NewInt(v))

		case OpPushBool:
			if vm.pc >= len(code) {
				return fmt.Errorf("truncated operand at offset %d", opPC)
			}
			vm.push(value.NewBool(code[vm.pc] != 0))
			vm.pc++

		case OpPushDouble:
			bits, err := vm.readInt()
			if err != nil {
				return err
			}
			vm.push(value.NewDouble(math.Float64frombits(uint64(bits))))

		case OpPushString:
			idx, err := vm.readInt()
			if err != nil {
				return err
			}
			s, ok := vm.prog.StringAt(idx)
			if !ok {
				return &RuntimeError{Kind: ErrInvalidStringIndex, Index: idx, PC: opPC}
			}
			vm.push(value.NewString(s))

		case OpPushNil:
			vm.push(value.Unit)

		// ============ Locals ============
		case OpLoadLocal:
			slot, err := vm.readInt()
			if err != nil {
				return err
			}
			slots := vm.activeLocals()
			if slot < 0 || slot >= int64(len(slots)) {
				return &RuntimeError{Kind: ErrInvalidLocalSlot, Index: slot, PC: opPC}
			}
			vm.push(slots[slot])

		case OpStoreLocal:
			slot, err := vm.readInt()
			if err != nil {
				return err
			}
			if slot < 0 {
				return &RuntimeError{Kind: ErrInvalidLocalSlot, Index: slot, PC: opPC}
			}
			v, err := vm.pop(opPC)
			if err != nil {
				return err
			}
			vm.storeLocal(slot, v)

		// ============ Arithmetic ============
		case OpAdd, OpSubtract, OpMultiply, OpDivide, OpLessThan:
			b, err := vm.pop(opPC)
			if err != nil {
				return err
			}
			a, err := vm.pop(opPC)
			if err != nil {
				return err
			}
			result, err := vm.arith(op, a, b, opPC)
			if err != nil {
				return err
			}
			vm.push(result)

		case OpEqual:
			b, err := vm.pop(opPC)
			if err != nil {
				return err
			}
			a, err := vm.pop(opPC)
			if err != nil {
				return err
			}
			vm.push(value.NewBool(value.Equal(a, b)))

		case OpCoalesce:
			b, err := vm.pop(opPC)
			if err != nil {
				return err
			}
			a, err := vm.pop(opPC)
			if err != nil {
				return err
			}
			if a.IsUnit() {
				vm.push(b)
			} else {
				vm.push(a)
			}

		// ============ Control flow ============
		case OpJump:
			offset, err := vm.readInt()
			if err != nil {
				return err
			}
			if err := vm.jumpBy(offset, opPC); err != nil {
				return err
			}

		case OpJumpIfFalse:
			offset, err := vm.readInt()
			if err != nil {
				return err
			}
			cond, err := vm.popBool(opPC)
			if err != nil {
				return err
			}
			if !cond {
				if err := vm.jumpBy(offset, opPC); err != nil {
					return err
				}
			}

		// ============ Reactive state ============
		case OpLoadState:
			name, err := vm.readSymbol(opPC)
			if err != nil {
				return err
			}
			vm.push(vm.readState(name))

		case OpPushBinding:
			name, err := vm.readSymbol(opPC)
			if err != nil {
				return err
			}
			vm.push(newHandle("Binding", &state.Binding{Name: name, Store: vm.store}))

		case OpPushAction:
			index, err := vm.readInt()
			if err != nil {
				return err
			}
			if index < 0 || index >= int64(len(vm.prog.Actions)) {
				return &RuntimeError{Kind: ErrInvalidSymbol, Index: index, PC: opPC}
			}
			action := vm.prog.Actions[index]
			vm.push(newHandle("Action", &state.Action{
				Target: action.State,
				Value:  action.Value,
				Store:  vm.store,
			}))

		// ============ Bridge dispatch ============
		case OpConstruct:
			if err := vm.execConstruct(opPC); err != nil {
				return err
			}

		case OpCallMethod:
			if err := vm.execCallMethod(opPC); err != nil {
				return err
			}

		case OpCallFunction:
			if err := vm.execCallFunction(opPC); err != nil {
				return err
			}

		case OpGetProperty:
			if err := vm.execGetProperty(opPC); err != nil {
				return err
			}

		// ============ Return ============
		case OpReturn:
			ret, err := vm.pop(opPC)
			if err != nil {
				return err
			}
			if len(vm.frames) == 0 {
				// No enclosing frame: the run ends here and the popped
				// value is the program's result.
				vm.pc = len(code)
				vm.push(ret)
				break
			}
			frame := vm.frames[len(vm.frames)-1]
			vm.frames = vm.frames[:len(vm.frames)-1]
			vm.pc = frame.returnPC
			vm.stack = vm.stack[:frame.stackBase]
			vm.locals = vm.locals[:frame.localsIndex]
			vm.push(ret)

		default:
			return fmt.Errorf("unknown opcode 0x%02x at offset %d", byte(op), opPC)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Arithmetic
// ---------------------------------------------------------------------------

// arith implements the polymorphic numeric opcodes: Int when both operands
// are Int, Double when both are numeric, and for add, string concatenation
// when either operand is a String. Operands outside those shapes are
// treated the same as a missing operand.
func (vm *VM) arith(op Opcode, a, b value.Value, opPC int) (value.Value, error) {
	if op == OpAdd && (a.Kind() == value.KindString || b.Kind() == value.KindString) {
		return value.NewString(a.String() + b.String()), nil
	}

	if a.Kind() == value.KindInt && b.Kind() == value.KindInt {
		x, y := a.Int(), b.Int()
		switch op {
		case OpAdd:
			return value.NewInt(x + y), nil
		case OpSubtract:
			return value.NewInt(x - y), nil
		case OpMultiply:
			return value.NewInt(x * y), nil
		case OpDivide:
			if y == 0 {
				return value.Unit, &RuntimeError{Kind: ErrDivideByZero, PC: opPC}
			}
			return value.NewInt(x / y), nil
		case OpLessThan:
			return value.NewBool(x < y), nil
		}
	}

	x, okA := a.AsDouble()
	y, okB := b.AsDouble()
	if !okA || !okB {
		return value.Unit, &RuntimeError{Kind: ErrStackUnderflow, PC: opPC}
	}
	switch op {
	case OpAdd:
		return value.NewDouble(x + y), nil
	case OpSubtract:
		return value.NewDouble(x - y), nil
	case OpMultiply:
		return value.NewDouble(x * y), nil
	case OpDivide:
		if y == 0 {
			return value.Unit, &RuntimeError{Kind: ErrDivideByZero, PC: opPC}
		}
		return value.NewDouble(x / y), nil
	case OpLessThan:
		return value.NewBool(x < y), nil
	}
	return value.Unit, fmt.Errorf("unreachable arithmetic opcode %s", op)
}

// ---------------------------------------------------------------------------
// Bridge dispatch
// ---------------------------------------------------------------------------

func (vm *VM) execConstruct(opPC int) error {
	name, err := vm.readSymbol(opPC)
	if err != nil {
		return err
	}
	argc, err := vm.readInt()
	if err != nil {
		return err
	}
	args, err := vm.popArgs(argc, opPC)
	if err != nil {
		return err
	}

	// Builtin names resolve first, so a record declaration can never shadow
	// a native constructor and slip past the capability gate.
	if ctor, ok := builtinConstructors[name]; ok {
		if !vm.caps.AllowsType(name) {
			return &RuntimeError{Kind: ErrBridgeNotAllowed, Name: name, PC: opPC}
		}
		result, err := ctor(args)
		if err != nil {
			return err
		}
		vm.push(result)
		return nil
	}

	// Record types are declared by the script itself; constructing one never
	// crosses the bridge and needs no capability.
	if rt, ok := vm.prog.TypeByName(name); ok {
		fields := make(map[string]value.Value, len(rt.Fields))
		for i, field := range rt.Fields {
			fields[field] = argAt(args, i)
		}
		vm.push(value.NewRecord(&value.Record{TypeName: name, Fields: fields}))
		return nil
	}

	return &RuntimeError{Kind: ErrBridgeNotAllowed, Name: name, PC: opPC}
}

func (vm *VM) execCallMethod(opPC int) error {
	name, err := vm.readSymbol(opPC)
	if err != nil {
		return err
	}
	argc, err := vm.readInt()
	if err != nil {
		return err
	}
	args, err := vm.popArgs(argc, opPC)
	if err != nil {
		return err
	}
	recv, err := vm.pop(opPC)
	if err != nil {
		return err
	}

	// Record receivers answer field names as zero-argument reads. Like
	// property access, this never crosses the bridge.
	if recv.Kind() == value.KindRecord {
		if v, ok := recv.Record().Fields[name]; ok {
			vm.push(v)
			return nil
		}
	}

	kind := receiverKind(recv)
	if !vm.caps.AllowsMethod(kind, name) {
		return &RuntimeError{Kind: ErrBridgeNotAllowed, Name: name, PC: opPC}
	}

	if methods, ok := builtinMethods[kind]; ok {
		if method, ok := methods[name]; ok {
			result, err := method(recv, args)
			if err != nil {
				return err
			}
			vm.push(result)
			return nil
		}
	}
	return &RuntimeError{Kind: ErrBridgeNotAllowed, Name: name, PC: opPC}
}

func (vm *VM) execCallFunction(opPC int) error {
	name, err := vm.readSymbol(opPC)
	if err != nil {
		return err
	}
	argc, err := vm.readInt()
	if err != nil {
		return err
	}
	args, err := vm.popArgs(argc, opPC)
	if err != nil {
		return err
	}

	if !vm.caps.AllowsFunction(name) {
		return &RuntimeError{Kind: ErrBridgeNotAllowed, Name: name, PC: opPC}
	}
	fn, ok := builtinFunctions[name]
	if !ok {
		return &RuntimeError{Kind: ErrBridgeNotAllowed, Name: name, PC: opPC}
	}
	result, err := fn(vm, args)
	if err != nil {
		return err
	}
	vm.push(result)
	return nil
}

func (vm *VM) execGetProperty(opPC int) error {
	name, err := vm.readSymbol(opPC)
	if err != nil {
		return err
	}
	recv, err := vm.pop(opPC)
	if err != nil {
		return err
	}

	if recv.Kind() == value.KindRecord {
		v, ok := recv.Record().Fields[name]
		if !ok {
			return &RuntimeError{Kind: ErrInvalidReturnValue, Name: name, PC: opPC}
		}
		vm.push(v)
		return nil
	}

	// Non-record receivers expose only a small synthetic property surface,
	// gated exactly like methods.
	kind := receiverKind(recv)
	if !vm.caps.AllowsMethod(kind, name) {
		return &RuntimeError{Kind: ErrBridgeNotAllowed, Name: name, PC: opPC}
	}
	if props, ok := builtinProperties[kind]; ok {
		if prop, ok := props[name]; ok {
			result, err := prop(recv)
			if err != nil {
				return err
			}
			vm.push(result)
			return nil
		}
	}
	return &RuntimeError{Kind: ErrInvalidReturnValue, Name: name, PC: opPC}
}

// ---------------------------------------------------------------------------
// Stack and operand helpers
// ---------------------------------------------------------------------------

func (vm *VM) push(v value.Value) {
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop(opPC int) (value.Value, error) {
	if len(vm.stack) == 0 {
		return value.Unit, &RuntimeError{Kind: ErrStackUnderflow, PC: opPC}
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v, nil
}

// popBool pops a Bool. A value of any other variant is reported as
// StackUnderflow, identically to an empty stack.
func (vm *VM) popBool(opPC int) (bool, error) {
	v, err := vm.pop(opPC)
	if err != nil {
		return false, err
	}
	if v.Kind() != value.KindBool {
		return false, &RuntimeError{Kind: ErrStackUnderflow, PC: opPC}
	}
	return v.Bool(), nil
}

// popArgs pops argc values and restores their original left-to-right order
// before dispatch.
func (vm *VM) popArgs(argc int64, opPC int) ([]value.Value, error) {
	if argc < 0 {
		return nil, fmt.Errorf("negative argument count at offset %d", opPC)
	}
	args := make([]value.Value, argc)
	for i := argc - 1; i >= 0; i-- {
		v, err := vm.pop(opPC)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func (vm *VM) readInt() (int64, error) {
	if vm.pc+8 > len(vm.prog.Code) {
		return 0, fmt.Errorf("truncated operand at offset %d", vm.pc)
	}
	v := int64(binary.LittleEndian.Uint64(vm.prog.Code[vm.pc:]))
	vm.pc += 8
	return v, nil
}

// jumpBy moves the PC by a relative offset, rejecting targets outside the
// code stream so corrupt or hostile programs fail instead of panicking.
func (vm *VM) jumpBy(offset int64, opPC int) error {
	target := int64(vm.pc) + offset
	if target < 0 || target > int64(len(vm.prog.Code)) {
		return fmt.Errorf("jump target %d out of range at offset %d", target, opPC)
	}
	vm.pc = int(target)
	return nil
}

func (vm *VM) readSymbol(opPC int) (string, error) {
	idx, err := vm.readInt()
	if err != nil {
		return "", err
	}
	name, ok := vm.prog.SymbolAt(idx)
	if !ok {
		return "", &RuntimeError{Kind: ErrInvalidSymbol, Index: idx, PC: opPC}
	}
	return name, nil
}

func (vm *VM) activeLocals() []value.Value {
	return vm.locals[len(vm.locals)-1]
}

// storeLocal grows the active frame's slot array on demand, filling any
// intervening slots with Unit.
func (vm *VM) storeLocal(slot int64, v value.Value) {
	slots := vm.activeLocals()
	for int64(len(slots)) <= slot {
		slots = append(slots, value.Unit)
	}
	slots[slot] = v
	vm.locals[len(vm.locals)-1] = slots
}

func (vm *VM) readState(name string) value.Value {
	if vm.store != nil {
		if v, ok := vm.store.Get(name); ok {
			return v
		}
	}
	if v, ok := vm.prog.StateDefaults[name]; ok {
		return v
	}
	return value.Unit
}

func (vm *VM) logf(msg string) {
	if vm.logger != nil {
		vm.logger.Log(msg)
	}
}
