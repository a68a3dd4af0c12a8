package bytecode

import "fmt"

// Opcode represents a bytecode instruction. Each opcode is one byte; all
// multi-byte operands are fixed-width 8-byte little-endian values so that
// forward jump targets can be reserved and patched in place.
type Opcode byte

const (
	// ========================================================================
	// Constants (0x10-0x1F)
	// ========================================================================

	OpPushInt    Opcode = 0x10 // Push int literal: OpPushInt <value:i64>
	OpPushBool   Opcode = 0x11 // Push bool literal: OpPushBool <value:u8>
	OpPushDouble Opcode = 0x12 // Push double literal: OpPushDouble <bits:f64>
	OpPushString Opcode = 0x13 // Push string from pool: OpPushString <index:i64>
	OpPushNil    Opcode = 0x14 // Push Unit

	// ========================================================================
	// Local variables (0x20-0x2F)
	// ========================================================================

	OpLoadLocal  Opcode = 0x20 // Push local slot: OpLoadLocal <slot:i64>
	OpStoreLocal Opcode = 0x21 // Pop and store to local: OpStoreLocal <slot:i64>

	// ========================================================================
	// Reactive state (0x30-0x3F)
	// ========================================================================

	OpLoadState   Opcode = 0x30 // Push state value: OpLoadState <symbol:i64>
	OpPushBinding Opcode = 0x31 // Push binding handle: OpPushBinding <symbol:i64>
	OpPushAction  Opcode = 0x32 // Push action handle: OpPushAction <index:i64>

	// ========================================================================
	// Arithmetic and comparison (0x50-0x5F)
	// ========================================================================

	OpAdd      Opcode = 0x50 // Pop two, push sum (or concatenation)
	OpSubtract Opcode = 0x51 // Pop two, push difference
	OpMultiply Opcode = 0x52 // Pop two, push product
	OpDivide   Opcode = 0x53 // Pop two, push quotient
	OpLessThan Opcode = 0x54 // Pop two, push Bool(a < b)
	OpEqual    Opcode = 0x55 // Pop two, push same-variant equality
	OpCoalesce Opcode = 0x56 // Pop two, push right if left is Unit, else left

	// ========================================================================
	// Control flow (0x80-0x8F)
	// ========================================================================

	OpJump        Opcode = 0x80 // Relative jump: OpJump <offset:i64>
	OpJumpIfFalse Opcode = 0x81 // Pop Bool, jump when false: OpJumpIfFalse <offset:i64>

	// ========================================================================
	// Bridge dispatch (0x90-0x9F)
	// ========================================================================

	OpCallMethod   Opcode = 0x90 // OpCallMethod <symbol:i64> <argc:i64>
	OpCallFunction Opcode = 0x91 // OpCallFunction <symbol:i64> <argc:i64>
	OpGetProperty  Opcode = 0x92 // OpGetProperty <symbol:i64>
	OpConstruct    Opcode = 0x93 // OpConstruct <symbol:i64> <argc:i64>

	// ========================================================================
	// Return (0xF0)
	// ========================================================================

	OpReturn Opcode = 0xF0 // Pop return value, unwind frame or end the run
)

// OpcodeInfo provides metadata about each opcode for disassembly and
// validation.
type OpcodeInfo struct {
	Name        string // Human-readable name
	OperandLen  int    // Number of operand bytes following the opcode
	OperandDesc string // Short operand description, e.g. "symbol, argc"
}

var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpPushInt:    {"PUSH_INT", 8, "value"},
	OpPushBool:   {"PUSH_BOOL", 1, "value"},
	OpPushDouble: {"PUSH_DOUBLE", 8, "bits"},
	OpPushString: {"PUSH_STRING", 8, "string"},
	OpPushNil:    {"PUSH_NIL", 0, ""},

	OpLoadLocal:  {"LOAD_LOCAL", 8, "slot"},
	OpStoreLocal: {"STORE_LOCAL", 8, "slot"},

	OpLoadState:   {"LOAD_STATE", 8, "symbol"},
	OpPushBinding: {"PUSH_BINDING", 8, "symbol"},
	OpPushAction:  {"PUSH_ACTION", 8, "action"},

	OpAdd:      {"ADD", 0, ""},
	OpSubtract: {"SUBTRACT", 0, ""},
	OpMultiply: {"MULTIPLY", 0, ""},
	OpDivide:   {"DIVIDE", 0, ""},
	OpLessThan: {"LESS_THAN", 0, ""},
	OpEqual:    {"EQUAL", 0, ""},
	OpCoalesce: {"COALESCE", 0, ""},

	OpJump:        {"JUMP", 8, "offset"},
	OpJumpIfFalse: {"JUMP_IF_FALSE", 8, "offset"},

	OpCallMethod:   {"CALL_METHOD", 16, "symbol, argc"},
	OpCallFunction: {"CALL_FUNCTION", 16, "symbol, argc"},
	OpGetProperty:  {"GET_PROPERTY", 8, "symbol"},
	OpConstruct:    {"CONSTRUCT", 16, "symbol, argc"},

	OpReturn: {"RETURN", 0, ""},
}

// GetOpcodeInfo returns metadata for an opcode. Unknown opcodes get a
// placeholder name so disassembly never panics on corrupt streams.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// OperandLen returns the number of operand bytes for this opcode.
func (op Opcode) OperandLen() int {
	return GetOpcodeInfo(op).OperandLen
}

// InstructionLen returns the total instruction length (1 + operand bytes).
func (op Opcode) InstructionLen() int {
	return 1 + op.OperandLen()
}

// IsJump reports whether this opcode is a jump instruction.
func (op Opcode) IsJump() bool {
	return op == OpJump || op == OpJumpIfFalse
}

// IsBridgeCall reports whether this opcode dispatches through the
// capability bridge.
func (op Opcode) IsBridgeCall() bool {
	return op >= OpCallMethod && op <= OpConstruct
}

// AllOpcodes returns a slice of all defined opcodes, for tests that verify
// every opcode carries metadata.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}
