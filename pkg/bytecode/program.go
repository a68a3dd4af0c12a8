package bytecode

import (
	"encoding/binary"
	"math"

	"github.com/brio-lang/brio/pkg/value"
)

// RecordType describes a user-declared record shape. Field order is
// positional: it defines constructor argument order.
type RecordType struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

// Action is a precompiled event-handler descriptor: invoking the action at
// runtime writes Value into the state named State.
type Action struct {
	State string
	Value value.Value
}

// Program is the immutable output of compilation: a flat bytecode stream
// plus its pools. It is created once per compile and may be executed many
// times by fresh VM instances.
type Program struct {
	Code []byte

	// Strings is the deduplicated string literal pool, index-addressed.
	Strings []string

	// Symbols is the deduplicated name pool for types, methods, functions
	// and state identifiers.
	Symbols []string

	// Types holds declared record shapes in declaration order.
	Types []RecordType

	// StateDefaults maps reactive state names to their default values.
	StateDefaults map[string]value.Value

	// Actions is the precompiled event-handler pool.
	Actions []Action
}

// NewProgram creates an empty program ready for emission.
func NewProgram() *Program {
	return &Program{
		Code:          make([]byte, 0, 64),
		StateDefaults: make(map[string]value.Value),
	}
}

// Count reports the current code length, used as a label for jump targets.
func (p *Program) Count() int {
	return len(p.Code)
}

// AppendOp appends a single opcode byte and returns its offset.
func (p *Program) AppendOp(op Opcode) int {
	offset := len(p.Code)
	p.Code = append(p.Code, byte(op))
	return offset
}

// AppendInt appends a fixed-width 8-byte little-endian integer operand.
func (p *Program) AppendInt(v int64) {
	p.Code = binary.LittleEndian.AppendUint64(p.Code, uint64(v))
}

// AppendBool appends a 1-byte boolean operand.
func (p *Program) AppendBool(b bool) {
	if b {
		p.Code = append(p.Code, 1)
	} else {
		p.Code = append(p.Code, 0)
	}
}

// AppendDouble appends the IEEE-754 bits of f as a little-endian 8-byte
// operand.
func (p *Program) AppendDouble(f float64) {
	p.Code = binary.LittleEndian.AppendUint64(p.Code, math.Float64bits(f))
}

// WriteIntAt overwrites the 8 bytes at offset with v. Operands are
// fixed-width precisely so this backpatch never shifts later bytes.
func (p *Program) WriteIntAt(offset int, v int64) {
	binary.LittleEndian.PutUint64(p.Code[offset:offset+8], uint64(v))
}

// EmitJump emits a jump opcode with a placeholder operand and returns the
// operand's offset for later patching.
func (p *Program) EmitJump(op Opcode) int {
	p.AppendOp(op)
	offset := len(p.Code)
	p.AppendInt(0)
	return offset
}

// PatchJump resolves a placeholder emitted by EmitJump to jump to the
// current position. The operand is relative to the PC after the operand
// itself: target - (operandOffset + 8).
func (p *Program) PatchJump(operandOffset int) {
	p.WriteIntAt(operandOffset, int64(len(p.Code)-(operandOffset+8)))
}

// EmitLoop emits an unconditional backward jump to loopStart.
func (p *Program) EmitLoop(loopStart int) {
	p.AppendOp(OpJump)
	operandOffset := len(p.Code)
	p.AppendInt(int64(loopStart - (operandOffset + 8)))
}

// InternString adds a string literal to the pool, deduplicating by exact
// match, and returns its index. First occurrence wins the index.
func (p *Program) InternString(s string) int64 {
	for i, existing := range p.Strings {
		if existing == s {
			return int64(i)
		}
	}
	p.Strings = append(p.Strings, s)
	return int64(len(p.Strings) - 1)
}

// InternSymbol adds a name to the symbol pool, deduplicating by exact
// match, and returns its index.
func (p *Program) InternSymbol(s string) int64 {
	for i, existing := range p.Symbols {
		if existing == s {
			return int64(i)
		}
	}
	p.Symbols = append(p.Symbols, s)
	return int64(len(p.Symbols) - 1)
}

// StringAt returns the pooled string at index.
func (p *Program) StringAt(index int64) (string, bool) {
	if index < 0 || index >= int64(len(p.Strings)) {
		return "", false
	}
	return p.Strings[index], true
}

// SymbolAt returns the pooled symbol at index.
func (p *Program) SymbolAt(index int64) (string, bool) {
	if index < 0 || index >= int64(len(p.Symbols)) {
		return "", false
	}
	return p.Symbols[index], true
}

// TypeByName returns the declared record type with the given name.
func (p *Program) TypeByName(name string) (*RecordType, bool) {
	for i := range p.Types {
		if p.Types[i].Name == name {
			return &p.Types[i], true
		}
	}
	return nil, false
}
