package bytecode

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Disassemble returns a human-readable listing of the program: pools first,
// then one line per instruction.
func (p *Program) Disassemble() string {
	return p.DisassembleWithName("")
}

// DisassembleWithName returns a listing with a name header.
func (p *Program) DisassembleWithName(name string) string {
	var sb strings.Builder

	if name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", name))
	}
	sb.WriteString(fmt.Sprintf("; Brio Bytecode v%d\n", WireVersion))

	if len(p.Strings) > 0 {
		sb.WriteString("; Strings:\n")
		for i, s := range p.Strings {
			sb.WriteString(fmt.Sprintf(";   [%3d] %s\n", i, displayString(s, 40)))
		}
	}
	if len(p.Symbols) > 0 {
		sb.WriteString("; Symbols:\n")
		for i, s := range p.Symbols {
			sb.WriteString(fmt.Sprintf(";   [%3d] %s\n", i, s))
		}
	}
	if len(p.Types) > 0 {
		sb.WriteString("; Types:\n")
		for _, t := range p.Types {
			sb.WriteString(fmt.Sprintf(";   %s(%s)\n", t.Name, strings.Join(t.Fields, ", ")))
		}
	}
	if len(p.StateDefaults) > 0 {
		names := make([]string, 0, len(p.StateDefaults))
		for n := range p.StateDefaults {
			names = append(names, n)
		}
		sort.Strings(names)
		sb.WriteString("; State defaults:\n")
		for _, n := range names {
			sb.WriteString(fmt.Sprintf(";   %s = %s\n", n, displayString(p.StateDefaults[n].String(), 40)))
		}
	}
	if len(p.Actions) > 0 {
		sb.WriteString("; Actions:\n")
		for i, a := range p.Actions {
			sb.WriteString(fmt.Sprintf(";   [%3d] %s <- %s\n", i, a.State, displayString(a.Value.String(), 40)))
		}
	}

	sb.WriteString("\n; Code:\n")
	offset := 0
	for offset < len(p.Code) {
		line, instrLen := p.disassembleInstruction(offset)
		sb.WriteString(fmt.Sprintf("%04X  %s\n", offset, line))
		if instrLen <= 0 {
			break
		}
		offset += instrLen
	}
	return sb.String()
}

// DisassembleInstruction returns a readable form of the single instruction
// at offset.
func (p *Program) DisassembleInstruction(offset int) string {
	line, _ := p.disassembleInstruction(offset)
	return line
}

func (p *Program) disassembleInstruction(offset int) (string, int) {
	if offset >= len(p.Code) {
		return "<end of code>", 0
	}

	op := Opcode(p.Code[offset])
	info := GetOpcodeInfo(op)
	instrLen := 1 + info.OperandLen
	if offset+instrLen > len(p.Code) {
		return fmt.Sprintf("%s <truncated>", info.Name), len(p.Code) - offset
	}

	switch op {
	case OpPushInt:
		return fmt.Sprintf("%s %d", info.Name, p.readInt64(offset+1)), instrLen

	case OpPushBool:
		return fmt.Sprintf("%s %t", info.Name, p.Code[offset+1] != 0), instrLen

	case OpPushDouble:
		f := math.Float64frombits(uint64(p.readInt64(offset + 1)))
		return fmt.Sprintf("%s %g", info.Name, f), instrLen

	case OpPushString:
		idx := p.readInt64(offset + 1)
		s, _ := p.StringAt(idx)
		return fmt.Sprintf("%s %d ; %s", info.Name, idx, displayString(s, 20)), instrLen

	case OpLoadLocal, OpStoreLocal:
		return fmt.Sprintf("%s %d", info.Name, p.readInt64(offset+1)), instrLen

	case OpLoadState, OpPushBinding, OpGetProperty:
		idx := p.readInt64(offset + 1)
		name, _ := p.SymbolAt(idx)
		return fmt.Sprintf("%s %d ; %s", info.Name, idx, name), instrLen

	case OpPushAction:
		idx := p.readInt64(offset + 1)
		if idx >= 0 && idx < int64(len(p.Actions)) {
			return fmt.Sprintf("%s %d ; %s", info.Name, idx, p.Actions[idx].State), instrLen
		}
		return fmt.Sprintf("%s %d", info.Name, idx), instrLen

	case OpJump, OpJumpIfFalse:
		delta := p.readInt64(offset + 1)
		target := offset + instrLen + int(delta)
		return fmt.Sprintf("%s %+d (-> %04X)", info.Name, delta, target), instrLen

	case OpCallMethod, OpCallFunction, OpConstruct:
		idx := p.readInt64(offset + 1)
		argc := p.readInt64(offset + 9)
		name, _ := p.SymbolAt(idx)
		return fmt.Sprintf("%s %d (%s) argc=%d", info.Name, idx, name, argc), instrLen

	default:
		return info.Name, instrLen
	}
}

func (p *Program) readInt64(offset int) int64 {
	if offset+8 > len(p.Code) {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(p.Code[offset:]))
}

func displayString(s string, max int) string {
	if len(s) > max {
		s = s[:max-3] + "..."
	}
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return fmt.Sprintf("%q", s)
}
