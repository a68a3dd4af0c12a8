package bytecode

import (
	"strings"
	"testing"
)

func TestEveryOpcodeHasMetadata(t *testing.T) {
	for _, op := range AllOpcodes() {
		info := GetOpcodeInfo(op)
		if info.Name == "" || strings.HasPrefix(info.Name, "UNKNOWN") {
			t.Errorf("opcode 0x%02X has no metadata", byte(op))
		}
		if info.OperandLen > 0 && info.OperandDesc == "" {
			t.Errorf("%s has operands but no operand description", info.Name)
		}
	}
}

func TestUnknownOpcodeInfo(t *testing.T) {
	info := GetOpcodeInfo(Opcode(0xEE))
	if !strings.HasPrefix(info.Name, "UNKNOWN") {
		t.Errorf("unknown opcode name = %q", info.Name)
	}
}

func TestOperandLengths(t *testing.T) {
	tests := []struct {
		op   Opcode
		want int
	}{
		{OpPushInt, 8},
		{OpPushBool, 1},
		{OpPushDouble, 8},
		{OpPushString, 8},
		{OpPushNil, 0},
		{OpLoadLocal, 8},
		{OpStoreLocal, 8},
		{OpLoadState, 8},
		{OpPushBinding, 8},
		{OpPushAction, 8},
		{OpAdd, 0},
		{OpJump, 8},
		{OpJumpIfFalse, 8},
		{OpCallMethod, 16},
		{OpCallFunction, 16},
		{OpGetProperty, 8},
		{OpConstruct, 16},
		{OpReturn, 0},
	}
	for _, tt := range tests {
		if got := tt.op.OperandLen(); got != tt.want {
			t.Errorf("%s.OperandLen() = %d, want %d", tt.op, got, tt.want)
		}
		if got := tt.op.InstructionLen(); got != tt.want+1 {
			t.Errorf("%s.InstructionLen() = %d, want %d", tt.op, got, tt.want+1)
		}
	}
}

func TestIsJump(t *testing.T) {
	if !OpJump.IsJump() || !OpJumpIfFalse.IsJump() {
		t.Error("jump opcodes should report IsJump")
	}
	if OpAdd.IsJump() || OpReturn.IsJump() {
		t.Error("non-jump opcodes should not report IsJump")
	}
}

func TestIsBridgeCall(t *testing.T) {
	for _, op := range []Opcode{OpCallMethod, OpCallFunction, OpGetProperty, OpConstruct} {
		if !op.IsBridgeCall() {
			t.Errorf("%s should be a bridge call", op)
		}
	}
	for _, op := range []Opcode{OpAdd, OpPushNil, OpLoadState, OpReturn} {
		if op.IsBridgeCall() {
			t.Errorf("%s should not be a bridge call", op)
		}
	}
}
