package bytecode

import "fmt"

// ErrorKind classifies runtime failures. Every runtime error aborts the
// current run at the point of detection; there is no partial result and no
// recovery inside the VM.
type ErrorKind int

const (
	// ErrStackUnderflow: an operand was missing, or present with a variant
	// the opcode cannot accept (the two are deliberately not distinguished).
	ErrStackUnderflow ErrorKind = iota

	// ErrInvalidSymbol: a symbol or action-pool index was out of range.
	ErrInvalidSymbol

	// ErrInvalidStringIndex: a string-pool index was out of range.
	ErrInvalidStringIndex

	// ErrInvalidLocalSlot: a local slot was read before any store reached it.
	ErrInvalidLocalSlot

	// ErrDivideByZero: integer or floating division by zero.
	ErrDivideByZero

	// ErrBridgeNotAllowed: a well-formed native operation was refused by the
	// capability allow-list. This is the sandbox policy violation; embedders
	// should surface it to the user, never suppress it.
	ErrBridgeNotAllowed

	// ErrInvalidReturnValue: a property or field lookup produced nothing.
	ErrInvalidReturnValue
)

// String returns the stable name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrStackUnderflow:
		return "StackUnderflow"
	case ErrInvalidSymbol:
		return "InvalidSymbol"
	case ErrInvalidStringIndex:
		return "InvalidStringIndex"
	case ErrInvalidLocalSlot:
		return "InvalidLocalSlot"
	case ErrDivideByZero:
		return "DivideByZero"
	case ErrBridgeNotAllowed:
		return "BridgeNotAllowed"
	case ErrInvalidReturnValue:
		return "InvalidReturnValue"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// RuntimeError is the single error type surfaced by the VM.
type RuntimeError struct {
	Kind  ErrorKind
	Name  string // offending symbol name, for InvalidSymbol / BridgeNotAllowed
	Index int64  // offending index or slot, where applicable
	PC    int    // instruction offset at the point of detection
}

func (e *RuntimeError) Error() string {
	switch e.Kind {
	case ErrBridgeNotAllowed:
		return fmt.Sprintf("%s: %q at offset %d", e.Kind, e.Name, e.PC)
	case ErrInvalidSymbol, ErrInvalidStringIndex, ErrInvalidLocalSlot:
		return fmt.Sprintf("%s: %d at offset %d", e.Kind, e.Index, e.PC)
	default:
		return fmt.Sprintf("%s at offset %d", e.Kind, e.PC)
	}
}

// IsBridgeNotAllowed reports whether err is a capability refusal, returning
// the refused name.
func IsBridgeNotAllowed(err error) (string, bool) {
	if re, ok := err.(*RuntimeError); ok && re.Kind == ErrBridgeNotAllowed {
		return re.Name, true
	}
	return "", false
}

// CompileError is a structural compilation failure, with source location
// when the parser provided one.
type CompileError struct {
	Msg  string
	Line int
	Col  int
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("compile error at %d:%d: %s", e.Line, e.Col, e.Msg)
	}
	return "compile error: " + e.Msg
}
