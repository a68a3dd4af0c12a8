package bytecode

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/brio-lang/brio/pkg/value"
)

// WireVersion is the serialized program format version. Bump on any
// incompatible change to the opcode set or the pool layout.
const WireVersion = 1

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// wireProgram is the on-the-wire shape of a Program. Values are flattened
// into tagged wireValue records so the format stays independent of the
// in-memory Value representation.
type wireProgram struct {
	Version       int                  `cbor:"v"`
	Code          []byte               `cbor:"code"`
	Strings       []string             `cbor:"strings"`
	Symbols       []string             `cbor:"symbols"`
	Types         []RecordType         `cbor:"types,omitempty"`
	StateDefaults map[string]wireValue `cbor:"state,omitempty"`
	Actions       []wireAction         `cbor:"actions,omitempty"`
}

type wireAction struct {
	State string    `cbor:"state"`
	Value wireValue `cbor:"value"`
}

// wireValue carries the serializable Value variants. Handles and records
// never appear in a compiled program; only literals reach state defaults
// and the action pool.
type wireValue struct {
	Kind string  `cbor:"k"`
	Int  int64   `cbor:"i,omitempty"`
	Dbl  float64 `cbor:"d,omitempty"`
	Bool bool    `cbor:"b,omitempty"`
	Str  string  `cbor:"s,omitempty"`
}

func toWireValue(v value.Value) (wireValue, error) {
	switch v.Kind() {
	case value.KindUnit:
		return wireValue{Kind: "unit"}, nil
	case value.KindInt:
		return wireValue{Kind: "int", Int: v.Int()}, nil
	case value.KindDouble:
		return wireValue{Kind: "double", Dbl: v.Double()}, nil
	case value.KindBool:
		return wireValue{Kind: "bool", Bool: v.Bool()}, nil
	case value.KindString:
		return wireValue{Kind: "string", Str: v.Str()}, nil
	default:
		return wireValue{}, fmt.Errorf("bytecode: %s value is not serializable", v.Kind())
	}
}

func fromWireValue(w wireValue) (value.Value, error) {
	switch w.Kind {
	case "unit":
		return value.Unit, nil
	case "int":
		return value.NewInt(w.Int), nil
	case "double":
		return value.NewDouble(w.Dbl), nil
	case "bool":
		return value.NewBool(w.Bool), nil
	case "string":
		return value.NewString(w.Str), nil
	default:
		return value.Unit, fmt.Errorf("bytecode: unknown wire value kind %q", w.Kind)
	}
}

// Marshal serializes the program to canonical CBOR bytes. Canonical mode
// keeps the encoding deterministic, so equal programs produce equal bytes.
func Marshal(p *Program) ([]byte, error) {
	wp := wireProgram{
		Version: WireVersion,
		Code:    p.Code,
		Strings: p.Strings,
		Symbols: p.Symbols,
		Types:   p.Types,
	}
	if len(p.StateDefaults) > 0 {
		wp.StateDefaults = make(map[string]wireValue, len(p.StateDefaults))
		for name, v := range p.StateDefaults {
			wv, err := toWireValue(v)
			if err != nil {
				return nil, fmt.Errorf("state default %q: %w", name, err)
			}
			wp.StateDefaults[name] = wv
		}
	}
	for i, a := range p.Actions {
		wv, err := toWireValue(a.Value)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		wp.Actions = append(wp.Actions, wireAction{State: a.State, Value: wv})
	}
	return cborEncMode.Marshal(wp)
}

// Unmarshal deserializes a program from CBOR bytes.
func Unmarshal(data []byte) (*Program, error) {
	var wp wireProgram
	if err := cbor.Unmarshal(data, &wp); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal program: %w", err)
	}
	if wp.Version != WireVersion {
		return nil, fmt.Errorf("bytecode: unsupported program version %d (want %d)", wp.Version, WireVersion)
	}

	p := &Program{
		Code:          wp.Code,
		Strings:       wp.Strings,
		Symbols:       wp.Symbols,
		Types:         wp.Types,
		StateDefaults: make(map[string]value.Value, len(wp.StateDefaults)),
	}
	for name, wv := range wp.StateDefaults {
		v, err := fromWireValue(wv)
		if err != nil {
			return nil, fmt.Errorf("state default %q: %w", name, err)
		}
		p.StateDefaults[name] = v
	}
	for i, wa := range wp.Actions {
		v, err := fromWireValue(wa.Value)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		p.Actions = append(p.Actions, Action{State: wa.State, Value: v})
	}
	return p, nil
}
