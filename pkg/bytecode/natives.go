package bytecode

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/brio-lang/brio/pkg/value"
)

// Widget is the native payload behind every UI construct handle. The core
// never renders it; the embedder's renderer walks the final value and turns
// widgets into an on-screen tree.
type Widget struct {
	Kind     string
	Props    map[string]value.Value
	Children []value.Value
}

// Range is the native payload behind a ClosedRange handle.
type Range struct {
	Lower value.Value
	Upper value.Value
}

// newHandle mints an opaque handle value. Handles are the only values the
// bridge produces that bytecode cannot fabricate; the uuid keeps them
// distinguishable across runs and render passes.
func newHandle(typ string, obj any) value.Value {
	return value.NewHandle(&value.Handle{Type: typ, ID: uuid.NewString(), Obj: obj})
}

// receiverKind maps a value to the kind tag used in the capability
// allow-list: the variant name for primitives, the handle type for native
// handles, and the declared type name for records.
func receiverKind(v value.Value) string {
	switch v.Kind() {
	case value.KindHandle:
		return v.Handle().Type
	case value.KindRecord:
		return v.Record().TypeName
	default:
		return v.Kind().String()
	}
}

// argAt returns the i-th argument, or Unit when the call site supplied
// fewer. Built-ins are forgiving about arity; strictness here would turn
// live-coding typos into hard failures.
func argAt(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Unit
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

type constructorFunc func(args []value.Value) (value.Value, error)

var builtinConstructors = map[string]constructorFunc{
	"Text": func(args []value.Value) (value.Value, error) {
		return newHandle("Text", &Widget{
			Kind:  "Text",
			Props: map[string]value.Value{"content": value.NewString(argAt(args, 0).String())},
		}), nil
	},
	"Button": func(args []value.Value) (value.Value, error) {
		return newHandle("Button", &Widget{
			Kind: "Button",
			Props: map[string]value.Value{
				"label":  argAt(args, 0),
				"action": argAt(args, 1),
			},
		}), nil
	},
	"Toggle": func(args []value.Value) (value.Value, error) {
		return newHandle("Toggle", &Widget{
			Kind: "Toggle",
			Props: map[string]value.Value{
				"label":   argAt(args, 0),
				"binding": argAt(args, 1),
			},
		}), nil
	},
	"Slider": func(args []value.Value) (value.Value, error) {
		return newHandle("Slider", &Widget{
			Kind: "Slider",
			Props: map[string]value.Value{
				"binding": argAt(args, 0),
				"range":   argAt(args, 1),
			},
		}), nil
	},
	"Spacer": func(args []value.Value) (value.Value, error) {
		return newHandle("Spacer", &Widget{Kind: "Spacer"}), nil
	},
	"Divider": func(args []value.Value) (value.Value, error) {
		return newHandle("Divider", &Widget{Kind: "Divider"}), nil
	},
	"VStack":  containerConstructor("VStack"),
	"HStack":  containerConstructor("HStack"),
	"ZStack":  containerConstructor("ZStack"),
	"List":    containerConstructor("List"),
	"Group":   containerConstructor("Group"),
	"ClosedRange": func(args []value.Value) (value.Value, error) {
		return newHandle("ClosedRange", &Range{
			Lower: argAt(args, 0),
			Upper: argAt(args, 1),
		}), nil
	},
}

func containerConstructor(kind string) constructorFunc {
	return func(args []value.Value) (value.Value, error) {
		children := make([]value.Value, len(args))
		copy(children, args)
		return newHandle(kind, &Widget{Kind: kind, Children: children}), nil
	}
}

// ---------------------------------------------------------------------------
// Methods
// ---------------------------------------------------------------------------

type methodFunc func(recv value.Value, args []value.Value) (value.Value, error)

var builtinMethods = map[string]map[string]methodFunc{
	"String": {
		"uppercased": func(recv value.Value, args []value.Value) (value.Value, error) {
			return value.NewString(strings.ToUpper(recv.Str())), nil
		},
		"lowercased": func(recv value.Value, args []value.Value) (value.Value, error) {
			return value.NewString(strings.ToLower(recv.Str())), nil
		},
		"contains": func(recv value.Value, args []value.Value) (value.Value, error) {
			return value.NewBool(strings.Contains(recv.Str(), argAt(args, 0).String())), nil
		},
		"hasPrefix": func(recv value.Value, args []value.Value) (value.Value, error) {
			return value.NewBool(strings.HasPrefix(recv.Str(), argAt(args, 0).String())), nil
		},
		"hasSuffix": func(recv value.Value, args []value.Value) (value.Value, error) {
			return value.NewBool(strings.HasSuffix(recv.Str(), argAt(args, 0).String())), nil
		},
	},
	"Int": {
		"toDouble": func(recv value.Value, args []value.Value) (value.Value, error) {
			return value.NewDouble(float64(recv.Int())), nil
		},
	},
	"Double": {
		"rounded": func(recv value.Value, args []value.Value) (value.Value, error) {
			return value.NewInt(int64(math.Round(recv.Double()))), nil
		},
	},
	"ClosedRange": {
		"contains": func(recv value.Value, args []value.Value) (value.Value, error) {
			r, ok := recv.Handle().Obj.(*Range)
			if !ok {
				return value.NewBool(false), nil
			}
			lo, okLo := r.Lower.AsDouble()
			hi, okHi := r.Upper.AsDouble()
			v, okV := argAt(args, 0).AsDouble()
			return value.NewBool(okLo && okHi && okV && lo <= v && v <= hi), nil
		},
	},
}

// ---------------------------------------------------------------------------
// Functions
// ---------------------------------------------------------------------------

type functionFunc func(vm *VM, args []value.Value) (value.Value, error)

var builtinFunctions = map[string]functionFunc{
	"print": func(vm *VM, args []value.Value) (value.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.String()
		}
		vm.logf(strings.Join(parts, " "))
		return value.Unit, nil
	},
	"min": func(vm *VM, args []value.Value) (value.Value, error) {
		return numericFold(args, func(a, b float64) bool { return b < a })
	},
	"max": func(vm *VM, args []value.Value) (value.Value, error) {
		return numericFold(args, func(a, b float64) bool { return b > a })
	},
	"abs": func(vm *VM, args []value.Value) (value.Value, error) {
		v := argAt(args, 0)
		switch v.Kind() {
		case value.KindInt:
			n := v.Int()
			if n < 0 {
				n = -n
			}
			return value.NewInt(n), nil
		case value.KindDouble:
			return value.NewDouble(math.Abs(v.Double())), nil
		default:
			return value.Unit, nil
		}
	},
}

// numericFold picks the argument winning the pairwise comparison. Non-
// numeric arguments degrade the result to Unit.
func numericFold(args []value.Value, better func(current, candidate float64) bool) (value.Value, error) {
	if len(args) == 0 {
		return value.Unit, nil
	}
	best := args[0]
	bestF, ok := best.AsDouble()
	if !ok {
		return value.Unit, nil
	}
	for _, a := range args[1:] {
		f, ok := a.AsDouble()
		if !ok {
			return value.Unit, nil
		}
		if better(bestF, f) {
			best, bestF = a, f
		}
	}
	return best, nil
}

// ---------------------------------------------------------------------------
// Synthetic properties
// ---------------------------------------------------------------------------

type propertyFunc func(recv value.Value) (value.Value, error)

var builtinProperties = map[string]map[string]propertyFunc{
	"String": {
		"count": func(recv value.Value) (value.Value, error) {
			return value.NewInt(int64(utf8.RuneCountInString(recv.Str()))), nil
		},
		"isEmpty": func(recv value.Value) (value.Value, error) {
			return value.NewBool(recv.Str() == ""), nil
		},
	},
	"ClosedRange": {
		"lowerBound": func(recv value.Value) (value.Value, error) {
			if r, ok := recv.Handle().Obj.(*Range); ok {
				return r.Lower, nil
			}
			return value.Unit, nil
		},
		"upperBound": func(recv value.Value) (value.Value, error) {
			if r, ok := recv.Handle().Obj.(*Range); ok {
				return r.Upper, nil
			}
			return value.Unit, nil
		},
	},
}
