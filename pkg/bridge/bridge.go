// Package bridge defines the capability allow-list consulted by the VM
// before any native operation. A Descriptor is the security boundary of the
// sandbox: constructed by the embedder, immutable for the lifetime of a run,
// and never reachable from in-language code.
package bridge

// Descriptor is an immutable capability set: which type names may be
// constructed, which methods may be called per receiver kind, and which
// free functions may be called. A nil Descriptor denies everything.
type Descriptor struct {
	types     map[string]struct{}
	methods   map[string]map[string]struct{}
	functions map[string]struct{}
}

// NewDescriptor builds a Descriptor from the given allow-lists. The inputs
// are copied; later mutation of the arguments does not affect the result.
func NewDescriptor(types []string, methods map[string][]string, functions []string) *Descriptor {
	d := &Descriptor{
		types:     make(map[string]struct{}, len(types)),
		methods:   make(map[string]map[string]struct{}, len(methods)),
		functions: make(map[string]struct{}, len(functions)),
	}
	for _, t := range types {
		d.types[t] = struct{}{}
	}
	for kind, names := range methods {
		set := make(map[string]struct{}, len(names))
		for _, n := range names {
			set[n] = struct{}{}
		}
		d.methods[kind] = set
	}
	for _, f := range functions {
		d.functions[f] = struct{}{}
	}
	return d
}

// AllowsType reports whether the named type may be constructed.
func (d *Descriptor) AllowsType(name string) bool {
	if d == nil {
		return false
	}
	_, ok := d.types[name]
	return ok
}

// AllowsMethod reports whether the named method may be called on a receiver
// of the given kind. Synthetic properties are gated through the same table.
func (d *Descriptor) AllowsMethod(kind, name string) bool {
	if d == nil {
		return false
	}
	set, ok := d.methods[kind]
	if !ok {
		return false
	}
	_, ok = set[name]
	return ok
}

// AllowsFunction reports whether the named free function may be called.
func (d *Descriptor) AllowsFunction(name string) bool {
	if d == nil {
		return false
	}
	_, ok := d.functions[name]
	return ok
}

// Default returns a descriptor covering the built-in native surface. It is
// what the CLI grants when no capability manifest is supplied; embedders
// with stricter requirements should build their own.
func Default() *Descriptor {
	return NewDescriptor(
		[]string{
			"Text", "Button", "Toggle", "Slider", "Spacer", "Divider",
			"VStack", "HStack", "ZStack", "List", "Group",
			"ClosedRange",
		},
		map[string][]string{
			"String":      {"uppercased", "lowercased", "contains", "hasPrefix", "hasSuffix", "count", "isEmpty"},
			"Int":         {"toDouble"},
			"Double":      {"rounded"},
			"ClosedRange": {"contains", "lowerBound", "upperBound"},
		},
		[]string{"print", "min", "max", "abs"},
	)
}
