package bridge

import "testing"

func TestDescriptorAllows(t *testing.T) {
	d := NewDescriptor(
		[]string{"Text"},
		map[string][]string{"String": {"uppercased"}},
		[]string{"print"},
	)

	if !d.AllowsType("Text") {
		t.Error("Text should be allowed")
	}
	if d.AllowsType("Button") {
		t.Error("Button should be denied")
	}

	if !d.AllowsMethod("String", "uppercased") {
		t.Error("String.uppercased should be allowed")
	}
	if d.AllowsMethod("String", "lowercased") {
		t.Error("String.lowercased should be denied")
	}
	if d.AllowsMethod("Int", "uppercased") {
		t.Error("methods are per receiver kind; Int.uppercased should be denied")
	}

	if !d.AllowsFunction("print") {
		t.Error("print should be allowed")
	}
	if d.AllowsFunction("min") {
		t.Error("min should be denied")
	}
}

func TestNilDescriptorDeniesEverything(t *testing.T) {
	var d *Descriptor
	if d.AllowsType("Text") {
		t.Error("nil descriptor should deny types")
	}
	if d.AllowsMethod("String", "uppercased") {
		t.Error("nil descriptor should deny methods")
	}
	if d.AllowsFunction("print") {
		t.Error("nil descriptor should deny functions")
	}
}

func TestEmptyDescriptorDeniesEverything(t *testing.T) {
	d := NewDescriptor(nil, nil, nil)
	if d.AllowsType("Text") || d.AllowsMethod("String", "uppercased") || d.AllowsFunction("print") {
		t.Error("empty descriptor should deny everything")
	}
}

func TestDescriptorCopiesInputs(t *testing.T) {
	types := []string{"Text"}
	methods := map[string][]string{"String": {"uppercased"}}
	d := NewDescriptor(types, methods, nil)

	types[0] = "Button"
	methods["String"][0] = "lowercased"

	if !d.AllowsType("Text") || d.AllowsType("Button") {
		t.Error("descriptor should not observe mutation of the types slice")
	}
	if !d.AllowsMethod("String", "uppercased") {
		t.Error("descriptor should not observe mutation of the methods map")
	}
}

func TestDefaultSurface(t *testing.T) {
	d := Default()

	for _, typ := range []string{"Text", "Button", "VStack", "ClosedRange"} {
		if !d.AllowsType(typ) {
			t.Errorf("default descriptor should allow type %s", typ)
		}
	}
	if !d.AllowsMethod("String", "uppercased") {
		t.Error("default descriptor should allow String.uppercased")
	}
	if !d.AllowsMethod("ClosedRange", "contains") {
		t.Error("default descriptor should allow ClosedRange.contains")
	}
	if !d.AllowsFunction("print") {
		t.Error("default descriptor should allow print")
	}

	// The default is a surface, not a wildcard.
	if d.AllowsType("File") {
		t.Error("default descriptor should not allow arbitrary types")
	}
	if d.AllowsFunction("exec") {
		t.Error("default descriptor should not allow arbitrary functions")
	}
}
