package bridge

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Manifest is the on-disk form of a capability set, a caps.toml file:
//
//	[capabilities]
//	types = ["Text", "VStack", "ClosedRange"]
//	functions = ["print"]
//
//	[capabilities.methods]
//	String = ["uppercased", "lowercased"]
type Manifest struct {
	Capabilities Capabilities `toml:"capabilities"`
}

// Capabilities lists the allowed native surface.
type Capabilities struct {
	Types     []string            `toml:"types"`
	Functions []string            `toml:"functions"`
	Methods   map[string][]string `toml:"methods"`
}

// LoadManifest parses a capability manifest from the given path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	return &m, nil
}

// Descriptor converts the manifest into an immutable capability descriptor.
func (m *Manifest) Descriptor() *Descriptor {
	return NewDescriptor(m.Capabilities.Types, m.Capabilities.Methods, m.Capabilities.Functions)
}
