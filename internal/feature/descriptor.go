package feature

import (
	"fmt"
	"strings"
)

// TypeAny is the wildcard port type. It is compatible with every other type.
const TypeAny = "any"

// UnknownProcessor is the processor name reported for features whose
// metadata is missing or malformed.
const UnknownProcessor = "UnknownProcessor"

// Port declares a single input or output of a feature.
type Port struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Optional    bool   `json:"optional,omitempty" yaml:"optional,omitempty"`
	Label       string `json:"label,omitempty" yaml:"label,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// InternalNode and InternalInput route a composite module's exposed input
	// to an input of a node inside its saved graph.
	InternalNode  string `json:"internal_node,omitempty" yaml:"internal_node,omitempty"`
	InternalInput string `json:"internal_input,omitempty" yaml:"internal_input,omitempty"`
}

// Routed reports whether the port maps onto an internal node input.
func (p Port) Routed() bool {
	return p.InternalNode != "" && p.InternalInput != ""
}

// TypeOrAny returns the declared type, defaulting to TypeAny.
func (p Port) TypeOrAny() string {
	if strings.TrimSpace(p.Type) == "" {
		return TypeAny
	}
	return p.Type
}

// Compatible reports whether an output of type from can feed an input of type to.
func Compatible(from, to string) bool {
	if from == "" {
		from = TypeAny
	}
	if to == "" {
		to = TypeAny
	}
	return from == to || from == TypeAny || to == TypeAny
}

// Descriptor is the read-only metadata the engine consults before running a node.
type Descriptor struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Inputs      []Port `json:"inputs" yaml:"inputs"`
	Outputs     []Port `json:"outputs" yaml:"outputs"`
	Processor   string `json:"processor_class,omitempty" yaml:"processor_class,omitempty"`
}

// Fallback is the descriptor used when a feature's metadata cannot be found.
// It declares no inputs so the node runs immediately.
func Fallback(id string) Descriptor {
	return Descriptor{ID: id, Name: id, Processor: UnknownProcessor}
}

// Unknown reports whether d is a fallback descriptor.
func (d Descriptor) Unknown() bool {
	return d.Processor == UnknownProcessor
}

// Input returns the input port named name.
func (d Descriptor) Input(name string) (Port, bool) {
	for _, port := range d.Inputs {
		if port.Name == name {
			return port, true
		}
	}
	return Port{}, false
}

// ProducesType reports whether any declared output is compatible with typ.
func (d Descriptor) ProducesType(typ string) bool {
	for _, port := range d.Outputs {
		if Compatible(port.TypeOrAny(), typ) {
			return true
		}
	}
	return false
}

// Validate checks the descriptor is usable by the catalog.
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("feature: id is required")
	}
	seen := map[string]struct{}{}
	for idx, port := range d.Inputs {
		if strings.TrimSpace(port.Name) == "" {
			return fmt.Errorf("feature: %s input[%d] name is required", d.ID, idx)
		}
		if _, dup := seen[port.Name]; dup {
			return fmt.Errorf("feature: %s declares input %s twice", d.ID, port.Name)
		}
		seen[port.Name] = struct{}{}
	}
	for idx, port := range d.Outputs {
		if strings.TrimSpace(port.Name) == "" {
			return fmt.Errorf("feature: %s output[%d] name is required", d.ID, idx)
		}
	}
	return nil
}

// Clone returns a copy that does not share port slices.
func (d Descriptor) Clone() Descriptor {
	clone := d
	clone.Inputs = append([]Port(nil), d.Inputs...)
	clone.Outputs = append([]Port(nil), d.Outputs...)
	return clone
}
