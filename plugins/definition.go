package plugins

import (
	"fmt"
	"strings"

	"github.com/kingrea/flowbench/internal/feature"
)

// Metadata mirrors the meta.yaml / meta.json file stored next to each module
// under the modules directory.
type Metadata struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name,omitempty" yaml:"name,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string         `json:"category,omitempty" yaml:"category,omitempty"`
	Version     string         `json:"version,omitempty" yaml:"version,omitempty"`
	Inputs      []feature.Port `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs     []feature.Port `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	// ClassName is the older spelling of ProcessorClass.
	ClassName      string `json:"class_name,omitempty" yaml:"class_name,omitempty"`
	ProcessorClass string `json:"processor_class,omitempty" yaml:"processor_class,omitempty"`
}

// Normalized returns a trimmed copy of the metadata.
func (m Metadata) Normalized() Metadata {
	clone := Metadata{
		ID:             strings.TrimSpace(m.ID),
		Name:           strings.TrimSpace(m.Name),
		Description:    strings.TrimSpace(m.Description),
		Category:       strings.TrimSpace(m.Category),
		Version:        strings.TrimSpace(m.Version),
		ClassName:      strings.TrimSpace(m.ClassName),
		ProcessorClass: strings.TrimSpace(m.ProcessorClass),
	}
	if clone.ProcessorClass == "" {
		clone.ProcessorClass = clone.ClassName
	}
	clone.Inputs = normalizePorts(m.Inputs)
	clone.Outputs = normalizePorts(m.Outputs)
	return clone
}

func normalizePorts(ports []feature.Port) []feature.Port {
	if len(ports) == 0 {
		return nil
	}
	out := make([]feature.Port, len(ports))
	for i, port := range ports {
		port.Name = strings.TrimSpace(port.Name)
		port.Type = strings.TrimSpace(port.Type)
		if port.Type == "" {
			port.Type = feature.TypeAny
		}
		out[i] = port
	}
	return out
}

// Validate ensures the metadata can become a feature descriptor.
func (m Metadata) Validate() error {
	if err := m.Normalized().Descriptor().Validate(); err != nil {
		return fmt.Errorf("plugin: %w", err)
	}
	return nil
}

// Descriptor converts the metadata into the catalog representation.
func (m Metadata) Descriptor() feature.Descriptor {
	name := m.Name
	if name == "" {
		name = m.ID
	}
	return feature.Descriptor{
		ID:          m.ID,
		Name:        name,
		Description: m.Description,
		Category:    m.Category,
		Version:     m.Version,
		Inputs:      append([]feature.Port(nil), m.Inputs...),
		Outputs:     append([]feature.Port(nil), m.Outputs...),
		Processor:   m.ProcessorClass,
	}
}
