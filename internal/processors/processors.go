// Package processors holds the processors that ship with flowbench.
package processors

import (
	"fmt"

	"github.com/kingrea/flowbench/internal/feature"
	"github.com/kingrea/flowbench/internal/processor"
	"github.com/kingrea/flowbench/internal/storage"
)

// Deps are the services builtin processors may need.
type Deps struct {
	Storage *storage.Manager
}

type builtin struct {
	desc  feature.Descriptor
	build func(Deps) (processor.Processor, error)
}

func builtins() []builtin {
	return []builtin{
		{desc: fileReaderDescriptor, build: func(Deps) (processor.Processor, error) { return processor.Simple(readFile), nil }},
		{desc: fileUploadDescriptor, build: newFileUpload},
		{desc: textExtractionDescriptor, build: func(Deps) (processor.Processor, error) { return processor.Simple(extractText), nil }},
		{desc: textChunkerDescriptor, build: func(Deps) (processor.Processor, error) { return processor.Simple(chunkText), nil }},
		{desc: jsonParseDescriptor, build: func(Deps) (processor.Processor, error) { return processor.Simple(parseJSON), nil }},
	}
}

// Descriptors lists the metadata of every builtin processor.
func Descriptors() []feature.Descriptor {
	list := builtins()
	out := make([]feature.Descriptor, 0, len(list))
	for _, b := range list {
		out = append(out, b.desc.Clone())
	}
	return out
}

// Register installs every builtin descriptor and processor factory.
func Register(catalog *feature.Catalog, registry *processor.Registry, deps Deps) error {
	for _, b := range builtins() {
		if err := catalog.Register(b.desc); err != nil {
			return err
		}
		build := b.build
		factory := func(feature.Descriptor) (processor.Processor, error) { return build(deps) }
		if err := registry.Register(b.desc.ID, factory); err != nil {
			return fmt.Errorf("processors: %w", err)
		}
	}
	return nil
}

func stringInput(inputs map[string]any, name string) (string, error) {
	switch v := inputs[name].(type) {
	case string:
		return v, nil
	case nil:
		return "", fmt.Errorf("%s is required", name)
	default:
		return "", fmt.Errorf("%s must be text, got %T", name, v)
	}
}
