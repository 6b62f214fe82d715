package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes the builder's JSON wire format.
func Parse(data []byte) (Graph, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Graph{}, fmt.Errorf("graph: payload is empty")
	}
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, fmt.Errorf("graph: decode: %w", err)
	}
	return g, nil
}

// ParseYAML decodes a graph written by hand in YAML. Field names match the
// JSON wire format.
func ParseYAML(data []byte) (Graph, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Graph{}, fmt.Errorf("graph: payload is empty")
	}
	var g Graph
	if err := yaml.Unmarshal(data, &g); err != nil {
		return Graph{}, fmt.Errorf("graph: decode yaml: %w", err)
	}
	return g, nil
}

// LoadReader reads a JSON graph from r.
func LoadReader(r io.Reader) (Graph, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return Graph{}, fmt.Errorf("graph: read: %w", err)
	}
	return Parse(content)
}

// LoadFile loads a graph from disk, choosing the decoder by extension.
func LoadFile(path string) (Graph, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Graph{}, fmt.Errorf("graph: read %s: %w", path, err)
	}
	var g Graph
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		g, err = ParseYAML(content)
	default:
		g, err = Parse(content)
	}
	if err != nil {
		return Graph{}, fmt.Errorf("graph: %s: %w", path, err)
	}
	return g, nil
}

// WriteFile stores the graph as indented JSON.
func WriteFile(path string, g Graph) error {
	encoded, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("graph: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(encoded, '\n'), 0o644)
}
