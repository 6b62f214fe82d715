package plugins

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// metaFiles lists the metadata file names checked in a module directory, in
// order of preference.
var metaFiles = []string{"meta.yaml", "meta.yml", "meta.json"}

// MetadataFile pairs parsed metadata with its on-disk source.
type MetadataFile struct {
	Metadata Metadata
	Path     string
}

// ParseMetadataYAML decodes and validates a YAML metadata payload.
func ParseMetadataYAML(data []byte, defaultID string) (Metadata, error) {
	return parseMetadata(data, defaultID, yaml.Unmarshal)
}

// ParseMetadataJSON decodes and validates a JSON metadata payload.
func ParseMetadataJSON(data []byte, defaultID string) (Metadata, error) {
	return parseMetadata(data, defaultID, json.Unmarshal)
}

func parseMetadata(data []byte, defaultID string, decode func([]byte, any) error) (Metadata, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Metadata{}, fmt.Errorf("plugin: metadata payload is empty")
	}
	var meta Metadata
	if err := decode(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("plugin: decode metadata: %w", err)
	}
	if strings.TrimSpace(meta.ID) == "" {
		meta.ID = defaultID
	}
	meta = meta.Normalized()
	if err := meta.Validate(); err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

// LoadMetadataFile reads a metadata file, picking the decoder by extension.
func LoadMetadataFile(path, defaultID string) (MetadataFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return MetadataFile{}, fmt.Errorf("plugin: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return MetadataFile{}, fmt.Errorf("plugin: %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return MetadataFile{}, fmt.Errorf("plugin: read %s: %w", path, err)
	}
	var meta Metadata
	if isYAMLFile(path) {
		meta, err = ParseMetadataYAML(data, defaultID)
	} else {
		meta, err = ParseMetadataJSON(data, defaultID)
	}
	if err != nil {
		return MetadataFile{}, fmt.Errorf("plugin: %s: %w", path, err)
	}
	return MetadataFile{Metadata: meta, Path: filepath.Clean(path)}, nil
}

// findMetadata returns the metadata path inside dir, or "" if there is none.
func findMetadata(dir string) string {
	for _, name := range metaFiles {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func isYAMLFile(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}
