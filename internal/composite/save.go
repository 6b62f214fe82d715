package composite

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kingrea/flowbench/internal/feature"
	"github.com/kingrea/flowbench/internal/graph"
	"github.com/kingrea/flowbench/internal/processor"
)

// UserPrefix namespaces the feature ids of saved modules.
const UserPrefix = "user_defined."

const (
	GraphFile        = "graph.json"
	MetaFile         = "meta.json"
	RequirementsFile = "requirements.txt"
)

// ErrInvalidName is returned when a module name reduces to nothing.
var ErrInvalidName = errors.New("composite: invalid module name")

var unsafeName = regexp.MustCompile(`[^a-z0-9_]`)

// SafeName turns a display name into a directory name.
func SafeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	return unsafeName.ReplaceAllString(name, "")
}

// Saver persists builder graphs as composite modules and registers them.
type Saver struct {
	Dir      string
	Catalog  *feature.Catalog
	Registry *processor.Registry
	Invoker  Invoker
}

// SaveRequest is a graph submitted from the builder.
type SaveRequest struct {
	Name         string
	Description  string
	Graph        graph.Graph
	Requirements []string
}

// Save writes the module to <Dir>/<safe name>/ and makes it available
// immediately. It returns the new feature id.
func (s *Saver) Save(req SaveRequest) (string, error) {
	safe := SafeName(req.Name)
	if safe == "" {
		return "", fmt.Errorf("%w: %q has no usable characters", ErrInvalidName, req.Name)
	}
	if _, err := graph.Compile(req.Graph); err != nil {
		return "", fmt.Errorf("composite: save %s: %w", safe, err)
	}
	desc := s.Describe(UserPrefix+safe, req)

	dir := filepath.Join(s.Dir, safe)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("composite: create %s: %w", dir, err)
	}
	if err := graph.WriteFile(filepath.Join(dir, GraphFile), req.Graph); err != nil {
		return "", err
	}
	meta, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("composite: encode metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, MetaFile), append(meta, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("composite: write metadata: %w", err)
	}
	if reqs := uniqueLines(req.Requirements); len(reqs) > 0 {
		content := strings.Join(reqs, "\n") + "\n"
		if err := os.WriteFile(filepath.Join(dir, RequirementsFile), []byte(content), 0o644); err != nil {
			return "", fmt.Errorf("composite: write requirements: %w", err)
		}
	}

	if s.Catalog != nil {
		if err := s.Catalog.Register(desc); err != nil {
			return "", err
		}
	}
	if s.Registry != nil {
		if err := s.Registry.Replace(desc.ID, Factory(req.Graph, s.Invoker)); err != nil {
			return "", err
		}
	}
	return desc.ID, nil
}

// Describe derives the module's interface. Every input of an internal node
// that no internal edge binds by name is exposed as <label>_<input>; every
// internal output is exposed as <label>_<output>.
func (s *Saver) Describe(id string, req SaveRequest) feature.Descriptor {
	filled := map[string]struct{}{}
	for _, edge := range req.Graph.Edges {
		if !edge.Generic() {
			filled[edge.Target+"."+edge.Handle()] = struct{}{}
		}
	}
	desc := feature.Descriptor{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Category:    "Custom",
		Processor:   ProcessorClass,
	}
	if desc.Description == "" {
		desc.Description = "User created module"
	}
	seen := map[string]struct{}{}
	for _, node := range req.Graph.Nodes {
		inner := s.lookup(node.FeatureID())
		label := nodeLabel(node)
		for _, in := range inner.Inputs {
			if _, ok := filled[node.ID+"."+in.Name]; ok {
				continue
			}
			name := exposedName(label, in.Name)
			if _, dup := seen[name]; dup {
				name = exposedName(node.ID, in.Name)
			}
			seen[name] = struct{}{}
			_, configured := node.StaticInput(in.Name)
			desc.Inputs = append(desc.Inputs, feature.Port{
				Name:          name,
				Type:          in.TypeOrAny(),
				Optional:      in.Optional || configured,
				Label:         in.Label,
				Description:   in.Description,
				InternalNode:  node.ID,
				InternalInput: in.Name,
			})
		}
		for _, out := range inner.Outputs {
			desc.Outputs = append(desc.Outputs, feature.Port{
				Name: exposedName(label, out.Name),
				Type: out.TypeOrAny(),
			})
		}
	}
	return desc
}

func (s *Saver) lookup(featureID string) feature.Descriptor {
	if s.Catalog == nil {
		return feature.Fallback(featureID)
	}
	return s.Catalog.Lookup(featureID)
}

func nodeLabel(node graph.Node) string {
	if label := strings.TrimSpace(node.Data.Label); label != "" {
		return label
	}
	return node.ID
}

func exposedName(label, input string) string {
	return strings.ToLower(strings.ReplaceAll(label+"_"+input, " ", "_"))
}

func uniqueLines(values []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
