package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kingrea/flowbench/internal/feature"
)

func TestBuildInputsMergesFileAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inputs.yaml")
	if err := os.WriteFile(path, []byte("text: from file\nchunk_size: 20\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	sets := keyValueFlag{}
	if err := sets.Set("text=from flag"); err != nil {
		t.Fatalf("set: %v", err)
	}
	inputs, err := buildInputs(path, sets)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if inputs["text"] != "from flag" || inputs["chunk_size"] != 20 {
		t.Fatalf("unexpected inputs %v", inputs)
	}
	if err := sets.Set("novalue"); err == nil {
		t.Fatalf("expected error for missing '='")
	}
}

func TestMissingInputs(t *testing.T) {
	desc := feature.Descriptor{ID: "x", Inputs: []feature.Port{{Name: "a"}, {Name: "b", Optional: true}, {Name: "c"}}}
	missing := missingInputs(desc, map[string]any{"c": 1})
	if len(missing) != 1 || missing[0] != "a" {
		t.Fatalf("unexpected missing inputs %v", missing)
	}
}
