package processors

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/kingrea/flowbench/internal/feature"
	"github.com/kingrea/flowbench/internal/processor"
	"github.com/kingrea/flowbench/internal/storage"
)

func run(t *testing.T, reg *processor.Registry, catalog *feature.Catalog, id string, inputs map[string]any) (any, error) {
	t.Helper()
	desc, ok := catalog.Descriptor(id)
	if !ok {
		t.Fatalf("missing descriptor %s", id)
	}
	p, err := reg.Resolve(desc)
	if err != nil {
		t.Fatalf("resolve %s: %v", id, err)
	}
	res, err := p.Run(context.Background(), inputs)
	return res.Value(), err
}

func setup(t *testing.T) (*processor.Registry, *feature.Catalog, *storage.Manager, string) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.New(filepath.Join(root, "uploads"), filepath.Join(root, "storage"))
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	catalog := feature.NewCatalog()
	reg := processor.NewRegistry()
	if err := Register(catalog, reg, Deps{Storage: store}); err != nil {
		t.Fatalf("register: %v", err)
	}
	return reg, catalog, store, root
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRegisterInstallsEveryBuiltin(t *testing.T) {
	reg, catalog, _, _ := setup(t)
	for _, d := range Descriptors() {
		if _, ok := catalog.Descriptor(d.ID); !ok || !reg.Has(d.ID) {
			t.Fatalf("builtin %s not registered", d.ID)
		}
	}
}

func TestFileReader(t *testing.T) {
	reg, catalog, _, root := setup(t)
	path := writeFile(t, root, "in.txt", "hello world")
	got, err := run(t, reg, catalog, "file_reader", map[string]any{"file_path": path})
	if err != nil || got != "hello world" {
		t.Fatalf("unexpected read %v (%v)", got, err)
	}
	if _, err := run(t, reg, catalog, "file_reader", map[string]any{"file_path": filepath.Join(root, "nope")}); err == nil {
		t.Fatalf("expected missing file to fail")
	}
}

func TestFileUploadPersists(t *testing.T) {
	reg, catalog, store, root := setup(t)
	tmp, err := store.SaveUpload(strings.NewReader("data"), "sess-1", "doc.txt")
	if err != nil {
		t.Fatalf("save upload: %v", err)
	}
	got, err := run(t, reg, catalog, "file_upload", map[string]any{"file_path": tmp})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	stored := got.(string)
	if filepath.Dir(stored) != filepath.Join(root, "storage", "uploads", "sess-1") {
		t.Fatalf("unexpected stored path %s", stored)
	}
	if _, err := run(t, reg, catalog, "file_upload", map[string]any{"file_path": ""}); err == nil {
		t.Fatalf("expected empty path to fail")
	}
}

func TestTextExtraction(t *testing.T) {
	reg, catalog, _, root := setup(t)
	cases := map[string]struct {
		name, content string
		want          string
	}{
		"text":  {"a.txt", "line one\n\n\n\nline two\n", "line one\n\nline two"},
		"csv":   {"t.csv", "name,age\nann,3\nbob\n", "| name | age |\n| --- | --- |\n| ann | 3 |\n| bob |  |"},
		"html":  {"p.html", "<h1>Title</h1><p>Body <strong>bold</strong></p>", "# Title\n\nBody **bold**"},
		"other": {"x.pdf", "%PDF", "> Warning: Format '.pdf' is not supported for rich extraction."},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, root, tc.name, tc.content)
			got, err := run(t, reg, catalog, "text_extraction", map[string]any{"file_path": path})
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
	got, _ := run(t, reg, catalog, "text_extraction", map[string]any{"file_path": filepath.Join(root, "missing.txt")})
	if got != "> Error: File not found." {
		t.Fatalf("unexpected missing-file result %q", got)
	}
}

func TestSplitWords(t *testing.T) {
	chunks := splitWords("aaaa bbbb cccc dddd", 10, 10)
	want := []string{"aaaa bbbb", "bbbb cccc", "cccc dddd", "dddd"}
	if !reflect.DeepEqual(chunks, want) {
		t.Fatalf("got %q, want %q", chunks, want)
	}
	if splitWords("   ", 10, 0) != nil {
		t.Fatalf("expected no chunks for blank text")
	}
	if got := splitWords("a b c", 100, 0); !reflect.DeepEqual(got, []string{"a b c"}) {
		t.Fatalf("expected one chunk, got %q", got)
	}
}

func TestTextChunker(t *testing.T) {
	reg, catalog, _, _ := setup(t)
	got, err := run(t, reg, catalog, "text_chunker", map[string]any{"text": "one  two\nthree", "chunk_size": float64(8), "overlap": "0"})
	if err != nil {
		t.Fatalf("chunk: %v", err)
	}
	chunks := got.([]map[string]any)
	if len(chunks) != 2 || chunks[0]["text"] != "one two" || chunks[1]["chunk_id"] != 1 {
		t.Fatalf("unexpected chunks %v", chunks)
	}
	if _, err := run(t, reg, catalog, "text_chunker", map[string]any{"text": "x", "chunk_size": "big"}); err == nil {
		t.Fatalf("expected bad chunk size to fail")
	}
}

func TestDecodeValue(t *testing.T) {
	v, err := DecodeValue(`{"a": 1}`)
	if err != nil || v.(map[string]any)["a"] != float64(1) {
		t.Fatalf("unexpected decode %v (%v)", v, err)
	}
	v, err = DecodeValue(`{'a': 1,}`)
	if err != nil || v.(map[string]any)["a"] != float64(1) {
		t.Fatalf("expected repaired decode, got %v (%v)", v, err)
	}
	if _, err := DecodeValue("plain words"); err == nil {
		t.Fatalf("expected plain text to be rejected")
	}
	v, err = DecodeValue("42")
	if err != nil || v != float64(42) {
		t.Fatalf("expected scalar decode, got %v (%v)", v, err)
	}
}
