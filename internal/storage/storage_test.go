package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newManager(t *testing.T) (*Manager, string) {
	t.Helper()
	root := t.TempDir()
	m, err := New(filepath.Join(root, "uploads"), filepath.Join(root, "storage"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return m, root
}

func TestSaveUploadKeepsExistingFiles(t *testing.T) {
	m, _ := newManager(t)
	first, err := m.SaveUpload(strings.NewReader("one"), "sess", "report.pdf")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := m.SaveUpload(strings.NewReader("two"), "sess", "report.pdf")
	if err != nil {
		t.Fatalf("save again: %v", err)
	}
	if filepath.Base(first) != "report.pdf" || filepath.Base(second) != "report_1.pdf" {
		t.Fatalf("unexpected names %s, %s", first, second)
	}
	if !filepath.IsAbs(first) {
		t.Fatalf("expected absolute path, got %s", first)
	}
	data, _ := os.ReadFile(first)
	if string(data) != "one" {
		t.Fatalf("first upload overwritten: %q", data)
	}
}

func TestSaveUploadSanitizesNames(t *testing.T) {
	m, root := newManager(t)
	path, err := m.SaveUpload(strings.NewReader("x"), "sess", "../../etc/passwd")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Dir(path) != filepath.Join(root, "uploads", "sess") || filepath.Base(path) != "passwd" {
		t.Fatalf("upload escaped its directory: %s", path)
	}
	blank, err := m.SaveUpload(strings.NewReader("x"), "sess", "")
	if err != nil || filepath.Base(blank) != defaultUploadName {
		t.Fatalf("expected default name, got %s (%v)", blank, err)
	}
	if _, err := m.SaveUpload(strings.NewReader("x"), "../sess", "a.txt"); err == nil {
		t.Fatalf("expected traversal session id to be rejected")
	}
}

func TestPersistAndCleanup(t *testing.T) {
	m, root := newManager(t)
	tmp, err := m.SaveUpload(strings.NewReader("payload"), "sess", "notes.txt")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	dest, err := m.Persist(tmp, "sess", "")
	if err != nil {
		t.Fatalf("persist: %v", err)
	}
	base := filepath.Base(dest)
	if len(base) != len("12345678_notes.txt") || !strings.HasSuffix(base, "_notes.txt") {
		t.Fatalf("unexpected persisted name %s", base)
	}
	if filepath.Dir(dest) != filepath.Join(root, "storage", "uploads", "sess") {
		t.Fatalf("unexpected persisted dir %s", dest)
	}
	if err := m.Cleanup("sess"); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Fatalf("expected temporary upload removed")
	}
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("persisted file should survive cleanup: %v", err)
	}
	if err := m.Cleanup("never-existed"); err != nil {
		t.Fatalf("cleanup of unknown session should succeed: %v", err)
	}
	if _, err := m.Persist(filepath.Join(root, "missing"), "sess", ""); err == nil {
		t.Fatalf("expected missing source to fail")
	}
}

func TestVectorPath(t *testing.T) {
	m, root := newManager(t)
	path, err := m.VectorPath("sess", "index.faiss")
	if err != nil {
		t.Fatalf("vector path: %v", err)
	}
	if path != filepath.Join(root, "storage", "vectors", "sess", "index.faiss") {
		t.Fatalf("unexpected path %s", path)
	}
	if info, err := os.Stat(filepath.Dir(path)); err != nil || !info.IsDir() {
		t.Fatalf("expected vector dir to exist")
	}
}
