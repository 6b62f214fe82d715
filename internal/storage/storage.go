// Package storage keeps files that arrive with resume requests and files
// produced by processors, grouped per session.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const defaultUploadName = "uploaded_file.bin"

// Manager owns the temporary upload area and the persistent storage area.
type Manager struct {
	uploadsDir string
	storageDir string
}

// New prepares the directories used by the manager.
func New(uploadsDir, storageDir string) (*Manager, error) {
	if strings.TrimSpace(uploadsDir) == "" || strings.TrimSpace(storageDir) == "" {
		return nil, fmt.Errorf("storage: uploads and storage directories are required")
	}
	m := &Manager{uploadsDir: uploadsDir, storageDir: storageDir}
	for _, dir := range []string{uploadsDir, m.persistentUploads(), m.vectors()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: ensure %s: %w", dir, err)
		}
	}
	return m, nil
}

func (m *Manager) persistentUploads() string { return filepath.Join(m.storageDir, "uploads") }

func (m *Manager) vectors() string { return filepath.Join(m.storageDir, "vectors") }

// SessionUploadDir returns the temporary upload directory for a session.
func (m *Manager) SessionUploadDir(sessionID string) (string, error) {
	if err := checkSessionID(sessionID); err != nil {
		return "", err
	}
	return filepath.Join(m.uploadsDir, sessionID), nil
}

// SaveUpload writes r into the session's upload directory and returns the
// absolute path. An existing file with the same name is kept and the new
// file is stored as name_N.ext.
func (m *Manager) SaveUpload(r io.Reader, sessionID, filename string) (string, error) {
	dir, err := m.SessionUploadDir(sessionID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: ensure %s: %w", dir, err)
	}
	path := uniquePath(dir, cleanName(filename))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("storage: create %s: %w", path, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("storage: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("storage: close %s: %w", path, err)
	}
	return filepath.Abs(path)
}

// Persist copies src into persistent storage under
// uploads/<session>/<8 hex>_<name> and returns the absolute destination.
func (m *Manager) Persist(src, sessionID, filename string) (string, error) {
	if err := checkSessionID(sessionID); err != nil {
		return "", err
	}
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("storage: source file not found: %w", err)
	}
	defer in.Close()
	if filename == "" {
		filename = filepath.Base(src)
	}
	dir := filepath.Join(m.persistentUploads(), sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: ensure %s: %w", dir, err)
	}
	prefix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	dest := filepath.Join(dir, prefix+"_"+cleanName(filename))
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("storage: create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", fmt.Errorf("storage: copy to %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return filepath.Abs(dest)
}

// VectorPath returns vectors/<session>/<filename>, creating the directory.
func (m *Manager) VectorPath(sessionID, filename string) (string, error) {
	if err := checkSessionID(sessionID); err != nil {
		return "", err
	}
	dir := filepath.Join(m.vectors(), sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: ensure %s: %w", dir, err)
	}
	return filepath.Join(dir, cleanName(filename)), nil
}

// Cleanup removes the session's temporary uploads.
func (m *Manager) Cleanup(sessionID string) error {
	dir, err := m.SessionUploadDir(sessionID)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("storage: cleanup %s: %w", sessionID, err)
	}
	return nil
}

func checkSessionID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("storage: invalid session id %q", id)
	}
	return nil
}

func cleanName(name string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if name == "" || name == "." || name == ".." || name == "/" {
		return defaultUploadName
	}
	return name
}

func uniquePath(dir, filename string) string {
	path := filepath.Join(dir, filename)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	for i := 1; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
