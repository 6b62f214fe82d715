package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	projectDir := t.TempDir()
	cfg, err := Load(projectDir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Project.Version != 1 {
		t.Fatalf("expected default version 1, got %d", cfg.Project.Version)
	}
	want := filepath.Join(projectDir, Dir, "modules")
	if cfg.ModulesDir() != want {
		t.Fatalf("expected modules dir %s, got %s", want, cfg.ModulesDir())
	}
	if cfg.UserModulesDir() != filepath.Join(want, UserModulesSubdir) {
		t.Fatalf("unexpected user modules dir %s", cfg.UserModulesDir())
	}
	if cfg.ServerAddr() != "127.0.0.1:8000" {
		t.Fatalf("unexpected server addr %s", cfg.ServerAddr())
	}
}

func TestInitDirWritesLoadableConfig(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitDir(projectDir); err != nil {
		t.Fatalf("init: %v", err)
	}
	for _, sub := range []string{"logs", "uploads", "storage/vectors", "modules/user_defined"} {
		if info, err := os.Stat(filepath.Join(projectDir, Dir, sub)); err != nil || !info.IsDir() {
			t.Fatalf("expected %s to exist: %v", sub, err)
		}
	}
	cfg, err := Load(projectDir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogPath() != filepath.Join(projectDir, Dir, "logs", "flowbench.log") {
		t.Fatalf("unexpected log path %s", cfg.LogPath())
	}
	if err := InitDir(projectDir); err != nil {
		t.Fatalf("second init: %v", err)
	}
}

func TestLoadParsesYAML(t *testing.T) {
	projectDir := t.TempDir()
	writeConfig(t, projectDir, `
version: 1
modules:
  dir: features
storage:
  dir: /var/flowbench
logging:
  level: DEBUG
  format: json
server:
  port: 9100
`)
	cfg, err := Load(projectDir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ModulesDir() != filepath.Join(projectDir, "features") {
		t.Fatalf("expected relative modules dir resolved, got %s", cfg.ModulesDir())
	}
	if cfg.StorageDir() != "/var/flowbench" {
		t.Fatalf("expected absolute storage dir kept, got %s", cfg.StorageDir())
	}
	if cfg.Project.Logging.Level != "debug" || cfg.Project.Logging.Format != "json" {
		t.Fatalf("unexpected logging config %+v", cfg.Project.Logging)
	}
	if !strings.HasSuffix(cfg.ServerAddr(), ":9100") {
		t.Fatalf("unexpected server addr %s", cfg.ServerAddr())
	}
	if cfg.UploadsDir() != filepath.Join(projectDir, Dir, "uploads") {
		t.Fatalf("expected default uploads dir, got %s", cfg.UploadsDir())
	}
}

func TestLoadValidation(t *testing.T) {
	projectDir := t.TempDir()
	writeConfig(t, projectDir, "version: 1\nlogging:\n  format: xml\n")
	if _, err := Load(projectDir); err == nil {
		t.Fatalf("expected validation error but got none")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	projectDir := t.TempDir()
	t.Setenv("FLOWBENCH_SERVER_PORT", "9200")
	t.Setenv("FLOWBENCH_LOG_LEVEL", "warn")
	if err := os.WriteFile(filepath.Join(projectDir, ".env"), []byte("FLOWBENCH_MODULES_DIR=mods\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("FLOWBENCH_MODULES_DIR") })
	cfg, err := Load(projectDir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Project.Server.Port != 9200 || cfg.Project.Logging.Level != "warn" {
		t.Fatalf("expected env overrides, got %+v", cfg.Project)
	}
	if cfg.ModulesDir() != filepath.Join(projectDir, "mods") {
		t.Fatalf("expected .env modules dir, got %s", cfg.ModulesDir())
	}

	t.Setenv("FLOWBENCH_SERVER_PORT", "eighty")
	if _, err := Load(projectDir); err == nil {
		t.Fatalf("expected error for non-numeric port")
	}
}

func writeConfig(t *testing.T, projectDir, content string) {
	t.Helper()
	dir := filepath.Join(projectDir, Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(strings.TrimSpace(content)), 0o644); err != nil {
		t.Fatal(err)
	}
}
