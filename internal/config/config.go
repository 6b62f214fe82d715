// Package config handles configuration and the .flowbench directory structure.
// Every project that runs flowbench gets a .flowbench/ folder in its root.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// Dir is the name of the directory we create in each project.
	Dir = ".flowbench"

	// UserModulesSubdir holds modules saved from the builder.
	UserModulesSubdir = "user_defined"

	envPrefix = "FLOWBENCH_"
)

const defaultConfigYAML = `# flowbench project configuration
version: 1

modules:
  # Feature modules: <dir>/<id>/meta.yaml plus source.go or graph.json.
  dir: .flowbench/modules

storage:
  dir: .flowbench/storage
  uploads_dir: .flowbench/uploads

logging:
  level: info
  format: text
  file: .flowbench/logs/flowbench.log

server:
  host: 127.0.0.1
  port: 8000
  max_upload_bytes: 33554432
`

// ModulesConfig locates the feature modules directory.
type ModulesConfig struct {
	Dir string `yaml:"dir"`
}

// StorageConfig locates uploads and persisted session files.
type StorageConfig struct {
	Dir        string `yaml:"dir"`
	UploadsDir string `yaml:"uploads_dir"`
}

// LoggingConfig controls the log file.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// ServerConfig controls the HTTP API listener.
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// ProjectConfig models .flowbench/config.yaml.
type ProjectConfig struct {
	Version int           `yaml:"version"`
	Modules ModulesConfig `yaml:"modules"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	Server  ServerConfig  `yaml:"server"`
}

// Config holds the runtime configuration.
type Config struct {
	// ProjectDir is the directory flowbench was started from.
	ProjectDir string
	// StateDir is ProjectDir/.flowbench.
	StateDir string

	Project ProjectConfig
}

// InitDir creates the .flowbench directory structure in projectDir and
// writes a default config.yaml when none exists.
//
// .flowbench/
// ├── logs/
// ├── uploads/            <- per-session resume uploads
// ├── storage/
// │   ├── uploads/        <- files persisted by file_upload
// │   └── vectors/
// └── modules/
//
//	└── user_defined/   <- modules saved from the builder
func InitDir(projectDir string) error {
	root := filepath.Join(projectDir, Dir)
	dirs := []string{
		filepath.Join(root, "logs"),
		filepath.Join(root, "uploads"),
		filepath.Join(root, "storage", "uploads"),
		filepath.Join(root, "storage", "vectors"),
		filepath.Join(root, "modules", UserModulesSubdir),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(root, "config.yaml"))
}

// Load reads .env and .flowbench/config.yaml from projectDir. Missing files
// fall back to defaults; FLOWBENCH_* environment variables win over both.
func Load(projectDir string) (*Config, error) {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", projectDir, err)
	}
	if err := godotenv.Load(filepath.Join(abs, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	cfg := &Config{
		ProjectDir: abs,
		StateDir:   filepath.Join(abs, Dir),
		Project:    defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	if err := cfg.Project.applyEnv(os.Getenv); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Project.normalize(abs)
	if err := cfg.Project.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// ConfigPath returns the on-disk location of the project config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.StateDir, "config.yaml")
}

// ModulesDir returns the directory scanned for feature modules.
func (c *Config) ModulesDir() string {
	return c.Project.Modules.Dir
}

// UserModulesDir returns the directory builder-saved modules are written to.
func (c *Config) UserModulesDir() string {
	return filepath.Join(c.Project.Modules.Dir, UserModulesSubdir)
}

// UploadsDir returns the per-session upload directory root.
func (c *Config) UploadsDir() string {
	return c.Project.Storage.UploadsDir
}

// StorageDir returns the persistent storage root.
func (c *Config) StorageDir() string {
	return c.Project.Storage.Dir
}

// LogPath returns the log file path.
func (c *Config) LogPath() string {
	return c.Project.Logging.File
}

// ServerAddr returns host:port for the HTTP API.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Project.Server.Host, c.Project.Server.Port)
}

func (c *Config) loadProjectConfig() error {
	path := c.ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.Project.normalize(c.ProjectDir)
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	parsed := defaultProjectConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	parsed.applyDefaults()
	parsed.normalize(c.ProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Modules: ModulesConfig{Dir: filepath.Join(Dir, "modules")},
		Storage: StorageConfig{
			Dir:        filepath.Join(Dir, "storage"),
			UploadsDir: filepath.Join(Dir, "uploads"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   filepath.Join(Dir, "logs", "flowbench.log"),
		},
		Server: ServerConfig{Host: "127.0.0.1", Port: 8000, MaxUploadBytes: 32 << 20},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	def := defaultProjectConfig()
	if pc.Version == 0 {
		pc.Version = def.Version
	}
	if strings.TrimSpace(pc.Modules.Dir) == "" {
		pc.Modules.Dir = def.Modules.Dir
	}
	if strings.TrimSpace(pc.Storage.Dir) == "" {
		pc.Storage.Dir = def.Storage.Dir
	}
	if strings.TrimSpace(pc.Storage.UploadsDir) == "" {
		pc.Storage.UploadsDir = def.Storage.UploadsDir
	}
	if strings.TrimSpace(pc.Logging.Level) == "" {
		pc.Logging.Level = def.Logging.Level
	}
	if strings.TrimSpace(pc.Logging.Format) == "" {
		pc.Logging.Format = def.Logging.Format
	}
	if strings.TrimSpace(pc.Logging.File) == "" {
		pc.Logging.File = def.Logging.File
	}
	if strings.TrimSpace(pc.Server.Host) == "" {
		pc.Server.Host = def.Server.Host
	}
	if pc.Server.Port == 0 {
		pc.Server.Port = def.Server.Port
	}
	if pc.Server.MaxUploadBytes == 0 {
		pc.Server.MaxUploadBytes = def.Server.MaxUploadBytes
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Modules.Dir = resolvePath(base, pc.Modules.Dir)
	pc.Storage.Dir = resolvePath(base, pc.Storage.Dir)
	pc.Storage.UploadsDir = resolvePath(base, pc.Storage.UploadsDir)
	pc.Logging.File = resolvePath(base, pc.Logging.File)
	pc.Logging.Level = strings.ToLower(strings.TrimSpace(pc.Logging.Level))
	pc.Logging.Format = strings.ToLower(strings.TrimSpace(pc.Logging.Format))
	pc.Server.Host = strings.TrimSpace(pc.Server.Host)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	switch pc.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	switch pc.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be 'text' or 'json'")
	}
	if pc.Server.Port < 0 || pc.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", pc.Server.Port)
	}
	if pc.Server.MaxUploadBytes < 0 {
		return fmt.Errorf("server.max_upload_bytes must not be negative")
	}
	return nil
}

// applyEnv overlays FLOWBENCH_* variables. Paths are resolved later by normalize.
func (pc *ProjectConfig) applyEnv(getenv func(string) string) error {
	lookup := func(name string) string {
		return strings.TrimSpace(getenv(envPrefix + name))
	}
	if v := lookup("MODULES_DIR"); v != "" {
		pc.Modules.Dir = v
	}
	if v := lookup("STORAGE_DIR"); v != "" {
		pc.Storage.Dir = v
	}
	if v := lookup("UPLOADS_DIR"); v != "" {
		pc.Storage.UploadsDir = v
	}
	if v := lookup("LOG_LEVEL"); v != "" {
		pc.Logging.Level = v
	}
	if v := lookup("LOG_FORMAT"); v != "" {
		pc.Logging.Format = v
	}
	if v := lookup("LOG_FILE"); v != "" {
		pc.Logging.File = v
	}
	if v := lookup("SERVER_HOST"); v != "" {
		pc.Server.Host = v
	}
	if v := lookup("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sSERVER_PORT: %w", envPrefix, err)
		}
		pc.Server.Port = port
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
