package api

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/kingrea/flowbench/internal/config"
)

const (
	// DefaultHost is the loopback interface used when no host is configured.
	DefaultHost = "127.0.0.1"
	// DefaultPort is the default TCP port for the API.
	DefaultPort = 8000
	// DefaultMaxBodyBytes limits JSON request payloads to 4 MB.
	DefaultMaxBodyBytes int64 = 4 << 20
	// DefaultMaxUploadBytes limits multipart resume payloads to 32 MB.
	DefaultMaxUploadBytes int64 = 32 << 20
	// DefaultReadTimeout guards hung clients.
	DefaultReadTimeout = 30 * time.Second
	// DefaultWriteTimeout bounds handler writes. Workflow steps run inside
	// the request, so it is generous.
	DefaultWriteTimeout = 10 * time.Minute
	// DefaultIdleTimeout bounds keep-alive connections.
	DefaultIdleTimeout = 60 * time.Second
)

// Settings captures runtime configuration for the HTTP API.
type Settings struct {
	Host           string
	Port           int
	MaxBodyBytes   int64
	MaxUploadBytes int64
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

// SettingsFromConfig builds Settings from the project's server section.
// Environment overrides are already applied by config.Load.
func SettingsFromConfig(cfg *config.Config) Settings {
	settings := Settings{
		Host:           DefaultHost,
		Port:           DefaultPort,
		MaxBodyBytes:   DefaultMaxBodyBytes,
		MaxUploadBytes: DefaultMaxUploadBytes,
	}
	if cfg != nil {
		raw := cfg.Project.Server
		if host := strings.TrimSpace(raw.Host); host != "" {
			settings.Host = host
		}
		if isValidPort(raw.Port) {
			settings.Port = raw.Port
		}
		if raw.MaxUploadBytes > 0 {
			settings.MaxUploadBytes = raw.MaxUploadBytes
		}
	}
	settings.normalize()
	return settings
}

// normalize fills zero values. Port 0 is kept so tests can bind an
// ephemeral port.
func (s *Settings) normalize() {
	s.Host = strings.TrimSpace(s.Host)
	if s.Host == "" {
		s.Host = DefaultHost
	}
	if s.Port < 0 || s.Port > 65535 {
		s.Port = DefaultPort
	}
	if s.MaxBodyBytes <= 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if s.MaxUploadBytes <= 0 {
		s.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if s.ReadTimeout <= 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.WriteTimeout <= 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.IdleTimeout <= 0 {
		s.IdleTimeout = DefaultIdleTimeout
	}
}

// Address returns the TCP bind address in host:port form.
func (s Settings) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// URL returns the HTTP base URL for the server.
func (s Settings) URL() string {
	return "http://" + s.Address()
}

func isValidPort(port int) bool {
	return port > 0 && port <= 65535
}
