// Package config loads channel settings from YAML files.
package config

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mash-protocol/tlssocket/pkg/cert"
	"github.com/mash-protocol/tlssocket/pkg/log"
	"github.com/mash-protocol/tlssocket/pkg/socket"
	"github.com/mash-protocol/tlssocket/pkg/tlssocket"
)

// Config describes one TLS client connection.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	TLS       TLSConfig       `yaml:"tls"`
	Timeouts  TimeoutConfig   `yaml:"timeouts"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig names the peer.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port uint16 `yaml:"port"`

	// ServerName overrides the name the certificate is checked against.
	ServerName string `yaml:"server_name,omitempty"`
}

// TLSConfig holds credential paths and protocol limits.
type TLSConfig struct {
	RootCAFile     string   `yaml:"root_ca_file"`
	ClientCertFile string   `yaml:"client_cert_file,omitempty"`
	ClientKeyFile  string   `yaml:"client_key_file,omitempty"`
	MinVersion     string   `yaml:"min_version,omitempty"`
	MaxVersion     string   `yaml:"max_version,omitempty"`
	ALPN           []string `yaml:"alpn,omitempty"`
}

// TimeoutConfig bounds blocking calls. Values use Go duration syntax.
type TimeoutConfig struct {
	Handshake time.Duration `yaml:"handshake"`
	IO        time.Duration `yaml:"io"`
}

// DiscoveryConfig enables mDNS resolution of ".local" hosts.
type DiscoveryConfig struct {
	MDNSService string        `yaml:"mdns_service,omitempty"`
	MDNSTimeout time.Duration `yaml:"mdns_timeout,omitempty"`
}

// LoggingConfig selects debug output and protocol capture.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	ProtocolLog string `yaml:"protocol_log,omitempty"`
}

// Defaults.
const (
	DefaultPort             = 8883
	DefaultHandshakeTimeout = tlssocket.DefaultHandshakeTimeout
	DefaultLogLevel         = "info"
)

// ConfigError describes an invalid field.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error in field '%s': %s", e.Field, e.Reason)
}

// NewConfigMissingError reports a required field that is empty.
func NewConfigMissingError(field string) *ConfigError {
	return &ConfigError{
		Field:  field,
		Reason: fmt.Sprintf("required field '%s' is missing", field),
	}
}

// NewConfigValidationError reports a field with an unusable value.
func NewConfigValidationError(field string, value any, reason string) *ConfigError {
	return &ConfigError{
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// Default returns a configuration with every optional field set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: DefaultPort,
		},
		TLS: TLSConfig{
			MinVersion: "1.2",
		},
		Timeouts: TimeoutConfig{
			Handshake: DefaultHandshakeTimeout,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Load reads configuration from a file and applies environment variable
// overrides. Relative credential paths are taken as relative to the working
// directory.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if val := os.Getenv("TLSSOCKET_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv("TLSSOCKET_PORT"); val != "" {
		port, err := strconv.ParseUint(val, 10, 16)
		if err != nil {
			return NewConfigValidationError("TLSSOCKET_PORT", val, "not a port number")
		}
		cfg.Server.Port = uint16(port)
	}
	if val := os.Getenv("TLSSOCKET_SERVER_NAME"); val != "" {
		cfg.Server.ServerName = val
	}
	if val := os.Getenv("TLSSOCKET_ROOT_CA_FILE"); val != "" {
		cfg.TLS.RootCAFile = val
	}
	if val := os.Getenv("TLSSOCKET_CLIENT_CERT_FILE"); val != "" {
		cfg.TLS.ClientCertFile = val
	}
	if val := os.Getenv("TLSSOCKET_CLIENT_KEY_FILE"); val != "" {
		cfg.TLS.ClientKeyFile = val
	}
	if val := os.Getenv("TLSSOCKET_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	return nil
}

// Validate checks the configuration without touching the filesystem.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Host) == "" {
		return NewConfigMissingError("server.host")
	}
	if c.Server.Port == 0 {
		return NewConfigValidationError("server.port", c.Server.Port, "port must be non-zero")
	}

	if err := c.TLS.Validate(); err != nil {
		return fmt.Errorf("tls configuration: %w", err)
	}

	if c.Timeouts.Handshake < 0 {
		return NewConfigValidationError("timeouts.handshake", c.Timeouts.Handshake, "must not be negative")
	}
	if c.Timeouts.IO < 0 {
		return NewConfigValidationError("timeouts.io", c.Timeouts.IO, "must not be negative")
	}
	if c.Discovery.MDNSTimeout < 0 {
		return NewConfigValidationError("discovery.mdns_timeout", c.Discovery.MDNSTimeout, "must not be negative")
	}

	if _, err := ParseLogLevel(c.Logging.Level); err != nil {
		return NewConfigValidationError("logging.level", c.Logging.Level, err.Error())
	}
	return nil
}

// Validate checks credential paths and version limits.
func (c *TLSConfig) Validate() error {
	if strings.TrimSpace(c.RootCAFile) == "" {
		return NewConfigMissingError("root_ca_file")
	}
	if (c.ClientCertFile == "") != (c.ClientKeyFile == "") {
		return NewConfigValidationError("client_cert_file", c.ClientCertFile,
			"client_cert_file and client_key_file must be set together")
	}

	minVer, err := ParseTLSVersion(c.MinVersion)
	if err != nil {
		return NewConfigValidationError("min_version", c.MinVersion, err.Error())
	}
	if c.MaxVersion != "" {
		maxVer, err := ParseTLSVersion(c.MaxVersion)
		if err != nil {
			return NewConfigValidationError("max_version", c.MaxVersion, err.Error())
		}
		if maxVer < minVer {
			return NewConfigValidationError("max_version", c.MaxVersion,
				fmt.Sprintf("below min_version %s", c.MinVersion))
		}
	}
	return nil
}

// ParseTLSVersion converts "1.2" or "1.3" into a crypto/tls version.
// The empty string means TLS 1.2. Older versions are rejected.
func ParseTLSVersion(version string) (uint16, error) {
	switch strings.TrimSpace(version) {
	case "", "1.2":
		return tls.VersionTLS12, nil
	case "1.3":
		return tls.VersionTLS13, nil
	default:
		return 0, fmt.Errorf("unsupported TLS version %q", version)
	}
}

// ParseLogLevel converts a level name into a slog level.
func ParseLogLevel(level string) (slog.Level, error) {
	var l slog.Level
	if level == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return 0, err
	}
	return l, nil
}

// Address returns host:port.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(int(c.Server.Port)))
}

// Paths returns the credential file paths.
func (c *Config) Paths() cert.CredentialPaths {
	return cert.CredentialPaths{
		RootCA:     c.TLS.RootCAFile,
		ClientCert: c.TLS.ClientCertFile,
		ClientKey:  c.TLS.ClientKeyFile,
	}
}

// LoadCredentials reads the PEM files named by the configuration.
func (c *Config) LoadCredentials() (*cert.Credentials, error) {
	creds, err := c.Paths().Load()
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	return creds, nil
}

// Stack returns the network stack for the channel. ".local" hosts are
// resolved over mDNS when a service type is configured.
func (c *Config) Stack() *socket.NetStack {
	stack := socket.NewNetStack()
	if c.Discovery.MDNSService != "" {
		resolver := socket.NewMDNSResolver(c.Discovery.MDNSService)
		if c.Discovery.MDNSTimeout > 0 {
			resolver.Timeout = c.Discovery.MDNSTimeout
		}
		stack.LocalResolver = resolver
	}
	return stack
}

// Logger builds a text logger on w at the configured level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := ParseLogLevel(c.Logging.Level)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// ChannelOptions translates the configuration into channel options. The
// returned close function releases the protocol log, if one was opened.
func (c *Config) ChannelOptions() ([]tlssocket.Option, func() error, error) {
	minVer, err := ParseTLSVersion(c.TLS.MinVersion)
	if err != nil {
		return nil, nil, err
	}

	opts := []tlssocket.Option{
		tlssocket.WithMinVersion(minVer),
		tlssocket.WithHandshakeTimeout(c.Timeouts.Handshake),
		tlssocket.WithIOTimeout(c.Timeouts.IO),
	}
	if c.TLS.MaxVersion != "" {
		maxVer, err := ParseTLSVersion(c.TLS.MaxVersion)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, tlssocket.WithMaxVersion(maxVer))
	}
	if len(c.TLS.ALPN) > 0 {
		opts = append(opts, tlssocket.WithALPN(c.TLS.ALPN...))
	}
	if c.Server.ServerName != "" {
		opts = append(opts, tlssocket.WithServerName(c.Server.ServerName))
	}

	closeFn := func() error { return nil }
	if c.Logging.ProtocolLog != "" {
		fl, err := log.NewFileLogger(c.Logging.ProtocolLog)
		if err != nil {
			return nil, nil, fmt.Errorf("open protocol log: %w", err)
		}
		opts = append(opts, tlssocket.WithProtocolLogger(fl))
		closeFn = fl.Close
	}
	return opts, closeFn, nil
}

// Dial builds a channel from the configuration, loads its credentials and
// connects. Extra options are applied after the configured ones. The
// returned channel must be closed; closing it also closes the protocol log.
func (c *Config) Dial(ctx context.Context, extra ...tlssocket.Option) (*Conn, error) {
	creds, err := c.LoadCredentials()
	if err != nil {
		return nil, err
	}

	opts, closeLog, err := c.ChannelOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, extra...)

	ch, err := tlssocket.NewWithStack(c.Stack(), opts...)
	if err != nil {
		return nil, errors.Join(err, closeLog())
	}

	err = ch.ConnectWithCredentials(ctx, c.Server.Host, c.Server.Port,
		creds.RootCA, creds.ClientCert, creds.ClientKey)
	if err != nil {
		return nil, errors.Join(err, ch.Close(), closeLog())
	}
	return &Conn{Channel: ch, closeLog: closeLog}, nil
}

// Conn is a channel opened by Dial.
type Conn struct {
	*tlssocket.Channel
	closeLog func() error
}

// Close closes the channel and the protocol log.
func (c *Conn) Close() error {
	return errors.Join(c.Channel.Close(), c.closeLog())
}
