package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/securelogin/config"
	ConfigFileName    = "securelogin.yml"
)

// secretAttributes are never echoed back by Attributes or the formatters.
var secretAttributes = map[string]bool{
	"database_url":   true,
	"key_enc_secret": true,
	"smtp_password":  true,
}

// Config holds all server configuration settings
type Config struct {
	// BindAddress is the address the HTTP server listens on
	BindAddress string `yaml:"bind_address" json:"bind_address"`

	// Port is the HTTP server port
	Port int `yaml:"port" json:"port"`

	// DatabaseURL is the PostgreSQL connection string
	DatabaseURL string `yaml:"database_url" json:"database_url"`

	// KeyEncSecret is the passphrase protecting signing keys at rest
	KeyEncSecret string `yaml:"key_enc_secret" json:"key_enc_secret"`

	// LogLevel controls logging verbosity ("info" or "debug")
	LogLevel string `yaml:"log_level" json:"log_level"`

	// SMTPHost is the outgoing mail server; empty disables mail delivery
	SMTPHost string `yaml:"smtp_host" json:"smtp_host"`

	// SMTPPort is the outgoing mail server port
	SMTPPort int `yaml:"smtp_port" json:"smtp_port"`

	// SMTPUsername authenticates against the mail server
	SMTPUsername string `yaml:"smtp_username" json:"smtp_username"`

	// SMTPPassword authenticates against the mail server
	SMTPPassword string `yaml:"smtp_password" json:"smtp_password"`

	// SMTPFrom is the From address on verification mails
	SMTPFrom string `yaml:"smtp_from" json:"smtp_from"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Global singleton config
var (
	globalConfig *Config
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			globalConfig = newDefault()
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// Reload reloads the configuration from file and environment
func Reload() error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
	return nil
}

// newDefault returns a config with default values
func newDefault() *Config {
	return &Config{
		BindAddress: "0.0.0.0",
		Port:        3000,
		LogLevel:    "info",
		SMTPPort:    587,
		SMTPFrom:    "no-reply@localhost",
		sources:     make(map[string]string),
	}
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over file values.
func Load() (*Config, error) {
	config := newDefault()

	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	configPath := os.Getenv("SECURELOGIN_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var fileConfig Config
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.applyFileConfig(&fileConfig)
	}

	config.applyEnvConfig()

	return config, nil
}

func attributeNames() []string {
	return []string{
		"bind_address", "port", "database_url", "key_enc_secret", "log_level",
		"smtp_host", "smtp_port", "smtp_username", "smtp_password", "smtp_from",
	}
}

func (c *Config) applyFileConfig(file *Config) {
	if file.BindAddress != "" {
		c.BindAddress = file.BindAddress
		c.sources["bind_address"] = "file"
	}
	if file.Port != 0 {
		c.Port = file.Port
		c.sources["port"] = "file"
	}
	if file.DatabaseURL != "" {
		c.DatabaseURL = file.DatabaseURL
		c.sources["database_url"] = "file"
	}
	if file.KeyEncSecret != "" {
		c.KeyEncSecret = file.KeyEncSecret
		c.sources["key_enc_secret"] = "file"
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
		c.sources["log_level"] = "file"
	}
	if file.SMTPHost != "" {
		c.SMTPHost = file.SMTPHost
		c.sources["smtp_host"] = "file"
	}
	if file.SMTPPort != 0 {
		c.SMTPPort = file.SMTPPort
		c.sources["smtp_port"] = "file"
	}
	if file.SMTPUsername != "" {
		c.SMTPUsername = file.SMTPUsername
		c.sources["smtp_username"] = "file"
	}
	if file.SMTPPassword != "" {
		c.SMTPPassword = file.SMTPPassword
		c.sources["smtp_password"] = "file"
	}
	if file.SMTPFrom != "" {
		c.SMTPFrom = file.SMTPFrom
		c.sources["smtp_from"] = "file"
	}
}

func (c *Config) applyEnvConfig() {
	if val := os.Getenv("SECURELOGIN_BIND_ADDRESS"); val != "" {
		c.BindAddress = val
		c.sources["bind_address"] = "environment"
	}
	if val := os.Getenv("PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.Port = i
			c.sources["port"] = "environment"
		}
	}
	if val := os.Getenv("DATABASE_URL"); val != "" {
		c.DatabaseURL = val
		c.sources["database_url"] = "environment"
	}
	if val := os.Getenv("KEY_ENC_SECRET"); val != "" {
		c.KeyEncSecret = val
		c.sources["key_enc_secret"] = "environment"
	}
	if val := os.Getenv("SECURELOGIN_LOG_LEVEL"); val != "" {
		c.LogLevel = val
		c.sources["log_level"] = "environment"
	}
	if val := os.Getenv("SMTP_HOST"); val != "" {
		c.SMTPHost = val
		c.sources["smtp_host"] = "environment"
	}
	if val := os.Getenv("SMTP_PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.SMTPPort = i
			c.sources["smtp_port"] = "environment"
		}
	}
	if val := os.Getenv("SMTP_USERNAME"); val != "" {
		c.SMTPUsername = val
		c.sources["smtp_username"] = "environment"
	}
	if val := os.Getenv("SMTP_PASSWORD"); val != "" {
		c.SMTPPassword = val
		c.sources["smtp_password"] = "environment"
	}
	if val := os.Getenv("SMTP_FROM"); val != "" {
		c.SMTPFrom = val
		c.sources["smtp_from"] = "environment"
	}
}

// ConfigFilePath returns the path to the config file
func (c *Config) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *Config) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// ListenAddr returns the host:port the server binds to
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.BindAddress, c.Port)
}

// MailEnabled reports whether SMTP delivery is configured
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.SMTPHost != "" && (c.SMTPPort < 1 || c.SMTPPort > 65535) {
		return fmt.Errorf("invalid smtp_port: %d", c.SMTPPort)
	}
	switch c.LogLevel {
	case "info", "debug":
	default:
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}
	return nil
}

// Attributes returns all configuration attributes with their values and
// sources. Secret values are masked.
func (c *Config) Attributes() []Attribute {
	values := map[string]string{
		"bind_address":   c.BindAddress,
		"port":           strconv.Itoa(c.Port),
		"database_url":   c.DatabaseURL,
		"key_enc_secret": c.KeyEncSecret,
		"log_level":      c.LogLevel,
		"smtp_host":      c.SMTPHost,
		"smtp_port":      strconv.Itoa(c.SMTPPort),
		"smtp_username":  c.SMTPUsername,
		"smtp_password":  c.SMTPPassword,
		"smtp_from":      c.SMTPFrom,
	}

	attrs := make([]Attribute, 0, len(values))
	for _, name := range attributeNames() {
		value := values[name]
		if secretAttributes[name] && value != "" {
			value = "*****"
		}
		attrs = append(attrs, Attribute{Name: name, Value: value, Source: c.Source(name)})
	}
	return attrs
}

// FormatText returns a text representation of the configuration
func (c *Config) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-20s %-30s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-20s %-30s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-20s %-30s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *Config) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
