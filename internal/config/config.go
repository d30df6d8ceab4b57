package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "phonefield.toml"

// FallbackRegion is used when neither config nor locale names a region.
const FallbackRegion = "US"

// Config is the top-level phonefield configuration.
type Config struct {
	Input     InputConfig     `toml:"input"`
	Directory DirectoryConfig `toml:"directory"`
	Server    ServerConfig    `toml:"server"`
	Logging   LoggingConfig   `toml:"logging"`
}

type InputConfig struct {
	DefaultRegion string `toml:"default_region"` // empty: derive from the locale
	ShowExample   bool   `toml:"show_example"`
}

type DirectoryConfig struct {
	Language string   `toml:"language"`
	Regions  []string `toml:"regions"` // empty: every supported region
}

type ServerConfig struct {
	Host               string   `toml:"host"`
	Port               int      `toml:"port"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
	ShutdownTimeout    int      `toml:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns a Config with all defaults applied.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			ShowExample: true,
		},
		Directory: DirectoryConfig{
			Language: "en",
		},
		Server: ServerConfig{
			Host:               "127.0.0.1",
			Port:               8095,
			CORSAllowedOrigins: []string{"*"},
			ShutdownTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration with priority: defaults → phonefield.toml → env vars → CLI flags.
func Load(configPath string, flags map[string]string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		configPath = DefaultPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", configPath, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyFlags(cfg, flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Input.DefaultRegion != "" && !knownRegion(c.Input.DefaultRegion) {
		return fmt.Errorf("input.default_region %q is not a supported region code", c.Input.DefaultRegion)
	}
	if _, err := language.Parse(c.Directory.Language); err != nil {
		return fmt.Errorf("directory.language %q is not a valid language tag", c.Directory.Language)
	}
	for _, r := range c.Directory.Regions {
		if !knownRegion(r) {
			return fmt.Errorf("directory.regions: %q is not a supported region code", r)
		}
	}
	if c.Input.DefaultRegion != "" && len(c.Directory.Regions) > 0 && !containsFold(c.Directory.Regions, c.Input.DefaultRegion) {
		return fmt.Errorf("input.default_region %q is not listed in directory.regions", c.Input.DefaultRegion)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must be non-negative, got %d", c.Server.ShutdownTimeout)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format)
	}
	return nil
}

func knownRegion(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	return phonenumbers.GetSupportedRegions()[code]
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(s)) {
			return true
		}
	}
	return false
}

// Address returns the host:port string for the server to listen on.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// StartRegion resolves the region a new input starts with: the configured
// default, else the locale's region (when the directory offers it), else
// the first directory region or FallbackRegion.
func (c *Config) StartRegion(localeRegion string) string {
	if c.Input.DefaultRegion != "" {
		return strings.ToUpper(c.Input.DefaultRegion)
	}
	if localeRegion != "" && (len(c.Directory.Regions) == 0 || containsFold(c.Directory.Regions, localeRegion)) {
		return strings.ToUpper(localeRegion)
	}
	if len(c.Directory.Regions) > 0 {
		return strings.ToUpper(c.Directory.Regions[0])
	}
	return FallbackRegion
}

// GenerateDefault writes a commented default phonefield.toml to the given path.
func GenerateDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(defaultTOML), 0o644)
}

// ToTOML returns the config serialized as TOML.
func (c *Config) ToTOML() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// envInt reads an integer from the named environment variable.
// Returns an error if the value is set but not a valid integer.
func envInt(name string, dest *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %q is not an integer", name, v)
	}
	*dest = n
	return nil
}

func envList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PHONEFIELD_DEFAULT_REGION"); v != "" {
		cfg.Input.DefaultRegion = v
	}
	if v := os.Getenv("PHONEFIELD_SHOW_EXAMPLE"); v != "" {
		cfg.Input.ShowExample = v == "true" || v == "1"
	}
	if v := os.Getenv("PHONEFIELD_LANGUAGE"); v != "" {
		cfg.Directory.Language = v
	}
	if v := os.Getenv("PHONEFIELD_REGIONS"); v != "" {
		cfg.Directory.Regions = envList(v)
	}
	if v := os.Getenv("PHONEFIELD_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if err := envInt("PHONEFIELD_SERVER_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if v := os.Getenv("PHONEFIELD_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSAllowedOrigins = envList(v)
	}
	if err := envInt("PHONEFIELD_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout); err != nil {
		return err
	}
	if v := os.Getenv("PHONEFIELD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PHONEFIELD_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	return nil
}

func applyFlags(cfg *Config, flags map[string]string) {
	if flags == nil {
		return
	}
	if v, ok := flags["region"]; ok && v != "" {
		cfg.Input.DefaultRegion = v
	}
	if v, ok := flags["language"]; ok && v != "" {
		cfg.Directory.Language = v
	}
	if v, ok := flags["port"]; ok && v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v, ok := flags["host"]; ok && v != "" {
		cfg.Server.Host = v
	}
	if v, ok := flags["log-level"]; ok && v != "" {
		cfg.Logging.Level = v
	}
}

// validKeys is the complete set of dot-separated config keys.
var validKeys = map[string]bool{
	"input.default_region": true, "input.show_example": true,
	"directory.language": true, "directory.regions": true,
	"server.host": true, "server.port": true,
	"server.cors_allowed_origins": true, "server.shutdown_timeout": true,
	"logging.level": true, "logging.format": true,
}

// IsValidKey returns true if the dotted key is a recognized config key.
func IsValidKey(key string) bool {
	return validKeys[key]
}

// GetValue returns the value for a dotted config key (e.g. "server.port").
func GetValue(cfg *Config, key string) (any, error) {
	switch key {
	case "input.default_region":
		return cfg.Input.DefaultRegion, nil
	case "input.show_example":
		return cfg.Input.ShowExample, nil
	case "directory.language":
		return cfg.Directory.Language, nil
	case "directory.regions":
		return strings.Join(cfg.Directory.Regions, ","), nil
	case "server.host":
		return cfg.Server.Host, nil
	case "server.port":
		return cfg.Server.Port, nil
	case "server.cors_allowed_origins":
		return strings.Join(cfg.Server.CORSAllowedOrigins, ","), nil
	case "server.shutdown_timeout":
		return cfg.Server.ShutdownTimeout, nil
	case "logging.level":
		return cfg.Logging.Level, nil
	case "logging.format":
		return cfg.Logging.Format, nil
	default:
		return nil, fmt.Errorf("unknown configuration key: %s", key)
	}
}

// SetValue reads the existing TOML file, updates a single key, and writes it back.
// Creates the file with just the key if it doesn't exist.
func SetValue(configPath, key, value string) error {
	var data map[string]any
	if raw, err := os.ReadFile(configPath); err == nil {
		if err := toml.Unmarshal(raw, &data); err != nil {
			return fmt.Errorf("parsing %s: %w", configPath, err)
		}
	}
	if data == nil {
		data = make(map[string]any)
	}

	parts := strings.SplitN(key, ".", 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid key format: %s (expected section.field)", key)
	}
	section, field := parts[0], parts[1]

	sectionMap, ok := data[section].(map[string]any)
	if !ok {
		sectionMap = make(map[string]any)
		data[section] = sectionMap
	}
	sectionMap[field] = coerceValue(key, value)

	out, err := toml.Marshal(data)
	if err != nil {
		return fmt.Errorf("serializing config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return os.WriteFile(configPath, out, 0o644)
}

// coerceValue converts a string value to the appropriate Go type for TOML serialization.
func coerceValue(key, value string) any {
	switch key {
	case "input.show_example":
		return value == "true" || value == "1"
	case "server.port", "server.shutdown_timeout":
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	case "directory.regions", "server.cors_allowed_origins":
		return envList(value)
	}
	return value
}

const defaultTOML = `# phonefield configuration

[input]
# Region selected when an input starts. Leave empty to use the region of
# the current locale (LC_ALL / LC_MESSAGES / LANG), falling back to "US".
# default_region = "FR"

# Show a formatted example number of the selected region as placeholder.
show_example = true

[directory]
# Language for country names (BCP 47 tag, e.g. "en", "fr", "pt-BR").
language = "en"

# Restrict the country picker to these regions. Empty offers all regions.
# regions = ["FR", "BE", "CH", "LU"]

[server]
# Address for 'phonefield serve'.
host = "127.0.0.1"
port = 8095

# CORS allowed origins. Use ["*"] to allow all.
cors_allowed_origins = ["*"]

# Seconds to wait for in-flight requests during shutdown.
shutdown_timeout = 10

[logging]
# Log level: debug, info, warn, error.
level = "info"

# Log format: text or json.
format = "text"
`
