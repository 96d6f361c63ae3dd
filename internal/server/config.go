package server

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iwvelando/weight-balance/internal/config"
	"github.com/iwvelando/weight-balance/pkg/constants"
)

// Config holds the HTTP listener settings read from server-config.yaml.
type Config struct {
	Address           string               `yaml:"address"`
	MaxBodySize       string               `yaml:"maxBodySize"`
	ReadHeaderTimeout time.Duration        `yaml:"readHeaderTimeout"`
	ShutdownTimeout   time.Duration        `yaml:"shutdownTimeout"`
	Logging           config.LoggingConfig `yaml:"logging"`

	bodySizeBytes int64
}

func defaultConfig() *Config {
	return &Config{
		Address:           constants.DefaultServerAddress,
		ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		ShutdownTimeout:   constants.DefaultShutdownTimeout,
		bodySizeBytes:     constants.DefaultMaxBodySizeBytes,
	}
}

// LoadConfig reads the server configuration. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("server: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("server: parse %s: %w", path, err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, fmt.Errorf("server: %s: %w", path, err)
	}
	return cfg, nil
}

// BodySizeBytes is the request body limit in bytes.
func (c *Config) BodySizeBytes() int64 {
	return c.bodySizeBytes
}

func (c *Config) normalize() error {
	if strings.TrimSpace(c.Address) == "" {
		c.Address = constants.DefaultServerAddress
	}
	if c.ReadHeaderTimeout <= 0 {
		c.ReadHeaderTimeout = constants.DefaultReadHeaderTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = constants.DefaultShutdownTimeout
	}

	size, err := ParseSize(c.MaxBodySize)
	if err != nil {
		return err
	}
	if size == 0 {
		size = constants.DefaultMaxBodySizeBytes
	}
	c.bodySizeBytes = size
	return nil
}

// Longer suffixes come first so "MB" is not read as "B".
var sizeUnits = []struct {
	suffix     string
	multiplier int64
}{
	{"GB", 1 << 30}, {"G", 1 << 30},
	{"MB", 1 << 20}, {"M", 1 << 20},
	{"KB", 1 << 10}, {"K", 1 << 10},
	{"B", 1},
}

// ParseSize reads a byte count with an optional binary unit suffix, such as
// "512", "256K" or "10MB". An empty value is the default body limit.
func ParseSize(value string) (int64, error) {
	s := strings.ToUpper(strings.TrimSpace(value))
	if s == "" {
		return constants.DefaultMaxBodySizeBytes, nil
	}

	multiplier := int64(1)
	for _, u := range sizeUnits {
		if strings.HasSuffix(s, u.suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			multiplier = u.multiplier
			break
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", value, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid size %q: must not be negative", value)
	}
	if n > math.MaxInt64/multiplier {
		return 0, fmt.Errorf("invalid size %q: overflows int64", value)
	}
	return n * multiplier, nil
}
