package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type BanchoConfig struct {
	Host         string        `yaml:"host" env:"BANCHO_HOST"`
	Port         int           `yaml:"port" env:"BANCHO_PORT"`
	Username     string        `yaml:"username" env:"BANCHO_USERNAME"`
	Password     string        `yaml:"password" env:"BANCHO_PASSWORD"`
	MessageDelay time.Duration `yaml:"message_delay" env:"BANCHO_MESSAGE_DELAY"`
	MessageSize  int           `yaml:"message_size" env:"BANCHO_MESSAGE_SIZE"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"BANCHO_IDLE_TIMEOUT"`
	Assistant    string        `yaml:"assistant" env:"BANCHO_ASSISTANT"`
	Channels     []string      `yaml:"channels" env:"BANCHO_CHANNELS" envSeparator:","`
}

type EgressConfig struct {
	Mode    string `yaml:"mode" env:"EGRESS_MODE"`
	HTTPURL string `yaml:"http_url" env:"EGRESS_HTTP_URL"`
	WSURL   string `yaml:"ws_url" env:"EGRESS_WS_URL"`
	Token   string `yaml:"token" env:"EGRESS_TOKEN"`
	DryRun  bool   `yaml:"dryrun" env:"EGRESS_DRYRUN"`
}

type LogConfig struct {
	Level   string `yaml:"level" env:"LOG_LEVEL"`
	Format  string `yaml:"format" env:"LOG_FORMAT"`
	Console bool   `yaml:"console" env:"LOG_TO_CONSOLE"`
	File    string `yaml:"file" env:"LOG_FILE"`
	Caller  bool   `yaml:"caller" env:"LOG_CALLER"`
}

type AppConfig struct {
	Bancho BanchoConfig `yaml:"bancho"`

	RedisURL    string `yaml:"redis_url" env:"REDIS_URL"`
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`
	CommandsDir string `yaml:"commands_dir" env:"COMMANDS_DIR"`

	Egress EgressConfig `yaml:"egress"`
	Log    LogConfig    `yaml:"log"`
}

// Default returns the built-in settings.
func Default() *AppConfig {
	return &AppConfig{
		Bancho: BanchoConfig{
			Host:         "irc.ppy.sh",
			Port:         6667,
			MessageDelay: time.Second,
			MessageSize:  449,
			IdleTimeout:  10 * time.Second,
			Assistant:    "BanchoBot",
		},
		Egress: EgressConfig{Mode: "none"},
		Log:    LogConfig{Level: "info", Format: "legacy", Console: true},
	}
}

// Load applies defaults, then the YAML file at path (BANCHO_CONFIG when path
// is empty), then environment variables, and validates the result.
func Load(path string) (*AppConfig, error) {
	return load(path, nil)
}

// load takes environ for tests; nil means the process environment.
func load(path string, environ map[string]string) (*AppConfig, error) {
	cfg := Default()

	if strings.TrimSpace(path) == "" {
		if environ != nil {
			path = environ["BANCHO_CONFIG"]
		} else {
			path = os.Getenv("BANCHO_CONFIG")
		}
	}
	if path = strings.TrimSpace(path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) normalize() {
	c.Bancho.Host = strings.TrimSpace(c.Bancho.Host)
	c.Bancho.Username = strings.TrimSpace(c.Bancho.Username)
	var channels []string
	for _, ch := range c.Bancho.Channels {
		if s := strings.TrimSpace(ch); s != "" {
			channels = append(channels, s)
		}
	}
	c.Bancho.Channels = channels
	c.RedisURL = strings.TrimSpace(c.RedisURL)
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	c.Egress.Mode = strings.ToLower(strings.TrimSpace(c.Egress.Mode))
	if c.Egress.Mode == "" {
		c.Egress.Mode = "none"
	}
}

func (c *AppConfig) Validate() error {
	if c.Bancho.Username == "" {
		return errors.New("BANCHO_USERNAME is required")
	}
	if c.Bancho.Password == "" {
		return errors.New("BANCHO_PASSWORD is required")
	}
	if c.Bancho.Host == "" {
		return errors.New("BANCHO_HOST is required")
	}
	if c.Bancho.Port <= 0 || c.Bancho.Port > 65535 {
		return fmt.Errorf("BANCHO_PORT out of range: %d", c.Bancho.Port)
	}
	if c.Bancho.MessageSize <= 0 {
		return errors.New("BANCHO_MESSAGE_SIZE must be positive")
	}
	switch c.Egress.Mode {
	case "none":
	case "http":
		if c.Egress.HTTPURL == "" {
			return errors.New("EGRESS_HTTP_URL is required")
		}
	case "ws":
		if c.Egress.WSURL == "" {
			return errors.New("EGRESS_WS_URL is required")
		}
	case "auto":
		if c.Egress.HTTPURL == "" {
			return errors.New("EGRESS_HTTP_URL is required")
		}
		if c.Egress.WSURL == "" {
			return errors.New("EGRESS_WS_URL is required")
		}
	default:
		return fmt.Errorf("unknown EGRESS_MODE: %s", c.Egress.Mode)
	}
	return nil
}
