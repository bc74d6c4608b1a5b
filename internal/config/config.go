package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aretw0/tilbot/internal/logging"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TILBOT_"

// Data selects and configures the External Data Provider.
type Data struct {
	// Driver is one of memory, csv, sqlite or redis.
	Driver        string `yaml:"driver"`
	Dir           string `yaml:"dir"`
	DSN           string `yaml:"dsn"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`
}

// Config is the process configuration shared by every command.
type Config struct {
	Project      string        `yaml:"project"`
	Addr         string        `yaml:"addr"`
	LogLevel     string        `yaml:"log_level"`
	LogFormat    string        `yaml:"log_format"`
	SettleDelay  time.Duration `yaml:"settle_delay"`
	MaxInputSize int           `yaml:"max_input_size"`
	MaxSessions  int           `yaml:"max_sessions"`
	Data         Data          `yaml:"data"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Project:      "project.json",
		Addr:         ":2801",
		LogLevel:     "info",
		LogFormat:    "text",
		SettleDelay:  500 * time.Millisecond,
		MaxInputSize: 4096,
		Data: Data{
			Driver:      "memory",
			Dir:         "data",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "tilbot:data:",
		},
	}
}

// Load layers, lowest first: defaults, the .env file in the working
// directory, the YAML file at path (optional when empty), and TILBOT_*
// environment variables.
func Load(path string) (Config, error) {
	return LoadWithEnvFile(path, ".env")
}

// LoadWithEnvFile is Load with an explicit dotenv file. A missing file is ignored.
func LoadWithEnvFile(path, envFile string) (Config, error) {
	cfg := Default()

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate checks the enumerated and numeric fields.
func (c Config) Validate() error {
	var errs []error
	switch c.Data.Driver {
	case "memory", "csv", "sqlite", "redis":
	default:
		errs = append(errs, fmt.Errorf("data.driver: unknown driver %q", c.Data.Driver))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format: must be text or json, got %q", c.LogFormat))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.SettleDelay < 0 {
		errs = append(errs, errors.New("settle_delay: must not be negative"))
	}
	if c.MaxInputSize <= 0 {
		errs = append(errs, errors.New("max_input_size: must be positive"))
	}
	if c.MaxSessions < 0 {
		errs = append(errs, errors.New("max_sessions: must not be negative"))
	}
	return errors.Join(errs...)
}

func applyEnv(c *Config) error {
	strs := map[string]*string{
		"PROJECT":        &c.Project,
		"ADDR":           &c.Addr,
		"LOG_LEVEL":      &c.LogLevel,
		"LOG_FORMAT":     &c.LogFormat,
		"DATA_DRIVER":    &c.Data.Driver,
		"DATA_DIR":       &c.Data.Dir,
		"DATA_DSN":       &c.Data.DSN,
		"REDIS_ADDR":     &c.Data.RedisAddr,
		"REDIS_PASSWORD": &c.Data.RedisPassword,
		"REDIS_PREFIX":   &c.Data.RedisPrefix,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"MAX_INPUT_SIZE": &c.MaxInputSize,
		"MAX_SESSIONS":   &c.MaxSessions,
		"REDIS_DB":       &c.Data.RedisDB,
	}
	for key, dst := range ints {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = n
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "SETTLE_DELAY"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sSETTLE_DELAY: %w", EnvPrefix, err)
		}
		c.SettleDelay = d
	}
	return nil
}
