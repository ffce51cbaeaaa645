// Package config resolves the settings of the cardflow command from a YAML file,
// an optional .env file and CARDFLOW_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "cardflow.yaml"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendLoam   = "loam"
)

// Config holds every setting of the command line tool.
type Config struct {
	Store    StoreConfig  `yaml:"store"`
	Server   ServerConfig `yaml:"server"`
	Backup   BackupConfig `yaml:"backup"`
	LogLevel string       `yaml:"log_level"`
}

// StoreConfig selects and configures the slot store.
type StoreConfig struct {
	Backend       string `yaml:"backend"`
	Dir           string `yaml:"dir"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`
	SQLitePath    string `yaml:"sqlite_path"`
	LoamPath      string `yaml:"loam_path"`

	// EncryptionKey is a base64 AES-256 key. When set, slot values are encrypted at rest.
	EncryptionKey string   `yaml:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys"`
}

// ServerConfig configures the HTTP adapter.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// BackupConfig configures periodic flow backups. An empty schedule disables them.
type BackupConfig struct {
	Schedule string `yaml:"schedule"`
	Dir      string `yaml:"dir"`

	// Mask lists key patterns whose values are masked in backups.
	Mask []string `yaml:"mask"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Backend:    BackendFile,
			Dir:        ".cardflow",
			RedisAddr:  "localhost:6379",
			SQLitePath: "cardflow.db",
			LoamPath:   "cardflow-data",
		},
		Server:   ServerConfig{Addr: ":8080"},
		Backup:   BackupConfig{Dir: ".cardflow/backups"},
		LogLevel: "info",
	}
}

// Load reads the config file at path (DefaultFile when empty; a missing default file is
// not an error), loads envFile into the environment when it exists and applies the
// CARDFLOW_* overrides.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"CARDFLOW_STORE":           &c.Store.Backend,
		"CARDFLOW_DIR":             &c.Store.Dir,
		"CARDFLOW_REDIS_ADDR":      &c.Store.RedisAddr,
		"CARDFLOW_REDIS_PASSWORD":  &c.Store.RedisPassword,
		"CARDFLOW_REDIS_PREFIX":    &c.Store.RedisPrefix,
		"CARDFLOW_SQLITE_PATH":     &c.Store.SQLitePath,
		"CARDFLOW_LOAM_PATH":       &c.Store.LoamPath,
		"CARDFLOW_ADDR":            &c.Server.Addr,
		"CARDFLOW_BACKUP_SCHEDULE": &c.Backup.Schedule,
		"CARDFLOW_BACKUP_DIR":      &c.Backup.Dir,
		"CARDFLOW_LOG_LEVEL":       &c.LogLevel,
		"CARDFLOW_ENCRYPTION_KEY":  &c.Store.EncryptionKey,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	lists := map[string]*[]string{
		"CARDFLOW_FALLBACK_KEYS": &c.Store.FallbackKeys,
		"CARDFLOW_BACKUP_MASK":   &c.Backup.Mask,
	}
	for key, dst := range lists {
		if v, ok := os.LookupEnv(key); ok {
			*dst = splitList(v)
		}
	}
	if v, ok := os.LookupEnv("CARDFLOW_REDIS_DB"); ok {
		db, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid CARDFLOW_REDIS_DB %q: %w", v, err)
		}
		c.Store.RedisDB = db
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the backend name and the log level.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis, BackendSQLite, BackendLoam:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel ("debug", "info", "warn", "error").
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}
