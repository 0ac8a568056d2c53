package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// BackupDirEnv overrides backups.root when set.
const BackupDirEnv = "BACKUP_BASE_DIR"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Backups   BackupsConfig   `yaml:"backups"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	Retention RetentionConfig `yaml:"retention"`
	Health    HealthConfig    `yaml:"health"`
}

type ServerConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	PathPrefix   string `yaml:"path_prefix"`
	SecureCookie bool   `yaml:"secure_cookie"`
}

type BackupsConfig struct {
	Root string `yaml:"root"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig controls the login gate. An empty PasswordHash disables it.
type AuthConfig struct {
	PasswordHash    string `yaml:"password_hash"`
	SessionDuration string `yaml:"session_duration"`
	CookieName      string `yaml:"cookie_name"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

type RetentionConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
	KeepLast int    `yaml:"keep_last"`
}

type HealthConfig struct {
	ExposeRoot bool `yaml:"expose_root"`
}

// Enabled reports whether a password has been configured.
func (c *AuthConfig) Enabled() bool {
	return c.PasswordHash != ""
}

func (c *AuthConfig) GetSessionDuration() time.Duration {
	d, err := time.ParseDuration(c.SessionDuration)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// Load reads the YAML file at path. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 - operator supplied config path
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}

	if root, ok := os.LookupEnv(BackupDirEnv); ok && root != "" {
		cfg.Backups.Root = root
	}

	setDefaults(&cfg)

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.PathPrefix == "/" {
		cfg.Server.PathPrefix = ""
	}
	if cfg.Backups.Root == "" {
		cfg.Backups.Root = "./nodered-backups"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./data/backups.db"
	}
	if cfg.Auth.SessionDuration == "" {
		cfg.Auth.SessionDuration = "24h"
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "backup_auth"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Retention.Schedule == "" {
		cfg.Retention.Schedule = "@daily"
	}
	if cfg.Retention.KeepLast == 0 {
		cfg.Retention.KeepLast = 30
	}
}
