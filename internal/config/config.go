package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultAPIURL     = "http://127.0.0.1:8080"
	DefaultDBFileName = ".jobboard.db"
	DefaultDBDriver   = "sqlite"
	DefaultLogLevel   = "debug"
	DefaultBucket     = "cv-uploads"
	DefaultSessionTTL = "24h"
	DefaultRedisChan  = "jobboard:auth-events"
	DefaultAWSRegion  = "us-east-1"
	DefaultLinkJob    = true

	DefaultMaxCVBytes         int64 = 5 << 20
	DefaultMultipartMaxMemory int64 = 8 << 20

	configFileName           = ".jobboard.toml"
	configDirEnvKey          = "JOBBOARD_CONFIG_DIR"
	trustProjectConfigEnvKey = "JOBBOARD_TRUST_PROJECT_CONFIG"
)

// DatabaseConfig selects the row store. Driver is "sqlite" (Path) or
// "postgres" (DSN).
type DatabaseConfig struct {
	Driver string `toml:"driver"`
	Path   string `toml:"path"`
	DSN    string `toml:"dsn"`
}

// StorageConfig places the CV bucket on disk.
type StorageConfig struct {
	Root      string `toml:"root"`
	Bucket    string `toml:"bucket"`
	PublicURL string `toml:"public_url"`
}

// ApplicationsConfig tunes the submission workflow.
type ApplicationsConfig struct {
	LinkJob            bool  `toml:"link_job"`
	MaxCVBytes         int64 `toml:"max_cv_bytes"`
	MultipartMaxMemory int64 `toml:"multipart_max_memory"`
}

type AuthConfig struct {
	SessionTTL   string `toml:"session_ttl"`
	CookieSecure bool   `toml:"cookie_secure"`
}

// RedisConfig enables the cross-instance auth event bridge when Address is set.
type RedisConfig struct {
	Address  string `toml:"address"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Channel  string `toml:"channel"`
}

// NotificationsConfig enables SES email when From is set and SNS alerts when
// TopicARN is set.
type NotificationsConfig struct {
	Region   string `toml:"region"`
	From     string `toml:"from"`
	TopicARN string `toml:"topic_arn"`
}

// Config defines runtime configuration for jobboard.
type Config struct {
	APIURL                   string              `toml:"api_url"`
	LogLevel                 string              `toml:"log_level"`
	Database                 DatabaseConfig      `toml:"database"`
	Storage                  StorageConfig       `toml:"storage"`
	Applications             ApplicationsConfig  `toml:"applications"`
	Auth                     AuthConfig          `toml:"auth"`
	Redis                    RedisConfig         `toml:"redis"`
	Notifications            NotificationsConfig `toml:"notifications"`
	TrustedProjectConfigPath string              `toml:"-"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:   DefaultAPIURL,
		LogLevel: DefaultLogLevel,
		Database: DatabaseConfig{Driver: DefaultDBDriver},
		Storage:  StorageConfig{Bucket: DefaultBucket},
		Applications: ApplicationsConfig{
			LinkJob:            DefaultLinkJob,
			MaxCVBytes:         DefaultMaxCVBytes,
			MultipartMaxMemory: DefaultMultipartMaxMemory,
		},
		Auth:          AuthConfig{SessionTTL: DefaultSessionTTL},
		Redis:         RedisConfig{Channel: DefaultRedisChan},
		Notifications: NotificationsConfig{Region: DefaultAWSRegion},
	}
}

// SessionTTL parses auth.session_ttl, falling back to the default.
func (c *Config) SessionTTL() time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(c.Auth.SessionTTL)); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(DefaultSessionTTL)
	return d
}

// StoragePublicURL is the base URL public objects are served from.
func (c *Config) StoragePublicURL() string {
	if v := strings.TrimSpace(c.Storage.PublicURL); v != "" {
		return strings.TrimRight(v, "/")
	}
	return strings.TrimRight(c.APIURL, "/")
}

func loadFile(path string, cfg *Config) error {
	_, err := loadFileIfExists(path, cfg)
	return err
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

func overrideConfigPath() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, configFileName), true
}

func trustProjectConfig() bool {
	raw := strings.TrimSpace(os.Getenv(trustProjectConfigEnvKey))
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return value
}

var allowedKeys = []string{
	"api_url",
	"log_level",
	"database.driver",
	"database.path",
	"database.dsn",
	"storage.root",
	"storage.bucket",
	"storage.public_url",
	"applications.link_job",
	"applications.max_cv_bytes",
	"applications.multipart_max_memory",
	"auth.session_ttl",
	"auth.cookie_secure",
	"redis.address",
	"redis.password",
	"redis.db",
	"redis.channel",
	"notifications.region",
	"notifications.from",
	"notifications.topic_arn",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "log_level":
		return c.LogLevel, nil
	case "database.driver":
		return c.Database.Driver, nil
	case "database.path":
		return c.Database.Path, nil
	case "database.dsn":
		return c.Database.DSN, nil
	case "storage.root":
		return c.Storage.Root, nil
	case "storage.bucket":
		return c.Storage.Bucket, nil
	case "storage.public_url":
		return c.Storage.PublicURL, nil
	case "applications.link_job":
		return strconv.FormatBool(c.Applications.LinkJob), nil
	case "applications.max_cv_bytes":
		return strconv.FormatInt(c.Applications.MaxCVBytes, 10), nil
	case "applications.multipart_max_memory":
		return strconv.FormatInt(c.Applications.MultipartMaxMemory, 10), nil
	case "auth.session_ttl":
		return c.Auth.SessionTTL, nil
	case "auth.cookie_secure":
		return strconv.FormatBool(c.Auth.CookieSecure), nil
	case "redis.address":
		return c.Redis.Address, nil
	case "redis.password":
		if c.Redis.Password == "" {
			return "", nil
		}
		return "********", nil
	case "redis.db":
		return strconv.Itoa(c.Redis.DB), nil
	case "redis.channel":
		return c.Redis.Channel, nil
	case "notifications.region":
		return c.Notifications.Region, nil
	case "notifications.from":
		return c.Notifications.From, nil
	case "notifications.topic_arn":
		return c.Notifications.TopicARN, nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// ProjectPath returns the path to the project config file.
func ProjectPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, configFileName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads config from trusted files and applies env overrides.
func Load() (*Config, error) {
	cfg := Default()

	if overridePath, ok := overrideConfigPath(); ok {
		if err := loadFile(overridePath, &cfg); err != nil {
			return nil, err
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			if err := loadFile(filepath.Join(home, configFileName), &cfg); err != nil {
				return nil, err
			}
		}

		if trustProjectConfig() {
			if cwd, err := os.Getwd(); err == nil {
				projectPath := filepath.Join(cwd, configFileName)
				info, statErr := os.Stat(projectPath)
				switch {
				case statErr == nil && !info.IsDir():
					if err := loadFile(projectPath, &cfg); err != nil {
						return nil, err
					}
					cfg.TrustedProjectConfigPath = projectPath
				case statErr != nil && !os.IsNotExist(statErr):
					return nil, statErr
				}
			}
		}
	}

	applyEnv(&cfg)
	cfg.normalize()

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	str("JOBBOARD_API_URL", &cfg.APIURL)
	str("JOBBOARD_DB", &cfg.Database.Path)
	str("JOBBOARD_DB_DRIVER", &cfg.Database.Driver)
	str("JOBBOARD_DB_DSN", &cfg.Database.DSN)
	str("JOBBOARD_STORAGE_ROOT", &cfg.Storage.Root)
	str("JOBBOARD_STORAGE_PUBLIC_URL", &cfg.Storage.PublicURL)
	str("JOBBOARD_REDIS_ADDR", &cfg.Redis.Address)
	str("JOBBOARD_REDIS_PASSWORD", &cfg.Redis.Password)
	str("JOBBOARD_AWS_REGION", &cfg.Notifications.Region)
	str("JOBBOARD_SES_FROM", &cfg.Notifications.From)
	str("JOBBOARD_SNS_TOPIC_ARN", &cfg.Notifications.TopicARN)

	if raw := strings.TrimSpace(os.Getenv("JOBBOARD_LINK_JOB")); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			cfg.Applications.LinkJob = parsed
		}
	}
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "applications.max_cv_bytes", "applications.multipart_max_memory":
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "redis.db":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("%s must be a non-negative integer", key)
		}
		return parsed, nil
	case "applications.link_job", "auth.cookie_secure":
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be true or false", key)
		}
		return parsed, nil
	case "auth.session_ttl":
		if d, err := time.ParseDuration(value); err != nil || d <= 0 {
			return nil, fmt.Errorf("%s must be a positive duration", key)
		}
		return value, nil
	case "database.driver":
		if value != "sqlite" && value != "postgres" {
			return nil, fmt.Errorf("%s must be sqlite or postgres", key)
		}
		return value, nil
	default:
		return value, nil
	}
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}

func (c *Config) normalize() {
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
	if strings.TrimSpace(c.Database.Driver) == "" {
		c.Database.Driver = DefaultDBDriver
	}
	if c.Database.Path == "" {
		if cwd, err := os.Getwd(); err == nil {
			c.Database.Path = filepath.Join(cwd, DefaultDBFileName)
		}
	}
	if c.Storage.Root == "" && c.Database.Path != "" {
		c.Storage.Root = filepath.Join(filepath.Dir(c.Database.Path), ".jobboard", "objects")
	}
	if strings.TrimSpace(c.Storage.Bucket) == "" {
		c.Storage.Bucket = DefaultBucket
	}
	if c.Applications.MaxCVBytes <= 0 {
		c.Applications.MaxCVBytes = DefaultMaxCVBytes
	}
	if c.Applications.MultipartMaxMemory <= 0 {
		c.Applications.MultipartMaxMemory = DefaultMultipartMaxMemory
	}
	if strings.TrimSpace(c.Redis.Channel) == "" {
		c.Redis.Channel = DefaultRedisChan
	}
	if strings.TrimSpace(c.Notifications.Region) == "" {
		c.Notifications.Region = DefaultAWSRegion
	}
}
