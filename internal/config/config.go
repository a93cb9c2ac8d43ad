package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"outfit-studio/internal/domain/entities"
)

const (
	BackendGemini = "gemini"
	BackendVertex = "vertex"

	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Config struct {
	Backend  string
	APIKey   string
	Project  string
	Location string
	Model    string

	Port string

	SessionStore  string
	SessionTTL    time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MaxUploadBytes    int64
	GenerationTimeout time.Duration

	// 空なら CORS は無効（ページは同一オリジンから配信）
	AllowedOrigins []string
	LogLevel       slog.Level
}

func Default() *Config {
	return &Config{
		Backend:  BackendGemini,
		Location: "us-central1",
		Model:    entities.DefaultOutfitModel,

		Port: "8080",

		SessionStore: StoreMemory,
		SessionTTL:   time.Hour,
		RedisAddr:    "localhost:6379",

		MaxUploadBytes:    10 << 20,
		GenerationTimeout: 2 * time.Minute,

		LogLevel: slog.LevelInfo,
	}
}

// Load は CONFIG_FILE（任意）を読み込んだ後、環境変数で上書きする
func Load() (*Config, error) {
	c := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		file, err := parseFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := c.applyFile(file); err != nil {
			return nil, err
		}
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendGemini:
		if c.APIKey == "" {
			return errors.New("API_KEY (or GEMINI_API_KEY) is required for the gemini backend")
		}
	case BackendVertex:
		if c.Project == "" {
			return errors.New("PROJECT_ID (or GOOGLE_CLOUD_PROJECT) is required for the vertex backend")
		}
		if c.Location == "" {
			return errors.New("LOCATION is required for the vertex backend")
		}
	default:
		return fmt.Errorf("unknown AI backend %q", c.Backend)
	}

	switch c.SessionStore {
	case StoreMemory:
	case StoreRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis session store")
		}
	default:
		return fmt.Errorf("unknown session store %q", c.SessionStore)
	}

	if c.Port == "" {
		return errors.New("PORT must not be empty")
	}

	return nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

type configFile struct {
	Backend  string `yaml:"backend"`
	APIKey   string `yaml:"api_key"`
	Project  string `yaml:"project"`
	Location string `yaml:"location"`
	Model    string `yaml:"model"`

	Port string `yaml:"port"`

	Session struct {
		Store string `yaml:"store"`
		TTL   string `yaml:"ttl"`
	} `yaml:"session"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	MaxUploadBytes    int64  `yaml:"max_upload_bytes"`
	GenerationTimeout string `yaml:"generation_timeout"`

	AllowedOrigins []string `yaml:"allowed_origins"`
	LogLevel       string   `yaml:"log_level"`
}

func parseFile(path string) (*configFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	data = []byte(os.ExpandEnv(string(data)))

	var file configFile

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&file); err != nil {
		return nil, err
	}

	return &file, nil
}

func (c *Config) applyFile(f *configFile) error {
	setString(&c.Backend, f.Backend)
	setString(&c.APIKey, f.APIKey)
	setString(&c.Project, f.Project)
	setString(&c.Location, f.Location)
	setString(&c.Model, f.Model)
	setString(&c.Port, f.Port)
	setString(&c.SessionStore, f.Session.Store)
	setString(&c.RedisAddr, f.Redis.Addr)
	setString(&c.RedisPassword, f.Redis.Password)

	if f.Redis.DB != 0 {
		c.RedisDB = f.Redis.DB
	}
	if f.MaxUploadBytes != 0 {
		c.MaxUploadBytes = f.MaxUploadBytes
	}
	if len(f.AllowedOrigins) > 0 {
		c.AllowedOrigins = f.AllowedOrigins
	}

	if err := setDuration(&c.SessionTTL, "session.ttl", f.Session.TTL); err != nil {
		return err
	}
	if err := setDuration(&c.GenerationTimeout, "generation_timeout", f.GenerationTimeout); err != nil {
		return err
	}
	return setLevel(&c.LogLevel, f.LogLevel)
}

func (c *Config) applyEnv() error {
	setString(&c.Backend, strings.ToLower(os.Getenv("AI_BACKEND")))
	setString(&c.APIKey, firstEnv("API_KEY", "GEMINI_API_KEY"))
	setString(&c.Project, firstEnv("PROJECT_ID", "GOOGLE_CLOUD_PROJECT"))
	setString(&c.Location, os.Getenv("LOCATION"))
	setString(&c.Model, os.Getenv("OUTFIT_MODEL"))
	setString(&c.Port, os.Getenv("PORT"))
	setString(&c.SessionStore, strings.ToLower(os.Getenv("SESSION_STORE")))
	setString(&c.RedisAddr, os.Getenv("REDIS_ADDR"))
	setString(&c.RedisPassword, os.Getenv("REDIS_PASSWORD"))

	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		c.RedisDB = db
	}

	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid MAX_UPLOAD_BYTES %q", v)
		}
		c.MaxUploadBytes = n
	}

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitList(v)
	}

	if err := setDuration(&c.SessionTTL, "SESSION_TTL", os.Getenv("SESSION_TTL")); err != nil {
		return err
	}
	if err := setDuration(&c.GenerationTimeout, "GENERATION_TIMEOUT", os.Getenv("GENERATION_TIMEOUT")); err != nil {
		return err
	}
	return setLevel(&c.LogLevel, os.Getenv("LOG_LEVEL"))
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func setString(target *string, value string) {
	if value != "" {
		*target = value
	}
}

func setDuration(target *time.Duration, name, value string) error {
	if value == "" {
		return nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, value, err)
	}

	*target = d
	return nil
}

func setLevel(target *slog.Level, value string) error {
	if value == "" {
		return nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", value, err)
	}

	*target = level
	return nil
}

func splitList(value string) []string {
	var result []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}
