package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is loaded once at process start and handed to each component.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	Templates TemplatesConfig `yaml:"templates"`
	Redis     RedisConfig     `yaml:"redis"`
	AMQP      AMQPConfig      `yaml:"amqp"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Address             string `yaml:"address"`
	BaseURL             string `yaml:"base_url"` // externally reachable, used in tracking links
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
}

type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type SMTPConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	From           string `yaml:"from"`
	StartTLS       bool   `yaml:"starttls"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type TemplatesConfig struct {
	Dir string `yaml:"dir"` // empty means the embedded catalog
}

type RedisConfig struct {
	Address    string `yaml:"address"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

type AMQPConfig struct {
	URL   string `yaml:"url"`
	Queue string `yaml:"queue"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

func (s SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s SMTPConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

func (r RedisConfig) Enabled() bool { return r.Address != "" }

func (r RedisConfig) TTL() time.Duration {
	return time.Duration(r.TTLSeconds) * time.Second
}

func (a AMQPConfig) Enabled() bool { return a.URL != "" }

// Option relaxes or tightens what Load requires for one binary.
type Option func(*requirements)

type requirements struct {
	database bool
	amqp     bool
}

// WithoutDatabase is for binaries that never open the store.
func WithoutDatabase() Option {
	return func(r *requirements) { r.database = false }
}

// WithAMQP makes AMQP_URL required.
func WithAMQP() Option {
	return func(r *requirements) { r.amqp = true }
}

func newRequirements(opts []Option) requirements {
	r := requirements{database: true}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Load reads an optional YAML file, applies defaults, then lets environment
// variables override individual keys. An empty path skips the file.
func Load(path string, opts ...Option) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyDefaults(&cfg)

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(opts...); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadAll loads the file named by CONFIG_FILE, if any.
func LoadAll(opts ...Option) (*Config, error) {
	return Load(os.Getenv("CONFIG_FILE"), opts...)
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":5000"
	}
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = "http://127.0.0.1:5000"
	}
	if cfg.Server.ReadTimeoutSeconds == 0 {
		cfg.Server.ReadTimeoutSeconds = 15
	}
	if cfg.Server.WriteTimeoutSeconds == 0 {
		cfg.Server.WriteTimeoutSeconds = 120
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.SMTP.Host == "" {
		cfg.SMTP.Host = "localhost"
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 1025
	}
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = "Security Team <noreply@yourcompany.com>"
	}
	if cfg.SMTP.TimeoutSeconds == 0 {
		cfg.SMTP.TimeoutSeconds = 10
	}
	if cfg.Redis.TTLSeconds == 0 {
		cfg.Redis.TTLSeconds = 86400
	}
	if cfg.AMQP.Queue == "" {
		cfg.AMQP.Queue = "tracking_events"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func applyEnv(cfg *Config) error {
	var errs []error

	setString(&cfg.Server.Address, "SERVER_ADDRESS")
	setString(&cfg.Server.BaseURL, "APP_BASE_URL")
	errs = append(errs, setInt(&cfg.Server.ReadTimeoutSeconds, "SERVER_READ_TIMEOUT_SECONDS"))
	errs = append(errs, setInt(&cfg.Server.WriteTimeoutSeconds, "SERVER_WRITE_TIMEOUT_SECONDS"))

	setString(&cfg.Database.URL, "DATABASE_URL")
	errs = append(errs, setInt(&cfg.Database.MaxOpenConns, "DB_MAX_OPEN_CONNS"))
	errs = append(errs, setInt(&cfg.Database.MaxIdleConns, "DB_MAX_IDLE_CONNS"))

	setString(&cfg.SMTP.Host, "SMTP_HOST")
	errs = append(errs, setInt(&cfg.SMTP.Port, "SMTP_PORT"))
	setString(&cfg.SMTP.Username, "SMTP_USERNAME")
	setString(&cfg.SMTP.Password, "SMTP_PASSWORD")
	setString(&cfg.SMTP.From, "SMTP_FROM")
	errs = append(errs, setBool(&cfg.SMTP.StartTLS, "SMTP_STARTTLS"))
	errs = append(errs, setInt(&cfg.SMTP.TimeoutSeconds, "SMTP_TIMEOUT_SECONDS"))

	setString(&cfg.Templates.Dir, "TEMPLATES_DIR")

	setString(&cfg.Redis.Address, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	errs = append(errs, setInt(&cfg.Redis.DB, "REDIS_DB"))
	errs = append(errs, setInt(&cfg.Redis.TTLSeconds, "REPORT_TTL_SECONDS"))

	setString(&cfg.AMQP.URL, "AMQP_URL")
	setString(&cfg.AMQP.Queue, "AMQP_QUEUE")

	setString(&cfg.Log.Level, "LOG_LEVEL")
	errs = append(errs, setBool(&cfg.Log.Pretty, "LOG_PRETTY"))

	return errors.Join(errs...)
}

// Validate reports every invalid key at once.
func (c *Config) Validate(opts ...Option) error {
	req := newRequirements(opts)
	var errs []error

	if req.database && c.Database.URL == "" {
		errs = append(errs, errors.New("missing required env var: DATABASE_URL"))
	}
	if req.amqp && c.AMQP.URL == "" {
		errs = append(errs, errors.New("missing required env var: AMQP_URL"))
	}
	if u, err := url.Parse(c.Server.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("APP_BASE_URL must be an absolute URL, got %q", c.Server.BaseURL))
	}
	if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("SMTP_PORT out of range: %d", c.SMTP.Port))
	}
	if c.SMTP.TimeoutSeconds <= 0 {
		errs = append(errs, errors.New("SMTP_TIMEOUT_SECONDS must be > 0"))
	}
	if c.Redis.TTLSeconds <= 0 {
		errs = append(errs, errors.New("REPORT_TTL_SECONDS must be > 0"))
	}
	if req.database && c.Database.MaxOpenConns <= 0 {
		errs = append(errs, errors.New("DB_MAX_OPEN_CONNS must be > 0"))
	}

	return errors.Join(errs...)
}

// TrimmedBaseURL is BaseURL without a trailing slash.
func (s ServerConfig) TrimmedBaseURL() string {
	return strings.TrimRight(s.BaseURL, "/")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid int for env %s: %s", key, v)
	}
	*dst = i
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid bool for env %s: %s", key, v)
	}
	*dst = b
	return nil
}
