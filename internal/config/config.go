package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

const (
	minCodeLength = 6
	maxCodeLength = 64
)

type Config struct {
	Env        string `yaml:"env"`
	HTTPServer `yaml:"http_server"`
	Log        `yaml:"log"`
	Storage    `yaml:"storage"`
	Postgres   `yaml:"postgres"`
	SQLite     `yaml:"sqlite"`
	Redis      `yaml:"redis"`
	Auth       `yaml:"auth"`
	Shortener  `yaml:"shortener"`
	Visits     `yaml:"visits"`
}

type HTTPServer struct {
	Port           int           `yaml:"port"`
	BaseURL        string        `yaml:"base_url"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	CertFile       string        `yaml:"cert_file"`
	KeyFile        string        `yaml:"key_file"`
}

var defaultHTTPServer = HTTPServer{
	Port:           8080,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   10 * time.Second,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

var defaultLog = Log{
	Level: "info",
}

// SlogLevel parses Level, falling back to info.
func (l *Log) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

type Storage struct {
	Driver string `yaml:"driver"`
}

type Postgres struct {
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DB              string        `yaml:"db"`
	SSLMode         string        `yaml:"sslmode"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnectAttempts int           `yaml:"connect_attempts"`
	ConnectDelay    time.Duration `yaml:"connect_delay"`
}

var defaultPostgres = Postgres{
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
	ConnectAttempts: 1,
	ConnectDelay:    time.Second,
}

func (p *Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

type SQLite struct {
	Path        string        `yaml:"path"`
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

var defaultSQLite = SQLite{
	Path:        "shortlinks.db",
	BusyTimeout: 5 * time.Second,
}

// Redis configures the optional cache in front of the store.
type Redis struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
	Prefix   string        `yaml:"prefix"`
}

var defaultRedis = Redis{
	Addr:   "localhost:6379",
	TTL:    time.Hour,
	Prefix: "shortlinks:url:",
}

type Auth struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type Shortener struct {
	CodeLength int `yaml:"code_length"`
	MaxRetries int `yaml:"max_retries"`
}

var defaultShortener = Shortener{
	CodeLength: 6,
	MaxRetries: 10,
}

type Visits struct {
	Strict  bool          `yaml:"strict"`
	Timeout time.Duration `yaml:"timeout"`
}

var defaultVisits = Visits{
	Timeout: 2 * time.Second,
}

// Load reads the YAML file at path on top of the defaults.
// ${VAR} references are expanded from the environment before decoding.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read config file: %w", op, err)
	}

	var cfg Config
	setDefaults(&cfg)

	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.HTTPServer = defaultHTTPServer
	cfg.Log = defaultLog
	cfg.Storage = Storage{Driver: DriverPostgres}
	cfg.Postgres = defaultPostgres
	cfg.SQLite = defaultSQLite
	cfg.Redis = defaultRedis
	cfg.Shortener = defaultShortener
	cfg.Visits = defaultVisits
}

// Validate reports every invalid setting at once.
func (cfg *Config) Validate() error {
	var errs []error

	switch cfg.Env {
	case EnvDev, EnvStage, EnvProd:
	default:
		errs = append(errs, fmt.Errorf("unknown env %q", cfg.Env))
	}

	switch cfg.Storage.Driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver))
	}

	if cfg.Shortener.CodeLength < minCodeLength || cfg.Shortener.CodeLength > maxCodeLength {
		errs = append(errs, fmt.Errorf("shortener.code_length must be between %d and %d", minCodeLength, maxCodeLength))
	}
	if cfg.Shortener.MaxRetries < 1 {
		errs = append(errs, errors.New("shortener.max_retries must be positive"))
	}
	if cfg.Visits.Timeout <= 0 {
		errs = append(errs, errors.New("visits.timeout must be positive"))
	}
	if cfg.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if cfg.Redis.Enabled && cfg.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required when redis is enabled"))
	}

	return errors.Join(errs...)
}
