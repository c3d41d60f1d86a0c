package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/yourusername/questionbank-api/internal/pkg/logger"
)

// Драйверы хранилища вопросов
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config хранит все настройки приложения
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Store     StoreConfig     `mapstructure:"store"`
	Search    SearchConfig    `mapstructure:"search"`
	Taxonomy  TaxonomyConfig  `mapstructure:"taxonomy"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       logger.Config   `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	ReadTimeout    int      `mapstructure:"read_timeout"`  // секунды
	WriteTimeout   int      `mapstructure:"write_timeout"` // секунды
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`

	// ConnectAttempts: число попыток подключения при старте
	ConnectAttempts uint `mapstructure:"connect_attempts"`
	// MigrationsPath: источник миграций golang-migrate
	MigrationsPath string `mapstructure:"migrations_path"`
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт)
	Addrs []string `mapstructure:"addrs"`

	// Addr: Альтернативный адрес для режима 'single'
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"` // миллисекунды
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"` // миллисекунды
}

// Configured возвращает true, если задан хотя бы один адрес Redis
func (r RedisConfig) Configured() bool {
	return len(r.Addrs) > 0 || r.Addr != ""
}

// StoreConfig выбирает реализацию хранилища вопросов
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	// FixturePath: JSON-файл с начальными данными для драйвера memory
	FixturePath string `mapstructure:"fixture_path"`
}

// SearchConfig содержит ограничения поиска и случайной выборки
type SearchConfig struct {
	DefaultReturnLength int `mapstructure:"default_return_length"`
	MaxReturnLength     int `mapstructure:"max_return_length"`
	DefaultMinYear      int `mapstructure:"default_min_year"`
	// DefaultMaxYear: 0 означает текущий год
	DefaultMaxYear int `mapstructure:"default_max_year"`
}

// MaxYear возвращает верхнюю границу года по умолчанию
func (s SearchConfig) MaxYear(now time.Time) int {
	if s.DefaultMaxYear > 0 {
		return s.DefaultMaxYear
	}
	return now.Year()
}

// TaxonomyConfig указывает на YAML-файл таксономии. Пустой путь: встроенная таксономия.
type TaxonomyConfig struct {
	Path string `mapstructure:"path"`
}

// AuthConfig содержит настройки проверки токенов модераторов
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// RateLimitConfig содержит настройки ограничения частоты запросов
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.read_timeout", 15)
	vip.SetDefault("server.write_timeout", 30)
	vip.SetDefault("server.allowed_origins", []string{"*"})

	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.connect_attempts", 5)
	vip.SetDefault("database.migrations_path", "file://migrations")

	vip.SetDefault("redis.mode", "single")

	vip.SetDefault("store.driver", StoreDriverPostgres)

	vip.SetDefault("search.default_return_length", 25)
	vip.SetDefault("search.max_return_length", 10000)
	vip.SetDefault("search.default_min_year", 2010)
	vip.SetDefault("search.default_max_year", 0)

	vip.SetDefault("log.level", "info")

	vip.SetDefault("rate_limit.requests", 120)
	vip.SetDefault("rate_limit.window", time.Minute)
}

func bindEnv(vip *viper.Viper) {
	// Привязка для секции Database
	_ = vip.BindEnv("database.host", "DATABASE_HOST")
	_ = vip.BindEnv("database.port", "DATABASE_PORT")
	_ = vip.BindEnv("database.user", "DATABASE_USER")
	_ = vip.BindEnv("database.password", "DATABASE_PASSWORD")
	_ = vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	_ = vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")
	_ = vip.BindEnv("database.migrations_path", "DATABASE_MIGRATIONS_PATH")

	// Привязка для секции Redis
	_ = vip.BindEnv("redis.mode", "REDIS_MODE")
	_ = vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	_ = vip.BindEnv("redis.addr", "REDIS_ADDR")
	_ = vip.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = vip.BindEnv("redis.db", "REDIS_DB")
	_ = vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	_ = vip.BindEnv("server.port", "SERVER_PORT")
	_ = vip.BindEnv("store.driver", "STORE_DRIVER")
	_ = vip.BindEnv("store.fixture_path", "STORE_FIXTURE_PATH")
	_ = vip.BindEnv("taxonomy.path", "TAXONOMY_PATH")
	_ = vip.BindEnv("auth.jwt_secret", "AUTH_JWT_SECRET")
	_ = vip.BindEnv("log.level", "LOG_LEVEL")
	_ = vip.BindEnv("log.development", "LOG_DEVELOPMENT")
	_ = vip.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
}

// Load загружает конфигурацию из файла и переменных окружения.
// Файл необязателен: при его отсутствии используются переменные окружения и значения по умолчанию.
func Load(configPath string) (*Config, error) {
	vip := viper.New()
	setDefaults(vip)
	bindEnv(vip)

	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config %q: %w", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// REDIS_ADDRS передается как строка через запятую
	if len(cfg.Redis.Addrs) == 1 && strings.Contains(cfg.Redis.Addrs[0], ",") {
		cfg.Redis.Addrs = strings.Split(cfg.Redis.Addrs[0], ",")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет конфигурацию и возвращает все найденные ошибки разом
func (c *Config) Validate() error {
	var result *multierror.Error

	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
			result = multierror.Append(result, errors.New("database configuration (host, dbname, user) is incomplete (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)"))
		}
	case StoreDriverMemory:
	default:
		result = multierror.Append(result, fmt.Errorf("unsupported store driver %q", c.Store.Driver))
	}

	if c.Auth.JWTSecret == "" {
		result = multierror.Append(result, errors.New("auth.jwt_secret is required (check AUTH_JWT_SECRET env var)"))
	}

	if c.Search.MaxReturnLength <= 0 {
		result = multierror.Append(result, errors.New("search.max_return_length must be positive"))
	}
	if c.Search.DefaultReturnLength <= 0 || c.Search.DefaultReturnLength > c.Search.MaxReturnLength {
		result = multierror.Append(result, errors.New("search.default_return_length must be in (0, max_return_length]"))
	}
	if c.Search.DefaultMaxYear > 0 && c.Search.DefaultMinYear > c.Search.DefaultMaxYear {
		result = multierror.Append(result, errors.New("search.default_min_year must not exceed default_max_year"))
	}

	if c.RateLimit.Enabled {
		if !c.Redis.Configured() {
			result = multierror.Append(result, errors.New("rate_limit requires redis.addr or redis.addrs"))
		}
		if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
			result = multierror.Append(result, errors.New("rate_limit.requests and rate_limit.window must be positive"))
		}
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		result = multierror.Append(result, fmt.Errorf("invalid log.level: %w", err))
	}

	return result.ErrorOrNil()
}
