package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// HTTP holds HTTP server configuration.
type HTTP struct {
	Host string
	Port int
}

// GRPC holds gRPC server configuration.
type GRPC struct {
	Enabled bool
	Host    string
	Port    int
}

// Cache configures caching behavior and backend selection.
type Cache struct {
	Enabled    bool
	Driver     string
	DefaultTTL time.Duration
	Redis      Redis
}

// Redis contains redis-specific connection settings.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Messaging configures the message bus used by the application.
type Messaging struct {
	Driver        string
	Enabled       bool
	Kafka         Kafka
	ConsumerGroup string
	Workers       Worker
}

// Kafka holds Kafka connection details.
type Kafka struct {
	Brokers        []string
	ClientID       string
	Topic          string
	CommitInterval time.Duration
	MinBytes       int
	MaxBytes       int
	ConnectTimeout time.Duration
}

// Worker configures the event worker pool.
type Worker struct {
	Enabled     bool
	Concurrency int
}

// Database holds primary and read replica connection settings.
type Database struct {
	Driver          string
	WriterDSN       string
	ReaderDSN       string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	// QueryTimeout bounds every repository statement; zero disables it.
	QueryTimeout time.Duration
	EnsureSchema bool
}

// Observability contains logging, tracing, and metrics configuration.
type Observability struct {
	ServiceName     string
	Environment     string
	LogLevel        string
	LogEncoding     string
	EnableTracing   bool
	TraceExporter   string
	TraceEndpoint   string
	TraceInsecure   bool
	EnableMetrics   bool
	MetricsExporter string
	PrometheusPath  string
}

// Config wraps all application configuration knobs.
type Config struct {
	HTTP          HTTP
	GRPC          GRPC
	Cache         Cache
	Messaging     Messaging
	Database      Database
	Observability Observability
}

// Module wires the configuration loader into the Fx graph.
var Module = fx.Provide(New)

var loadEnvOnce sync.Once

// New builds a Config from environment variables or defaults.
func New() (Config, error) {
	loadEnvOnce.Do(func() {
		_ = godotenv.Load()
	})

	cfg := Config{
		HTTP: HTTP{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnvAsInt("HTTP_PORT", 8080),
		},
		GRPC: GRPC{
			Enabled: getEnvAsBool("GRPC_ENABLED", false),
			Host:    getEnv("GRPC_HOST", "0.0.0.0"),
			Port:    getEnvAsInt("GRPC_PORT", 9090),
		},
		Cache: Cache{
			Enabled:    getEnvAsBool("CACHE_ENABLED", true),
			Driver:     getEnv("CACHE_DRIVER", "redis"),
			DefaultTTL: getEnvAsDuration("CACHE_DEFAULT_TTL", time.Minute*5),
			Redis: Redis{
				Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
				Password: getEnv("REDIS_PASSWORD", ""),
				DB:       getEnvAsInt("REDIS_DB", 0),
			},
		},
		Messaging: Messaging{
			Driver:  getEnv("MESSAGING_DRIVER", "kafka"),
			Enabled: getEnvAsBool("MESSAGING_ENABLED", true),
			Kafka: Kafka{
				Brokers:        getEnvAsStringSlice("KAFKA_BROKERS", []string{"127.0.0.1:9092"}),
				ClientID:       getEnv("KAFKA_CLIENT_ID", "logistics-service"),
				Topic:          getEnv("KAFKA_TOPIC", "logistics.events"),
				CommitInterval: getEnvAsDuration("KAFKA_COMMIT_INTERVAL", time.Second),
				MinBytes:       getEnvAsInt("KAFKA_MIN_BYTES", 10e3),
				MaxBytes:       getEnvAsInt("KAFKA_MAX_BYTES", 10e6),
				ConnectTimeout: getEnvAsDuration("KAFKA_CONNECT_TIMEOUT", 5*time.Second),
			},
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "logistics-worker"),
			Workers: Worker{
				Enabled:     getEnvAsBool("WORKER_ENABLED", true),
				Concurrency: getEnvAsInt("WORKER_CONCURRENCY", 4),
			},
		},
		Database: Database{
			Driver:          getEnv("DB_DRIVER", "mysql"),
			WriterDSN:       getEnv("DB_WRITER_DSN", "root:root@tcp(127.0.0.1:3306)/logistics_db?parseTime=true"),
			ReaderDSN:       getEnv("DB_READER_DSN", ""),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", time.Minute*5),
			QueryTimeout:    getEnvAsDuration("DB_QUERY_TIMEOUT", 5*time.Second),
			EnsureSchema:    getEnvAsBool("DB_ENSURE_SCHEMA", true),
		},
		Observability: Observability{
			ServiceName:     getEnv("OBS_SERVICE_NAME", "logistics"),
			Environment:     getEnv("OBS_ENVIRONMENT", "local"),
			LogLevel:        getEnv("OBS_LOG_LEVEL", "info"),
			LogEncoding:     getEnv("OBS_LOG_ENCODING", "json"),
			EnableTracing:   getEnvAsBool("OBS_ENABLE_TRACING", true),
			TraceExporter:   getEnv("OBS_TRACE_EXPORTER", "stdout"),
			TraceEndpoint:   getEnv("OBS_OTLP_ENDPOINT", "localhost:4317"),
			TraceInsecure:   getEnvAsBool("OBS_OTLP_INSECURE", true),
			EnableMetrics:   getEnvAsBool("OBS_ENABLE_METRICS", true),
			MetricsExporter: getEnv("OBS_METRICS_EXPORTER", "prometheus"),
			PrometheusPath:  getEnv("OBS_PROMETHEUS_PATH", "/metrics"),
		},
	}

	if err := cfg.normalise(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalise() error {
	if c.HTTP.Port <= 0 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	if c.GRPC.Enabled && c.GRPC.Port <= 0 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPC.Port)
	}
	c.Observability.normalise()
	if err := c.Cache.normalise(); err != nil {
		return err
	}
	if err := c.Messaging.normalise(); err != nil {
		return err
	}
	return c.Database.normalise()
}

func (c *Cache) normalise() error {
	if !c.Enabled {
		c.Driver = "noop"
	}
	switch c.Driver {
	case "noop":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("missing REDIS_ADDR for redis cache")
		}
	default:
		return fmt.Errorf("unsupported cache driver: %s", c.Driver)
	}
	if c.DefaultTTL < 0 {
		c.DefaultTTL = 5 * time.Minute
	}
	return nil
}

func (o *Observability) normalise() {
	o.LogLevel = lowerOr(o.LogLevel, "info")
	o.LogEncoding = lowerOr(o.LogEncoding, "json")
	o.TraceExporter = lowerOr(o.TraceExporter, "stdout")
	o.MetricsExporter = lowerOr(o.MetricsExporter, "prometheus")

	o.PrometheusPath = strings.TrimSpace(o.PrometheusPath)
	if o.PrometheusPath == "" {
		o.PrometheusPath = "/metrics"
	}
	if !strings.HasPrefix(o.PrometheusPath, "/") {
		o.PrometheusPath = "/" + o.PrometheusPath
	}
}

func (m *Messaging) normalise() error {
	if !m.Enabled {
		m.Driver = "noop"
	}
	switch m.Driver {
	case "noop":
	case "kafka":
		switch {
		case len(m.Kafka.Brokers) == 0:
			return fmt.Errorf("KAFKA_BROKERS must be provided")
		case m.Kafka.Topic == "":
			return fmt.Errorf("KAFKA_TOPIC must be provided")
		case m.ConsumerGroup == "":
			return fmt.Errorf("KAFKA_CONSUMER_GROUP must be provided")
		}
	default:
		return fmt.Errorf("unsupported messaging driver: %s", m.Driver)
	}
	m.Workers.Concurrency = max(m.Workers.Concurrency, 1)
	return nil
}

var driverAliases = map[string]string{
	"mysql":    "mysql",
	"postgres": "postgres",
	"pg":       "postgres",
	"sqlite":   "sqlite",
	"sqlite3":  "sqlite",
}

func (d *Database) normalise() error {
	driver, ok := driverAliases[strings.ToLower(strings.TrimSpace(d.Driver))]
	if !ok {
		return fmt.Errorf("unsupported database driver: %s", d.Driver)
	}
	d.Driver = driver
	if d.WriterDSN == "" {
		return fmt.Errorf("missing DB_WRITER_DSN")
	}
	if d.ReaderDSN == "" {
		d.ReaderDSN = d.WriterDSN
	}
	d.QueryTimeout = max(d.QueryTimeout, 0)
	return nil
}

func lowerOr(v, fallback string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return fallback
	}
	return v
}
