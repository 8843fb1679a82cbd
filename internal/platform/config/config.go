package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	id "registrar/pkg/domain"
)

// Backend names accepted by REGISTRAR_STORE.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Payout backends accepted by REGISTRAR_PAYOUT.
const (
	PayoutLedger = "ledger"
	PayoutKafka  = "kafka"
)

const devJWTSigningKey = "dev-secret-key-change-in-production"

// Server captures process level configuration.
type Server struct {
	Addr          string
	Environment   string
	LogLevel      string
	JWTSigningKey string
	JWTIssuer     string
	TokenTTL      time.Duration
	ShutdownGrace time.Duration

	Registry Registry
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// Registry holds the registry core settings.
type Registry struct {
	Admin             id.Identity
	InitialFee        decimal.Decimal
	Store             string
	SnapshotPath      string
	WithdrawRecipient id.Identity
	Payout            string
}

// PostgresConfig is used when Registry.Store is BackendPostgres.
type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig enables the controller lookup cache when URL is set.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// KafkaConfig is used when Registry.Payout is PayoutKafka.
type KafkaConfig struct {
	Brokers           []string
	PayoutTopic       string
	Partitions        int32
	ReplicationFactor int16
}

// FromEnv builds a Server config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present; variables
// already set in the environment win.
func FromEnv() (Server, error) {
	_ = godotenv.Load()

	cfg := Server{
		Addr:          getEnv("REGISTRAR_ADDR", ":8080"),
		Environment:   getEnv("REGISTRAR_ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		JWTSigningKey: getEnv("JWT_SIGNING_KEY", devJWTSigningKey),
		JWTIssuer:     getEnv("JWT_ISSUER", "registrar"),
		Registry: Registry{
			Store:        strings.ToLower(getEnv("REGISTRAR_STORE", BackendMemory)),
			SnapshotPath: os.Getenv("REGISTRAR_SNAPSHOT_PATH"),
			Payout:       strings.ToLower(getEnv("REGISTRAR_PAYOUT", PayoutLedger)),
		},
		Postgres: PostgresConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Kafka: KafkaConfig{
			Brokers:     splitList(os.Getenv("KAFKA_BROKERS")),
			PayoutTopic: getEnv("KAFKA_PAYOUT_TOPIC", "registrar.payouts"),
		},
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	var err error

	cfg.TokenTTL, err = getDuration("TOKEN_TTL", 24*time.Hour)
	collect(err)
	cfg.ShutdownGrace, err = getDuration("SHUTDOWN_GRACE", 10*time.Second)
	collect(err)

	cfg.Postgres.MaxOpenConns, err = getInt("DATABASE_MAX_OPEN_CONNS", 10)
	collect(err)
	cfg.Postgres.MaxIdleConns, err = getInt("DATABASE_MAX_IDLE_CONNS", 5)
	collect(err)
	cfg.Postgres.ConnMaxLifetime, err = getDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute)
	collect(err)

	cfg.Redis.PoolSize, err = getInt("REDIS_POOL_SIZE", 10)
	collect(err)
	cfg.Redis.MinIdleConns, err = getInt("REDIS_MIN_IDLE_CONNS", 2)
	collect(err)
	cfg.Redis.DialTimeout, err = getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
	collect(err)
	cfg.Redis.ReadTimeout, err = getDuration("REDIS_READ_TIMEOUT", 3*time.Second)
	collect(err)
	cfg.Redis.WriteTimeout, err = getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second)
	collect(err)
	cfg.Redis.CacheTTL, err = getDuration("REDIS_CACHE_TTL", time.Hour)
	collect(err)

	partitions, err := getInt("KAFKA_PAYOUT_PARTITIONS", 1)
	collect(err)
	cfg.Kafka.Partitions = int32(partitions)
	replication, err := getInt("KAFKA_PAYOUT_REPLICATION", 1)
	collect(err)
	cfg.Kafka.ReplicationFactor = int16(replication)

	if raw := os.Getenv("REGISTRAR_ADMIN_ADDRESS"); raw != "" {
		cfg.Registry.Admin, err = id.ParseIdentity(raw)
		collect(wrapVar("REGISTRAR_ADMIN_ADDRESS", err))
	}
	if raw := os.Getenv("REGISTRAR_WITHDRAW_RECIPIENT"); raw != "" {
		cfg.Registry.WithdrawRecipient, err = id.ParseIdentity(raw)
		collect(wrapVar("REGISTRAR_WITHDRAW_RECIPIENT", err))
	}
	cfg.Registry.InitialFee, err = decimal.NewFromString(getEnv("REGISTRAR_INITIAL_FEE", "1"))
	collect(wrapVar("REGISTRAR_INITIAL_FEE", err))

	if len(errs) > 0 {
		return Server{}, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate checks required values and cross-field constraints.
func (c Server) Validate() error {
	var errs []error
	if c.Registry.Admin == "" || c.Registry.Admin.IsZero() {
		errs = append(errs, errors.New("REGISTRAR_ADMIN_ADDRESS is required"))
	}
	if c.Registry.InitialFee.IsNegative() {
		errs = append(errs, errors.New("REGISTRAR_INITIAL_FEE must not be negative"))
	}
	switch c.Registry.Store {
	case BackendMemory:
	case BackendPostgres:
		if c.Postgres.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("REGISTRAR_STORE %q is not one of memory, postgres", c.Registry.Store))
	}
	switch c.Registry.Payout {
	case PayoutLedger:
	case PayoutKafka:
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required for the kafka payout"))
		}
	default:
		errs = append(errs, fmt.Errorf("REGISTRAR_PAYOUT %q is not one of ledger, kafka", c.Registry.Payout))
	}
	if c.IsProduction() && c.JWTSigningKey == devJWTSigningKey {
		errs = append(errs, errors.New("JWT_SIGNING_KEY must be set in production"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether REGISTRAR_ENV is "production".
func (c Server) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func wrapVar(key string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", key, err)
}
