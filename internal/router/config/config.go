package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config - структура для хранения конфигураций приложения
type Config struct {
	ServerAddress  string        `mapstructure:"SERVER_ADDRESS"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	Storage      string `mapstructure:"STORAGE"`
	PostgresConn string `mapstructure:"POSTGRES_CONN"`
	PostgresUser string `mapstructure:"POSTGRES_USERNAME"`
	PostgresPass string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresHost string `mapstructure:"POSTGRES_HOST"`
	PostgresPort string `mapstructure:"POSTGRES_PORT"`
	PostgresDB   string `mapstructure:"POSTGRES_DATABASE"`
	MigrationURL string `mapstructure:"MIGRATION_URL"`

	FeeRate        string `mapstructure:"FEE_RATE"`
	MinClosingDays int    `mapstructure:"MIN_CLOSING_DAYS"`
	Timezone       string `mapstructure:"TIMEZONE"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	JWTTTL    time.Duration `mapstructure:"JWT_TTL"`

	NotifyWorkers   int    `mapstructure:"NOTIFY_WORKERS"`
	NotifyQueueSize int    `mapstructure:"NOTIFY_QUEUE_SIZE"`
	Notifier        string `mapstructure:"NOTIFIER"`
	KafkaBrokers    string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic      string `mapstructure:"KAFKA_TOPIC"`
}

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	NotifierLog   = "log"
	NotifierKafka = "kafka"
)

var defaults = map[string]any{
	"SERVER_ADDRESS":    "0.0.0.0:8080",
	"REQUEST_TIMEOUT":   "5s",
	"STORAGE":           StoragePostgres,
	"POSTGRES_CONN":     "",
	"POSTGRES_USERNAME": "",
	"POSTGRES_PASSWORD": "",
	"POSTGRES_HOST":     "",
	"POSTGRES_PORT":     "5432",
	"POSTGRES_DATABASE": "",
	"MIGRATION_URL":     "file://internal/db/migrations",
	"FEE_RATE":          "0.10",
	"MIN_CLOSING_DAYS":  3,
	"TIMEZONE":          "America/Sao_Paulo",
	"JWT_SECRET":        "",
	"JWT_TTL":           "24h",
	"NOTIFY_WORKERS":    4,
	"NOTIFY_QUEUE_SIZE": 256,
	"NOTIFIER":          NotifierLog,
	"KAFKA_BROKERS":     "",
	"KAFKA_TOPIC":       "auction-notifications",
}

// LoadConfig загружает конфигурацию из файла app.env в каталоге path.
// Переменные окружения имеют приоритет над файлом, файл необязателен.
func LoadConfig(path string) (cfg Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}
	if err = v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate проверяет значения, без которых сервис не запустится.
func (c Config) Validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.PostgresConn == "" {
			return errors.New("POSTGRES_CONN is required for postgres storage")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE %q", c.Storage)
	}

	switch c.Notifier {
	case NotifierLog:
	case NotifierKafka:
		if len(c.Brokers()) == 0 {
			return errors.New("KAFKA_BROKERS is required for kafka notifier")
		}
	default:
		return fmt.Errorf("unknown NOTIFIER %q", c.Notifier)
	}

	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.MinClosingDays < 0 {
		return errors.New("MIN_CLOSING_DAYS must not be negative")
	}
	if c.NotifyWorkers <= 0 || c.NotifyQueueSize <= 0 {
		return errors.New("NOTIFY_WORKERS and NOTIFY_QUEUE_SIZE must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	return nil
}

// Brokers возвращает список брокеров Kafka из строки через запятую.
func (c Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
