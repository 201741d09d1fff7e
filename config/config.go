package config

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"gopkg.in/yaml.v3"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	BackplaneRedis = "redis"
	BackplaneLocal = "local"

	BlobDriverPostgres = "postgres"
	BlobDriverDisk     = "disk"

	TopicOrderEvents = "order-events"
	TopicScanEvents  = "scan-events"

	StatsConsumerGroup = "agg-svc-consumer"
)

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type Config struct {
	HTTPAddr     string         `yaml:"http_addr"`
	StatsAddr    string         `yaml:"stats_addr"`
	PublicOrigin string         `yaml:"public_origin"`
	JWTSecret    string         `yaml:"jwt_secret"`
	StoreDriver  string         `yaml:"store_driver"`
	Backplane    string         `yaml:"backplane"`
	BlobDriver   string         `yaml:"blob_driver"`
	UploadDir    string         `yaml:"upload_dir"`
	KafkaBroker  string         `yaml:"kafka_broker"`
	Database     DatabaseConfig `yaml:"database"`
	Redis        RedisConfig    `yaml:"redis"`
}

// DevJWTSecret is the default signing secret. It is accepted only with the
// memory store driver.
const DevJWTSecret = "changeme"

// Load builds the configuration from, in increasing priority: defaults, the YAML
// file named by CONFIG_FILE, a .env file in the working directory, and the
// process environment.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:     ":8080",
		StatsAddr:    ":8082",
		PublicOrigin: "http://localhost:3000",
		JWTSecret:    DevJWTSecret,
		StoreDriver:  StoreDriverPostgres,
		Backplane:    BackplaneRedis,
		BlobDriver:   BlobDriverPostgres,
		UploadDir:    "./uploads",
		Database:     DatabaseConfig{Host: "localhost", Port: "5432", Name: "qrmenu", User: "postgres"},
		Redis:        RedisConfig{Host: "localhost", Port: "6379"},
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: ignoring .env: %v", err)
	}

	overrideFromEnv(&cfg.HTTPAddr, "HTTP_ADDR")
	overrideFromEnv(&cfg.StatsAddr, "STATS_ADDR")
	overrideFromEnv(&cfg.PublicOrigin, "PUBLIC_ORIGIN")
	overrideFromEnv(&cfg.JWTSecret, "JWT_SECRET")
	overrideFromEnv(&cfg.StoreDriver, "STORE_DRIVER")
	overrideFromEnv(&cfg.Backplane, "BACKPLANE")
	overrideFromEnv(&cfg.BlobDriver, "BLOB_DRIVER")
	overrideFromEnv(&cfg.UploadDir, "UPLOAD_DIR")
	overrideFromEnv(&cfg.KafkaBroker, "KAFKA_BROKER")
	overrideFromEnv(&cfg.Database.Host, "DB_HOST")
	overrideFromEnv(&cfg.Database.Port, "DB_PORT")
	overrideFromEnv(&cfg.Database.Name, "DB_NAME")
	overrideFromEnv(&cfg.Database.User, "DB_USER")
	overrideFromEnv(&cfg.Database.Password, "DB_PASSWORD")
	overrideFromEnv(&cfg.Redis.Host, "REDIS_HOST")
	overrideFromEnv(&cfg.Redis.Port, "REDIS_PORT")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	switch c.Backplane {
	case BackplaneRedis, BackplaneLocal:
	default:
		return fmt.Errorf("unknown backplane %q", c.Backplane)
	}
	switch c.BlobDriver {
	case BlobDriverPostgres, BlobDriverDisk:
	default:
		return fmt.Errorf("unknown blob driver %q", c.BlobDriver)
	}
	if c.StoreDriver == StoreDriverMemory && c.BlobDriver == BlobDriverPostgres {
		return fmt.Errorf("blob driver %q requires the postgres store driver", c.BlobDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt secret cannot be empty")
	}
	if c.JWTSecret == DevJWTSecret && c.StoreDriver != StoreDriverMemory {
		return fmt.Errorf("jwt secret must be set with JWT_SECRET when using the %s store driver", c.StoreDriver)
	}
	return nil
}

func (c DatabaseConfig) DSN() string {
	return "host=" + c.Host + " port=" + c.Port + " user=" + c.User +
		" password=" + c.Password + " dbname=" + c.Name + " sslmode=disable"
}

func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func overrideFromEnv(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func MustInitPostgres(cfg DatabaseConfig) *sql.DB {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err = db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	return db
}

func MustInitRedis(cfg RedisConfig) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr(),
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	return client
}

func NewKafkaReader(broker, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{broker},
		Topic:   topic,
		GroupID: groupID,
	})
}

func NewKafkaWriter(broker, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}
