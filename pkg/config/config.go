package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Storage configuration struct.
type StorageConfiguration struct {
	Prefix     string        `env:"STORAGE_PREFIX" envDefault:"agendasmart:" validate:"required"`
	LocalPath  string        `env:"STORAGE_LOCAL_PATH" envDefault:"./data/local"`
	InMemory   bool          `env:"STORAGE_IN_MEMORY" envDefault:"false"`
	BackupTTL  time.Duration `env:"STORAGE_BACKUP_TTL" envDefault:"168h" validate:"gt=0"`
	RetryDelay time.Duration `env:"STORAGE_RETRY_DELAY" envDefault:"2s" validate:"gt=0"`
}

// Remote table configuration.
type RemoteConfiguration struct {
	Backend    string        `env:"REMOTE_BACKEND" envDefault:"postgres" validate:"oneof=postgres redis sqlite none"`
	SqlitePath string        `env:"REMOTE_SQLITE_PATH" envDefault:"./data/remote.db"`
	Timeout    time.Duration `env:"REMOTE_TIMEOUT" envDefault:"5s" validate:"gt=0"`
}

type DatabaseConfiguration struct {
	DSN            string `env:"POSTGRES_DSN"`
	Database       string `env:"POSTGRES_DB" envDefault:"agendasmart"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"./migrations"`
}

// Redis configuration struct.
type RedisConfiguration struct {
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     string `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
}

// Bucket used for the log upload and the routine snapshots.
type BucketConfiguration struct {
	Endpoint       string `env:"BUCKET_ENDPOINT"`
	Region         string `env:"BUCKET_REGION" envDefault:"auto"`
	AccessKey      string `env:"BUCKET_ACCESS_KEY"`
	AccessSecret   string `env:"BUCKET_ACCESS_SECRET"`
	LogBucket      string `env:"BUCKET_LOG_NAME"`
	SnapshotBucket string `env:"BUCKET_SNAPSHOT_NAME"`
}

type ServerConfiguration struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	GRPCAddr string `env:"GRPC_ADDR" envDefault:":50051"`
	// GRPCTarget is dialed by the scheduler and kvctl.
	GRPCTarget string `env:"GRPC_TARGET" envDefault:"localhost:50051"`
}

type Config struct {
	Storage  StorageConfiguration
	Remote   RemoteConfiguration
	Database DatabaseConfiguration
	Redis    RedisConfiguration
	Bucket   BucketConfiguration
	Server   ServerConfiguration
}

// Enabled reports whether enough bucket information was given to create a client.
func (b BucketConfiguration) Enabled() bool {
	return b.Endpoint != "" && b.AccessKey != "" && b.AccessSecret != ""
}

// Load the variables.
// The .env file is only required outside of docker.
func Load() (*Config, error) {
	if os.Getenv("ENVIRONMENT") != "docker" {
		// A missing .env is fine, the variables can come from the shell.
		_ = godotenv.Load()
	}

	return Parse()
}

// Parse builds the configuration from the current environment without touching .env files.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Remote.Backend == "postgres" && cfg.Database.DSN == "" {
		return nil, fmt.Errorf("invalid configuration: POSTGRES_DSN is required for the postgres backend")
	}

	return cfg, nil
}
