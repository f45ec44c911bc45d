package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"secretariat_import/internal/config/connections/mongo"
	"secretariat_import/internal/config/connections/postgres"
	"secretariat_import/internal/config/connections/s3"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	LogLevel  string
	LogFormat string

	// AuthTokenableType is the owner type admin tokens carry in
	// personal_access_tokens.
	AuthTokenableType string

	ImportBatchSize int
	ImportTimeout   time.Duration

	S3Info       s3.ConnectionInfo
	MongoInfo    mongo.ConnectionInfo
	PostgresInfo postgres.ConnectionInfo

	S3       *s3.S3
	Mongo    *mongo.Mongo
	Postgres *postgres.Postgres
}

// Load reads .env (if present) and the process environment. It opens no
// connection.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:      getenv("SERVER_PORT", "8070"),
		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),

		AuthTokenableType: getenv("AUTH_TOKENABLE_TYPE", "admin_users"),

		ImportBatchSize: getenvInt("IMPORT_BATCH_SIZE", 1000),
		ImportTimeout:   time.Duration(getenvInt("IMPORT_TIMEOUT_MINUTES", 15)) * time.Minute,

		S3Info: s3.ConnectionInfo{
			Endpoint:  getenv("AWS_ENDPOINT", "localhost:9000"),
			AccessKey: getenv("AWS_ACCESS_KEY_ID", "minioadmin"),
			SecretKey: getenv("AWS_SECRET_ACCESS_KEY", "minioadmin"),
			Region:    getenv("AWS_DEFAULT_REGION", "eu-west-1"),
			Bucket:    getenv("AWS_BUCKET", "imports"),
			UseSSL:    getenv("AWS_USE_SSL", "false") == "true",
		},
		MongoInfo: mongo.ConnectionInfo{
			Scheme:     getenv("MONGO_SCHEME", "mongodb"),
			User:       getenv("MONGO_USER", "root"),
			Password:   getenv("MONGO_PASSWORD", "secret"),
			Host:       getenv("MONGO_HOST", "127.0.0.1"),
			Port:       getenv("MONGO_PORT", "27017"),
			DB:         getenv("MONGO_DB", "import_db"),
			AuthSource: getenv("MONGO_AUTH_SOURCE", "admin"),
		},
		PostgresInfo: postgres.ConnectionInfo{
			Host:     getenv("PG_HOST", "127.0.0.1"),
			Port:     getenv("PG_PORT", "5432"),
			User:     getenv("PG_USER", "root"),
			Password: getenv("PG_PASSWORD", "hello-world"),
			DB:       getenv("PG_DB", "secretariat"),
			SSLMode:  getenv("PG_SSLMODE", "disable"),
		},
	}
}

// Connect opens S3, Mongo and Postgres. On error the connections opened so
// far stay set so Close can release them.
func (c *Config) Connect(ctx context.Context) error {
	s3c, err := s3.NewConnection(c.S3Info)
	if err != nil {
		return fmt.Errorf("s3 connect: %w", err)
	}
	c.S3 = s3c

	mg, err := mongo.NewConnection(ctx, c.MongoInfo)
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	c.Mongo = mg

	pg, err := postgres.NewConnection(ctx, c.PostgresInfo)
	if err != nil {
		return fmt.Errorf("postgres connect: %w", err)
	}
	c.Postgres = pg

	return nil
}

func (c *Config) CheckConnections(ctx context.Context) error {
	var errs []error

	if c.Postgres == nil || c.Postgres.Pool == nil {
		errs = append(errs, errors.New("postgres not initialized"))
	} else if err := c.Postgres.Pool.Ping(ctx); err != nil {
		errs = append(errs, fmt.Errorf("postgres ping failed: %w", err))
	}

	if c.Mongo == nil || c.Mongo.Client == nil {
		errs = append(errs, errors.New("mongo not initialized"))
	} else if err := c.Mongo.Client.Ping(ctx, nil); err != nil {
		errs = append(errs, fmt.Errorf("mongo ping failed: %w", err))
	}

	if c.S3 == nil || c.S3.Client == nil {
		errs = append(errs, errors.New("s3 not initialized"))
	} else if err := c.S3.EnsureBucket(ctx); err != nil {
		errs = append(errs, fmt.Errorf("s3 bucket check failed: %w", err))
	}

	return errors.Join(errs...)
}

func (c *Config) Close(ctx context.Context) {
	if c.Postgres != nil {
		c.Postgres.Close()
	}
	if c.Mongo != nil {
		_ = c.Mongo.Close(ctx)
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	v, err := strconv.Atoi(os.Getenv(k))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
