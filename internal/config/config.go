package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"hipaa-compliance/internal/catalog"
	"hipaa-compliance/internal/evidence"
	"hipaa-compliance/internal/ratelimit"
	"hipaa-compliance/internal/storage"
)

type Config struct {
	DBDSN         string
	ServerPort    string
	SessionSecret string
	LogLevel      slog.Level

	CatalogPath     string
	ConditionPolicy catalog.ConditionPolicy

	Storage        storage.Config
	UploadMaxBytes int64
	UploadRate     ratelimit.Policy

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AdminUsername string
	AdminPassword string
}

// Load reads the environment, after merging a .env file when one exists.
// Only malformed values are errors here; what a command needs is checked by
// RequireDB and RequireSession.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBDSN:         os.Getenv("DB_DSN"),
		ServerPort:    envOr("SERVER_PORT", "8080"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		CatalogPath:   os.Getenv("CATALOG_PATH"),
		Storage: storage.Config{
			Backend:  storage.Backend(envOr("STORAGE_BACKEND", string(storage.BackendLocal))),
			LocalDir: envOr("STORAGE_LOCAL_DIR", "data/uploads"),
			S3: storage.S3Config{
				Bucket:   os.Getenv("S3_BUCKET"),
				Region:   envOr("S3_REGION", os.Getenv("AWS_REGION")),
				Endpoint: os.Getenv("S3_ENDPOINT"),
				Prefix:   os.Getenv("S3_PREFIX"),
			},
		},
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		AdminUsername: envOr("ADMIN_USERNAME", "admin@hipaa.local"),
		AdminPassword: envOr("ADMIN_PASSWORD", "Admin123!"),
	}

	var errs []error

	lvl, err := ParseLevel(os.Getenv("LOG_LEVEL"))
	errs = append(errs, err)
	cfg.LogLevel = lvl

	cfg.ConditionPolicy, err = catalog.ParseConditionPolicy(os.Getenv("CATALOG_CONDITION_POLICY"))
	errs = append(errs, err)

	switch cfg.Storage.Backend {
	case storage.BackendLocal, storage.BackendS3:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_BACKEND: unsupported value %q", cfg.Storage.Backend))
	}

	cfg.UploadMaxBytes, err = envInt64("UPLOAD_MAX_BYTES", evidence.MaxUploadBytes)
	errs = append(errs, err)
	if cfg.UploadMaxBytes <= 0 || cfg.UploadMaxBytes > evidence.MaxUploadBytes {
		errs = append(errs, fmt.Errorf("UPLOAD_MAX_BYTES must be between 1 and %d", evidence.MaxUploadBytes))
	}

	perMin, err := envInt64("UPLOAD_RATE_PER_MIN", 30)
	errs = append(errs, err)
	burst, err := envInt64("UPLOAD_RATE_BURST", 10)
	errs = append(errs, err)
	cfg.UploadRate = ratelimit.Policy{PerMinute: int(perMin), Burst: int(burst)}

	redisDB, err := envInt64("REDIS_DB", 0)
	errs = append(errs, err)
	cfg.RedisDB = int(redisDB)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) RequireDB() error {
	if c.DBDSN == "" {
		return errors.New("DB_DSN is not set")
	}
	return nil
}

func (c *Config) RequireSession() error {
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is not set")
	}
	if len(c.SessionSecret) < 32 {
		return errors.New("SESSION_SECRET must be at least 32 bytes")
	}
	return nil
}

// ParseLevel accepts debug, info, warn and error. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: unknown level %q", s)
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt64(key string, def int64) (int64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def, fmt.Errorf("%s: %q is not an integer", key, v)
	}
	return n, nil
}
