package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hipaa-compliance/internal/models"
)

type ConnectOptions struct {
	MaxAttempts int
	RetryDelay  time.Duration
	// LogSQL enables gorm's statement logging.
	LogSQL bool
}

// Connect opens the Postgres connection, retrying while the database comes
// up (docker-compose starts both at once).
func Connect(ctx context.Context, dsn string, opts ConnectOptions, log *slog.Logger) (*gorm.DB, error) {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 10
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	gormLog := logger.Default.LogMode(logger.Warn)
	if opts.LogSQL {
		gormLog = logger.Default.LogMode(logger.Info)
	}

	var (
		db  *gorm.DB
		err error
	)
	for i := 1; i <= opts.MaxAttempts; i++ {
		log.Info("connecting to database", "attempt", i, "max_attempts", opts.MaxAttempts)

		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			SkipDefaultTransaction: true,
			Logger:                 gormLog,
		})
		if err == nil {
			err = ping(ctx, db)
		}
		if err == nil {
			log.Info("connected to database")
			return db, nil
		}

		log.Warn("failed to connect to database", "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.RetryDelay):
		}
	}
	return nil, fmt.Errorf("connect to db after %d attempts: %w", opts.MaxAttempts, err)
}

func ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.RiskAssessment{},
		&models.EvidenceRecord{},
		&models.Vendor{},
		&models.Incident{},
		&models.ActionItem{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// SeedAdmin creates the admin account unless an admin already exists. The
// admin is only ever created here, never through registration.
func SeedAdmin(ctx context.Context, db *gorm.DB, username, password string, log *slog.Logger) error {
	if username == "" || password == "" {
		return errors.New("admin username and password are required")
	}

	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&count).Error; err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}
	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	log.Info("created default admin user", "username", username)
	return nil
}
