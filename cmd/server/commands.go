package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"hipaa-compliance/internal/catalog"
	"hipaa-compliance/internal/config"
	"hipaa-compliance/internal/database"
	"hipaa-compliance/internal/metrics"
	"hipaa-compliance/internal/ratelimit"
	"hipaa-compliance/internal/scoring"
	"hipaa-compliance/internal/server"
	"hipaa-compliance/internal/service"
	"hipaa-compliance/internal/storage"
	"hipaa-compliance/internal/store"
)

const shutdownTimeout = 15 * time.Second

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hipaa-server",
		Short:         "HIPAA compliance service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	cmd.AddCommand(serveCmd(), migrateCmd(), catalogCmd(), scoreCmd(), actionsCmd())
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and seed the admin user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			db, err := openDB(ctx, cfg, log)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			if err := database.SeedAdmin(ctx, db, cfg.AdminUsername, cfg.AdminPassword, log); err != nil {
				return err
			}
			log.Info("migrations applied")
			return nil
		},
	}
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the question catalog",
	}

	var file, policy string
	validate := &cobra.Command{
		Use:   "validate",
		Short: "Load a catalog and report problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := catalog.ParseConditionPolicy(policy)
			if err != nil {
				return err
			}
			cat, err := loadCatalog(file, p, slog.Default())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "catalog %s: %d questions, max score %d\n",
				cat.Version(), cat.Len(), cat.MaxScore())
			return nil
		},
	}
	validate.Flags().StringVarP(&file, "file", "f", "", "catalog YAML file (default: embedded catalog)")
	validate.Flags().StringVar(&policy, "condition-policy", "strict", "strict, fail-open or fail-closed")
	cmd.AddCommand(validate)
	return cmd
}

func scoreCmd() *cobra.Command {
	var answersPath, file string
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a JSON answer set against the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(file, catalog.PolicyStrict, slog.Default())
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(answersPath)
			if err != nil {
				return fmt.Errorf("read answers: %w", err)
			}
			var answers map[string]string
			if err := json.Unmarshal(raw, &answers); err != nil {
				return fmt.Errorf("decode answers: %w", err)
			}
			if err := cat.ValidateAnswers(answers); err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(scoring.NewEngine(cat).Score(answers))
		},
	}
	cmd.Flags().StringVarP(&answersPath, "answers", "a", "", "JSON object of question id to answer")
	cmd.Flags().StringVarP(&file, "file", "f", "", "catalog YAML file (default: embedded catalog)")
	_ = cmd.MarkFlagRequired("answers")
	return cmd
}

func actionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actions",
		Short: "Manage action items",
	}

	var orgID uint
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Run the vendor and incident rules for one organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			db, err := openDB(ctx, cfg, log)
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cfg.CatalogPath, cfg.ConditionPolicy, log)
			if err != nil {
				return err
			}
			st := store.NewGormStore(db)
			if _, err := st.Organization(ctx, orgID); err != nil {
				return fmt.Errorf("organization %d: %w", orgID, err)
			}

			svc := service.New(service.Options{Store: st, Catalog: cat, Logger: log})
			created, err := svc.SyncActionItems(ctx, orgID)
			if err != nil {
				return err
			}
			for _, it := range created {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", it.Priority, it.ItemKey, it.Title)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d action items created\n", len(created))
			return nil
		},
	}
	generate.Flags().UintVar(&orgID, "org", 0, "organization id")
	_ = generate.MarkFlagRequired("org")
	cmd.AddCommand(generate)
	return cmd
}

// setup loads the configuration and installs the default logger.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)
	return cfg, log, nil
}

func openDB(ctx context.Context, cfg *config.Config, log *slog.Logger) (*gorm.DB, error) {
	if err := cfg.RequireDB(); err != nil {
		return nil, err
	}
	return database.Connect(ctx, cfg.DBDSN, database.ConnectOptions{
		LogSQL: cfg.LogLevel <= slog.LevelDebug,
	}, log)
}

func loadCatalog(path string, policy catalog.ConditionPolicy, log *slog.Logger) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path, catalog.Options{ConditionPolicy: policy, Logger: log})
}

// uploadLimiter prefers the shared Redis bucket and falls back to a
// per-process limiter when Redis is not configured or not reachable.
func uploadLimiter(ctx context.Context, cfg *config.Config, log *slog.Logger) ratelimit.Limiter {
	if cfg.RedisAddr == "" {
		return ratelimit.NewLocal(cfg.UploadRate)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unreachable, using in-process rate limiter", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return ratelimit.NewLocal(cfg.UploadRate)
	}
	return ratelimit.NewRedis(client, cfg.UploadRate)
}

func serve(parent context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	if err := cfg.RequireSession(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	if err := database.SeedAdmin(ctx, db, cfg.AdminUsername, cfg.AdminPassword, log); err != nil {
		return err
	}

	cat, err := loadCatalog(cfg.CatalogPath, cfg.ConditionPolicy, log)
	if err != nil {
		return err
	}
	objects, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	m := metrics.New()
	svc := service.New(service.Options{
		Store:          store.NewCached(store.NewGormStore(db)),
		Catalog:        cat,
		Objects:        objects,
		Limiter:        uploadLimiter(ctx, cfg, log),
		Metrics:        m,
		Logger:         log,
		MaxUploadBytes: cfg.UploadMaxBytes,
	})

	router := server.NewRouter(server.Deps{
		Service:        svc,
		Metrics:        m,
		Logger:         log,
		SessionSecret:  cfg.SessionSecret,
		SecureCookies:  os.Getenv("GIN_MODE") == "release",
		MaxUploadBytes: cfg.UploadMaxBytes,
		AuthLimiter:    ratelimit.NewLocal(ratelimit.Policy{PerMinute: 20, Burst: 10}),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", srv.Addr, "catalog", cat.Version(), "storage", cfg.Storage.Backend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
