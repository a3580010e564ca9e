package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/cache"
	"finance-tracker/internal/config"
	"finance-tracker/internal/events"
	apphttp "finance-tracker/internal/http"
	"finance-tracker/internal/repository/migrations"
	"finance-tracker/internal/repository/postgres"
	"finance-tracker/internal/repository/sqldb"
	"finance-tracker/internal/repository/sqlite"
	"finance-tracker/internal/service"
	"finance-tracker/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (optional)")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	configureLogger(logger, cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, dialect, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	migrateDSN := cfg.Database.DSN
	if dialect.Name() == sqldb.DialectSQLite {
		migrateDSN = cfg.Database.Path
	}
	if err := migrations.Run(dialect.Name(), migrateDSN); err != nil {
		logger.Fatalf("run migrations: %v", err)
	}

	userRepo := sqldb.NewUserRepository(db, dialect)
	txRepo := sqldb.NewTransactionRepository(db, dialect)
	analyticsRepo := sqldb.NewAnalyticsRepository(db, dialect)

	store, err := buildCache(ctx, cfg.Cache, logger)
	if err != nil {
		logger.Fatalf("setup cache: %v", err)
	}
	defer store.Close()

	publisher, err := buildPublisher(cfg.Events, logger)
	if err != nil {
		logger.Fatalf("setup events: %v", err)
	}
	defer publisher.Close()

	storageSvc, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}

	userService := service.NewUserService(userRepo, cfg.Auth.BcryptCost, logger)
	txService := service.NewTransactionService(txRepo, store, publisher, service.TransactionOptions{
		InvalidateAdminOnAllWrites: cfg.Cache.InvalidateAdminOnAllWrites,
	}, logger)
	analyticsService := service.NewAnalyticsService(analyticsRepo, store, logger)
	exportService := service.NewExportService(txService, storageSvc, service.ExportOptions{
		KeyPrefix:  cfg.Storage.KeyPrefix,
		PresignTTL: cfg.Storage.PresignTTL,
	}, logger)

	seeded, err := userService.EnsureAdmin(ctx, cfg.Auth.AdminName, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword)
	if err != nil {
		logger.Fatalf("seed admin: %v", err)
	}
	if seeded {
		logger.Warnf("created default admin %s; change its password", cfg.Auth.AdminEmail)
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(apphttp.Dependencies{
		Users:        userService,
		Transactions: txService,
		Analytics:    analyticsService,
		Exports:      exportService,
		Tokens:       auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL),
		Logger:       logger,
		AuthRate:     rate.Limit(cfg.RateLimit.AuthPerMinute / 60),
		AuthBurst:    cfg.RateLimit.AuthBurst,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func configureLogger(logger *logrus.Logger, cfg config.LogConfig) {
	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", cfg.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, sqldb.Dialect, error) {
	dialect, err := sqldb.DialectFor(cfg.Driver)
	if err != nil {
		return nil, nil, err
	}
	var db *sql.DB
	if dialect.Name() == sqldb.DialectPostgres {
		db, err = postgres.Open(ctx, cfg.DSN)
	} else {
		db, err = sqlite.Open(cfg.Path)
	}
	if err != nil {
		return nil, nil, err
	}
	return db, dialect, nil
}

func buildCache(ctx context.Context, cfg config.CacheConfig, logger *logrus.Logger) (cache.Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "none":
		logger.Info("analytics cache disabled")
		return cache.Nop{}, nil
	case "redis":
		store, err := cache.NewRedis(ctx, cache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.TTL,
		})
		if err != nil {
			return nil, err
		}
		logger.Infof("using redis analytics cache at %s", cfg.Redis.Addr)
		return store, nil
	default:
		logger.Infof("using in-memory analytics cache (ttl %s)", cfg.TTL)
		return cache.NewMemory(cfg.MaxScopes, cfg.TTL, cfg.CleanupInterval), nil
	}
}

func buildPublisher(cfg config.EventsConfig, logger *logrus.Logger) (events.Publisher, error) {
	if cfg.AMQPURL == "" {
		return events.Nop{}, nil
	}
	pub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.Exchange, logger)
	if err != nil {
		return nil, err
	}
	logger.Infof("publishing transaction events to exchange %s", cfg.Exchange)
	return pub, nil
}

// buildStorage returns nil when no bucket is configured; report archiving is
// then unavailable.
func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		logger.Info("no storage bucket configured, report archiving disabled")
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client, cfg.Storage.Bucket), nil
}
