package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/yourusername/questionbank-api/internal/config"
	"github.com/yourusername/questionbank-api/internal/domain/repository"
	"github.com/yourusername/questionbank-api/internal/handler"
	"github.com/yourusername/questionbank-api/internal/metrics"
	"github.com/yourusername/questionbank-api/internal/middleware"
	"github.com/yourusername/questionbank-api/internal/pkg/logger"
	"github.com/yourusername/questionbank-api/internal/repository/memory"
	pgRepo "github.com/yourusername/questionbank-api/internal/repository/postgres"
	"github.com/yourusername/questionbank-api/internal/service"
	"github.com/yourusername/questionbank-api/internal/taxonomy"
	"github.com/yourusername/questionbank-api/pkg/auth"
	"github.com/yourusername/questionbank-api/pkg/database"
)

// storage объединяет реализации хранилища, выбранные драйвером
type storage struct {
	questions repository.QuestionStore
	sets      repository.SetRepository
	packets   repository.PacketRepository
}

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Printf("Failed to init logger: %v", err)
		os.Exit(1)
	}
	defer zlog.Sync() //nolint:errcheck

	if err := run(cfg, zlog); err != nil {
		zlog.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tax := taxonomy.Default()
	if cfg.Taxonomy.Path != "" {
		loaded, err := taxonomy.Load(cfg.Taxonomy.Path)
		if err != nil {
			return fmt.Errorf("failed to load taxonomy: %w", err)
		}
		tax = loaded
	}

	store, err := openStorage(ctx, cfg, zlog)
	if err != nil {
		return err
	}

	registry, err := service.LoadSetRegistry(ctx, store.sets)
	if err != nil {
		return fmt.Errorf("failed to load set list: %w", err)
	}
	zlog.Info("set list loaded", zap.Int("sets", registry.Len()))

	m := metrics.New()
	questionService := service.NewQuestionService(store.questions, store.packets, registry, cfg.Search, m, zlog)
	reportService := service.NewReportService(store.questions, tax, m, zlog)

	jwtService, err := auth.NewJWTService(cfg.Auth.JWTSecret, 0)
	if err != nil {
		return fmt.Errorf("failed to init jwt service: %w", err)
	}

	deps := handler.RouterDeps{
		Questions:      handler.NewQuestionHandler(questionService, reportService, zlog),
		Moderation:     handler.NewModerationHandler(questionService, reportService, zlog),
		Auth:           middleware.NewAuthMiddleware(jwtService, zlog),
		Metrics:        m,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}

	// Redis нужен только для ограничения частоты запросов
	var redisClient redis.UniversalClient
	if cfg.RateLimit.Enabled {
		redisClient, err = database.NewUniversalRedisClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		zlog.Info("rate limiting enabled", zap.Int("requests", cfg.RateLimit.Requests), zap.Duration("window", cfg.RateLimit.Window))

		deps.RateLimiter = middleware.NewRateLimiter(redisClient, zlog)
		deps.PublicLimit = middleware.PublicRateLimitConfig(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(deps)

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		zlog.Info("starting server", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}
	zlog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	zlog.Info("server exited properly")
	return nil
}

// openStorage подключает хранилище вопросов согласно store.driver
func openStorage(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (*storage, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		store := memory.NewStore()
		if cfg.Store.FixturePath != "" {
			if err := store.LoadFile(cfg.Store.FixturePath); err != nil {
				return nil, fmt.Errorf("failed to load fixture: %w", err)
			}
		}
		zlog.Info("using in-memory store", zap.String("fixture", cfg.Store.FixturePath))
		return &storage{questions: store, sets: store, packets: store}, nil

	default:
		db, err := database.NewPostgresDB(ctx, database.PostgresOptions{
			DSN:      cfg.Database.PostgresConnectionString(),
			Attempts: cfg.Database.ConnectAttempts,
		}, zlog)
		if err != nil {
			return nil, err
		}
		if err := database.MigrateDB(db, cfg.Database.MigrationsPath, zlog); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return &storage{
			questions: pgRepo.NewQuestionStore(db),
			sets:      pgRepo.NewSetRepo(db),
			packets:   pgRepo.NewPacketRepo(db),
		}, nil
	}
}
