package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quiz-master-service/internal/app"
	"quiz-master-service/internal/cache"
	"quiz-master-service/internal/config"
	"quiz-master-service/internal/domain"
	"quiz-master-service/internal/infra/memory"
	"quiz-master-service/internal/infra/postgres"
	"quiz-master-service/internal/infra/rabbit"
	redisinfra "quiz-master-service/internal/infra/redis"
	"quiz-master-service/internal/logging"
	transport "quiz-master-service/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz attempt server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var store cache.Store = memory.NewTTLCache()
	if cfg.Redis.Addr != "" {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store = redisinfra.NewTTLCache(client)
	}

	var (
		catalog app.CatalogRepository
		scores  app.ScoreRepository
	)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		catalog = postgres.NewCatalog(pool)
		scores = postgres.NewScoreStore(pool)
	} else {
		logger.Warn("postgres not configured, serving the built-in sample catalog")
		catalog = sampleCatalog()
		scores = memory.NewScoreStore()
	}

	var jobs app.JobDispatcher = app.NopDispatcher{}
	if cfg.Rabbit.URL != "" {
		dispatcher, err := rabbit.Dial(cfg.Rabbit.URL, logger)
		if err != nil {
			return err
		}
		defer dispatcher.Close()
		jobs = dispatcher
	}

	sessions := memory.NewSessionStore()
	recorder := app.NewScoreRecorder(scores)
	attempts := app.NewAttemptService(sessions, catalog, recorder, logger)
	attempts.DefaultDuration = int(config.Duration(cfg.Quiz.DefaultDuration, time.Hour).Seconds())
	dashboards := app.NewDashboardService(store, catalog, scores, logger)

	auth := transport.NewAuthenticator(cfg.Auth.Secret)
	handler := transport.NewHandler(attempts, dashboards, scores, store, jobs, auth, logger)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting quiz master service", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleCatalog provides minimal quiz content for Postgres-less runs.
func sampleCatalog() *memory.Catalog {
	return memory.NewCatalog(
		[]domain.Subject{{ID: 1, Name: "Mathematics", Description: "Arithmetic and algebra"}},
		[]domain.Chapter{{ID: 1, Name: "Basics", Description: "Getting started", SubjectID: 1}},
		[]domain.Quiz{{ID: 1, Name: "Warm-up quiz", ChapterID: 1, DurationSeconds: 600}},
		[]domain.Question{
			{
				ID: 1, QuizID: 1, Prompt: "What is 2 + 2?",
				Options:       [4]string{"3", "4", "5", "6"},
				CorrectOption: 2,
			},
		},
	)
}
