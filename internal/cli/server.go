package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"quizbox/internal/app"
	"quizbox/internal/config"
	"quizbox/internal/infra/memory"
	"quizbox/internal/infra/postgres"
	redisinfra "quizbox/internal/infra/redis"
	"quizbox/internal/infra/security"
	transport "quizbox/internal/transport/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	if portFlag != "" {
		cfg.Server.Port = portFlag
	}

	var (
		store  app.Store
		loader memory.QuizLoader
	)
	if cfg.Postgres.URL != "" {
		db := postgres.Open(cfg.Postgres.URL)
		defer db.Close()
		if err := migrateUp(ctx, db, log); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = postgres.NewStore(db)
		loader = postgres.NewQuizLoader(pool)
		log.Info("using postgres storage")
	} else {
		mem := memory.NewStore()
		store = mem
		loader = mem
		log.Warn("no postgres url configured; data lives in memory only")
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	attemptTTL := config.TTLDuration(cfg.Redis.TTL, 24*time.Hour)

	var (
		cache    app.QuizCache
		attempts app.AttemptRepository
	)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn("redis ping failed; continuing, cache reads will fall back to storage", "addr", cfg.Redis.Addr, "error", err)
		}
		cache = redisinfra.NewQuizCache(client, loader, quizTTL)
		attempts = redisinfra.NewAttemptStore(client, attemptTTL)
	} else {
		cache = memory.NewQuizCache(loader, quizTTL)
		attempts = memory.NewAttemptStore()
	}

	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokens := security.NewJWTService(cfg.Auth.Secret, cfg.Auth.Issuer, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))

	services := transport.Services{
		Accounts: app.NewAccountService(store, hasher, tokens, log),
		Quizzes:  app.NewQuizService(store, cache, attempts, log),
		Topics:   app.NewTopicService(store, cache, attempts, log),
		Attempts: app.NewAttemptService(cache, attempts, log),
	}

	if isProduction(cfg.Log.Mode) {
		gin.SetMode(gin.ReleaseMode)
	}
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      transport.NewRouter(services, log, cfg.Server.CORSOrigins...),
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting quizbox", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-serveErr:
		if err != nil {
			log.Error("server failed", "error", err)
			return err
		}
		return nil
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func isProduction(mode string) bool {
	switch strings.ToLower(mode) {
	case "prod", "production":
		return true
	}
	return false
}
