package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/wordcards/internal/bot"
	"github.com/example/wordcards/internal/config"
	"github.com/example/wordcards/internal/database"
	"github.com/example/wordcards/internal/excel"
	"github.com/example/wordcards/internal/quiz"
	"github.com/example/wordcards/internal/scheduler"
	"github.com/example/wordcards/internal/session"
	"github.com/example/wordcards/internal/trainer"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var (
	cfg    config.Config
	logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func loadConfig(_ *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(envFile)
	if err != nil {
		return err
	}
	logger = cfg.NewLogger(os.Stderr)
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := cfg.RequireToken(); err != nil {
		return err
	}

	// Cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := connect(ctx)
	if err != nil {
		return err
	}
	store := database.NewStore(db)
	defer store.Close()

	sessions, err := openSessions(ctx)
	if err != nil {
		return err
	}
	defer sessions.Close()

	api, err := bot.NewAPI(cfg.TelegramToken, logger.GetLevel() <= zerolog.DebugLevel)
	if err != nil {
		return err
	}
	logger.Info().Str("account", api.Self.UserName).Msg("Authorized on Telegram")

	b := bot.New(api, bot.DefaultConfig(), logger)
	engine := trainer.New(trainer.Config{
		Catalog:      store,
		Progress:     store,
		Answers:      quiz.NewSelector(store, nil),
		Sessions:     sessions,
		Channel:      b,
		StoreTimeout: cfg.DBTimeout,
		Logger:       logger,
	})

	sched := scheduler.New(logger)
	// Redis expires sessions by TTL; only the memory store needs sweeping
	if sweeper, ok := sessions.(session.Sweeper); ok {
		if err := sched.AddSessionSweep(sweeper, cfg.SessionSweepInterval, cfg.SessionTTL); err != nil {
			return err
		}
	}
	sched.Start()
	defer sched.Stop()

	done := make(chan error, 1)
	go func() {
		done <- b.Start(ctx, engine)
	}()
	logger.Info().Msg("Bot started. Press Ctrl+C to stop.")

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	case <-ctx.Done():
		logger.Info().Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := b.Stop(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Error during shutdown")
	}

	logger.Info().Msg("Bot stopped successfully")
	return nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	db, err := database.Open(ctx, dbConfig())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	added, err := database.Seed(ctx, db, database.DefaultWords())
	if err != nil {
		return err
	}

	logger.Info().Int("added", added).Msg("Seeded default words")
	return nil
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := excel.ImportWords(ctx, db, importConfig)
	if err != nil {
		return err
	}

	for _, rowErr := range result.Errors {
		logger.Warn().Msg(rowErr)
	}
	logger.Info().
		Str("file", importConfig.FilePath).
		Int("processed", result.TotalProcessed).
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Msg("Import finished")
	return nil
}

func dbConfig() database.Config {
	driver := database.DriverSQLite
	if cfg.DBType == "postgres" {
		driver = database.DriverPostgres
	}
	return database.Config{Driver: driver, Path: cfg.DBPath, URL: cfg.DatabaseURL}
}

func connect(ctx context.Context) (*sqlx.DB, error) {
	db, err := database.Connect(ctx, dbConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info().Str("driver", db.DriverName()).Msg("Database ready")
	return db, nil
}

func openSessions(ctx context.Context) (session.Store, error) {
	storeType := session.StoreType(cfg.SessionStore)
	opts := []session.StoreOption{session.WithTTL(cfg.SessionTTL)}

	if storeType == session.StoreTypeRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("%w: redis %s: %w", database.ErrStoreUnavailable, cfg.RedisAddr, err)
		}
		opts = append(opts, session.WithRedisClient(client))
	}

	return session.NewStore(storeType, opts...)
}
