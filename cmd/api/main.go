package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"tablero-backend/internal/analytics"
	"tablero-backend/internal/auth"
	"tablero-backend/internal/config"
	"tablero-backend/internal/db"
	"tablero-backend/internal/logger"
	"tablero-backend/internal/sheet"
	"tablero-backend/internal/tasks"
)

// ----------------------
//        MAIN
// ----------------------

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.Default()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(cfg.Env)
	log.Info().Str("env", cfg.Env).Str("store", cfg.StoreDriver).Msg("loaded config")

	ctx := context.Background()

	sh, events, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer closeStore()

	store := tasks.NewStore(sh, tasks.Config{Secret: cfg.BoardSecret}, log, events)
	creds := auth.New(cfg.TokenSecret(), cfg.BoardSecret)

	mux := http.NewServeMux()

	// Health endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	// ----- TASKS API -----
	tasks.Register(mux, store, creds)

	// ----- AUTH -----
	mux.HandleFunc("POST /api/login", auth.LoginHandler(creds, cfg.JWTTTL, log))
	mux.HandleFunc("POST /api/logout", auth.LogoutHandler())

	// ----- ANALYTICS -----
	mux.HandleFunc("POST /api/events/board-opened", analytics.BoardOpenedHandler(events, log))

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Content-Type", "Authorization",
			"X-Platform", "X-App-Version", "X-Session-Id", "X-Device-Locale",
			"Idempotency-Key", "X-Source-Event-Key",
		},
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      c.Handler(analytics.Middleware(mux)),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("api server is running")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to listen and serve http")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown http server")
		return
	}
	log.Info().Msg("shut down http server")
}

// ----------------------
//        STORE
// ----------------------

// openStore picks the sheet backend. The memory backend keeps events in the
// log; SQL backends keep them in the analytics_events table.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (sheet.Sheet, analytics.Recorder, func(), error) {
	if cfg.StoreDriver == config.DriverMemory {
		log.Warn().Msg("using in-memory store, tasks are lost on restart")
		return sheet.NewMemory(cfg.SheetName), analytics.NewLogRecorder(log), func() {}, nil
	}

	dialect, err := db.ParseDialect(cfg.StoreDriver)
	if err != nil {
		return nil, nil, nil, err
	}
	dsn := cfg.SQLitePath
	if dialect == db.DialectPostgres {
		dsn = cfg.ConnString()
	}

	database, err := db.Connect(ctx, dialect, dsn)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect %s: %w", dialect, err)
	}
	closeDB := func() {
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}
	log.Info().Str("dialect", string(dialect)).Msg("connected to database")

	sh, err := sheet.OpenSQL(ctx, database, cfg.SheetName)
	if err != nil {
		closeDB()
		return nil, nil, nil, fmt.Errorf("open sheet %q: %w", cfg.SheetName, err)
	}
	events, err := analytics.NewSQLRecorder(ctx, database)
	if err != nil {
		closeDB()
		return nil, nil, nil, err
	}
	return sh, events, closeDB, nil
}
