package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/production-orders/internal/catalog"
	"github.com/vasiliy-maslov/production-orders/internal/config"
	"github.com/vasiliy-maslov/production-orders/internal/db"
	"github.com/vasiliy-maslov/production-orders/internal/ledger"
	"github.com/vasiliy-maslov/production-orders/internal/order"
	"github.com/vasiliy-maslov/production-orders/internal/store/memory"
	"github.com/vasiliy-maslov/production-orders/internal/store/postgres"
	"github.com/vasiliy-maslov/production-orders/internal/store/sqlite"
	"github.com/vasiliy-maslov/production-orders/internal/transport"
	"github.com/vasiliy-maslov/production-orders/internal/user"
)

// store is what every backend provides.
type store interface {
	order.Store
	Users() user.Repository
	Close() error
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "production-orders").Logger()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	setupLogger(cfg.App)

	log.Info().Str("driver", cfg.Store.Driver).Msg("Production orders service starting...")
	log.Debug().Interface("config_loaded", redacted(cfg)).Msg("Configuration loaded")

	st, err := openStore(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("Failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close store")
		}
	}()

	products := catalog.NewService(st.Products())
	if cfg.Store.SeedProducts {
		if err := products.SeedDefaults(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed default products")
		}
	}

	router := transport.NewRouter(transport.Services{
		Catalog: products,
		Orders:  order.NewService(st, order.WithNumberRetries(cfg.Orders.NumberRetries)),
		Ledger:  ledger.NewService(st.Ledger()),
		Users:   user.NewService(st.Users()),
	}, cfg.App.AuthRequired)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Shutting down...")
	case err := <-serverErr:
		log.Error().Err(err).Msg("Server failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server stopped")
}

func setupLogger(app config.AppConfig) {
	level, err := zerolog.ParseLevel(app.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		log.Warn().Str("log_level", app.LogLevel).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if app.LogFormat == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Str("service", "production-orders").Logger()
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		log.Warn().Msg("Using the in-memory store, data is lost on exit")
		return memory.New(), nil

	case config.DriverSQLite:
		conn, err := db.NewSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		if err := db.MigrateSQLite(conn, cfg.Store.MigrationsPath); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return sqlite.New(conn), nil

	case config.DriverPostgres:
		if err := db.MigratePostgres(cfg.Postgres, cfg.Store.MigrationsPath); err != nil {
			return nil, err
		}
		pg, err := db.NewPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return postgres.New(pg.Pool), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// redacted returns a copy of cfg safe to log.
func redacted(cfg *config.Config) config.Config {
	c := *cfg
	if c.Postgres.Password != "" {
		c.Postgres.Password = "***"
	}
	return c
}
