package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/events"
	"storefront/internal/http/handlers"
	applog "storefront/internal/log"
	"storefront/internal/ratelimit"
	"storefront/internal/repos"
)

func main() {
	if err := run(); err != nil {
		applog.Logger().Error().Err(err).Msg("storefront stopped")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Optional file logging
	var out io.Writer = os.Stdout
	var fileErr error
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fileErr = err
		} else {
			defer f.Close()
			out = io.MultiWriter(os.Stdout, f)
		}
	}
	applog.Setup(out, cfg.LogLevel)
	lg := applog.Logger()
	if fileErr != nil {
		lg.Warn().Err(fileErr).Str("file", cfg.LogFile).Msg("could not open log file")
	}
	lg.Info().
		Str("port", cfg.Port).
		Str("db_dsn", cfg.DBDSN).
		Str("log_file", cfg.LogFile).
		Str("timezone", cfg.Timezone).
		Bool("kafka", cfg.KafkaBrokers != "").
		Bool("redis", cfg.RedisURL != "").
		Msg("[config] loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if cfg.SeedDemo {
		if err := repos.SeedDemo(ctx, db); err != nil {
			return fmt.Errorf("seed demo catalog: %w", err)
		}
	}

	var pub events.Publisher = events.Nop{}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		pub = events.NewKafkaPublisher(brokers, cfg.KafkaOrderTopic)
		lg.Info().Strs("brokers", brokers).Str("topic", cfg.KafkaOrderTopic).Msg("order events enabled")
	}
	defer pub.Close()

	lim := handlers.Limits{}
	if cfg.RedisURL != "" {
		store, err := ratelimit.Open(ctx, cfg.RedisURL)
		if err != nil {
			lg.Warn().Err(err).Msg("redis unavailable, using in-memory rate limits")
		} else {
			defer store.Close()
			lim.Storage = store
		}
	}

	deps := handlers.NewDeps(db, cfg, pub)
	if a, created, err := deps.Auth.Init(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		lg.Error().Err(err).Msg("bootstrap admin")
	} else if created {
		lg.Info().Str("email", a.Email).Msg("bootstrap admin created")
	}

	go purgeSessions(ctx, repos.NewAdminRepo(db))

	app := handlers.NewApp(deps, lim)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			lg.Error().Err(err).Msg("shutdown")
		}
	}()

	lg.Info().Str("port", cfg.Port).Msg("storefront listening")
	if err := app.Listen(":" + cfg.Port); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// purgeSessions drops expired admin tokens once an hour.
func purgeSessions(ctx context.Context, admins *repos.AdminRepo) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := admins.PurgeExpired(ctx, now)
			if err != nil {
				applog.Logger().Error().Err(err).Msg("purge admin sessions")
				continue
			}
			if n > 0 {
				applog.Logger().Info().Int64("purged", n).Msg("admin sessions expired")
			}
		}
	}
}
