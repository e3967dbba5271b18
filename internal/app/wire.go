package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/bitloop-dev/triarb/internal/blob/s3"
	"github.com/bitloop-dev/triarb/internal/cache/redis"
	"github.com/bitloop-dev/triarb/internal/config"
	"github.com/bitloop-dev/triarb/internal/notify"
	"github.com/bitloop-dev/triarb/internal/sink"
	"github.com/bitloop-dev/triarb/internal/store/postgres"
)

// Dependencies bundles the shared infrastructure the application modes
// operate on. It is constructed by Wire and torn down by the returned
// cleanup function.
type Dependencies struct {
	// Sinks is every configured report output, file sink included.
	Sinks []sink.Sink

	// Bus is the Redis result bus, set when Redis is wired. The scan side
	// publishes through it (it is also in Sinks); the execute side
	// subscribes to it.
	Bus *redis.ResultBus

	// Opportunities is the Postgres store, set when Postgres is wired.
	Opportunities *postgres.OpportunityStore
}

// needsRedis returns true when the result bus must be connected.
func needsRedis(cfg *config.Config) bool {
	return cfg.Output.RedisEnabled || cfg.Mode == "execute" || cfg.Mode == "full"
}

// Wire constructs the configured infrastructure clients and sinks from the
// given configuration and returns them together with a cleanup function
// that should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	if cfg.Output.FilePath != "" {
		deps.Sinks = append(deps.Sinks, sink.NewFileSink(cfg.Output.FilePath))
	}

	// --- Redis result bus ---
	if needsRedis(cfg) {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Bus = redis.NewResultBus(redisClient, logger)
		// Full mode feeds its own executor through the bus, so the bus is
		// always a sink there.
		if cfg.Output.RedisEnabled || cfg.Mode == "full" {
			deps.Sinks = append(deps.Sinks, deps.Bus)
		}
	}

	// --- Postgres opportunity store ---
	if cfg.Output.PostgresEnabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.Opportunities = postgres.NewOpportunityStore(pgClient, logger)
		deps.Sinks = append(deps.Sinks, deps.Opportunities)
	}

	// --- S3 report archiver ---
	if cfg.Output.S3Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Sinks = append(deps.Sinks, s3blob.NewArchiver(s3Client, cfg.S3.Prefix, logger))
	}

	// --- Notifications ---
	if cfg.Output.NotifyEnabled {
		var senders []notify.Sender
		if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
			senders = append(senders, notify.NewTelegramSender(
				cfg.Notify.TelegramToken,
				cfg.Notify.TelegramChatID,
			))
		}
		if cfg.Notify.DiscordWebhookURL != "" {
			senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
		}
		deps.Sinks = append(deps.Sinks, notify.NewAlertSink(senders, cfg.Notify.Cooldown.Duration, logger))
	}

	return deps, cleanup, nil
}
