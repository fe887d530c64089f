package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/updownlabs/updown/internal/bank"
	s3blob "github.com/updownlabs/updown/internal/blob/s3"
	"github.com/updownlabs/updown/internal/cache/redis"
	"github.com/updownlabs/updown/internal/chain"
	"github.com/updownlabs/updown/internal/config"
	"github.com/updownlabs/updown/internal/domain"
	"github.com/updownlabs/updown/internal/engine"
	"github.com/updownlabs/updown/internal/notify"
	"github.com/updownlabs/updown/internal/server/ws"
	"github.com/updownlabs/updown/internal/store/memory"
	"github.com/updownlabs/updown/internal/store/postgres"
)

// Dependencies bundles everything the serve loop needs. It is constructed by
// Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Engine *engine.Engine

	Markets   domain.MarketStore
	Positions domain.PositionStore
	Audit     domain.AuditStore
	Bank      *bank.Ledger
	Blocks    domain.BlockSource

	Hub      *ws.Hub
	Bus      *redis.EventBus
	Reporter *s3blob.Reporter
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	admin, err := domain.ParseAccount(cfg.Protocol.AdminAddress)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: admin address: %w", err)
	}
	escrow, err := domain.ParseAccount(cfg.Protocol.EscrowAddress)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: escrow address: %w", err)
	}

	seed := domain.Params{
		MinimumStake:  cfg.Protocol.MinimumStake,
		FeePercentage: cfg.Protocol.FeePercentage,
	}
	if cfg.Protocol.OracleAddress != "" {
		oracle, err := domain.ParseAccount(cfg.Protocol.OracleAddress)
		if err != nil {
			return nil, nil, fmt.Errorf("wire: oracle address: %w", err)
		}
		seed.Oracle = oracle
	}

	// --- Stores ---
	var params domain.ParamStore
	if cfg.Mode == "memory" {
		deps.Markets = memory.NewMarketStore()
		deps.Positions = memory.NewPositionStore()
		deps.Audit = memory.NewAuditStore()
		params = memory.NewParamStore(seed)
	} else {
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

		pool := pgClient.Pool()
		deps.Markets = postgres.NewMarketStore(pool)
		deps.Positions = postgres.NewPositionStore(pool)
		deps.Audit = postgres.NewAuditStore(pool)

		paramStore := postgres.NewParamStore(pool)
		if err := paramStore.Seed(ctx, seed); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: seed params: %w", err)
		}
		params = paramStore
	}

	// --- Bank ledger ---
	deps.Bank = bank.NewLedger()

	// --- Block source ---
	if cfg.Chain.RPCURL != "" {
		src, err := chain.DialEthereum(ctx, cfg.Chain.RPCURL)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: chain: %w", err)
		}
		closers = append(closers, src.Close)
		deps.Blocks = src
	} else {
		deps.Blocks = chain.NewCounter(cfg.Chain.StartHeight)
	}

	// --- Redis cache + event bus ---
	if cfg.Redis.Enabled {
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

		deps.Markets = newCachedMarkets(deps.Markets, redis.NewMarketCache(redisClient), logger)
		deps.Bus = redis.NewEventBus(redisClient)
	}

	// --- S3 settlement report archive ---
	if cfg.S3.Enabled {
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
		deps.Reporter = s3blob.NewReporter(s3Client)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.WebhookURL != "" {
		senders = append(senders, notify.NewWebhookSender(cfg.Notify.WebhookURL))
	}
	deps.Notifier = notify.New(senders, cfg.Notify.Events, logger)

	// --- Event fan-out ---
	deps.Hub = ws.NewHub(logger)

	sinks := []domain.EventSink{deps.Hub, deps.Notifier}
	if deps.Bus != nil {
		sinks = append(sinks, deps.Bus)
	}
	if deps.Reporter != nil {
		sinks = append(sinks, newArchiveSink(deps.Reporter, deps.Markets, deps.Positions, logger))
	}

	// --- Engine ---
	deps.Engine = engine.New(engine.Config{
		Markets:   deps.Markets,
		Positions: deps.Positions,
		Params:    params,
		Bank:      deps.Bank,
		Blocks:    deps.Blocks,
		Audit:     deps.Audit,
		Events:    fanout(sinks),
		Admin:     admin,
		Escrow:    escrow,
		Logger:    logger,
	})

	return deps, cleanup, nil
}

// fanout publishes each event to every sink, collecting the first error.
type fanout []domain.EventSink

func (f fanout) Publish(ctx context.Context, ev domain.Event) error {
	var firstErr error
	for _, s := range f {
		if err := s.Publish(ctx, ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
