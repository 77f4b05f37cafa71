package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/solderlabs/cortex/internal/blob/s3"
	"github.com/solderlabs/cortex/internal/cache/redis"
	"github.com/solderlabs/cortex/internal/config"
	"github.com/solderlabs/cortex/internal/conviction"
	"github.com/solderlabs/cortex/internal/domain"
	"github.com/solderlabs/cortex/internal/indexer"
	"github.com/solderlabs/cortex/internal/platform/helius"
	"github.com/solderlabs/cortex/internal/platform/jupiter"
	"github.com/solderlabs/cortex/internal/platform/lyslabs"
	"github.com/solderlabs/cortex/internal/platform/polymarket"
	"github.com/solderlabs/cortex/internal/server"
	"github.com/solderlabs/cortex/internal/server/handler"
	"github.com/solderlabs/cortex/internal/service"
	"github.com/solderlabs/cortex/internal/store/clickhouse"
	"github.com/solderlabs/cortex/internal/store/postgres"
)

// Dependencies bundles everything the running application needs. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Stores
	Transactions domain.TransactionStore
	Summaries    domain.SummaryStore
	Positions    domain.PositionStore
	Registry     domain.SubscriptionStore

	// Ingestion
	Manager *indexer.Manager

	// HTTP
	Server *server.Server
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources. Postgres, Redis, and the raw
// archive are optional; the pipeline degrades rather than refusing to start.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- ClickHouse (analytical store) ---
	chClient, err := clickhouse.New(ctx, clickhouse.ClientConfig{
		Addr:     cfg.Database.URL,
		Database: cfg.Database.Database,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: clickhouse: %w", err)
	}
	closers = append(closers, func() { _ = chClient.Close() })

	if err := chClient.Bootstrap(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: clickhouse bootstrap: %w", err)
	}

	deps.Transactions = clickhouse.NewTransactionStore(chClient)
	deps.Summaries = clickhouse.NewSummaryStore(chClient)
	deps.Positions = clickhouse.NewPositionStore(chClient)

	// --- PostgreSQL subscription registry (optional) ---
	if cfg.Postgres.URL != "" {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			URL:      cfg.Postgres.URL,
			MaxConns: cfg.Postgres.MaxConns,
			MinConns: cfg.Postgres.MinConns,
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
		deps.Registry = postgres.NewSubscriptionStore(pgClient.Pool())
	} else {
		logger.Warn("wire: no postgres url, subscriptions will not survive restarts")
	}

	// --- Redis price cache (optional) ---
	var priceCache domain.PriceCache
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		ttl := time.Duration(cfg.Redis.TTLSeconds) * time.Second
		priceCache = redis.NewPriceCache(redisClient, ttl)
	}

	// --- Providers ---
	heliusClient := helius.New(cfg.Helius.BaseURL, cfg.Helius.APIKey)
	lyslabsClient := lyslabs.New(cfg.Lyslabs.WsURL, cfg.Lyslabs.APIKey, cfg.Indexer.MaxReconnectAttempts, logger)
	jupiterClient := jupiter.New(cfg.Jupiter.PriceURL, logger)
	polymarketClient := polymarket.New(cfg.Polymarket.GammaHost, cfg.Polymarket.ClobHost, logger)

	// --- Raw frame archive (optional) ---
	if cfg.Archive.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.Archive.Endpoint,
			Region:         cfg.Archive.Region,
			Bucket:         cfg.Archive.Bucket,
			AccessKey:      cfg.Archive.AccessKey,
			SecretKey:      cfg.Archive.SecretKey,
			ForcePathStyle: cfg.Archive.Endpoint != "",
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		archiver := s3blob.NewFrameArchiver(s3blob.NewWriter(s3Client), cfg.Archive.Prefix, logger)
		lyslabsClient.SetArchiver(archiver)
	}

	// --- Ingestion pipeline ---
	writer := indexer.NewWriter(indexer.WriterConfig{
		Transactions: deps.Transactions,
		Summaries:    deps.Summaries,
		Positions:    deps.Positions,
		Cache:        priceCache,
		Prices:       jupiterClient,
		SummaryDepth: cfg.Indexer.MaxHistoricalTransactions,
	}, logger)

	deps.Manager = indexer.NewManager(lyslabsClient, heliusClient, writer, deps.Registry, indexer.ManagerConfig{
		ChannelCapacity: cfg.Indexer.ChannelCapacity,
		HistoryMax:      cfg.Indexer.MaxHistoricalTransactions,
	}, logger)

	// --- Services and HTTP ---
	engine := conviction.NewEngine()
	walletSvc := service.NewWalletService(deps.Summaries, deps.Transactions, deps.Positions, logger)
	convictionSvc := service.NewConvictionService(deps.Positions, polymarketClient, engine, cfg.DemoMode, logger)
	detector := conviction.NewDetector(convictionSvc, polymarketClient, engine, logger)

	deps.Server = server.NewServer(server.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, server.Handlers{
		Health: handler.NewHealthHandler(chClient, logger),
		User:   handler.NewUserHandler(walletSvc, convictionSvc, logger),
		Index:  handler.NewIndexHandler(deps.Manager, logger),
		Market: handler.NewMarketHandler(detector, logger),
	}, logger)

	return deps, cleanup, nil
}
