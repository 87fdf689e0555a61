package main

import (
	"context"
	"fmt"
	"log/slog"

	"casefile/internal/casefile/service"
	"casefile/internal/casefile/store/cache"
	"casefile/internal/casefile/store/cases"
	"casefile/internal/casefile/store/migrations"
	"casefile/internal/casefile/store/victims"
	"casefile/internal/platform/config"
	"casefile/internal/platform/mongo"
	"casefile/internal/platform/postgres"
	"casefile/internal/platform/redis"
	"casefile/pkg/platform/circuit"
)

// backend bundles the stores of one driver with the hooks main needs to
// report health and release connections.
type backend struct {
	victims service.VictimStore
	cases   service.CaseStore
	tx      service.StoreTx
	checks  map[string]func(context.Context) error
	closers []func(context.Context) error
}

func (b *backend) addCheck(name string, fn func(context.Context) error) {
	if b.checks == nil {
		b.checks = make(map[string]func(context.Context) error)
	}
	b.checks[name] = fn
}

func (b *backend) Close(ctx context.Context) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i](ctx)
	}
}

func openBackend(ctx context.Context, cfg config.Server, logger *slog.Logger) (*backend, error) {
	var (
		b   *backend
		err error
	)
	switch cfg.Store.Driver {
	case config.DriverMemory, "":
		b = &backend{
			victims: victims.NewInMemory(),
			cases:   cases.NewInMemory(),
			tx:      service.NewInMemoryStoreTx(),
		}
	case config.DriverPostgres:
		b, err = openPostgres(ctx, cfg.Postgres)
	case config.DriverMongo:
		b, err = openMongo(ctx, cfg.Mongo)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := withCache(ctx, b, cfg.Redis, logger); err != nil {
		b.Close(ctx)
		return nil, err
	}
	return b, nil
}

func openPostgres(ctx context.Context, cfg config.PostgresConfig) (*backend, error) {
	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := postgres.Migrate(ctx, db, migrations.Migrations); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	b := &backend{
		victims: victims.NewPostgres(db),
		cases:   cases.NewPostgres(db),
		tx:      postgres.NewTxManager(db),
	}
	b.addCheck("postgres", db.PingContext)
	b.closers = append(b.closers, func(context.Context) error { return db.Close() })
	return b, nil
}

func openMongo(ctx context.Context, cfg config.MongoConfig) (*backend, error) {
	client, err := mongo.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	victimStore := victims.NewMongo(client.DB)
	caseStore := cases.NewMongo(client.DB)
	for _, ensure := range []func(context.Context) error{victimStore.EnsureIndexes, caseStore.EnsureIndexes} {
		if err := ensure(ctx); err != nil {
			_ = client.Close(ctx)
			return nil, err
		}
	}

	b := &backend{
		victims: victimStore,
		cases:   caseStore,
		tx:      client,
	}
	b.addCheck("mongo", client.Health)
	b.closers = append(b.closers, client.Close)
	return b, nil
}

// withCache wraps the stores in the redis read-through cache when configured.
func withCache(ctx context.Context, b *backend, cfg config.RedisConfig, logger *slog.Logger) error {
	rc, err := redis.New(ctx, cfg)
	if err != nil {
		return err
	}
	if rc == nil {
		return nil
	}

	opts := []cache.Option{
		cache.WithLogger(logger),
		cache.WithBreaker(circuit.New("redis-cache")),
	}
	if cfg.CacheTTL > 0 {
		opts = append(opts, cache.WithTTL(cfg.CacheTTL))
	}
	b.victims = cache.NewVictims(b.victims, rc.Client, opts...)
	b.cases = cache.NewCases(b.cases, rc.Client, opts...)
	b.tx = cache.NewTx(b.tx, rc.Client, opts...)
	b.addCheck("redis", rc.Health)
	b.closers = append(b.closers, func(context.Context) error { return rc.Close() })
	return nil
}
