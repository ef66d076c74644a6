package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/richxcame/fleet/internal/documents"
	"github.com/richxcame/fleet/internal/vehicle"
	"github.com/richxcame/fleet/pkg/cache"
	"github.com/richxcame/fleet/pkg/config"
	"github.com/richxcame/fleet/pkg/database"
	"github.com/richxcame/fleet/pkg/eventbus"
	"github.com/richxcame/fleet/pkg/logger"
	redisclient "github.com/richxcame/fleet/pkg/redis"
	"github.com/richxcame/fleet/pkg/resilience"
	"github.com/richxcame/fleet/pkg/storage"
	"github.com/richxcame/fleet/pkg/validation"
	"go.uber.org/zap"
)

type deps struct {
	db      *pgxpool.Pool
	redis   *redisclient.Client
	bus     *eventbus.Bus
	service *vehicle.Service
}

// buildDeps wires the vehicle service the same way the server does. The
// redis cache is attached so submissions evict the server's cached record.
func buildDeps(ctx context.Context, cfg *config.Config, opts ...vehicle.Option) (*deps, error) {
	db, err := database.NewPostgresPool(ctx, &cfg.Database, serviceName)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	objectStore, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		database.Close(db)
		return nil, fmt.Errorf("initialize object storage: %w", err)
	}
	var store storage.Storage = objectStore
	if cfg.Resilience.CircuitBreaker.Enabled {
		store = storage.NewGuarded(objectStore, resilience.NewCircuitBreaker(
			resilience.SettingsFromConfig("object-storage", cfg.Resilience.CircuitBreaker),
		))
	}

	d := &deps{db: db}
	var cacheStore cache.Store
	if cfg.Redis.Enabled {
		client, err := redisclient.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, cached vehicle records will not be evicted", zap.Error(err))
		} else {
			d.redis = client
			cacheStore = client
		}
	}
	opts = append(serviceOptions(cfg, cacheStore), opts...)

	if cfg.NATS.Enabled {
		bus, err := connectBus(cfg)
		if err != nil {
			logger.Warn("event bus unavailable, submitting without events", zap.Error(err))
		} else {
			d.bus = bus
			opts = append(opts, vehicle.WithEvents(bus))
		}
	}

	d.service = vehicle.NewService(vehicle.NewRepository(db), documents.NewReconciler(store), store, opts...)
	return d, nil
}

func (d *deps) Close() {
	if d.bus != nil {
		d.bus.Close()
	}
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
	database.Close(d.db)
}

// serviceOptions returns the options shared by every command that writes vehicles
func serviceOptions(cfg *config.Config, cacheStore cache.Store) []vehicle.Option {
	opts := []vehicle.Option{
		vehicle.WithUploadRules(validation.UploadRules{
			MaxFileSize:         cfg.Uploads.MaxFileSizeBytes(),
			MaxFilesPerCategory: cfg.Uploads.MaxFilesPerCategory,
			AllowedContentTypes: cfg.Uploads.AllowedContentTypes,
		}),
	}
	if cacheStore != nil {
		opts = append(opts, vehicle.WithCache(cache.NewManager(cacheStore), cfg.Redis.CacheTTL()))
	}
	return opts
}

func connectBus(cfg *config.Config) (*eventbus.Bus, error) {
	busCfg := eventbus.DefaultConfig()
	busCfg.URL = cfg.NATS.URL
	busCfg.Name = serviceName
	busCfg.StreamName = cfg.NATS.StreamName
	return eventbus.New(busCfg)
}
