// Package daemon wires configuration, database, seed data and the web
// service into a runnable application.
package daemon

import (
	"github.com/gofiber/fiber/v2"
	storagememory "github.com/gofiber/storage/memory/v2"
	storageredis "github.com/gofiber/storage/redis/v3"
	storages3 "github.com/gofiber/storage/s3/v2"
	"github.com/rs/zerolog/log"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/guardpost/guardpost/internal/cache"
	"github.com/guardpost/guardpost/internal/config"
	"github.com/guardpost/guardpost/internal/db/dsn"
	"github.com/guardpost/guardpost/internal/db/models"
	"github.com/guardpost/guardpost/internal/logger"
	"github.com/guardpost/guardpost/internal/media"
	"github.com/guardpost/guardpost/internal/web"
)

// Daemon represents the main application daemon.
type Daemon struct {
	webService *web.Service
}

// Start starts the Daemon's web service and blocks until shutdown.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	return d.webService.Start(d.webService.Addr())
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	if err := logger.Init(cfg.Log); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize logging")
		return nil
	}

	dbDriver := gormpostgres.Open(dsn.Create(cfg))

	// TranslateError maps driver duplicate-key errors to gorm.ErrDuplicatedKey,
	// which the controllers and the seeder rely on.
	db, err := gorm.Open(dbDriver, &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
		return nil
	}

	if err = db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Permission{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
		return nil
	}

	if err = seed(db); err != nil {
		log.Fatal().Err(err).Msg("failed to seed database")
		return nil
	}

	cacheService := cache.New(cacheStorage(cfg))
	mediaService := media.New(mediaStorage(cfg))

	return &Daemon{
		webService: web.New(cfg, db, cacheService, mediaService),
	}
}

// cacheStorage selects the cache backend. Without a Redis URL the cache
// falls back to process memory, which is only suitable for development.
func cacheStorage(cfg *config.Config) fiber.Storage {
	if cfg.Cache.RedisURL == "" {
		log.Warn().Msg("no redis url configured: using in-memory cache")

		return storagememory.New()
	}

	return storageredis.New(storageredis.Config{
		URL:   cfg.Cache.RedisURL,
		Reset: false,
	})
}

// mediaStorage selects the media backend. Without a bucket the media
// store falls back to process memory, which is only suitable for
// development.
func mediaStorage(cfg *config.Config) fiber.Storage {
	if cfg.Media.Bucket == "" {
		log.Warn().Msg("no media bucket configured: using in-memory media storage")

		return storagememory.New()
	}

	return storages3.New(storages3.Config{
		Bucket:   cfg.Media.Bucket,
		Endpoint: cfg.Media.Endpoint,
		Region:   cfg.Media.Region,
		Credentials: storages3.Credentials{
			AccessKey:       cfg.Media.AccessKey,
			SecretAccessKey: cfg.Media.SecretKey,
		},
	})
}
