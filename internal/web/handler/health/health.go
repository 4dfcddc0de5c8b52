// Package health provides the readiness endpoint used by load balancers.
package health

import (
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/guardpost/guardpost/internal/cache"
	"github.com/guardpost/guardpost/internal/config"
	"github.com/guardpost/guardpost/internal/web/handler"
	"github.com/guardpost/guardpost/internal/web/response"
)

// Path is the health check endpoint path.
const Path = handler.RootPath + "health"

const (
	statusUp   = "up"
	statusDown = "down"
)

// Service provides the health endpoint.
type Service struct {
	cfg          *config.Config
	db           *gorm.DB
	cacheService *cache.Service
	alive        *atomic.Bool
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes. The health endpoint is unauthenticated.
func (s *Service) Init(
	app *fiber.App, cfg *config.Config, db *gorm.DB, cacheService *cache.Service, alive *atomic.Bool,
) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.cacheService = cacheService
	s.alive = alive

	app.Get(Path, s.Check)
}

// Check pings the database and the cache backend. During graceful
// shutdown it reports unavailable so load balancers drain this instance.
func (s *Service) Check(c *fiber.Ctx) error {
	if s.alive != nil && !s.alive.Load() {
		return response.Fail(c, fiber.StatusServiceUnavailable, "shutting down")
	}

	checks := fiber.Map{
		"database": statusUp,
		"cache":    statusUp,
	}
	healthy := true

	if err := s.pingDatabase(); err != nil {
		log.Error().Err(err).Msg("database health check failed")

		checks["database"] = statusDown
		healthy = false
	}

	if s.cacheService != nil {
		if err := s.cacheService.Ping(); err != nil {
			log.Error().Err(err).Msg("cache health check failed")

			checks["cache"] = statusDown
			healthy = false
		}
	}

	if !healthy {
		return response.Fail(c, fiber.StatusServiceUnavailable, "service unhealthy")
	}

	return response.Success(c, fiber.StatusOK, fiber.Map{
		"status": "ok",
		"checks": checks,
	})
}

func (s *Service) pingDatabase() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}
