// Package web implements the HTTP service: the Fiber application, its
// middleware stack and the registration of all REST handlers.
package web

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/guardpost/guardpost/internal/auth"
	"github.com/guardpost/guardpost/internal/cache"
	"github.com/guardpost/guardpost/internal/config"
	accesslog "github.com/guardpost/guardpost/internal/logger/adapter/fiber"
	"github.com/guardpost/guardpost/internal/media"
	authhandler "github.com/guardpost/guardpost/internal/web/handler/auth"
	healthhandler "github.com/guardpost/guardpost/internal/web/handler/health"
	mediahandler "github.com/guardpost/guardpost/internal/web/handler/media"
	permissionhandler "github.com/guardpost/guardpost/internal/web/handler/permission"
	rolehandler "github.com/guardpost/guardpost/internal/web/handler/role"
	userhandler "github.com/guardpost/guardpost/internal/web/handler/user"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
	authService  *auth.Service
}

// Addr returns the listen address derived from the configuration.
func (s *Service) Addr() string {
	return fmt.Sprintf(":%d", s.cfg.Webserver.Port)
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for SIGINT/SIGTERM and shuts the service down.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: fail the health endpoint first,
	// so load balancers remove this instance from active targets.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 for %d seconds to let LB remove this instance from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, db *gorm.DB, cacheService *cache.Service, mediaService *media.Service) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
		},
	)

	app.Use(recover.New())
	app.Use(requestid.New())

	app.Use(accesslog.New(accesslog.Config{
		Config:    cfg.Log,
		HealthURI: healthhandler.Path,
	}))

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	authService := auth.NewService(db, tokens)

	service := &Service{
		cfg:         cfg,
		App:         app,
		db:          db,
		authService: authService,
	}
	service.alive.Store(true)

	// init handlers (they register their own routes with guards)
	healthhandler.Handler.Init(app, cfg, db, cacheService, &service.alive)
	authhandler.Handler.Init(app, cfg, db, authService, tokens)
	userhandler.Handler.Init(app, cfg, db, authService, tokens)
	rolehandler.Handler.Init(app, cfg, db, authService, tokens)
	permissionhandler.Handler.Init(app, cfg, db, authService, tokens)
	mediahandler.Handler.Init(app, cfg, mediaService, authService, tokens)

	return service
}
