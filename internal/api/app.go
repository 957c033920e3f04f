package api

import (
	"github.com/felixgeelhaar/codemastery/internal/api/middleware"
	"github.com/felixgeelhaar/codemastery/internal/auth"
	"github.com/felixgeelhaar/codemastery/internal/catalog"
	"github.com/felixgeelhaar/codemastery/internal/config"
	"github.com/felixgeelhaar/codemastery/internal/grading"
	"github.com/felixgeelhaar/codemastery/internal/progress"
	"github.com/felixgeelhaar/codemastery/internal/repository"
	"github.com/felixgeelhaar/codemastery/internal/storage"
	"github.com/felixgeelhaar/codemastery/internal/users"
)

// Version is set at build time via ldflags
var Version = "dev"

// App holds all application dependencies
type App struct {
	Config   *config.Config
	DB       *storage.DB
	Auth     *auth.Service
	Users    *users.Service
	Catalog  *catalog.Service
	Grading  *grading.Service
	Progress *progress.Service
	Limiter  *middleware.RateLimiter
}

// NewApp creates a new application instance with all dependencies wired
func NewApp(cfg *config.Config, db *storage.DB) *App {
	uow := repository.NewSQLUnitOfWork(db)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)

	return &App{
		Config:   cfg,
		DB:       db,
		Auth:     auth.NewService(uow, tokens, cfg.BcryptCost),
		Users:    users.NewService(uow),
		Catalog:  catalog.NewService(uow),
		Grading:  grading.NewService(uow),
		Progress: progress.NewService(uow),
		Limiter:  middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
}

// Close cleans up application resources
func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
