// Package catalog provides the pricing catalog bounded context module.
package catalog

import (
	"context"
	"time"

	"headwear_backend/internal/catalog/handler"
	"headwear_backend/internal/catalog/repository"
	"headwear_backend/internal/catalog/service"
	apphttp "headwear_backend/internal/http"
	"headwear_backend/platform/logger"
	"headwear_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the catalog bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	loader  *service.Loader
	repo    repository.Repository
	log     *logger.Logger
}

// NewModule creates and initializes the catalog module.
func NewModule(pool *pgxpool.Pool, cacheTTL time.Duration, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	loader := service.NewLoader(repo, cacheTTL, log)

	return &Module{
		handler: handler.New(loader, val),
		loader:  loader,
		repo:    repo,
		log:     log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "catalog"
}

// Loader returns the cached catalog loader shared with the quote builder.
func (m *Module) Loader() *service.Loader {
	return m.loader
}

// SeedDefaults fills an empty catalog store with the built-in price list.
func (m *Module) SeedDefaults(ctx context.Context) error {
	return service.SeedIfEmpty(ctx, m.repo, m.log)
}

// RegisterRoutes mounts catalog routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/catalog", m.handler.GetCatalog)
	ctx.V1.GET("/catalog/price", m.handler.GetPrice)

	ctx.Admin.POST("/catalog/reload", m.handler.Reload)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
