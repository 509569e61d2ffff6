// Package service loads the pricing catalog from the store and caches it.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"headwear_backend/internal/catalog/domain"
	"headwear_backend/internal/catalog/repository"
	"headwear_backend/platform/apperr"
	"headwear_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

// Loader reads the six catalog collections and keeps the result for ttl.
type Loader struct {
	repo repository.Reader
	ttl  time.Duration
	log  *logger.Logger
	now  func() time.Time

	mu     sync.Mutex
	cached *domain.Catalog
	expiry time.Time
}

// NewLoader creates a loader. A zero ttl disables caching.
func NewLoader(repo repository.Reader, ttl time.Duration, log *logger.Logger) *Loader {
	if log == nil {
		log = logger.Nop()
	}
	return &Loader{repo: repo, ttl: ttl, log: log, now: time.Now}
}

// Load returns the cached catalog or reads a fresh one. A read failure is a
// dependency error; callers decide whether to fall back to domain.Defaults.
func (l *Loader) Load(ctx context.Context) (*domain.Catalog, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cached != nil && l.now().Before(l.expiry) {
		return l.cached, nil
	}

	c, err := l.read(ctx)
	if err != nil {
		l.log.DatabaseError("load catalog", err)
		return nil, apperr.Dependency("pricing catalog unavailable", err).WithOp("catalog.Load")
	}

	l.cached = c
	l.expiry = l.now().Add(l.ttl)
	l.log.Debug("catalog loaded",
		slog.Int("products", len(c.Products)),
		slog.Int("logoMethods", len(c.LogoMethods)),
		slog.Int("accessories", len(c.Accessories)),
	)
	return c, nil
}

// Invalidate drops the cached catalog.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cached = nil
}

func (l *Loader) read(ctx context.Context) (*domain.Catalog, error) {
	c := &domain.Catalog{Source: domain.SourceStore}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		c.Tiers, err = l.repo.ListPricingTiers(gctx)
		return err
	})
	g.Go(func() (err error) {
		c.Products, err = l.repo.ListProducts(gctx)
		return err
	})
	g.Go(func() (err error) {
		c.LogoMethods, err = l.repo.ListLogoMethods(gctx)
		return err
	})
	g.Go(func() (err error) {
		c.PremiumFabrics, err = l.repo.ListPremiumFabrics(gctx)
		return err
	})
	g.Go(func() (err error) {
		c.PremiumClosures, err = l.repo.ListPremiumClosures(gctx)
		return err
	})
	g.Go(func() (err error) {
		c.Accessories, err = l.repo.ListAccessories(gctx)
		return err
	})
	g.Go(func() (err error) {
		c.DeliveryMethods, err = l.repo.ListDeliveryMethods(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.ResolveBreaks()
	c.LoadedAt = l.now()
	return c, nil
}

// SeedIfEmpty writes the built-in catalog when the store has no products.
func SeedIfEmpty(ctx context.Context, repo repository.Repository, log *logger.Logger) error {
	n, err := repo.CountProducts(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	defaults, err := domain.Defaults()
	if err != nil {
		return fmt.Errorf("load default catalog: %w", err)
	}
	if err := repo.Seed(ctx, defaults); err != nil {
		return err
	}
	log.Info("seeded pricing catalog from defaults", slog.Int("products", len(defaults.Products)))
	return nil
}
