package repository

import (
	"context"

	"headwear_backend/internal/catalog/domain"
)

// Reader is the read-only catalog store used by the loader.
type Reader interface {
	ListPricingTiers(ctx context.Context) ([]domain.PricingTier, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListLogoMethods(ctx context.Context) ([]domain.LogoMethod, error)
	ListPremiumFabrics(ctx context.Context) ([]domain.Item, error)
	ListPremiumClosures(ctx context.Context) ([]domain.Item, error)
	ListAccessories(ctx context.Context) ([]domain.Item, error)
	ListDeliveryMethods(ctx context.Context) ([]domain.DeliveryMethod, error)
}

// Repository adds bootstrap seeding to Reader.
type Repository interface {
	Reader
	CountProducts(ctx context.Context) (int, error)
	Seed(ctx context.Context, c *domain.Catalog) error
}
