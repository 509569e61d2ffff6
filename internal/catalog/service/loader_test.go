package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"headwear_backend/internal/catalog/domain"
	"headwear_backend/internal/pricing"
	"headwear_backend/platform/apperr"
)

type fakeReader struct {
	calls      int
	productErr error
}

func (f *fakeReader) ListPricingTiers(context.Context) ([]domain.PricingTier, error) {
	f.calls++
	return []domain.PricingTier{{Name: "Tier 1", Breaks: pricing.Breaks{{MinQty: 48, UnitPrice: 3.6}, {MinQty: 144, UnitPrice: 3}}}}, nil
}

func (f *fakeReader) ListProducts(context.Context) ([]domain.Product, error) {
	if f.productErr != nil {
		return nil, f.productErr
	}
	return []domain.Product{{Item: domain.Item{Name: "6P AirFrame", TierName: "Tier 1"}, Code: "6P-AF"}}, nil
}

func (f *fakeReader) ListLogoMethods(context.Context) ([]domain.LogoMethod, error) {
	return nil, nil
}

func (f *fakeReader) ListPremiumFabrics(context.Context) ([]domain.Item, error) { return nil, nil }

func (f *fakeReader) ListPremiumClosures(context.Context) ([]domain.Item, error) { return nil, nil }

func (f *fakeReader) ListAccessories(context.Context) ([]domain.Item, error) { return nil, nil }

func (f *fakeReader) ListDeliveryMethods(context.Context) ([]domain.DeliveryMethod, error) {
	return nil, nil
}

func TestLoaderResolvesTierBreaksAndCaches(t *testing.T) {
	repo := &fakeReader{}
	loader := NewLoader(repo, time.Minute, nil)

	c, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Products) != 1 || len(c.Products[0].Breaks) != 2 {
		t.Fatalf("expected tier breaks on product, got %+v", c.Products)
	}

	if _, err := loader.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.calls != 1 {
		t.Fatalf("expected cached catalog, store read %d times", repo.calls)
	}

	loader.Invalidate()
	if _, err := loader.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.calls != 2 {
		t.Fatalf("expected reload after invalidate, store read %d times", repo.calls)
	}
}

func TestLoaderExpiresAfterTTL(t *testing.T) {
	repo := &fakeReader{}
	loader := NewLoader(repo, time.Minute, nil)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	loader.now = func() time.Time { return now }

	if _, err := loader.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := loader.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.calls != 2 {
		t.Fatalf("expected reload after ttl, store read %d times", repo.calls)
	}
}

func TestLoaderWrapsStoreFailureAsDependency(t *testing.T) {
	loader := NewLoader(&fakeReader{productErr: errors.New("connection refused")}, time.Minute, nil)

	_, err := loader.Load(context.Background())
	if !apperr.Is(err, apperr.KindDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
