package repository

import (
	"context"
	"fmt"

	"headwear_backend/internal/catalog/domain"
	"headwear_backend/internal/pricing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo implements the catalog repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new catalog repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// ListPricingTiers returns every tier ordered by name.
func (r *Repo) ListPricingTiers(ctx context.Context) ([]domain.PricingTier, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, breaks FROM pricing_tiers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list pricing tiers: %w", err)
	}
	defer rows.Close()

	tiers := make([]domain.PricingTier, 0)
	for rows.Next() {
		var t domain.PricingTier
		if err := rows.Scan(&t.ID, &t.Name, &t.Breaks); err != nil {
			return nil, fmt.Errorf("scan pricing tier: %w", err)
		}
		tiers = append(tiers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pricing tiers: %w", err)
	}
	return tiers, nil
}

// ListProducts returns active products in catalog order.
func (r *Repo) ListProducts(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT p.id, p.code, p.name, COALESCE(p.panel_count, 0), COALESCE(p.structure, ''),
			COALESCE(p.profile, ''), COALESCE(t.name, ''), p.breaks
		FROM products p
		LEFT JOIN pricing_tiers t ON t.id = p.pricing_tier_id
		WHERE p.active
		ORDER BY p.created_at, p.code`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.PanelCount, &p.Structure, &p.Profile, &p.TierName, &p.Breaks); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// ListLogoMethods returns every logo method and size.
func (r *Repo) ListLogoMethods(ctx context.Context) ([]domain.LogoMethod, error) {
	query := `
		SELECT m.id, m.name, m.size, COALESCE(m.application, ''), COALESCE(t.name, ''), m.breaks
		FROM logo_methods m
		LEFT JOIN pricing_tiers t ON t.id = m.pricing_tier_id
		ORDER BY m.name, m.size`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list logo methods: %w", err)
	}
	defer rows.Close()

	methods := make([]domain.LogoMethod, 0)
	for rows.Next() {
		var m domain.LogoMethod
		if err := rows.Scan(&m.ID, &m.Name, &m.Size, &m.Application, &m.TierName, &m.Breaks); err != nil {
			return nil, fmt.Errorf("scan logo method: %w", err)
		}
		methods = append(methods, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate logo methods: %w", err)
	}
	return methods, nil
}

// ListPremiumFabrics returns fabric upgrades.
func (r *Repo) ListPremiumFabrics(ctx context.Context) ([]domain.Item, error) {
	return r.listItems(ctx, "premium_fabrics")
}

// ListPremiumClosures returns closure upgrades.
func (r *Repo) ListPremiumClosures(ctx context.Context) ([]domain.Item, error) {
	return r.listItems(ctx, "premium_closures")
}

// ListAccessories returns accessories.
func (r *Repo) ListAccessories(ctx context.Context) ([]domain.Item, error) {
	return r.listItems(ctx, "accessories")
}

// listItems reads one of the name + breaks tables. table is always a constant.
func (r *Repo) listItems(ctx context.Context, table string) ([]domain.Item, error) {
	query := fmt.Sprintf(`
		SELECT i.id, i.name, COALESCE(t.name, ''), i.breaks
		FROM %s i
		LEFT JOIN pricing_tiers t ON t.id = i.pricing_tier_id
		ORDER BY i.name`, table)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	items := make([]domain.Item, 0)
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.TierName, &it.Breaks); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return items, nil
}

// ListDeliveryMethods returns delivery options.
func (r *Repo) ListDeliveryMethods(ctx context.Context) ([]domain.DeliveryMethod, error) {
	query := `
		SELECT d.id, d.name, d.type, COALESCE(d.lead_time, ''), COALESCE(t.name, ''), d.breaks
		FROM delivery_methods d
		LEFT JOIN pricing_tiers t ON t.id = d.pricing_tier_id
		ORDER BY d.created_at, d.name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list delivery methods: %w", err)
	}
	defer rows.Close()

	methods := make([]domain.DeliveryMethod, 0)
	for rows.Next() {
		var d domain.DeliveryMethod
		if err := rows.Scan(&d.ID, &d.Name, &d.Type, &d.LeadTime, &d.TierName, &d.Breaks); err != nil {
			return nil, fmt.Errorf("scan delivery method: %w", err)
		}
		methods = append(methods, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate delivery methods: %w", err)
	}
	return methods, nil
}

// CountProducts returns the number of products, active or not.
func (r *Repo) CountProducts(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// Seed writes a catalog document in one transaction. Existing rows are kept.
func (r *Repo) Seed(ctx context.Context, c *domain.Catalog) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin catalog seed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tierIDs := make(map[string]uuid.UUID, len(c.Tiers))
	for _, t := range c.Tiers {
		var id uuid.UUID
		err := tx.QueryRow(ctx, `
			INSERT INTO pricing_tiers (name, breaks) VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET breaks = pricing_tiers.breaks
			RETURNING id`, t.Name, t.Breaks).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed tier %s: %w", t.Name, err)
		}
		tierIDs[t.Name] = id
	}

	// Entries that reference a tier are stored without their own breaks.
	own := func(it domain.Item) (pricing.Breaks, *uuid.UUID) {
		if id, ok := tierIDs[it.TierName]; ok {
			return pricing.Breaks{}, &id
		}
		if it.Breaks == nil {
			return pricing.Breaks{}, nil
		}
		return it.Breaks, nil
	}

	batch := &pgx.Batch{}
	for _, p := range c.Products {
		breaks, tierID := own(p.Item)
		batch.Queue(`
			INSERT INTO products (code, name, panel_count, structure, profile, pricing_tier_id, breaks)
			VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (code) DO NOTHING`,
			p.Code, p.Name, p.PanelCount, p.Structure, p.Profile, tierID, breaks)
	}
	for _, m := range c.LogoMethods {
		breaks, tierID := own(m.Item)
		batch.Queue(`
			INSERT INTO logo_methods (name, size, application, pricing_tier_id, breaks)
			VALUES ($1, $2, $3, $4, $5) ON CONFLICT (name, size) DO NOTHING`,
			m.Name, m.Size, m.Application, tierID, breaks)
	}
	for table, items := range map[string][]domain.Item{
		"premium_fabrics":  c.PremiumFabrics,
		"premium_closures": c.PremiumClosures,
		"accessories":      c.Accessories,
	} {
		for _, it := range items {
			breaks, tierID := own(it)
			batch.Queue(fmt.Sprintf(`
				INSERT INTO %s (name, pricing_tier_id, breaks)
				VALUES ($1, $2, $3) ON CONFLICT (name) DO NOTHING`, table),
				it.Name, tierID, breaks)
		}
	}
	for _, d := range c.DeliveryMethods {
		breaks, tierID := own(d.Item)
		batch.Queue(`
			INSERT INTO delivery_methods (name, type, lead_time, pricing_tier_id, breaks)
			VALUES ($1, $2, $3, $4, $5) ON CONFLICT (name) DO NOTHING`,
			d.Name, d.Type, d.LeadTime, tierID, breaks)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("seed catalog entries: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit catalog seed: %w", err)
	}
	return nil
}
