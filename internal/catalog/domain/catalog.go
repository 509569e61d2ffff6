// Package domain holds the in-memory pricing catalog and its lookup rules.
package domain

import (
	"strings"
	"time"

	"headwear_backend/internal/pricing"

	"github.com/google/uuid"
)

// Source tells where a loaded catalog came from.
type Source string

const (
	SourceStore    Source = "store"
	SourceDefaults Source = "defaults"
)

// PricingTier is a named break-price table shared by catalog entries.
type PricingTier struct {
	ID     uuid.UUID      `json:"id" yaml:"-"`
	Name   string         `json:"name" yaml:"name"`
	Breaks pricing.Breaks `json:"breaks" yaml:"breaks"`
}

// Item is the common shape of every priced catalog entry. Breaks is empty
// when the entry only references a tier; the loader resolves it.
type Item struct {
	ID       uuid.UUID      `json:"id" yaml:"-"`
	Name     string         `json:"name" yaml:"name"`
	TierName string         `json:"tierName,omitempty" yaml:"tier,omitempty"`
	Breaks   pricing.Breaks `json:"breaks" yaml:"breaks,omitempty"`
}

// PriceBreaks implements pricing.Priced.
func (i Item) PriceBreaks() pricing.Breaks { return i.Breaks }

// Product is a blank cap style.
type Product struct {
	Item       `yaml:",inline"`
	Code       string `json:"code" yaml:"code"`
	PanelCount int    `json:"panelCount,omitempty" yaml:"panelCount,omitempty"`
	Structure  string `json:"structure,omitempty" yaml:"structure,omitempty"`
	Profile    string `json:"profile,omitempty" yaml:"profile,omitempty"`
}

// LogoMethod is a decoration technique priced per size.
type LogoMethod struct {
	Item        `yaml:",inline"`
	Size        string `json:"size" yaml:"size"`
	Application string `json:"application,omitempty" yaml:"application,omitempty"`
}

// DeliveryMethod is a shipping option priced per unit.
type DeliveryMethod struct {
	Item     `yaml:",inline"`
	Type     string `json:"type" yaml:"type"`
	LeadTime string `json:"leadTime,omitempty" yaml:"leadTime,omitempty"`
}

// Catalog is the reference data consumed by pricing. It is never mutated
// after loading.
type Catalog struct {
	Tiers           []PricingTier    `json:"tiers" yaml:"tiers"`
	Products        []Product        `json:"products" yaml:"products"`
	LogoMethods     []LogoMethod     `json:"logoMethods" yaml:"logoMethods"`
	PremiumFabrics  []Item           `json:"premiumFabrics" yaml:"premiumFabrics"`
	PremiumClosures []Item           `json:"premiumClosures" yaml:"premiumClosures"`
	Accessories     []Item           `json:"accessories" yaml:"accessories"`
	DeliveryMethods []DeliveryMethod `json:"deliveryMethods" yaml:"deliveryMethods"`
	Source          Source           `json:"source" yaml:"-"`
	LoadedAt        time.Time        `json:"loadedAt" yaml:"-"`
}

// IsEmpty reports whether the catalog has no products to quote against.
func (c *Catalog) IsEmpty() bool {
	return c == nil || len(c.Products) == 0
}

// Tier returns the tier with the given name, case-insensitively.
func (c *Catalog) Tier(name string) (PricingTier, bool) {
	for _, t := range c.Tiers {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return PricingTier{}, false
}

// ResolveBreaks fills every entry's Breaks from its tier when the entry has
// none of its own. Entries whose tier is unknown keep an empty table.
func (c *Catalog) ResolveBreaks() {
	resolve := func(item *Item) {
		if len(item.Breaks) > 0 || item.TierName == "" {
			return
		}
		if tier, ok := c.Tier(item.TierName); ok {
			item.Breaks = tier.Breaks
		}
	}
	for i := range c.Products {
		resolve(&c.Products[i].Item)
	}
	for i := range c.LogoMethods {
		resolve(&c.LogoMethods[i].Item)
	}
	for i := range c.PremiumFabrics {
		resolve(&c.PremiumFabrics[i])
	}
	for i := range c.PremiumClosures {
		resolve(&c.PremiumClosures[i])
	}
	for i := range c.Accessories {
		resolve(&c.Accessories[i])
	}
	for i := range c.DeliveryMethods {
		resolve(&c.DeliveryMethods[i].Item)
	}
}
