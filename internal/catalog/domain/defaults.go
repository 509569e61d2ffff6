package domain

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var loadDefaults = sync.OnceValues(func() (*Catalog, error) {
	return Parse(defaultsYAML)
})

// Defaults returns the built-in catalog used when the store is unavailable
// or missing an entry. Callers must not modify the result.
func Defaults() (*Catalog, error) {
	return loadDefaults()
}

// MustDefaults is Defaults for wiring code where the embedded file is known good.
func MustDefaults() *Catalog {
	c, err := Defaults()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse decodes a YAML catalog document and resolves tier references.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog yaml: %w", err)
	}
	c.ResolveBreaks()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.Source = SourceDefaults
	return &c, nil
}

// Validate checks that every entry can be priced.
func (c *Catalog) Validate() error {
	check := func(kind, name string, it Item) error {
		if err := it.Breaks.Validate(); err != nil {
			return fmt.Errorf("%s %q: %w", kind, name, err)
		}
		return nil
	}
	for _, t := range c.Tiers {
		if err := check("tier", t.Name, Item{Name: t.Name, Breaks: t.Breaks}); err != nil {
			return err
		}
	}
	for _, p := range c.Products {
		if err := check("product", p.Code, p.Item); err != nil {
			return err
		}
	}
	for _, m := range c.LogoMethods {
		if err := check("logo method", m.Name+" "+m.Size, m.Item); err != nil {
			return err
		}
	}
	for _, group := range []struct {
		kind  string
		items []Item
	}{{"premium fabric", c.PremiumFabrics}, {"premium closure", c.PremiumClosures}, {"accessory", c.Accessories}} {
		for _, it := range group.items {
			if err := check(group.kind, it.Name, it); err != nil {
				return err
			}
		}
	}
	for _, d := range c.DeliveryMethods {
		if err := check("delivery method", d.Name, d.Item); err != nil {
			return err
		}
	}
	return nil
}
