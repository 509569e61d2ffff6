package domain

import "strings"

func contains(haystack, needle string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), needle)
}

// FindProduct picks the quote's base cap: exact code first, then a product
// whose name contains name and whose structure matches, then the first product.
func (c *Catalog) FindProduct(code, name, structure string) (Product, bool) {
	if c == nil || len(c.Products) == 0 {
		return Product{}, false
	}
	for _, p := range c.Products {
		if code != "" && strings.EqualFold(p.Code, code) {
			return p, true
		}
	}
	for _, p := range c.Products {
		if contains(p.Name, name) && (structure == "" || strings.EqualFold(p.Structure, structure)) {
			return p, true
		}
	}
	return c.Products[0], true
}

// FindPremiumFabric returns the premium fabric whose name contains fabric.
func (c *Catalog) FindPremiumFabric(fabric string) (Item, bool) {
	return findItem(c.PremiumFabrics, fabric)
}

// FindPremiumClosure returns the premium closure whose name contains closure.
func (c *Catalog) FindPremiumClosure(closure string) (Item, bool) {
	return findItem(c.PremiumClosures, closure)
}

func findItem(items []Item, name string) (Item, bool) {
	for _, it := range items {
		if contains(it.Name, name) {
			return it, true
		}
	}
	return Item{}, false
}

// FindLogoMethod returns the method whose name contains method and whose
// size contains size.
func (c *Catalog) FindLogoMethod(method, size string) (LogoMethod, bool) {
	for _, m := range c.LogoMethods {
		if contains(m.Name, method) && contains(m.Size, size) {
			return m, true
		}
	}
	return LogoMethod{}, false
}

// FindAccessory matches when either name contains the other.
func (c *Catalog) FindAccessory(name string) (Item, bool) {
	for _, a := range c.Accessories {
		if contains(a.Name, name) || contains(name, a.Name) {
			return a, true
		}
	}
	return Item{}, false
}

// FindDelivery prefers an exact name, then a matching type, then the first method.
func (c *Catalog) FindDelivery(name, kind string) (DeliveryMethod, bool) {
	if c == nil || len(c.DeliveryMethods) == 0 {
		return DeliveryMethod{}, false
	}
	for _, d := range c.DeliveryMethods {
		if strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	for _, d := range c.DeliveryMethods {
		if strings.EqualFold(d.Type, kind) {
			return d, true
		}
	}
	return c.DeliveryMethods[0], true
}
