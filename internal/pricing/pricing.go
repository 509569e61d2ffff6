// Package pricing resolves per-unit prices from quantity-break tables.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrNoBreaks is returned when an entry has no price breaks to resolve against.
var ErrNoBreaks = errors.New("pricing: no price breaks")

// Break is one row of a break-price table: UnitPrice applies from MinQty units upward.
type Break struct {
	MinQty    int     `json:"minQty" yaml:"minQty"`
	UnitPrice float64 `json:"unitPrice" yaml:"unitPrice"`
}

// Breaks is a break-price table. Order is not significant.
type Breaks []Break

// Priced is anything that owns a break-price table.
type Priced interface {
	PriceBreaks() Breaks
}

// PriceBreaks lets a bare table be priced directly.
func (b Breaks) PriceBreaks() Breaks { return b }

// Match is the resolved price for a quantity.
type Match struct {
	UnitPrice   float64 `json:"unitPrice"`
	TierMatched int     `json:"tierMatched"`
	Quantity    int     `json:"quantity"`
	TotalCost   float64 `json:"totalCost"`
}

// Sorted returns a copy ordered by ascending MinQty.
func (b Breaks) Sorted() Breaks {
	out := make(Breaks, len(b))
	copy(out, b)
	sort.SliceStable(out, func(i, j int) bool { return out[i].MinQty < out[j].MinQty })
	return out
}

// Validate checks that the table is usable for lookups.
func (b Breaks) Validate() error {
	if len(b) == 0 {
		return ErrNoBreaks
	}
	seen := make(map[int]struct{}, len(b))
	for _, br := range b {
		if br.MinQty < 0 {
			return fmt.Errorf("pricing: negative minQty %d", br.MinQty)
		}
		if br.UnitPrice < 0 || math.IsNaN(br.UnitPrice) || math.IsInf(br.UnitPrice, 0) {
			return fmt.Errorf("pricing: invalid unit price %v at minQty %d", br.UnitPrice, br.MinQty)
		}
		if _, dup := seen[br.MinQty]; dup {
			return fmt.Errorf("pricing: duplicate minQty %d", br.MinQty)
		}
		seen[br.MinQty] = struct{}{}
	}
	return nil
}

// PriceForQuantity picks the break with the largest MinQty not above quantity.
// Quantities below the smallest break use the smallest break's price.
func PriceForQuantity(entry Priced, quantity int) (Match, error) {
	if entry == nil {
		return Match{}, ErrNoBreaks
	}
	breaks := entry.PriceBreaks()
	if len(breaks) == 0 {
		return Match{}, ErrNoBreaks
	}
	if quantity < 0 {
		return Match{}, fmt.Errorf("pricing: negative quantity %d", quantity)
	}

	sorted := breaks.Sorted()
	matched := sorted[0]
	for _, br := range sorted[1:] {
		if br.MinQty > quantity {
			break
		}
		matched = br
	}

	return Match{
		UnitPrice:   matched.UnitPrice,
		TierMatched: matched.MinQty,
		Quantity:    quantity,
		TotalCost:   RoundCents(matched.UnitPrice * float64(quantity)),
	}, nil
}

// RoundCents rounds to two decimals, half away from zero.
func RoundCents(value float64) float64 {
	return math.Round(value*100) / 100
}

// Sum adds amounts and rounds the result to cents.
func Sum(amounts ...float64) float64 {
	var total float64
	for _, a := range amounts {
		total += a
	}
	return RoundCents(total)
}
