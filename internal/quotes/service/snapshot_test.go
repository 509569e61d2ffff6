package service

import (
	"testing"

	"headwear_backend/internal/orderbuilder"
)

func TestEstimatedCostsSeparatesMoldCharges(t *testing.T) {
	st := orderbuilder.State{
		TotalUnits: 500,
		CostBreakdown: orderbuilder.CostBreakdown{
			Total:           3760,
			BaseProductCost: 2290,
			LogosCost:       1010,
			DeliveryCost:    460,
			MoldCharges:     85,
		},
	}
	c := estimatedCosts(st)
	if c.LogosCost != 925 || c.MoldCharges != 85 {
		t.Fatalf("expected logos 925 + mold 85, got %v + %v", c.LogosCost, c.MoldCharges)
	}
	sum := c.BaseProductCost + c.LogosCost + c.AccessoriesCost + c.DeliveryCost + c.PremiumFabricCost + c.PremiumClosureCost + c.MoldCharges
	if sum != c.Total {
		t.Fatalf("components sum to %v, total is %v", sum, c.Total)
	}
}

func TestEstimatedCostsKeepsSeparatedMold(t *testing.T) {
	st := orderbuilder.State{
		CostBreakdown: orderbuilder.CostBreakdown{Total: 1085, BaseProductCost: 500, LogosCost: 500, MoldCharges: 85},
	}
	if c := estimatedCosts(st); c.LogosCost != 500 {
		t.Fatalf("logos already exclude mold, got %v", c.LogosCost)
	}
}

func TestEstimatedCostsItemizesBareTotal(t *testing.T) {
	st := orderbuilder.State{TotalUnits: 144, CostBreakdown: orderbuilder.CostBreakdown{Total: 812.5}}
	c := estimatedCosts(st)
	if c.Total != 812.5 || c.BaseProductCost != 812.5 {
		t.Fatalf("expected the total carried as product cost, got %+v", c)
	}
}

func TestSynthesisInputUsesLatestQuoteVersion(t *testing.T) {
	raw, err := synthesisInput(map[string]any{
		"quoteVersions": []any{
			map[string]any{"total": 100.0},
			map[string]any{"pricing": map[string]any{"total": 240.0, "quantity": 48.0}},
		},
	})
	if err != nil {
		t.Fatalf("synthesis input: %v", err)
	}
	state, report := orderbuilder.Normalize(raw)
	if !report.OK() {
		t.Fatalf("unexpected errors: %v", report.Errors)
	}
	if state.CostBreakdown.Total != 240 || state.TotalUnits != 48 {
		t.Fatalf("expected latest version pricing, got %+v", state.CostBreakdown)
	}
}
