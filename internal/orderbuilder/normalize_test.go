package orderbuilder

import (
	"encoding/json"
	"strings"
	"testing"
)

const legacyChat = `{
	"capDetails": {"productName": "6P AirFrame HSCS", "productCode": "6P-AF-HSCS", "quantity": 1200, "color": "Black", "size": "Large"},
	"customization": {
		"logos": [{"type": "Rubber Patch", "location": "Front", "size": "Large", "unitPrice": 1.5, "moldCharge": 85, "totalCost": 1885}],
		"accessories": [{"type": "Hang Tag", "quantity": 1200, "unitPrice": 0.24, "totalCost": 288}]
	},
	"delivery": {"method": "Regular Delivery", "type": "regular", "unitPrice": 1.7, "totalCost": 2040},
	"pricing": {"total": 18792, "baseProductCost": 14579, "logosCost": 1885, "accessoriesCost": 288, "deliveryCost": 2040, "quantity": 1200}
}`

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Shape
	}{
		{"legacy", legacyChat, ShapeLegacyChat},
		{"canonical", `{"capStyleSetup": {"style": "Trucker"}, "costBreakdown": {"total": 10}}`, ShapeCanonical},
		{"mixed", `{"capDetails": {}, "costBreakdown": {}}`, ShapeMixed},
		{"empty object", `{}`, ShapeUnknown},
		{"array", `[1,2]`, ShapeUnknown},
		{"null", `null`, ShapeUnknown},
		{"null marker", `{"capStyleSetup": null}`, ShapeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(json.RawMessage(tt.raw)); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestNormalizeLegacyRenamesFields(t *testing.T) {
	state, report := Normalize(json.RawMessage(legacyChat))
	if !report.OK() {
		t.Fatalf("unexpected errors: %v", report.Errors)
	}
	if state.OriginalFormat != ShapeLegacyChat {
		t.Fatalf("expected legacy shape, got %s", state.OriginalFormat)
	}
	if state.CapStyleSetup == nil || state.CapStyleSetup.Style != "6P AirFrame HSCS" {
		t.Fatalf("productName not mapped to style: %+v", state.CapStyleSetup)
	}
	if state.CostBreakdown.Total != 18792 {
		t.Fatalf("expected costBreakdown.total 18792, got %v", state.CostBreakdown.Total)
	}
	if !state.CostBreakdown.Completed || !state.IsCompleted {
		t.Fatalf("expected completed breakdown")
	}
	if len(state.Customization.LogoDetails) != 1 || state.Customization.LogoDetails[0].SetupCost != 85 {
		t.Fatalf("moldCharge not mapped to setupCost: %+v", state.Customization.LogoDetails)
	}
	if state.TotalUnits != 1200 || state.TotalCost != 18792 {
		t.Fatalf("expected derived totals, got units=%d cost=%v", state.TotalUnits, state.TotalCost)
	}
	if state.StateVersion != StateVersion {
		t.Fatalf("expected state version %d, got %d", StateVersion, state.StateVersion)
	}
	if string(state.OriginalMetadata) != legacyChat {
		t.Fatalf("original payload not preserved")
	}
	if len(report.Warnings) == 0 {
		t.Fatalf("expected legacy conversion warning")
	}
}

func TestNormalizeMixedPrefersCanonical(t *testing.T) {
	raw := `{
		"capDetails": {"productName": "Legacy Cap", "quantity": 100, "color": "Red"},
		"capStyleSetup": {"style": "Canonical Cap"},
		"pricing": {"total": 500, "deliveryCost": 50},
		"costBreakdown": {"total": 650},
		"customization": {"logos": [{"type": "Woven Patch", "location": "Back", "size": "Small", "moldCharge": 0}]},
		"currentStep": "review"
	}`
	state, report := Normalize(json.RawMessage(raw))
	if !report.OK() {
		t.Fatalf("unexpected errors: %v", report.Errors)
	}
	if state.OriginalFormat != ShapeMixed {
		t.Fatalf("expected mixed, got %s", state.OriginalFormat)
	}
	if state.CapStyleSetup.Style != "Canonical Cap" {
		t.Fatalf("canonical style should win, got %q", state.CapStyleSetup.Style)
	}
	if state.CapStyleSetup.Color != "Red" || state.CapStyleSetup.Quantity != 100 {
		t.Fatalf("legacy-only fields should carry over: %+v", state.CapStyleSetup)
	}
	if state.CostBreakdown.Total != 650 || state.CostBreakdown.DeliveryCost != 50 {
		t.Fatalf("unexpected breakdown: %+v", state.CostBreakdown)
	}
	if len(state.Customization.LogoDetails) != 1 {
		t.Fatalf("legacy logos should map to logoDetails")
	}
}

func TestNormalizeRejectsMissingCapStyle(t *testing.T) {
	cases := []string{
		`{"costBreakdown": {"total": 10}}`,
		`{"foo": 1}`,
		`"not an object"`,
		``,
	}
	for _, raw := range cases {
		_, report := Normalize(json.RawMessage(raw))
		if report.OK() {
			t.Fatalf("expected errors for %q", raw)
		}
	}
}

func TestNormalizeDefaultsStyleForLegacyCapDetails(t *testing.T) {
	state, report := Normalize(json.RawMessage(`{"capDetails":{"quantity":144,"color":"Black"},"pricing":{"total":812.5}}`))
	if !report.OK() {
		t.Fatalf("legacy cap details should be accepted: %v", report.Errors)
	}
	if state.CapStyleSetup == nil || state.CapStyleSetup.Style != "AirFrame" {
		t.Fatalf("expected default style, got %+v", state.CapStyleSetup)
	}
	if state.CapStyleSetup.Quantity != 144 || state.CapStyleSetup.Color != "Black" {
		t.Fatalf("cap details lost: %+v", state.CapStyleSetup)
	}
	if !hasWarning(report, "defaulted to AirFrame") {
		t.Fatalf("expected a default style warning, got %v", report.Warnings)
	}
	if !hasWarning(report, "has no component costs") {
		t.Fatalf("expected a bare total warning, got %v", report.Warnings)
	}
}

func hasWarning(r Report, fragment string) bool {
	for _, w := range r.Warnings {
		if strings.Contains(w, fragment) {
			return true
		}
	}
	return false
}

func TestNormalizeCanonicalStillRequiresStyle(t *testing.T) {
	_, report := Normalize(json.RawMessage(`{"capStyleSetup":{"quantity":144},"costBreakdown":{"total":10}}`))
	if report.OK() {
		t.Fatalf("canonical state without style must be rejected")
	}
}

func TestNormalizeWarnsOnInconsistentTotals(t *testing.T) {
	raw := `{"capStyleSetup": {"style": "Dad Cap", "quantity": 48}, "costBreakdown": {"total": 100, "baseProductCost": 60}, "totalCost": 90, "currentStep": "delivery"}`
	_, report := Normalize(json.RawMessage(raw))
	if !report.OK() {
		t.Fatalf("inconsistent totals must not block persistence: %v", report.Errors)
	}
	if len(report.Warnings) != 2 {
		t.Fatalf("expected two warnings, got %v", report.Warnings)
	}
}

func TestLegacyTotalSurvivesStorageRoundTrip(t *testing.T) {
	state, report := Normalize(json.RawMessage(`{"capDetails": {"productName": "Snapback"}, "pricing": {"total": 1234.56}}`))
	if !report.OK() {
		t.Fatalf("unexpected errors: %v", report.Errors)
	}
	cols, err := state.Columns()
	if err != nil {
		t.Fatalf("columns: %v", err)
	}
	back, err := FromColumns(cols)
	if err != nil {
		t.Fatalf("from columns: %v", err)
	}
	if back.CostBreakdown.Total != 1234.56 {
		t.Fatalf("expected 1234.56, got %v", back.CostBreakdown.Total)
	}
	if back.OriginalFormat != ShapeLegacyChat || back.StateVersion != StateVersion {
		t.Fatalf("format metadata lost: %+v", back)
	}
}
