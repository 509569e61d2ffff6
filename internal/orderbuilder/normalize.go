package orderbuilder

import (
	"encoding/json"
	"fmt"
	"math"

	"headwear_backend/internal/quotebuilder"
)

// Report lists problems found while normalizing. Errors block persistence;
// warnings do not.
type Report struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// OK reports whether the state may be persisted.
func (r Report) OK() bool { return len(r.Errors) == 0 }

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

const costTolerance = 0.01

// Normalize converts raw into the canonical State. The returned State is
// meaningful only when the report has no errors.
func Normalize(raw json.RawMessage) (State, Report) {
	var report Report

	obj, ok := decodeObject(raw)
	if !ok {
		report.errorf("orderBuilderState: must be a JSON object")
		return State{OriginalFormat: ShapeUnknown, StateVersion: StateVersion}, report
	}

	shape := detectObject(obj)
	var merged map[string]any
	switch shape {
	case ShapeLegacyChat:
		merged = normalizeLegacy(obj)
		report.warnf("orderBuilderState: legacy chat layout converted")
	case ShapeCanonical:
		merged = normalizeCanonical(obj)
	case ShapeMixed:
		merged = normalizeMixed(obj)
		report.warnf("orderBuilderState: mixed layout; canonical fields take precedence")
	default:
		report.errorf("orderBuilderState: capStyleSetup or capDetails is required")
		return State{OriginalFormat: ShapeUnknown, StateVersion: StateVersion, OriginalMetadata: raw}, report
	}

	state, err := decodeState(merged)
	if err != nil {
		report.errorf("orderBuilderState: %v", err)
		return State{OriginalFormat: shape, StateVersion: StateVersion, OriginalMetadata: raw}, report
	}
	state.StateVersion = StateVersion
	state.OriginalFormat = shape
	state.OriginalMetadata = append(json.RawMessage(nil), raw...)

	fillDerived(&state)
	if _, legacy := obj["capDetails"].(map[string]any); legacy && shape != ShapeCanonical {
		defaultStyle(&state, &report)
	}
	validate(state, &report)
	return state, report
}

func normalizeCanonical(obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj))
	for _, k := range canonicalKeys {
		if v, ok := obj[k]; ok {
			out[k] = v
		}
	}
	if c, ok := out["customization"].(map[string]any); ok {
		cc := copyMap(c)
		delete(cc, "logos")
		out["customization"] = cc
	}
	return out
}

func normalizeLegacy(obj map[string]any) map[string]any {
	out := map[string]any{}

	if cd, ok := obj["capDetails"].(map[string]any); ok {
		setup := map[string]any{}
		for legacyKey, key := range capDetailsRenames {
			if v, ok := cd[legacyKey]; ok {
				setup[key] = v
			}
		}
		out["capStyleSetup"] = setup
		if q, ok := cd["quantity"]; ok {
			out["totalUnits"] = q
		}
	}

	if c, ok := obj["customization"].(map[string]any); ok {
		custom := map[string]any{}
		if logos, ok := c["logos"].([]any); ok {
			details := make([]any, 0, len(logos))
			for _, l := range logos {
				lm, ok := l.(map[string]any)
				if !ok {
					continue
				}
				d := copyMap(lm)
				if mc, ok := d["moldCharge"]; ok {
					d["setupCost"] = mc
					delete(d, "moldCharge")
				}
				delete(d, "fallbackPrice")
				details = append(details, d)
			}
			custom["logoDetails"] = details
		}
		for _, k := range []string{"accessories", "premiumFabrics", "premiumClosure"} {
			if v, ok := c[k]; ok {
				custom[k] = v
			}
		}
		out["customization"] = custom
	}

	if d, ok := obj["delivery"].(map[string]any); ok {
		out["delivery"] = copyMap(d)
	}

	if p, ok := obj["pricing"].(map[string]any); ok {
		breakdown := map[string]any{}
		for _, k := range pricingKeys {
			if v, ok := p[k]; ok {
				breakdown[k] = v
			}
		}
		if total, ok := p["total"].(float64); ok {
			breakdown["completed"] = total > 0
			out["totalCost"] = total
			out["isCompleted"] = total > 0
		}
		if q, ok := p["quantity"]; ok {
			if _, set := out["totalUnits"]; !set {
				out["totalUnits"] = q
			}
		}
		out["costBreakdown"] = breakdown
	}
	return out
}

func normalizeMixed(obj map[string]any) map[string]any {
	canonical := normalizeCanonical(obj)
	merged := deepMerge(normalizeLegacy(obj), canonical)
	if cb, ok := canonical["costBreakdown"].(map[string]any); ok {
		if _, hasTotal := cb["total"]; hasTotal {
			if _, set := canonical["totalCost"]; !set {
				delete(merged, "totalCost")
			}
		}
	}
	return merged
}

var canonicalKeys = []string{
	"capStyleSetup", "customization", "delivery", "costBreakdown",
	"currentStep", "isCompleted", "totalCost", "totalUnits", "metadata",
}

var capDetailsRenames = map[string]string{
	"productName": "style",
	"productCode": "productCode",
	"quantity":    "quantity",
	"color":       "color",
	"colors":      "colors",
	"size":        "size",
	"fabric":      "fabric",
	"closure":     "closure",
	"panelCount":  "panelCount",
	"structure":   "structure",
	"profile":     "profile",
	"unitPrice":   "unitPrice",
	"totalCost":   "totalCost",
}

var pricingKeys = []string{
	"total", "baseProductCost", "logosCost", "accessoriesCost", "deliveryCost",
	"premiumFabricCost", "premiumClosureCost", "moldCharges",
}

// deepMerge overlays top onto base. Objects merge recursively; any other
// value in top replaces the one in base.
func deepMerge(base, top map[string]any) map[string]any {
	out := copyMap(base)
	for k, v := range top {
		if tm, ok := v.(map[string]any); ok {
			if bm, ok := out[k].(map[string]any); ok {
				out[k] = deepMerge(bm, tm)
				continue
			}
		}
		out[k] = v
	}
	return out
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func decodeState(m map[string]any) (State, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return State{}, err
	}
	var s State
	if err := json.Unmarshal(b, &s); err != nil {
		return State{}, err
	}
	return s, nil
}

// defaultStyle fills the style of legacy cap details that never named a
// product, so the chat payload can still be saved.
func defaultStyle(s *State, r *Report) {
	if s.CapStyleSetup == nil {
		s.CapStyleSetup = &CapStyleSetup{Quantity: s.TotalUnits}
	}
	if s.CapStyleSetup.Style != "" {
		return
	}
	s.CapStyleSetup.Style = quotebuilder.DefaultProductName
	r.warnf("capStyleSetup.style: missing, defaulted to %s", quotebuilder.DefaultProductName)
}

func fillDerived(s *State) {
	if s.TotalCost == 0 {
		s.TotalCost = s.CostBreakdown.Total
	}
	if s.TotalUnits == 0 && s.CapStyleSetup != nil {
		s.TotalUnits = s.CapStyleSetup.Quantity
	}
	if s.Customization.LogoDetails == nil {
		s.Customization.LogoDetails = []LogoDetail{}
	}
	if s.Customization.Accessories == nil {
		s.Customization.Accessories = []AccessoryDetail{}
	}
	if s.Metadata == nil {
		s.Metadata = map[string]any{}
	}
}

func validate(s State, r *Report) {
	if s.CapStyleSetup == nil || s.CapStyleSetup.Style == "" {
		r.errorf("capStyleSetup.style: required")
	}
	if s.TotalUnits < 0 {
		r.errorf("totalUnits: must not be negative")
	}
	if s.CostBreakdown.Total < 0 {
		r.errorf("costBreakdown.total: must not be negative")
	}
	for i, l := range s.Customization.LogoDetails {
		if l.Type == "" {
			r.errorf("customization.logoDetails[%d].type: required", i)
		}
	}

	cb := s.CostBreakdown
	if cb.Total > 0 && math.Abs(s.TotalCost-cb.Total) > costTolerance {
		r.warnf("totalCost %.2f differs from costBreakdown.total %.2f", s.TotalCost, cb.Total)
	}
	parts := cb.BaseProductCost + cb.LogosCost + cb.AccessoriesCost + cb.DeliveryCost + cb.PremiumFabricCost + cb.PremiumClosureCost
	// logosCost may or may not already carry the mold charges.
	if parts == 0 && cb.MoldCharges == 0 && cb.Total > 0 {
		r.warnf("costBreakdown: total %.2f has no component costs", cb.Total)
	}
	if parts > 0 && math.Abs(parts-cb.Total) > costTolerance && math.Abs(parts+cb.MoldCharges-cb.Total) > costTolerance {
		r.warnf("costBreakdown components sum to %.2f, total is %.2f", parts, cb.Total)
	}
	if s.CurrentStep == "" {
		r.warnf("currentStep: empty")
	}
}
