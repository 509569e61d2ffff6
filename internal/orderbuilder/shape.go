package orderbuilder

import (
	"bytes"
	"encoding/json"
)

// Shape identifies which client layout a raw state was sent in.
type Shape string

const (
	// ShapeLegacyChat is the chat quoting flow's capDetails/pricing layout.
	ShapeLegacyChat Shape = "legacy_chat"
	// ShapeCanonical is the capStyleSetup/costBreakdown layout.
	ShapeCanonical Shape = "canonical"
	// ShapeMixed carries keys from both layouts.
	ShapeMixed   Shape = "mixed"
	ShapeUnknown Shape = "unknown"
)

var (
	legacyMarkers    = []string{"capDetails", "pricing"}
	canonicalMarkers = []string{"capStyleSetup", "costBreakdown"}
)

// Detect classifies raw by its top-level keys.
func Detect(raw json.RawMessage) Shape {
	obj, ok := decodeObject(raw)
	if !ok {
		return ShapeUnknown
	}
	return detectObject(obj)
}

func detectObject(obj map[string]any) Shape {
	legacy := hasAny(obj, legacyMarkers)
	canonical := hasAny(obj, canonicalMarkers)
	switch {
	case legacy && canonical:
		return ShapeMixed
	case legacy:
		return ShapeLegacyChat
	case canonical:
		return ShapeCanonical
	default:
		return ShapeUnknown
	}
}

func hasAny(obj map[string]any, keys []string) bool {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return true
		}
	}
	return false
}

func decodeObject(raw json.RawMessage) (map[string]any, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, false
	}
	return obj, true
}
