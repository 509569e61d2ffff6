// Package orderbuilder normalizes Order Builder state from the shapes clients
// have sent over time into one canonical, versioned layout.
package orderbuilder

import (
	"encoding/json"
	"fmt"
)

// StateVersion is written with every normalized state.
const StateVersion = 2

type CapStyleSetup struct {
	Style       string   `json:"style"`
	ProductCode string   `json:"productCode,omitempty"`
	Quantity    int      `json:"quantity"`
	Color       string   `json:"color,omitempty"`
	Colors      []string `json:"colors,omitempty"`
	Size        string   `json:"size,omitempty"`
	Fabric      string   `json:"fabric,omitempty"`
	Closure     string   `json:"closure,omitempty"`
	PanelCount  int      `json:"panelCount,omitempty"`
	Structure   string   `json:"structure,omitempty"`
	Profile     string   `json:"profile,omitempty"`
	UnitPrice   float64  `json:"unitPrice,omitempty"`
	TotalCost   float64  `json:"totalCost,omitempty"`
}

type LogoDetail struct {
	Type      string  `json:"type"`
	Location  string  `json:"location"`
	Size      string  `json:"size"`
	Quantity  int     `json:"quantity,omitempty"`
	UnitPrice float64 `json:"unitPrice,omitempty"`
	SetupCost float64 `json:"setupCost,omitempty"`
	TotalCost float64 `json:"totalCost,omitempty"`
}

type AccessoryDetail struct {
	Type      string  `json:"type"`
	Quantity  int     `json:"quantity,omitempty"`
	UnitPrice float64 `json:"unitPrice,omitempty"`
	TotalCost float64 `json:"totalCost,omitempty"`
}

type Upgrade struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice,omitempty"`
	TotalCost float64 `json:"totalCost,omitempty"`
}

type Customization struct {
	LogoDetails    []LogoDetail      `json:"logoDetails"`
	Accessories    []AccessoryDetail `json:"accessories"`
	PremiumFabrics []Upgrade         `json:"premiumFabrics,omitempty"`
	PremiumClosure *Upgrade          `json:"premiumClosure,omitempty"`
}

type Delivery struct {
	Method    string  `json:"method,omitempty"`
	Type      string  `json:"type,omitempty"`
	LeadTime  string  `json:"leadTime,omitempty"`
	Quantity  int     `json:"quantity,omitempty"`
	UnitPrice float64 `json:"unitPrice,omitempty"`
	TotalCost float64 `json:"totalCost,omitempty"`
}

type CostBreakdown struct {
	Total              float64 `json:"total"`
	BaseProductCost    float64 `json:"baseProductCost"`
	LogosCost          float64 `json:"logosCost"`
	AccessoriesCost    float64 `json:"accessoriesCost"`
	DeliveryCost       float64 `json:"deliveryCost"`
	PremiumFabricCost  float64 `json:"premiumFabricCost"`
	PremiumClosureCost float64 `json:"premiumClosureCost"`
	MoldCharges        float64 `json:"moldCharges"`
	Completed          bool    `json:"completed"`
}

// State is the canonical Order Builder state.
type State struct {
	CapStyleSetup    *CapStyleSetup  `json:"capStyleSetup"`
	Customization    Customization   `json:"customization"`
	Delivery         Delivery        `json:"delivery"`
	CostBreakdown    CostBreakdown   `json:"costBreakdown"`
	CurrentStep      string          `json:"currentStep"`
	IsCompleted      bool            `json:"isCompleted"`
	TotalCost        float64         `json:"totalCost"`
	TotalUnits       int             `json:"totalUnits"`
	StateVersion     int             `json:"stateVersion"`
	Metadata         map[string]any  `json:"metadata"`
	OriginalFormat   Shape           `json:"originalFormat"`
	OriginalMetadata json.RawMessage `json:"originalMetadata,omitempty"`
}

// Columns is State flattened for storage: every nested object is encoded
// on its own.
type Columns struct {
	CapStyleSetup    []byte
	Customization    []byte
	Delivery         []byte
	CostBreakdown    []byte
	CurrentStep      string
	IsCompleted      bool
	TotalCost        float64
	TotalUnits       int
	StateVersion     int
	Metadata         []byte
	OriginalFormat   string
	OriginalMetadata []byte
}

// Columns encodes s for storage.
func (s State) Columns() (Columns, error) {
	cols := Columns{
		CurrentStep:      s.CurrentStep,
		IsCompleted:      s.IsCompleted,
		TotalCost:        s.TotalCost,
		TotalUnits:       s.TotalUnits,
		StateVersion:     s.StateVersion,
		OriginalFormat:   string(s.OriginalFormat),
		OriginalMetadata: s.OriginalMetadata,
	}
	metadata := s.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	fields := []struct {
		name string
		v    any
		dst  *[]byte
	}{
		{"capStyleSetup", s.CapStyleSetup, &cols.CapStyleSetup},
		{"customization", s.Customization, &cols.Customization},
		{"delivery", s.Delivery, &cols.Delivery},
		{"costBreakdown", s.CostBreakdown, &cols.CostBreakdown},
		{"metadata", metadata, &cols.Metadata},
	}
	for _, f := range fields {
		b, err := json.Marshal(f.v)
		if err != nil {
			return Columns{}, fmt.Errorf("encode %s: %w", f.name, err)
		}
		*f.dst = b
	}
	return cols, nil
}

// FromColumns decodes a stored row back into a State.
func FromColumns(cols Columns) (State, error) {
	s := State{
		CurrentStep:      cols.CurrentStep,
		IsCompleted:      cols.IsCompleted,
		TotalCost:        cols.TotalCost,
		TotalUnits:       cols.TotalUnits,
		StateVersion:     cols.StateVersion,
		OriginalFormat:   Shape(cols.OriginalFormat),
		OriginalMetadata: cols.OriginalMetadata,
	}
	fields := []struct {
		name string
		src  []byte
		dst  any
	}{
		{"capStyleSetup", cols.CapStyleSetup, &s.CapStyleSetup},
		{"customization", cols.Customization, &s.Customization},
		{"delivery", cols.Delivery, &s.Delivery},
		{"costBreakdown", cols.CostBreakdown, &s.CostBreakdown},
		{"metadata", cols.Metadata, &s.Metadata},
	}
	for _, f := range fields {
		if len(f.src) == 0 {
			continue
		}
		if err := json.Unmarshal(f.src, f.dst); err != nil {
			return State{}, fmt.Errorf("decode %s: %w", f.name, err)
		}
	}
	return s, nil
}
