// Package quotebuilder prices extracted requirements against the catalog in
// six ordered stages and assembles a structured quote.
package quotebuilder

// CapDetails is the priced base cap.
type CapDetails struct {
	ProductName string   `json:"productName"`
	ProductCode string   `json:"productCode"`
	Quantity    int      `json:"quantity"`
	Color       string   `json:"color"`
	Colors      []string `json:"colors"`
	Size        string   `json:"size"`
	Fabric      string   `json:"fabric,omitempty"`
	Closure     string   `json:"closure,omitempty"`
	PanelCount  int      `json:"panelCount,omitempty"`
	Structure   string   `json:"structure,omitempty"`
	Profile     string   `json:"profile,omitempty"`
	UnitPrice   float64  `json:"unitPrice"`
	TotalCost   float64  `json:"totalCost"`
	TierMatched int      `json:"tierMatched"`
}

// UpgradeLine is a priced premium fabric or closure.
type UpgradeLine struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	TotalCost float64 `json:"totalCost"`
}

// LogoLine is one priced decoration. TotalCost includes MoldCharge.
type LogoLine struct {
	Type       string  `json:"type"`
	Location   string  `json:"location"`
	Size       string  `json:"size"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
	MoldCharge float64 `json:"moldCharge"`
	TotalCost  float64 `json:"totalCost"`
	Fallback   bool    `json:"fallbackPrice,omitempty"`
}

// AccessoryLine is one priced add-on.
type AccessoryLine struct {
	Type      string  `json:"type"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	TotalCost float64 `json:"totalCost"`
	Fallback  bool    `json:"fallbackPrice,omitempty"`
}

// Customization groups everything added to the blank cap.
type Customization struct {
	Logos          []LogoLine      `json:"logos"`
	Accessories    []AccessoryLine `json:"accessories"`
	PremiumFabrics []UpgradeLine   `json:"premiumFabrics,omitempty"`
	PremiumClosure *UpgradeLine    `json:"premiumClosure,omitempty"`
}

// Delivery is the priced shipping method.
type Delivery struct {
	Method    string  `json:"method"`
	Type      string  `json:"type"`
	LeadTime  string  `json:"leadTime,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	TotalCost float64 `json:"totalCost"`
}

// Pricing is the cost breakdown. LogosCost includes MoldCharges, which is
// reported separately for display, so Total is the sum of the six costs.
type Pricing struct {
	Total              float64 `json:"total"`
	BaseProductCost    float64 `json:"baseProductCost"`
	LogosCost          float64 `json:"logosCost"`
	AccessoriesCost    float64 `json:"accessoriesCost"`
	DeliveryCost       float64 `json:"deliveryCost"`
	PremiumFabricCost  float64 `json:"premiumFabricCost"`
	PremiumClosureCost float64 `json:"premiumClosureCost"`
	MoldCharges        float64 `json:"moldCharges"`
	Quantity           int     `json:"quantity"`
}

// StructuredQuote is the builder's output, persisted on save.
type StructuredQuote struct {
	CapDetails    CapDetails    `json:"capDetails"`
	Customization Customization `json:"customization"`
	Delivery      Delivery      `json:"delivery"`
	Pricing       Pricing       `json:"pricing"`
}

// UnitTotal is the all-in price per cap.
func (p Pricing) UnitTotal() float64 {
	if p.Quantity <= 0 {
		return 0
	}
	return p.Total / float64(p.Quantity)
}
