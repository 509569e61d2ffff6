package quotebuilder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"headwear_backend/internal/catalog/domain"
	"headwear_backend/internal/extract"
	"headwear_backend/internal/pricing"
	"headwear_backend/platform/logger"
	"headwear_backend/platform/metrics"
)

// Defaults applied when a message does not say otherwise.
const (
	DefaultProductCode     = "6P-AF-HSCS"
	DefaultProductName     = "AirFrame"
	DefaultStructure       = "Structured"
	DefaultDeliveryName    = "Regular Delivery"
	DefaultDeliveryType    = "regular"
	FallbackAccessoryPrice = 0.25
	FallbackLogoPrice      = 1.00
)

// Mold charges are one-off setup fees per order, not per unit.
var moldCharges = map[string]float64{
	extract.MethodRubberPatch:  85,
	extract.MethodLeatherPatch: 65,
}

// MoldCharge returns the setup fee for a decoration method.
func MoldCharge(method string) float64 {
	return moldCharges[method]
}

// Stage names, in execution order.
const (
	StageCatalog     = "catalog"
	StageBaseProduct = "base_product"
	StagePremium     = "premium_upgrades"
	StageLogos       = "logos"
	StageAccessories = "accessories"
	StageDelivery    = "delivery"
	StageTotal       = "total"
)

// CatalogSource provides the current price list.
type CatalogSource interface {
	Load(ctx context.Context) (*domain.Catalog, error)
}

// StageReport records how one stage was priced.
type StageReport struct {
	Name     string `json:"name"`
	Fallback bool   `json:"fallback"`
	Error    string `json:"error,omitempty"`
}

// Metadata describes how a quote was produced.
type Metadata struct {
	CatalogSource domain.Source `json:"catalogSource"`
	Stages        []StageReport `json:"stages"`
	GeneratedAt   time.Time     `json:"generatedAt"`
}

// Result is a built quote plus everything needed to explain it.
type Result struct {
	Message      string               `json:"message"`
	Quote        StructuredQuote      `json:"quote"`
	Requirements extract.Requirements `json:"requirements"`
	Warnings     []string             `json:"warnings"`
	Metadata     Metadata             `json:"metadata"`
}

// Builder runs the six pricing stages. Each stage that fails on the live
// catalog is retried on the built-in defaults, so a quote is always produced.
type Builder struct {
	catalogs CatalogSource
	defaults *domain.Catalog
	log      *logger.Logger
	now      func() time.Time
}

// New creates a Builder. catalogs may be nil, in which case only the
// built-in defaults are used.
func New(catalogs CatalogSource, log *logger.Logger) *Builder {
	if log == nil {
		log = logger.Nop()
	}
	return &Builder{
		catalogs: catalogs,
		defaults: domain.MustDefaults(),
		log:      log,
		now:      time.Now,
	}
}

// Build extracts requirements from message and prices them.
func (b *Builder) Build(ctx context.Context, message string) Result {
	return b.BuildFromRequirements(ctx, extract.Analyze(message))
}

// BuildFromRequirements prices already-extracted requirements.
func (b *Builder) BuildFromRequirements(ctx context.Context, req extract.Requirements) Result {
	run := &buildRun{builder: b, log: b.log.WithContext(ctx), req: req}
	run.live = run.loadCatalog(ctx)

	quote := StructuredQuote{}
	quote.CapDetails = runStage(run, StageBaseProduct, run.baseProduct)
	quote.Customization.PremiumFabrics, quote.Customization.PremiumClosure = runStage2(run, StagePremium, run.premiumUpgrades)
	quote.Customization.Logos = runStage(run, StageLogos, run.logos)
	quote.Customization.Accessories = runStage(run, StageAccessories, run.accessories)
	quote.Delivery = runStage(run, StageDelivery, run.delivery)
	quote.Pricing = total(quote, req.Quantity)
	run.stages = append(run.stages, StageReport{Name: StageTotal})

	metrics.QuotesBuilt.Inc()

	source := domain.SourceDefaults
	if run.live != nil {
		source = run.live.Source
	}
	return Result{
		Message:      Describe(quote),
		Quote:        quote,
		Requirements: req,
		Warnings:     run.warnings,
		Metadata: Metadata{
			CatalogSource: source,
			Stages:        run.stages,
			GeneratedAt:   b.now().UTC(),
		},
	}
}

type buildRun struct {
	builder  *Builder
	log      *logger.Logger
	req      extract.Requirements
	live     *domain.Catalog
	warnings []string
	stages   []StageReport
}

func (r *buildRun) warn(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

func (r *buildRun) fallback(stage string, err error) {
	r.log.StageFallback(stage, err)
	metrics.StageFallbacks.WithLabelValues(stage).Inc()
}

func (r *buildRun) loadCatalog(ctx context.Context) *domain.Catalog {
	if r.builder.catalogs == nil {
		return nil
	}
	cat, err := r.builder.catalogs.Load(ctx)
	if err == nil && cat.IsEmpty() {
		err = fmt.Errorf("catalog has no products")
	}
	if err != nil {
		r.fallback(StageCatalog, err)
		r.stages = append(r.stages, StageReport{Name: StageCatalog, Fallback: true, Error: err.Error()})
		r.warn("Live catalog unavailable; prices are from the standard price list.")
		return nil
	}
	return cat
}

// runStage runs fn against the live catalog, then against the defaults if
// that fails or panics. A stage failing on both yields the zero value.
func runStage[T any](r *buildRun, name string, fn func(*domain.Catalog) (T, error)) T {
	report := StageReport{Name: name}
	defer func() { r.stages = append(r.stages, report) }()

	if r.live != nil {
		out, err := guard(fn, r.live)
		if err == nil {
			return out
		}
		r.fallback(name, err)
		report.Fallback = true
		report.Error = err.Error()
	} else {
		report.Fallback = true
	}

	out, err := guard(fn, r.builder.defaults)
	if err != nil {
		r.fallback(name, err)
		report.Error = err.Error()
		r.warn("Could not price %s; it is excluded from the total.", strings.ReplaceAll(name, "_", " "))
		var zero T
		return zero
	}
	return out
}

type pair[A, B any] struct {
	a A
	b B
}

func runStage2[A, B any](r *buildRun, name string, fn func(*domain.Catalog) (A, B, error)) (A, B) {
	p := runStage(r, name, func(c *domain.Catalog) (pair[A, B], error) {
		a, b, err := fn(c)
		return pair[A, B]{a, b}, err
	})
	return p.a, p.b
}

func guard[T any](fn func(*domain.Catalog) (T, error), cat *domain.Catalog) (out T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("stage panicked: %v", rec)
		}
	}()
	return fn(cat)
}

func (r *buildRun) baseProduct(cat *domain.Catalog) (CapDetails, error) {
	req := r.req
	product, ok := cat.FindProduct(DefaultProductCode, DefaultProductName, DefaultStructure)
	if !ok {
		return CapDetails{}, fmt.Errorf("no products in catalog")
	}
	match, err := pricing.PriceForQuantity(product, req.Quantity)
	if err != nil {
		return CapDetails{}, fmt.Errorf("price %s: %w", product.Code, err)
	}

	details := CapDetails{
		ProductName: product.Name,
		ProductCode: product.Code,
		Quantity:    req.Quantity,
		Color:       req.Color,
		Colors:      req.Colors,
		Size:        req.Size,
		Fabric:      req.Fabric,
		PanelCount:  product.PanelCount,
		Structure:   product.Structure,
		Profile:     product.Profile,
		UnitPrice:   match.UnitPrice,
		TotalCost:   match.TotalCost,
		TierMatched: match.TierMatched,
	}
	if req.PanelCount != nil {
		details.PanelCount = *req.PanelCount
	}
	if req.Closure != nil {
		details.Closure = *req.Closure
	}
	return details, nil
}

func (r *buildRun) premiumUpgrades(cat *domain.Catalog) ([]UpgradeLine, *UpgradeLine, error) {
	var fabrics []UpgradeLine
	for _, part := range strings.Split(r.req.Fabric, "/") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		item, ok := cat.FindPremiumFabric(part)
		if !ok {
			continue
		}
		line, err := upgrade(item, r.req.Quantity)
		if err != nil {
			return nil, nil, err
		}
		fabrics = append(fabrics, line)
	}

	var closure *UpgradeLine
	if r.req.Closure != nil {
		if item, ok := cat.FindPremiumClosure(*r.req.Closure); ok {
			line, err := upgrade(item, r.req.Quantity)
			if err != nil {
				return nil, nil, err
			}
			closure = &line
		}
	}
	return fabrics, closure, nil
}

func upgrade(item domain.Item, quantity int) (UpgradeLine, error) {
	match, err := pricing.PriceForQuantity(item, quantity)
	if err != nil {
		return UpgradeLine{}, fmt.Errorf("price %s: %w", item.Name, err)
	}
	return UpgradeLine{Name: item.Name, UnitPrice: match.UnitPrice, TotalCost: match.TotalCost}, nil
}

func (r *buildRun) logos(cat *domain.Catalog) ([]LogoLine, error) {
	lines := make([]LogoLine, 0, len(r.req.Logos))
	qty := r.req.Quantity
	for _, logo := range r.req.Logos {
		line := LogoLine{
			Type:       logo.Type,
			Location:   logo.Location,
			Size:       logo.Size,
			Quantity:   qty,
			MoldCharge: MoldCharge(logo.Type),
		}
		method, ok := cat.FindLogoMethod(logo.Type, logo.Size)
		if ok {
			match, err := pricing.PriceForQuantity(method, qty)
			if err != nil {
				return nil, fmt.Errorf("price %s %s: %w", method.Name, method.Size, err)
			}
			line.UnitPrice = match.UnitPrice
		} else {
			line.UnitPrice = FallbackLogoPrice
			line.Fallback = true
			r.warn("No catalog price for %s (%s); estimated at $%.2f per cap.", logo.Type, logo.Size, FallbackLogoPrice)
		}
		line.TotalCost = pricing.RoundCents(line.UnitPrice*float64(qty) + line.MoldCharge)
		lines = append(lines, line)
	}
	return lines, nil
}

func (r *buildRun) accessories(cat *domain.Catalog) ([]AccessoryLine, error) {
	lines := make([]AccessoryLine, 0, len(r.req.Accessories))
	qty := r.req.Quantity
	for _, acc := range r.req.Accessories {
		line := AccessoryLine{Type: acc.Type, Quantity: qty}
		item, ok := cat.FindAccessory(acc.Type)
		if ok {
			match, err := pricing.PriceForQuantity(item, qty)
			if err != nil {
				return nil, fmt.Errorf("price %s: %w", item.Name, err)
			}
			line.UnitPrice = match.UnitPrice
		} else {
			line.UnitPrice = FallbackAccessoryPrice
			line.Fallback = true
			r.warn("No catalog price for %s; estimated at $%.2f per cap.", acc.Type, FallbackAccessoryPrice)
		}
		line.TotalCost = pricing.RoundCents(line.UnitPrice * float64(qty))
		lines = append(lines, line)
	}
	return lines, nil
}

func (r *buildRun) delivery(cat *domain.Catalog) (Delivery, error) {
	method, ok := cat.FindDelivery(DefaultDeliveryName, DefaultDeliveryType)
	if !ok {
		return Delivery{}, fmt.Errorf("no delivery methods in catalog")
	}
	match, err := pricing.PriceForQuantity(method, r.req.Quantity)
	if err != nil {
		return Delivery{}, fmt.Errorf("price %s: %w", method.Name, err)
	}
	return Delivery{
		Method:    method.Name,
		Type:      method.Type,
		LeadTime:  method.LeadTime,
		Quantity:  r.req.Quantity,
		UnitPrice: match.UnitPrice,
		TotalCost: match.TotalCost,
	}, nil
}

func total(q StructuredQuote, quantity int) Pricing {
	p := Pricing{
		BaseProductCost: q.CapDetails.TotalCost,
		DeliveryCost:    q.Delivery.TotalCost,
		Quantity:        quantity,
	}
	for _, l := range q.Customization.Logos {
		p.LogosCost += l.TotalCost
		p.MoldCharges += l.MoldCharge
	}
	for _, a := range q.Customization.Accessories {
		p.AccessoriesCost += a.TotalCost
	}
	for _, f := range q.Customization.PremiumFabrics {
		p.PremiumFabricCost += f.TotalCost
	}
	if c := q.Customization.PremiumClosure; c != nil {
		p.PremiumClosureCost = c.TotalCost
	}

	p.LogosCost = pricing.RoundCents(p.LogosCost)
	p.MoldCharges = pricing.RoundCents(p.MoldCharges)
	p.AccessoriesCost = pricing.RoundCents(p.AccessoriesCost)
	p.PremiumFabricCost = pricing.RoundCents(p.PremiumFabricCost)
	p.Total = pricing.Sum(p.BaseProductCost, p.LogosCost, p.AccessoriesCost, p.DeliveryCost, p.PremiumFabricCost, p.PremiumClosureCost)
	return p
}
