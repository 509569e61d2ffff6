package service

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"headwear_backend/internal/email"
	"headwear_backend/internal/orderbuilder"
	"headwear_backend/internal/pdf"
	"headwear_backend/internal/quotes/repository"
	"headwear_backend/internal/quotes/transport"
	"headwear_backend/platform/phone"
	"headwear_backend/platform/sanitize"

	"github.com/google/uuid"
)

const costTolerance = 0.01

// quoteDraft is the input for turning a normalized state into a quote row.
type quoteDraft struct {
	ID        uuid.UUID
	SessionID string
	UserID    *uuid.UUID
	Title     string
	Customer  *transport.CustomerInfo
	State     orderbuilder.State
}

func buildQuoteOrder(d quoteDraft) (*repository.QuoteOrder, error) {
	st := d.State
	setup := orderbuilder.CapStyleSetup{}
	if st.CapStyleSetup != nil {
		setup = *st.CapStyleSetup
	}

	snapshot, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encode order builder snapshot: %w", err)
	}
	costs := estimatedCosts(st)
	costs.OrderBuilderData = snapshot

	colors := setup.Colors
	if len(colors) == 0 && setup.Color != "" {
		colors = []string{setup.Color}
	}

	q := &repository.QuoteOrder{
		ID:          d.ID,
		SessionID:   d.SessionID,
		UserID:      d.UserID,
		Title:       quoteTitle(d.Title, setup.Style, st.TotalUnits),
		Status:      repository.StatusCompleted,
		ProductType: setup.Style,
		Quantities:  mustJSON(map[string]any{"total": st.TotalUnits}),
		Colors:      mustJSON(map[string]any{"primary": setup.Color, "all": nonNil(colors)}),
		LogoRequirements: mustJSON(map[string]any{
			"logos": st.Customization.LogoDetails,
		}),
		CustomizationOptions: mustJSON(map[string]any{
			"accessories":    st.Customization.Accessories,
			"premiumFabrics": st.Customization.PremiumFabrics,
			"premiumClosure": st.Customization.PremiumClosure,
			"delivery":       st.Delivery,
		}),
		ExtractedSpecs: mustJSON(setup),
		EstimatedCosts: costs,
	}
	if c := d.Customer; c != nil {
		q.CustomerName = sanitize.Line(c.Name, maxCustomerField)
		q.CustomerEmail = strings.ToLower(strings.TrimSpace(c.Email))
		q.CustomerPhone = phone.NormalizeE164(c.Phone)
		q.CustomerCompany = sanitize.Line(c.Company, maxCustomerField)
	}
	return q, nil
}

// estimatedCosts maps a cost breakdown onto the persisted shape, in which
// logosCost never includes mold charges.
func estimatedCosts(st orderbuilder.State) repository.EstimatedCosts {
	cb := st.CostBreakdown
	total := cb.Total
	if total == 0 {
		total = st.TotalCost
	}

	logos := cb.LogosCost
	parts := cb.BaseProductCost + cb.LogosCost + cb.AccessoriesCost + cb.DeliveryCost + cb.PremiumFabricCost + cb.PremiumClosureCost
	if cb.MoldCharges > 0 && math.Abs(parts-total) <= costTolerance {
		logos = round2(logos - cb.MoldCharges)
	}

	// A bare total has nothing to itemize; carry it as the product cost so
	// the components still add up.
	base := cb.BaseProductCost
	if parts == 0 && cb.MoldCharges == 0 && total > 0 {
		base = round2(total)
	}

	return repository.EstimatedCosts{
		Total:              round2(total),
		BaseProductCost:    base,
		LogosCost:          logos,
		AccessoriesCost:    cb.AccessoriesCost,
		DeliveryCost:       cb.DeliveryCost,
		PremiumFabricCost:  cb.PremiumFabricCost,
		PremiumClosureCost: cb.PremiumClosureCost,
		MoldCharges:        cb.MoldCharges,
		Quantity:           st.TotalUnits,
	}
}

const maxCustomerField = 200

func quoteTitle(explicit, style string, units int) string {
	if t := sanitize.Line(explicit, maxCustomerField); t != "" {
		return t
	}
	if style == "" {
		style = "Custom"
	}
	if units > 0 {
		return fmt.Sprintf("%d %s caps", units, style)
	}
	return style + " caps"
}

// conversationSnapshot is what the conversation metadata keeps of the builder.
func conversationSnapshot(st orderbuilder.State) map[string]any {
	return map[string]any{
		"capStyleSetup": st.CapStyleSetup,
		"customization": st.Customization,
		"delivery":      st.Delivery,
		"costBreakdown": st.CostBreakdown,
		"totalCost":     st.TotalCost,
		"totalUnits":    st.TotalUnits,
		"stateVersion":  st.StateVersion,
		"orderBuilderStatus": map[string]any{
			"costBreakdown": map[string]any{"completed": st.CostBreakdown.Completed || st.CostBreakdown.Total > 0},
		},
	}
}

// orderData denormalizes the quote into the order, pointing back at it.
func orderData(q *repository.QuoteOrder) (json.RawMessage, error) {
	raw, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("encode quote for order: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("encode quote for order: %w", err)
	}
	delete(m, "id")
	m["quoteOrderId"] = q.ID.String()
	return json.Marshal(m)
}

func costLines(c repository.EstimatedCosts) []email.CostLine {
	return []email.CostLine{
		{Label: "Base caps", Amount: c.BaseProductCost},
		{Label: "Logos", Amount: c.LogosCost},
		{Label: "Mold charges", Amount: c.MoldCharges},
		{Label: "Accessories", Amount: c.AccessoriesCost},
		{Label: "Premium fabric", Amount: c.PremiumFabricCost},
		{Label: "Premium closure", Amount: c.PremiumClosureCost},
		{Label: "Delivery", Amount: c.DeliveryCost},
	}
}

func acceptedEmail(q *repository.QuoteOrder, orderID uuid.UUID) email.QuoteAccepted {
	return email.QuoteAccepted{
		QuoteOrderID:    q.ID,
		OrderID:         orderID,
		Title:           q.Title,
		CustomerName:    q.CustomerName,
		CustomerEmail:   q.CustomerEmail,
		CustomerPhone:   q.CustomerPhone,
		CustomerCompany: q.CustomerCompany,
		Quantity:        q.EstimatedCosts.Quantity,
		Lines:           costLines(q.EstimatedCosts),
		Total:           q.EstimatedCosts.Total,
	}
}

func pdfDocument(q *repository.QuoteOrder) pdf.Document {
	doc := pdf.Document{
		QuoteOrderID:    q.ID,
		Title:           q.Title,
		Status:          q.Status,
		CustomerName:    q.CustomerName,
		CustomerEmail:   q.CustomerEmail,
		CustomerCompany: q.CustomerCompany,
		CreatedAt:       q.CreatedAt,
		UpdatedAt:       q.UpdatedAt,
		Quantity:        q.EstimatedCosts.Quantity,
		MoldCharges:     q.EstimatedCosts.MoldCharges,
		Total:           q.EstimatedCosts.Total,
		OrderID:         q.ConvertedToOrderID,
	}

	var st orderbuilder.State
	if len(q.EstimatedCosts.OrderBuilderData) > 0 && json.Unmarshal(q.EstimatedCosts.OrderBuilderData, &st) == nil {
		doc.Lines = stateLines(st)
	}
	if len(doc.Lines) == 0 {
		for _, l := range costLines(q.EstimatedCosts) {
			if l.Amount == 0 || l.Label == "Mold charges" {
				continue
			}
			doc.Lines = append(doc.Lines, pdf.Line{Label: l.Label, Quantity: doc.Quantity, Total: l.Amount, UnitPrice: perUnit(l.Amount, doc.Quantity)})
		}
	}
	return doc
}

func stateLines(st orderbuilder.State) []pdf.Line {
	var lines []pdf.Line
	if s := st.CapStyleSetup; s != nil {
		lines = append(lines, pdf.Line{
			Label:     s.Style,
			Detail:    joinNonEmpty(s.Color, s.Structure, s.Fabric, s.Size),
			Quantity:  s.Quantity,
			UnitPrice: s.UnitPrice,
			Total:     s.TotalCost,
		})
	}
	for _, f := range st.Customization.PremiumFabrics {
		lines = append(lines, pdf.Line{Label: f.Name, Detail: "premium fabric", Quantity: st.TotalUnits, UnitPrice: f.UnitPrice, Total: f.TotalCost})
	}
	if c := st.Customization.PremiumClosure; c != nil {
		lines = append(lines, pdf.Line{Label: c.Name, Detail: "closure", Quantity: st.TotalUnits, UnitPrice: c.UnitPrice, Total: c.TotalCost})
	}
	for _, l := range st.Customization.LogoDetails {
		lines = append(lines, pdf.Line{
			Label:     l.Type,
			Detail:    joinNonEmpty(l.Location, l.Size),
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Total:     round2(l.TotalCost - l.SetupCost),
		})
	}
	for _, a := range st.Customization.Accessories {
		lines = append(lines, pdf.Line{Label: a.Type, Quantity: a.Quantity, UnitPrice: a.UnitPrice, Total: a.TotalCost})
	}
	if d := st.Delivery; d.Method != "" {
		lines = append(lines, pdf.Line{Label: d.Method, Detail: d.LeadTime, Quantity: d.Quantity, UnitPrice: d.UnitPrice, Total: d.TotalCost})
	}
	return lines
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

func perUnit(amount float64, qty int) float64 {
	if qty <= 0 {
		return 0
	}
	return round2(amount / float64(qty))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}
