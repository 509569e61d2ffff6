package quotebuilder

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

func money(v float64) string {
	return printer.Sprintf("$%.2f", v)
}

// Describe renders the customer-facing summary of a quote.
func Describe(q StructuredQuote) string {
	var sb strings.Builder
	base := q.CapDetails
	p := q.Pricing

	sb.WriteString(printer.Sprintf("Here is your quote for %d caps.\n\n", p.Quantity))

	colors := base.Color
	if len(base.Colors) > 1 {
		colors = strings.Join(base.Colors, "/")
	}
	fmt.Fprintf(&sb, "Base cap: %s, %s, %s\n", base.ProductName, colors, base.Size)
	fmt.Fprintf(&sb, "  %s per cap, %s\n", money(base.UnitPrice), money(base.TotalCost))

	for _, f := range q.Customization.PremiumFabrics {
		fmt.Fprintf(&sb, "Premium fabric (%s): %s per cap, %s\n", f.Name, money(f.UnitPrice), money(f.TotalCost))
	}
	if c := q.Customization.PremiumClosure; c != nil {
		fmt.Fprintf(&sb, "Premium closure (%s): %s per cap, %s\n", c.Name, money(c.UnitPrice), money(c.TotalCost))
	}

	if len(q.Customization.Logos) > 0 {
		sb.WriteString("Logos:\n")
		for _, l := range q.Customization.Logos {
			fmt.Fprintf(&sb, "  %s %s on %s: %s per cap", l.Size, l.Type, l.Location, money(l.UnitPrice))
			if l.MoldCharge > 0 {
				fmt.Fprintf(&sb, " + %s mold charge", money(l.MoldCharge))
			}
			fmt.Fprintf(&sb, ", %s\n", money(l.TotalCost))
		}
	}

	if len(q.Customization.Accessories) > 0 {
		sb.WriteString("Accessories:\n")
		for _, a := range q.Customization.Accessories {
			fmt.Fprintf(&sb, "  %s: %s per cap, %s\n", a.Type, money(a.UnitPrice), money(a.TotalCost))
		}
	}

	if d := q.Delivery; d.Method != "" {
		fmt.Fprintf(&sb, "Delivery: %s", d.Method)
		if d.LeadTime != "" {
			fmt.Fprintf(&sb, " (%s)", d.LeadTime)
		}
		fmt.Fprintf(&sb, ", %s\n", money(d.TotalCost))
	}

	fmt.Fprintf(&sb, "\nTotal: %s (%s per cap)", money(p.Total), money(p.UnitTotal()))
	return sb.String()
}
