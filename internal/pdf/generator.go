package pdf

import (
	"context"
	"fmt"
	"strings"

	"headwear_backend/platform/logger"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	colorPrimary   = &props.Color{Red: 17, Green: 24, Blue: 39}
	colorSecondary = &props.Color{Red: 107, Green: 114, Blue: 128}
	colorAccent    = &props.Color{Red: 190, Green: 18, Blue: 60}
	colorTableHead = &props.Color{Red: 241, Green: 245, Blue: 249}
	colorTableAlt  = &props.Color{Red: 249, Green: 250, Blue: 251}
	colorGreen     = &props.Color{Red: 22, Green: 163, Blue: 74}
	colorRed       = &props.Color{Red: 220, Green: 38, Blue: 38}
	colorBorder    = &props.Color{Red: 226, Green: 232, Blue: 240}
)

var printer = message.NewPrinter(language.English)

// Generate lays out the document and returns the PDF bytes.
func Generate(doc Document) ([]byte, error) {
	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithTopMargin(12).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	if err := m.RegisterFooter(buildFooter(doc)); err != nil {
		return nil, fmt.Errorf("register footer: %w", err)
	}

	m.AddRows(buildHeader(doc)...)
	m.AddRows(separator(), row.New(6))
	m.AddRows(buildCustomerBlock(doc)...)
	m.AddRows(row.New(6))

	if banner, ok := buildStatusBanner(doc); ok {
		m.AddRows(banner, row.New(4))
	}

	m.AddRows(buildLinesTable(doc)...)
	m.AddRows(row.New(4))
	m.AddRows(buildTotalsBlock(doc)...)
	m.AddRows(row.New(8))
	m.AddRows(buildTerms()...)

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate PDF: %w", err)
	}
	return out.GetBytes(), nil
}

// Renderer turns documents into PDF bytes. It never fails: a broken render
// yields an empty buffer and a log line.
type Renderer struct {
	generate func(Document) ([]byte, error)
	log      *logger.Logger
}

// NewRenderer returns a maroto-backed renderer.
func NewRenderer(log *logger.Logger) *Renderer {
	return &Renderer{generate: Generate, log: log}
}

// Render returns the PDF for doc, or an empty buffer when rendering fails.
func (r *Renderer) Render(ctx context.Context, doc Document) (out []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.WithContext(ctx).BestEffortFailure("quote_pdf", fmt.Errorf("panic: %v", rec),
				"quote_order_id", doc.QuoteOrderID.String())
			out = []byte{}
		}
	}()

	b, err := r.generate(doc)
	if err != nil {
		r.log.WithContext(ctx).BestEffortFailure("quote_pdf", err, "quote_order_id", doc.QuoteOrderID.String())
		return []byte{}
	}
	return b
}

func buildHeader(doc Document) []core.Row {
	title := doc.Title
	if title == "" {
		title = "Custom Cap Quote"
	}
	return []core.Row{
		row.New(20).Add(
			col.New(6).Add(text.New(title, props.Text{
				Size:  14,
				Style: fontstyle.Bold,
				Color: colorPrimary,
				Top:   4,
			})),
			col.New(6).Add(
				text.New("QUOTE", props.Text{
					Size:  24,
					Style: fontstyle.Bold,
					Align: align.Right,
					Color: colorAccent,
				}),
				text.New(doc.Number(), props.Text{
					Size:  11,
					Align: align.Right,
					Color: colorSecondary,
					Top:   12,
				}),
			),
		),
	}
}

func buildCustomerBlock(doc Document) []core.Row {
	label := props.Text{Size: 7, Style: fontstyle.Bold, Color: colorAccent}
	labelRight := label
	labelRight.Align = align.Right
	small := props.Text{Size: 8, Color: colorSecondary}
	smallRight := small
	smallRight.Align = align.Right

	rows := []core.Row{
		row.New(5).Add(
			col.New(8).Add(text.New("PREPARED FOR", label)),
			col.New(4).Add(text.New("QUOTE DETAILS", labelRight)),
		),
		row.New(5).Add(
			col.New(8).Add(text.New(orDash(doc.CustomerName), props.Text{Size: 9, Style: fontstyle.Bold, Color: colorPrimary})),
			col.New(4).Add(text.New("Date: "+doc.CreatedAt.Format("Jan 2, 2006"), smallRight)),
		),
		row.New(5).Add(
			col.New(8).Add(text.New(joinParts([]string{doc.CustomerCompany, doc.CustomerEmail}, "  |  "), small)),
			col.New(4).Add(text.New(printer.Sprintf("Quantity: %d caps", doc.Quantity), smallRight)),
		),
		row.New(5).Add(
			col.New(8),
			col.New(4).Add(text.New("Status: "+statusLabel(doc.Status), props.Text{
				Size:  8,
				Style: fontstyle.Bold,
				Color: statusColor(doc.Status),
				Align: align.Right,
			})),
		),
	}
	if doc.OrderID != nil {
		rows = append(rows, row.New(5).Add(
			col.New(12).Add(text.New("Order: "+doc.OrderID.String(), smallRight)),
		))
	}
	return rows
}

func buildStatusBanner(doc Document) (core.Row, bool) {
	switch doc.Status {
	case "ACCEPTED", "CONVERTED_TO_ORDER":
		return row.New(8).Add(
			col.New(12).Add(text.New("Quote accepted", props.Text{Size: 9, Style: fontstyle.Bold, Color: colorGreen, Top: 2})),
		).WithStyle(&props.Cell{BackgroundColor: &props.Color{Red: 220, Green: 252, Blue: 231}}), true
	case "REJECTED":
		return row.New(8).Add(
			col.New(12).Add(text.New("Quote declined", props.Text{Size: 9, Style: fontstyle.Bold, Color: colorRed, Top: 2})),
		).WithStyle(&props.Cell{BackgroundColor: &props.Color{Red: 254, Green: 226, Blue: 226}}), true
	}
	return nil, false
}

func buildLinesTable(doc Document) []core.Row {
	head := props.Text{Size: 7.5, Style: fontstyle.Bold, Color: colorPrimary, Top: 1.5}
	headRight := head
	headRight.Align = align.Right

	rows := []core.Row{
		row.New(7).Add(col.New(12).Add(text.New("ITEMS", props.Text{Size: 8, Style: fontstyle.Bold, Color: colorAccent}))),
		row.New(7).Add(
			col.New(6).Add(text.New("Description", head)),
			col.New(2).Add(text.New("Qty", headRight)),
			col.New(2).Add(text.New("Unit", headRight)),
			col.New(2).Add(text.New("Amount", headRight)),
		).WithStyle(&props.Cell{
			BackgroundColor: colorTableHead,
			BorderType:      border.Bottom,
			BorderColor:     colorBorder,
		}),
	}
	for i, line := range doc.Lines {
		rows = append(rows, buildLineRow(line, i))
	}
	return rows
}

func buildLineRow(line Line, idx int) core.Row {
	normal := props.Text{Size: 8, Color: colorPrimary, Top: 1}
	right := normal
	right.Align = align.Right

	desc := line.Label
	if line.Detail != "" {
		desc += " (" + line.Detail + ")"
	}

	r := row.New(7).Add(
		col.New(6).Add(text.New(desc, normal)),
		col.New(2).Add(text.New(printer.Sprintf("%d", line.Quantity), right)),
		col.New(2).Add(text.New(formatMoney(line.UnitPrice), right)),
		col.New(2).Add(text.New(formatMoney(line.Total), right)),
	)
	if idx%2 == 0 {
		r.WithStyle(&props.Cell{BackgroundColor: colorTableAlt})
	}
	return r
}

func buildTotalsBlock(doc Document) []core.Row {
	label := props.Text{Size: 9, Color: colorSecondary, Align: align.Right}
	value := props.Text{Size: 9, Color: colorPrimary, Align: align.Right}
	bold := props.Text{Size: 12, Style: fontstyle.Bold, Color: colorPrimary, Align: align.Right, Top: 2}

	rows := []core.Row{separator(), row.New(3)}
	if doc.MoldCharges > 0 {
		rows = append(rows, row.New(6).Add(
			col.New(9).Add(text.New("Mold charges (one-time)", label)),
			col.New(3).Add(text.New(formatMoney(doc.MoldCharges), value)),
		))
	}
	rows = append(rows,
		row.New(6).Add(
			col.New(9).Add(text.New("Per cap", label)),
			col.New(3).Add(text.New(formatMoney(doc.UnitTotal()), value)),
		),
		row.New(2),
		row.New(10).Add(
			col.New(9).Add(text.New("TOTAL", bold)),
			col.New(3).Add(text.New(formatMoney(doc.Total), bold)),
		).WithStyle(&props.Cell{
			BackgroundColor: colorTableHead,
			BorderType:      border.Top | border.Bottom,
			BorderColor:     colorBorder,
		}),
	)
	return rows
}

func buildTerms() []core.Row {
	terms := []string{
		"1.  Prices are in USD and based on the quantities shown. Changing quantities may move the order into a different price break.",
		"2.  Mold charges are billed once per design and are not repeated on re-orders.",
		"3.  Production starts after artwork approval. Delivery lead times are counted from approval.",
	}
	rows := []core.Row{
		separator(),
		row.New(3),
		row.New(5).Add(col.New(12).Add(text.New("TERMS", props.Text{Size: 7, Style: fontstyle.Bold, Color: colorAccent}))),
	}
	for _, t := range terms {
		rows = append(rows, row.New(4).Add(col.New(12).Add(text.New(t, props.Text{Size: 7, Color: colorSecondary}))))
	}
	return rows
}

func buildFooter(doc Document) core.Row {
	return row.New(10).Add(
		col.New(12).Add(text.New(joinParts([]string{doc.Number(), doc.QuoteOrderID.String()}, "  ·  "), props.Text{
			Size:  6.5,
			Color: colorSecondary,
			Align: align.Center,
			Top:   4,
		})),
	).WithStyle(&props.Cell{
		BorderType:  border.Top,
		BorderColor: colorBorder,
	})
}

func separator() core.Row {
	return row.New(1).WithStyle(&props.Cell{
		BorderType:  border.Bottom,
		BorderColor: colorBorder,
	})
}

func statusColor(status string) *props.Color {
	switch status {
	case "ACCEPTED", "CONVERTED_TO_ORDER":
		return colorGreen
	case "REJECTED":
		return colorRed
	default:
		return colorSecondary
	}
}

func statusLabel(status string) string {
	switch status {
	case "COMPLETED":
		return "Awaiting approval"
	case "ACCEPTED":
		return "Accepted"
	case "REJECTED":
		return "Declined"
	case "CONVERTED_TO_ORDER":
		return "Ordered"
	case "":
		return "Draft"
	default:
		return status
	}
}

func formatMoney(v float64) string {
	return printer.Sprintf("$%.2f", v)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func joinParts(parts []string, sep string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
