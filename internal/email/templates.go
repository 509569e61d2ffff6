package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type costLine struct {
	Label  string
	Amount string
}

type quoteAcceptedCustomerData struct {
	baseEmailData
	CustomerName string
	QuoteTitle   string
	OrderRef     string
	Quantity     int
	Lines        []costLine
	Total        string
}

type quoteAcceptedAdminData struct {
	baseEmailData
	QuoteTitle      string
	QuoteOrderID    string
	OrderID         string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	CustomerCompany string
	Quantity        int
	Lines           []costLine
	Total           string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

var usd = message.NewPrinter(language.AmericanEnglish)

func formatCurrencyUSD(amount float64) string {
	return usd.Sprintf("$%.2f", amount)
}
