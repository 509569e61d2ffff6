// Package pdf renders customer-facing quote documents with maroto/v2.
package pdf

import (
	"time"

	"github.com/google/uuid"
)

// Line is one priced row of the quote.
type Line struct {
	Label     string
	Detail    string
	Quantity  int
	UnitPrice float64
	Total     float64
}

// Document is everything the renderer needs to lay out a quote.
type Document struct {
	QuoteOrderID    uuid.UUID
	Title           string
	Status          string
	CustomerName    string
	CustomerEmail   string
	CustomerCompany string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Quantity        int
	Lines           []Line
	MoldCharges     float64
	Total           float64
	OrderID         *uuid.UUID
}

// Number is the short human reference printed on the document.
func (d Document) Number() string {
	id := d.QuoteOrderID.String()
	return "Q-" + id[:8]
}

// UnitTotal is the all-in price per cap.
func (d Document) UnitTotal() float64 {
	if d.Quantity <= 0 {
		return 0
	}
	return d.Total / float64(d.Quantity)
}
