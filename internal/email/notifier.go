package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"headwear_backend/platform/logger"

	"github.com/google/uuid"
)

// Queue hands a rendered message to background delivery.
type Queue interface {
	EnqueueEmail(ctx context.Context, msg Message) error
}

// CostLine is one row of the cost table in quote emails.
type CostLine struct {
	Label  string
	Amount float64
}

// QuoteAccepted is what the acceptance emails are rendered from.
type QuoteAccepted struct {
	QuoteOrderID    uuid.UUID
	OrderID         uuid.UUID
	Title           string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	CustomerCompany string
	Quantity        int
	Lines           []CostLine
	Total           float64
}

// Results reports, per recipient, whether the email was accepted for
// delivery. It does not confirm the email arrived.
type Results struct {
	Customer      bool   `json:"customer"`
	Admin         bool   `json:"admin"`
	CustomerError string `json:"customerError,omitempty"`
	AdminError    string `json:"adminError,omitempty"`
}

var (
	errNoCustomerEmail = errors.New("quote has no customer email")
	errNoAdminEmail    = errors.New("admin notification address not configured")
)

// Notifier renders quote emails and schedules their delivery.
type Notifier struct {
	sender     Sender
	queue      Queue
	adminEmail string
	appBaseURL string
	log        *logger.Logger
}

// NewNotifier creates a notifier. Without a queue, messages are sent
// directly through sender.
func NewNotifier(sender Sender, adminEmail, appBaseURL string, log *logger.Logger) *Notifier {
	if sender == nil {
		sender = NoopSender{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Notifier{
		sender:     sender,
		adminEmail: adminEmail,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
		log:        log,
	}
}

// SetQueue routes delivery through background tasks.
func (n *Notifier) SetQueue(q Queue) {
	n.queue = q
}

// NotifyQuoteAccepted emails the customer and the admin. It never fails;
// problems are logged and reported in Results.
func (n *Notifier) NotifyQuoteAccepted(ctx context.Context, q QuoteAccepted) Results {
	var res Results
	log := n.log.WithContext(ctx)

	if err := n.notifyCustomer(ctx, q); err != nil {
		log.BestEffortFailure("email_customer", err, "quote_order_id", q.QuoteOrderID.String())
		res.CustomerError = err.Error()
	} else {
		res.Customer = true
	}

	if err := n.notifyAdmin(ctx, q); err != nil {
		log.BestEffortFailure("email_admin", err, "quote_order_id", q.QuoteOrderID.String())
		res.AdminError = err.Error()
	} else {
		res.Admin = true
	}
	return res
}

func (n *Notifier) notifyCustomer(ctx context.Context, q QuoteAccepted) error {
	if q.CustomerEmail == "" {
		return errNoCustomerEmail
	}
	lines, total := formatLines(q)
	data := quoteAcceptedCustomerData{
		baseEmailData: baseEmailData{
			Title:   "Order confirmed",
			Heading: "Your order is confirmed",
		},
		CustomerName: q.CustomerName,
		QuoteTitle:   q.Title,
		OrderRef:     shortRef(q.OrderID),
		Quantity:     q.Quantity,
		Lines:        lines,
		Total:        total,
	}
	if n.appBaseURL != "" {
		data.CTALabel = "View your order"
		data.CTAURL = fmt.Sprintf("%s/orders/%s", n.appBaseURL, q.OrderID)
	}
	html, err := renderEmailTemplate("quote_accepted_customer.html", data)
	if err != nil {
		return err
	}
	return n.deliver(ctx, Message{
		To:      q.CustomerEmail,
		Subject: fmt.Sprintf(subjectQuoteAcceptedCustomerFmt, q.Title),
		HTML:    html,
	})
}

func (n *Notifier) notifyAdmin(ctx context.Context, q QuoteAccepted) error {
	if n.adminEmail == "" {
		return errNoAdminEmail
	}
	lines, total := formatLines(q)
	data := quoteAcceptedAdminData{
		baseEmailData: baseEmailData{
			Title:   "Quote accepted",
			Heading: "Quote accepted",
		},
		QuoteTitle:      q.Title,
		QuoteOrderID:    q.QuoteOrderID.String(),
		OrderID:         q.OrderID.String(),
		CustomerName:    q.CustomerName,
		CustomerEmail:   q.CustomerEmail,
		CustomerPhone:   q.CustomerPhone,
		CustomerCompany: q.CustomerCompany,
		Quantity:        q.Quantity,
		Lines:           lines,
		Total:           total,
	}
	if n.appBaseURL != "" {
		data.CTALabel = "Open in back office"
		data.CTAURL = fmt.Sprintf("%s/admin/orders/%s", n.appBaseURL, q.OrderID)
	}
	html, err := renderEmailTemplate("quote_accepted_admin.html", data)
	if err != nil {
		return err
	}
	return n.deliver(ctx, Message{
		To:      n.adminEmail,
		Subject: fmt.Sprintf(subjectQuoteAcceptedAdminFmt, q.Title, total),
		HTML:    html,
	})
}

func (n *Notifier) deliver(ctx context.Context, msg Message) error {
	if n.queue != nil {
		return n.queue.EnqueueEmail(ctx, msg)
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 20*time.Second)
	defer cancel()
	return n.sender.Send(sendCtx, msg)
}

func formatLines(q QuoteAccepted) ([]costLine, string) {
	lines := make([]costLine, 0, len(q.Lines))
	for _, l := range q.Lines {
		if l.Amount == 0 {
			continue
		}
		lines = append(lines, costLine{Label: l.Label, Amount: formatCurrencyUSD(l.Amount)})
	}
	return lines, formatCurrencyUSD(q.Total)
}

func shortRef(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:8])
}
