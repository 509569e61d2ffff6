package email

const (
	subjectQuoteAcceptedCustomerFmt = "Your order is confirmed: %s"
	subjectQuoteAcceptedAdminFmt    = "Quote accepted: %s (%s)"
)
