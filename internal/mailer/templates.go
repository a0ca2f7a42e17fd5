package mailer

import (
	"fmt"
	"html"
	"strings"
)

// layout wraps email content in the shared shell: accent header, white card,
// muted footer. Content is already-escaped HTML.
func layout(accentColor, title, content string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><body style="font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; background-color: #f3f4f6; margin: 0; padding: 20px;">`)
	b.WriteString(`<div style="max-width: 500px; margin: 0 auto; background: white; border-radius: 12px; overflow: hidden;">`)
	fmt.Fprintf(&b, `<div style="background: %s; padding: 24px; text-align: center;"><h1 style="color: white; margin: 0; font-size: 24px;">%s</h1></div>`, accentColor, html.EscapeString(title))
	fmt.Fprintf(&b, `<div style="padding: 32px;">%s</div>`, content)
	b.WriteString(`<div style="background: #f9fafb; padding: 16px; text-align: center; border-top: 1px solid #e5e7eb;"><p style="color: #9ca3af; font-size: 12px; margin: 0;">QuoteSnap</p></div>`)
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func button(url, label, color string) string {
	return fmt.Sprintf(`<a href="%s" style="display: block; background: %s; color: white; padding: 14px 24px; border-radius: 8px; text-decoration: none; font-weight: 600; text-align: center;">%s</a>`,
		url, color, html.EscapeString(label))
}

// QuoteMessage is the quote dispatched to the client with its public link.
func QuoteMessage(to, clientName, contractorName, amount, validUntil, quoteURL string) Message {
	content := fmt.Sprintf(
		`<p style="color: #374151; font-size: 16px;">Hi <strong>%s</strong>,</p>
<p style="color: #6b7280; font-size: 15px;"><strong>%s</strong> has prepared a quote for you: <strong>%s</strong>.</p>`,
		html.EscapeString(clientName), html.EscapeString(contractorName), html.EscapeString(amount))
	if validUntil != "" {
		content += fmt.Sprintf(`<p style="color: #6b7280; font-size: 14px;">This quote is valid until <strong>%s</strong>.</p>`, html.EscapeString(validUntil))
	}
	content += button(quoteURL, "View Quote", "#3b82f6")
	return Message{
		To:      to,
		Subject: "Quote from " + contractorName,
		HTML:    layout("#3b82f6", "Your Quote Is Ready", content),
	}
}

// DecisionMessage notifies the contractor that a client accepted or rejected
// a quote.
func DecisionMessage(to, clientName, amount string, accepted bool) Message {
	verb, title, color := "rejected", "Quote Rejected", "#ef4444"
	if accepted {
		verb, title, color = "accepted", "Quote Accepted!", "#22c55e"
	}
	content := fmt.Sprintf(
		`<p style="color: #374151; font-size: 16px;"><strong>%s</strong> has %s your quote.</p>
<p style="color: #6b7280; font-size: 14px;">Quote total: <strong>%s</strong></p>`,
		html.EscapeString(clientName), verb, html.EscapeString(amount))
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Quote %s by %s", verb, clientName),
		HTML:    layout(color, title, content),
	}
}

// InvoiceMessage is the invoice dispatched to the client.
func InvoiceMessage(to, clientName, contractorName, number, amount, dueDate, invoiceURL string) Message {
	content := fmt.Sprintf(
		`<p style="color: #374151; font-size: 16px;">Hi <strong>%s</strong>,</p>
<p style="color: #6b7280; font-size: 15px;"><strong>%s</strong> has sent you invoice <strong>%s</strong> for <strong>%s</strong>.</p>`,
		html.EscapeString(clientName), html.EscapeString(contractorName), html.EscapeString(number), html.EscapeString(amount))
	if dueDate != "" {
		content += fmt.Sprintf(`<p style="color: #6b7280; font-size: 14px;">Due by <strong>%s</strong>.</p>`, html.EscapeString(dueDate))
	}
	content += button(invoiceURL, "View Invoice", "#3b82f6")
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Invoice %s from %s", number, contractorName),
		HTML:    layout("#3b82f6", "New Invoice", content),
	}
}

// ReminderMessage is the client payment reminder for an overdue invoice.
func ReminderMessage(to, clientName, contractorName, number, amount, overdueText, invoiceURL string) Message {
	content := fmt.Sprintf(
		`<p style="color: #374151; font-size: 16px;">Hi <strong>%s</strong>,</p>
<p style="color: #6b7280; font-size: 15px;">This is a friendly reminder that invoice <strong>%s</strong> from <strong>%s</strong> is awaiting payment.</p>`,
		html.EscapeString(clientName), html.EscapeString(number), html.EscapeString(contractorName))
	if overdueText != "" {
		content += fmt.Sprintf(`<div style="background: #fff7ed; border-left: 4px solid #f97316; padding: 12px 16px; margin-bottom: 24px;"><p style="margin: 0; color: #9a3412; font-size: 14px;">%s</p></div>`, html.EscapeString(overdueText))
	}
	content += fmt.Sprintf(`<div style="background: #fef3c7; border-radius: 8px; padding: 20px; margin-bottom: 24px; text-align: center;"><p style="color: #92400e; font-size: 13px; margin: 0 0 4px 0;">Amount Due</p><p style="color: #78350f; font-size: 28px; font-weight: 700; margin: 0;">%s</p></div>`, html.EscapeString(amount))
	content += button(invoiceURL, "View Invoice", "#f97316")
	return Message{
		To:      to,
		Subject: "Payment reminder: " + number,
		HTML:    layout("#f97316", "Payment Reminder", content),
	}
}

// PaidMessage notifies the contractor that an invoice was marked paid.
func PaidMessage(to, clientName, number string) Message {
	content := fmt.Sprintf(
		`<p style="color: #374151; font-size: 16px;">Invoice <strong>%s</strong> for client <strong>%s</strong> has been marked as paid.</p>`,
		html.EscapeString(number), html.EscapeString(clientName))
	return Message{
		To:      to,
		Subject: "Invoice paid - " + clientName,
		HTML:    layout("#22c55e", "Invoice Paid!", content),
	}
}

// IntakeMessage notifies the contractor of a newly submitted job request.
func IntakeMessage(to, clientName, summary, requestsURL string) Message {
	if len(summary) > 280 {
		summary = summary[:280] + "…"
	}
	content := fmt.Sprintf(
		`<p style="color: #374151; font-size: 16px;"><strong>%s</strong> has requested a quote.</p>
<p style="color: #6b7280; font-size: 14px;">%s</p>`,
		html.EscapeString(clientName), html.EscapeString(summary))
	content += button(requestsURL, "View Request", "#3b82f6")
	return Message{
		To:      to,
		Subject: "New quote request from " + clientName,
		HTML:    layout("#3b82f6", "New Quote Request", content),
	}
}

// DigestItem is one line in a contractor digest.
type DigestItem struct {
	Label  string
	Detail string
}

// DigestMessage builds one of the three contractor digest conditions: new
// requests, overdue invoices, or expiring quotes. At most five items are
// listed; the rest are summarized.
func DigestMessage(to, title, intro, accentColor, listURL string, items []DigestItem) Message {
	var list strings.Builder
	shown := items
	if len(shown) > 5 {
		shown = shown[:5]
	}
	list.WriteString(`<div style="background: #f9fafb; border-radius: 8px; padding: 16px; margin-bottom: 24px;">`)
	for _, it := range shown {
		fmt.Fprintf(&list, `<p style="color: #374151; font-size: 14px; margin: 8px 0;"><strong>%s</strong> %s</p>`,
			html.EscapeString(it.Label), html.EscapeString(it.Detail))
	}
	if rest := len(items) - len(shown); rest > 0 {
		fmt.Fprintf(&list, `<p style="color: #6b7280; font-size: 12px; margin: 8px 0;">…and %d more</p>`, rest)
	}
	list.WriteString(`</div>`)

	content := fmt.Sprintf(`<p style="color: #374151; font-size: 16px;">%s</p>%s%s`,
		html.EscapeString(intro), list.String(), button(listURL, "Open QuoteSnap", accentColor))
	return Message{
		To:      to,
		Subject: title,
		HTML:    layout(accentColor, title, content),
	}
}
