package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/HalooLaloo/quotesnap-sub000/internal/countries"
	"github.com/HalooLaloo/quotesnap-sub000/internal/httpx"
	"github.com/HalooLaloo/quotesnap-sub000/internal/models"
	"github.com/HalooLaloo/quotesnap-sub000/internal/pdf"
	"github.com/HalooLaloo/quotesnap-sub000/internal/services"
)

// PublicHandler is the token-gated client surface. There is no session here:
// possession of the token is the only credential, and every failure mode
// that would confirm or deny a document's existence collapses to 404.
type PublicHandler struct {
	db       *gorm.DB
	quotes   *services.QuoteService
	invoices *services.InvoiceService
}

func NewPublicHandler(db *gorm.DB, quotes *services.QuoteService, invoices *services.InvoiceService) *PublicHandler {
	return &PublicHandler{db: db, quotes: quotes, invoices: invoices}
}

// QuoteView returns the client-facing quote and stamps the first view.
func (h *PublicHandler) QuoteView(w http.ResponseWriter, r *http.Request) {
	tok := r.PathValue("token")
	quote, err := h.quotes.ResolveByToken(tok)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Viewing is best-effort bookkeeping; the client still gets the quote.
	_ = h.quotes.MarkViewed(tok, time.Now())

	var contractor models.Contractor
	if err := h.db.First(&contractor, quote.UserID).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"quote":       publicQuote(quote),
		"contractor":  publicContractor(&contractor),
		"can_decide":  quote.CanDecide(),
		"client_qa":   quote.ClientQA(),
	})
}

type decisionRequest struct {
	Action string `json:"action"`
}

// QuoteDecision records the client's accept or reject decision.
func (h *PublicHandler) QuoteDecision(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.Action != "accept" && req.Action != "reject" {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_action", "action must be accept or reject")
		return
	}

	quote, err := h.quotes.Decide(r.Context(), r.PathValue("token"), req.Action == "accept", time.Now())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": quote.Status})
}

// QuotePDF streams the quote as a PDF download.
func (h *PublicHandler) QuotePDF(w http.ResponseWriter, r *http.Request) {
	quote, err := h.quotes.ResolveByToken(r.PathValue("token"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var contractor models.Contractor
	if err := h.db.First(&contractor, quote.UserID).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}

	clientName := ""
	var clientParty pdf.Party
	if quote.RequestID != nil {
		var req models.QuoteRequest
		if err := h.db.First(&req, *quote.RequestID).Error; err == nil {
			clientName = req.ClientName
			clientParty = pdf.Party{Name: req.ClientName, Email: req.ClientEmail, Phone: req.ClientPhone, Address: req.Address}
		}
	}

	country := countries.ByCode(contractor.Country)
	doc := pdf.Document{
		Title:     "QUOTE",
		From:      contractorParty(&contractor),
		To:        clientParty,
		IssuedOn:  quote.CreatedAt.Format(country.DateFormat),
		DateLabel: "Valid until",
		Lines:     quoteLines(quote.Items),
		Currency:  countries.CurrencySymbol(quote.Currency),
		Notes:     quote.PublicNotes(),
	}
	if quote.ValidUntil != nil {
		doc.Date = quote.ValidUntil.Format(country.DateFormat)
	}
	fillTotals(&doc, quote.Subtotal, quote.DiscountPercent, quote.TaxPercent, quote.TotalNet, quote.TotalGross)

	servePDF(w, doc, pdf.Filename("quote", "", clientName))
}

// InvoiceView returns the client-facing invoice.
func (h *PublicHandler) InvoiceView(w http.ResponseWriter, r *http.Request) {
	invoice, err := h.invoices.ResolveByToken(r.PathValue("token"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var contractor models.Contractor
	if err := h.db.First(&contractor, invoice.UserID).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"invoice":    publicInvoice(invoice),
		"contractor": publicContractor(&contractor),
		"bank":       bankDetails(invoice, &contractor),
		"overdue":    invoice.IsOverdue(time.Now()),
		"can_pay":    invoice.Status == models.InvoiceStatusSent,
	})
}

type payRequest struct {
	Confirm bool `json:"confirm"`
}

// InvoicePay records the client's payment claim in two phases: a first POST
// answers with a confirmation challenge, and only a repeat POST carrying
// confirm=true mutates. An accidental single click never marks anything paid.
func (h *PublicHandler) InvoicePay(w http.ResponseWriter, r *http.Request) {
	// An empty or absent body means phase one.
	var req payRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if !req.Confirm {
		invoice, err := h.invoices.ResolveByToken(r.PathValue("token"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if invoice.IsPaid() {
			writeServiceError(w, &services.ConflictError{Op: "mark paid", Status: string(invoice.Status)})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{
			"status":           invoice.Status,
			"confirm_required": true,
			"number":           invoice.Number,
			"total_gross":      invoice.TotalGross,
			"currency":         invoice.Currency,
		})
		return
	}

	invoice, err := h.invoices.MarkPaidByToken(r.Context(), r.PathValue("token"), time.Now())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": invoice.Status, "confirm_required": false})
}

// InvoicePDF streams the invoice as a PDF download.
func (h *PublicHandler) InvoicePDF(w http.ResponseWriter, r *http.Request) {
	invoice, err := h.invoices.ResolveByToken(r.PathValue("token"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var contractor models.Contractor
	if err := h.db.First(&contractor, invoice.UserID).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}

	country := countries.ByCode(contractor.Country)
	doc := pdf.Document{
		Title:     "INVOICE",
		Number:    invoice.Number,
		From:      contractorParty(&contractor),
		To:        pdf.Party{Name: invoice.ClientName, Email: invoice.ClientEmail, Phone: invoice.ClientPhone, Address: invoice.ClientAddress},
		IssuedOn:  invoice.CreatedAt.Format(country.DateFormat),
		DateLabel: "Due",
		Lines:     invoiceLines(invoice.Items),
		Currency:  countries.CurrencySymbol(invoice.Currency),
		Notes:     invoice.Notes,
	}
	if invoice.DueDate != nil {
		doc.Date = invoice.DueDate.Format(country.DateFormat)
	}
	fillTotals(&doc, invoice.Subtotal, invoice.DiscountPercent, invoice.TaxPercent, invoice.TotalNet, invoice.TotalGross)
	if bank := bankDetails(invoice, &contractor); bank != nil {
		doc.Bank = &pdf.Bank{Name: bank["bank_name"], Account: bank["bank_account"], Routing: bank["bank_routing"]}
	}

	servePDF(w, doc, pdf.Filename("invoice", invoice.Number, invoice.ClientName))
}

func servePDF(w http.ResponseWriter, doc pdf.Document, filename string) {
	out, err := pdf.Render(doc)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

func contractorParty(c *models.Contractor) pdf.Party {
	return pdf.Party{
		Name:    c.FullName,
		Company: c.CompanyName,
		Address: c.BusinessAddress,
		Email:   c.Email,
		Phone:   c.Phone,
		TaxID:   c.TaxID,
	}
}

func quoteLines(items []models.QuoteItem) []pdf.Line {
	lines := make([]pdf.Line, len(items))
	for i, item := range items {
		lines[i] = pdf.Line{Name: item.Name, Quantity: item.Quantity, Unit: item.Unit, UnitPrice: item.UnitPrice, Total: item.Total}
	}
	return lines
}

func invoiceLines(items []models.InvoiceItem) []pdf.Line {
	lines := make([]pdf.Line, len(items))
	for i, item := range items {
		lines[i] = pdf.Line{Name: item.Name, Quantity: item.Quantity, Unit: item.Unit, UnitPrice: item.UnitPrice, Total: item.Total}
	}
	return lines
}

func fillTotals(doc *pdf.Document, subtotal, discountPct, taxPct, net, gross float64) {
	doc.Subtotal = subtotal
	doc.DiscountPct = discountPct
	doc.DiscountAmount = subtotal - net
	doc.Net = net
	doc.TaxPct = taxPct
	doc.TaxAmount = gross - net
	doc.Gross = gross
}

// publicQuote strips contractor-internal fields from the client payload.
func publicQuote(q *models.Quote) map[string]any {
	return map[string]any{
		"status":           q.Status,
		"items":            q.Items,
		"discount_percent": q.DiscountPercent,
		"tax_percent":      q.TaxPercent,
		"subtotal":         q.Subtotal,
		"total_net":        q.TotalNet,
		"total_gross":      q.TotalGross,
		"currency":         q.Currency,
		"valid_until":      q.ValidUntil,
		"sent_at":          q.SentAt,
		"notes":            q.PublicNotes(),
	}
}

func publicInvoice(inv *models.Invoice) map[string]any {
	return map[string]any{
		"number":           inv.Number,
		"status":           inv.Status,
		"client_name":      inv.ClientName,
		"items":            inv.Items,
		"discount_percent": inv.DiscountPercent,
		"tax_percent":      inv.TaxPercent,
		"subtotal":         inv.Subtotal,
		"total_net":        inv.TotalNet,
		"total_gross":      inv.TotalGross,
		"currency":         inv.Currency,
		"due_date":         inv.DueDate,
		"sent_at":          inv.SentAt,
		"paid_at":          inv.PaidAt,
		"notes":            inv.Notes,
	}
}

func publicContractor(c *models.Contractor) map[string]any {
	return map[string]any{
		"name":    c.DisplayName(),
		"phone":   c.Phone,
		"email":   c.Email,
		"address": c.BusinessAddress,
	}
}

// bankDetails resolves per-invoice overrides against the contractor's
// defaults. Returns nil when neither has anything to show.
func bankDetails(inv *models.Invoice, c *models.Contractor) map[string]string {
	name, account, routing := inv.BankName, inv.BankAccount, inv.BankRouting
	if name == "" {
		name = c.BankName
	}
	if account == "" {
		account = c.BankAccount
	}
	if routing == "" {
		routing = c.BankRouting
	}
	if name == "" && account == "" && routing == "" {
		return nil
	}
	return map[string]string{"bank_name": name, "bank_account": account, "bank_routing": routing}
}
