package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/HalooLaloo/quotesnap-sub000/internal/auth"
	"github.com/HalooLaloo/quotesnap-sub000/internal/finance"
	"github.com/HalooLaloo/quotesnap-sub000/internal/httpx"
	"github.com/HalooLaloo/quotesnap-sub000/internal/models"
	"github.com/HalooLaloo/quotesnap-sub000/internal/services"
	"github.com/HalooLaloo/quotesnap-sub000/internal/token"
	"github.com/HalooLaloo/quotesnap-sub000/internal/validation"
)

type InvoiceHandler struct {
	db       *gorm.DB
	invoices *services.InvoiceService
}

func NewInvoiceHandler(db *gorm.DB, invoices *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{db: db, invoices: invoices}
}

type invoiceItemRequest struct {
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	Unit      string  `json:"unit"`
	UnitPrice float64 `json:"unit_price"`
}

type invoiceRequest struct {
	ClientName      string               `json:"client_name"`
	ClientEmail     string               `json:"client_email"`
	ClientPhone     string               `json:"client_phone"`
	ClientAddress   string               `json:"client_address"`
	DiscountPercent float64              `json:"discount_percent"`
	TaxPercent      float64              `json:"tax_percent"`
	Currency        string               `json:"currency"`
	DueDate         *time.Time           `json:"due_date"`
	Notes           string               `json:"notes"`
	BankName        string               `json:"bank_name"`
	BankAccount     string               `json:"bank_account"`
	BankRouting     string               `json:"bank_routing"`
	Items           []invoiceItemRequest `json:"items"`
}

func (req *invoiceRequest) validate() validation.Violations {
	v := make(validation.Violations)
	validation.Required("client_name", req.ClientName, v)
	if req.ClientEmail != "" {
		validation.Email("client_email", req.ClientEmail, v)
	}
	validation.RangeFloat("discount_percent", req.DiscountPercent, 0, 100, v)
	validation.NonNegativeFloat("tax_percent", req.TaxPercent, v)
	for i, item := range req.Items {
		prefix := "items." + strconv.Itoa(i) + "."
		validation.Required(prefix+"name", item.Name, v)
		validation.PositiveFloat(prefix+"quantity", item.Quantity, v)
		validation.NonNegativeFloat(prefix+"unit_price", item.UnitPrice, v)
	}
	return v
}

func (req *invoiceRequest) items() []models.InvoiceItem {
	items := make([]models.InvoiceItem, 0, len(req.Items))
	for i, item := range req.Items {
		items = append(items, models.InvoiceItem{
			Name:      strings.TrimSpace(item.Name),
			Quantity:  item.Quantity,
			Unit:      item.Unit,
			UnitPrice: item.UnitPrice,
			Total:     finance.Round2(finance.LineTotal(item.Quantity, item.UnitPrice)),
			Position:  i,
		})
	}
	return items
}

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	db := h.db.Where("user_id = ?", userID)
	if status := r.URL.Query().Get("status"); status != "" {
		db = db.Where("status = ?", status)
	}

	var invoices []models.Invoice
	err := db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC, id ASC")
	}).Order("created_at DESC").Find(&invoices).Error
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}

	// Overdue is derived at read time, never stored.
	now := time.Now()
	type invoiceView struct {
		models.Invoice
		Overdue bool `json:"overdue"`
	}
	out := make([]invoiceView, len(invoices))
	for i, inv := range invoices {
		out[i] = invoiceView{Invoice: inv, Overdue: inv.IsOverdue(now)}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req invoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	tok, err := token.Mint()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	now := time.Now()
	number, err := models.GenerateInvoiceNumber(h.db, userID, now.Year())
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		var contractor models.Contractor
		if err := h.db.First(&contractor, userID).Error; err == nil {
			currency = contractor.Currency
		}
	}
	due := req.DueDate
	if due == nil {
		d := now.AddDate(0, 0, services.DefaultDueDays)
		due = &d
	}

	invoice := models.Invoice{
		UserID:          userID,
		Number:          number,
		ClientName:      strings.TrimSpace(req.ClientName),
		ClientEmail:     strings.TrimSpace(req.ClientEmail),
		ClientPhone:     strings.TrimSpace(req.ClientPhone),
		ClientAddress:   strings.TrimSpace(req.ClientAddress),
		DiscountPercent: req.DiscountPercent,
		TaxPercent:      req.TaxPercent,
		Currency:        currency,
		Status:          models.InvoiceStatusDraft,
		DueDate:         due,
		Token:           tok,
		Notes:           req.Notes,
		BankName:        req.BankName,
		BankAccount:     req.BankAccount,
		BankRouting:     req.BankRouting,
		Items:           req.items(),
	}
	h.invoices.Recalculate(&invoice)

	if err := h.db.Create(&invoice).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, invoice)
}

// CreateFromQuote converts an accepted quote into a draft invoice.
func (h *InvoiceHandler) CreateFromQuote(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	invoice, err := h.invoices.CreateFromQuote(userID, parseID(r), time.Now())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, invoice)
}

func (h *InvoiceHandler) View(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	invoice, err := h.invoices.Get(userID, parseID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"invoice": invoice,
		"overdue": invoice.IsOverdue(time.Now()),
	})
}

// Update replaces the invoice's mutable fields and line items. Paid invoices
// are immutable payment records.
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	invoice, err := h.invoices.Get(userID, parseID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if invoice.IsPaid() {
		writeServiceError(w, &services.ConflictError{Op: "edit", Status: string(invoice.Status)})
		return
	}

	var req invoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	invoice.ClientName = strings.TrimSpace(req.ClientName)
	invoice.ClientEmail = strings.TrimSpace(req.ClientEmail)
	invoice.ClientPhone = strings.TrimSpace(req.ClientPhone)
	invoice.ClientAddress = strings.TrimSpace(req.ClientAddress)
	invoice.DiscountPercent = req.DiscountPercent
	invoice.TaxPercent = req.TaxPercent
	if req.DueDate != nil {
		// An omitted due_date keeps the stored one; overdue tracking
		// must not reset on an unrelated edit.
		invoice.DueDate = req.DueDate
	}
	invoice.Notes = req.Notes
	invoice.BankName = req.BankName
	invoice.BankAccount = req.BankAccount
	invoice.BankRouting = req.BankRouting
	if req.Currency != "" {
		invoice.Currency = strings.ToUpper(req.Currency)
	}
	newItems := req.items()
	for i := range newItems {
		newItems[i].InvoiceID = invoice.ID
	}
	invoice.Items = newItems
	h.invoices.Recalculate(invoice)

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(invoice).Error
	})
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, invoice)
}

func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.invoices.Delete(userID, parseID(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *InvoiceHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	invoice, err := h.invoices.Send(r.Context(), userID, parseID(r), time.Now())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoice)
}

func (h *InvoiceHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	invoice, err := h.invoices.MarkPaid(userID, parseID(r), time.Now())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoice)
}
