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

type QuoteHandler struct {
	db        *gorm.DB
	quotes    *services.QuoteService
	assistant *services.AssistantService
}

func NewQuoteHandler(db *gorm.DB, quotes *services.QuoteService, assistant *services.AssistantService) *QuoteHandler {
	return &QuoteHandler{db: db, quotes: quotes, assistant: assistant}
}

type quoteItemRequest struct {
	Name             string  `json:"name"`
	Quantity         float64 `json:"quantity"`
	Unit             string  `json:"unit"`
	UnitPrice        float64 `json:"unit_price"`
	OutsidePriceList bool    `json:"outside_price_list"`
	Rationale        string  `json:"rationale"`
}

type quoteRequest struct {
	RequestID       *uint              `json:"request_id"`
	DiscountPercent float64            `json:"discount_percent"`
	TaxPercent      float64            `json:"tax_percent"`
	Currency        string             `json:"currency"`
	ValidUntil      *time.Time         `json:"valid_until"`
	Notes           string             `json:"notes"`
	Items           []quoteItemRequest `json:"items"`
}

func (req *quoteRequest) validate() validation.Violations {
	v := make(validation.Violations)
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

func (req *quoteRequest) items() []models.QuoteItem {
	items := make([]models.QuoteItem, 0, len(req.Items))
	for i, item := range req.Items {
		items = append(items, models.QuoteItem{
			Name:             strings.TrimSpace(item.Name),
			Quantity:         item.Quantity,
			Unit:             item.Unit,
			UnitPrice:        item.UnitPrice,
			Total:            finance.Round2(finance.LineTotal(item.Quantity, item.UnitPrice)),
			OutsidePriceList: item.OutsidePriceList,
			Rationale:        item.Rationale,
			Position:         i,
		})
	}
	return items
}

func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	db := h.db.Where("user_id = ?", userID)
	if status := r.URL.Query().Get("status"); status != "" {
		db = db.Where("status = ?", status)
	}

	var quotes []models.Quote
	err := db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC, id ASC")
	}).Order("created_at DESC").Find(&quotes).Error
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, quotes)
}

func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	if req.RequestID != nil {
		var linked models.QuoteRequest
		if err := h.db.Where("id = ? AND user_id = ?", *req.RequestID, userID).First(&linked).Error; err != nil {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
	}

	tok, err := token.Mint()
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

	quote := models.Quote{
		UserID:          userID,
		RequestID:       req.RequestID,
		DiscountPercent: req.DiscountPercent,
		TaxPercent:      req.TaxPercent,
		Currency:        currency,
		Status:          models.QuoteStatusDraft,
		ValidUntil:      req.ValidUntil,
		Token:           tok,
		Notes:           req.Notes,
		Items:           req.items(),
	}
	h.quotes.Recalculate(&quote)

	if err := h.db.Create(&quote).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, quote)
}

func (h *QuoteHandler) View(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id := parseID(r)

	quote, err := h.quotes.Get(userID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

// Update replaces the quote's mutable fields and line items. Sent quotes
// stay editable and keep their status, sent and viewed timestamps: the
// client-facing link silently reflects the new content.
func (h *QuoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id := parseID(r)

	quote, err := h.quotes.Get(userID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !quote.CanEdit() {
		writeServiceError(w, &services.ConflictError{Op: "edit", Status: string(quote.Status)})
		return
	}

	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	quote.DiscountPercent = req.DiscountPercent
	quote.TaxPercent = req.TaxPercent
	quote.ValidUntil = req.ValidUntil
	quote.Notes = req.Notes
	if req.Currency != "" {
		quote.Currency = strings.ToUpper(req.Currency)
	}
	newItems := req.items()
	for i := range newItems {
		newItems[i].QuoteID = quote.ID
	}
	quote.Items = newItems
	h.quotes.Recalculate(quote)

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quote_id = ?", quote.ID).Delete(&models.QuoteItem{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(quote).Error
	})
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.quotes.Delete(userID, parseID(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *QuoteHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	quote, err := h.quotes.Send(r.Context(), userID, parseID(r), time.Now())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

type suggestRequest struct {
	Description string `json:"description"`
}

// SuggestItems proposes line items for a job description via the assistant.
func (h *QuoteHandler) SuggestItems(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req suggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}

	items, err := h.assistant.SuggestItems(r.Context(), userID, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func parseID(r *http.Request) uint {
	id, _ := strconv.ParseUint(r.PathValue("id"), 10, 32)
	return uint(id)
}
